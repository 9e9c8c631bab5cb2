package domain

import (
	"strings"
	"time"
)

type RepositoryStatus string

const (
	StatusQueued            RepositoryStatus = "QUEUED"
	StatusAnalyzingCode     RepositoryStatus = "ANALYZING_CODE"
	StatusAnalysisCompleted RepositoryStatus = "ANALYSIS_COMPLETED"
	StatusGeneratingReadme  RepositoryStatus = "GENERATING_README"
	StatusCompleted         RepositoryStatus = "COMPLETED"
	StatusFailed            RepositoryStatus = "FAILED"
)

// Repository is the persisted record of one tracked source repository.
// ProjectStructure holds the newline-delimited file listing produced by the
// scanner; it is refreshed on every code analysis run.
type Repository struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	URL              string           `json:"url"`
	OwnerID          string           `json:"ownerId"`
	LocalPath        string           `json:"localPath"`
	Status           RepositoryStatus `json:"status"`
	ProjectStructure string           `json:"projectStructure,omitempty"`
	LastAnalyzedAt   *time.Time       `json:"lastAnalyzedAt,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// RepoNameFromURL derives a display name from a clone URL.
func RepoNameFromURL(url string) string {
	clean := NormalizeRepoURL(url)
	if idx := strings.LastIndexAny(clean, "/:"); idx >= 0 {
		clean = clean[idx+1:]
	}
	return clean
}

// NormalizeRepoURL strips the trailing slash and ".git" suffix so duplicate
// checks treat equivalent clone URLs as the same repository.
func NormalizeRepoURL(url string) string {
	clean := strings.TrimSpace(url)
	clean = strings.TrimSuffix(clean, "/")
	clean = strings.TrimSuffix(clean, ".git")
	return clean
}
