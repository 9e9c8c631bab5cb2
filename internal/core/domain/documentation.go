package domain

import "time"

// ReadmeFilePath is the synthetic documentation path under which the
// generated README is stored, keeping it addressable like any other document.
const ReadmeFilePath = "README_GENERATED.md"

// Documentation is one AI-generated document for a file of a repository.
// (RepositoryID, FilePath) is unique; repeated analysis upserts in place.
type Documentation struct {
	ID           string    `json:"id"`
	RepositoryID string    `json:"repositoryId"`
	FilePath     string    `json:"filePath"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SearchResult is a single full-text search hit over saved documentation.
type SearchResult struct {
	DocumentationID string `json:"documentationId"`
	RepositoryID    string `json:"repositoryId"`
	RepositoryName  string `json:"repositoryName"`
	FilePath        string `json:"filePath"`
	Snippet         string `json:"snippet"`
}

// DashboardStats aggregates per-owner documentation activity.
type DashboardStats struct {
	TotalRepositories    int        `json:"totalRepos"`
	AnalyzedRepositories int        `json:"analyzedRepos"`
	TotalFilesDocumented int64      `json:"totalFilesDocumented"`
	LastAnalysisAt       *time.Time `json:"lastAnalysisAt,omitempty"`
}
