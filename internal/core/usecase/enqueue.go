package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/intellidoc/repodoc/internal/core/domain"
	"github.com/intellidoc/repodoc/internal/core/ports"
)

// EnqueueUseCase is the intake side of the pipeline: it registers
// repositories and publishes processing jobs for the workers.
type EnqueueUseCase struct {
	repos ports.RepositoryStore
	queue ports.JobQueue
}

func NewEnqueueUseCase(repos ports.RepositoryStore, queue ports.JobQueue) *EnqueueUseCase {
	return &EnqueueUseCase{repos: repos, queue: queue}
}

// QueueAnalysis registers a repository and queues its first analysis. The
// same clone URL with or without a ".git" suffix, or differing only in
// letter case, counts as the same repository for one owner.
func (uc *EnqueueUseCase) QueueAnalysis(ctx context.Context, repoURL, ownerID string) (*domain.Repository, error) {
	repoURL = strings.TrimSpace(repoURL)
	if repoURL == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "queue analysis", fmt.Errorf("empty repository url"))
	}
	if ownerID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "queue analysis", fmt.Errorf("empty owner id"))
	}

	normalized := domain.NormalizeRepoURL(repoURL)
	existing, err := uc.repos.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check for duplicates: %w", err)
	}
	for _, r := range existing {
		if strings.EqualFold(domain.NormalizeRepoURL(r.URL), normalized) {
			return nil, domain.WrapError(domain.ErrDuplicateRepository, "queue analysis",
				fmt.Errorf("url %s already registered for owner %s", normalized, ownerID))
		}
	}

	now := time.Now().UTC()
	repo := &domain.Repository{
		ID:        uuid.NewString(),
		Name:      domain.RepoNameFromURL(repoURL),
		URL:       repoURL,
		OwnerID:   ownerID,
		Status:    domain.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repos.Create(ctx, repo); err != nil {
		return nil, fmt.Errorf("register repository: %w", err)
	}

	if err := uc.queue.PublishJob(ctx, domain.ProcessingJob{
		RepositoryID: repo.ID,
		RepoURL:      repo.URL,
		RepoName:     repo.Name,
		ActionType:   domain.ActionAnalyzeCode,
	}); err != nil {
		return nil, fmt.Errorf("publish analysis job: %w", err)
	}
	return repo, nil
}

// QueueReadme queues README generation for an already analyzed repository.
func (uc *EnqueueUseCase) QueueReadme(ctx context.Context, repositoryID string) error {
	repo, err := uc.repos.GetByID(ctx, repositoryID)
	if err != nil {
		return fmt.Errorf("load repository %s: %w", repositoryID, err)
	}
	switch repo.Status {
	case domain.StatusAnalysisCompleted, domain.StatusCompleted:
	default:
		return domain.WrapError(domain.ErrInvalidInput, "queue readme",
			fmt.Errorf("repository %s is %s, analysis must complete first", repositoryID, repo.Status))
	}

	if err := uc.queue.PublishJob(ctx, domain.ProcessingJob{
		RepositoryID: repo.ID,
		RepoURL:      repo.URL,
		RepoName:     repo.Name,
		ActionType:   domain.ActionGenerateReadme,
	}); err != nil {
		return fmt.Errorf("publish readme job: %w", err)
	}
	return nil
}
