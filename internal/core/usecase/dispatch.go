package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/intellidoc/repodoc/internal/core/domain"
	"github.com/intellidoc/repodoc/internal/core/ports"
)

// workflow is the shared shape of the analysis and README use cases.
type workflow interface {
	Execute(ctx context.Context, repo *domain.Repository, job domain.ProcessingJob) error
}

// ProcessJobUseCase routes a consumed queue message to the matching workflow.
// It is the last-resort boundary for the worker: a panicking workflow is
// converted into a FAILED repository instead of a crashed consumer.
type ProcessJobUseCase struct {
	repos    ports.RepositoryStore
	progress ports.ProgressPublisher
	analyze  workflow
	readme   workflow
}

func NewProcessJobUseCase(repos ports.RepositoryStore, progress ports.ProgressPublisher, analyze, readme workflow) *ProcessJobUseCase {
	return &ProcessJobUseCase{repos: repos, progress: progress, analyze: analyze, readme: readme}
}

func (uc *ProcessJobUseCase) Handle(ctx context.Context, job domain.ProcessingJob) (err error) {
	repo, lookupErr := uc.repos.GetByID(ctx, job.RepositoryID)
	if lookupErr != nil {
		if domain.IsKind(lookupErr, domain.ErrRepositoryNotFound) {
			// The repository was deleted after the job was queued. The job
			// is stale, not failed; drop it without redelivery.
			slog.Warn("dropping job for missing repository",
				"repository_id", job.RepositoryID, "action", job.ActionType)
			return nil
		}
		return fmt.Errorf("load repository %s: %w", job.RepositoryID, lookupErr)
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("workflow panic", "repository_id", repo.ID, "action", job.ActionType, "panic", r)
			uc.forceFailed(ctx, repo, fmt.Sprintf("internal error: %v", r))
			err = fmt.Errorf("workflow panic: %v", r)
		}
	}()

	switch job.ActionType {
	case domain.ActionAnalyzeCode:
		return uc.analyze.Execute(ctx, repo, job)
	case domain.ActionGenerateReadme:
		return uc.readme.Execute(ctx, repo, job)
	default:
		uc.forceFailed(ctx, repo, "unknown action type "+string(job.ActionType))
		return domain.WrapError(domain.ErrInvalidInput, "dispatch job",
			fmt.Errorf("unknown action type %q", job.ActionType))
	}
}

func (uc *ProcessJobUseCase) forceFailed(ctx context.Context, repo *domain.Repository, reason string) {
	repo.Status = domain.StatusFailed
	if err := uc.repos.Save(ctx, repo); err != nil {
		slog.Error("persist failed status", "repository_id", repo.ID, "error", err)
	}
	uc.progress.PublishLog(ctx, repo.ID, domain.StepError, "Processing failed: "+reason)
	uc.progress.PublishStatus(ctx, repo.ID, domain.StatusFailed)
}
