package ports

import (
	"context"

	"github.com/intellidoc/repodoc/internal/core/domain"
)

// JobProcessor is the worker-side entrypoint handling one queued job.
type JobProcessor interface {
	Handle(ctx context.Context, job domain.ProcessingJob) error
}

// RepositoryEnqueuer queues new work from the API surface.
type RepositoryEnqueuer interface {
	QueueAnalysis(ctx context.Context, repoURL, ownerID string) (*domain.Repository, error)
	QueueReadme(ctx context.Context, repositoryID string) error
}
