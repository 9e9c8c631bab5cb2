package ports

import (
	"context"
	"time"

	"github.com/intellidoc/repodoc/internal/core/domain"
)

// RepositoryStore persists repository records. Only the pipeline mutates
// Status and ProjectStructure.
type RepositoryStore interface {
	Create(ctx context.Context, repo *domain.Repository) error
	GetByID(ctx context.Context, id string) (*domain.Repository, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Repository, error)
	Save(ctx context.Context, repo *domain.Repository) error
}

// DocumentationStore persists generated documents, one per (repository, path).
type DocumentationStore interface {
	Upsert(ctx context.Context, repositoryID, filePath, content string) error
	ListByRepository(ctx context.Context, repositoryID string) ([]domain.Documentation, error)
	GetByRepositoryAndPath(ctx context.Context, repositoryID, filePath string) (*domain.Documentation, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Documentation, error)
	CountByRepositories(ctx context.Context, repositoryIDs []string) (int64, error)
}

// CacheStore is a content-addressed TTL cache for expensive AI results.
// A missing or expired entry is a miss, never an error.
type CacheStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// ContentHasher produces the deterministic cache key for a text input.
type ContentHasher interface {
	Sum(text string) string
}

// RepositoryFetcher materializes a shallow copy of a remote repository.
type RepositoryFetcher interface {
	Fetch(ctx context.Context, sourceURL, destPath string) error
}

// WorkspaceScanner walks a fetched workspace.
type WorkspaceScanner interface {
	// ProjectStructure lists relevant files, vital config files first.
	ProjectStructure(root string) (string, error)
	// FallbackSelection ranks candidate files heuristically when AI
	// selection yields nothing.
	FallbackSelection(root string) ([]string, error)
	// MapSelection resolves AI-returned relative paths against the
	// workspace by suffix match.
	MapSelection(root string, selected []string) ([]string, error)
	ReadFile(root, relPath string) (string, error)
}

// AIGateway wraps the external AI generation service. Expected failures are
// converted to empty results or the sentinel string, never errors, so the
// pipeline branches on data presence alone.
type AIGateway interface {
	SelectFiles(ctx context.Context, projectStructure string) []string
	GenerateDocBatch(ctx context.Context, files []domain.SourceFile, projectContext string) []domain.GeneratedDoc
	GenerateDoc(ctx context.Context, prompt string) string
}

// ProgressPublisher emits pipeline events to live subscribers. Publishing is
// best effort; failures are logged by the implementation and never propagate.
type ProgressPublisher interface {
	PublishLog(ctx context.Context, repositoryID, step, message string)
	PublishStatus(ctx context.Context, repositoryID string, status domain.RepositoryStatus)
}

// JobQueue transports processing jobs between the intake API and workers.
type JobQueue interface {
	PublishJob(ctx context.Context, job domain.ProcessingJob) error
	SubscribeJobs(ctx context.Context, handler func(context.Context, domain.ProcessingJob) error) error
}
