package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/intellidoc/repodoc/internal/core/domain"
	"github.com/intellidoc/repodoc/internal/core/ports"
)

const purposeFallback = "Contains code logic."

type ReadmeConfig struct {
	CacheTTL time.Duration
}

func (c ReadmeConfig) withDefaults() ReadmeConfig {
	out := c
	if out.CacheTTL <= 0 {
		out.CacheTTL = 24 * time.Hour
	}
	return out
}

// GenerateReadmeUseCase synthesizes a repository README from the per-file
// documentation produced by a prior analysis run. It consumes stored
// summaries only and never re-reads the repository itself.
type GenerateReadmeUseCase struct {
	repos    ports.RepositoryStore
	docs     ports.DocumentationStore
	cache    ports.CacheStore
	hasher   ports.ContentHasher
	ai       ports.AIGateway
	progress ports.ProgressPublisher
	cfg      ReadmeConfig
}

func NewGenerateReadmeUseCase(
	repos ports.RepositoryStore,
	docs ports.DocumentationStore,
	cache ports.CacheStore,
	hasher ports.ContentHasher,
	ai ports.AIGateway,
	progress ports.ProgressPublisher,
	cfg ReadmeConfig,
) *GenerateReadmeUseCase {
	return &GenerateReadmeUseCase{
		repos:    repos,
		docs:     docs,
		cache:    cache,
		hasher:   hasher,
		ai:       ai,
		progress: progress,
		cfg:      cfg.withDefaults(),
	}
}

func (uc *GenerateReadmeUseCase) Execute(ctx context.Context, repo *domain.Repository, job domain.ProcessingJob) error {
	repo.Status = domain.StatusGeneratingReadme
	if err := uc.repos.Save(ctx, repo); err != nil {
		return fmt.Errorf("persist status %s: %w", domain.StatusGeneratingReadme, err)
	}
	uc.progress.PublishStatus(ctx, repo.ID, domain.StatusGeneratingReadme)
	uc.progress.PublishLog(ctx, repo.ID, domain.StepInit, "Starting README generation...")

	if err := uc.run(ctx, repo); err != nil {
		uc.markFailed(ctx, repo, err)
		return err
	}
	return nil
}

func (uc *GenerateReadmeUseCase) run(ctx context.Context, repo *domain.Repository) error {
	docs, err := uc.docs.ListByRepository(ctx, repo.ID)
	if err != nil {
		return fmt.Errorf("load file documentation: %w", err)
	}

	summaries := buildSummaries(docs)
	key := readmeKeyPrefix + uc.hasher.Sum(repo.ProjectStructure+summaries)

	cached, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("readme cache read failed", "repository_id", repo.ID, "error", err)
	}
	if ok {
		uc.progress.PublishLog(ctx, repo.ID, domain.StepCache, "README cache hit, skipping AI generation")
		return uc.complete(ctx, repo, cached)
	}

	uc.progress.PublishLog(ctx, repo.ID, domain.StepAIGenerate, "Generating README from file summaries...")
	prompt := buildReadmePrompt(repo.ProjectStructure, summaries)
	readme := uc.ai.GenerateDoc(ctx, prompt)
	if domain.IsGenerationError(readme) {
		return fmt.Errorf("readme generation: %s", readme)
	}

	if err := uc.cache.Set(ctx, key, readme, uc.cfg.CacheTTL); err != nil {
		slog.Warn("readme cache write failed", "repository_id", repo.ID, "error", err)
	}
	return uc.complete(ctx, repo, readme)
}

func (uc *GenerateReadmeUseCase) complete(ctx context.Context, repo *domain.Repository, readme string) error {
	if err := uc.docs.Upsert(ctx, repo.ID, domain.ReadmeFilePath, readme); err != nil {
		return fmt.Errorf("persist readme: %w", err)
	}
	repo.Status = domain.StatusCompleted
	if err := uc.repos.Save(ctx, repo); err != nil {
		return fmt.Errorf("persist readme completion: %w", err)
	}
	uc.progress.PublishLog(ctx, repo.ID, domain.StepComplete, "README generation completed")
	uc.progress.PublishStatus(ctx, repo.ID, domain.StatusCompleted)
	return nil
}

func (uc *GenerateReadmeUseCase) markFailed(ctx context.Context, repo *domain.Repository, cause error) {
	repo.Status = domain.StatusFailed
	if err := uc.repos.Save(ctx, repo); err != nil {
		slog.Error("persist failed status", "repository_id", repo.ID, "error", err)
	}
	uc.progress.PublishLog(ctx, repo.ID, domain.StepError, "README generation failed: "+cause.Error())
	uc.progress.PublishStatus(ctx, repo.ID, domain.StatusFailed)
}

// buildSummaries condenses stored per-file documentation into one line per
// file. The previously generated README is excluded so the synthesis never
// feeds on its own output.
func buildSummaries(docs []domain.Documentation) string {
	var b strings.Builder
	for _, doc := range docs {
		if doc.FilePath == domain.ReadmeFilePath {
			continue
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", doc.FilePath, extractPurpose(doc.Content))
	}
	if b.Len() == 0 {
		return "No files were successfully analyzed."
	}
	return b.String()
}

// extractPurpose pulls the text under the "Purpose" heading of a generated
// document, stopping at the next section or after a bounded excerpt.
func extractPurpose(content string) string {
	idx := strings.Index(content, "Purpose")
	if idx < 0 {
		return purposeFallback
	}
	rest := content[idx+len("Purpose"):]
	if end := strings.Index(rest, "###"); end >= 0 {
		rest = rest[:end]
	} else if len(rest) > 200 {
		rest = rest[:200]
	}
	rest = strings.Trim(rest, " \t\r\n:*#")
	if rest == "" {
		return purposeFallback
	}
	return rest
}
