package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/intellidoc/repodoc/internal/core/domain"
	"github.com/intellidoc/repodoc/internal/core/ports"
)

// Cache key namespaces. Three logical caches share one store; keys are
// content-addressed, so identical inputs hit across repositories.
const (
	architectKeyPrefix = "architect:"
	docKeyPrefix       = "doc:"
	readmeKeyPrefix    = "readme:"
)

type AnalyzeConfig struct {
	// WorkspaceRoot is where disposable clone workspaces are created.
	WorkspaceRoot string
	// BatchSize is the number of files per AI batch-generation call.
	BatchSize int
	// BatchConcurrency bounds in-flight batch calls within one run.
	BatchConcurrency int
	CacheTTL         time.Duration
}

func (c AnalyzeConfig) withDefaults() AnalyzeConfig {
	out := c
	if out.WorkspaceRoot == "" {
		out.WorkspaceRoot = os.TempDir()
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 4
	}
	if out.BatchConcurrency <= 0 {
		out.BatchConcurrency = 2
	}
	if out.CacheTTL <= 0 {
		out.CacheTTL = 24 * time.Hour
	}
	return out
}

// AnalyzeCodeUseCase runs the code-analysis workflow: clone, scan, select
// files (cache, then AI, then heuristic fallback), then document each
// selected file via cache or batched AI calls.
type AnalyzeCodeUseCase struct {
	repos    ports.RepositoryStore
	docs     ports.DocumentationStore
	cache    ports.CacheStore
	hasher   ports.ContentHasher
	fetcher  ports.RepositoryFetcher
	scanner  ports.WorkspaceScanner
	ai       ports.AIGateway
	progress ports.ProgressPublisher
	cfg      AnalyzeConfig
}

func NewAnalyzeCodeUseCase(
	repos ports.RepositoryStore,
	docs ports.DocumentationStore,
	cache ports.CacheStore,
	hasher ports.ContentHasher,
	fetcher ports.RepositoryFetcher,
	scanner ports.WorkspaceScanner,
	ai ports.AIGateway,
	progress ports.ProgressPublisher,
	cfg AnalyzeConfig,
) *AnalyzeCodeUseCase {
	return &AnalyzeCodeUseCase{
		repos:    repos,
		docs:     docs,
		cache:    cache,
		hasher:   hasher,
		fetcher:  fetcher,
		scanner:  scanner,
		ai:       ai,
		progress: progress,
		cfg:      cfg.withDefaults(),
	}
}

// Execute writes the in-progress status before the long-running phase begins
// and the terminal status on every exit path, so a concurrent status read
// never observes a stale QUEUED while work is in flight.
func (uc *AnalyzeCodeUseCase) Execute(ctx context.Context, repo *domain.Repository, job domain.ProcessingJob) error {
	if err := uc.setStatus(ctx, repo, domain.StatusAnalyzingCode); err != nil {
		return err
	}
	if err := uc.run(ctx, repo, job); err != nil {
		uc.markFailed(ctx, repo, err)
		return err
	}
	return nil
}

func (uc *AnalyzeCodeUseCase) run(ctx context.Context, repo *domain.Repository, job domain.ProcessingJob) error {
	workspace := filepath.Join(uc.cfg.WorkspaceRoot, fmt.Sprintf("repodoc_%s_%s", repo.ID, uuid.NewString()))
	// The workspace is owned exclusively by this job and deleted on every
	// exit path.
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			slog.Warn("workspace cleanup failed", "workspace", workspace, "error", err)
		}
	}()

	uc.progress.PublishLog(ctx, repo.ID, domain.StepClone, "Cloning repository...")
	if err := uc.fetcher.Fetch(ctx, job.RepoURL, workspace); err != nil {
		return fmt.Errorf("fetch repository: %w", err)
	}

	uc.progress.PublishLog(ctx, repo.ID, domain.StepScan, "Scanning project structure...")
	structure, err := uc.scanner.ProjectStructure(workspace)
	if err != nil {
		return fmt.Errorf("scan project structure: %w", err)
	}
	repo.ProjectStructure = structure
	if err := uc.repos.Save(ctx, repo); err != nil {
		return fmt.Errorf("persist project structure: %w", err)
	}

	selected, err := uc.selectFiles(ctx, repo, workspace, structure)
	if err != nil {
		return err
	}
	uc.progress.PublishLog(ctx, repo.ID, domain.StepArchitect,
		fmt.Sprintf("Selected %d files for documentation", len(selected)))

	if err := uc.documentFiles(ctx, repo, workspace, structure, selected); err != nil {
		return err
	}

	now := time.Now().UTC()
	repo.Status = domain.StatusAnalysisCompleted
	repo.LastAnalyzedAt = &now
	if err := uc.repos.Save(ctx, repo); err != nil {
		return fmt.Errorf("persist analysis completion: %w", err)
	}
	uc.progress.PublishLog(ctx, repo.ID, domain.StepComplete, "Code analysis completed")
	uc.progress.PublishStatus(ctx, repo.ID, domain.StatusAnalysisCompleted)
	return nil
}

// selectFiles applies the strict selection precedence: selection cache, then
// AI architect, then heuristic fallback. AI unavailability is degraded
// service, not an error; it is logged and the fallback engages.
func (uc *AnalyzeCodeUseCase) selectFiles(ctx context.Context, repo *domain.Repository, workspace, structure string) ([]string, error) {
	key := architectKeyPrefix + uc.hasher.Sum(structure)

	cached, ok, err := uc.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("selection cache read failed", "repository_id", repo.ID, "error", err)
	}
	if ok {
		var selection []string
		if err := json.Unmarshal([]byte(cached), &selection); err == nil && len(selection) > 0 {
			uc.progress.PublishLog(ctx, repo.ID, domain.StepCache, "File selection cache hit, skipping AI consultation")
			files, err := uc.scanner.MapSelection(workspace, selection)
			if err != nil {
				return nil, fmt.Errorf("map cached selection: %w", err)
			}
			if len(files) > 0 {
				return files, nil
			}
		}
		// Unparseable or unmappable cached selection: fall through to a
		// fresh consultation.
	}

	selection := uc.ai.SelectFiles(ctx, structure)
	if len(selection) > 0 {
		if payload, err := json.Marshal(selection); err == nil {
			if err := uc.cache.Set(ctx, key, string(payload), uc.cfg.CacheTTL); err != nil {
				slog.Warn("selection cache write failed", "repository_id", repo.ID, "error", err)
			}
		}
		files, err := uc.scanner.MapSelection(workspace, selection)
		if err != nil {
			return nil, fmt.Errorf("map ai selection: %w", err)
		}
		if len(files) > 0 {
			return files, nil
		}
	}

	slog.Info("ai file selection empty, using heuristic fallback", "repository_id", repo.ID)
	files, err := uc.scanner.FallbackSelection(workspace)
	if err != nil {
		return nil, fmt.Errorf("heuristic file selection: %w", err)
	}
	return files, nil
}

// documentFiles partitions candidates into cached and uncached by content
// hash, persists cache hits immediately, and sends the rest through bounded
// concurrent batch-generation calls. A file whose result is absent or marked
// as a failure is skipped, never fatal; it stays eligible for the next run.
func (uc *AnalyzeCodeUseCase) documentFiles(ctx context.Context, repo *domain.Repository, workspace, structure string, selected []string) error {
	var pending []domain.SourceFile
	for _, rel := range selected {
		content, err := uc.scanner.ReadFile(workspace, rel)
		if err != nil {
			slog.Warn("skipping unreadable file", "repository_id", repo.ID, "path", rel, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}

		key := docKeyPrefix + uc.hasher.Sum(content)
		cached, ok, err := uc.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("documentation cache read failed", "path", rel, "error", err)
		}
		if ok {
			uc.progress.PublishLog(ctx, repo.ID, domain.StepCache, "Documentation cache hit for "+rel)
			if err := uc.docs.Upsert(ctx, repo.ID, rel, cached); err != nil {
				return fmt.Errorf("persist cached documentation for %s: %w", rel, err)
			}
			continue
		}
		pending = append(pending, domain.SourceFile{Path: rel, Content: content})
	}

	if len(pending) == 0 {
		return nil
	}
	if len(pending) == 1 {
		// A lone file is not worth a batch round trip.
		return uc.processSingle(ctx, repo, structure, pending[0])
	}

	batches := batchFiles(pending, uc.cfg.BatchSize)
	uc.progress.PublishLog(ctx, repo.ID, domain.StepAIGenerate,
		fmt.Sprintf("Generating documentation for %d files in %d batches", len(pending), len(batches)))

	p := pool.New().WithErrors().WithMaxGoroutines(uc.cfg.BatchConcurrency)
	for _, batch := range batches {
		p.Go(func() error {
			return uc.processBatch(ctx, repo, structure, batch)
		})
	}
	return p.Wait()
}

func (uc *AnalyzeCodeUseCase) processSingle(ctx context.Context, repo *domain.Repository, structure string, file domain.SourceFile) error {
	uc.progress.PublishLog(ctx, repo.ID, domain.StepAIGenerate, "Generating documentation for "+file.Path)
	doc := uc.ai.GenerateDoc(ctx, buildDocPrompt(file.Path, structure, file.Content))
	if strings.TrimSpace(doc) == "" || domain.IsGenerationError(doc) {
		slog.Warn("documentation generation skipped", "repository_id", repo.ID, "path", file.Path)
		return nil
	}
	if err := uc.docs.Upsert(ctx, repo.ID, file.Path, doc); err != nil {
		return fmt.Errorf("persist documentation for %s: %w", file.Path, err)
	}
	uc.progress.PublishLog(ctx, repo.ID, domain.StepSave, "Documentation saved for "+file.Path)
	if err := uc.cache.Set(ctx, docKeyPrefix+uc.hasher.Sum(file.Content), doc, uc.cfg.CacheTTL); err != nil {
		slog.Warn("documentation cache write failed", "path", file.Path, "error", err)
	}
	return nil
}

func (uc *AnalyzeCodeUseCase) processBatch(ctx context.Context, repo *domain.Repository, structure string, batch []domain.SourceFile) error {
	results := uc.ai.GenerateDocBatch(ctx, batch, structure)
	byPath := make(map[string]string, len(results))
	for _, r := range results {
		byPath[r.Path] = r.Documentation
	}

	for _, file := range batch {
		doc, ok := byPath[file.Path]
		if !ok || strings.TrimSpace(doc) == "" || domain.IsGenerationError(doc) {
			slog.Warn("documentation generation skipped", "repository_id", repo.ID, "path", file.Path)
			continue
		}
		if err := uc.docs.Upsert(ctx, repo.ID, file.Path, doc); err != nil {
			return fmt.Errorf("persist documentation for %s: %w", file.Path, err)
		}
		uc.progress.PublishLog(ctx, repo.ID, domain.StepSave, "Documentation saved for "+file.Path)
		if err := uc.cache.Set(ctx, docKeyPrefix+uc.hasher.Sum(file.Content), doc, uc.cfg.CacheTTL); err != nil {
			slog.Warn("documentation cache write failed", "path", file.Path, "error", err)
		}
	}
	return nil
}

func (uc *AnalyzeCodeUseCase) setStatus(ctx context.Context, repo *domain.Repository, status domain.RepositoryStatus) error {
	repo.Status = status
	if err := uc.repos.Save(ctx, repo); err != nil {
		return fmt.Errorf("persist status %s: %w", status, err)
	}
	uc.progress.PublishStatus(ctx, repo.ID, status)
	return nil
}

func (uc *AnalyzeCodeUseCase) markFailed(ctx context.Context, repo *domain.Repository, cause error) {
	repo.Status = domain.StatusFailed
	if err := uc.repos.Save(ctx, repo); err != nil {
		slog.Error("persist failed status", "repository_id", repo.ID, "error", err)
	}
	uc.progress.PublishLog(ctx, repo.ID, domain.StepError, "Code analysis failed: "+cause.Error())
	uc.progress.PublishStatus(ctx, repo.ID, domain.StatusFailed)
}

func batchFiles(files []domain.SourceFile, size int) [][]domain.SourceFile {
	var batches [][]domain.SourceFile
	for start := 0; start < len(files); start += size {
		end := start + size
		if end > len(files) {
			end = len(files)
		}
		batches = append(batches, files[start:end])
	}
	return batches
}
