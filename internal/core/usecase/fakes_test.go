package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/intellidoc/repodoc/internal/core/domain"
)

type fakeRepositoryStore struct {
	mu            sync.Mutex
	repos         map[string]*domain.Repository
	statusHistory []domain.RepositoryStatus
	createErr     error
	saveErr       error
}

func newFakeRepositoryStore(repos ...*domain.Repository) *fakeRepositoryStore {
	s := &fakeRepositoryStore{repos: make(map[string]*domain.Repository)}
	for _, r := range repos {
		s.repos[r.ID] = r
	}
	return s
}

func (s *fakeRepositoryStore) Create(_ context.Context, repo *domain.Repository) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[repo.ID] = repo
	return nil
}

func (s *fakeRepositoryStore) GetByID(_ context.Context, id string) (*domain.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	repo, ok := s.repos[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrRepositoryNotFound, "get repository", fmt.Errorf("id %s", id))
	}
	return repo, nil
}

func (s *fakeRepositoryStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Repository
	for _, repo := range s.repos {
		if repo.OwnerID == ownerID {
			out = append(out, *repo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeRepositoryStore) Save(_ context.Context, repo *domain.Repository) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[repo.ID] = repo
	s.statusHistory = append(s.statusHistory, repo.Status)
	return nil
}

type fakeDocumentationStore struct {
	mu        sync.Mutex
	docs      map[string]map[string]string
	upsertErr error
}

func newFakeDocumentationStore() *fakeDocumentationStore {
	return &fakeDocumentationStore{docs: make(map[string]map[string]string)}
}

func (s *fakeDocumentationStore) Upsert(_ context.Context, repositoryID, filePath, content string) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[repositoryID] == nil {
		s.docs[repositoryID] = make(map[string]string)
	}
	s.docs[repositoryID][filePath] = content
	return nil
}

func (s *fakeDocumentationStore) ListByRepository(_ context.Context, repositoryID string) ([]domain.Documentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.docs[repositoryID]))
	for path := range s.docs[repositoryID] {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	now := time.Now().UTC()
	out := make([]domain.Documentation, 0, len(paths))
	for i, path := range paths {
		out = append(out, domain.Documentation{
			ID:           fmt.Sprintf("doc-%d", i),
			RepositoryID: repositoryID,
			FilePath:     path,
			Content:      s.docs[repositoryID][path],
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	return out, nil
}

func (s *fakeDocumentationStore) GetByRepositoryAndPath(_ context.Context, repositoryID, filePath string) (*domain.Documentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.docs[repositoryID][filePath]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentationNotFound, "get documentation",
			fmt.Errorf("repository %s path %s", repositoryID, filePath))
	}
	return &domain.Documentation{
		ID:           "doc-" + filePath,
		RepositoryID: repositoryID,
		FilePath:     filePath,
		Content:      content,
	}, nil
}

func (s *fakeDocumentationStore) Search(_ context.Context, query string, limit int) ([]domain.Documentation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Documentation
	for repoID, docs := range s.docs {
		for path, content := range docs {
			if len(out) >= limit {
				return out, nil
			}
			if containsFold(content, query) {
				out = append(out, domain.Documentation{
					ID:           "doc-" + path,
					RepositoryID: repoID,
					FilePath:     path,
					Content:      content,
				})
			}
		}
	}
	return out, nil
}

func (s *fakeDocumentationStore) CountByRepositories(_ context.Context, repositoryIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, id := range repositoryIDs {
		count += int64(len(s.docs[id]))
	}
	return count, nil
}

func (s *fakeDocumentationStore) content(repositoryID, filePath string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.docs[repositoryID][filePath]
	return content, ok
}

func (s *fakeDocumentationStore) countFor(repositoryID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[repositoryID])
}

type fakeCacheStore struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
	getErr  error
	setErr  error
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{entries: make(map[string]string)}
}

func (c *fakeCacheStore) Get(_ context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *fakeCacheStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.sets++
	return nil
}

// fakeFetcher materializes a fixed in-memory tree instead of cloning.
type fakeFetcher struct {
	files map[string]string
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, destPath string) error {
	if f.err != nil {
		return domain.WrapError(domain.ErrFetch, "fetch repository", f.err)
	}
	for rel, content := range f.files {
		path := filepath.Join(destPath, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

type fakeAIGateway struct {
	mu sync.Mutex

	selection   []string
	selectCalls int

	batchDocs  map[string]string
	batchCalls int

	docResult string
	docCalls  int
	docPrompt string
}

func (g *fakeAIGateway) SelectFiles(_ context.Context, _ string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.selectCalls++
	return g.selection
}

func (g *fakeAIGateway) GenerateDocBatch(_ context.Context, files []domain.SourceFile, _ string) []domain.GeneratedDoc {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.batchCalls++
	var out []domain.GeneratedDoc
	for _, file := range files {
		if doc, ok := g.batchDocs[file.Path]; ok {
			out = append(out, domain.GeneratedDoc{Path: file.Path, Documentation: doc})
		}
	}
	return out
}

func (g *fakeAIGateway) GenerateDoc(_ context.Context, prompt string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docCalls++
	g.docPrompt = prompt
	return g.docResult
}

type fakeProgressPublisher struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (p *fakeProgressPublisher) PublishLog(_ context.Context, repositoryID, step, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, domain.NewLogEvent(repositoryID, step, message))
}

func (p *fakeProgressPublisher) PublishStatus(_ context.Context, repositoryID string, status domain.RepositoryStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, domain.NewStatusEvent(repositoryID, status))
}

func (p *fakeProgressPublisher) countStep(step string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == domain.EventProgressLog && e.Step == step {
			n++
		}
	}
	return n
}

func (p *fakeProgressPublisher) lastStatus() domain.RepositoryStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type == domain.EventStatusUpdate {
			return p.events[i].Status
		}
	}
	return ""
}

type fakeJobQueue struct {
	mu         sync.Mutex
	published  []domain.ProcessingJob
	publishErr error
}

func (q *fakeJobQueue) PublishJob(_ context.Context, job domain.ProcessingJob) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, job)
	return nil
}

func (q *fakeJobQueue) SubscribeJobs(_ context.Context, _ func(context.Context, domain.ProcessingJob) error) error {
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
