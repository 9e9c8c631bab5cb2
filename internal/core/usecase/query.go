package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/intellidoc/repodoc/internal/core/domain"
	"github.com/intellidoc/repodoc/internal/core/ports"
)

const (
	searchLimit   = 50
	snippetRadius = 75
	snippetMaxLen = 2 * snippetRadius
)

// QueryUseCase serves the read side of the API: status, documents, search
// and dashboard statistics. It never mutates pipeline state except for the
// explicit README edit.
type QueryUseCase struct {
	repos ports.RepositoryStore
	docs  ports.DocumentationStore
}

func NewQueryUseCase(repos ports.RepositoryStore, docs ports.DocumentationStore) *QueryUseCase {
	return &QueryUseCase{repos: repos, docs: docs}
}

func (uc *QueryUseCase) Repository(ctx context.Context, id string) (*domain.Repository, error) {
	return uc.repos.GetByID(ctx, id)
}

func (uc *QueryUseCase) RepositoriesByOwner(ctx context.Context, ownerID string) ([]domain.Repository, error) {
	return uc.repos.ListByOwner(ctx, ownerID)
}

// Documents lists the per-file documentation of a repository, excluding the
// generated README.
func (uc *QueryUseCase) Documents(ctx context.Context, repositoryID string) ([]domain.Documentation, error) {
	if _, err := uc.repos.GetByID(ctx, repositoryID); err != nil {
		return nil, err
	}
	all, err := uc.docs.ListByRepository(ctx, repositoryID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Documentation, 0, len(all))
	for _, doc := range all {
		if doc.FilePath == domain.ReadmeFilePath {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (uc *QueryUseCase) Document(ctx context.Context, repositoryID, filePath string) (*domain.Documentation, error) {
	return uc.docs.GetByRepositoryAndPath(ctx, repositoryID, filePath)
}

func (uc *QueryUseCase) Readme(ctx context.Context, repositoryID string) (*domain.Documentation, error) {
	return uc.docs.GetByRepositoryAndPath(ctx, repositoryID, domain.ReadmeFilePath)
}

// UpdateReadme overwrites the stored README with user-edited content.
func (uc *QueryUseCase) UpdateReadme(ctx context.Context, repositoryID, content string) error {
	if strings.TrimSpace(content) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "update readme", fmt.Errorf("empty content"))
	}
	if _, err := uc.repos.GetByID(ctx, repositoryID); err != nil {
		return err
	}
	return uc.docs.Upsert(ctx, repositoryID, domain.ReadmeFilePath, content)
}

// Search runs a case-insensitive substring search over the owner's saved
// documentation and returns hits with a short snippet centered on the first
// match.
func (uc *QueryUseCase) Search(ctx context.Context, ownerID, query string) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search documentation", fmt.Errorf("empty query"))
	}

	owned, err := uc.repos.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(owned))
	for _, r := range owned {
		names[r.ID] = r.Name
	}

	hits, err := uc.docs.Search(ctx, query, searchLimit)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, doc := range hits {
		name, ok := names[doc.RepositoryID]
		if !ok {
			continue
		}
		results = append(results, domain.SearchResult{
			DocumentationID: doc.ID,
			RepositoryID:    doc.RepositoryID,
			RepositoryName:  name,
			FilePath:        doc.FilePath,
			Snippet:         makeSnippet(doc.Content, query),
		})
		if len(results) == searchLimit {
			break
		}
	}
	return results, nil
}

// Stats aggregates dashboard numbers for one owner.
func (uc *QueryUseCase) Stats(ctx context.Context, ownerID string) (*domain.DashboardStats, error) {
	owned, err := uc.repos.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &domain.DashboardStats{TotalRepositories: len(owned)}
	ids := make([]string, 0, len(owned))
	for _, r := range owned {
		ids = append(ids, r.ID)
		if r.LastAnalyzedAt != nil {
			stats.AnalyzedRepositories++
			if stats.LastAnalysisAt == nil || r.LastAnalyzedAt.After(*stats.LastAnalysisAt) {
				stats.LastAnalysisAt = r.LastAnalyzedAt
			}
		}
	}
	if len(ids) > 0 {
		count, err := uc.docs.CountByRepositories(ctx, ids)
		if err != nil {
			return nil, err
		}
		stats.TotalFilesDocumented = count
	}
	return stats, nil
}

func makeSnippet(content, query string) string {
	idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if idx < 0 {
		if len(content) > snippetMaxLen {
			return content[:snippetMaxLen] + "..."
		}
		return content
	}

	start := idx - snippetRadius
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + snippetRadius
	if end > len(content) {
		end = len(content)
	}

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet += "..."
	}
	return snippet
}
