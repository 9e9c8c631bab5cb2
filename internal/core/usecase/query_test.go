package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/intellidoc/repodoc/internal/core/domain"
)

func TestDocumentsExcludesGeneratedReadme(t *testing.T) {
	repos := newFakeRepositoryStore(&domain.Repository{ID: "repo-1", OwnerID: "owner-1"})
	docs := newFakeDocumentationStore()
	_ = docs.Upsert(context.Background(), "repo-1", "main.go", "doc")
	_ = docs.Upsert(context.Background(), "repo-1", domain.ReadmeFilePath, "# Readme")
	uc := NewQueryUseCase(repos, docs)

	out, err := uc.Documents(context.Background(), "repo-1")
	if err != nil {
		t.Fatalf("Documents() error = %v", err)
	}
	if len(out) != 1 || out[0].FilePath != "main.go" {
		t.Fatalf("Documents() = %+v", out)
	}
}

func TestDocumentsMissingRepository(t *testing.T) {
	uc := NewQueryUseCase(newFakeRepositoryStore(), newFakeDocumentationStore())

	if _, err := uc.Documents(context.Background(), "ghost"); !domain.IsKind(err, domain.ErrRepositoryNotFound) {
		t.Fatalf("Documents() error = %v, want not-found kind", err)
	}
}

func TestUpdateReadmeRejectsEmptyContent(t *testing.T) {
	repos := newFakeRepositoryStore(&domain.Repository{ID: "repo-1"})
	uc := NewQueryUseCase(repos, newFakeDocumentationStore())

	err := uc.UpdateReadme(context.Background(), "repo-1", "  \n")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("UpdateReadme() error = %v, want invalid-input kind", err)
	}
}

func TestUpdateReadmeOverwrites(t *testing.T) {
	repos := newFakeRepositoryStore(&domain.Repository{ID: "repo-1"})
	docs := newFakeDocumentationStore()
	_ = docs.Upsert(context.Background(), "repo-1", domain.ReadmeFilePath, "# Old")
	uc := NewQueryUseCase(repos, docs)

	if err := uc.UpdateReadme(context.Background(), "repo-1", "# Edited"); err != nil {
		t.Fatalf("UpdateReadme() error = %v", err)
	}
	content, _ := docs.content("repo-1", domain.ReadmeFilePath)
	if content != "# Edited" {
		t.Fatalf("readme = %q", content)
	}
}

func TestSearchFiltersForeignRepositoriesAndBuildsSnippets(t *testing.T) {
	repos := newFakeRepositoryStore(
		&domain.Repository{ID: "repo-1", Name: "mine", OwnerID: "owner-1"},
		&domain.Repository{ID: "repo-2", Name: "theirs", OwnerID: "owner-2"},
	)
	docs := newFakeDocumentationStore()
	_ = docs.Upsert(context.Background(), "repo-1", "queue.go", "This file implements the job queue consumer loop.")
	_ = docs.Upsert(context.Background(), "repo-2", "queue.go", "Another job queue implementation.")
	uc := NewQueryUseCase(repos, docs)

	results, err := uc.Search(context.Background(), "owner-1", "job queue")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search() = %+v, want only the owner's hit", results)
	}
	hit := results[0]
	if hit.RepositoryID != "repo-1" || hit.RepositoryName != "mine" {
		t.Fatalf("unexpected hit %+v", hit)
	}
	if !strings.Contains(hit.Snippet, "job queue") {
		t.Fatalf("snippet %q does not contain the match", hit.Snippet)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	uc := NewQueryUseCase(newFakeRepositoryStore(), newFakeDocumentationStore())

	if _, err := uc.Search(context.Background(), "owner-1", "   "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("Search() error = %v, want invalid-input kind", err)
	}
}

func TestStatsAggregatesOwnerRepositories(t *testing.T) {
	older := time.Now().UTC().Add(-2 * time.Hour)
	newer := time.Now().UTC().Add(-time.Hour)
	repos := newFakeRepositoryStore(
		&domain.Repository{ID: "repo-1", OwnerID: "owner-1", LastAnalyzedAt: &older},
		&domain.Repository{ID: "repo-2", OwnerID: "owner-1", LastAnalyzedAt: &newer},
		&domain.Repository{ID: "repo-3", OwnerID: "owner-1"},
		&domain.Repository{ID: "repo-4", OwnerID: "owner-2", LastAnalyzedAt: &newer},
	)
	docs := newFakeDocumentationStore()
	_ = docs.Upsert(context.Background(), "repo-1", "a.go", "doc")
	_ = docs.Upsert(context.Background(), "repo-2", "b.go", "doc")
	_ = docs.Upsert(context.Background(), "repo-2", "c.go", "doc")
	_ = docs.Upsert(context.Background(), "repo-4", "d.go", "doc")
	uc := NewQueryUseCase(repos, docs)

	stats, err := uc.Stats(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalRepositories != 3 {
		t.Fatalf("TotalRepositories = %d, want 3", stats.TotalRepositories)
	}
	if stats.AnalyzedRepositories != 2 {
		t.Fatalf("AnalyzedRepositories = %d, want 2", stats.AnalyzedRepositories)
	}
	if stats.TotalFilesDocumented != 3 {
		t.Fatalf("TotalFilesDocumented = %d, want 3", stats.TotalFilesDocumented)
	}
	if stats.LastAnalysisAt == nil || !stats.LastAnalysisAt.Equal(newer) {
		t.Fatalf("LastAnalysisAt = %v, want %v", stats.LastAnalysisAt, newer)
	}
}

func TestMakeSnippet(t *testing.T) {
	long := strings.Repeat("x", 200) + "the match here" + strings.Repeat("y", 200)

	snippet := makeSnippet(long, "the match")
	if !strings.HasPrefix(snippet, "...") || !strings.HasSuffix(snippet, "...") {
		t.Fatalf("snippet not elided on both sides: %q", snippet)
	}
	if !strings.Contains(snippet, "the match") {
		t.Fatalf("snippet %q missing the match", snippet)
	}
	if len(snippet) > snippetMaxLen+len("the match")+6 {
		t.Fatalf("snippet too long: %d chars", len(snippet))
	}

	if got := makeSnippet("short text", "absent"); got != "short text" {
		t.Fatalf("makeSnippet() = %q, want full short content", got)
	}
}
