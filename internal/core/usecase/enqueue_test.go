package usecase

import (
	"context"
	"testing"

	"github.com/intellidoc/repodoc/internal/core/domain"
)

func TestQueueAnalysisRegistersAndPublishes(t *testing.T) {
	repos := newFakeRepositoryStore()
	queue := &fakeJobQueue{}
	uc := NewEnqueueUseCase(repos, queue)

	repo, err := uc.QueueAnalysis(context.Background(), "https://example.com/acme/demo.git", "owner-1")
	if err != nil {
		t.Fatalf("QueueAnalysis() error = %v", err)
	}
	if repo.Status != domain.StatusQueued {
		t.Fatalf("status = %s, want %s", repo.Status, domain.StatusQueued)
	}
	if repo.Name != "demo" {
		t.Fatalf("name = %s, want demo", repo.Name)
	}
	if repo.ID == "" {
		t.Fatalf("repository id not assigned")
	}

	if len(queue.published) != 1 {
		t.Fatalf("published jobs = %d, want 1", len(queue.published))
	}
	job := queue.published[0]
	if job.ActionType != domain.ActionAnalyzeCode || job.RepositoryID != repo.ID || job.RepoURL != repo.URL {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestQueueAnalysisRejectsDuplicateURLVariants(t *testing.T) {
	repos := newFakeRepositoryStore(&domain.Repository{
		ID:      "repo-1",
		URL:     "https://example.com/acme/demo.git",
		OwnerID: "owner-1",
	})
	uc := NewEnqueueUseCase(repos, &fakeJobQueue{})

	_, err := uc.QueueAnalysis(context.Background(), "https://example.com/acme/demo", "owner-1")
	if !domain.IsKind(err, domain.ErrDuplicateRepository) {
		t.Fatalf("QueueAnalysis() error = %v, want duplicate kind", err)
	}
}

func TestQueueAnalysisRejectsDuplicateIgnoringCase(t *testing.T) {
	repos := newFakeRepositoryStore(&domain.Repository{
		ID:      "repo-1",
		URL:     "https://example.com/acme/demo.git",
		OwnerID: "owner-1",
	})
	uc := NewEnqueueUseCase(repos, &fakeJobQueue{})

	_, err := uc.QueueAnalysis(context.Background(), "https://example.com/Acme/Demo", "owner-1")
	if !domain.IsKind(err, domain.ErrDuplicateRepository) {
		t.Fatalf("QueueAnalysis() error = %v, want duplicate kind", err)
	}
}

func TestQueueAnalysisAllowsSameURLForOtherOwner(t *testing.T) {
	repos := newFakeRepositoryStore(&domain.Repository{
		ID:      "repo-1",
		URL:     "https://example.com/acme/demo.git",
		OwnerID: "owner-1",
	})
	uc := NewEnqueueUseCase(repos, &fakeJobQueue{})

	if _, err := uc.QueueAnalysis(context.Background(), "https://example.com/acme/demo.git", "owner-2"); err != nil {
		t.Fatalf("QueueAnalysis() error = %v", err)
	}
}

func TestQueueAnalysisValidatesInput(t *testing.T) {
	uc := NewEnqueueUseCase(newFakeRepositoryStore(), &fakeJobQueue{})

	if _, err := uc.QueueAnalysis(context.Background(), "   ", "owner-1"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("empty url error = %v, want invalid-input kind", err)
	}
	if _, err := uc.QueueAnalysis(context.Background(), "https://example.com/demo", ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("empty owner error = %v, want invalid-input kind", err)
	}
}

func TestQueueReadmeRequiresCompletedAnalysis(t *testing.T) {
	repos := newFakeRepositoryStore(&domain.Repository{
		ID:     "repo-1",
		Status: domain.StatusQueued,
	})
	uc := NewEnqueueUseCase(repos, &fakeJobQueue{})

	err := uc.QueueReadme(context.Background(), "repo-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("QueueReadme() error = %v, want invalid-input kind", err)
	}
}

func TestQueueReadmePublishesForCompletedRepository(t *testing.T) {
	for _, status := range []domain.RepositoryStatus{domain.StatusAnalysisCompleted, domain.StatusCompleted} {
		repos := newFakeRepositoryStore(&domain.Repository{
			ID:     "repo-1",
			URL:    "https://example.com/demo",
			Status: status,
		})
		queue := &fakeJobQueue{}
		uc := NewEnqueueUseCase(repos, queue)

		if err := uc.QueueReadme(context.Background(), "repo-1"); err != nil {
			t.Fatalf("QueueReadme() with status %s error = %v", status, err)
		}
		if len(queue.published) != 1 || queue.published[0].ActionType != domain.ActionGenerateReadme {
			t.Fatalf("published jobs = %+v", queue.published)
		}
	}
}

func TestQueueReadmeMissingRepository(t *testing.T) {
	uc := NewEnqueueUseCase(newFakeRepositoryStore(), &fakeJobQueue{})

	err := uc.QueueReadme(context.Background(), "ghost")
	if !domain.IsKind(err, domain.ErrRepositoryNotFound) {
		t.Fatalf("QueueReadme() error = %v, want not-found kind", err)
	}
}
