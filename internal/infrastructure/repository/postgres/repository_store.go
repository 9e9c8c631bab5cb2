package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/intellidoc/repodoc/internal/core/domain"
)

type RepositoryStore struct {
	db *sql.DB
}

func NewRepositoryStore(db *sql.DB) *RepositoryStore {
	return &RepositoryStore{db: db}
}

func (s *RepositoryStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026080401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS repositories (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	url TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	local_path TEXT NOT NULL,
	status TEXT NOT NULL,
	project_structure TEXT NOT NULL DEFAULT '',
	last_analyzed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_repositories_owner ON repositories(owner_id);
CREATE INDEX IF NOT EXISTS idx_repositories_status ON repositories(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *RepositoryStore) Create(ctx context.Context, repo *domain.Repository) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO repositories (
	id, name, url, owner_id, local_path, status, project_structure, last_analyzed_at, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		repo.ID, repo.Name, repo.URL, repo.OwnerID, repo.LocalPath, string(repo.Status),
		repo.ProjectStructure, repo.LastAnalyzedAt, repo.CreatedAt, repo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert repository: %w", err)
	}
	return nil
}

func (s *RepositoryStore) GetByID(ctx context.Context, id string) (*domain.Repository, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, url, owner_id, local_path, status, project_structure, last_analyzed_at, created_at, updated_at
FROM repositories
WHERE id = $1
`, id)

	repo, err := scanRepository(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRepositoryNotFound, "get repository", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan repository: %w", err)
	}
	return repo, nil
}

func (s *RepositoryStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Repository, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, url, owner_id, local_path, status, project_structure, last_analyzed_at, created_at, updated_at
FROM repositories
WHERE owner_id = $1
ORDER BY created_at DESC
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	var repos []domain.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository row: %w", err)
		}
		repos = append(repos, *repo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}
	return repos, nil
}

// Save persists the mutable fields of an existing repository record.
func (s *RepositoryStore) Save(ctx context.Context, repo *domain.Repository) error {
	repo.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
UPDATE repositories
SET name = $2, url = $3, local_path = $4, status = $5, project_structure = $6, last_analyzed_at = $7, updated_at = $8
WHERE id = $1
`,
		repo.ID, repo.Name, repo.URL, repo.LocalPath, string(repo.Status),
		repo.ProjectStructure, repo.LastAnalyzedAt, repo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update repository: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepository(row rowScanner) (*domain.Repository, error) {
	var repo domain.Repository
	var status string
	var lastAnalyzed sql.NullTime

	err := row.Scan(
		&repo.ID, &repo.Name, &repo.URL, &repo.OwnerID, &repo.LocalPath,
		&status, &repo.ProjectStructure, &lastAnalyzed, &repo.CreatedAt, &repo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	repo.Status = domain.RepositoryStatus(status)
	if lastAnalyzed.Valid {
		t := lastAnalyzed.Time
		repo.LastAnalyzedAt = &t
	}
	return &repo, nil
}
