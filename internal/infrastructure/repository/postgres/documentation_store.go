package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/intellidoc/repodoc/internal/core/domain"
)

type DocumentationStore struct {
	db *sql.DB
}

func NewDocumentationStore(db *sql.DB) *DocumentationStore {
	return &DocumentationStore{db: db}
}

func (s *DocumentationStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026080402)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documentation (
	id TEXT PRIMARY KEY,
	repository_id TEXT NOT NULL,
	file_path TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (repository_id, file_path)
);

CREATE INDEX IF NOT EXISTS idx_documentation_repository ON documentation(repository_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Upsert writes one document per (repository, path). Repeated analysis of the
// same file replaces content in place instead of forking history.
func (s *DocumentationStore) Upsert(ctx context.Context, repositoryID, filePath, content string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO documentation (id, repository_id, file_path, content, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (repository_id, file_path)
DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
`, uuid.NewString(), repositoryID, filePath, content, now, now)
	if err != nil {
		return fmt.Errorf("upsert documentation: %w", err)
	}
	return nil
}

func (s *DocumentationStore) ListByRepository(ctx context.Context, repositoryID string) ([]domain.Documentation, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, repository_id, file_path, content, created_at, updated_at
FROM documentation
WHERE repository_id = $1
ORDER BY file_path
`, repositoryID)
	if err != nil {
		return nil, fmt.Errorf("list documentation: %w", err)
	}
	defer rows.Close()

	var docs []domain.Documentation
	for rows.Next() {
		var doc domain.Documentation
		if err := rows.Scan(&doc.ID, &doc.RepositoryID, &doc.FilePath, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan documentation row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documentation: %w", err)
	}
	return docs, nil
}

func (s *DocumentationStore) GetByRepositoryAndPath(ctx context.Context, repositoryID, filePath string) (*domain.Documentation, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, repository_id, file_path, content, created_at, updated_at
FROM documentation
WHERE repository_id = $1 AND file_path = $2
`, repositoryID, filePath)

	var doc domain.Documentation
	err := row.Scan(&doc.ID, &doc.RepositoryID, &doc.FilePath, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentationNotFound, "get documentation",
				fmt.Errorf("repository %s path %s", repositoryID, filePath))
		}
		return nil, fmt.Errorf("scan documentation: %w", err)
	}
	return &doc, nil
}

// Search runs a case-insensitive substring search over saved documentation.
func (s *DocumentationStore) Search(ctx context.Context, query string, limit int) ([]domain.Documentation, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, repository_id, file_path, content, created_at, updated_at
FROM documentation
WHERE content ILIKE '%' || $1 || '%'
ORDER BY updated_at DESC
LIMIT $2
`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search documentation: %w", err)
	}
	defer rows.Close()

	var docs []domain.Documentation
	for rows.Next() {
		var doc domain.Documentation
		if err := rows.Scan(&doc.ID, &doc.RepositoryID, &doc.FilePath, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}
	return docs, nil
}

// CountByRepositories counts per-file documents for the dashboard. The
// generated README lives in the same table under a synthetic path and is not
// a documented source file, so it is excluded.
func (s *DocumentationStore) CountByRepositories(ctx context.Context, repositoryIDs []string) (int64, error) {
	if len(repositoryIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM documentation WHERE repository_id = ANY($1) AND file_path <> $2
`, repositoryIDs, domain.ReadmeFilePath).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documentation: %w", err)
	}
	return count, nil
}
