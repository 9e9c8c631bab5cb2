// Package gitfetch materializes disposable repository workspaces.
package gitfetch

import (
	"context"
	"log/slog"

	git "github.com/go-git/go-git/v5"

	"github.com/intellidoc/repodoc/internal/core/domain"
)

type Fetcher struct{}

func New() *Fetcher {
	return &Fetcher{}
}

// Fetch performs a shallow single-branch clone into destPath. History is
// never needed downstream, so depth 1 keeps transfer cost minimal. All
// repository handles are released before returning, so the workspace can be
// scanned or deleted immediately. Failures are typed domain.ErrFetch and are
// fatal to the enclosing job; retry policy belongs to the caller.
func (f *Fetcher) Fetch(ctx context.Context, sourceURL, destPath string) error {
	slog.Info("cloning repository", "url", sourceURL, "dest", destPath)

	_, err := git.PlainCloneContext(ctx, destPath, false, &git.CloneOptions{
		URL:          sourceURL,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		return domain.WrapError(domain.ErrFetch, "clone repository", err)
	}
	return nil
}
