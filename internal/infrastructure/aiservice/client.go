// Package aiservice is the HTTP gateway to the external AI generation
// service. All three operations convert expected failures (timeouts, HTTP
// errors, malformed responses) into empty or sentinel results at this
// boundary, so the pipeline's control flow never branches on exceptions for
// degraded-service conditions.
package aiservice

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/intellidoc/repodoc/internal/core/domain"
	"github.com/intellidoc/repodoc/internal/infrastructure/resilience"
)

type Config struct {
	BaseURL string

	// Selection reasoning is slower per token than generation, batch and
	// README calls produce much larger outputs.
	SelectTimeout       time.Duration
	DocTimeout          time.Duration
	BatchBaseTimeout    time.Duration
	BatchPerFileTimeout time.Duration

	// RequestsPerMinute paces generation calls to bound load on the AI
	// backend. Zero disables pacing.
	RequestsPerMinute int
}

func (c Config) withDefaults() Config {
	out := c
	if out.SelectTimeout <= 0 {
		out.SelectTimeout = 75 * time.Second
	}
	if out.DocTimeout <= 0 {
		out.DocTimeout = 300 * time.Second
	}
	if out.BatchBaseTimeout <= 0 {
		out.BatchBaseTimeout = 120 * time.Second
	}
	if out.BatchPerFileTimeout <= 0 {
		out.BatchPerFileTimeout = 45 * time.Second
	}
	return out
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
	cfg        Config
}

// New builds the gateway around an explicitly provided HTTP client; per-call
// deadlines are set per operation, so the client itself carries no timeout.
func New(cfg Config, httpClient *http.Client, executor *resilience.Executor) *Client {
	cfg = cfg.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		executor:   executor,
		limiter:    limiter,
		cfg:        cfg,
	}
}

// SelectFiles asks the AI service which files are worth documenting. On
// exhausted retries or a malformed response it returns an empty list, never
// an error, so the heuristic fallback engages deterministically.
func (c *Client) SelectFiles(ctx context.Context, projectStructure string) []string {
	var selected []string
	err := c.executor.Execute(ctx, "select_files", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.SelectTimeout)
		defer cancel()

		var resp struct {
			SelectedFiles []string `json:"selected_files"`
		}
		if err := c.postJSON(callCtx, "/select-files", map[string]any{
			"file_structure": projectStructure,
		}, &resp, "select_files"); err != nil {
			return err
		}
		selected = resp.SelectedFiles
		return nil
	}, classifyAIError)
	if err != nil {
		slog.Warn("ai file selection unavailable", "error", err)
		return nil
	}
	return selected
}

// GenerateDocBatch documents several files in one call. A failed call yields
// an empty result list; files already persisted from earlier batches are
// unaffected and the missing ones are simply retried on the next analysis.
func (c *Client) GenerateDocBatch(ctx context.Context, files []domain.SourceFile, projectContext string) []domain.GeneratedDoc {
	if len(files) == 0 {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil
	}

	timeout := c.cfg.BatchBaseTimeout + time.Duration(len(files))*c.cfg.BatchPerFileTimeout
	var results []domain.GeneratedDoc
	err := c.executor.Execute(ctx, "generate_docs_batch", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var resp struct {
			Results []domain.GeneratedDoc `json:"results"`
		}
		if err := c.postJSON(callCtx, "/generate-docs-batch", map[string]any{
			"files":           files,
			"project_context": projectContext,
		}, &resp, "generate_docs_batch"); err != nil {
			return err
		}
		results = resp.Results
		return nil
	}, classifyAIError)
	if err != nil {
		slog.Warn("ai batch generation failed", "files", len(files), "error", err)
		return nil
	}
	return results
}

// GenerateDoc produces one document (used for the README). On exhausted
// failure it returns a sentinel string with the fixed error prefix, which
// callers must check instead of relying on error propagation.
func (c *Client) GenerateDoc(ctx context.Context, prompt string) string {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.GenerationErrorPrefix + " generation canceled: " + err.Error()
	}

	var documentation string
	err := c.executor.Execute(ctx, "generate_doc", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.DocTimeout)
		defer cancel()

		var resp struct {
			Documentation string `json:"documentation"`
		}
		if err := c.postJSON(callCtx, "/generate-docs", map[string]any{
			"prompt": prompt,
		}, &resp, "generate_doc"); err != nil {
			return err
		}
		documentation = strings.TrimSpace(resp.Documentation)
		return nil
	}, classifyAIError)
	if err != nil {
		slog.Warn("ai document generation failed", "error", err)
		return domain.GenerationErrorPrefix + " AI service timeout or failure: " + err.Error()
	}
	if documentation == "" {
		return domain.GenerationErrorPrefix + " AI response missing content."
	}
	return documentation
}
