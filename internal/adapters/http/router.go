package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/intellidoc/repodoc/internal/core/domain"
	"github.com/intellidoc/repodoc/internal/core/usecase"
)

// ProgressSubscriber delivers one repository's live progress events until the
// context is canceled.
type ProgressSubscriber interface {
	Subscribe(ctx context.Context, repositoryID string, handler func(domain.ProgressEvent)) error
}

type Router struct {
	enqueueUC *usecase.EnqueueUseCase
	queryUC   *usecase.QueryUseCase
	progress  ProgressSubscriber
}

func NewRouter(enqueueUC *usecase.EnqueueUseCase, queryUC *usecase.QueryUseCase, progress ProgressSubscriber) *Router {
	return &Router{
		enqueueUC: enqueueUC,
		queryUC:   queryUC,
		progress:  progress,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/repositories", rt.repositories)
	mux.HandleFunc("/v1/repositories/", rt.repositoryResource)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/stats", rt.stats)
	return requestIDMiddleware(accessLogMiddleware(mux))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) repositories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.createRepository(w, r)
	case http.MethodGet:
		rt.listRepositories(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) createRepository(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL     string `json:"url"`
		OwnerID string `json:"ownerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.OwnerID == "" {
		req.OwnerID = ownerID(r)
	}

	repo, err := rt.enqueueUC.QueueAnalysis(r.Context(), req.URL, req.OwnerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, repo)
}

func (rt *Router) listRepositories(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner id is required"})
		return
	}
	repos, err := rt.queryUC.RepositoriesByOwner(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

// repositoryResource dispatches /v1/repositories/{id} and its subresources.
func (rt *Router) repositoryResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/repositories/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "repository id is required"})
		return
	}

	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch sub {
	case "":
		rt.getRepository(w, r, id)
	case "status":
		rt.getStatus(w, r, id)
	case "readme":
		rt.readme(w, r, id)
	case "docs":
		rt.docs(w, r, id)
	case "events":
		rt.events(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) getRepository(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	repo, err := rt.queryUC.Repository(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

func (rt *Router) getStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	repo, err := rt.queryUC.Repository(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.RepositoryStatus{"status": repo.Status})
}

func (rt *Router) readme(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		doc, err := rt.queryUC.Readme(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)

	case http.MethodPost:
		if err := rt.enqueueUC.QueueReadme(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})

	case http.MethodPut:
		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
		if err := rt.queryUC.UpdateReadme(r.Context(), id, req.Content); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) docs(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	if path := r.URL.Query().Get("path"); path != "" {
		doc, err := rt.queryUC.Document(r.Context(), id, path)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
		return
	}

	docs, err := rt.queryUC.Documents(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// events streams a repository's progress as server-sent events until the
// client disconnects.
func (rt *Router) events(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}
	if _, err := rt.queryUC.Repository(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	err := rt.progress.Subscribe(r.Context(), id, func(event domain.ProgressEvent) {
		payload, err := json.Marshal(event)
		if err != nil {
			return
		}
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return
		}
		flusher.Flush()
	})
	if err != nil && r.Context().Err() == nil {
		// Headers are already written; nothing more to report to the client.
		return
	}
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	owner := ownerID(r)
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner id is required"})
		return
	}

	results, err := rt.queryUC.Search(r.Context(), owner, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	owner := ownerID(r)
	if owner == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner id is required"})
		return
	}

	stats, err := rt.queryUC.Stats(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ownerID resolves the caller identity from the X-Owner-Id header or the
// ownerId query parameter.
func ownerID(r *http.Request) string {
	if owner := strings.TrimSpace(r.Header.Get("X-Owner-Id")); owner != "" {
		return owner
	}
	return strings.TrimSpace(r.URL.Query().Get("ownerId"))
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
