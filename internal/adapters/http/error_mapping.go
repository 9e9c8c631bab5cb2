package httpadapter

import (
	"net/http"

	"github.com/intellidoc/repodoc/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrRepositoryNotFound),
		domain.IsKind(err, domain.ErrDocumentationNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrDuplicateRepository):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
