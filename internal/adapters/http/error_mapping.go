package httpadapter

import (
	"net/http"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrEmbedding):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrDatastore):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
