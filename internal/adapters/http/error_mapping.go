package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrFileTooLarge),
		domain.IsKind(err, domain.ErrTooManyFiles),
		domain.IsKind(err, domain.ErrUnexpectedField),
		domain.IsKind(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var upErr *uploadError
	if errors.As(err, &upErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: upErr.title, Message: upErr.message})
		return
	}

	status := mapErrorToHTTPStatus(err)
	body := errorResponse{Error: http.StatusText(status), Message: err.Error()}
	if status == http.StatusInternalServerError {
		body.Message = "An unexpected error occurred"
	}
	writeJSON(w, status, body)
}
