package httpserver

import (
	"errors"
	"net/http"

	"github.com/Clark-Hu/library-service/internal/service"
)

const (
	codeBadRequest      = "BAD_REQUEST"
	codeNotFound        = "NOT_FOUND"
	codeConflict        = "CONFLICT"
	codeTooManyRequests = "TOO_MANY_REQUESTS"
	codeUnavailable     = "SERVICE_UNAVAILABLE"
	codeInternal        = "INTERNAL_ERROR"

	msgInternal        = "Internal server error"
	msgTooManyRequests = "Too many requests, please try again later."
	msgInvalidUserID   = "Invalid user ID"
	msgInvalidBookID   = "Invalid book ID"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	s.respondJSON(w, r, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// respondServiceError maps a service failure to its HTTP status. Anything
// that is not a service.Error is logged and hidden behind a generic 500.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch service.KindOf(err) {
	case service.KindBadRequest:
		s.respondError(w, r, http.StatusBadRequest, codeBadRequest, err.Error())
	case service.KindNotFound:
		s.respondError(w, r, http.StatusNotFound, codeNotFound, err.Error())
	case service.KindConflict:
		s.respondError(w, r, http.StatusConflict, codeConflict, err.Error())
	default:
		loggerFromContext(r.Context(), s.logger).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		s.respondError(w, r, http.StatusInternalServerError, codeInternal, msgInternal)
	}
}

func (s *Server) respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		s.respondError(w, r, http.StatusBadRequest, codeBadRequest, verr.Error())
	case errors.Is(err, errBodyTooLarge):
		s.respondError(w, r, http.StatusRequestEntityTooLarge, codeBadRequest, "Request body too large")
	case errors.Is(err, errBodyNotObject):
		s.respondError(w, r, http.StatusBadRequest, codeBadRequest, "Request body must be a JSON object")
	default:
		s.respondError(w, r, http.StatusBadRequest, codeBadRequest, "Malformed JSON payload")
	}
}
