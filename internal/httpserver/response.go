package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	authdomain "eventboard/backend/internal/domain/auth"
	eventdomain "eventboard/backend/internal/domain/event"
	"eventboard/backend/internal/domain/validation"

	"github.com/go-chi/chi/v5"
)

const (
	internalErrorMessage = "internal server error"
	maxBodyBytes         = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors []validation.FieldError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps use case errors onto status codes. Unexpected
// errors are logged and hidden from the client.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: verr.Fields})
	case errors.Is(err, authdomain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, authdomain.ErrInvalidCredentials.Error())
	case errors.Is(err, authdomain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, authdomain.ErrUnauthenticated.Error())
	case errors.Is(err, authdomain.ErrForbidden),
		errors.Is(err, eventdomain.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, authdomain.ErrEmailExists),
		errors.Is(err, eventdomain.ErrDuplicateCategory),
		errors.Is(err, eventdomain.ErrCategoryInUse):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, eventdomain.ErrNotFound),
		errors.Is(err, eventdomain.ErrCategoryNotFound),
		errors.Is(err, authdomain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.WithError(err).
			WithField("request_id", requestIDFromContext(r.Context())).
			WithField("path", r.URL.Path).
			Error("request failed")
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

// decodeJSON reads a single bounded JSON value into dst. An empty body
// decodes as the zero value so field validation can report what is missing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errors.New("trailing data after JSON value")
		}
	}
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
