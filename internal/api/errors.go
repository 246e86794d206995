package api

import (
	"errors"
	"fmt"
	"net/http"

	"learnwise/internal/conversation"
	"learnwise/internal/providers"
	"learnwise/internal/storage"
	"learnwise/internal/summary"
	"learnwise/internal/util"
)

type errorBody struct {
	Success  bool    `json:"success"`
	Error    string  `json:"error"`
	Message  string  `json:"message,omitempty"`
	Details  string  `json:"details,omitempty"`
	Provider string  `json:"provider,omitempty"`
	MaxSize  float64 `json:"maxSize,omitempty"`
	Stack    string  `json:"stack,omitempty"`
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}

func validationf(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

// toAPIError decides the status and body for err.
func (s *Server) toAPIError(err error) (int, errorBody) {
	var (
		ge      *providers.Error
		sizeErr *storage.SizeError
		maxErr  *http.MaxBytesError
		valErr  *validationError
	)
	switch {
	case errors.As(err, &ge):
		status := ge.Status
		if status < 400 || status > 599 {
			status = http.StatusInternalServerError
		}
		return status, errorBody{Error: ge.Message, Details: ge.Details, Provider: ge.Provider}
	case errors.As(err, &sizeErr), errors.As(err, &maxErr):
		mb := s.cfg.MaxFileSizeMB()
		return http.StatusRequestEntityTooLarge, errorBody{
			Error:   "file too large",
			Message: fmt.Sprintf("File size exceeds the %g MB limit", mb),
			MaxSize: mb,
			Details: err.Error(),
		}
	case errors.Is(err, storage.ErrUnsupportedType):
		return http.StatusBadRequest, errorBody{Error: "unsupported file type", Message: err.Error()}
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "file not found"}
	case errors.Is(err, conversation.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "conversation not found"}
	case errors.Is(err, conversation.ErrEmptyMessage),
		errors.Is(err, summary.ErrEmptyContent),
		errors.Is(err, util.ErrNoExtractableText):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.As(err, &valErr):
		return http.StatusBadRequest, errorBody{Error: valErr.msg}
	}
	body := errorBody{Error: "internal server error"}
	if !s.cfg.Production() {
		body.Details = err.Error()
	}
	return http.StatusInternalServerError, body
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, body := s.toAPIError(err)
	if status >= 500 {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	} else {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, body)
}
