package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tutorhub/internal/repository"
	"tutorhub/internal/service"
	"tutorhub/internal/validation"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var errCSRF = errors.New("csrf token mismatch")

// envelope is the body of every JSON response
type envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message,omitempty"`
	Timestamp  string `json:"timestamp"`
	APIVersion string `json:"api_version"`
}

// Responder writes JSON envelopes and turns errors into status codes
type Responder struct {
	logger     *zap.Logger
	apiVersion string
}

// NewResponder creates a responder stamping apiVersion on every envelope
func NewResponder(logger *zap.Logger, apiVersion string) *Responder {
	return &Responder{logger: logger, apiVersion: apiVersion}
}

func (rs *Responder) writeJSON(w http.ResponseWriter, status int, body envelope) {
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)
	body.APIVersion = rs.apiVersion

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Success writes a success envelope carrying data
func (rs *Responder) Success(w http.ResponseWriter, status int, data any) {
	rs.writeJSON(w, status, envelope{Success: true, Data: data})
}

// Message writes a success envelope carrying only a message
func (rs *Responder) Message(w http.ResponseWriter, message string) {
	rs.writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

// Error maps err to a status code and writes an error envelope.
// Unrecognised errors are logged and reported as a generic 500.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classifyError(err)
	if status == http.StatusInternalServerError {
		rs.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	rs.writeJSON(w, status, envelope{Success: false, Message: message})
}

// BadRequest writes a 400 with a fixed message
func (rs *Responder) BadRequest(w http.ResponseWriter, message string) {
	rs.writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: message})
}

// NotFound writes a 404 naming the missing resource
func (rs *Responder) NotFound(w http.ResponseWriter, message string) {
	rs.writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: message})
}

func classifyError(err error) (int, string) {
	var verr validation.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, service.ErrNotAuthenticated),
		errors.Is(err, service.ErrSessionInvalid):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, errCSRF):
		return http.StatusForbidden, ErrInvalidCSRFToken
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrRateLimited),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrNotFound
	default:
		return http.StatusInternalServerError, ErrInternalServerError
	}
}
