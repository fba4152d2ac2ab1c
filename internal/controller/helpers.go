package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"slotswap/internal/apperr"
)

type envelope map[string]any

func (c *Controller) respond(w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		c.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError maps the error taxonomy to HTTP status codes.
func (c *Controller) respondError(w http.ResponseWriter, err error) {
	var status int
	switch apperr.KindOf(err) {
	case apperr.KindInvalidArgument:
		status = http.StatusBadRequest
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidState:
		status = http.StatusConflict
	default:
		status = http.StatusServiceUnavailable
	}

	message := err.Error()
	if status == http.StatusServiceUnavailable {
		// Infrastructure details stay in the logs.
		c.logger.Error("Request failed", zap.Error(err))
		message = "service temporarily unavailable"
	}

	c.respond(w, status, envelope{"success": false, "message": message})
}

func (c *Controller) badRequest(w http.ResponseWriter, format string, args ...any) {
	c.respond(w, http.StatusBadRequest, envelope{
		"success": false,
		"message": fmt.Sprintf(format, args...),
	})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue("id"))
}

// parseTimeParam accepts RFC 3339 timestamps and plain dates.
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q", value)
	}
	return &t, nil
}
