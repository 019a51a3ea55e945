package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"threatdash/internal/domain/apperr"
	"threatdash/internal/domain/models"
	"threatdash/pkg/logger"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// MessageResponse is returned by create, update and delete
type MessageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, log *logger.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// respondError classifies err and sends {error, message}. Storage and
// internal failures are logged with their cause and answered with fallback.
func respondError(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	e := apperr.As(err, fallback)
	message := e.Message
	if !e.Exposed() {
		log.Error().Stack().Err(err).Msg(fallback)
		if message == "" {
			message = fallback
		}
	}
	respondJSON(w, log, e.Status(), ErrorResponse{Error: e.Label(), Message: message})
}

// decodeBody reads a JSON object from r into dst, mapping legacy field
// names of collection onto the canonical ones first
func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, collection string, dst any) error {
	body := io.Reader(r.Body)
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("Request body exceeds %d bytes", tooLarge.Limit)
		}
		return apperr.Validation("Could not read request body")
	}

	if collection != "" {
		data, err = models.NormalizeJSON(collection, data)
		if err != nil {
			return apperr.Validation("Request body must be a JSON object")
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperr.Validation("Invalid request body: %s", describeJSONError(err))
	}
	return nil
}

func describeJSONError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "malformed JSON"
	}
	return "expected a JSON object"
}
