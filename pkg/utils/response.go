package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"isuku-backend/internal/apperr"
)

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError sends an error response
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// RespondAppError maps err through the apperr taxonomy. Internal errors are
// logged and answered with a generic message.
func RespondAppError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	code, message := apperr.Public(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ Internal error: %v", err)
	}

	body := map[string]interface{}{
		"success": false,
		"error":   message,
		"code":    code,
	}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body["errors"] = fields
	}
	RespondJSON(w, status, body)
}

// DecodeJSON reads the request body into dst. An empty body leaves dst as is.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation("invalid_body", "Invalid request body").Wrap(fmt.Errorf("decode: %w", err))
	}
	return nil
}
