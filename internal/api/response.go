package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the error body every endpoint writes
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Machine-readable error codes
const (
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeIDMismatch      = "id_mismatch"
	CodeValidation      = "validation_error"
	CodeUpstreamFailed  = "upstream_failed"
	CodeUnknownFeed     = "unknown_feed"
	CodeIngestionFailed = "ingestion_failed"
)

// RespondJSON encodes data with the given status. A nil data writes headers only.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("api: Failed to encode %d response: %v", status, err)
	}
}

// RespondError writes an error body without a code.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondErrorWithDetails(w, status, "", message, nil)
}

// RespondErrorWithCode writes an error body carrying one of the Code* values.
func RespondErrorWithCode(w http.ResponseWriter, status int, code, message string) {
	RespondErrorWithDetails(w, status, code, message, nil)
}

// RespondErrorWithDetails writes an error body with extra key/value context,
// e.g. how many alerts an interrupted ingestion run stored.
func RespondErrorWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	RespondJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

// RespondValidationError answers 422 with one message per offending field.
func RespondValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	RespondErrorWithDetails(w, http.StatusUnprocessableEntity, CodeValidation, "Validation failed", fieldErrors)
}

func RespondNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
