package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func TestRespondJSON_AlertBody(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, http.StatusCreated, AlertResponse{ID: 7, Title: "Port scan", Count: 2})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got AlertResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 7 || got.Title != "Port scan" || got.Count != 2 {
		t.Errorf("body = %+v", got)
	}
}

func TestRespondJSON_NilWritesNoBody(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, http.StatusAccepted, nil)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
}

func TestRespondErrorCodes(t *testing.T) {
	tests := []struct {
		status  int
		code    string
		message string
	}{
		{http.StatusNotFound, CodeNotFound, "Alert not found"},
		{http.StatusConflict, CodeConflict, "Another alert already has this title, description and severity"},
		{http.StatusBadRequest, CodeIDMismatch, "Alert ID in body does not match the URL"},
		{http.StatusBadGateway, CodeUpstreamFailed, "Failed to fetch feed page"},
		{http.StatusNotFound, CodeUnknownFeed, "unknown feed: c"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondErrorWithCode(w, tt.status, tt.code, tt.message)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			resp := decodeError(t, w)
			if resp.Code != tt.code || resp.Error != tt.message {
				t.Errorf("body = %+v", resp)
			}
			if resp.Details != nil {
				t.Errorf("details = %v, want none", resp.Details)
			}
		})
	}
}

func TestRespondError_OmitsCode(t *testing.T) {
	w := httptest.NewRecorder()
	RespondError(w, http.StatusBadRequest, "Invalid alert ID")

	var raw map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["error"] != "Invalid alert ID" {
		t.Errorf("error = %v", raw["error"])
	}
	for _, key := range []string{"code", "details"} {
		if _, ok := raw[key]; ok {
			t.Errorf("%s should be omitted, body = %v", key, raw)
		}
	}
}

func TestRespondErrorWithDetails_IngestionProgress(t *testing.T) {
	w := httptest.NewRecorder()
	RespondErrorWithDetails(w, http.StatusBadGateway, CodeUpstreamFailed, "feed returned 503", map[string]string{"processed": "4"})

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Code != CodeUpstreamFailed {
		t.Errorf("code = %q", resp.Code)
	}
	if resp.Details["processed"] != "4" {
		t.Errorf("details = %v", resp.Details)
	}
}

func TestRespondValidationError(t *testing.T) {
	w := httptest.NewRecorder()
	RespondValidationError(w, map[string]string{
		"title":    "is required",
		"severity": "must be between 0 and 10",
	})

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
	resp := decodeError(t, w)
	if resp.Code != CodeValidation || resp.Error != "Validation failed" {
		t.Errorf("body = %+v", resp)
	}
	if len(resp.Details) != 2 || resp.Details["title"] != "is required" {
		t.Errorf("details = %v", resp.Details)
	}
}

func TestRespondNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	RespondNoContent(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body length = %d, want 0", w.Body.Len())
	}
}
