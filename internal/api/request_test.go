package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func jsonRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/alerts", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestDecodeJSON_AlertRequest(t *testing.T) {
	var dst AlertRequest
	err := DecodeJSON(jsonRequest(`{"title":"Port scan","description":"probes","severity":2,"ips":["10.0.0.1"]}`), &dst)
	if err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if dst.Title != "Port scan" || dst.Severity != 2 {
		t.Errorf("decoded = %+v", dst)
	}
	if len(dst.IPs) != 1 || dst.IPs[0] != "10.0.0.1" {
		t.Errorf("ips = %v", dst.IPs)
	}
}

func TestDecodeJSON_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty", "", "request body is empty"},
		{"truncated", `{"title":`, "malformed JSON"},
		{"syntax", `{title}`, "malformed JSON at position"},
		{"wrong type", `{"title":"t","severity":"high"}`, `invalid value for field "severity"`},
		{"unknown field", `{"title":"t","count":3}`, `unknown field "count"`},
		{"two objects", `{"title":"a"}{"title":"b"}`, "single JSON object"},
		{"oversized", `{"title":"` + strings.Repeat("x", MaxBodySize) + `"}`, "exceeds maximum size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst AlertRequest
			err := DecodeJSON(jsonRequest(tt.body), &dst)
			if err == nil {
				t.Fatal("DecodeJSON() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeJSON_NilBody(t *testing.T) {
	r, _ := http.NewRequest(http.MethodPost, "/api/alerts", nil)
	var dst AlertRequest
	if err := DecodeJSON(r, &dst); err == nil || err.Error() != "request body is empty" {
		t.Errorf("error = %v, want request body is empty", err)
	}
}

func TestDecodeAndValidate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
	}{
		{"valid", `{"title":"t","severity":1}`, true, http.StatusOK},
		{"unset severity", `{"title":"t","severity":-1}`, true, http.StatusOK},
		{"malformed", `{"title":`, false, http.StatusBadRequest},
		{"unknown field", `{"title":"t","count":3}`, false, http.StatusBadRequest},
		{"missing title", `{"severity":1}`, false, http.StatusUnprocessableEntity},
		{"severity below range", `{"title":"t","severity":-2}`, false, http.StatusUnprocessableEntity},
		{"blank address", `{"title":"t","ips":[""]}`, false, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			var dst AlertRequest
			ok := DecodeAndValidate(w, jsonRequest(tt.body), &dst)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (body %s)", ok, tt.wantOK, w.Body.String())
			}
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
