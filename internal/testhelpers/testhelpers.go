// Package testhelpers provides reusable testing utilities for the alerts API.
//
// This package contains:
// - HTTP test helpers (creating requests, asserting responses)
// - An in-memory SQLite store
// - Fake remote feed and enrichment servers
// - Sample data builders and assertion helpers
package testhelpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/k597/AlertsWebApi/internal/database"
	"github.com/k597/AlertsWebApi/internal/middleware"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ========================================
// HTTP Test Helpers
// ========================================

// HTTPTestContext builds one request, runs it through a handler and
// records the response for chained assertions
type HTTPTestContext struct {
	T        *testing.T
	Recorder *httptest.ResponseRecorder
	Request  *http.Request
}

func NewHTTPTestContext(t *testing.T, method, path string, body io.Reader) *HTTPTestContext {
	t.Helper()
	return &HTTPTestContext{
		T:        t,
		Recorder: httptest.NewRecorder(),
		Request:  httptest.NewRequest(method, path, body),
	}
}

func (ctx *HTTPTestContext) WithHeader(key, value string) *HTTPTestContext {
	ctx.Request.Header.Set(key, value)
	return ctx
}

// WithJSONBody replaces the request body with v encoded as JSON
func (ctx *HTTPTestContext) WithJSONBody(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		ctx.T.Fatalf("encode request body: %v", err)
	}
	req := ctx.Request.Clone(ctx.Request.Context())
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", "application/json")
	ctx.Request = req
	return ctx
}

func (ctx *HTTPTestContext) WithBearerToken(token string) *HTTPTestContext {
	return ctx.WithHeader("Authorization", "Bearer "+token)
}

// WithUser attaches an authenticated user the way the JWT middleware does
func (ctx *HTTPTestContext) WithUser(user string) *HTTPTestContext {
	ctx.Request = ctx.Request.WithContext(context.WithValue(ctx.Request.Context(), middleware.UserContextKey, user))
	return ctx
}

func (ctx *HTTPTestContext) Execute(handler http.Handler) *HTTPTestContext {
	handler.ServeHTTP(ctx.Recorder, ctx.Request)
	return ctx
}

func (ctx *HTTPTestContext) AssertStatus(expected int) *HTTPTestContext {
	ctx.T.Helper()
	if got := ctx.Recorder.Code; got != expected {
		ctx.T.Errorf("%s %s: status = %d, want %d (body %s)",
			ctx.Request.Method, ctx.Request.URL.Path, got, expected, ctx.Recorder.Body.String())
	}
	return ctx
}

func (ctx *HTTPTestContext) AssertBodyContains(substr string) *HTTPTestContext {
	ctx.T.Helper()
	if body := ctx.Recorder.Body.String(); !strings.Contains(body, substr) {
		ctx.T.Errorf("body does not contain %q: %s", substr, body)
	}
	return ctx
}

func (ctx *HTTPTestContext) AssertHeader(key, expected string) *HTTPTestContext {
	ctx.T.Helper()
	if got := ctx.Recorder.Header().Get(key); got != expected {
		ctx.T.Errorf("header %s = %q, want %q", key, got, expected)
	}
	return ctx
}

// DecodeJSON decodes the recorded body into v
func (ctx *HTTPTestContext) DecodeJSON(v interface{}) *HTTPTestContext {
	ctx.T.Helper()
	DecodeBody(ctx.T, ctx.Recorder, v)
	return ctx
}

// DecodeBody decodes a recorded JSON response body into v
func DecodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response body %q: %v", w.Body.String(), err)
	}
}

// ========================================
// Database Helpers
// ========================================

// NewTestDB opens a migrated in-memory SQLite database.
// A single connection keeps every query on the same in-memory instance.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// CountRows returns the number of rows in model's table
func CountRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}

// MustFindIP loads an IP row by address or fails the test
func MustFindIP(t *testing.T, db *gorm.DB, address string) database.IPAddress {
	t.Helper()
	var ip database.IPAddress
	if err := db.Where("address = ?", address).First(&ip).Error; err != nil {
		t.Fatalf("ip %s not found: %v", address, err)
	}
	return ip
}

// ========================================
// Assertion Helpers
// ========================================

// AssertEqual checks equality with a helpful error message
func AssertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// AssertNoError checks that no error occurred
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// AssertError checks that an error occurred
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", msg)
	}
}

// ========================================
// Timing Helpers
// ========================================

// MustCompleteWithin fails the test if the function takes longer than the timeout
func MustCompleteWithin(t *testing.T, timeout time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-time.After(timeout):
		t.Fatalf("function did not complete within %v", timeout)
	}
}
