package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/k597/AlertsWebApi/internal/feed"
)

// ========================================
// Fake Remote Feed
// ========================================

// FeedPage is one canned response of a FakeFeedServer
type FeedPage struct {
	// Body is written verbatim; nil writes "[]"
	Body []byte
	// Pagination is encoded into the X-Pagination header when set
	Pagination *feed.Pagination
	// RawPagination overrides Pagination with a literal header value
	RawPagination string
	// Status defaults to 200
	Status int
}

// FakeFeedServer serves canned pages keyed by path and page number
type FakeFeedServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	pages    map[string]map[int]FeedPage
	requests []*http.Request
}

// NewFakeFeedServer starts a feed server that is closed with the test
func NewFakeFeedServer(t *testing.T) *FakeFeedServer {
	t.Helper()
	f := &FakeFeedServer{pages: make(map[string]map[int]FeedPage)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server's base URL with a trailing slash
func (f *FakeFeedServer) URL() string {
	return f.Server.URL + "/"
}

// SetPage registers the response for page pageNo of path
func (f *FakeFeedServer) SetPage(path string, pageNo int, page FeedPage) *FakeFeedServer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pages[path] == nil {
		f.pages[path] = make(map[int]FeedPage)
	}
	f.pages[path][pageNo] = page
	return f
}

// SetJSONPage registers records as the JSON body of page pageNo of path
func (f *FakeFeedServer) SetJSONPage(t *testing.T, path string, pageNo int, records interface{}, pagination *feed.Pagination) *FakeFeedServer {
	t.Helper()
	body, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("failed to marshal feed page: %v", err)
	}
	return f.SetPage(path, pageNo, FeedPage{Body: body, Pagination: pagination})
}

// Requests returns a copy of every request received so far
func (f *FakeFeedServer) Requests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*http.Request(nil), f.requests...)
}

func (f *FakeFeedServer) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	pageNo, _ := strconv.Atoi(r.URL.Query().Get("page_no"))
	page, ok := f.pages[r.URL.Path][pageNo]
	f.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
		return
	}

	switch {
	case page.RawPagination != "":
		w.Header().Set(feed.PaginationHeader, page.RawPagination)
	case page.Pagination != nil:
		encoded, _ := json.Marshal(page.Pagination)
		w.Header().Set(feed.PaginationHeader, string(encoded))
	}
	w.Header().Set("Content-Type", "application/json")

	status := page.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	body := page.Body
	if body == nil {
		body = []byte("[]")
	}
	w.Write(body)
}

// ========================================
// Fake Enrichment Service
// ========================================

// FakeEnrichmentServer answers IP lookups from a fixed blacklist
type FakeEnrichmentServer struct {
	Server *httptest.Server

	mu          sync.Mutex
	blacklisted map[string]bool
	failing     bool
	calls       map[string]int
}

// NewFakeEnrichmentServer starts an enrichment server that is closed with the test
func NewFakeEnrichmentServer(t *testing.T, blacklisted ...string) *FakeEnrichmentServer {
	t.Helper()
	f := &FakeEnrichmentServer{
		blacklisted: make(map[string]bool),
		calls:       make(map[string]int),
	}
	for _, address := range blacklisted {
		f.blacklisted[address] = true
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server's base URL with a trailing slash
func (f *FakeEnrichmentServer) URL() string {
	return f.Server.URL + "/"
}

// Fail makes every subsequent lookup answer 500
func (f *FakeEnrichmentServer) Fail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = true
}

// Calls returns how many lookups were made for address
func (f *FakeEnrichmentServer) Calls(address string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[address]
}

// TotalCalls returns how many lookups were made overall
func (f *FakeEnrichmentServer) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeEnrichmentServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/alerts/enrich" {
		http.NotFound(w, r)
		return
	}
	address := r.URL.Query().Get("ip")

	f.mu.Lock()
	f.calls[address]++
	failing := f.failing
	blacklisted := f.blacklisted[address]
	f.mu.Unlock()

	if failing {
		http.Error(w, "enrichment unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"blacklisted": blacklisted,
		"sourceType":  1,
	})
}
