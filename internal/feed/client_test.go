package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_FetchPage(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set(PaginationHeader, `{"total_record_count":25,"page_size":10,"page_no":2,"page_count":3}`)
		w.Write([]byte(`[{"id":1}]`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	page, err := client.FetchPage(context.Background(), "/api/alerts/a", 10, 2)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if gotPath != "/api/alerts/a" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "page_no=2&page_size=10" {
		t.Errorf("query = %q", gotQuery)
	}
	if string(page.Body) != `[{"id":1}]` {
		t.Errorf("body = %s", page.Body)
	}
	want := Pagination{TotalRecordCount: 25, PageSize: 10, PageNo: 2, PageCount: 3}
	if page.Pagination == nil || *page.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, want)
	}
}

func TestClient_FetchPage_NonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL + "/"})
	_, err := client.FetchPage(context.Background(), "api/alerts/b", 10, 1)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
}

func TestClient_FetchPage_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(Config{BaseURL: url, Timeout: time.Second})
	_, err := client.FetchPage(context.Background(), "api/alerts/a", 10, 1)
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("error %v does not wrap ErrTransport", err)
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantNil bool
		want    Pagination
	}{
		{"empty", "", true, Pagination{}},
		{"whitespace", "   ", true, Pagination{}},
		{"malformed", "{page_count:3", true, Pagination{}},
		{"wrong type", `{"page_count":"three"}`, true, Pagination{}},
		{"valid", `{"page_count":4,"page_size":5}`, false, Pagination{PageCount: 4, PageSize: 5}},
		{"zero page count", `{"page_count":0}`, false, Pagination{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePagination(tt.value)
			if tt.wantNil {
				if got != nil {
					t.Errorf("ParsePagination(%q) = %+v, want nil", tt.value, got)
				}
				return
			}
			if got == nil || *got != tt.want {
				t.Errorf("ParsePagination(%q) = %+v, want %+v", tt.value, got, tt.want)
			}
		})
	}
}
