package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PaginationHeader carries the page metadata on feed responses
const PaginationHeader = "X-Pagination"

// Pagination is the metadata a feed reports about the page it served
type Pagination struct {
	TotalRecordCount int `json:"total_record_count"`
	PageSize         int `json:"page_size"`
	PageNo           int `json:"page_no"`
	PageCount        int `json:"page_count"`
}

// Page is one fetched feed page
type Page struct {
	Body []byte
	// Pagination is nil when the header is absent or malformed
	Pagination *Pagination
}

// StatusError reports a non-success response from the feed
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed request to %s failed: %s", e.URL, e.Status)
}

// ErrTransport wraps failures to reach the feed at all
var ErrTransport = errors.New("feed unreachable")

// Client fetches pages from a remote paginated alert feed
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds feed client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewClient creates a new feed client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchPage requests page pageNo of size pageSize from the feed at path
func (c *Client) FetchPage(ctx context.Context, path string, pageSize, pageNo int) (*Page, error) {
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(pageSize))
	q.Set("page_no", strconv.Itoa(pageNo))
	reqURL := c.baseURL + strings.TrimPrefix(path, "/") + "?" + q.Encode()

	log.Printf("FeedClient: Request URL: %s", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("FeedClient: Request to %s failed: %v", reqURL, err)
		return nil, fmt.Errorf("%w: request to %s: %w", ErrTransport, reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("FeedClient: Received non-success status code %d for %s", resp.StatusCode, reqURL)
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: reqURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed response: %w", err)
	}

	return &Page{
		Body:       body,
		Pagination: ParsePagination(resp.Header.Get(PaginationHeader)),
	}, nil
}

// ParsePagination decodes the pagination header value.
// Empty or malformed values yield nil so callers keep their previous assumptions.
func ParsePagination(value string) *Pagination {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var p Pagination
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		log.Printf("FeedClient: Ignoring malformed %s header %q: %v", PaginationHeader, value, err)
		return nil
	}
	return &p
}
