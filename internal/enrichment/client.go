package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Result is the enrichment service's verdict on an address
type Result struct {
	Blacklisted bool `json:"blacklisted"`
	SourceType  int  `json:"sourceType"`
}

// Client queries the external IP enrichment endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Config holds enrichment client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSecond caps outbound lookups; zero or less disables limiting
	RatePerSecond float64
	Burst         int
}

// NewClient creates a new enrichment client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
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
		limiter: rate.NewLimiter(limit, cfg.Burst),
	}
}

// Lookup asks the enrichment service about address
func (c *Client) Lookup(ctx context.Context, address string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + "api/alerts/enrich?ip=" + url.QueryEscape(address)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enrichment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("enrichment returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode enrichment response: %w", err)
	}
	return &result, nil
}
