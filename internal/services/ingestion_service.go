package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/k597/AlertsWebApi/internal/alerts"
	"github.com/k597/AlertsWebApi/internal/database"
	"github.com/k597/AlertsWebApi/internal/feed"
	"github.com/k597/AlertsWebApi/internal/metrics"
	"github.com/k597/AlertsWebApi/internal/utils"
)

// DefaultPageSize is used when a caller passes a non-positive page size
const DefaultPageSize = 10

// ErrUnknownFeed is returned for a feed name with no registered adapter
var ErrUnknownFeed = errors.New("unknown feed")

// FeedFetcher retrieves one page of a remote feed
type FeedFetcher interface {
	FetchPage(ctx context.Context, path string, pageSize, pageNo int) (*feed.Page, error)
}

// Merger records one alert observation
type Merger interface {
	MergeAlert(ctx context.Context, candidate alerts.Candidate) (*database.Alert, error)
}

// IngestionService pulls paginated feeds and merges every record
type IngestionService struct {
	fetcher FeedFetcher
	merger  Merger

	mu       sync.RWMutex
	adapters map[string]registeredFeed
}

type registeredFeed struct {
	adapter         alerts.FeedAdapter
	defaultPageSize int
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(fetcher FeedFetcher, merger Merger) *IngestionService {
	return &IngestionService{
		fetcher:  fetcher,
		merger:   merger,
		adapters: make(map[string]registeredFeed),
	}
}

// RegisterAdapter makes a feed available under the adapter's source type
func (s *IngestionService) RegisterAdapter(adapter alerts.FeedAdapter, defaultPageSize int) {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultPageSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adapters[adapter.GetSourceType()] = registeredFeed{adapter: adapter, defaultPageSize: defaultPageSize}
	log.Printf("IngestionService: Registered feed %s at %s", adapter.GetSourceType(), adapter.GetPath())
}

// Feeds returns the names of the registered feeds
func (s *IngestionService) Feeds() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.adapters))
	for name := range s.adapters {
		names = append(names, name)
	}
	return names
}

func (s *IngestionService) lookup(name string) (registeredFeed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.adapters[name]
	if !ok {
		return registeredFeed{}, fmt.Errorf("%w: %s", ErrUnknownFeed, name)
	}
	return f, nil
}

// Ingest runs the registered feed name from startPage
func (s *IngestionService) Ingest(ctx context.Context, name string, pageSize, startPage int) (int, error) {
	f, err := s.lookup(name)
	if err != nil {
		return 0, err
	}
	if pageSize <= 0 {
		pageSize = f.defaultPageSize
	}
	return s.Run(ctx, f.adapter, pageSize, startPage)
}

// Run walks the feed page by page, merging every record, until the page
// count reported by the feed is exhausted or a page comes back empty.
// It stops at the first fetch, decode, or merge error and returns the number
// of records merged before it; earlier pages stay committed, so a caller can
// resume from a later page.
func (s *IngestionService) Run(ctx context.Context, adapter alerts.FeedAdapter, pageSize, startPage int) (processed int, err error) {
	name := adapter.GetSourceType()
	start := time.Now()
	defer func() {
		metrics.IngestionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.IngestionFailures.WithLabelValues(name).Inc()
		}
	}()

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := startPage
	if page < 1 {
		page = 1
	}
	totalPages := 1

	for page <= totalPages {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		log.Printf("IngestionService: Fetching page %d of feed %s (page size %d)", page, name, pageSize)
		result, err := s.fetcher.FetchPage(ctx, adapter.GetPath(), pageSize, page)
		if err != nil {
			log.Printf("IngestionService: Error fetching page %d of feed %s: %v", page, name, err)
			return processed, fmt.Errorf("fetch page %d of feed %s: %w", page, name, err)
		}
		metrics.IngestedPages.WithLabelValues(name).Inc()

		if p := result.Pagination; p != nil {
			totalPages = p.PageCount
			if p.PageSize > 0 {
				pageSize = p.PageSize
			}
		}

		candidates, err := adapter.Decode(result.Body)
		if err != nil {
			return processed, err
		}
		if len(candidates) == 0 {
			log.Printf("IngestionService: No alerts found on page %d of feed %s", page, name)
			break
		}

		for _, candidate := range candidates {
			if _, err := s.merger.MergeAlert(ctx, candidate); err != nil {
				log.Printf("IngestionService: Error merging alert '%s' from feed %s: %v", utils.EscapeForLogging(candidate.Title, 120), name, err)
				return processed, fmt.Errorf("merge alert from page %d of feed %s: %w", page, name, err)
			}
			processed++
			metrics.IngestedRecords.WithLabelValues(name).Inc()
		}

		log.Printf("IngestionService: Processed page %d of %d. Total alerts processed so far: %d.", page, totalPages, processed)
		page++
	}

	log.Printf("IngestionService: Feed %s finished, %d alert(s) processed in %s", name, processed, utils.FormatDuration(time.Since(start)))
	return processed, nil
}

// FetchPage returns one page of feed name decoded into the feed's own record
// type, without merging anything
func (s *IngestionService) FetchPage(ctx context.Context, name string, pageSize, pageNo int) (interface{}, *feed.Pagination, error) {
	f, err := s.lookup(name)
	if err != nil {
		return nil, nil, err
	}
	if pageSize <= 0 {
		pageSize = f.defaultPageSize
	}
	if pageNo < 1 {
		pageNo = 1
	}

	result, err := s.fetcher.FetchPage(ctx, f.adapter.GetPath(), pageSize, pageNo)
	if err != nil {
		return nil, nil, err
	}
	records, err := f.adapter.DecodeNative(result.Body)
	if err != nil {
		return nil, nil, err
	}
	return records, result.Pagination, nil
}
