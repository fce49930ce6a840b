package jobs

import (
	"context"
	"log"
	"time"

	"github.com/k597/AlertsWebApi/internal/utils"
)

// FeedRunner ingests a registered feed from startPage
type FeedRunner interface {
	Feeds() []string
	Ingest(ctx context.Context, name string, pageSize, startPage int) (int, error)
}

// FeedPoller periodically ingests every registered feed from its first page
type FeedPoller struct {
	runner FeedRunner
}

// NewFeedPoller creates a new feed poller
func NewFeedPoller(runner FeedRunner) *FeedPoller {
	return &FeedPoller{runner: runner}
}

// PollOnce ingests each feed in turn. A failing feed is logged and does not
// stop the others. Returns the total number of records merged.
func (p *FeedPoller) PollOnce(ctx context.Context) int {
	total := 0
	for _, name := range p.runner.Feeds() {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		n, err := p.runner.Ingest(ctx, name, 0, 1)
		total += n
		if err != nil {
			log.Printf("Feed poller: feed %s stopped after %d alert(s) in %s: %v", name, n, utils.FormatDuration(time.Since(start)), err)
			continue
		}
		log.Printf("Feed poller: feed %s merged %d alert(s) in %s", name, n, utils.FormatDuration(time.Since(start)))
	}
	return total
}

// Start polls on every tick until ctx is done. Runs never overlap: a tick
// that fires during a run is dropped by the ticker.
func (p *FeedPoller) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.PollOnce(ctx)
		case <-ctx.Done():
			log.Println("Feed poller stopped")
			return
		}
	}
}
