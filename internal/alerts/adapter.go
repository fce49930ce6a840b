package alerts

import (
	"strings"

	"github.com/k597/AlertsWebApi/internal/database"
)

// SeverityUnrecognized marks a severity label no mapping knows about.
// It is stored as-is rather than coerced into a real level.
const SeverityUnrecognized = -1

// Candidate is the canonical alert-with-IPs shape every feed adapter produces
// and the merge engine consumes
type Candidate struct {
	// SourceID is the upstream record id; informational only, never used for dedup
	SourceID    int
	Title       string
	Description string
	Severity    int
	// IPs lists the addresses the alert mentions, in feed order
	IPs []string
}

// FeedAdapter decodes one upstream feed shape into candidates
type FeedAdapter interface {
	// GetSourceType returns the feed shape name (e.g., "a")
	GetSourceType() string

	// GetPath returns the feed endpoint path relative to the feed base URL
	GetPath() string

	// Decode parses one page body into candidates.
	// A null or empty JSON array yields an empty slice.
	Decode(body []byte) ([]Candidate, error)

	// DecodeNative parses one page body into the feed's own record type,
	// for callers that relay the page unchanged
	DecodeNative(body []byte) (interface{}, error)
}

// BaseAdapter provides common functionality for all adapters
type BaseAdapter struct {
	SourceType string
	Path       string
}

// GetSourceType returns the feed shape name
func (b *BaseAdapter) GetSourceType() string {
	return b.SourceType
}

// GetPath returns the configured feed path
func (b *BaseAdapter) GetPath() string {
	return b.Path
}

// ClassifyIP reports Internal for addresses starting with "192." or "10.",
// External for everything else. This is a literal prefix test, not CIDR
// matching: 192.0.2.1 counts as internal and 172.16.0.1 as external.
func ClassifyIP(address string) database.SourceType {
	if strings.HasPrefix(address, "192.") || strings.HasPrefix(address, "10.") {
		return database.SourceTypeInternal
	}
	return database.SourceTypeExternal
}

// SeverityFromLabel maps a textual severity (case-insensitive) to its level.
// Unknown labels map to SeverityUnrecognized.
func SeverityFromLabel(label string) int {
	switch strings.ToLower(label) {
	case "very low":
		return 0
	case "low":
		return 1
	case "medium":
		return 2
	case "high":
		return 3
	default:
		return SeverityUnrecognized
	}
}
