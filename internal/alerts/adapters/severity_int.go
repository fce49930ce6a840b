package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/k597/AlertsWebApi/internal/alerts"
)

// IntSeverityRecord is a feed record whose severity is already numeric
type IntSeverityRecord struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    int      `json:"severity"`
	IPs         []string `json:"ips"`
}

// IntSeverityAdapter handles feeds carrying integer severities ("shape A")
type IntSeverityAdapter struct {
	alerts.BaseAdapter
}

// NewIntSeverityAdapter creates an adapter for an integer-severity feed at path
func NewIntSeverityAdapter(name, path string) *IntSeverityAdapter {
	return &IntSeverityAdapter{
		BaseAdapter: alerts.BaseAdapter{SourceType: name, Path: path},
	}
}

// DecodeRecords parses a page body into native records.
// An empty body decodes like JSON null.
func (a *IntSeverityAdapter) DecodeRecords(body []byte) ([]IntSeverityRecord, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var records []IntSeverityRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s feed page: %w", a.SourceType, err)
	}
	return records, nil
}

// DecodeNative parses a page body into native records, never returning a nil slice
func (a *IntSeverityAdapter) DecodeNative(body []byte) (interface{}, error) {
	records, err := a.DecodeRecords(body)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []IntSeverityRecord{}
	}
	return records, nil
}

// Decode parses a page body into candidates
func (a *IntSeverityAdapter) Decode(body []byte) ([]alerts.Candidate, error) {
	records, err := a.DecodeRecords(body)
	if err != nil {
		return nil, err
	}
	candidates := make([]alerts.Candidate, 0, len(records))
	for _, r := range records {
		candidates = append(candidates, r.ToCandidate())
	}
	return candidates, nil
}

// ToCandidate converts the record to the canonical shape
func (r IntSeverityRecord) ToCandidate() alerts.Candidate {
	return alerts.Candidate{
		SourceID:    r.ID,
		Title:       r.Title,
		Description: r.Description,
		Severity:    r.Severity,
		IPs:         r.IPs,
	}
}
