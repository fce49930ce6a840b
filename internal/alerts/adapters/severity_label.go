package adapters

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/k597/AlertsWebApi/internal/alerts"
)

// LabelSeverityRecord is a feed record whose severity is a text label
// such as "very low", "low", "medium" or "high"
type LabelSeverityRecord struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	IPs         []string `json:"ips"`
}

// LabelSeverityAdapter handles feeds carrying string severities ("shape B")
type LabelSeverityAdapter struct {
	alerts.BaseAdapter
}

// NewLabelSeverityAdapter creates an adapter for a label-severity feed at path
func NewLabelSeverityAdapter(name, path string) *LabelSeverityAdapter {
	return &LabelSeverityAdapter{
		BaseAdapter: alerts.BaseAdapter{SourceType: name, Path: path},
	}
}

// DecodeRecords parses a page body into native records.
// An empty body decodes like JSON null.
func (a *LabelSeverityAdapter) DecodeRecords(body []byte) ([]LabelSeverityRecord, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var records []LabelSeverityRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s feed page: %w", a.SourceType, err)
	}
	return records, nil
}

// DecodeNative parses a page body into native records, never returning a nil slice
func (a *LabelSeverityAdapter) DecodeNative(body []byte) (interface{}, error) {
	records, err := a.DecodeRecords(body)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []LabelSeverityRecord{}
	}
	return records, nil
}

// Decode parses a page body into candidates
func (a *LabelSeverityAdapter) Decode(body []byte) ([]alerts.Candidate, error) {
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

// ToCandidate converts the record to the canonical shape, mapping the label
// through alerts.SeverityFromLabel
func (r LabelSeverityRecord) ToCandidate() alerts.Candidate {
	return alerts.Candidate{
		SourceID:    r.ID,
		Title:       r.Title,
		Description: r.Description,
		Severity:    alerts.SeverityFromLabel(r.Severity),
		IPs:         r.IPs,
	}
}
