package api

import (
	"fmt"

	"github.com/k597/AlertsWebApi/internal/alerts"
	"github.com/k597/AlertsWebApi/internal/database"
)

// AlertToResponse converts a database Alert with preloaded links to an AlertResponse.
func AlertToResponse(a database.Alert) AlertResponse {
	return AlertResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Severity:    a.Severity,
		Count:       a.Count,
		IPAddresses: a.Addresses(),
	}
}

// AlertsToResponses converts a slice of database Alerts to responses.
func AlertsToResponses(list []database.Alert) []AlertResponse {
	items := make([]AlertResponse, len(list))
	for i, a := range list {
		items[i] = AlertToResponse(a)
	}
	return items
}

// ToCandidate turns a create request into the canonical merge input.
func (r AlertRequest) ToCandidate() alerts.Candidate {
	return alerts.Candidate{
		SourceID:    int(r.ID),
		Title:       r.Title,
		Description: r.Description,
		Severity:    r.Severity,
		IPs:         r.IPs,
	}
}

// ProcessedMessage renders the summary returned after an ingestion run.
func ProcessedMessage(processed int) string {
	return fmt.Sprintf("Alerts fetched and stored successfully. Total alerts processed: %d.", processed)
}
