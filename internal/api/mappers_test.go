package api

import (
	"testing"

	"github.com/k597/AlertsWebApi/internal/database"
)

func TestAlertToResponse(t *testing.T) {
	alert := database.Alert{
		ID:          4,
		Title:       "Brute force",
		Description: "SSH",
		Severity:    3,
		Count:       7,
		IPLinks: []database.AlertIPAddress{
			{AlertID: 4, IPAddressID: 1, IPAddress: &database.IPAddress{ID: 1, Address: "10.0.0.1"}},
			{AlertID: 4, IPAddressID: 2, IPAddress: &database.IPAddress{ID: 2, Address: "8.8.8.8"}},
		},
	}

	resp := AlertToResponse(alert)
	if resp.ID != 4 || resp.Count != 7 || resp.Severity != 3 {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.IPAddresses) != 2 || resp.IPAddresses[1] != "8.8.8.8" {
		t.Errorf("IPAddresses = %v", resp.IPAddresses)
	}
}

func TestAlertsToResponses_Empty(t *testing.T) {
	items := AlertsToResponses(nil)
	if items == nil || len(items) != 0 {
		t.Errorf("items = %#v, want empty non-nil slice", items)
	}
}

func TestAlertRequest_ToCandidate(t *testing.T) {
	req := AlertRequest{ID: 9, Title: "t", Description: "d", Severity: -1, IPs: []string{"1.1.1.1"}}
	c := req.ToCandidate()
	if c.SourceID != 9 || c.Title != "t" || c.Severity != -1 || len(c.IPs) != 1 {
		t.Errorf("candidate = %+v", c)
	}
}

func TestProcessedMessage(t *testing.T) {
	want := "Alerts fetched and stored successfully. Total alerts processed: 12."
	if got := ProcessedMessage(12); got != want {
		t.Errorf("ProcessedMessage() = %q, want %q", got, want)
	}
}
