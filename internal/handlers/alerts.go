package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/k597/AlertsWebApi/internal/alerts"
	"github.com/k597/AlertsWebApi/internal/api"
	"github.com/k597/AlertsWebApi/internal/database"
	"github.com/k597/AlertsWebApi/internal/feed"
	"github.com/k597/AlertsWebApi/internal/middleware"
	"github.com/k597/AlertsWebApi/internal/services"
	"github.com/k597/AlertsWebApi/internal/utils"
)

// AlertStore is the alert service surface the handler needs
type AlertStore interface {
	MergeAlert(ctx context.Context, candidate alerts.Candidate) (*database.Alert, error)
	UpdateAlert(ctx context.Context, id uint, title, description string, ips []string) (*database.Alert, error)
	DeleteAlert(ctx context.Context, id uint) (bool, error)
	GetAlert(ctx context.Context, id uint) (*database.Alert, error)
	ListAlerts(ctx context.Context, offset, limit int) ([]database.Alert, int64, error)
	Statistics(ctx context.Context) (*database.Statistics, error)
}

// FeedRunner is the ingestion service surface the handler needs
type FeedRunner interface {
	Feeds() []string
	Ingest(ctx context.Context, name string, pageSize, startPage int) (int, error)
	FetchPage(ctx context.Context, name string, pageSize, pageNo int) (interface{}, *feed.Pagination, error)
}

// AlertsHandler serves the /api/alerts resource and the feed endpoints
type AlertsHandler struct {
	alerts AlertStore
	feeds  FeedRunner
}

// NewAlertsHandler creates a new alerts handler
func NewAlertsHandler(alertStore AlertStore, feeds FeedRunner) *AlertsHandler {
	return &AlertsHandler{
		alerts: alertStore,
		feeds:  feeds,
	}
}

// SetupRoutes registers the alert routes plus one passthrough and one
// ingestion route per registered feed
func (h *AlertsHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/alerts", h.handleListAlerts)
	mux.HandleFunc("POST /api/alerts", h.handleCreateAlert)
	mux.HandleFunc("GET /api/alerts/statistics", h.handleStatistics)
	mux.HandleFunc("GET /api/alerts/{id}", h.handleGetAlert)
	mux.HandleFunc("PUT /api/alerts/{id}", h.handleUpdateAlert)
	mux.HandleFunc("DELETE /api/alerts/{id}", h.handleDeleteAlert)

	if h.feeds == nil {
		return
	}
	for _, name := range h.feeds.Feeds() {
		mux.HandleFunc("GET /api/alerts/external-alerts-"+name, h.feedPageHandler(name))
		mux.HandleFunc("POST /api/alerts/process-external-alerts-"+name, h.processFeedHandler(name))
	}
}

func (h *AlertsHandler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	params, paged := api.ParsePagination(r)

	offset, limit := 0, -1
	if paged {
		offset, limit = params.Offset(), params.PerPage
	}

	list, total, err := h.alerts.ListAlerts(r.Context(), offset, limit)
	if err != nil {
		log.Printf("AlertsHandler: Error listing alerts: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}

	items := api.AlertsToResponses(list)
	if !paged {
		api.RespondJSON(w, http.StatusOK, items)
		return
	}

	api.RespondJSON(w, http.StatusOK, api.PaginatedResponse{
		Data: items,
		Pagination: api.PaginationMeta{
			Page:       params.Page,
			PerPage:    params.PerPage,
			Total:      total,
			TotalPages: params.TotalPages(total),
		},
	})
}

func (h *AlertsHandler) handleGetAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	alert, err := h.alerts.GetAlert(r.Context(), id)
	if err != nil {
		h.respondAlertError(w, r, id, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, api.AlertToResponse(*alert))
}

func (h *AlertsHandler) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req api.AlertRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}

	alert, err := h.alerts.MergeAlert(r.Context(), req.ToCandidate())
	if err != nil {
		log.Printf("AlertsHandler: Error merging alert '%s' (request %s): %v", utils.EscapeForLogging(req.Title, 120), middleware.GetRequestID(r.Context()), err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to store alert")
		return
	}
	api.RespondJSON(w, http.StatusCreated, api.AlertToResponse(*alert))
}

func (h *AlertsHandler) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	var req api.AlertRequest
	if !api.DecodeAndValidate(w, r, &req) {
		return
	}
	if req.ID != id {
		api.RespondErrorWithCode(w, http.StatusBadRequest, api.CodeIDMismatch, "Alert ID in body does not match the URL")
		return
	}

	if _, err := h.alerts.UpdateAlert(r.Context(), id, req.Title, req.Description, req.IPs); err != nil {
		h.respondAlertError(w, r, id, err)
		return
	}
	api.RespondNoContent(w)
}

func (h *AlertsHandler) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := alertID(w, r)
	if !ok {
		return
	}

	deleted, err := h.alerts.DeleteAlert(r.Context(), id)
	if err != nil {
		h.respondAlertError(w, r, id, err)
		return
	}
	if !deleted {
		api.RespondErrorWithCode(w, http.StatusNotFound, api.CodeNotFound, "Alert not found")
		return
	}
	api.RespondNoContent(w)
}

func (h *AlertsHandler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.alerts.Statistics(r.Context())
	if err != nil {
		log.Printf("AlertsHandler: Error computing statistics: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}
	api.RespondJSON(w, http.StatusOK, stats)
}

// feedPageHandler relays one page of the named feed unchanged, with the
// feed's pagination metadata in the X-Pagination header
func (h *AlertsHandler) feedPageHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paging := api.ParseFeedPaging(r)

		records, pagination, err := h.feeds.FetchPage(r.Context(), name, paging.PageSize, paging.PageNo)
		if err != nil {
			log.Printf("AlertsHandler: Error fetching page %d of feed %s: %v", paging.PageNo, name, err)
			h.respondFeedError(w, err)
			return
		}

		if pagination != nil {
			if header, err := json.Marshal(pagination); err == nil {
				w.Header().Set(feed.PaginationHeader, string(header))
			}
		}
		api.RespondJSON(w, http.StatusOK, records)
	}
}

// processFeedHandler ingests the named feed starting at pageNo
func (h *AlertsHandler) processFeedHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paging := api.ParseFeedPaging(r)

		processed, err := h.feeds.Ingest(r.Context(), name, paging.PageSize, paging.PageNo)
		if err != nil {
			log.Printf("AlertsHandler: Ingestion of feed %s stopped after %d alert(s): %v", name, processed, err)
			if errors.Is(err, services.ErrUnknownFeed) {
				h.respondFeedError(w, err)
				return
			}
			status, code := upstreamStatus(err), api.CodeUpstreamFailed
			if status != http.StatusBadGateway {
				code = api.CodeIngestionFailed
			}
			api.RespondErrorWithDetails(w, status, code, err.Error(), map[string]string{
				"processed": strconv.Itoa(processed),
			})
			return
		}

		api.RespondJSON(w, http.StatusOK, api.ProcessFeedResponse{
			Message:   api.ProcessedMessage(processed),
			Processed: processed,
		})
	}
}

func (h *AlertsHandler) respondAlertError(w http.ResponseWriter, r *http.Request, id uint, err error) {
	switch {
	case errors.Is(err, services.ErrAlertNotFound):
		api.RespondErrorWithCode(w, http.StatusNotFound, api.CodeNotFound, "Alert not found")
	case errors.Is(err, services.ErrAlertConflict):
		api.RespondErrorWithCode(w, http.StatusConflict, api.CodeConflict, "Another alert already has this title, description and severity")
	default:
		log.Printf("AlertsHandler: Error handling alert %d (request %s): %v", id, middleware.GetRequestID(r.Context()), err)
		api.RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *AlertsHandler) respondFeedError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrUnknownFeed) {
		api.RespondErrorWithCode(w, http.StatusNotFound, api.CodeUnknownFeed, err.Error())
		return
	}
	api.RespondErrorWithCode(w, upstreamStatus(err), api.CodeUpstreamFailed, "Failed to fetch feed page")
}

// upstreamStatus is 502 for failures talking to the feed and 500 for the rest
func upstreamStatus(err error) int {
	var statusErr *feed.StatusError
	if errors.As(err, &statusErr) || errors.Is(err, feed.ErrTransport) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// alertID parses the {id} path value, writing a 400 when it is not a positive integer
func alertID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		api.RespondError(w, http.StatusBadRequest, "Invalid alert ID")
		return 0, false
	}
	return uint(id), true
}
