package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/k597/AlertsWebApi/internal/api"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

const healthCheckTimeout = 2 * time.Second

// PingFunc reports whether a dependency is reachable
type PingFunc func(ctx context.Context) error

// HTTPHandler serves /health and /metrics
type HTTPHandler struct {
	pingDB  PingFunc
	metrics http.Handler
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// NewHTTPHandler creates the operational handler. A nil pingDB reports the
// database as "unchecked".
func NewHTTPHandler(pingDB PingFunc) *HTTPHandler {
	return &HTTPHandler{
		pingDB:  pingDB,
		metrics: promhttp.Handler(),
	}
}

func (h *HTTPHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", h.metrics)
}

// handleHealth answers 503 while the database is unreachable
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: Version, Database: "unchecked"}
	status := http.StatusOK

	if h.pingDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.pingDB(ctx); err != nil {
			log.Printf("HTTPHandler: Database health check failed: %v", err)
			resp.Status, resp.Database = "degraded", "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}
	api.RespondJSON(w, status, resp)
}
