package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/common"
	"github.com/linkforge/linkforge/internal/interfaces"
)

// APIHandler serves system-level endpoints.
type APIHandler struct {
	campaigns interfaces.CampaignStorage
	logger    arbor.ILogger
	started   time.Time
}

// NewAPIHandler creates the system API handler.
func NewAPIHandler(campaigns interfaces.CampaignStorage, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		campaigns: campaigns,
		logger:    logger,
		started:   time.Now(),
	}
}

// VersionHandler handles GET /api/version.
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"name":    "linkforge",
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
	})
}

// HealthHandler handles GET /api/health. The check pings the campaign store,
// the same probe processing nodes use.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status := "healthy"
	code := http.StatusOK
	if err := h.campaigns.Ping(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Health check storage ping failed")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	WriteJSON(w, code, map[string]interface{}{
		"status": status,
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// NotFoundHandler is the fallback for unmatched /api/ routes.
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "unknown API route "+r.URL.Path)
}
