package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/browser"
)

// PoolHandler exposes browser pool operations over HTTP.
type PoolHandler struct {
	pool   *browser.Manager
	logger arbor.ILogger
}

// NewPoolHandler creates the pool API handler.
func NewPoolHandler(pool *browser.Manager, logger arbor.ILogger) *PoolHandler {
	return &PoolHandler{pool: pool, logger: logger}
}

// StatsHandler handles GET /api/pool/stats.
func (h *PoolHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.pool.GetPoolStats())
}

// InstancesHandler handles GET /api/pool/instances.
func (h *PoolHandler) InstancesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	instances := h.pool.ListInstances()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(instances),
		"instances": instances,
	})
}

// InstanceRoutes dispatches POST /api/pool/instances/{campaignID}/{action}.
func (h *PoolHandler) InstanceRoutes(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/pool/instances/")
	campaignID, action, _ := strings.Cut(rest, "/")
	if campaignID == "" {
		WriteError(w, http.StatusNotFound, "campaign id required")
		return
	}

	switch action {
	case "create":
		name := r.URL.Query().Get("name")
		if name == "" {
			name = campaignID
		}
		if err := h.pool.CreateCampaignBrowser(r.Context(), campaignID, name); err != nil {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		WriteSuccess(w, "browser instance created")
	case "start":
		// The batch outlives the request.
		go func() {
			if err := h.pool.StartCampaignAutomation(context.Background(), campaignID); err != nil {
				h.logger.Warn().Err(err).Str("campaign_id", campaignID).Msg("Automation start failed")
			}
		}()
		WriteJSON(w, http.StatusAccepted, map[string]string{
			"status":  "started",
			"message": "automation batch started",
		})
	case "pause":
		if !h.pool.PauseCampaignAutomation(campaignID) {
			WriteError(w, http.StatusNotFound, "no pausable instance for campaign")
			return
		}
		WriteSuccess(w, "instance paused")
	case "resume":
		if !h.pool.ResumeCampaignAutomation(campaignID) {
			WriteError(w, http.StatusConflict, "instance is not paused")
			return
		}
		WriteSuccess(w, "instance resumed")
	case "close":
		if !h.pool.CloseCampaignBrowser(campaignID) {
			WriteError(w, http.StatusNotFound, "no instance for campaign")
			return
		}
		WriteSuccess(w, "instance closed")
	default:
		WriteError(w, http.StatusNotFound, "unknown pool action "+action)
	}
}
