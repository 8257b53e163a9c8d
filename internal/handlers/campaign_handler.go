package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
	"github.com/linkforge/linkforge/internal/scheduler"
)

// CampaignHandler exposes scheduler operations over HTTP.
type CampaignHandler struct {
	queue   *scheduler.QueueManager
	store   interfaces.CampaignStorage
	audit   interfaces.AuditStorage
	reports interfaces.ReportGenerator
	logger  arbor.ILogger
}

// NewCampaignHandler creates the campaign API handler.
func NewCampaignHandler(queue *scheduler.QueueManager, store interfaces.CampaignStorage, audit interfaces.AuditStorage, logger arbor.ILogger) *CampaignHandler {
	return &CampaignHandler{
		queue:  queue,
		store:  store,
		audit:  audit,
		logger: logger,
	}
}

// SetReportGenerator enables the on-demand report route.
func (h *CampaignHandler) SetReportGenerator(reports interfaces.ReportGenerator) {
	h.reports = reports
}

// enqueueRequest is the POST /api/campaigns body.
type enqueueRequest struct {
	OwnerID  string                `json:"owner_id"`
	Priority models.Priority       `json:"priority"`
	Config   models.CampaignConfig `json:"config"`
}

// EnqueueHandler handles POST /api/campaigns.
func (h *CampaignHandler) EnqueueHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.OwnerID == "" {
		req.OwnerID = "api"
	}

	campaignID, err := h.queue.Enqueue(r.Context(), req.Config, req.OwnerID, req.Priority)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"status":      "success",
		"campaign_id": campaignID,
	})
}

// ListHandler handles GET /api/campaigns.
func (h *CampaignHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var (
		campaigns []*models.QueuedCampaign
		err       error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		campaigns, err = h.store.ListCampaignsByStatus(r.Context(), models.CampaignStatus(status))
	} else {
		campaigns, err = h.store.ListCampaigns(r.Context())
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list campaigns: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(campaigns),
		"campaigns": campaigns,
	})
}

// StatsHandler handles GET /api/campaigns/stats.
func (h *CampaignHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := h.queue.GetQueueStats(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to collect stats: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"queue": stats,
		"nodes": h.queue.Nodes(),
	})
}

// CampaignRoutes dispatches /api/campaigns/{id} and its sub-paths.
func (h *CampaignHandler) CampaignRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/campaigns/")
	if rest == "" {
		WriteError(w, http.StatusNotFound, "campaign id required")
		return
	}

	campaignID, action, _ := strings.Cut(rest, "/")

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.getCampaign(w, r, campaignID)
		case http.MethodDelete:
			h.deleteCampaign(w, r, campaignID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "pause":
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		if !h.queue.PauseCampaign(r.Context(), campaignID) {
			WriteError(w, http.StatusNotFound, "campaign not found")
			return
		}
		WriteSuccess(w, "campaign paused")
	case "resume":
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		if !h.queue.ResumeCampaign(r.Context(), campaignID) {
			WriteError(w, http.StatusConflict, "campaign is not paused")
			return
		}
		WriteSuccess(w, "campaign resumed")
	case "audit":
		if !RequireMethod(w, r, http.MethodGet) {
			return
		}
		h.getAudit(w, r, campaignID)
	case "report":
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		h.generateReport(w, r, campaignID)
	default:
		WriteError(w, http.StatusNotFound, "unknown campaign action "+action)
	}
}

func (h *CampaignHandler) getCampaign(w http.ResponseWriter, r *http.Request, campaignID string) {
	campaign := h.queue.GetStatus(r.Context(), campaignID)
	if campaign == nil {
		WriteError(w, http.StatusNotFound, "campaign not found")
		return
	}
	WriteJSON(w, http.StatusOK, campaign)
}

func (h *CampaignHandler) deleteCampaign(w http.ResponseWriter, r *http.Request, campaignID string) {
	force := r.URL.Query().Get("force") == "true"

	result := h.queue.DeleteCampaign(r.Context(), campaignID, force)
	status := http.StatusOK
	if !result.Success {
		// Refused deletions carry warnings; genuinely missing campaigns do not.
		if len(result.Warnings) > 0 {
			status = http.StatusConflict
		} else {
			status = http.StatusNotFound
		}
	}
	WriteJSON(w, status, result)
}

func (h *CampaignHandler) generateReport(w http.ResponseWriter, r *http.Request, campaignID string) {
	if h.reports == nil {
		WriteError(w, http.StatusNotImplemented, "report generation is not configured")
		return
	}

	campaign := h.queue.GetStatus(r.Context(), campaignID)
	if campaign == nil {
		WriteError(w, http.StatusNotFound, "campaign not found")
		return
	}

	path, err := h.reports.GenerateCompletionReport(r.Context(), campaign)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to generate report: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":      "success",
		"campaign_id": campaignID,
		"report":      path,
	})
}

func (h *CampaignHandler) getAudit(w http.ResponseWriter, r *http.Request, campaignID string) {
	entries, err := h.audit.ListAudit(r.Context(), campaignID, 100)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list audit entries: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_id": campaignID,
		"entries":     entries,
	})
}
