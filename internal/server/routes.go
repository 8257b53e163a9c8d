package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket event stream
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// Campaigns
	mux.HandleFunc("/api/campaigns", s.handleCampaignsRoute)
	mux.HandleFunc("/api/campaigns/stats", s.app.CampaignHandler.StatsHandler)
	mux.HandleFunc("/api/campaigns/", s.app.CampaignHandler.CampaignRoutes) // GET/DELETE /{id}, POST /{id}/pause|resume, GET /{id}/audit

	// Browser pool
	mux.HandleFunc("/api/pool/stats", s.app.PoolHandler.StatsHandler)
	mux.HandleFunc("/api/pool/instances", s.app.PoolHandler.InstancesHandler)
	mux.HandleFunc("/api/pool/instances/", s.app.PoolHandler.InstanceRoutes) // POST /{campaignID}/create|start|pause|resume|close

	// System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleCampaignsRoute routes /api/campaigns (list and enqueue).
func (s *Server) handleCampaignsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.CampaignHandler.ListHandler(w, r)
	case http.MethodPost:
		s.app.CampaignHandler.EnqueueHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
