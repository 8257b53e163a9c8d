package strategies

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/models"
)

// brokenLinkHandler plans replacement-suggestion jobs: find resource pages
// with dead outbound links and offer the campaign target as a substitute.
// Dead-link verification happens in the engine against the live page.
type brokenLinkHandler struct {
	planner *planner
	logger  arbor.ILogger
}

func (h *brokenLinkHandler) Type() models.StrategyType {
	return models.StrategyBrokenLink
}

func (h *brokenLinkHandler) Execute(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig) error {
	targets := targetsFromCatalog(brokenLinkCatalog, campaign.Config.Keywords)
	_, err := h.planner.enqueue(ctx, campaign, cfg, h.Type(), targets, "")
	return err
}
