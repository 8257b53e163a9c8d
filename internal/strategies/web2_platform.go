package strategies

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/models"
)

// web2PlatformHandler plans article jobs on free publishing platforms.
type web2PlatformHandler struct {
	planner *planner
	logger  arbor.ILogger
}

func (h *web2PlatformHandler) Type() models.StrategyType {
	return models.StrategyWeb2Platform
}

func (h *web2PlatformHandler) Execute(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig) error {
	targets := targetsFromCatalog(web2PlatformCatalog, campaign.Config.Keywords)
	_, err := h.planner.enqueue(ctx, campaign, cfg, h.Type(), targets, "")
	return err
}
