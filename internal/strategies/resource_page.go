package strategies

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/models"
)

// resourcePageHandler plans inclusion-request jobs against curated link
// lists. Live lists come from discovery; without a discovery client the
// handler falls back to the static catalog.
type resourcePageHandler struct {
	planner   *planner
	discovery *TargetDiscovery
	logger    arbor.ILogger
}

func (h *resourcePageHandler) Type() models.StrategyType {
	return models.StrategyResourcePage
}

func (h *resourcePageHandler) Execute(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig) error {
	limit := jobLimit(campaign, cfg)

	var targets []target
	if h.discovery != nil {
		for _, keyword := range campaign.Config.Keywords {
			found, err := h.discovery.SearchResourcePages(ctx, keyword, limit)
			if err != nil {
				h.logger.Warn().Err(err).Str("keyword", keyword).Msg("Resource page discovery failed")
				continue
			}
			targets = append(targets, found...)
		}
	}
	if len(targets) == 0 {
		targets = targetsFromCatalog(brokenLinkCatalog, campaign.Config.Keywords)
	}

	_, err := h.planner.enqueue(ctx, campaign, cfg, h.Type(), targets, "")
	return err
}
