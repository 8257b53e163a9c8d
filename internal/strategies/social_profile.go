package strategies

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// socialProfileHandler plans social profile jobs with a drafted bio payload.
type socialProfileHandler struct {
	planner *planner
	content interfaces.ContentGenerator
	logger  arbor.ILogger
}

func (h *socialProfileHandler) Type() models.StrategyType {
	return models.StrategySocialProfile
}

func (h *socialProfileHandler) Execute(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig) error {
	bio := generateOrTemplate(ctx, h.content, interfaces.ContentRequest{
		Keyword:   campaign.Config.Keywords[0],
		TargetURL: campaign.Config.TargetURL,
		Tone:      campaign.Config.Content.Tone,
		Language:  campaign.Config.Content.Language,
		MaxLength: campaign.Config.Content.MaxLength,
	}, h.logger)

	targets := targetsFromCatalog(socialProfileCatalog, campaign.Config.Keywords)
	_, err := h.planner.enqueue(ctx, campaign, cfg, h.Type(), targets, bio)
	return err
}
