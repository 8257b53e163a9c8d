package strategies

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// guestPostHandler drafts a markdown pitch, renders it to HTML, and plans
// outreach jobs carrying the rendered pitch as payload.
type guestPostHandler struct {
	planner *planner
	content interfaces.ContentGenerator
	logger  arbor.ILogger
}

func (h *guestPostHandler) Type() models.StrategyType {
	return models.StrategyGuestPost
}

func (h *guestPostHandler) Execute(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig) error {
	pitch, err := h.draftPitch(ctx, campaign, cfg)
	if err != nil {
		return err
	}

	targets := targetsFromCatalog(guestPostCatalog, campaign.Config.Keywords)
	_, err = h.planner.enqueue(ctx, campaign, cfg, h.Type(), targets, pitch)
	return err
}

// draftPitch builds the outreach pitch as markdown and renders it to HTML
// for form submission.
func (h *guestPostHandler) draftPitch(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig) (string, error) {
	keyword := campaign.Config.Keywords[0]
	summary := generateOrTemplate(ctx, h.content, interfaces.ContentRequest{
		Keyword:   keyword,
		TargetURL: campaign.Config.TargetURL,
		Tone:      campaign.Config.Content.Tone,
		Language:  campaign.Config.Content.Language,
		MaxLength: campaign.Config.Content.MaxLength,
	}, h.logger)

	markdown := fmt.Sprintf(
		"## Guest post proposal: %s\n\n%s\n\nProposed topic: **%s**\n\nReference: [%s](%s)\n",
		campaign.Config.Name, summary, keyword, keyword, campaign.Config.TargetURL,
	)
	if cfg.Instructions != "" {
		markdown += "\n> " + cfg.Instructions + "\n"
	}

	var rendered bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &rendered); err != nil {
		return "", fmt.Errorf("render pitch: %w", err)
	}
	return rendered.String(), nil
}
