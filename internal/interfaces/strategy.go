package interfaces

import (
	"context"

	"github.com/linkforge/linkforge/internal/models"
)

// StrategyHandler executes one unit of campaign work for one strategy type.
// Handlers are independent and order-insensitive; sequential execution is
// imposed by the campaign processor, not the handlers.
type StrategyHandler interface {
	Type() models.StrategyType
	Execute(ctx context.Context, campaign *models.QueuedCampaign, cfg models.StrategyConfig) error
}

// StrategyResolver maps a strategy tag to its handler.
type StrategyResolver interface {
	// HandlerFor returns the handler for the given tag, or an error for
	// unknown tags.
	HandlerFor(strategyType models.StrategyType) (StrategyHandler, error)
}
