package strategies

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/interfaces"
	"github.com/linkforge/linkforge/internal/models"
)

// Deps carries the collaborators shared across strategy handlers.
type Deps struct {
	Jobs      interfaces.JobStorage
	Content   interfaces.ContentGenerator
	Events    interfaces.EventService
	Discovery *TargetDiscovery
	Logger    arbor.ILogger
}

// Factory maps strategy tags to handlers. The set is closed: all eight
// handlers are registered at construction.
type Factory struct {
	handlers map[models.StrategyType]interfaces.StrategyHandler
}

// NewFactory registers a handler for every strategy type.
func NewFactory(deps Deps) *Factory {
	p := newPlanner(deps.Jobs, deps.Events, deps.Logger)

	f := &Factory{handlers: make(map[models.StrategyType]interfaces.StrategyHandler)}
	f.register(&blogCommentHandler{planner: p, logger: deps.Logger})
	f.register(&forumProfileHandler{planner: p, content: deps.Content, logger: deps.Logger})
	f.register(&web2PlatformHandler{planner: p, logger: deps.Logger})
	f.register(&socialProfileHandler{planner: p, content: deps.Content, logger: deps.Logger})
	f.register(&contactFormHandler{planner: p, content: deps.Content, logger: deps.Logger})
	f.register(&guestPostHandler{planner: p, content: deps.Content, logger: deps.Logger})
	f.register(&resourcePageHandler{planner: p, discovery: deps.Discovery, logger: deps.Logger})
	f.register(&brokenLinkHandler{planner: p, logger: deps.Logger})
	return f
}

func (f *Factory) register(handler interfaces.StrategyHandler) {
	f.handlers[handler.Type()] = handler
}

// HandlerFor returns the handler for a strategy tag.
func (f *Factory) HandlerFor(strategyType models.StrategyType) (interfaces.StrategyHandler, error) {
	handler, ok := f.handlers[strategyType]
	if !ok {
		return nil, fmt.Errorf("no handler registered for strategy %q", strategyType)
	}
	return handler, nil
}

var _ interfaces.StrategyResolver = (*Factory)(nil)
