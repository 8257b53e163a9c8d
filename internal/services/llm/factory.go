package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/common"
	"github.com/linkforge/linkforge/internal/interfaces"
)

// NewContentGenerator creates the configured provider. A missing API key
// degrades to the template generator so automation keeps running; an
// unknown provider is a configuration error.
func NewContentGenerator(ctx context.Context, cfg *common.Config, logger arbor.ILogger) (interfaces.ContentGenerator, error) {
	switch cfg.LLM.Provider {
	case "claude":
		if cfg.Claude.APIKey == "" {
			logger.Warn().Msg("No Anthropic API key configured, using template content generator")
			return NewTemplateService(), nil
		}
		return NewClaudeService(cfg.Claude, logger)

	case "gemini":
		if cfg.Gemini.APIKey == "" {
			logger.Warn().Msg("No Gemini API key configured, using template content generator")
			return NewTemplateService(), nil
		}
		return NewGeminiService(ctx, cfg.Gemini, logger)

	default:
		return nil, fmt.Errorf("unknown llm provider %q (want claude or gemini)", cfg.LLM.Provider)
	}
}
