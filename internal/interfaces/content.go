package interfaces

import "context"

// ContentRequest carries the extracted page context and campaign inputs
// for contextual content generation.
type ContentRequest struct {
	// PageTitle and PageBody are the extracted context from the target page.
	// PageBody is pre-truncated to the generation context window.
	PageTitle string
	PageBody  string

	Keyword    string
	TargetURL  string
	AnchorText string

	Tone      string
	Language  string
	MaxLength int
}

// ContentGenerator produces contextual comment text for a target page.
// Implementations call an external text-generation service; callers must
// treat failures as recoverable and fall back to templated content.
type ContentGenerator interface {
	// GenerateComment returns comment text that references the keyword and
	// embeds the target link naturally.
	GenerateComment(ctx context.Context, req ContentRequest) (string, error)

	// Name identifies the provider ("claude", "gemini", "template").
	Name() string
}
