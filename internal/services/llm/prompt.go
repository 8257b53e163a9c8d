package llm

import (
	"fmt"
	"strings"

	"github.com/linkforge/linkforge/internal/interfaces"
)

const systemPrompt = "You write short, natural blog comments. The comment must engage with the " +
	"page content, mention the given keyword once, and include the target link " +
	"unobtrusively. Never sound promotional. Reply with the comment text only."

// buildPrompt renders one generation request into a user prompt.
func buildPrompt(req interfaces.ContentRequest) string {
	var b strings.Builder

	if req.PageTitle != "" {
		fmt.Fprintf(&b, "Page title: %s\n", req.PageTitle)
	}
	if req.PageBody != "" {
		fmt.Fprintf(&b, "Page content:\n%s\n\n", req.PageBody)
	}
	fmt.Fprintf(&b, "Keyword: %s\n", req.Keyword)
	fmt.Fprintf(&b, "Link to include: %s\n", req.TargetURL)
	if req.AnchorText != "" {
		fmt.Fprintf(&b, "Preferred anchor text: %s\n", req.AnchorText)
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}
	if req.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", req.Language)
	}
	if req.MaxLength > 0 {
		fmt.Fprintf(&b, "Maximum length: %d characters\n", req.MaxLength)
	}

	b.WriteString("\nWrite the comment.")
	return b.String()
}
