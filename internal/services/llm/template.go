package llm

import (
	"context"
	"fmt"

	"github.com/linkforge/linkforge/internal/interfaces"
)

// TemplateService is the deterministic fallback generator used when no
// provider is configured or a provider call fails upstream.
type TemplateService struct{}

func NewTemplateService() *TemplateService { return &TemplateService{} }

func (s *TemplateService) Name() string { return "template" }

func (s *TemplateService) GenerateComment(_ context.Context, req interfaces.ContentRequest) (string, error) {
	if req.PageTitle != "" {
		return fmt.Sprintf("Enjoyed reading %q. For anyone digging deeper into %s, this is a useful reference: %s",
			req.PageTitle, req.Keyword, req.TargetURL), nil
	}
	return fmt.Sprintf("Interesting perspective on %s. A related resource worth a look: %s",
		req.Keyword, req.TargetURL), nil
}

var _ interfaces.ContentGenerator = (*TemplateService)(nil)
