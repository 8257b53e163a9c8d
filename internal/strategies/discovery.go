package strategies

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// TargetDiscovery finds live resource pages for the resource-page and
// broken-link strategies by searching curated link lists on GitHub.
type TargetDiscovery struct {
	client *github.Client
}

// NewTargetDiscovery builds a discovery client. An empty token uses
// unauthenticated requests with their lower rate limits.
func NewTargetDiscovery(token string) *TargetDiscovery {
	if token == "" {
		return &TargetDiscovery{client: github.NewClient(nil)}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &TargetDiscovery{client: github.NewClient(tc)}
}

// SearchResourcePages returns repository pages for curated "awesome" style
// link lists matching the keyword, best matches first.
func (d *TargetDiscovery) SearchResourcePages(ctx context.Context, keyword string, limit int) ([]target, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf("awesome %s in:name,description", keyword)
	result, _, err := d.client.Search.Repositories(ctx, query, &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: limit},
	})
	if err != nil {
		return nil, fmt.Errorf("search resource pages for %q: %w", keyword, err)
	}

	targets := make([]target, 0, len(result.Repositories))
	for _, repo := range result.Repositories {
		if repo.GetHTMLURL() == "" {
			continue
		}
		// Star count stands in for authority, capped at 100.
		authority := repo.GetStargazersCount() / 100
		if authority > 100 {
			authority = 100
		}
		targets = append(targets, target{
			pageURL:   repo.GetHTMLURL(),
			keyword:   keyword,
			authority: authority,
		})
	}
	return targets, nil
}
