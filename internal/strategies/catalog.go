package strategies

import (
	"fmt"
	"net/url"
	"strings"
)

// catalogSite is one curated target source: a URL template with a %s slot
// for the keyword, and a rough authority rating used against the strategy's
// quality threshold.
type catalogSite struct {
	urlTemplate string
	authority   int
}

// target is a planned submission destination for one keyword.
type target struct {
	pageURL   string
	keyword   string
	authority int
}

// Curated per-strategy source catalogs. Authority ratings are coarse
// domain-level estimates; the planner filters them against each campaign's
// quality threshold.
var (
	blogCommentCatalog = []catalogSite{
		{"https://wordpress.com/tag/%s", 72},
		{"https://medium.com/tag/%s", 78},
		{"https://www.blogger.com/search?q=%s", 65},
		{"https://dev.to/t/%s", 70},
		{"https://hashnode.com/n/%s", 58},
	}

	forumProfileCatalog = []catalogSite{
		{"https://www.reddit.com/search/?q=%s", 80},
		{"https://forum.wordpress.org/search/%s", 68},
		{"https://community.spiceworks.com/search?q=%s", 55},
		{"https://www.quora.com/search?q=%s", 74},
	}

	web2PlatformCatalog = []catalogSite{
		{"https://wordpress.com/start?topic=%s", 72},
		{"https://www.blogger.com/about/?topic=%s", 65},
		{"https://www.tumblr.com/search/%s", 66},
		{"https://medium.com/new-story?tag=%s", 78},
	}

	socialProfileCatalog = []catalogSite{
		{"https://about.me/signup?interest=%s", 60},
		{"https://linktr.ee/s/discover/%s", 58},
		{"https://www.pinterest.com/search/pins/?q=%s", 76},
	}

	contactFormCatalog = []catalogSite{
		{"https://www.google.com/search?q=%%22contact+us%%22+%s", 50},
		{"https://www.bing.com/search?q=%%22write+for+us%%22+%s", 50},
	}

	guestPostCatalog = []catalogSite{
		{"https://www.google.com/search?q=%%22guest+post+guidelines%%22+%s", 55},
		{"https://medium.com/search?q=publication+%s", 78},
		{"https://dev.to/search?q=%s", 70},
	}

	brokenLinkCatalog = []catalogSite{
		{"https://www.google.com/search?q=%%22resources%%22+%%22links%%22+%s", 52},
		{"https://web.archive.org/web/*/%s", 60},
	}
)

// targetsFromCatalog expands a catalog across the campaign's keywords.
// Targets come out catalog-major so higher-authority sources are planned
// first for every keyword.
func targetsFromCatalog(catalog []catalogSite, keywords []string) []target {
	targets := make([]target, 0, len(catalog)*len(keywords))
	for _, site := range catalog {
		for _, keyword := range keywords {
			slug := url.QueryEscape(strings.TrimSpace(keyword))
			if slug == "" {
				continue
			}
			targets = append(targets, target{
				pageURL:   fmt.Sprintf(site.urlTemplate, slug),
				keyword:   keyword,
				authority: site.authority,
			})
		}
	}
	return targets
}
