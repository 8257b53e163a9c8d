package engine

import (
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// maxBodyContext bounds the extracted body passed to content generation.
const maxBodyContext = 2000

// Ordered structural selectors; first non-empty match wins.
var (
	titleSelectors = []string{
		"article h1",
		"h1.entry-title",
		"h1.post-title",
		"h1",
		"title",
	}

	bodySelectors = []string{
		"article .entry-content",
		".post-content",
		".entry-content",
		"article",
		"main",
		"body",
	}
)

// PageContext is the extracted generation context for one target page.
type PageContext struct {
	Title string
	Body  string
}

// ExtractContext pulls a title and a bounded body from rendered page HTML.
// The body is converted to markdown so generation sees prose, not markup.
// Extraction is best-effort; empty fields are acceptable.
func ExtractContext(html string) PageContext {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return PageContext{}
	}

	var pageCtx PageContext

	for _, selector := range titleSelectors {
		if text := strings.TrimSpace(doc.Find(selector).First().Text()); text != "" {
			pageCtx.Title = text
			break
		}
	}

	for _, selector := range bodySelectors {
		selection := doc.Find(selector).First()
		if selection.Length() == 0 {
			continue
		}
		bodyHTML, err := selection.Html()
		if err != nil || strings.TrimSpace(bodyHTML) == "" {
			continue
		}

		converter := md.NewConverter("", true, nil)
		markdown, err := converter.ConvertString(bodyHTML)
		if err != nil {
			markdown = strings.TrimSpace(selection.Text())
		}
		markdown = strings.TrimSpace(markdown)
		if markdown == "" {
			continue
		}
		if len(markdown) > maxBodyContext {
			// Back off to a rune boundary so a multi-byte character is
			// never split mid-sequence.
			cut := maxBodyContext
			for cut > 0 && !utf8.RuneStart(markdown[cut]) {
				cut--
			}
			markdown = markdown[:cut]
		}
		pageCtx.Body = markdown
		break
	}

	return pageCtx
}
