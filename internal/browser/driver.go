package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/linkforge/linkforge/internal/interfaces"
)

// Driver is the chromedp-backed PageDriver. One driver wraps one browser
// context; all operations run against its current page.
type Driver struct {
	browserCtx      context.Context
	navigateTimeout time.Duration
}

// NewDriver wraps an existing chromedp browser context.
func NewDriver(browserCtx context.Context, navigateTimeout time.Duration) *Driver {
	if navigateTimeout <= 0 {
		navigateTimeout = 30 * time.Second
	}
	return &Driver{browserCtx: browserCtx, navigateTimeout: navigateTimeout}
}

func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.browserCtx, d.navigateTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}

func (d *Driver) HTML(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

func (d *Driver) ExtractText(ctx context.Context, selector string) (string, error) {
	var text string
	err := d.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.AtLeast(0)))
	if err != nil {
		return "", fmt.Errorf("extract text %q: %w", selector, err)
	}
	return text, nil
}

func (d *Driver) FillInput(ctx context.Context, selector, value string) error {
	if err := d.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("fill input %q: %w", selector, err)
	}
	return nil
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	if err := d.run(ctx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// sessionCookie is the persisted subset of a browser cookie. Stored as JSON
// in Account.SessionBlob.
type sessionCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"http_only"`
}

func (d *Driver) Cookies(ctx context.Context) (string, error) {
	var cookies []*network.Cookie
	err := d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("read cookies: %w", err)
	}

	session := make([]sessionCookie, 0, len(cookies))
	for _, c := range cookies {
		session = append(session, sessionCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}

	blob, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("serialize cookies: %w", err)
	}
	return string(blob), nil
}

func (d *Driver) RestoreCookies(ctx context.Context, blob string) error {
	if blob == "" {
		return nil
	}

	var session []sessionCookie
	if err := json.Unmarshal([]byte(blob), &session); err != nil {
		return fmt.Errorf("parse session blob: %w", err)
	}

	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range session {
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("restore cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
}

var _ interfaces.PageDriver = (*Driver)(nil)
