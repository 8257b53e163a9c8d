package interfaces

import "context"

// PageDriver abstracts the browser automation primitive so the concrete
// engine is swappable and DOM interaction can be faked in unit tests.
//
// All methods operate on the driver's current page; Navigate replaces it.
type PageDriver interface {
	// Navigate loads the given URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// HTML returns the rendered document markup.
	HTML(ctx context.Context) (string, error)

	// ExtractText returns the visible text of the first node matching the
	// selector, or an empty string if no node matches.
	ExtractText(ctx context.Context, selector string) (string, error)

	// FillInput sets the value of the first form control matching the selector.
	FillInput(ctx context.Context, selector, value string) error

	// Click invokes the first element matching the selector.
	Click(ctx context.Context, selector string) error

	// Cookies serializes the current session cookies to a persistable blob.
	Cookies(ctx context.Context) (string, error)

	// RestoreCookies loads a previously serialized session blob.
	RestoreCookies(ctx context.Context, blob string) error
}
