// Package browser drives a single Chrome session through the chromedp
// protocol. Exactly one session exists per run; all navigation and DOM
// operations are serialized through it.
package browser

import (
	"context"
	"time"
)

// TargetInfo describes one open page handle (tab or window) in the session.
type TargetInfo struct {
	ID    string
	URL   string
	Title string
}

// Session is the surface the collection engine needs from a live browser.
// Implementations must keep the main handle fixed for the session's lifetime;
// any other handle is transient.
type Session interface {
	// Navigate loads a URL in the main handle.
	Navigate(ctx context.Context, url string) error

	// ClickVisible waits up to timeout for the selector to become visible on
	// the focused page, scrolls it to the viewport center, and clicks it.
	// Selectors starting with "/" are treated as XPath.
	ClickVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Click performs a best-effort immediate click on the focused page.
	Click(ctx context.Context, selector string) error

	// Targets lists the currently open page handles.
	Targets(ctx context.Context) ([]TargetInfo, error)

	// MainTargetID returns the handle present from session start.
	MainTargetID() string

	// FocusTarget switches the focused page to the given handle.
	FocusTarget(ctx context.Context, id string) error

	// CloseTarget closes a transient handle. Closing the main handle is
	// refused.
	CloseTarget(ctx context.Context, id string) error

	// Text returns the visible text of the focused page.
	Text(ctx context.Context) (string, error)

	// HTML returns the serialized document of the focused page.
	HTML(ctx context.Context) (string, error)

	// Location returns the URL of the focused page.
	Location(ctx context.Context) (string, error)

	// Close tears the browser session down.
	Close() error
}
