// Package extract turns loaded search and profile pages into person records.
//
// All knowledge of the site's markup lives in this package. Search results
// are read from an HTML snapshot of the page with a list of Strategy values
// tried in order, so a markup change means editing or adding a strategy here
// and nowhere else.
package extract

import (
	"context"
	"time"
)

// Page is a loaded browser tab. The browser controller implements it; tests
// use canned HTML.
type Page interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector matches a visible element or timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// HTML returns the current document's outer HTML.
	HTML(ctx context.Context) (string, error)
	// Sleep pauses for d unless ctx is done first.
	Sleep(ctx context.Context, d time.Duration) error
}
