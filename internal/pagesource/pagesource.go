// Package pagesource turns a rendered archive into successive batches of
// candidates. Sources know nothing about visited URLs or stop state.
package pagesource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"news-corpus-crawler/internal/browser"
	"news-corpus-crawler/internal/observability"
	"news-corpus-crawler/internal/scraper"
)

// ErrMissingListing means the archive root container was absent on the very first page.
var ErrMissingListing = errors.New("archive listing not found on first page")

// Batch is one page (or one scroll increment) of candidates in listing order.
type Batch struct {
	Candidates []scraper.Candidate
	HasMore    bool
	PageURL    string
}

type Source interface {
	NextBatch(ctx context.Context) (Batch, error)
}

type Options struct {
	RenderTimeout time.Duration
	SettleDelay   time.Duration
	PollInterval  time.Duration
	Logger        *observability.Logger
}

func (o Options) withDefaults() Options {
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = 20 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = observability.NewNop()
	}
	return o
}

// New picks the source variant for the adapter's pagination mode.
func New(adapter *scraper.Adapter, driver browser.Driver, opts Options) (Source, error) {
	switch adapter.Pagination.Mode {
	case scraper.PaginationNextLink, "":
		return NewNextLink(adapter, driver, opts), nil
	case scraper.PaginationScroll:
		return NewScroll(adapter, driver, opts), nil
	default:
		return nil, fmt.Errorf("unsupported pagination mode: %s", adapter.Pagination.Mode)
	}
}

// readyWaitSelector is what must render before a page counts as loaded.
func readyWaitSelector(a *scraper.Adapter) string {
	if a.Pagination.RootSelector != "" {
		return a.Pagination.RootSelector
	}
	return a.Listing.EntrySelector
}

// loadDocument navigates, waits for the listing and parses the rendered DOM.
// ok=false means the page has no usable listing.
func loadDocument(ctx context.Context, d browser.Driver, s *scraper.Scraper, a *scraper.Adapter, pageURL string, opts Options) (*goquery.Document, bool, error) {
	if err := d.Navigate(ctx, pageURL); err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		opts.Logger.Warn("Navigation failed", "url", pageURL, "error", err)
		return nil, false, nil
	}

	if !d.WaitForSelector(ctx, readyWaitSelector(a), opts.RenderTimeout) {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		opts.Logger.Warn("Listing did not render", "url", pageURL, "selector", readyWaitSelector(a))
		return nil, false, nil
	}

	if err := sleep(ctx, opts.SettleDelay); err != nil {
		return nil, false, err
	}

	doc, err := currentDocument(ctx, d)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		opts.Logger.Warn("Failed to read rendered page", "url", pageURL, "error", err)
		return nil, false, nil
	}
	if !s.HasListing(doc) {
		return doc, false, nil
	}
	return doc, true, nil
}

func currentDocument(ctx context.Context, d browser.Driver) (*goquery.Document, error) {
	html, err := d.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return scraper.ParseDocument(html)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
