package pagesource

import (
	"context"
	"fmt"

	"news-corpus-crawler/internal/browser"
	"news-corpus-crawler/internal/normalize"
	"news-corpus-crawler/internal/scraper"
)

// NextLink walks a classic paginated archive by following the "next page" link.
type NextLink struct {
	adapter *scraper.Adapter
	scraper *scraper.Scraper
	driver  browser.Driver
	opts    Options

	nextURL string
	page    int
	seen    map[string]bool
	done    bool
}

func NewNextLink(adapter *scraper.Adapter, driver browser.Driver, opts Options) *NextLink {
	return &NextLink{
		adapter: adapter,
		scraper: scraper.NewScraper(adapter),
		driver:  driver,
		opts:    opts.withDefaults(),
		nextURL: adapter.StartURL,
		seen:    make(map[string]bool),
	}
}

func (n *NextLink) NextBatch(ctx context.Context) (Batch, error) {
	if n.done {
		return Batch{}, nil
	}
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}

	n.page++
	pageURL := n.nextURL
	n.seen[pageURL] = true
	log := n.opts.Logger.With("page", n.page, "url", pageURL)
	log.Info("Loading archive page")

	doc, ok, err := loadDocument(ctx, n.driver, n.scraper, n.adapter, pageURL, n.opts)
	if err != nil {
		return Batch{}, err
	}
	if !ok {
		n.done = true
		if n.page == 1 {
			return Batch{}, fmt.Errorf("%s: %w", pageURL, ErrMissingListing)
		}
		log.Info("No listing on page, ending archive")
		return Batch{PageURL: pageURL}, nil
	}

	batch := Batch{
		Candidates: n.scraper.ParseListing(doc, pageURL),
		PageURL:    pageURL,
	}

	if next, found := n.findNext(ctx, pageURL); found {
		n.nextURL = next
		batch.HasMore = true
	} else {
		n.done = true
		log.Info("No next page link, end of archive")
	}

	return batch, nil
}

// findNext tries the next-page selectors in order. A link back to an already
// loaded page counts as absent.
func (n *NextLink) findNext(ctx context.Context, pageURL string) (string, bool) {
	for _, selector := range n.adapter.Pagination.NextSelectors {
		href, ok := n.driver.FindLink(ctx, selector)
		if !ok {
			continue
		}
		next, ok := normalize.ResolveURL(pageURL, href)
		if !ok || n.seen[next] {
			continue
		}
		return next, true
	}
	return "", false
}
