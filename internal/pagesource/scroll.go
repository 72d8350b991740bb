package pagesource

import (
	"context"
	"fmt"
	"time"

	"news-corpus-crawler/internal/browser"
	"news-corpus-crawler/internal/scraper"
)

// Scroll drives an infinite-scroll archive. Each batch after the first holds only
// the entries that appeared since the previous batch.
type Scroll struct {
	adapter *scraper.Adapter
	scraper *scraper.Scraper
	driver  browser.Driver
	opts    Options

	started bool
	cursor  int // entries already yielded
	rounds  int
	done    bool
}

func NewScroll(adapter *scraper.Adapter, driver browser.Driver, opts Options) *Scroll {
	return &Scroll{
		adapter: adapter,
		scraper: scraper.NewScraper(adapter),
		driver:  driver,
		opts:    opts.withDefaults(),
	}
}

func (s *Scroll) NextBatch(ctx context.Context) (Batch, error) {
	if s.done {
		return Batch{}, nil
	}
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	if !s.started {
		return s.first(ctx)
	}
	return s.more(ctx)
}

func (s *Scroll) first(ctx context.Context) (Batch, error) {
	s.started = true
	pageURL := s.adapter.StartURL
	s.opts.Logger.Info("Loading archive", "url", pageURL)

	doc, ok, err := loadDocument(ctx, s.driver, s.scraper, s.adapter, pageURL, s.opts)
	if err != nil {
		return Batch{}, err
	}
	if !ok {
		s.done = true
		return Batch{}, fmt.Errorf("%s: %w", pageURL, ErrMissingListing)
	}

	s.cursor = s.scraper.CountEntries(doc)
	return Batch{
		Candidates: s.scraper.ParseListing(doc, pageURL),
		HasMore:    true,
		PageURL:    pageURL,
	}, nil
}

func (s *Scroll) more(ctx context.Context) (Batch, error) {
	pageURL := s.adapter.StartURL
	s.rounds++
	log := s.opts.Logger.With("round", s.rounds)

	doc, err := currentDocument(ctx, s.driver)
	if err != nil {
		return s.end(ctx, "Failed to read page before scroll", err)
	}
	before := s.scraper.CountEntries(doc)

	// entries may have loaded on their own since the last batch
	if before <= s.cursor {
		if err := s.driver.SendEndKey(ctx); err != nil {
			log.Debug("End key failed", "error", err)
		}
		if err := s.driver.ScrollToBottom(ctx); err != nil {
			log.Debug("Scroll failed", "error", err)
		}

		grown, err := s.waitForGrowth(ctx, before)
		if err != nil {
			return Batch{}, err
		}
		if !grown {
			s.done = true
			log.Info("No new entries after scroll, end of archive", "entries", before)
			return Batch{PageURL: pageURL}, nil
		}

		if err := sleep(ctx, s.opts.SettleDelay); err != nil {
			return Batch{}, err
		}
		if doc, err = currentDocument(ctx, s.driver); err != nil {
			return s.end(ctx, "Failed to read page after scroll", err)
		}
	}

	candidates := s.scraper.ParseListingFrom(doc, pageURL, s.cursor)
	total := s.scraper.CountEntries(doc)
	log.Debug("Scroll batch", "new_entries", total-s.cursor, "total", total)
	s.cursor = total

	return Batch{Candidates: candidates, HasMore: true, PageURL: pageURL}, nil
}

// waitForGrowth polls the DOM until the entry count exceeds before or the render timeout runs out.
func (s *Scroll) waitForGrowth(ctx context.Context, before int) (bool, error) {
	deadline := time.Now().Add(s.opts.RenderTimeout)
	for time.Now().Before(deadline) {
		if err := sleep(ctx, s.opts.PollInterval); err != nil {
			return false, err
		}
		doc, err := currentDocument(ctx, s.driver)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			continue
		}
		if s.scraper.CountEntries(doc) > before {
			return true, nil
		}
	}
	return false, nil
}

func (s *Scroll) end(ctx context.Context, msg string, err error) (Batch, error) {
	if ctx.Err() != nil {
		return Batch{}, ctx.Err()
	}
	s.done = true
	s.opts.Logger.Warn(msg, "error", err)
	return Batch{PageURL: s.adapter.StartURL}, nil
}
