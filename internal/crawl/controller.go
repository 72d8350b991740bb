// Package crawl drives one archive: batches from the page source go through the
// date gate, the fetcher and the extractor, and survivors land in the sink.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"news-corpus-crawler/internal/extract"
	"news-corpus-crawler/internal/fetcher"
	"news-corpus-crawler/internal/observability"
	"news-corpus-crawler/internal/pagesource"
	"news-corpus-crawler/internal/scraper"
	"news-corpus-crawler/internal/sink"
)

// Fetcher is the article transport.
type Fetcher interface {
	Get(ctx context.Context, url string) (*fetcher.FetchResponse, error)
}

// RecordSink receives emitted records.
type RecordSink interface {
	Write(ctx context.Context, rec sink.Record) error
}

type Summary struct {
	Site             string
	Emitted          int
	Visited          int
	Batches          int
	Candidates       int
	FetchFailures    int
	ExtractionMisses int
	Rejections       int
	DateSkips        int
	Reason           StopReason
	Duration         time.Duration
}

type Deps struct {
	Source    pagesource.Source
	Fetcher   Fetcher
	Extractor *extract.Extractor
	Sink      RecordSink
	Logger    *observability.Logger
	Metrics   *observability.Metrics
}

type Controller struct {
	adapter   *scraper.Adapter
	gate      *scraper.DateGate
	source    pagesource.Source
	fetcher   Fetcher
	extractor *extract.Extractor
	sink      RecordSink
	logger    *observability.Logger
	metrics   *observability.Metrics

	state   *State
	summary Summary
}

func NewController(adapter *scraper.Adapter, deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = observability.NewNop()
	}
	extractor := deps.Extractor
	if extractor == nil {
		extractor = extract.NewExtractor(adapter.Content, nil)
	}
	return &Controller{
		adapter:   adapter,
		gate:      scraper.NewDateGate(adapter.Date),
		source:    deps.Source,
		fetcher:   deps.Fetcher,
		extractor: extractor,
		sink:      deps.Sink,
		logger:    logger,
		metrics:   deps.Metrics,
		state:     newState(),
		summary:   Summary{Site: adapter.Name},
	}
}

// State exposes the crawl state for inspection.
func (c *Controller) State() *State {
	return c.state
}

// Run crawls until the state machine reaches Stopped. The error is non-nil
// only for fatal outcomes: a missing archive structure or a failed sink write.
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	err := c.loop(ctx)

	c.summary.Emitted = c.state.Emitted()
	c.summary.Visited = c.state.VisitedCount()
	c.summary.Reason = c.state.Reason()
	c.summary.Duration = time.Since(start)
	c.metrics.IncStop(c.adapter.Name, string(c.summary.Reason))

	return c.summary, err
}

func (c *Controller) loop(ctx context.Context) error {
	for c.state.Running() {
		if ctx.Err() != nil {
			c.stop(StopCancelled)
			return nil
		}

		batch, err := c.source.NextBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.stop(StopCancelled)
				return nil
			}
			c.stop(StopStructural)
			if errors.Is(err, pagesource.ErrMissingListing) {
				c.logger.Error("Archive structure missing, nothing to crawl", "error", err)
			}
			return fmt.Errorf("load archive %s: %w", c.adapter.Name, err)
		}

		c.summary.Batches++
		c.summary.Candidates += len(batch.Candidates)
		c.metrics.IncBatch(c.adapter.Name)
		c.logger.Info("Processing batch",
			"batch", c.summary.Batches,
			"page_url", batch.PageURL,
			"candidates", len(batch.Candidates),
			"has_more", batch.HasMore,
		)

		if err := c.processBatch(ctx, batch); err != nil {
			return err
		}

		if !batch.HasMore {
			c.stop(StopEndOfArchive)
		}
	}
	return nil
}

func (c *Controller) processBatch(ctx context.Context, batch pagesource.Batch) error {
	for _, cand := range batch.Candidates {
		if !c.state.Running() {
			return nil
		}
		if ctx.Err() != nil {
			c.stop(StopCancelled)
			return nil
		}
		if err := c.processCandidate(ctx, cand); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) processCandidate(ctx context.Context, cand scraper.Candidate) error {
	log := c.logger.With("url", cand.URL)

	if c.state.Visited(cand.URL) {
		log.Debug("Already visited, skipping")
		return nil
	}

	if c.adapter.Date.Source != scraper.DateFromArticle {
		if c.excluded(log, c.gate.Classify(cand.Dates)) {
			return nil
		}
	}

	resp, err := c.fetcher.Get(ctx, cand.URL)
	if err != nil {
		if ctx.Err() != nil {
			c.stop(StopCancelled)
			return nil
		}
		c.summary.FetchFailures++
		c.metrics.IncFetchFailure(c.adapter.Name)
		var statusErr *fetcher.StatusError
		if errors.As(err, &statusErr) {
			log.Warn("Failed to retrieve article", "status", statusErr.StatusCode)
		} else {
			log.Warn("Failed to retrieve article", "error", err)
		}
		return nil
	}

	doc, err := scraper.ParseDocument(string(resp.Body))
	if err != nil {
		c.miss(log, "unparseable document")
		return nil
	}

	if c.adapter.Date.Source == scraper.DateFromArticle {
		dates := scraper.LocateDates(doc.Selection, c.adapter.Date.Locators)
		if c.excluded(log, c.gate.Classify(dates)) {
			return nil
		}
	}

	result := c.extractor.Extract(doc)
	switch {
	case result.Rejected:
		c.state.markVisited(cand.URL)
		c.summary.Rejections++
		c.metrics.IncVerdictRejection(c.adapter.Name)
		log.Info("Rejected by verdict caption", "caption", result.Caption)
		return nil
	case result.Text == "":
		c.miss(log, "no strategy matched")
		return nil
	}

	return c.emit(ctx, log, cand.URL, result)
}

// emit marks the URL visited before the sink sees the record; emitted counts
// only records the sink accepted.
func (c *Controller) emit(ctx context.Context, log *observability.Logger, url string, result extract.Result) error {
	c.state.markVisited(url)

	rec := sink.Record{Label: c.adapter.Label, Text: result.Text, URL: url, Site: c.adapter.Name}
	if err := c.sink.Write(ctx, rec); err != nil {
		c.stop(StopSinkFailure)
		return fmt.Errorf("write record for %s: %w", url, err)
	}
	c.state.emitted++
	c.metrics.IncEmitted(c.adapter.Name, c.adapter.Label)
	log.Info("Scraped article",
		"n", c.state.Emitted(),
		"strategy", string(result.Strategy),
		"preview", c.extractor.Preview(result.Text),
	)

	if c.adapter.MaxRecords > 0 && c.state.Emitted() >= c.adapter.MaxRecords {
		c.stop(StopRecordLimit)
	}
	return nil
}

// excluded applies the gate decision. Returns true when the candidate must be
// dropped; it also raises the stop when the sorted-listing policy says so.
func (c *Controller) excluded(log *observability.Logger, d scraper.Decision) bool {
	if !d.Excluded() {
		return false
	}

	if c.gate.ShouldStop(d, c.state.tolerated) {
		log.Info("Out-of-window article, stopping crawl",
			"verdict", d.Verdict.String(),
			"year", d.Year,
			"date_raw", d.Raw,
		)
		c.stop(StopDateWindow)
		return true
	}

	if d.Verdict == scraper.Unknown && c.adapter.Date.Unknown == scraper.UnknownSkip {
		log.Info("Skipping article without readable date", "date_raw", d.Raw)
	} else {
		c.state.tolerated++
		log.Info("Out-of-window article tolerated",
			"year", d.Year,
			"tolerated", c.state.tolerated,
			"stop_tolerance", c.adapter.Date.StopTolerance,
		)
	}
	c.summary.DateSkips++
	return true
}

func (c *Controller) miss(log *observability.Logger, why string) {
	c.summary.ExtractionMisses++
	c.metrics.IncExtractionMiss(c.adapter.Name)
	log.Info("No extractable content", "reason", why)
}

func (c *Controller) stop(reason StopReason) {
	if c.state.stop(reason) {
		c.logger.Info("Crawl stopped",
			"phase", c.state.Phase().String(),
			"reason", string(reason),
			"emitted", c.state.Emitted(),
		)
	}
}
