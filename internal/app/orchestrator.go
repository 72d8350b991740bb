package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"news-corpus-crawler/internal/browser"
	"news-corpus-crawler/internal/config"
	"news-corpus-crawler/internal/crawl"
	"news-corpus-crawler/internal/extract"
	"news-corpus-crawler/internal/fetcher"
	"news-corpus-crawler/internal/normalize"
	"news-corpus-crawler/internal/observability"
	"news-corpus-crawler/internal/pagesource"
	"news-corpus-crawler/internal/scraper"
	"news-corpus-crawler/internal/sink"
	"news-corpus-crawler/internal/storage"
	"news-corpus-crawler/internal/storage/sqlstore"
)

// DriverFactory starts a browser for one site crawl.
type DriverFactory func(ctx context.Context, opts browser.Options) (browser.Driver, error)

type Orchestrator struct {
	cfg       *config.Config
	logger    *observability.Logger
	metrics   *observability.Metrics
	runID     string
	newDriver DriverFactory
	fetcher   crawl.Fetcher
	repo      storage.Repository
}

type Option func(*Orchestrator)

func WithDriverFactory(f DriverFactory) Option {
	return func(o *Orchestrator) { o.newDriver = f }
}

func WithFetcher(f crawl.Fetcher) Option {
	return func(o *Orchestrator) { o.fetcher = f }
}

func WithRepository(r storage.Repository) Option {
	return func(o *Orchestrator) { o.repo = r }
}

func NewOrchestrator(cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = observability.NewNop()
	}
	runID := uuid.NewString()
	o := &Orchestrator{
		cfg:       cfg,
		logger:    logger.With("run_id", runID),
		metrics:   metrics,
		runID:     runID,
		newDriver: browser.New,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fetcher == nil {
		o.fetcher = fetcher.NewFetcher(cfg, o.logger)
	}
	return o
}

func (o *Orchestrator) RunID() string {
	return o.runID
}

// Run crawls the sites one after another. A failing site does not prevent the
// others from running; all failures are returned joined.
func (o *Orchestrator) Run(ctx context.Context, sites []scraper.Adapter) ([]crawl.Summary, error) {
	if o.cfg.Output.Sink == config.SinkDatabase && o.repo == nil {
		repo, err := sqlstore.NewRepository(
			o.cfg.Storage.Driver,
			o.cfg.Storage.DSN,
			o.cfg.Storage.Table,
			o.cfg.GetCommandTimeout(),
			o.logger,
		)
		if err != nil {
			return nil, fmt.Errorf("open corpus storage: %w", err)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				o.logger.Error("Failed to close storage", "error", err)
			}
		}()
		o.repo = repo
	}
	if o.repo != nil {
		if err := o.repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}

	o.logger.Info("Starting crawl run", "sites", len(sites))

	var (
		summaries []crawl.Summary
		errs      []error
	)
	for i := range sites {
		if ctx.Err() != nil {
			o.logger.Warn("Run cancelled, skipping remaining sites", "remaining", len(sites)-i)
			break
		}
		summary, err := o.runSite(ctx, &sites[i])
		summaries = append(summaries, summary)
		if err != nil {
			o.logger.Error("Site crawl failed", "site", sites[i].Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sites[i].Name, err))
		}
	}

	if err := o.metrics.WriteTextfile(o.cfg.Observability.MetricsPath); err != nil {
		o.logger.Warn("Failed to write metrics", "path", o.cfg.Observability.MetricsPath, "error", err)
	}

	return summaries, errors.Join(errs...)
}

func (o *Orchestrator) runSite(ctx context.Context, a *scraper.Adapter) (crawl.Summary, error) {
	log := o.logger.With("site", a.Name)
	log.Info("Starting site crawl",
		"start_url", a.StartURL,
		"mode", string(a.Pagination.Mode),
		"window_from", a.Date.Window.From,
		"window_to", a.Date.Window.To,
	)

	driver, err := o.newDriver(ctx, browser.Options{
		Engine:            o.cfg.Browser.Engine,
		ChromePath:        o.cfg.Browser.ChromePath,
		Headless:          o.cfg.Browser.Headless,
		NoSandbox:         o.cfg.Browser.NoSandbox,
		UserAgent:         o.cfg.HTTP.UserAgent,
		NavigationTimeout: o.cfg.GetNavigationTimeout(),
	})
	if err != nil {
		return crawl.Summary{Site: a.Name}, fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.Warn("Failed to close browser", "error", err)
		}
	}()

	src, err := pagesource.New(a, driver, pagesource.Options{
		RenderTimeout: o.cfg.GetRenderTimeout(),
		SettleDelay:   o.cfg.GetSettleDelay(),
		PollInterval:  o.cfg.GetPollInterval(),
		Logger:        log,
	})
	if err != nil {
		return crawl.Summary{Site: a.Name}, err
	}

	out, err := o.openSink(a, log)
	if err != nil {
		return crawl.Summary{Site: a.Name}, err
	}

	normalizer := normalize.NewNormalizer(o.cfg.NormalizeOptions())
	ctrl := crawl.NewController(a, crawl.Deps{
		Source:    src,
		Fetcher:   o.fetcher,
		Extractor: extract.NewExtractor(a.Content, normalizer),
		Sink:      out,
		Logger:    log,
		Metrics:   o.metrics,
	})

	summary, runErr := ctrl.Run(ctx)
	if err := out.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("close sink: %w", err)
	}

	if o.cfg.Output.Sink == config.SinkDatabase {
		if stored, err := o.repo.CountBySite(ctx, a.Name); err == nil {
			log.Info("Corpus rows for site", "stored", stored)
		} else {
			log.Warn("Failed to count stored records", "error", err)
		}
	}

	log.Info("Site crawl finished",
		"emitted", summary.Emitted,
		"visited", summary.Visited,
		"batches", summary.Batches,
		"fetch_failures", summary.FetchFailures,
		"extraction_misses", summary.ExtractionMisses,
		"rejections", summary.Rejections,
		"reason", string(summary.Reason),
		"duration", summary.Duration.String(),
	)
	return summary, runErr
}

func (o *Orchestrator) openSink(a *scraper.Adapter, log *observability.Logger) (sink.Sink, error) {
	if o.cfg.Output.Sink == config.SinkDatabase {
		return sink.NewDatabaseSink(o.repo, o.runID, log), nil
	}
	path := o.cfg.OutputPath(a)
	s, err := sink.NewCSVSink(path, o.cfg.Output.BOM)
	if err != nil {
		return nil, err
	}
	log.Info("Writing records", "path", path)
	return s, nil
}
