package sink

import (
	"context"
	"fmt"
	"time"

	"news-corpus-crawler/internal/checksum"
	"news-corpus-crawler/internal/observability"
	"news-corpus-crawler/internal/storage"
)

// DatabaseSink stores records through a corpus repository. The repository is
// shared between sites and is closed by its owner, not by the sink.
type DatabaseSink struct {
	repo     storage.Repository
	runID    string
	checksum *checksum.Generator
	logger   *observability.Logger
	now      func() time.Time
}

func NewDatabaseSink(repo storage.Repository, runID string, logger *observability.Logger) *DatabaseSink {
	if logger == nil {
		logger = observability.NewNop()
	}
	return &DatabaseSink{
		repo:     repo,
		runID:    runID,
		checksum: checksum.NewGenerator(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *DatabaseSink) Write(ctx context.Context, rec Record) error {
	row := &storage.CorpusRecord{
		RunID:     s.runID,
		Site:      rec.Site,
		URL:       rec.URL,
		Label:     rec.Label,
		Text:      rec.Text,
		CheckSum:  s.checksum.GenerateContentHash(rec.URL, rec.Label, rec.Text),
		ScrapedAt: s.now(),
	}

	seen, err := s.repo.ExistsByURL(ctx, rec.URL)
	if err != nil {
		return fmt.Errorf("lookup record %s: %w", rec.URL, err)
	}
	if seen {
		s.logger.Info("URL stored by an earlier run, refreshing", "url", rec.URL)
	}

	isNew, err := s.repo.UpsertRecord(ctx, row)
	if err != nil {
		return fmt.Errorf("store record %s: %w", rec.URL, err)
	}
	if !isNew && !seen {
		s.logger.Debug("Record already stored, updated", "url", rec.URL)
	}
	return nil
}

func (s *DatabaseSink) Close() error {
	return nil
}
