package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-corpus-crawler/internal/checksum"
	"news-corpus-crawler/internal/storage"
)

func readCSV(t *testing.T, path string) ([]byte, [][]string) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return raw, rows
}

func TestCSVSinkWritesHeaderAndQuotedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fake.csv")
	s, err := NewCSVSink(path, false)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Write(ctx, Record{Label: "0", Text: `He said "vote, now" loudly`}))
	require.NoError(t, s.Write(ctx, Record{Label: "0", Text: "line one\nline two"}))
	require.NoError(t, s.Close())

	raw, rows := readCSV(t, path)
	assert.False(t, bytes.HasPrefix(raw, utf8BOM))
	assert.Equal(t, [][]string{
		{"label", "article"},
		{"0", `He said "vote, now" loudly`},
		{"0", "line one\nline two"},
	}, rows)
}

func TestCSVSinkBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gma.csv")
	s, err := NewCSVSink(path, true)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	raw, rows := readCSV(t, path)
	assert.True(t, bytes.HasPrefix(raw, utf8BOM))
	assert.Equal(t, [][]string{{"label", "article"}}, rows)
}

func TestCSVSinkFlushesEveryRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.csv")
	s, err := NewCSVSink(path, false)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Write(context.Background(), Record{Label: "1", Text: "first"}))

	// readable before Close
	_, rows := readCSV(t, path)
	assert.Equal(t, [][]string{{"label", "article"}, {"1", "first"}}, rows)
}

type fakeRepo struct {
	records   []*storage.CorpusRecord
	err       error
	lookupErr error
	lookups   []string
}

func (f *fakeRepo) EnsureSchema(context.Context) error { return nil }

func (f *fakeRepo) UpsertRecord(_ context.Context, rec *storage.CorpusRecord) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.records = append(f.records, rec)
	return true, nil
}

func (f *fakeRepo) ExistsByURL(_ context.Context, url string) (bool, error) {
	f.lookups = append(f.lookups, url)
	return false, f.lookupErr
}

func (f *fakeRepo) CountBySite(context.Context, string) (int, error) { return len(f.records), nil }

func (f *fakeRepo) Close() error { return nil }

func TestDatabaseSinkStoresRecordWithChecksum(t *testing.T) {
	repo := &fakeRepo{}
	s := NewDatabaseSink(repo, "run-1", nil)

	rec := Record{Label: "1", Text: "Body", URL: "https://a.test/1", Site: "gma"}
	require.NoError(t, s.Write(context.Background(), rec))

	require.Len(t, repo.records, 1)
	got := repo.records[0]
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "gma", got.Site)
	assert.Equal(t, "https://a.test/1", got.URL)
	assert.Equal(t, checksum.NewGenerator().GenerateContentHash(rec.URL, rec.Label, rec.Text), got.CheckSum)
	assert.False(t, got.ScrapedAt.IsZero())
}

func TestDatabaseSinkPropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	s := NewDatabaseSink(&fakeRepo{err: boom}, "run-1", nil)

	err := s.Write(context.Background(), Record{URL: "https://a.test/1"})
	assert.ErrorIs(t, err, boom)
}

func TestDatabaseSinkLooksUpBeforeUpsert(t *testing.T) {
	repo := &fakeRepo{}
	s := NewDatabaseSink(repo, "run-1", nil)

	require.NoError(t, s.Write(context.Background(), Record{Label: "0", Text: "x", URL: "https://a.test/2"}))
	assert.Equal(t, []string{"https://a.test/2"}, repo.lookups)

	repo.lookupErr = errors.New("timeout")
	err := s.Write(context.Background(), Record{Label: "0", Text: "y", URL: "https://a.test/3"})
	assert.ErrorIs(t, err, repo.lookupErr)
	assert.Len(t, repo.records, 1)
}
