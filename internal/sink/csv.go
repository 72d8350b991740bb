package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSink writes `label,article` rows, flushing after every record.
type CSVSink struct {
	path string
	file *os.File
	w    *csv.Writer
}

// NewCSVSink truncates path and writes the header row.
func NewCSVSink(path string, bom bool) (*CSVSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write BOM: %w", err)
		}
	}

	s := &CSVSink{path: path, file: file, w: csv.NewWriter(file)}
	if err := s.writeRow("label", "article"); err != nil {
		_ = file.Close()
		return nil, err
	}
	return s, nil
}

func (s *CSVSink) Write(_ context.Context, rec Record) error {
	return s.writeRow(rec.Label, rec.Text)
}

func (s *CSVSink) writeRow(fields ...string) error {
	if err := s.w.Write(fields); err != nil {
		return fmt.Errorf("write csv row to %s: %w", s.path, err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("flush csv to %s: %w", s.path, err)
	}
	return nil
}

func (s *CSVSink) Path() string {
	return s.path
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	flushErr := s.w.Error()
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return flushErr
}
