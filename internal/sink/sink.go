// Package sink holds the destinations extracted records are written to.
package sink

import "context"

// Record is one extracted article. Only Label and Text reach the CSV output;
// URL and Site are carried for database storage and logs.
type Record struct {
	Label string
	Text  string
	URL   string
	Site  string
}

// Sink accepts records one at a time; each write is durable before it returns.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}
