// Package browser wraps headless Chrome behind the small surface the archive
// page sources need: navigate, wait, read the DOM, scroll and look up links.
package browser

import (
	"context"
	"fmt"
	"time"
)

const (
	EngineRod      = "rod"
	EngineChromedp = "chromedp"
)

// Driver is the render collaborator consumed by page sources.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// WaitForSelector reports whether selector appeared before timeout.
	WaitForSelector(ctx context.Context, selector string, timeout time.Duration) bool
	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)
	ScrollToBottom(ctx context.Context) error
	// FindLink returns the href of the first element matching selector.
	FindLink(ctx context.Context, selector string) (string, bool)
	// SendEndKey presses End on the page body.
	SendEndKey(ctx context.Context) error
	Close() error
}

type Options struct {
	Engine            string
	ChromePath        string
	Headless          bool
	NoSandbox         bool
	UserAgent         string
	NavigationTimeout time.Duration
}

// New starts a browser for the configured engine.
func New(ctx context.Context, opts Options) (Driver, error) {
	switch opts.Engine {
	case "", EngineRod:
		return NewRodDriver(ctx, opts)
	case EngineChromedp:
		return NewChromedpDriver(ctx, opts)
	default:
		return nil, fmt.Errorf("unsupported browser engine: %s", opts.Engine)
	}
}

const scrollToBottomJS = `() => window.scrollTo(0, document.body.scrollHeight)`
