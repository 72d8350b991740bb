package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// ChromedpDriver drives a single tab through chromedp.
type ChromedpDriver struct {
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	navTimeout  time.Duration
}

func NewChromedpDriver(ctx context.Context, opts Options) (*ChromedpDriver, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	navTimeout := opts.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}

	return &ChromedpDriver{
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		navTimeout:  navTimeout,
	}, nil
}

// run executes actions on the tab, bounded by timeout and the caller's ctx.
func (d *ChromedpDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(d.tabCtx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (d *ChromedpDriver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, d.navTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (d *ChromedpDriver) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) bool {
	return d.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)) == nil
}

func (d *ChromedpDriver) HTML(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, d.navTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return html, nil
}

func (d *ChromedpDriver) ScrollToBottom(ctx context.Context) error {
	return d.run(ctx, d.navTimeout, chromedp.Evaluate(scrollToBottomJS, nil))
}

func (d *ChromedpDriver) FindLink(ctx context.Context, selector string) (string, bool) {
	var nodes []*cdp.Node
	err := d.run(ctx, d.navTimeout, chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)))
	if err != nil || len(nodes) == 0 {
		return "", false
	}
	href := nodes[0].AttributeValue("href")
	return href, href != ""
}

func (d *ChromedpDriver) SendEndKey(ctx context.Context) error {
	return d.run(ctx, d.navTimeout, chromedp.SendKeys("body", kb.End, chromedp.ByQuery))
}

func (d *ChromedpDriver) Close() error {
	d.tabCancel()
	d.allocCancel()
	return nil
}
