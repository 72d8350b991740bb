package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodDriver drives a single tab through go-rod.
type RodDriver struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	navTimeout time.Duration
}

func NewRodDriver(ctx context.Context, opts Options) (*RodDriver, error) {
	l := launcher.New().Context(ctx).Headless(opts.Headless).NoSandbox(opts.NoSandbox)
	if opts.ChromePath != "" {
		l = l.Bin(opts.ChromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("open tab: %w", err)
	}

	if opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			_ = b.Close()
			l.Kill()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	navTimeout := opts.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 30 * time.Second
	}

	return &RodDriver{launcher: l, browser: b, page: page, navTimeout: navTimeout}, nil
}

func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	p := d.page.Context(ctx).Timeout(d.navTimeout)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (d *RodDriver) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) bool {
	_, err := d.page.Context(ctx).Timeout(timeout).Element(selector)
	return err == nil
}

func (d *RodDriver) HTML(ctx context.Context) (string, error) {
	return d.page.Context(ctx).HTML()
}

func (d *RodDriver) ScrollToBottom(ctx context.Context) error {
	_, err := d.page.Context(ctx).Eval(scrollToBottomJS)
	return err
}

func (d *RodDriver) FindLink(ctx context.Context, selector string) (string, bool) {
	has, el, err := d.page.Context(ctx).Has(selector)
	if err != nil || !has {
		return "", false
	}
	href, err := el.Attribute("href")
	if err != nil || href == nil || *href == "" {
		return "", false
	}
	return *href, true
}

// SendEndKey dispatches the key events on the ctx-bound page, so cancellation
// and deadlines reach the CDP call.
func (d *RodDriver) SendEndKey(ctx context.Context) error {
	page := d.page.Context(ctx)
	for _, ev := range endKeyEvents() {
		if err := ev.Call(page); err != nil {
			return fmt.Errorf("press End: %w", err)
		}
	}
	return nil
}

func endKeyEvents() []*proto.InputDispatchKeyEvent {
	info := input.End.Info()
	down := &proto.InputDispatchKeyEvent{
		Type:                  proto.InputDispatchKeyEventTypeRawKeyDown,
		Key:                   info.Key,
		Code:                  info.Code,
		WindowsVirtualKeyCode: info.KeyCode,
	}
	up := *down
	up.Type = proto.InputDispatchKeyEventTypeKeyUp
	return []*proto.InputDispatchKeyEvent{down, &up}
}

func (d *RodDriver) Close() error {
	err := d.browser.Close()
	d.launcher.Kill()
	return err
}
