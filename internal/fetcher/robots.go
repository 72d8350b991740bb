package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"news-corpus-crawler/internal/observability"
)

type RobotsCache struct {
	cache     map[string]*robotsEntry
	ttl       time.Duration
	userAgent string
	mu        sync.RWMutex
	logger    *observability.Logger
}

type robotsEntry struct {
	group     *robotstxt.Group
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration, userAgent string, logger *observability.Logger) *RobotsCache {
	if logger == nil {
		logger = observability.NewNop()
	}
	return &RobotsCache{
		cache:     make(map[string]*robotsEntry),
		ttl:       ttl,
		userAgent: userAgent,
		logger:    logger,
	}
}

// IsAllowed checks target against the host's robots.txt. Any failure to obtain
// the file means allowed.
func (rc *RobotsCache) IsAllowed(ctx context.Context, target *url.URL, client *http.Client) bool {
	key := target.Scheme + "://" + target.Host

	rc.mu.RLock()
	cached, exists := rc.cache[key]
	rc.mu.RUnlock()

	if !exists || time.Now().After(cached.expiresAt) {
		group, err := rc.fetch(ctx, key, client)
		if err != nil {
			rc.logger.Debug("robots.txt unavailable, allowing", "host", target.Host, "error", err)
		}
		cached = &robotsEntry{group: group, expiresAt: time.Now().Add(rc.ttl)}

		rc.mu.Lock()
		rc.cache[key] = cached
		rc.mu.Unlock()
	}

	if cached.group == nil {
		return true
	}
	path := target.EscapedPath()
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return cached.group.Test(path)
}

func (rc *RobotsCache) fetch(ctx context.Context, origin string, client *http.Client) (*robotstxt.Group, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data.FindGroup(rc.userAgent), nil
}
