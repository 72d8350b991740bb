package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-corpus-crawler/internal/config"
	"news-corpus-crawler/internal/observability"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HttpConfig{
			UserAgent:        "corpus-test",
			RequestTimeoutMS: 2000,
			AcceptLanguage:   "en",
		},
		RateLimit:           config.RateLimitConfig{RPM: 6000, Burst: 10},
		RobotsCacheTTLHours: 1,
	}
}

func TestGetReturnsBodyAndFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "corpus-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "en", r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte("<html><body><p>hello</p></body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(testConfig(), observability.NewNop())
	resp, err := f.Get(context.Background(), srv.URL+"/old")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, srv.URL+"/new", resp.URL)
	assert.Contains(t, string(resp.Body), "hello")
}

func TestGetDecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("compressed article"))
		_ = gz.Close()
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), nil)
	resp, err := f.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "compressed article", string(resp.Body))
}

func TestGetNon2xxIsStatusErrorWithoutRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(testConfig(), nil)
	_, err := f.Get(context.Background(), srv.URL+"/article")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGetTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.HTTP.RequestTimeoutMS = 50

	f := NewFetcher(cfg, nil)
	_, err := f.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestGetRespectsRobots(t *testing.T) {
	var robotsHits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&robotsHits, 1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.HTTP.RespectRobots = true
	f := NewFetcher(cfg, nil)

	_, err := f.Get(context.Background(), srv.URL+"/private/story")
	assert.ErrorIs(t, err, ErrDisallowed)

	resp, err := f.Get(context.Background(), srv.URL+"/public/story")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))

	assert.Equal(t, int32(1), atomic.LoadInt32(&robotsHits), "robots.txt is cached per host")
}

func TestMissingRobotsAllowsEverything(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", http.NotFound)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.HTTP.RespectRobots = true
	f := NewFetcher(cfg, nil)

	_, err := f.Get(context.Background(), srv.URL+"/private/story")
	assert.NoError(t, err)
}

func TestStalledRobotsIsBoundedByRequestTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(3 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.HTTP.RequestTimeoutMS = 100
	cfg.HTTP.RespectRobots = true
	f := NewFetcher(cfg, nil)

	start := time.Now()
	resp, err := f.Get(context.Background(), srv.URL+"/story")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Less(t, elapsed, time.Second)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(600, 1) // one request per 100ms
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx, "example.com"))
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	// other hosts have their own bucket
	start = time.Now()
	require.NoError(t, rl.Wait(ctx, "other.example.com"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiterHonoursContext(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, rl.Wait(ctx, "example.com"))
	cancel()
	assert.Error(t, rl.Wait(ctx, "example.com"))
}
