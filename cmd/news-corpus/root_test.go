package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "news-corpus", cmd.Use)
	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
	assert.Equal(t, defaultConfigPath, flag.DefValue)

	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	assert.True(t, names["crawl"])
	assert.True(t, names["sites"])
}

func TestCrawlCmdFlags(t *testing.T) {
	cmd := NewCrawlCmd()
	flag := cmd.Flags().Lookup("site")
	require.NotNil(t, flag)
	assert.Equal(t, "s", flag.Shorthand)
}

func TestSitesCmdListsAdapters(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
browser: {navigation_timeout_s: 30, render_timeout_s: 20}
http: {user_agent: test, request_timeout_ms: 1000}
rate_limit: {rpm: 60}
sites_file: sites.yaml
output: {sink: csv, dir: out}
observability: {log_level: info}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sites.yaml"), []byte(`
sites:
  - name: philstar-politics
    start_url: https://www.philstar.com/tags/politics
    label: "1"
    pagination: {mode: scroll-trigger, root_selector: "div#news_main"}
    listing: {entry_selector: div.titleForFeature}
    date:
      source: article
      locators: [{selector: div.article__date-published, encoding: text-regex}]
      window: {from: 2021, to: 2025}
    content: {selectors: [div.article__writeup]}
`), 0o644))

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"sites", "--config", filepath.Join(dir, "config.yaml")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "philstar-politics")
	assert.Contains(t, out.String(), "scroll-trigger")
	assert.Contains(t, out.String(), "2021-2025")
	assert.Contains(t, out.String(), filepath.Join(dir, "out", "philstar-politics.csv"))
}

func TestCrawlCmdUnknownSite(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"crawl", "--config", filepath.Join("..", "..", "configs", "config.yaml"), "--site", "nope"})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "unknown site: nope")
}

func TestCrawlCmdMissingConfig(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"crawl", "--config", filepath.Join(t.TempDir(), "missing.yaml")})

	assert.Error(t, cmd.Execute())
}
