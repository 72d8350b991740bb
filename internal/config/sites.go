package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"news-corpus-crawler/internal/normalize"
	"news-corpus-crawler/internal/scraper"
)

type sitesFile struct {
	Sites []scraper.Adapter `yaml:"sites"`
}

// LoadSites загружает адаптеры сайтов из YAML файла
func LoadSites(filePath string) ([]scraper.Adapter, error) {
	if filePath == "" {
		return nil, fmt.Errorf("sites file path is empty")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file %s: %w", filePath, err)
	}

	var parsed sitesFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse sites YAML: %w", err)
	}
	if len(parsed.Sites) == 0 {
		return nil, fmt.Errorf("sites file %s defines no sites", filePath)
	}

	seen := make(map[string]bool, len(parsed.Sites))
	for i := range parsed.Sites {
		a := &parsed.Sites[i]
		applyAdapterDefaults(a)
		if err := validateAdapter(a); err != nil {
			return nil, fmt.Errorf("site %d (%s): %w", i, a.Name, err)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("duplicate site name: %s", a.Name)
		}
		seen[a.Name] = true
	}

	return parsed.Sites, nil
}

// LoadSites reads the sites file referenced by the config.
func (c *Config) LoadSites() ([]scraper.Adapter, error) {
	return LoadSites(c.resolvePath(c.SitesFile))
}

// SelectSites keeps only the named adapters, preserving file order.
func SelectSites(all []scraper.Adapter, names []string) ([]scraper.Adapter, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]bool, len(names))
	for _, n := range names {
		byName[n] = true
	}

	var out []scraper.Adapter
	for _, a := range all {
		if byName[a.Name] {
			out = append(out, a)
			delete(byName, a.Name)
		}
	}
	for _, n := range names {
		if byName[n] {
			return nil, fmt.Errorf("unknown site: %s", n)
		}
	}
	return out, nil
}

// OutputPath is where the CSV sink writes records for the adapter.
func (c *Config) OutputPath(a *scraper.Adapter) string {
	if filepath.IsAbs(a.OutputFile) {
		return a.OutputFile
	}
	return filepath.Join(c.resolvePath(c.Output.Dir), a.OutputFile)
}

// NormalizeOptions maps the normalize section onto normalizer options.
func (c *Config) NormalizeOptions() normalize.Options {
	opts := normalize.Options{
		TrimNBSP:        c.Normalize.TrimNBSP,
		CollapseSpaces:  c.Normalize.CollapseSpaces,
		MaxPreviewChars: c.Normalize.MaxPreviewChars,
	}
	if opts.MaxPreviewChars <= 0 {
		opts.MaxPreviewChars = normalize.DefaultOptions().MaxPreviewChars
	}
	return opts
}

func applyAdapterDefaults(a *scraper.Adapter) {
	if a.Pagination.Mode == "" {
		a.Pagination.Mode = scraper.PaginationNextLink
	}
	if a.Date.Source == "" {
		a.Date.Source = scraper.DateFromListing
	}
	if a.Date.Unknown == "" {
		a.Date.Unknown = scraper.UnknownAsOutOfWindow
	}
	for i := range a.Date.Locators {
		if a.Date.Locators[i].Encoding == "" {
			a.Date.Locators[i].Encoding = scraper.EncodingTextSuffix
		}
	}
	if len(a.Content.Strategies) == 0 {
		a.Content.Strategies = []scraper.Strategy{scraper.StrategyAllParagraphs}
	}
	if a.Content.Verdict != nil && a.Content.Verdict.Selector == "" {
		a.Content.Verdict.Selector = "figure"
	}
	if a.OutputFile == "" {
		a.OutputFile = a.Name + ".csv"
	}
}

// validateAdapter проверяет минимальный набор полей адаптера
func validateAdapter(a *scraper.Adapter) error {
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, ok := normalize.ResolveURL("", a.StartURL); !ok {
		return fmt.Errorf("start_url must be an absolute http(s) URL")
	}
	if a.BaseURL != "" {
		if _, ok := normalize.ResolveURL("", a.BaseURL); !ok {
			return fmt.Errorf("base_url must be an absolute http(s) URL")
		}
	}
	if a.Label != "0" && a.Label != "1" {
		return fmt.Errorf("label must be '0' or '1'")
	}
	if a.MaxRecords < 0 {
		return fmt.Errorf("max_records must be >= 0")
	}

	switch a.Pagination.Mode {
	case scraper.PaginationNextLink:
		if len(a.Pagination.NextSelectors) == 0 {
			return fmt.Errorf("pagination.next_selectors is required for next-link mode")
		}
	case scraper.PaginationScroll:
	default:
		return fmt.Errorf("unsupported pagination.mode: %s", a.Pagination.Mode)
	}

	if a.Listing.EntrySelector == "" {
		return fmt.Errorf("listing.entry_selector is required")
	}

	switch a.Date.Source {
	case scraper.DateFromListing, scraper.DateFromArticle:
	default:
		return fmt.Errorf("unsupported date.source: %s", a.Date.Source)
	}
	if len(a.Date.Locators) == 0 {
		return fmt.Errorf("date.locators is required")
	}
	for _, loc := range a.Date.Locators {
		if loc.Selector == "" {
			return fmt.Errorf("date locator selector is required")
		}
		switch loc.Encoding {
		case scraper.EncodingAttrPrefix, scraper.EncodingTextSuffix, scraper.EncodingTextRegex:
		default:
			return fmt.Errorf("unsupported date encoding: %s", loc.Encoding)
		}
	}
	if a.Date.Window.From <= 0 || a.Date.Window.To < a.Date.Window.From {
		return fmt.Errorf("date.window must satisfy 0 < from <= to")
	}
	if a.Date.StopTolerance < 0 {
		return fmt.Errorf("date.stop_tolerance must be >= 0")
	}
	switch a.Date.Unknown {
	case scraper.UnknownAsOutOfWindow, scraper.UnknownSkip:
	default:
		return fmt.Errorf("unsupported date.unknown policy: %s", a.Date.Unknown)
	}

	if len(a.Content.Selectors) == 0 {
		return fmt.Errorf("content.selectors is required")
	}
	for _, s := range a.Content.Strategies {
		switch s {
		case scraper.StrategyBlockquote, scraper.StrategyClaimParagraph,
			scraper.StrategyQuotedSentence, scraper.StrategyAllParagraphs:
		default:
			return fmt.Errorf("unsupported content strategy: %s", s)
		}
	}
	if a.Content.Verdict != nil && a.Content.Verdict.Keyword == "" {
		return fmt.Errorf("content.verdict.keyword is required when verdict is set")
	}

	return nil
}
