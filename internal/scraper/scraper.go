package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"news-corpus-crawler/internal/normalize"
)

type Scraper struct {
	adapter *Adapter
}

func NewScraper(adapter *Adapter) *Scraper {
	return &Scraper{
		adapter: adapter,
	}
}

// ParseDocument builds a goquery tree from raw HTML.
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// HasListing reports whether the archive root container is present.
func (s *Scraper) HasListing(doc *goquery.Document) bool {
	root := s.adapter.Pagination.RootSelector
	if root == "" {
		return doc.Find(s.adapter.Listing.EntrySelector).Length() > 0
	}
	return doc.Find(root).Length() > 0
}

// CountEntries returns the number of listing entries currently in the document.
func (s *Scraper) CountEntries(doc *goquery.Document) int {
	return s.entries(doc).Length()
}

// ParseListing парсит листинг и возвращает кандидатов в порядке листинга
func (s *Scraper) ParseListing(doc *goquery.Document, pageURL string) []Candidate {
	return s.ParseListingFrom(doc, pageURL, 0)
}

// ParseListingFrom skips the first offset entries. Scroll-loaded archives use it
// to yield only entries that appeared since the previous batch.
func (s *Scraper) ParseListingFrom(doc *goquery.Document, pageURL string, offset int) []Candidate {
	base := s.adapter.ResolveBase()
	if base == "" {
		base = pageURL
	}

	var candidates []Candidate
	s.entries(doc).Each(func(i int, sel *goquery.Selection) {
		if i < offset {
			return
		}

		href := firstHref(sel, s.adapter.Listing.LinkSelectors)
		if href == "" {
			return // запись без ссылки пропускаем
		}
		link, ok := normalize.ResolveURL(base, href)
		if !ok {
			return
		}

		candidate := Candidate{URL: link}
		if s.adapter.Date.Source != DateFromArticle {
			candidate.Dates = LocateDates(sel, s.adapter.Date.Locators)
		}
		candidates = append(candidates, candidate)
	})

	return candidates
}

func (s *Scraper) entries(doc *goquery.Document) *goquery.Selection {
	if root := s.adapter.Pagination.RootSelector; root != "" {
		return doc.Find(root).Find(s.adapter.Listing.EntrySelector)
	}
	return doc.Find(s.adapter.Listing.EntrySelector)
}

// LocateDates collects raw date text for every locator that matches under sel,
// in locator order.
func LocateDates(sel *goquery.Selection, locators []DateLocator) []DateText {
	var dates []DateText
	for _, loc := range locators {
		target := sel
		if loc.Selector != "" {
			target = sel.Find(loc.Selector).First()
		}
		if target.Length() == 0 {
			continue
		}

		var raw string
		if loc.Attribute != "" {
			raw, _ = target.Attr(loc.Attribute)
		} else {
			raw = target.Text()
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		dates = append(dates, DateText{Raw: raw, Encoding: loc.Encoding})
	}
	return dates
}

func firstHref(sel *goquery.Selection, selectors []string) string {
	if len(selectors) == 0 {
		selectors = []string{"a[href]"}
	}
	for _, selector := range selectors {
		found := sel.Find(selector)
		if goquery.NodeName(sel) == "a" && sel.Is(selector) {
			found = sel
		}
		href, exists := found.First().Attr("href")
		if exists && strings.TrimSpace(href) != "" {
			return href
		}
	}
	return ""
}
