package pagesource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-corpus-crawler/internal/scraper"
)

// fakeDriver serves canned DOM states. Scrolling advances to the next state of the current page.
type fakeDriver struct {
	pages       map[string][]string
	current     string
	state       int
	navigations []string
	scrolls     int
	endKeys     int
}

func (f *fakeDriver) Navigate(_ context.Context, url string) error {
	f.navigations = append(f.navigations, url)
	if _, ok := f.pages[url]; !ok {
		return fmt.Errorf("404 %s", url)
	}
	f.current = url
	f.state = 0
	return nil
}

func (f *fakeDriver) doc() *goquery.Document {
	doc, _ := goquery.NewDocumentFromReader(strings.NewReader(f.pages[f.current][f.state]))
	return doc
}

func (f *fakeDriver) WaitForSelector(_ context.Context, selector string, _ time.Duration) bool {
	return f.doc().Find(selector).Length() > 0
}

func (f *fakeDriver) HTML(context.Context) (string, error) {
	return f.pages[f.current][f.state], nil
}

func (f *fakeDriver) ScrollToBottom(context.Context) error {
	f.scrolls++
	if f.state < len(f.pages[f.current])-1 {
		f.state++
	}
	return nil
}

func (f *fakeDriver) FindLink(_ context.Context, selector string) (string, bool) {
	href, ok := f.doc().Find(selector).First().Attr("href")
	return href, ok && href != ""
}

func (f *fakeDriver) SendEndKey(context.Context) error {
	f.endKeys++
	return nil
}

func (f *fakeDriver) Close() error { return nil }

func listingPage(next string, links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for _, l := range links {
		fmt.Fprintf(&b, `<article><a href="%s">story</a><footer class="entry-meta"><time>May 1, 2024</time></footer></article>`, l)
	}
	b.WriteString("</main>")
	if next != "" {
		fmt.Fprintf(&b, `<a class="next page-numbers" href="%s">Next</a>`, next)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func scrollPage(links ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul id="stories">`)
	for _, l := range links {
		fmt.Fprintf(&b, `<li class="story"><a class="story_link" href="%s">story</a></li>`, l)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

func nextLinkAdapter() *scraper.Adapter {
	return &scraper.Adapter{
		Name:     "tsek",
		StartURL: "https://tsek.test/fact-checks/",
		Pagination: scraper.PaginationRule{
			Mode:          scraper.PaginationNextLink,
			RootSelector:  "main",
			NextSelectors: []string{"a.missing", "a.next.page-numbers"},
		},
		Listing: scraper.ListingRule{EntrySelector: "article"},
		Date: scraper.DateRule{
			Locators: []scraper.DateLocator{{Selector: "footer.entry-meta time", Encoding: scraper.EncodingTextSuffix}},
		},
	}
}

func scrollAdapter() *scraper.Adapter {
	return &scraper.Adapter{
		Name:     "gma",
		StartURL: "https://gma.test/archive/",
		Pagination: scraper.PaginationRule{
			Mode:         scraper.PaginationScroll,
			RootSelector: "ul#stories",
		},
		Listing: scraper.ListingRule{EntrySelector: "li.story", LinkSelectors: []string{"a.story_link"}},
		Date:    scraper.DateRule{Source: scraper.DateFromArticle},
	}
}

func fastOptions() Options {
	return Options{RenderTimeout: 60 * time.Millisecond, PollInterval: 5 * time.Millisecond}
}

func urls(b Batch) []string {
	out := make([]string, 0, len(b.Candidates))
	for _, c := range b.Candidates {
		out = append(out, c.URL)
	}
	return out
}

func TestNextLinkFollowsPagination(t *testing.T) {
	d := &fakeDriver{pages: map[string][]string{
		"https://tsek.test/fact-checks/":        {listingPage("/fact-checks/page/2/", "/a", "/b")},
		"https://tsek.test/fact-checks/page/2/": {listingPage("", "/c")},
	}}
	src := NewNextLink(nextLinkAdapter(), d, fastOptions())
	ctx := context.Background()

	b1, err := src.NextBatch(ctx)
	require.NoError(t, err)
	assert.True(t, b1.HasMore)
	assert.Equal(t, []string{"https://tsek.test/a", "https://tsek.test/b"}, urls(b1))
	require.Len(t, b1.Candidates[0].Dates, 1)
	assert.Equal(t, "May 1, 2024", b1.Candidates[0].Dates[0].Raw)

	b2, err := src.NextBatch(ctx)
	require.NoError(t, err)
	assert.False(t, b2.HasMore)
	assert.Equal(t, []string{"https://tsek.test/c"}, urls(b2))

	b3, err := src.NextBatch(ctx)
	require.NoError(t, err)
	assert.Empty(t, b3.Candidates)
	assert.Len(t, d.navigations, 2, "no navigation after the end of the archive")
}

func TestNextLinkMissingListingOnFirstPageIsFatal(t *testing.T) {
	d := &fakeDriver{pages: map[string][]string{
		"https://tsek.test/fact-checks/": {"<html><body><p>maintenance</p></body></html>"},
	}}
	src := NewNextLink(nextLinkAdapter(), d, fastOptions())

	_, err := src.NextBatch(context.Background())
	assert.True(t, errors.Is(err, ErrMissingListing))
}

func TestNextLinkMissingListingLaterEndsSoftly(t *testing.T) {
	d := &fakeDriver{pages: map[string][]string{
		"https://tsek.test/fact-checks/":        {listingPage("/fact-checks/page/2/", "/a")},
		"https://tsek.test/fact-checks/page/2/": {"<html><body>gone</body></html>"},
	}}
	src := NewNextLink(nextLinkAdapter(), d, fastOptions())
	ctx := context.Background()

	_, err := src.NextBatch(ctx)
	require.NoError(t, err)

	b2, err := src.NextBatch(ctx)
	require.NoError(t, err)
	assert.False(t, b2.HasMore)
	assert.Empty(t, b2.Candidates)
}

func TestNextLinkIgnoresLinkBackToLoadedPage(t *testing.T) {
	d := &fakeDriver{pages: map[string][]string{
		"https://tsek.test/fact-checks/": {listingPage("/fact-checks/", "/a")},
	}}
	src := NewNextLink(nextLinkAdapter(), d, fastOptions())

	b, err := src.NextBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, b.HasMore)
}

func TestScrollYieldsOnlyNewEntries(t *testing.T) {
	d := &fakeDriver{pages: map[string][]string{
		"https://gma.test/archive/": {
			scrollPage("https://gma.test/1", "https://gma.test/2"),
			scrollPage("https://gma.test/1", "https://gma.test/2", "https://gma.test/3"),
		},
	}}
	src := NewScroll(scrollAdapter(), d, fastOptions())
	ctx := context.Background()

	b1, err := src.NextBatch(ctx)
	require.NoError(t, err)
	assert.True(t, b1.HasMore)
	assert.Equal(t, []string{"https://gma.test/1", "https://gma.test/2"}, urls(b1))
	assert.Empty(t, b1.Candidates[0].Dates, "article-sourced dates are not read from the listing")

	b2, err := src.NextBatch(ctx)
	require.NoError(t, err)
	assert.True(t, b2.HasMore)
	assert.Equal(t, []string{"https://gma.test/3"}, urls(b2))
	assert.Equal(t, 1, d.endKeys)

	b3, err := src.NextBatch(ctx)
	require.NoError(t, err)
	assert.False(t, b3.HasMore, "render timeout ends the archive")
	assert.Empty(t, b3.Candidates)
}

func TestScrollMissingRootIsFatal(t *testing.T) {
	d := &fakeDriver{pages: map[string][]string{
		"https://gma.test/archive/": {"<html><body></body></html>"},
	}}
	src := NewScroll(scrollAdapter(), d, fastOptions())

	_, err := src.NextBatch(context.Background())
	assert.ErrorIs(t, err, ErrMissingListing)
}

func TestScrollHonoursCancellation(t *testing.T) {
	d := &fakeDriver{pages: map[string][]string{
		"https://gma.test/archive/": {scrollPage("https://gma.test/1")},
	}}
	src := NewScroll(scrollAdapter(), d, fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	_, err := src.NextBatch(ctx)
	require.NoError(t, err)

	cancel()
	_, err = src.NextBatch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPicksVariant(t *testing.T) {
	d := &fakeDriver{}

	src, err := New(nextLinkAdapter(), d, Options{})
	require.NoError(t, err)
	assert.IsType(t, &NextLink{}, src)

	src, err = New(scrollAdapter(), d, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Scroll{}, src)

	bad := scrollAdapter()
	bad.Pagination.Mode = "carousel"
	_, err = New(bad, d, Options{})
	assert.Error(t, err)
}
