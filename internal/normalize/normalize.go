package normalize

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

var spaceRun = regexp.MustCompile(`\s+`)

type Options struct {
	TrimNBSP        bool
	CollapseSpaces  bool
	MaxPreviewChars int
}

// DefaultOptions matches what the corpus files expect: NBSP folded, runs of
// whitespace collapsed, 120 char previews in logs.
func DefaultOptions() Options {
	return Options{TrimNBSP: true, CollapseSpaces: true, MaxPreviewChars: 120}
}

type Normalizer struct {
	opts Options
}

func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Text cleans a single text fragment.
func (n *Normalizer) Text(s string) string {
	if n.opts.TrimNBSP {
		s = strings.ReplaceAll(s, "\u00A0", " ")
	}
	if n.opts.CollapseSpaces {
		s = spaceRun.ReplaceAllString(s, " ")
	}
	return strings.TrimSpace(s)
}

// JoinParagraphs trims every paragraph, drops empty ones and joins the rest with one space.
func (n *Normalizer) JoinParagraphs(paragraphs []string) string {
	parts := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if p = n.Text(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// TruncatePreview обрезает текст до maxPreviewChars
func (n *Normalizer) TruncatePreview(text string) string {
	if n.opts.MaxPreviewChars <= 0 || len(text) <= n.opts.MaxPreviewChars {
		return text
	}

	cut := n.opts.MaxPreviewChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	truncated := text[:cut]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > 0 {
		return text[:lastSpace] + "…"
	}

	return truncated + "…"
}

// NormalizeURL trims the URL and drops the fragment.
func NormalizeURL(urlStr string) string {
	urlStr = strings.TrimSpace(urlStr)
	if idx := strings.Index(urlStr, "#"); idx > -1 {
		urlStr = urlStr[:idx]
	}
	return urlStr
}

// ResolveURL makes href absolute against base. Non-http(s) links are rejected.
func ResolveURL(base, href string) (string, bool) {
	href = NormalizeURL(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if !ref.IsAbs() {
		b, err := url.Parse(base)
		if err != nil {
			return "", false
		}
		ref = b.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	return ref.String(), true
}
