// Package extract pulls article body text out of a fetched document by running
// an ordered chain of heuristics; the first one producing text wins.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"news-corpus-crawler/internal/normalize"
	"news-corpus-crawler/internal/scraper"
)

const minQuotedWords = 5

var (
	claimToken        = regexp.MustCompile(`(?i)\bCLAIM\b`)
	ratingPlaceholder = regexp.MustCompile(`(?i)rating\{\}`)
	// ASCII or typographic double quotes.
	quotedSpan = regexp.MustCompile(`["“]([^"”]+)["”]`)
)

// Result of one extraction. Strategy is empty when nothing matched.
type Result struct {
	Text     string
	Strategy scraper.Strategy
	Rejected bool
	Caption  string
}

// Empty reports an extraction miss.
func (r Result) Empty() bool {
	return !r.Rejected && r.Text == ""
}

type Extractor struct {
	rule       scraper.ContentRule
	normalizer *normalize.Normalizer
}

func NewExtractor(rule scraper.ContentRule, normalizer *normalize.Normalizer) *Extractor {
	if normalizer == nil {
		normalizer = normalize.NewNormalizer(normalize.DefaultOptions())
	}
	return &Extractor{rule: rule, normalizer: normalizer}
}

// Preview shortens extracted text for log lines.
func (e *Extractor) Preview(text string) string {
	return e.normalizer.TruncatePreview(text)
}

// Extract runs the verdict filter and then the configured strategies in order.
func (e *Extractor) Extract(doc *goquery.Document) Result {
	container := e.container(doc)
	if container == nil {
		return Result{}
	}

	if caption, rejected := e.verdictRejects(container); rejected {
		return Result{Rejected: true, Caption: caption}
	}

	paragraphs := e.paragraphs(container)

	for _, strategy := range e.rule.Strategies {
		var text string
		switch strategy {
		case scraper.StrategyBlockquote:
			text = e.blockquote(container)
		case scraper.StrategyClaimParagraph:
			text = e.claimParagraph(paragraphs)
		case scraper.StrategyQuotedSentence:
			text = e.quotedSentences(paragraphs)
		case scraper.StrategyAllParagraphs:
			text = e.normalizer.JoinParagraphs(paragraphs.texts)
		}
		if text != "" {
			return Result{Text: text, Strategy: strategy}
		}
	}

	return Result{}
}

func (e *Extractor) container(doc *goquery.Document) *goquery.Selection {
	for _, selector := range e.rule.Selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// verdictRejects looks at the first caption under the container: the direct
// img alt text of the first figure, else its figcaption.
func (e *Extractor) verdictRejects(container *goquery.Selection) (string, bool) {
	v := e.rule.Verdict
	if v == nil || strings.TrimSpace(v.Keyword) == "" {
		return "", false
	}

	selector := v.Selector
	if selector == "" {
		selector = "figure"
	}
	figure := container.Find(selector).First()
	if figure.Length() == 0 {
		return "", false
	}

	caption := ""
	if alt, ok := figure.ChildrenFiltered("img[alt]").First().Attr("alt"); ok {
		caption = alt
	}
	if strings.TrimSpace(caption) == "" {
		caption = figure.Find("figcaption").First().Text()
	}
	caption = strings.ToLower(e.normalizer.Text(caption))
	if caption == "" {
		return "", false
	}

	return caption, strings.Contains(caption, strings.ToLower(v.Keyword))
}

func (e *Extractor) blockquote(container *goquery.Selection) string {
	quote := container.Find("blockquote").First()
	if quote.Length() == 0 {
		return ""
	}
	return e.normalizer.Text(quote.Text())
}

// paragraphSet keeps the paragraph texts plus whether the first one carried the
// claim marker (already stripped from texts[0]).
type paragraphSet struct {
	texts   []string
	claimed bool
}

func (e *Extractor) paragraphs(container *goquery.Selection) paragraphSet {
	var set paragraphSet
	container.Find("p").Each(func(i int, p *goquery.Selection) {
		text := e.normalizer.Text(p.Text())
		if i == 0 && claimToken.MatchString(text) {
			set.claimed = true
			text = stripClaim(text)
		}
		set.texts = append(set.texts, text)
	})
	return set
}

func stripClaim(text string) string {
	text = strings.TrimSpace(claimToken.ReplaceAllString(text, ""))
	text = strings.TrimSpace(ratingPlaceholder.ReplaceAllString(text, ""))
	return strings.TrimLeft(text, ": ")
}

func (e *Extractor) claimParagraph(set paragraphSet) string {
	if !set.claimed {
		return ""
	}
	return e.normalizer.JoinParagraphs(set.texts)
}

func (e *Extractor) quotedSentences(set paragraphSet) string {
	var qualifying []string
	for _, text := range set.texts {
		if hasLongQuote(text) {
			qualifying = append(qualifying, text)
		}
	}
	return e.normalizer.JoinParagraphs(qualifying)
}

func hasLongQuote(text string) bool {
	for _, m := range quotedSpan.FindAllStringSubmatch(text, -1) {
		if len(strings.Fields(m[1])) >= minQuotedWords {
			return true
		}
	}
	return false
}
