package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// Verdict is the DateGate classification of one candidate.
type Verdict int

const (
	InWindow Verdict = iota
	OutOfWindow
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case InWindow:
		return "in-window"
	case OutOfWindow:
		return "out-of-window"
	default:
		return "unknown"
	}
}

// Decision is what the gate reports back to the controller.
type Decision struct {
	Verdict Verdict
	Year    int
	Raw     string
}

// Excluded reports whether the candidate must not be fetched/emitted.
func (d Decision) Excluded() bool {
	return d.Verdict != InWindow
}

// DateGate classifies candidates against an inclusive year window. It holds no
// crawl state; the controller keeps the count of tolerated misses.
type DateGate struct {
	rule DateRule
}

func NewDateGate(rule DateRule) *DateGate {
	return &DateGate{rule: rule}
}

// Classify walks the located date texts in order; the first one yielding a year decides.
func (g *DateGate) Classify(dates []DateText) Decision {
	for _, dt := range dates {
		year, ok := g.ExtractYear(dt)
		if !ok {
			continue
		}
		d := Decision{Year: year, Raw: dt.Raw, Verdict: OutOfWindow}
		if g.rule.Window.Contains(year) {
			d.Verdict = InWindow
		}
		return d
	}

	raw := ""
	if len(dates) > 0 {
		raw = dates[0].Raw
	}
	return Decision{Verdict: Unknown, Raw: raw}
}

// ShouldStop applies the sorted-listing assumption: an excluded candidate proves
// everything after it is excluded too, once tolerated misses are used up.
func (g *DateGate) ShouldStop(d Decision, toleratedSoFar int) bool {
	if !d.Excluded() {
		return false
	}
	if d.Verdict == Unknown && g.rule.Unknown == UnknownSkip {
		return false
	}
	return toleratedSoFar >= g.rule.StopTolerance
}

// ExtractYear reads a 4-digit year from raw date text according to its encoding.
func (g *DateGate) ExtractYear(dt DateText) (int, bool) {
	raw := strings.TrimSpace(dt.Raw)

	switch dt.Encoding {
	case EncodingAttrPrefix:
		if len(raw) < 4 {
			return 0, false
		}
		return parseYear(raw[:4])
	case EncodingTextRegex:
		matches := yearPattern.FindAllStringSubmatch(raw, -1)
		first := 0
		for _, m := range matches {
			year, ok := parseYear(m[1])
			if !ok {
				continue
			}
			if g.rule.Window.Contains(year) {
				return year, true
			}
			if first == 0 {
				first = year
			}
		}
		return first, first != 0
	default:
		if len(raw) < 4 {
			return 0, false
		}
		return parseYear(raw[len(raw)-4:])
	}
}

func parseYear(s string) (int, bool) {
	year, err := strconv.Atoi(s)
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}
