package scraper

// PaginationMode selects how an archive exposes further entries.
type PaginationMode string

const (
	PaginationNextLink PaginationMode = "next-link"
	PaginationScroll   PaginationMode = "scroll-trigger"
)

// DateSource tells where the publication date of a candidate lives.
type DateSource string

const (
	DateFromListing DateSource = "listing"
	DateFromArticle DateSource = "article"
)

// YearEncoding describes how a year is read out of raw date text.
type YearEncoding string

const (
	// EncodingAttrPrefix is a machine-readable attribute (e.g. datetime="2024-05-01"), year = first 4 chars.
	EncodingAttrPrefix YearEncoding = "attr-prefix"
	// EncodingTextSuffix is free text ending with the year ("May 1, 2024").
	EncodingTextSuffix YearEncoding = "text-suffix"
	// EncodingTextRegex scans free text for a standalone 4-digit year.
	EncodingTextRegex YearEncoding = "text-regex"
)

// UnknownDatePolicy decides what happens to candidates without a readable year.
type UnknownDatePolicy string

const (
	UnknownAsOutOfWindow UnknownDatePolicy = "out-of-window"
	UnknownSkip          UnknownDatePolicy = "skip"
)

// Strategy names one content extraction heuristic.
type Strategy string

const (
	StrategyBlockquote     Strategy = "blockquote"
	StrategyClaimParagraph Strategy = "claim-paragraph"
	StrategyQuotedSentence Strategy = "quoted-sentence"
	StrategyAllParagraphs  Strategy = "all-paragraphs"
)

// Adapter is the per-source configuration. It carries data only.
type Adapter struct {
	Name       string         `yaml:"name"`
	StartURL   string         `yaml:"start_url"`
	BaseURL    string         `yaml:"base_url"`
	Label      string         `yaml:"label"`
	OutputFile string         `yaml:"output_file"`
	MaxRecords int            `yaml:"max_records"`
	Pagination PaginationRule `yaml:"pagination"`
	Listing    ListingRule    `yaml:"listing"`
	Date       DateRule       `yaml:"date"`
	Content    ContentRule    `yaml:"content"`
}

type PaginationRule struct {
	Mode          PaginationMode `yaml:"mode"`
	RootSelector  string         `yaml:"root_selector"`
	NextSelectors []string       `yaml:"next_selectors"`
}

type ListingRule struct {
	EntrySelector string   `yaml:"entry_selector"`
	LinkSelectors []string `yaml:"link_selectors"`
}

type DateRule struct {
	Source        DateSource        `yaml:"source"`
	Locators      []DateLocator     `yaml:"locators"`
	Window        YearWindow        `yaml:"window"`
	StopTolerance int               `yaml:"stop_tolerance"`
	Unknown       UnknownDatePolicy `yaml:"unknown"`
}

// DateLocator points at date text. An empty Attribute means element text.
type DateLocator struct {
	Selector  string       `yaml:"selector"`
	Attribute string       `yaml:"attribute"`
	Encoding  YearEncoding `yaml:"encoding"`
}

// YearWindow is an inclusive range of publication years.
type YearWindow struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

func (w YearWindow) Contains(year int) bool {
	return year >= w.From && year <= w.To
}

type ContentRule struct {
	Selectors  []string     `yaml:"selectors"`
	Strategies []Strategy   `yaml:"strategies"`
	Verdict    *VerdictRule `yaml:"verdict"`
}

// VerdictRule rejects articles whose first caption mentions Keyword.
type VerdictRule struct {
	Keyword  string `yaml:"keyword"`
	Selector string `yaml:"selector"`
}

// ResolveBase returns the URL relative links are resolved against.
func (a *Adapter) ResolveBase() string {
	if a.BaseURL != "" {
		return a.BaseURL
	}
	return a.StartURL
}

// DateText is raw date content together with the encoding of the locator that found it.
type DateText struct {
	Raw      string
	Encoding YearEncoding
}

// Candidate is an article reference discovered in a listing, not yet processed.
type Candidate struct {
	URL   string
	Dates []DateText
}
