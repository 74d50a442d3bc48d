package domain

// Evidence caps.
const (
	MaxSnippets    = 6
	MaxSources     = 8
	MaxSnippetLen  = 400
	MaxAssumptions = 3
	MaxMilestones  = 5
)

// DefaultHomeCountry is the jurisdiction prices are quoted in.
const DefaultHomeCountry = "Canada"

// DefaultPriceRatios maps countries to their price level relative to
// DefaultHomeCountry.
func DefaultPriceRatios() map[string]float64 {
	return map[string]float64{
		DefaultHomeCountry: 1.00,
		"France":           0.69,
	}
}

// Jurisdiction is the country (and optionally province) a query is about.
type Jurisdiction struct {
	Country  string `json:"country"`
	Province string `json:"province,omitempty"`
}

// Snippet is one cleaned piece of retrieved text.
type Snippet struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Title  string  `json:"title,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// SourceRef is a citation the answer may list.
type SourceRef struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// EvidenceBundle is the bounded, deduplicated context given to the synthesizer.
type EvidenceBundle struct {
	Query        string            `json:"query"`
	Snippets     []Snippet         `json:"snippets"`
	Sources      []SourceRef       `json:"sources"`
	Facts        map[string]string `json:"facts,omitempty"`
	Jurisdiction Jurisdiction      `json:"jurisdiction"`
	IntentTrace  []string          `json:"intent_trace,omitempty"`
}

// Empty reports whether the bundle carries no retrieved evidence at all.
func (b *EvidenceBundle) Empty() bool {
	return len(b.Snippets) == 0 && len(b.Facts) == 0
}
