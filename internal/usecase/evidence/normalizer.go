// Package evidence turns raw adapter output into a bounded evidence bundle.
package evidence

import (
	"fmt"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// Policy picks the prediction when both models answered.
type Policy string

// Prediction policies.
const (
	PolicyPriceFirst    Policy = "price_first"
	PolicyTimelineFirst Policy = "timeline_first"
)

// ParsePolicy validates a configured policy name. Empty means price first.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyPriceFirst:
		return PolicyPriceFirst, nil
	case PolicyTimelineFirst:
		return PolicyTimelineFirst, nil
	}
	return "", fmt.Errorf("unknown prediction policy %q", s)
}

// factKeys are the metadata keys copied into the bundle's structured facts.
var factKeys = []string{
	"drug_title",
	"drug_name",
	"therapeutic_area",
	"drug_type",
	"submission_pathway",
	"filename",
}

// snippetKeys are tried in order to find the text of a generic hit.
var snippetKeys = []string{"snippet", "text", "content", "summary"}

// Config tunes the normalizer.
type Config struct {
	HomeCountry string
	Policy      Policy
}

// Normalizer builds evidence bundles. It holds no per-call state.
type Normalizer struct {
	cfg Config
}

// New creates a normalizer.
func New(cfg Config) *Normalizer {
	if cfg.HomeCountry == "" {
		cfg.HomeCountry = domain.DefaultHomeCountry
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyPriceFirst
	}
	return &Normalizer{cfg: cfg}
}

// HomeCountry returns the jurisdiction treated as home.
func (n *Normalizer) HomeCountry() string { return n.cfg.HomeCountry }

// Normalize builds the bundle and selects at most one prediction.
// Identical input yields identical output.
func (n *Normalizer) Normalize(query string, results []domain.ToolResult) (domain.EvidenceBundle, *domain.Prediction) {
	b := domain.EvidenceBundle{
		Query:        query,
		Snippets:     []domain.Snippet{},
		Sources:      []domain.SourceRef{},
		Facts:        map[string]string{},
		Jurisdiction: detectJurisdiction(query, n.cfg.HomeCountry),
	}

	var (
		price, timeline *domain.Prediction
		seenText        = make(map[string]struct{})
		seenSource      = make(map[domain.SourceRef]struct{})
	)

	for _, r := range results {
		b.IntentTrace = append(b.IntentTrace, trace(r))
		if r.Err != nil {
			continue
		}

		switch r.Capability {
		case domain.CapabilityRetrieval:
			for _, h := range hits(r) {
				n.addHit(&b, h, seenText, seenSource)
			}
		case domain.CapabilityPricePrediction:
			if p, ok := r.Payload.(map[string]any); ok && price == nil {
				price = normalizePrice(p)
			}
		case domain.CapabilityTimelinePrediction:
			if p, ok := r.Payload.(map[string]any); ok && timeline == nil {
				timeline = normalizeTimeline(p)
			}
		}
	}

	return b, n.choose(price, timeline)
}

func (n *Normalizer) choose(price, timeline *domain.Prediction) *domain.Prediction {
	if n.cfg.Policy == PolicyTimelineFirst {
		if timeline != nil {
			return timeline
		}
		return price
	}
	if price != nil {
		return price
	}
	return timeline
}

// hit is the common shape of typed and generic retrieval hits.
type hit struct {
	text     string
	source   string
	score    float64
	metadata map[string]any
}

func hits(r domain.ToolResult) []hit {
	switch p := r.Payload.(type) {
	case []domain.RetrievalResult:
		out := make([]hit, 0, len(p))
		for _, h := range p {
			text := firstString(h.Metadata, "snippet")
			if text == "" {
				text = h.Text
			}
			if text == "" {
				text = firstString(h.Metadata, "content", "summary")
			}
			out = append(out, hit{text: text, source: h.Source, score: h.Score, metadata: h.Metadata})
		}
		return out
	case []map[string]any:
		out := make([]hit, 0, len(p))
		for _, m := range p {
			out = append(out, genericHit(m, r.Source))
		}
		return out
	case []any:
		out := make([]hit, 0, len(p))
		for _, item := range p {
			if m, ok := item.(map[string]any); ok {
				out = append(out, genericHit(m, r.Source))
			}
		}
		return out
	}
	return nil
}

func genericHit(m map[string]any, source string) hit {
	meta := m
	if inner, ok := m["metadata"].(map[string]any); ok {
		meta = inner
	}
	score, _ := number(m["score"])
	if s := firstString(m, "source"); s != "" {
		source = s
	}
	text := firstString(m, snippetKeys...)
	if text == "" {
		text = firstString(meta, snippetKeys...)
	}
	return hit{text: text, source: source, score: score, metadata: meta}
}

func (n *Normalizer) addHit(
	b *domain.EvidenceBundle, h hit,
	seenText map[string]struct{}, seenSource map[domain.SourceRef]struct{},
) {
	title := firstString(h.metadata, "title", "drug_title", "filename")

	if text := clean(h.text); text != "" && len(b.Snippets) < domain.MaxSnippets {
		if _, dup := seenText[text]; !dup {
			seenText[text] = struct{}{}
			b.Snippets = append(b.Snippets, domain.Snippet{
				Text:   text,
				Source: h.source,
				Title:  title,
				Score:  h.score,
			})
		}
	}

	ref := domain.SourceRef{Title: title, URL: firstString(h.metadata, "url")}
	if (ref.Title != "" || ref.URL != "") && len(b.Sources) < domain.MaxSources {
		if _, dup := seenSource[ref]; !dup {
			seenSource[ref] = struct{}{}
			b.Sources = append(b.Sources, ref)
		}
	}

	for _, k := range factKeys {
		if _, ok := b.Facts[k]; ok {
			continue
		}
		if v := stringValue(h.metadata[k]); v != "" {
			b.Facts[k] = v
		}
	}
}

// trace renders one tool result as capability:source:status.
func trace(r domain.ToolResult) string {
	status := "ok"
	if r.Err != nil {
		status = "error"
	}
	if r.Source == "" {
		return fmt.Sprintf("%s:%s", r.Capability, status)
	}
	return fmt.Sprintf("%s:%s:%s", r.Capability, r.Source, status)
}
