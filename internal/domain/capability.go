package domain

import (
	"slices"
	"strings"
)

// Capability is a closed-vocabulary tag describing what kind of help a query needs.
type Capability string

const (
	// CapabilityRetrieval requests semantic search over document corpora.
	CapabilityRetrieval Capability = "RETRIEVAL"
	// CapabilityPricePrediction requests a price recommendation.
	CapabilityPricePrediction Capability = "PRICE_PREDICTION"
	// CapabilityTimelinePrediction requests a market-access timeline estimate.
	CapabilityTimelinePrediction Capability = "TIMELINE_PREDICTION"
)

// Capabilities lists the whole vocabulary in its canonical order.
var Capabilities = []Capability{
	CapabilityRetrieval,
	CapabilityPricePrediction,
	CapabilityTimelinePrediction,
}

// legacyLabels maps labels emitted by older classifier prompts onto the vocabulary.
var legacyLabels = map[string]Capability{
	"CDA_VECTORDB":         CapabilityRetrieval,
	"USER_VECTORDB":        CapabilityRetrieval,
	"VECTORDB":             CapabilityRetrieval,
	"PRICE_REC_SERVICE":    CapabilityPricePrediction,
	"TIMELINE_REC_SERVICE": CapabilityTimelinePrediction,
}

// ParseCapability maps a label onto the vocabulary. Unknown labels return false.
func ParseCapability(label string) (Capability, bool) {
	norm := strings.ToUpper(strings.TrimSpace(label))
	for _, c := range Capabilities {
		if string(c) == norm {
			return c, true
		}
	}
	c, ok := legacyLabels[norm]
	return c, ok
}

// IsPrediction reports whether c is served by a prediction model.
func (c Capability) IsPrediction() bool {
	return c == CapabilityPricePrediction || c == CapabilityTimelinePrediction
}

// CapabilitySet is an unordered set of capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Has reports set membership.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Add inserts c into the set.
func (s CapabilitySet) Add(c Capability) { s[c] = struct{}{} }

// Sorted returns members in canonical vocabulary order.
func (s CapabilitySet) Sorted() []Capability {
	out := make([]Capability, 0, len(s))
	for _, c := range Capabilities {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Strings returns sorted member names.
func (s CapabilitySet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, c := range sorted {
		out[i] = string(c)
	}
	slices.Sort(out)
	return out
}
