package domain

// SourceFederated tags results merged from several retrieval sources.
const SourceFederated = "federated"

// MaxTopK bounds the number of chunks one query may request.
const MaxTopK = 100

// RetrievalResult is one ranked search hit.
type RetrievalResult struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    float64        `json:"score"`
	Rank     int            `json:"rank"`
	Source   string         `json:"source"`
}

// ToolResult is the outcome of one orchestrated adapter invocation.
// Exactly one of Payload and Err is meaningful.
type ToolResult struct {
	Capability Capability
	Source     string
	Payload    any
	Err        error
}

// OK reports whether the invocation succeeded.
func (r ToolResult) OK() bool { return r.Err == nil }

// Retrieval returns the payload as retrieval hits when it holds them.
func (r ToolResult) Retrieval() ([]RetrievalResult, bool) {
	if r.Err != nil {
		return nil, false
	}
	hits, ok := r.Payload.([]RetrievalResult)
	return hits, ok
}
