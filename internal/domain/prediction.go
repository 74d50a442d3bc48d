package domain

// PredictionType distinguishes the two prediction models.
type PredictionType string

// Prediction types.
const (
	PredictionPrice    PredictionType = "price"
	PredictionTimeline PredictionType = "timeline"
)

// Prediction is the normalized output of a price or timeline model.
//
// For price predictions Value may hold "range" ([2]float64), "point" (float64)
// and "unit" (string). For timeline predictions it may hold "milestones"
// ([]Milestone), "interval_months" ([2]float64) and "eta_date" (string).
type Prediction struct {
	Type        PredictionType `json:"type"`
	Value       map[string]any `json:"value"`
	Confidence  any            `json:"confidence,omitempty"`
	Assumptions []string       `json:"assumptions,omitempty"`
}

// Milestone is one step of a market-access timeline.
type Milestone struct {
	Name string `json:"name"`
	Date string `json:"date,omitempty"`
}

// PriceRange returns the low/high bounds if present.
func (p *Prediction) PriceRange() ([2]float64, bool) {
	if p == nil {
		return [2]float64{}, false
	}
	r, ok := p.Value["range"].([2]float64)
	return r, ok
}

// PricePoint returns the point estimate if present.
func (p *Prediction) PricePoint() (float64, bool) {
	if p == nil {
		return 0, false
	}
	v, ok := p.Value["point"].(float64)
	return v, ok
}
