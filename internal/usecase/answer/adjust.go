package answer

import (
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// Adjustment is a price prediction restated for another jurisdiction.
type Adjustment struct {
	Country    string
	Ratio      float64
	Prediction *domain.Prediction
	// Lines show the arithmetic, one per adjusted bound.
	Lines []string
}

// adjust rescales every numeric bound of a price prediction when the
// jurisdiction is foreign and has a ratio. Nil means no adjustment applies.
func adjust(p *domain.Prediction, country, home string, ratios map[string]float64) *Adjustment {
	if p == nil || p.Type != domain.PredictionPrice || country == "" || country == home {
		return nil
	}
	ratio, ok := ratios[country]
	if !ok {
		return nil
	}

	out := &domain.Prediction{
		Type:        p.Type,
		Value:       maps.Clone(p.Value),
		Confidence:  p.Confidence,
		Assumptions: p.Assumptions,
	}
	var lines []string
	scale := func(v float64) float64 {
		adj := roundCents(v * ratio)
		lines = append(lines, fmt.Sprintf("%s × %s = %s", formatAmount(v), formatRatio(ratio), formatCents(adj)))
		return adj
	}

	if r, ok := p.PriceRange(); ok {
		out.Value["range"] = [2]float64{scale(r[0]), scale(r[1])}
	}
	if pt, ok := p.PricePoint(); ok {
		out.Value["point"] = scale(pt)
	}
	if len(lines) == 0 {
		return nil
	}
	return &Adjustment{Country: country, Ratio: ratio, Prediction: out, Lines: lines}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatAmount renders whole numbers without decimals: 1000 -> "1,000".
func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return group(strconv.FormatFloat(v, 'f', 0, 64))
	}
	return formatCents(v)
}

// formatCents renders two decimals with thousands separators: 6900 -> "6,900.00".
func formatCents(v float64) string {
	return group(strconv.FormatFloat(v, 'f', 2, 64))
}

func formatRatio(r float64) string {
	return strconv.FormatFloat(r, 'f', 2, 64)
}

func group(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
