package evidence

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// normalizePrice keeps range, point and unit from a price model payload.
// Nil means the payload carried no usable estimate.
func normalizePrice(p map[string]any) *domain.Prediction {
	p = unwrap(p)
	v := make(map[string]any)

	if r, ok := pair(first(p, "range", "range_cad")); ok {
		v["range"] = r
	} else {
		lo, okLo := number(first(p, "low", "low_cad", "min", "min_cad"))
		hi, okHi := number(first(p, "high", "high_cad", "max", "max_cad"))
		if okLo && okHi {
			v["range"] = ordered(lo, hi)
		}
	}
	if pt, ok := number(first(p, "point", "point_cad")); ok {
		v["point"] = pt
	}
	if len(v) == 0 {
		return nil
	}
	if unit := firstString(p, "unit"); unit != "" {
		v["unit"] = unit
	}
	return &domain.Prediction{
		Type:        domain.PredictionPrice,
		Value:       v,
		Confidence:  p["confidence"],
		Assumptions: assumptions(p["assumptions"]),
	}
}

// normalizeTimeline keeps milestones, interval_months and eta_date.
func normalizeTimeline(p map[string]any) *domain.Prediction {
	p = unwrap(p)
	v := make(map[string]any)

	if raw, ok := p["milestones"].([]any); ok {
		var ms []domain.Milestone
		for _, item := range raw {
			if len(ms) == domain.MaxMilestones {
				break
			}
			switch m := item.(type) {
			case map[string]any:
				name := firstString(m, "name", "milestone")
				date := firstString(m, "date", "eta")
				if name != "" || date != "" {
					ms = append(ms, domain.Milestone{Name: name, Date: date})
				}
			case string:
				if s := strings.TrimSpace(m); s != "" {
					ms = append(ms, domain.Milestone{Name: s})
				}
			}
		}
		if len(ms) > 0 {
			v["milestones"] = ms
		}
	}
	if r, ok := pair(p["interval_months"]); ok {
		v["interval_months"] = r
	} else if n, ok := number(p["interval_months"]); ok {
		v["interval_months"] = [2]float64{n, n}
	}
	if eta := firstString(p, "eta_date"); eta != "" {
		v["eta_date"] = eta
	}
	if len(v) == 0 {
		return nil
	}
	return &domain.Prediction{
		Type:        domain.PredictionTimeline,
		Value:       v,
		Confidence:  p["confidence"],
		Assumptions: assumptions(p["assumptions"]),
	}
}

// unwrap descends into a nested "prediction" object when the model wraps its output.
func unwrap(p map[string]any) map[string]any {
	if inner, ok := p["prediction"].(map[string]any); ok {
		return inner
	}
	return p
}

func first(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func pair(v any) ([2]float64, bool) {
	switch x := v.(type) {
	case [2]float64:
		return x, true
	case []float64:
		if len(x) == 2 {
			return ordered(x[0], x[1]), true
		}
	case []any:
		if len(x) == 2 {
			lo, ok1 := number(x[0])
			hi, ok2 := number(x[1])
			if ok1 && ok2 {
				return ordered(lo, hi), true
			}
		}
	}
	return [2]float64{}, false
}

func ordered(a, b float64) [2]float64 {
	if a > b {
		a, b = b, a
	}
	return [2]float64{a, b}
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		s := strings.NewReplacer(",", "", "$", "", " ", "").Replace(x)
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func assumptions(v any) []string {
	var out []string
	add := func(s string) {
		if s = clean(s); s != "" && len(out) < domain.MaxAssumptions {
			out = append(out, s)
		}
	}
	switch x := v.(type) {
	case string:
		add(x)
	case []string:
		for _, s := range x {
			add(s)
		}
	case []any:
		for _, item := range x {
			add(stringValue(item))
		}
	}
	return out
}
