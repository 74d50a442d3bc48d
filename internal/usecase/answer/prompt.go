package answer

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

const systemPrompt = `You are a pharmaceutical market-access assistant working in the Canadian context.
Write in a formal, precise tone. Structure every answer in exactly this order:
1. A direct answer of one to three sentences.
2. "Key details": a short bulleted list drawn from the context.
3. "Caveats": the assumptions behind the answer and a statement that it is not medical, legal or financial advice. When a prediction is given, also state that it is an estimate with uncertainty.
4. "Sources": the listed sources. Leave this section out entirely when no sources are listed.
Use only figures that appear in the context. Never invent prices, dates or other numbers.
Copy every line under "Required lines" into the Caveats section verbatim.`

const (
	noPredictionLine = "No price or timeline prediction is available for this question; " +
		"the answer is limited to the retrieved documents."
	uncertaintyLine = "The prediction is a model estimate and carries uncertainty; " +
		"actual outcomes may differ."
	noEvidenceLine = "No information was found in the available sources for this question."
	disclaimerLine = "This information is not medical, legal or financial advice."
)

// prompt is the rendered user message plus the lines the answer must contain.
type prompt struct {
	text     string
	required []string
}

func (s *Synthesizer) buildPrompt(query string, b domain.EvidenceBundle, p *domain.Prediction) prompt {
	var (
		sb       strings.Builder
		required []string
	)

	fmt.Fprintf(&sb, "Question: %s\n", query)
	fmt.Fprintf(&sb, "Jurisdiction: %s", jurisdiction(b.Jurisdiction))
	if b.Jurisdiction.Country != "" && b.Jurisdiction.Country != s.cfg.HomeCountry {
		fmt.Fprintf(&sb, " (prices are quoted from %s)", s.cfg.HomeCountry)
	}
	sb.WriteString("\n\n")

	if len(b.Snippets) > 0 {
		sb.WriteString("Evidence:\n")
		for i, sn := range b.Snippets {
			if sn.Title != "" {
				fmt.Fprintf(&sb, "[%d] (%s) %s\n", i+1, sn.Title, sn.Text)
			} else {
				fmt.Fprintf(&sb, "[%d] %s\n", i+1, sn.Text)
			}
		}
		sb.WriteString("\n")
	}

	if len(b.Facts) > 0 {
		sb.WriteString("Facts:\n")
		for _, k := range slices.Sorted(maps.Keys(b.Facts)) {
			fmt.Fprintf(&sb, "- %s: %s\n", k, b.Facts[k])
		}
		sb.WriteString("\n")
	}

	switch {
	case p != nil:
		adj := adjust(p, b.Jurisdiction.Country, s.cfg.HomeCountry, s.cfg.Ratios)
		shown := p
		if adj != nil {
			shown = adj.Prediction
		}
		headline, lines := predictionLines(shown, adj)
		sb.WriteString("Prediction:\n")
		if headline != "" {
			fmt.Fprintf(&sb, "- %s\n", headline)
			required = append(required, headline)
		}
		for _, l := range lines {
			fmt.Fprintf(&sb, "- %s\n", l)
		}
		sb.WriteString("\n")
		if adj != nil {
			required = append(required, fmt.Sprintf("Adjusted for %s at a ratio of %s: %s.",
				adj.Country, formatRatio(adj.Ratio), strings.Join(adj.Lines, "; ")))
		}
	case b.Empty():
		required = append(required, noEvidenceLine)
	default:
		required = append(required, noPredictionLine)
	}
	if p != nil {
		required = append(required, uncertaintyLine)
	}
	required = append(required, disclaimerLine)

	if len(b.Sources) > 0 {
		sb.WriteString("Sources:\n")
		for _, src := range b.Sources {
			switch {
			case src.Title != "" && src.URL != "":
				fmt.Fprintf(&sb, "- %s (%s)\n", src.Title, src.URL)
			case src.Title != "":
				fmt.Fprintf(&sb, "- %s\n", src.Title)
			default:
				fmt.Fprintf(&sb, "- %s\n", src.URL)
			}
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("Sources: none. Omit the Sources section.\n\n")
	}

	sb.WriteString("Required lines:\n")
	for _, l := range required {
		sb.WriteString(l + "\n")
	}

	return prompt{text: strings.TrimRight(sb.String(), "\n"), required: required}
}

func jurisdiction(j domain.Jurisdiction) string {
	switch {
	case j.Country == "":
		return "unspecified"
	case j.Province != "":
		return j.Province + ", " + j.Country
	default:
		return j.Country
	}
}

// predictionLines renders the prediction. headline is the price estimate, if any.
func predictionLines(p *domain.Prediction, adj *Adjustment) (headline string, lines []string) {
	num := formatAmount
	if adj != nil {
		num = formatCents
	}
	unit := ""
	if u, ok := p.Value["unit"].(string); ok && u != "" {
		unit = " " + u
	}

	switch p.Type {
	case domain.PredictionPrice:
		var parts []string
		if r, ok := p.PriceRange(); ok {
			parts = append(parts, fmt.Sprintf("range %s–%s%s", num(r[0]), num(r[1]), unit))
		}
		if pt, ok := p.PricePoint(); ok {
			parts = append(parts, fmt.Sprintf("point estimate %s%s", num(pt), unit))
		}
		if len(parts) > 0 {
			label := "Predicted price"
			if adj != nil {
				label = "Predicted price for " + adj.Country
			}
			headline = label + ": " + strings.Join(parts, ", ")
		}
	case domain.PredictionTimeline:
		if ms, ok := p.Value["milestones"].([]domain.Milestone); ok {
			for _, m := range ms {
				if m.Date != "" {
					lines = append(lines, fmt.Sprintf("Milestone: %s (%s)", m.Name, m.Date))
				} else {
					lines = append(lines, "Milestone: "+m.Name)
				}
			}
		}
		if r, ok := p.Value["interval_months"].([2]float64); ok {
			lines = append(lines, fmt.Sprintf("Expected interval: %s–%s months", formatAmount(r[0]), formatAmount(r[1])))
		}
		if eta, ok := p.Value["eta_date"].(string); ok {
			lines = append(lines, "Estimated date: "+eta)
		}
	}

	if p.Confidence != nil {
		lines = append(lines, fmt.Sprintf("Model confidence: %v", p.Confidence))
	}
	for _, a := range p.Assumptions {
		lines = append(lines, "Assumption: "+a)
	}
	return headline, lines
}
