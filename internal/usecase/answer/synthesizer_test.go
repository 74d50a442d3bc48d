package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/drugqa/internal/domain"
)

// --- Mocks ---

type mockCompleter struct {
	text string
	err  error
	last domain.CompletionRequest
}

func (m *mockCompleter) Complete(_ context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	m.last = req
	return domain.CompletionResult{Text: m.text}, m.err
}

func (m *mockCompleter) userPrompt() string {
	for _, msg := range m.last.Messages {
		if msg.Role == domain.RoleUser {
			return msg.Content
		}
	}
	return ""
}

func priceRange(lo, hi float64) *domain.Prediction {
	return &domain.Prediction{
		Type:  domain.PredictionPrice,
		Value: map[string]any{"range": [2]float64{lo, hi}},
	}
}

func bundle(country, province string) domain.EvidenceBundle {
	return domain.EvidenceBundle{
		Query:        "q",
		Snippets:     []domain.Snippet{{Text: "DrugX was reviewed in 2024."}},
		Sources:      []domain.SourceRef{{Title: "CDA review", URL: "https://cda"}},
		Facts:        map[string]string{"drug_title": "DrugX"},
		Jurisdiction: domain.Jurisdiction{Country: country, Province: province},
	}
}

// --- Tests ---

func TestSynthesize_Fallbacks(t *testing.T) {
	s := New(&mockCompleter{err: errors.New("503")}, Config{})
	if got := s.Synthesize(context.Background(), "q", bundle("Canada", ""), nil); got != FallbackUnavailable {
		t.Errorf("error fallback = %q", got)
	}

	s = New(&mockCompleter{text: "  \n"}, Config{})
	if got := s.Synthesize(context.Background(), "q", bundle("Canada", ""), nil); got != FallbackNoContext {
		t.Errorf("empty fallback = %q", got)
	}
	if FallbackUnavailable == FallbackNoContext {
		t.Error("fallbacks must be distinguishable")
	}
}

func TestSynthesize_HomeJurisdictionUnadjusted(t *testing.T) {
	m := &mockCompleter{text: "DrugX is expected to be priced within the predicted range."}
	s := New(m, Config{})

	got := s.Synthesize(context.Background(), "recommended price for DrugX in Quebec", bundle("Canada", "Quebec"), priceRange(1000, 1200))

	if !strings.Contains(got, "Predicted price: range 1,000–1,200") {
		t.Errorf("unadjusted range missing:\n%s", got)
	}
	if strings.Contains(got, "×") || strings.Contains(m.userPrompt(), "×") {
		t.Errorf("home jurisdiction must not show ratio math:\n%s", got)
	}
	if !strings.Contains(m.userPrompt(), "Jurisdiction: Quebec, Canada") {
		t.Errorf("prompt jurisdiction wrong:\n%s", m.userPrompt())
	}
}

func TestSynthesize_ForeignJurisdictionAdjusted(t *testing.T) {
	m := &mockCompleter{text: "In France the price would be lower."}
	s := New(m, Config{})

	got := s.Synthesize(context.Background(), "price of DrugX in France", bundle("France", ""), priceRange(1000, 1200))

	for _, want := range []string{
		"Predicted price for France: range 690.00–828.00",
		"1,000 × 0.69 = 690.00",
		"1,200 × 0.69 = 828.00",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("answer missing %q:\n%s", want, got)
		}
		if !strings.Contains(m.userPrompt(), want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSynthesize_RequiredLinesNotDuplicated(t *testing.T) {
	line := "Predicted price for France: range 690.00–828.00"
	arith := "Adjusted for France at a ratio of 0.69: 1,000 × 0.69 = 690.00; 1,200 × 0.69 = 828.00."
	m := &mockCompleter{text: "Answer.\n\n" + line + "\n" + arith}
	got := New(m, Config{}).Synthesize(context.Background(), "q", bundle("France", ""), priceRange(1000, 1200))

	if strings.Count(got, "690.00–828.00") != 1 || strings.Count(got, arith) != 1 {
		t.Errorf("lines duplicated:\n%s", got)
	}
}

func TestSynthesize_CaveatsEnforced(t *testing.T) {
	m := &mockCompleter{text: "DrugX is expected at 1,000–1,200.\n\nPredicted price: range 1,000–1,200"}
	got := New(m, Config{}).Synthesize(context.Background(), "price of DrugX", bundle("Canada", ""), priceRange(1000, 1200))

	if strings.Count(got, disclaimerLine) != 1 {
		t.Errorf("expected one non-advice disclaimer:\n%s", got)
	}
	if strings.Count(got, uncertaintyLine) != 1 {
		t.Errorf("expected one uncertainty statement:\n%s", got)
	}
	if strings.Count(got, "Predicted price: range 1,000–1,200") != 1 {
		t.Errorf("headline duplicated:\n%s", got)
	}

	got = New(m, Config{}).Synthesize(context.Background(), "q", bundle("Canada", ""), nil)
	if !strings.Contains(got, disclaimerLine) {
		t.Errorf("disclaimer missing without prediction:\n%s", got)
	}
	if strings.Contains(got, uncertaintyLine) {
		t.Errorf("uncertainty statement without prediction:\n%s", got)
	}
}

func TestSynthesize_UnknownCountryNotAdjusted(t *testing.T) {
	m := &mockCompleter{text: "ok"}
	got := New(m, Config{}).Synthesize(context.Background(), "q", bundle("Japan", ""), priceRange(1000, 1200))
	if strings.Contains(got, "×") {
		t.Errorf("country without ratio adjusted:\n%s", got)
	}
}

func TestSynthesize_LimitationStatements(t *testing.T) {
	m := &mockCompleter{text: "Answer."}
	got := New(m, Config{}).Synthesize(context.Background(), "q", bundle("Canada", ""), nil)
	if !strings.Contains(got, noPredictionLine) {
		t.Errorf("missing limitation statement:\n%s", got)
	}

	got = New(m, Config{}).Synthesize(context.Background(), "q", domain.EvidenceBundle{Jurisdiction: domain.Jurisdiction{Country: "Canada"}}, nil)
	if !strings.Contains(got, noEvidenceLine) {
		t.Errorf("missing no-information statement:\n%s", got)
	}
	if !strings.Contains(m.userPrompt(), "Omit the Sources section") {
		t.Error("prompt must drop Sources when there are none")
	}
}

func TestSynthesize_PromptLayout(t *testing.T) {
	m := &mockCompleter{text: "ok"}
	New(m, Config{Model: "gpt-test"}).Synthesize(context.Background(), "q", bundle("Canada", ""), nil)

	if m.last.Model != "gpt-test" || m.last.Deterministic {
		t.Errorf("unexpected request %+v", m.last)
	}
	sys := m.last.Messages[0].Content
	for _, want := range []string{"Key details", "Caveats", "Sources", "not medical, legal or financial advice", "Canadian"} {
		if !strings.Contains(sys, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	user := m.userPrompt()
	for _, want := range []string{"[1] DrugX was reviewed in 2024.", "- drug_title: DrugX", "- CDA review (https://cda)"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestAdjust(t *testing.T) {
	ratios := domain.DefaultPriceRatios()

	adj := adjust(priceRange(1000, 1200), "France", "Canada", ratios)
	if adj == nil {
		t.Fatal("expected adjustment")
	}
	if r, _ := adj.Prediction.PriceRange(); r != [2]float64{690, 828} {
		t.Errorf("adjusted range = %v", r)
	}
	if adj.Lines[0] != "1,000 × 0.69 = 690.00" {
		t.Errorf("arithmetic line = %q", adj.Lines[0])
	}

	orig := priceRange(1000, 1200)
	_ = adjust(orig, "France", "Canada", ratios)
	if r, _ := orig.PriceRange(); r != [2]float64{1000, 1200} {
		t.Error("adjust mutated its input")
	}

	if adjust(priceRange(1000, 1200), "Canada", "Canada", ratios) != nil {
		t.Error("home jurisdiction must not adjust")
	}
	timeline := &domain.Prediction{Type: domain.PredictionTimeline, Value: map[string]any{"eta_date": "2027"}}
	if adjust(timeline, "France", "Canada", ratios) != nil {
		t.Error("timelines are never adjusted")
	}

	point := &domain.Prediction{Type: domain.PredictionPrice, Value: map[string]any{"point": 1500.0}}
	adj = adjust(point, "France", "Canada", ratios)
	if pt, _ := adj.Prediction.PricePoint(); pt != 1035 {
		t.Errorf("adjusted point = %v", pt)
	}
}

func TestNew_HomeRatioIsOne(t *testing.T) {
	s := New(&mockCompleter{}, Config{Ratios: map[string]float64{"Canada": 1.3, "France": 0.7}})
	if s.cfg.Ratios["Canada"] != 1 {
		t.Errorf("home ratio = %v", s.cfg.Ratios["Canada"])
	}
}

func TestFormatting(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{formatAmount(1000), "1,000"},
		{formatAmount(999), "999"},
		{formatAmount(1234567.5), "1,234,567.50"},
		{formatCents(690), "690.00"},
		{formatCents(6900), "6,900.00"},
		{formatCents(-1500.25), "-1,500.25"},
		{formatRatio(0.69), "0.69"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
