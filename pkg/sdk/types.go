package drugqa

import "time"

// Capability names returned in Answer.Capabilities.
const (
	CapabilityRetrieval          = "RETRIEVAL"
	CapabilityPricePrediction    = "PRICE_PREDICTION"
	CapabilityTimelinePrediction = "TIMELINE_PREDICTION"
)

// PublicTenant is the shared regulatory corpus.
const PublicTenant = "public"

// AskRequest is one question. Tenants defaults to the public corpus.
type AskRequest struct {
	Query   string   `json:"query"`
	Tenants []string `json:"tenants,omitempty"`
	Source  string   `json:"source,omitempty"`
	DrugID  string   `json:"drug_id,omitempty"`
	TopK    int      `json:"top_k,omitempty"`
}

// Answer is the synthesized text plus the evidence behind it.
type Answer struct {
	Answer       string      `json:"answer"`
	Capabilities []string    `json:"capabilities"`
	Evidence     Evidence    `json:"evidence"`
	Prediction   *Prediction `json:"prediction,omitempty"`
	Usage        Usage       `json:"usage"`
}

// Evidence is the bounded context the answer was written from.
type Evidence struct {
	Query        string            `json:"query"`
	Snippets     []Snippet         `json:"snippets"`
	Sources      []Source          `json:"sources"`
	Facts        map[string]string `json:"facts,omitempty"`
	Jurisdiction Jurisdiction      `json:"jurisdiction"`
	IntentTrace  []string          `json:"intent_trace,omitempty"`
}

// Snippet is one retrieved passage.
type Snippet struct {
	Text   string  `json:"text"`
	Source string  `json:"source,omitempty"`
	Title  string  `json:"title,omitempty"`
	Score  float64 `json:"score,omitempty"`
}

// Source is a citation.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Jurisdiction is the country, and for Canada optionally the province, a question is about.
type Jurisdiction struct {
	Country  string `json:"country"`
	Province string `json:"province,omitempty"`
}

// Prediction is a price or timeline model output in home-country terms.
// Price values hold "range", "point" and "unit"; timeline values hold
// "milestones", "interval_months" and "eta_date".
type Prediction struct {
	Type        string         `json:"type"`
	Value       map[string]any `json:"value"`
	Confidence  any            `json:"confidence,omitempty"`
	Assumptions []string       `json:"assumptions,omitempty"`
}

// Usage reports tokens spent on one answer.
type Usage struct {
	EmbeddingTokens  int `json:"embedding_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Document is extracted text plus its lineage. When Pages is set each page
// is chunked separately so chunks keep their page number.
type Document struct {
	DrugID            string   `json:"drug_id"`
	DrugTitle         string   `json:"drug_title,omitempty"`
	FileID            string   `json:"file_id"`
	Filename          string   `json:"filename,omitempty"`
	URL               string   `json:"url,omitempty"`
	Source            string   `json:"source,omitempty"`
	TherapeuticArea   string   `json:"therapeutic_area,omitempty"`
	DrugType          string   `json:"drug_type,omitempty"`
	SubmissionPathway string   `json:"submission_pathway,omitempty"`
	Text              string   `json:"text,omitempty"`
	Pages             []string `json:"pages,omitempty"`
}

// IngestResult lists the chunks written by one ingest call.
type IngestResult struct {
	Tenant   string   `json:"tenant"`
	ChunkIDs []string `json:"chunk_ids"`
}

// Stats describes one tenant index.
type Stats struct {
	Tenant    string    `json:"tenant"`
	Chunks    int       `json:"chunks"`
	Dimension int       `json:"dimension"`
	Drugs     int       `json:"drugs"`
	Files     int       `json:"files"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

type ingestRequest struct {
	Documents []Document `json:"documents"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}
