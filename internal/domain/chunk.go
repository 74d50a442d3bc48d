package domain

import "time"

// Chunk is one contiguous piece of a source document stored in a tenant index.
type Chunk struct {
	ID                string    `msgpack:"id" json:"id"`
	Text              string    `msgpack:"text" json:"text"`
	Source            string    `msgpack:"source" json:"source"`
	DrugID            string    `msgpack:"drug_id,omitempty" json:"drug_id,omitempty"`
	DrugTitle         string    `msgpack:"drug_title,omitempty" json:"drug_title,omitempty"`
	FileID            string    `msgpack:"file_id,omitempty" json:"file_id,omitempty"`
	Filename          string    `msgpack:"filename,omitempty" json:"filename,omitempty"`
	URL               string    `msgpack:"url,omitempty" json:"url,omitempty"`
	ChunkIndex        int       `msgpack:"chunk_index" json:"chunk_index"`
	PageNumber        int       `msgpack:"page_number,omitempty" json:"page_number,omitempty"`
	TherapeuticArea   string    `msgpack:"therapeutic_area,omitempty" json:"therapeutic_area,omitempty"`
	DrugType          string    `msgpack:"drug_type,omitempty" json:"drug_type,omitempty"`
	SubmissionPathway string    `msgpack:"submission_pathway,omitempty" json:"submission_pathway,omitempty"`
	WordCount         int       `msgpack:"word_count" json:"word_count"`
	CharCount         int       `msgpack:"char_count" json:"char_count"`
	CreatedAt         time.Time `msgpack:"created_at" json:"created_at"`

	// Slot is the vector position inside the index. Not stable across rebuilds.
	Slot int `msgpack:"slot" json:"slot"`
}

// Metadata flattens the chunk into the loose map carried by retrieval results.
// Empty optional fields are left out.
func (c *Chunk) Metadata() map[string]any {
	m := map[string]any{
		"chunk_id":    c.ID,
		"source":      c.Source,
		"chunk_index": c.ChunkIndex,
		"word_count":  c.WordCount,
		"char_count":  c.CharCount,
		"slot":        c.Slot,
	}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("drug_id", c.DrugID)
	put("drug_title", c.DrugTitle)
	put("file_id", c.FileID)
	put("filename", c.Filename)
	put("url", c.URL)
	put("therapeutic_area", c.TherapeuticArea)
	put("drug_type", c.DrugType)
	put("submission_pathway", c.SubmissionPathway)
	if c.PageNumber > 0 {
		m["page_number"] = c.PageNumber
	}
	if !c.CreatedAt.IsZero() {
		m["created_at"] = c.CreatedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// Title picks the best human-readable label for citing the chunk.
func (c *Chunk) Title() string {
	switch {
	case c.DrugTitle != "":
		return c.DrugTitle
	case c.Filename != "":
		return c.Filename
	default:
		return c.Source
	}
}
