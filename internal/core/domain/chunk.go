package domain

import (
	"encoding/json"
	"fmt"
)

// ElementKind discriminates what a chunk's source element was when the
// document was segmented. Unknown values decode as ElementParagraph.
type ElementKind string

const (
	ElementParagraph ElementKind = "paragraph"
	ElementTable     ElementKind = "table"
	ElementJSON      ElementKind = "json"
	ElementEndpoint  ElementKind = "endpoint"
	ElementStep      ElementKind = "step"
	ElementFooter    ElementKind = "footer"
)

// TableData is the structured payload of a table element.
type TableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// EndpointData is the structured payload of an API endpoint element.
type EndpointData struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Note   string `json:"note,omitempty"`
}

// ElementMetadata is decoded once from the chunk's jsonb column. A chunk
// with malformed or missing metadata carries the zero value, which fails
// every must-filter instead of erroring.
type ElementMetadata struct {
	Kind         ElementKind     `json:"element_type,omitempty"`
	Page         int             `json:"page,omitempty"`
	SectionPath  string          `json:"section_path,omitempty"`
	HasJSON      bool            `json:"hasJson,omitempty"`
	VerbatimJSON json.RawMessage `json:"verbatim_block,omitempty"`
	Table        *TableData      `json:"table,omitempty"`
	Endpoint     *EndpointData   `json:"endpoint,omitempty"`
	StepText     string          `json:"step_text,omitempty"`
}

// Chunk is one pre-computed passage of a document. Owned by the ingestion
// pipeline; this engine only reads them.
type Chunk struct {
	ID          string          `json:"id"`
	DocumentID  string          `json:"document_id"`
	Content     string          `json:"content"`
	ChunkIndex  int             `json:"chunk_index"`
	SectionPath string          `json:"section_path,omitempty"`
	Title       string          `json:"title,omitempty"`
	Metadata    ElementMetadata `json:"metadata"`
}

// Page resolves the page number, preferring the chunk-level section path's
// companion metadata.
func (c Chunk) Page() int {
	return c.Metadata.Page
}

// SectionName is the human-readable section path, empty when the chunk
// has none.
func (c Chunk) SectionName() string {
	if c.SectionPath != "" {
		return c.SectionPath
	}
	return c.Metadata.SectionPath
}

// Section resolves the diversity key for a chunk: the section path when
// present, otherwise the page identity.
func (c Chunk) Section() string {
	if name := c.SectionName(); name != "" {
		return name
	}
	return fmt.Sprintf("page-%d", c.Metadata.Page)
}

// Candidate is one chunk under consideration for a single query. Never
// persisted; created fresh per request.
type Candidate struct {
	Chunk Chunk

	VectorScore float64
	TextScore   float64
	HybridScore float64
}
