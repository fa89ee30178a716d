package domain

// Intent is the closed set of query intents the engine routes on.
type Intent string

const (
	IntentJSON     Intent = "JSON"
	IntentTable    Intent = "TABLE"
	IntentEndpoint Intent = "ENDPOINT"
	IntentWorkflow Intent = "WORKFLOW"
	IntentContact  Intent = "CONTACT"
	IntentIDKey    Intent = "IDKEY"
	IntentOneLine  Intent = "ONE_LINE"
	IntentDefault  Intent = "DEFAULT"
)

// MetadataFilter is a hard constraint on chunk metadata.
type MetadataFilter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PreferKind is a soft tiebreak hint consumed downstream of filtering.
type PreferKind string

const (
	PreferNone   PreferKind = ""
	PreferJSON   PreferKind = "json"
	PreferTable  PreferKind = "table"
	PreferFooter PreferKind = "footer"
)

// SearchPlan is derived purely from the intent.
type SearchPlan struct {
	K      int              `json:"k"`
	Must   []MetadataFilter `json:"must,omitempty"`
	Prefer PreferKind       `json:"prefer,omitempty"`
}

// Filtered reports whether the plan carries any hard constraint.
func (p SearchPlan) Filtered() bool {
	return len(p.Must) > 0
}

// ConfidenceLevel buckets retrieval quality.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// RetrieveOpts scopes one retrieval request to a document collection.
type RetrieveOpts struct {
	Query          string `json:"query"`
	OrganizationID string `json:"organization_id"`
	DatasetID      string `json:"dataset_id"`
	K              int    `json:"k,omitempty"`
	Intent         Intent `json:"intent,omitempty"`
}

// RetrievalSource is one selected passage returned to the caller.
type RetrievalSource struct {
	ID          string  `json:"id"`
	DocumentID  string  `json:"document_id"`
	Content     string  `json:"content"`
	Score       float64 `json:"score"`
	Page        int     `json:"page,omitempty"`
	SectionPath string  `json:"section_path,omitempty"`
	ChunkIndex  int     `json:"chunk_index"`
	Title       string  `json:"title,omitempty"`
}

// RetrievalMeta is observational data about one retrieval. Never persisted.
type RetrievalMeta struct {
	Top1              float64         `json:"top1"`
	ScoreGap          float64         `json:"score_gap"`
	UniqueSections    int             `json:"unique_sections"`
	FallbackTriggered bool            `json:"fallback_triggered"`
	ConfidenceLevel   ConfidenceLevel `json:"confidence_level"`
	RetrievalTimeMs   int64           `json:"retrieval_time_ms"`
	Intent            Intent          `json:"intent"`
	ExpansionStrategy []string        `json:"expansion_strategy,omitempty"`
	NoContext         bool            `json:"no_context,omitempty"`
}

// AnswerMode says how the final answer text was produced.
type AnswerMode string

const (
	ModeVerbatim  AnswerMode = "verbatim"
	ModeGenerated AnswerMode = "generated"
	ModeNoContext AnswerMode = "no_context"
)

// AnswerSource points at the passage a verbatim answer was lifted from.
type AnswerSource struct {
	Title string `json:"title"`
	Page  int    `json:"page,omitempty"`
}

// Answer is the final user-facing result of one query.
type Answer struct {
	Text     string            `json:"text"`
	Mode     AnswerMode        `json:"mode"`
	Tier     ConfidenceLevel   `json:"tier"`
	Contexts []RetrievalSource `json:"contexts"`
	Meta     RetrievalMeta     `json:"meta"`
}
