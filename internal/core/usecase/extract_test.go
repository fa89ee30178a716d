package usecase

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

func chunkWith(id, content string, meta domain.ElementMetadata) domain.Candidate {
	return domain.Candidate{
		Chunk: domain.Chunk{ID: id, DocumentID: "doc-1", Title: "Risk API Guide", Content: content, Metadata: meta},
	}
}

func TestExtractFieldLineReturnsVerbatimPair(t *testing.T) {
	content := `The decline action uses the following reason:
{
  "id": 26,
  "label": "Fraud",
  "context": "merchant"
}`
	candidates := []domain.Candidate{chunkWith("c1", content, domain.ElementMetadata{Page: 12})}

	ex, ok := ExtractVerbatim(domain.IntentIDKey, "what is the id for the fraud reason", candidates)
	if !ok {
		t.Fatalf("expected extraction to succeed")
	}
	if ex.Text != `"id": 26` {
		t.Fatalf("expected verbatim pair, got %q", ex.Text)
	}
	if ex.Tier != domain.ConfidenceHigh {
		t.Fatalf("expected high tier, got %s", ex.Tier)
	}
	if ex.Source == nil || ex.Source.Page != 12 {
		t.Fatalf("expected source page 12, got %+v", ex.Source)
	}
}

func TestExtractFieldLineMatchesLabel(t *testing.T) {
	content := `{"id": 26, "label": "Fraud"}`
	candidates := []domain.Candidate{chunkWith("c1", content, domain.ElementMetadata{})}

	ex, ok := ExtractVerbatim(domain.IntentIDKey, "what is the label for reason 26", candidates)
	if !ok {
		t.Fatalf("expected extraction to succeed")
	}
	if ex.Text != `"label": "Fraud"` {
		t.Fatalf("got %q", ex.Text)
	}
}

func TestExtractJSONPrefersVerbatimBlock(t *testing.T) {
	raw := json.RawMessage(`{"actionId": 1, "reasonId": 26}`)
	candidates := []domain.Candidate{
		chunkWith("c1", "some prose", domain.ElementMetadata{VerbatimJSON: raw}),
		chunkWith("c2", `{"other": true}`, domain.ElementMetadata{}),
	}

	ex, ok := ExtractVerbatim(domain.IntentJSON, "show me the approve request json", candidates)
	if !ok {
		t.Fatalf("expected extraction")
	}
	if !strings.HasPrefix(ex.Text, "```json\n") || !strings.Contains(ex.Text, `"reasonId": 26`) {
		t.Fatalf("expected fenced verbatim block, got %q", ex.Text)
	}
	if ex.Tier != domain.ConfidenceHigh {
		t.Fatalf("expected high tier, got %s", ex.Tier)
	}
}

func TestExtractJSONPrettyPrintsCompactPayload(t *testing.T) {
	raw := json.RawMessage(`{"reasons":[{"id":26,"label":"Fraud"}]}`)
	candidates := []domain.Candidate{
		chunkWith("c1", "termination reasons reference", domain.ElementMetadata{VerbatimJSON: raw}),
	}

	ex, ok := ExtractVerbatim(domain.IntentJSON, "show me the JSON response for termination reasons", candidates)
	if !ok {
		t.Fatalf("expected extraction")
	}
	if !strings.Contains(ex.Text, `"id": 26`) || !strings.Contains(ex.Text, `"label": "Fraud"`) {
		t.Fatalf("expected indented key/value pairs, got %q", ex.Text)
	}
}

func TestExtractJSONScoresByQueryKeys(t *testing.T) {
	candidates := []domain.Candidate{
		chunkWith("c1", "```json\n{\"unrelated\": 1}\n```", domain.ElementMetadata{}),
		chunkWith("c2", "```json\n{\"actionId\": 1, \"reasonId\": 26}\n```", domain.ElementMetadata{}),
	}

	ex, ok := ExtractVerbatim(domain.IntentJSON, "show json with actionId and reasonId", candidates)
	if !ok {
		t.Fatalf("expected extraction")
	}
	if !strings.Contains(ex.Text, "actionId") {
		t.Fatalf("expected the key-matching block, got %q", ex.Text)
	}
}

func TestExtractJSONRejectsInvalidBlocks(t *testing.T) {
	candidates := []domain.Candidate{
		chunkWith("c1", "{not valid json at all", domain.ElementMetadata{}),
	}
	if _, ok := ExtractVerbatim(domain.IntentJSON, "show me the json", candidates); ok {
		t.Fatalf("expected no extraction from invalid JSON")
	}
}

func TestNormalizeEndpointLine(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Use POST /v1/risk-evaluation/boarding- case to submit", "POST /v1/risk-evaluation/boarding-case"},
		{"GET https://api.example.com/v1/reports", "GET /v1/reports"},
		{"DELETE /v1//cases/(caseId)", "DELETE /v1/cases/{caseid}"},
	}
	for _, tc := range cases {
		got, ok := normalizeEndpointLine(tc.in)
		if !ok {
			t.Fatalf("normalizeEndpointLine(%q) found nothing", tc.in)
		}
		if got != tc.want {
			t.Fatalf("normalizeEndpointLine(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, ok := normalizeEndpointLine("get the report from the portal"); ok {
		t.Fatalf("lowercase verbs must not parse as methods")
	}
}

func TestExtractEndpointListsAllTaggedRoutes(t *testing.T) {
	candidates := []domain.Candidate{
		chunkWith("c1", "prose", domain.ElementMetadata{
			Endpoint: &domain.EndpointData{Method: "get", Path: "/v1/risk-evaluation/action-reasons"},
		}),
		chunkWith("c2", "prose", domain.ElementMetadata{
			Endpoint: &domain.EndpointData{Method: "post", Path: "/v1/risk-evaluation/boarding-case"},
		}),
	}

	ex, ok := ExtractVerbatim(domain.IntentEndpoint, "which endpoint submits the boarding case", candidates)
	if !ok {
		t.Fatalf("expected extraction")
	}
	lines := strings.Split(ex.Text, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected both tagged routes listed, got %q", ex.Text)
	}
	if lines[0] != "POST /v1/risk-evaluation/boarding-case" {
		t.Fatalf("expected query-matching route first, got %q", lines[0])
	}
	if lines[1] != "GET /v1/risk-evaluation/action-reasons" {
		t.Fatalf("expected remaining route listed, got %q", lines[1])
	}
}

func TestExtractEndpointPrefersQueryMatch(t *testing.T) {
	candidates := []domain.Candidate{
		chunkWith("c1", "GET /v1/risk-evaluation/action-reasons\nGET /v1/risk-evaluation/boarding-case/{boardingCaseID}", domain.ElementMetadata{}),
	}

	ex, ok := ExtractVerbatim(domain.IntentEndpoint, "which endpoint returns the boarding case", candidates)
	if !ok {
		t.Fatalf("expected extraction")
	}
	if !strings.Contains(ex.Text, "boarding-case") {
		t.Fatalf("expected boarding-case endpoint, got %q", ex.Text)
	}
}

func TestExtractTableFromMetadata(t *testing.T) {
	meta := domain.ElementMetadata{
		Kind: domain.ElementTable,
		Table: &domain.TableData{
			Headers: []string{"Code", "Description"},
			Rows:    [][]string{{"200", "OK"}, {"404", "Not Found"}},
		},
	}
	candidates := []domain.Candidate{chunkWith("c1", "", meta)}

	ex, ok := ExtractVerbatim(domain.IntentTable, "status codes table", candidates)
	if !ok {
		t.Fatalf("expected extraction")
	}
	want := "| Code | Description |\n|---|---|\n| 200 | OK |\n| 404 | Not Found |"
	if ex.Text != want {
		t.Fatalf("table markdown mismatch:\n%q\nwant\n%q", ex.Text, want)
	}
}

func TestExtractStatusTableFromProse(t *testing.T) {
	content := `Status codes
200 OK
400 Bad Request: incorrect or insufficient data
401 Unauthorized
500 Internal Server Error`
	candidates := []domain.Candidate{chunkWith("c1", content, domain.ElementMetadata{})}

	ex, ok := ExtractVerbatim(domain.IntentTable, "what are the http status codes", candidates)
	if !ok {
		t.Fatalf("expected status table extraction")
	}
	if !strings.Contains(ex.Text, "| 400 | Bad Request |") {
		t.Fatalf("expected parsed status rows, got %q", ex.Text)
	}
	if ex.Tier != domain.ConfidenceHigh {
		t.Fatalf("expected high tier with 200 and error codes, got %s", ex.Tier)
	}
}

func TestExtractWorkflowOrdersSteps(t *testing.T) {
	candidates := []domain.Candidate{
		{Chunk: domain.Chunk{ID: "c2", DocumentID: "doc-1", ChunkIndex: 5, Content: "3. Poll the status endpoint\n4. Handle the final result"}},
		{Chunk: domain.Chunk{ID: "c1", DocumentID: "doc-1", ChunkIndex: 2, Content: "1. Request an access token\n2. Start the session"}},
	}

	ex, ok := ExtractVerbatim(domain.IntentWorkflow, "how do I integrate", candidates)
	if !ok {
		t.Fatalf("expected extraction")
	}
	want := "1. Request an access token\n2. Start the session\n3. Poll the status endpoint\n4. Handle the final result"
	if ex.Text != want {
		t.Fatalf("steps out of order:\n%q", ex.Text)
	}
}

func TestExtractEmailPrefersFooter(t *testing.T) {
	candidates := []domain.Candidate{
		chunkWith("c1", "Reach us at sales@vendor.com for pricing.", domain.ElementMetadata{}),
		chunkWith("c2", "Contact support@vendor.com", domain.ElementMetadata{Kind: domain.ElementFooter}),
	}

	ex, ok := ExtractVerbatim(domain.IntentContact, "what is the support email", candidates)
	if !ok {
		t.Fatalf("expected extraction")
	}
	if ex.Text != "support@vendor.com" {
		t.Fatalf("expected footer email, got %q", ex.Text)
	}
	if ex.Tier != domain.ConfidenceHigh {
		t.Fatalf("footer email should be high tier, got %s", ex.Tier)
	}
}

func TestExtractEmailPlaceholderDomainIsMedium(t *testing.T) {
	candidates := []domain.Candidate{
		chunkWith("c1", "Contact help@example.com", domain.ElementMetadata{Kind: domain.ElementFooter}),
	}
	ex, ok := ExtractVerbatim(domain.IntentContact, "contact email", candidates)
	if !ok {
		t.Fatalf("expected extraction")
	}
	if ex.Tier != domain.ConfidenceMedium {
		t.Fatalf("placeholder domain should be medium tier, got %s", ex.Tier)
	}
}

func TestExtractHeaderSchema(t *testing.T) {
	content := "All calls require:\nAuthorization: Bearer <access_token>\nZs-Product-Key: <subscription_key>"
	candidates := []domain.Candidate{chunkWith("c1", content, domain.ElementMetadata{})}

	ex, ok := ExtractVerbatim(domain.IntentOneLine, "which headers are required", candidates)
	if !ok {
		t.Fatalf("expected extraction")
	}
	if !strings.Contains(ex.Text, "Authorization: Bearer <access_token>") ||
		!strings.Contains(ex.Text, "Zs-Product-Key: <subscription_key>") {
		t.Fatalf("expected both header lines, got %q", ex.Text)
	}
	if !strings.HasPrefix(ex.Text, "```http\n") {
		t.Fatalf("expected http fence, got %q", ex.Text)
	}
}

func TestExtractVerbatimDefaultIntentDeclines(t *testing.T) {
	candidates := []domain.Candidate{chunkWith("c1", "some prose", domain.ElementMetadata{})}
	if _, ok := ExtractVerbatim(domain.IntentDefault, "tell me things", candidates); ok {
		t.Fatalf("DEFAULT intent must not extract verbatim")
	}
}
