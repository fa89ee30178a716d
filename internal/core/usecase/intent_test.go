package usecase

import (
	"testing"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

func TestClassifyIntentRouting(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  domain.Intent
	}{
		{"json verb", "show me the error response json", domain.IntentJSON},
		{"json payload", "what does the request body payload look like", domain.IntentJSON},
		{"table", "list the status codes as a markdown table", domain.IntentTable},
		{"endpoint method", "GET /v1/risk-evaluation/boarding-case", domain.IntentEndpoint},
		{"endpoint ask", "which endpoint returns the boarding case", domain.IntentEndpoint},
		{"workflow", "how do I integrate the polling workflow", domain.IntentWorkflow},
		{"contact", "what is the support email", domain.IntentContact},
		{"idkey", "what is the reasonId for fraud", domain.IntentIDKey},
		{"one line", "in one line, what is the difference between auth and sign", domain.IntentOneLine},
		{"default", "tell me about the product", domain.IntentDefault},
		{"greeting", "hello!", domain.IntentDefault},
		{"blank", "   ", domain.IntentDefault},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyIntent(tc.query); got != tc.want {
				t.Fatalf("ClassifyIntent(%q) = %s, want %s", tc.query, got, tc.want)
			}
		})
	}
}

func TestClassifyIntentJSONWinsOverTable(t *testing.T) {
	// A query naming both shapes routes to JSON because the rule order
	// checks it first.
	if got := ClassifyIntent("show me the json table of components"); got != domain.IntentJSON {
		t.Fatalf("expected JSON, got %s", got)
	}
}

func TestClassifyIntentIDKeyStopwords(t *testing.T) {
	// Words that merely end in "id" must not trigger the field-name rule.
	for _, q := range []string{"is this a valid approach", "we already paid for it"} {
		if got := ClassifyIntent(q); got == domain.IntentIDKey {
			t.Fatalf("ClassifyIntent(%q) wrongly classified IDKEY", q)
		}
	}
}

func TestClassifyIntentContactExcludesAuthTopics(t *testing.T) {
	if got := ClassifyIntent("what is the support token header for authentication"); got == domain.IntentContact {
		t.Fatalf("auth-flavored query wrongly classified CONTACT")
	}
}
