package usecase

import (
	"strings"
	"testing"
)

func TestFinalizeAnswerIdempotent(t *testing.T) {
	inputs := []string{
		"The authenti-\ncation flow needs a token [1], [2].\n\n\nSources: guide.pdf",
		"**Summary:** everything works",
		"plain answer",
		"```json\n{\"id\": 26}\n```",
	}
	for _, in := range inputs {
		once := FinalizeAnswer(in)
		twice := FinalizeAnswer(once)
		if once != twice {
			t.Fatalf("not idempotent:\nonce:  %q\ntwice: %q", once, twice)
		}
	}
}

func TestFinalizeAnswerNeverEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n", "[1], [2]"} {
		out := FinalizeAnswer(in)
		if out != NoContextAnswer {
			t.Fatalf("FinalizeAnswer(%q) = %q, want placeholder", in, out)
		}
	}
}

func TestFinalizeAnswerRepairsHyphenBreaks(t *testing.T) {
	out := FinalizeAnswer("authenti-\ncation is required")
	if !strings.Contains(out, "authentication") {
		t.Fatalf("hyphen break not repaired: %q", out)
	}
}

func TestFinalizeAnswerStripsCitationsButKeepsSourceLines(t *testing.T) {
	in := "The token expires after one hour [1].\nSources: [1] auth-guide.pdf"
	out := FinalizeAnswer(in)
	if strings.Contains(strings.Split(out, "\n")[0], "[1]") {
		t.Fatalf("citation bracket not removed: %q", out)
	}
	if !strings.Contains(out, "Sources: [1] auth-guide.pdf") {
		t.Fatalf("source line mangled: %q", out)
	}
}

func TestFinalizeAnswerPreservesFencedBlocks(t *testing.T) {
	fence := "```json\n{\n  \"id\": 26,\n  \"label\": \"Fraud\"\n}\n```"
	out := FinalizeAnswer("Here is the payload [2]:\n\n" + fence)
	if !strings.Contains(out, fence) {
		t.Fatalf("fenced block modified:\n%q", out)
	}
	if strings.Contains(out, "[2]") {
		t.Fatalf("citation outside fence kept: %q", out)
	}
}

func TestFinalizeAnswerUnwrapsOuterBold(t *testing.T) {
	if out := FinalizeAnswer("**the whole answer**"); out != "the whole answer" {
		t.Fatalf("outer bold kept: %q", out)
	}
	// Interior bold is meaningful and stays.
	in := "**key**: value and **another**"
	if out := FinalizeAnswer(in); out != in {
		t.Fatalf("interior bold mangled: %q", out)
	}
}

func TestFinalizeAnswerStripsEmoji(t *testing.T) {
	out := FinalizeAnswer("Done ✅ the request succeeded 🎉")
	if strings.ContainsRune(out, '✅') || strings.ContainsRune(out, '🎉') {
		t.Fatalf("emoji survived: %q", out)
	}
}

func TestFinalizeAnswerDropsDuplicateHeadersAndLines(t *testing.T) {
	in := "Authentication:\nUse the bearer token for every request.\nAuthentication:\nUse the bearer token for every request.\nTokens expire after one hour."
	out := FinalizeAnswer(in)
	if got := strings.Count(out, "Authentication:"); got != 1 {
		t.Fatalf("duplicate header kept %d times: %q", got, out)
	}
	if got := strings.Count(out, "Use the bearer token"); got != 1 {
		t.Fatalf("repeated line kept %d times: %q", got, out)
	}
	if !strings.Contains(out, "Tokens expire after one hour.") {
		t.Fatalf("distinct line lost: %q", out)
	}
}

func TestFinalizeAnswerRemovesArtifactPhrases(t *testing.T) {
	cases := []struct {
		in     string
		barred string
		keeps  string
	}{
		{
			in:     "Set the header first.\nLooks like an auth/error response from the gateway.",
			barred: "auth/error response",
			keeps:  "Set the header first.",
		},
		{
			in:     "Retry the call. Here's the corrected request you should send.",
			barred: "corrected request",
			keeps:  "Retry the call.",
		},
		{
			in:     "Use the sandbox key.\nFor detailed API requests import the Postman collection.",
			barred: "Postman",
			keeps:  "Use the sandbox key.",
		},
	}
	for _, tc := range cases {
		out := FinalizeAnswer(tc.in)
		if strings.Contains(out, tc.barred) {
			t.Fatalf("artifact phrase survived: %q", out)
		}
		if !strings.Contains(out, tc.keeps) {
			t.Fatalf("real content lost: %q", out)
		}
	}
}
