package usecase

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

// Intent classification is an ordered rule table: first match wins, and the
// order is part of the contract (TABLE is checked before ENDPOINT because
// path-like substrings appear in table queries; JSON before TABLE so a
// query mentioning both routes to JSON).
type intentRule struct {
	name   string
	intent domain.Intent
	match  func(q, lower string) bool
}

var (
	reGreeting = regexp.MustCompile(`(?i)^(hi|hello|hey|hola|greetings?)[\s!.?]*$`)

	reOneLineLiteral    = regexp.MustCompile(`(?i)\b(one line|in one line|single line|on one line)\b`)
	reOneLineHeaders    = regexp.MustCompile(`(?i)\b(which|what|how many|list)\s+(authentication\s+)?headers?\s+(are\s+)?required`)
	reOneLineDifference = regexp.MustCompile(`(?i)\b(what'?s\s+the\s+)?difference\s+between\b`)
	reOneLineFormat     = regexp.MustCompile(`(?i)\b(show\s+me\s+the\s+)?format\s+of\b`)
	reOneLineErrorMean  = regexp.MustCompile(`(?i)\b(what\s+does\s+the\s+)?\w+\s+error\s+mean\b`)

	reJSONVerb    = regexp.MustCompile(`(?i)\b(show|give|display|provide)\s+(me\s+)?(the\s+)?\S*\s*json\b`)
	reJSONShape   = regexp.MustCompile(`(?i)\b(error|response|request)\s+(format|json|body|example)\b`)
	reJSONLexical = regexp.MustCompile(`(exact|full|raw)\s+json|^json\b|request body|payload|sample[^.]*request|sample[^.]*response`)

	reTableWord       = regexp.MustCompile(`(?i)\b(markdown\s+table|table)\b`)
	reTableComponents = regexp.MustCompile(`(?i)\b(what\s+are\s+the\s+components?|components?\s+(in|of)\s+(the\s+)?(get|post|response|request))\b`)
	reTableLexical    = regexp.MustCompile(`columns|as a markdown table|components?\b.*list|list.*components?`)

	reEndpointWord   = regexp.MustCompile(`(?i)\b(endpoint|route)\b`)
	reEndpointMethod = regexp.MustCompile(`(?i)^(get|post|put|delete|patch)\s+/`)
	rePathLike       = regexp.MustCompile(`/[a-z0-9][^\s]*`)
	reEndpointAsk    = regexp.MustCompile(`which endpoint|what endpoint|endpoint|path|route`)

	reWorkflowHowTo   = regexp.MustCompile(`(?i)\b(how\s+(do\s+i|to)\s+(integrate|set\s*up|implement|configure|install|deploy|onboard|use))\b`)
	reWorkflowGuide   = regexp.MustCompile(`(?i)\b(integration\s+steps|setup\s+guide|implementation\s+guide)\b`)
	reWorkflowLexical = regexp.MustCompile(`poll|polling|cadence|asynchronous|async|every\s+\d+(-|\s*)\d*\s*(seconds|min)|workflow|steps`)

	reAuthTopic      = regexp.MustCompile(`(?i)\b(auth|authentication|token|bearer|header|oauth|api key|jwt|credentials)\b`)
	reContactRequest = regexp.MustCompile(`(?i)\b(what\s+is\s+(the\s+)?(contact|email|support)|(how|where)\s+(do\s+i|can\s+i|to)\s+(contact|reach|email)|who\s+(do\s+i|should\s+i|can\s+i)\s+contact|contact\s+(info|information|details|email)|support\s+(email|contact))\b`)

	reIDKeyField = regexp.MustCompile(`\b(id:|[a-z]+(?:[_-]?)(?:id|key)s?)\b`)
)

// idKeyStopwords are ordinary words the field-name pattern would otherwise
// swallow (valid, paid, monkey, ...).
var idKeyStopwords = map[string]struct{}{
	"valid": {}, "invalid": {}, "paid": {}, "said": {}, "avoid": {},
	"rapid": {}, "did": {}, "hybrid": {}, "monkey": {}, "donkey": {},
	"turkey": {}, "keys": {}, "key": {}, "id": {},
}

var intentRules = []intentRule{
	{
		name:   "one_line",
		intent: domain.IntentOneLine,
		match: func(q, _ string) bool {
			return reOneLineLiteral.MatchString(q) ||
				reOneLineHeaders.MatchString(q) ||
				reOneLineDifference.MatchString(q) ||
				reOneLineFormat.MatchString(q) ||
				reOneLineErrorMean.MatchString(q)
		},
	},
	{
		name:   "json",
		intent: domain.IntentJSON,
		match: func(q, lower string) bool {
			return reJSONVerb.MatchString(q) ||
				reJSONShape.MatchString(q) ||
				reJSONLexical.MatchString(lower)
		},
	},
	{
		name:   "table",
		intent: domain.IntentTable,
		match: func(q, lower string) bool {
			return reTableWord.MatchString(q) ||
				reTableComponents.MatchString(q) ||
				reTableLexical.MatchString(lower)
		},
	},
	{
		name:   "endpoint",
		intent: domain.IntentEndpoint,
		match: func(q, lower string) bool {
			return reEndpointWord.MatchString(q) ||
				reEndpointMethod.MatchString(q) ||
				rePathLike.MatchString(lower) ||
				reEndpointAsk.MatchString(lower)
		},
	},
	{
		name:   "workflow",
		intent: domain.IntentWorkflow,
		match: func(q, lower string) bool {
			return reWorkflowHowTo.MatchString(q) ||
				reWorkflowGuide.MatchString(q) ||
				reWorkflowLexical.MatchString(lower)
		},
	},
	{
		name:   "contact",
		intent: domain.IntentContact,
		match: func(q, _ string) bool {
			// An auth-flavored question that happens to mention support
			// ("what's the auth support header") must not route here.
			return reContactRequest.MatchString(q) && !reAuthTopic.MatchString(q)
		},
	},
	{
		name:   "idkey",
		intent: domain.IntentIDKey,
		match: func(_, lower string) bool {
			for _, m := range reIDKeyField.FindAllString(lower, -1) {
				if _, stop := idKeyStopwords[m]; !stop {
					return true
				}
			}
			return false
		},
	},
}

// ClassifyIntent maps a raw query to one Intent. It never panics: blank
// input logs a warning and falls through to DEFAULT. Greetings are
// recognized but still classified DEFAULT; a higher layer owns canned
// greeting replies.
func ClassifyIntent(query string) domain.Intent {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		slog.Warn("intent_classifier_blank_query")
		return domain.IntentDefault
	}
	if reGreeting.MatchString(trimmed) {
		return domain.IntentDefault
	}

	lower := strings.ToLower(trimmed)
	for _, rule := range intentRules {
		if rule.match(trimmed, lower) {
			return rule.intent
		}
	}
	return domain.IntentDefault
}
