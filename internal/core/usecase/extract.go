package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

// Extraction is a deterministic verbatim answer lifted straight from
// retrieved content, with its own confidence tier. No generation involved.
type Extraction struct {
	Text   string
	Tier   domain.ConfidenceLevel
	Source *domain.AnswerSource
}

var (
	reJSONBlock    = regexp.MustCompile("(?is)```json\\s*(.*?)\\s*```")
	reBraceBlock   = regexp.MustCompile(`(?s)\{.*?\}`)
	reEmail        = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	reContactWords = regexp.MustCompile(`(?i)\b(contact|support|help|email|reach)\b`)
	rePlaceholder  = regexp.MustCompile(`(?i)@(example|test|demo|placeholder)\.`)

	reEndpointLine = regexp.MustCompile(`\b(GET|POST|PUT|DELETE|PATCH)\b\s*((?:https?://[A-Za-z0-9.-]+)?/[^\s,;.]*)`)
	reSchemeHost   = regexp.MustCompile(`(?i)^https?://[^/]+`)
	reParenParam   = regexp.MustCompile(`\(([^)]+)\)`)
	reMultiSlash   = regexp.MustCompile(`/{2,}`)

	reStepLine   = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]|step\s+\d+[:.]?)\s+(.+)$`)
	reHeaderLine = regexp.MustCompile(`(?im)^\s*([A-Z][A-Za-z0-9-]+):\s*(Bearer\s*<[^>]+>|<[^>]+>|[^\s].*)$`)

	reFieldLine = regexp.MustCompile(`(?m)"([A-Za-z0-9_-]+)"\s*:\s*("[^"]*"|[-0-9.]+|true|false|null)`)
)

// ExtractVerbatim routes to the per-intent extractor. A false return means
// no deterministic answer exists and the caller should generate instead.
func ExtractVerbatim(intent domain.Intent, query string, candidates []domain.Candidate) (Extraction, bool) {
	switch intent {
	case domain.IntentJSON:
		return extractJSON(query, candidates)
	case domain.IntentIDKey:
		if ex, ok := extractFieldLine(query, candidates); ok {
			return ex, true
		}
		return extractJSON(query, candidates)
	case domain.IntentEndpoint:
		return extractEndpoint(query, candidates)
	case domain.IntentTable:
		return extractTable(query, candidates)
	case domain.IntentWorkflow:
		return extractWorkflow(candidates)
	case domain.IntentContact:
		return extractEmail(candidates)
	case domain.IntentOneLine:
		return extractHeaderSchema(query, candidates)
	default:
		return Extraction{}, false
	}
}

func sourceOf(c domain.Candidate) *domain.AnswerSource {
	title := c.Chunk.Title
	if title == "" {
		title = "Unknown"
	}
	return &domain.AnswerSource{Title: title, Page: c.Chunk.Page()}
}

// ---- JSON ----

// jsonBlocks pulls fenced and brace-delimited JSON-looking blocks out of
// chunk content. Oversized blobs are dropped.
func jsonBlocks(content string) []string {
	var blocks []string
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw != "" && len(raw) < 32_000 {
			blocks = append(blocks, raw)
		}
	}
	for _, m := range reJSONBlock.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	stripped := reJSONBlock.ReplaceAllString(content, "")
	for _, m := range reBraceBlock.FindAllString(stripped, -1) {
		add(m)
	}
	return blocks
}

// extractJSON picks the block whose keys best overlap the query terms. The
// chunk-level verbatim block, stored at ingestion time, wins outright.
func extractJSON(query string, candidates []domain.Candidate) (Extraction, bool) {
	for _, c := range candidates {
		if len(c.Chunk.Metadata.VerbatimJSON) > 0 {
			return Extraction{
				Text:   fenceJSON(string(c.Chunk.Metadata.VerbatimJSON)),
				Tier:   domain.ConfidenceHigh,
				Source: sourceOf(c),
			}, true
		}
	}

	terms := queryTerms(query)
	bestScore := 0
	var bestBlock string
	var bestSource *domain.AnswerSource

	for _, c := range candidates {
		for _, raw := range jsonBlocks(c.Chunk.Content) {
			if !json.Valid([]byte(raw)) {
				continue
			}
			lower := strings.ToLower(raw)
			score := 1
			for term := range terms {
				if strings.Contains(lower, `"`+term+`"`) {
					score += 3
				}
			}
			if score > bestScore {
				bestScore = score
				bestBlock = raw
				bestSource = sourceOf(c)
			}
		}
	}

	if bestBlock == "" {
		return Extraction{}, false
	}
	tier := domain.ConfidenceMedium
	if bestScore > 1 {
		tier = domain.ConfidenceHigh
	}
	return Extraction{Text: fenceJSON(bestBlock), Tier: tier, Source: bestSource}, true
}

// extractFieldLine answers "what is the X id" style queries with the exact
// key/value pair as it appears in the source, e.g. `"id": 26`.
func extractFieldLine(query string, candidates []domain.Candidate) (Extraction, bool) {
	terms := queryTerms(query)
	for _, c := range candidates {
		for _, m := range reFieldLine.FindAllStringSubmatch(c.Chunk.Content, -1) {
			key := strings.ToLower(m[1])
			if _, ok := terms[key]; !ok {
				continue
			}
			return Extraction{
				Text:   fmt.Sprintf("%q: %s", m[1], m[2]),
				Tier:   domain.ConfidenceHigh,
				Source: sourceOf(c),
			}, true
		}
	}
	return Extraction{}, false
}

// fenceJSON pretty-prints a JSON payload inside a fenced block, so stored
// compact payloads come out with one key/value pair per line. Payloads
// that fail to indent are fenced as-is.
func fenceJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(raw), "", "  "); err == nil {
		raw = pretty.String()
	}
	return "```json\n" + raw + "\n```"
}

// ---- Endpoint ----

// normalizeEndpointLine canonicalizes a line containing an API route to
// "METHOD /path". PDF hyphen-space artifacts are repaired first.
func normalizeEndpointLine(line string) (string, bool) {
	cleaned := strings.ReplaceAll(line, "- ", "-")
	m := reEndpointLine.FindStringSubmatch(cleaned)
	if m == nil {
		return "", false
	}
	method := strings.ToUpper(m[1])
	path := strings.TrimSpace(m[2])
	path = reSchemeHost.ReplaceAllString(path, "")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = reMultiSlash.ReplaceAllString(path, "/")
	path = reParenParam.ReplaceAllString(path, "{$1}")
	path = strings.ToLower(path)
	return method + " " + path, true
}

func scoreEndpointLine(line, query string) float64 {
	l := strings.ToLower(line)
	score := 0.25 // every normalized line carries a method
	if strings.Contains(l, "http://") || strings.Contains(l, "https://") {
		score -= 0.2
	}
	if strings.ContainsAny(l, "<>[]") {
		score -= 0.15
	}
	for term := range queryTerms(query) {
		if strings.Contains(l, term) {
			score += 0.4
		}
	}
	return score
}

// extractEndpoint prefers routes tagged at ingestion time; those are
// authoritative and all of them are listed. Without tags it falls back to
// scanning content for the single best route-shaped line.
func extractEndpoint(query string, candidates []domain.Candidate) (Extraction, bool) {
	if ex, ok := extractTaggedEndpoints(query, candidates); ok {
		return ex, true
	}

	bestScore := 0.0
	var bestLine string
	var bestSource *domain.AnswerSource

	for _, c := range candidates {
		for _, raw := range strings.Split(c.Chunk.Content, "\n") {
			line, ok := normalizeEndpointLine(raw)
			if !ok {
				continue
			}
			if score := scoreEndpointLine(line, query); bestLine == "" || score > bestScore {
				bestScore = score
				bestLine = line
				bestSource = sourceOf(c)
			}
		}
	}

	if bestLine == "" {
		return Extraction{}, false
	}
	return Extraction{Text: bestLine, Tier: domain.ConfidenceHigh, Source: bestSource}, true
}

// extractTaggedEndpoints emits every distinct Endpoint-tagged route as a
// literal "METHOD /path" list, best query match first.
func extractTaggedEndpoints(query string, candidates []domain.Candidate) (Extraction, bool) {
	type scoredLine struct {
		line  string
		score float64
	}
	seen := make(map[string]struct{})
	var lines []scoredLine
	var bestSource *domain.AnswerSource
	bestScore := 0.0

	for _, c := range candidates {
		ep := c.Chunk.Metadata.Endpoint
		if ep == nil || ep.Method == "" || ep.Path == "" {
			continue
		}
		line := strings.ToUpper(ep.Method) + " " + strings.ToLower(ep.Path)
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		score := scoreEndpointLine(line, query)
		if bestSource == nil || score > bestScore {
			bestScore = score
			bestSource = sourceOf(c)
		}
		lines = append(lines, scoredLine{line: line, score: score})
	}

	if len(lines) == 0 {
		return Extraction{}, false
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].score > lines[j].score })

	out := make([]string, len(lines))
	for i, sl := range lines {
		out[i] = sl.line
	}
	return Extraction{Text: strings.Join(out, "\n"), Tier: domain.ConfidenceHigh, Source: bestSource}, true
}

// ---- Table ----

func extractTable(query string, candidates []domain.Candidate) (Extraction, bool) {
	for _, c := range candidates {
		if t := c.Chunk.Metadata.Table; t != nil && len(t.Headers) > 0 {
			return Extraction{
				Text:   renderMarkdownTable(t),
				Tier:   domain.ConfidenceHigh,
				Source: sourceOf(c),
			}, true
		}
	}
	for _, c := range candidates {
		if md, ok := pipeTextToMarkdown(c.Chunk.Content); ok {
			return Extraction{Text: md, Tier: domain.ConfidenceMedium, Source: sourceOf(c)}, true
		}
	}
	return extractStatusTable(query, candidates)
}

func renderMarkdownTable(t *domain.TableData) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(t.Headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(t.Headers)) + "\n")
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.ReplaceAll(cell, "|", `\|`)
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// pipeTextToMarkdown promotes already-pipe-delimited text to a markdown
// table; needs at least three piped lines to look like one.
func pipeTextToMarkdown(text string) (string, bool) {
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && strings.Contains(line, "|") {
			rows = append(rows, line)
		}
	}
	if len(rows) < 3 {
		return "", false
	}
	if len(rows) > 10 {
		rows = rows[:10]
	}
	out := []string{rows[0], "|---|---|---|"}
	out = append(out, rows[1:]...)
	return strings.Join(out, "\n"), true
}

var (
	reStatusAsk = regexp.MustCompile(`(?i)\b(status\s*codes?|error\s*codes?|http)\b`)
	reStatusRow = regexp.MustCompile(`(?i)^(\d{3})\s+([A-Za-z][\w\s\-/]+?)(?:\s*[:–-]\s*(.+))?$`)
	reHTTPCode  = regexp.MustCompile(`\b[1-5]\d{2}\b`)
)

// extractStatusTable rebuilds a status-code table from loose prose, the
// common shape PDF extraction leaves behind when pipe tables are lost.
func extractStatusTable(query string, candidates []domain.Candidate) (Extraction, bool) {
	if !reStatusAsk.MatchString(query) {
		return Extraction{}, false
	}

	type row struct{ code, desc, body string }
	var bestRows []row
	var bestSource *domain.AnswerSource

	for _, c := range candidates {
		var rows []row
		seen := make(map[string]struct{})
		for _, line := range strings.Split(c.Chunk.Content, "\n") {
			line = strings.TrimSpace(line)
			m := reStatusRow.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if _, dup := seen[m[1]]; dup {
				continue
			}
			seen[m[1]] = struct{}{}
			rows = append(rows, row{code: m[1], desc: strings.TrimSpace(m[2]), body: strings.TrimSpace(m[3])})
		}
		if len(rows) > len(bestRows) {
			bestRows = rows
			bestSource = sourceOf(c)
		}
	}

	if len(bestRows) == 0 {
		return Extraction{}, false
	}

	var b strings.Builder
	b.WriteString("| Code | Description | Body |\n|---|---|---|\n")
	has200, hasError := false, false
	for _, r := range bestRows {
		if r.code == "200" {
			has200 = true
		}
		if r.code[0] == '4' || r.code[0] == '5' {
			hasError = true
		}
		b.WriteString("| " + r.code + " | " + r.desc + " | " + strings.ReplaceAll(r.body, "|", `\|`) + " |\n")
	}

	tier := domain.ConfidenceLow
	switch {
	case len(bestRows) >= 3 && has200 && hasError:
		tier = domain.ConfidenceHigh
	case len(bestRows) >= 2:
		tier = domain.ConfidenceMedium
	}
	return Extraction{Text: strings.TrimRight(b.String(), "\n"), Tier: tier, Source: bestSource}, true
}

// ---- Workflow ----

// extractWorkflow rebuilds an ordered step list from step elements and
// numbered lines, keeping document order.
func extractWorkflow(candidates []domain.Candidate) (Extraction, bool) {
	type numbered struct {
		order int
		text  string
	}
	var steps []numbered
	var source *domain.AnswerSource

	ordered := make([]domain.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Chunk.DocumentID != ordered[j].Chunk.DocumentID {
			return ordered[i].Chunk.DocumentID < ordered[j].Chunk.DocumentID
		}
		return ordered[i].Chunk.ChunkIndex < ordered[j].Chunk.ChunkIndex
	})

	for _, c := range ordered {
		if c.Chunk.Metadata.Kind == domain.ElementStep && c.Chunk.Metadata.StepText != "" {
			steps = append(steps, numbered{order: len(steps), text: c.Chunk.Metadata.StepText})
			if source == nil {
				source = sourceOf(c)
			}
			continue
		}
		for _, m := range reStepLine.FindAllStringSubmatch(c.Chunk.Content, -1) {
			steps = append(steps, numbered{order: len(steps), text: strings.TrimSpace(m[1])})
			if source == nil {
				source = sourceOf(c)
			}
		}
	}

	if len(steps) < 2 {
		return Extraction{}, false
	}

	var b strings.Builder
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.text)
	}
	tier := domain.ConfidenceMedium
	if len(steps) >= 3 {
		tier = domain.ConfidenceHigh
	}
	return Extraction{Text: strings.TrimRight(b.String(), "\n"), Tier: tier, Source: source}, true
}

// ---- Contact ----

// extractEmail returns the bare address, preferring footer chunks. High
// confidence needs a footer or contact-flavored chunk, a non-placeholder
// domain, and either repetition across chunks or footer placement.
func extractEmail(candidates []domain.Candidate) (Extraction, bool) {
	var best *domain.Candidate
	for i := range candidates {
		if !reEmail.MatchString(candidates[i].Chunk.Content) {
			continue
		}
		if candidates[i].Chunk.Metadata.Kind == domain.ElementFooter {
			best = &candidates[i]
			break
		}
		if best == nil {
			best = &candidates[i]
		}
	}
	if best == nil {
		return Extraction{}, false
	}

	email := reEmail.FindString(best.Chunk.Content)
	isFooter := best.Chunk.Metadata.Kind == domain.ElementFooter
	inContactText := reContactWords.MatchString(best.Chunk.Content)
	realDomain := !rePlaceholder.MatchString(email)

	appearances := 0
	for _, c := range candidates {
		if strings.Contains(c.Chunk.Content, email) {
			appearances++
		}
	}

	tier := domain.ConfidenceMedium
	if (isFooter || inContactText) && realDomain && (appearances >= 2 || isFooter) {
		tier = domain.ConfidenceHigh
	}
	return Extraction{Text: email, Tier: tier, Source: sourceOf(*best)}, true
}

// ---- One-line ----

// extractHeaderSchema answers header-requirement questions with the exact
// header lines found in the documentation, fenced as an http block.
func extractHeaderSchema(query string, candidates []domain.Candidate) (Extraction, bool) {
	lq := strings.ToLower(query)
	if !strings.Contains(lq, "header") && !strings.Contains(lq, "auth") {
		return Extraction{}, false
	}

	var lines []string
	var source *domain.AnswerSource
	seen := make(map[string]struct{})
	for _, c := range candidates {
		for _, m := range reHeaderLine.FindAllStringSubmatch(c.Chunk.Content, -1) {
			name := m[1]
			// Header names are hyphenated words; skip prose with a colon.
			if strings.Contains(m[2], " ") && !strings.HasPrefix(m[2], "Bearer") {
				continue
			}
			line := name + ": " + strings.TrimSpace(m[2])
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			lines = append(lines, line)
			if source == nil {
				source = sourceOf(c)
			}
		}
	}

	if len(lines) == 0 {
		return Extraction{}, false
	}
	return Extraction{
		Text:   "```http\n" + strings.Join(lines, "\n") + "\n```",
		Tier:   domain.ConfidenceHigh,
		Source: source,
	}, true
}

// ---- shared ----

// queryTerms is the lowercase token set of a query minus filler words.
var queryFillerWords = map[string]struct{}{
	"the": {}, "what": {}, "which": {}, "show": {}, "give": {}, "for": {},
	"and": {}, "with": {}, "how": {}, "are": {}, "is": {}, "me": {},
	"of": {}, "in": {}, "to": {}, "a": {}, "an": {}, "does": {},
}

func queryTerms(query string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, tok := range splitAlphaNumLower(query) {
		if _, filler := queryFillerWords[tok]; filler {
			continue
		}
		if len(tok) < 2 {
			continue
		}
		terms[tok] = struct{}{}
	}
	return terms
}
