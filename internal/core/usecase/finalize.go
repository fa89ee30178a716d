package usecase

import (
	"regexp"
	"strings"
)

// NoContextAnswer is the fixed reply when nothing usable was retrieved.
const NoContextAnswer = "I couldn't find anything relevant in the documentation for that."

var (
	reSourceLine    = regexp.MustCompile(`(?i)^(\*\*)?sources?:`)
	reCitationRef   = regexp.MustCompile(`\[\s*#?\d+\s*\](?:,\s*\[\s*#?\d+\s*\])*`)
	reEmoji         = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{FE0F}]`)
	reHyphenBreak   = regexp.MustCompile(`(\w)-\n(\w)`)
	reSoftBreak     = regexp.MustCompile(`([^.?!:])\n([^\n])`)
	reTrailingSpace = regexp.MustCompile(`[ \t]+\n`)
	reTripleNewline = regexp.MustCompile(`\n{3,}`)
	reMultiSpace    = regexp.MustCompile(`  +`)
	reSummaryBold   = regexp.MustCompile(`(?im)^\*\*(summary|in summary|to summarize):\*\*\s*`)
)

// artifactPhrases are boilerplate fragments some models append around
// documentation answers. Matches are cut outright.
var artifactPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?im)looks like an auth/error response.*$`),
	regexp.MustCompile(`(?i)copy fix`),
	regexp.MustCompile(`(?im)here'?s the corrected request.*$`),
	regexp.MustCompile(`(?im)for detailed api requests.*postman.*$`),
}

// FinalizeAnswer normalizes answer text for display: PDF artifact repair,
// citation-bracket removal, emoji stripping, bold unwrapping, whitespace
// collapse. Idempotent, and never returns an empty string. Fenced code
// blocks pass through untouched.
func FinalizeAnswer(s string) string {
	segments := splitFences(s)
	for i := range segments {
		if !segments[i].fenced {
			segments[i].text = cleanSegment(segments[i].text)
		}
	}

	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.text)
	}
	out := strings.TrimSpace(b.String())
	out = unwrapOuterBold(out)

	if out == "" {
		return NoContextAnswer
	}
	return out
}

type fenceSegment struct {
	text   string
	fenced bool
}

// splitFences cuts the text at ``` fence boundaries so cleaning never
// touches verbatim code blocks.
func splitFences(s string) []fenceSegment {
	var segments []fenceSegment
	for {
		open := strings.Index(s, "```")
		if open == -1 {
			segments = append(segments, fenceSegment{text: s})
			return segments
		}
		closing := strings.Index(s[open+3:], "```")
		if closing == -1 {
			segments = append(segments, fenceSegment{text: s})
			return segments
		}
		end := open + 3 + closing + 3
		if open > 0 {
			segments = append(segments, fenceSegment{text: s[:open]})
		}
		segments = append(segments, fenceSegment{text: s[open:end], fenced: true})
		s = s[end:]
	}
}

func cleanSegment(s string) string {
	s = reHyphenBreak.ReplaceAllString(s, "$1$2")
	s = reSoftBreak.ReplaceAllString(s, "$1 $2")
	s = reEmoji.ReplaceAllString(s, "")
	s = reSummaryBold.ReplaceAllString(s, "$1: ")
	for _, re := range artifactPhrases {
		s = re.ReplaceAllString(s, "")
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		// Source citation lines keep their reference markers.
		if reSourceLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		lines[i] = reCitationRef.ReplaceAllString(line, "")
	}
	s = strings.Join(lines, "\n")
	s = dropRepeatedLines(s)

	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reTrailingSpace.ReplaceAllString(s, "\n")
	s = reTripleNewline.ReplaceAllString(s, "\n\n")
	return s
}

// dropRepeatedLines removes a short "Heading:" line that already appeared
// earlier in the segment, and exact line repeats within a three-line
// window. Both patterns come from stitched PDF extractions and models
// restating their own output.
func dropRepeatedLines(s string) string {
	lines := strings.Split(s, "\n")
	seenHeaders := make(map[string]struct{})
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasSuffix(trimmed, ":") && len(trimmed) < 50 {
			key := strings.ToLower(trimmed)
			if _, ok := seenHeaders[key]; ok {
				continue
			}
			seenHeaders[key] = struct{}{}
		}

		if len(trimmed) > 10 {
			window := kept
			if len(window) > 3 {
				window = window[len(window)-3:]
			}
			repeated := false
			for _, prev := range window {
				if strings.TrimSpace(prev) == trimmed {
					repeated = true
					break
				}
			}
			if repeated {
				continue
			}
		}

		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// unwrapOuterBold removes a bold wrapper spanning the entire answer, the
// usual failure mode of a model asked for emphasis. Interior bold stays.
func unwrapOuterBold(s string) string {
	if !strings.HasPrefix(s, "**") || !strings.HasSuffix(s, "**") || len(s) <= 4 {
		return s
	}
	if strings.Count(s, "**") != 2 {
		return s
	}
	return strings.TrimSpace(s[2 : len(s)-2])
}
