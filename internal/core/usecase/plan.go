package usecase

import (
	"github.com/askvia/docs-copilot/internal/core/domain"
)

const (
	basePlanK = 25

	// A filtered plan that keeps fewer than this many candidates is
	// considered starved and falls back to the unfiltered plan.
	minFilteredSurvivors = 3
)

// PlanForIntent derives the primary search plan from the intent. Every
// intent uses the same k; plans differ only in filters and tiebreak hints.
func PlanForIntent(intent domain.Intent) domain.SearchPlan {
	switch intent {
	case domain.IntentJSON, domain.IntentIDKey:
		return domain.SearchPlan{
			K:      basePlanK,
			Must:   []domain.MetadataFilter{{Key: "hasJson", Value: "true"}},
			Prefer: domain.PreferJSON,
		}
	case domain.IntentEndpoint:
		return domain.SearchPlan{
			K:    basePlanK,
			Must: []domain.MetadataFilter{{Key: "element_type", Value: string(domain.ElementParagraph)}},
		}
	case domain.IntentTable:
		return domain.SearchPlan{
			K:      basePlanK,
			Must:   []domain.MetadataFilter{{Key: "element_type", Value: string(domain.ElementTable)}},
			Prefer: domain.PreferTable,
		}
	case domain.IntentContact:
		return domain.SearchPlan{K: basePlanK, Prefer: domain.PreferFooter}
	default:
		return domain.SearchPlan{K: basePlanK}
	}
}

// FallbackPlan is the unfiltered plan paired with every primary plan.
func FallbackPlan() domain.SearchPlan {
	return domain.SearchPlan{K: basePlanK}
}

// ApplyPlanFilters discards candidates failing the plan's must constraints.
// Prefer is a soft tiebreak applied elsewhere, never a hard filter. A
// candidate with malformed metadata simply fails to match.
func ApplyPlanFilters(plan domain.SearchPlan, candidates []domain.Candidate) []domain.Candidate {
	if !plan.Filtered() {
		return candidates
	}

	kept := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if matchesAllFilters(c.Chunk.Metadata, plan.Must) {
			kept = append(kept, c)
		}
	}
	return kept
}

func matchesAllFilters(meta domain.ElementMetadata, filters []domain.MetadataFilter) bool {
	for _, f := range filters {
		if !matchesFilter(meta, f) {
			return false
		}
	}
	return true
}

func matchesFilter(meta domain.ElementMetadata, f domain.MetadataFilter) bool {
	switch f.Key {
	case "hasJson":
		return meta.HasJSON == (f.Value == "true")
	case "element_type":
		kind := meta.Kind
		if kind == "" {
			kind = domain.ElementParagraph
		}
		return string(kind) == f.Value
	default:
		return false
	}
}

// preferMatches reports whether a candidate satisfies the plan's soft
// preference; used only as a tiebreak between equal hybrid scores.
func preferMatches(prefer domain.PreferKind, c domain.Candidate) bool {
	switch prefer {
	case domain.PreferJSON:
		return c.Chunk.Metadata.HasJSON
	case domain.PreferTable:
		return c.Chunk.Metadata.Kind == domain.ElementTable
	case domain.PreferFooter:
		return c.Chunk.Metadata.Kind == domain.ElementFooter
	default:
		return false
	}
}

// minSections returns the section-diversity target for an intent.
func minSections(intent domain.Intent) int {
	switch intent {
	case domain.IntentWorkflow:
		return 3
	case domain.IntentTable, domain.IntentJSON, domain.IntentIDKey:
		return 2
	default:
		return 2
	}
}

// maxPerPage returns the per-page selection cap for an intent. Structured
// intents tolerate more chunks from one page because tables and JSON
// samples cluster.
func maxPerPage(intent domain.Intent) int {
	switch intent {
	case domain.IntentTable, domain.IntentJSON, domain.IntentIDKey:
		return 3
	default:
		return 2
	}
}
