package usecase

import (
	"sort"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

const (
	highTop1   = 0.25
	highGap    = 0.06
	mediumTop1 = 0.15
	mediumGap  = 0.04

	highSections = 3

	// Below this many selected passages a low-confidence retrieval is
	// allowed to trigger fallback expansion.
	fallbackMaxSelected = 5
)

// ConfidenceSignals summarizes one ranked selection for bucketing.
type ConfidenceSignals struct {
	Top1           float64
	ScoreGap       float64
	UniqueSections int
	Level          domain.ConfidenceLevel
}

// ScoreConfidence derives the confidence bucket from the ranked selection.
// The gap is top-1 minus the median of the top five scores, so a single
// outlier over a flat tail still reads as decisive.
func ScoreConfidence(selected []domain.Candidate) ConfidenceSignals {
	if len(selected) == 0 {
		return ConfidenceSignals{Level: domain.ConfidenceLow}
	}

	top1 := selected[0].HybridScore
	gap := top1 - medianTopScores(selected, 5)
	sections := countSections(selected)

	sig := ConfidenceSignals{Top1: top1, ScoreGap: gap, UniqueSections: sections}
	switch {
	case top1 >= highTop1 && gap >= highGap && sections >= highSections:
		sig.Level = domain.ConfidenceHigh
	case top1 >= mediumTop1 && (gap >= mediumGap || sections >= 2):
		sig.Level = domain.ConfidenceMedium
	default:
		sig.Level = domain.ConfidenceLow
	}
	return sig
}

// ShouldFallback reports whether a selection is weak enough to warrant the
// expanded search pass: low confidence and a thin selection.
func ShouldFallback(sig ConfidenceSignals, selectedCount int) bool {
	return sig.Level == domain.ConfidenceLow && selectedCount < fallbackMaxSelected
}

func medianTopScores(selected []domain.Candidate, n int) float64 {
	if n > len(selected) {
		n = len(selected)
	}
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		scores[i] = selected[i].HybridScore
	}
	sort.Float64s(scores)
	if n%2 == 1 {
		return scores[n/2]
	}
	return (scores[n/2-1] + scores[n/2]) / 2
}
