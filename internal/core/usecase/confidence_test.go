package usecase

import (
	"fmt"
	"testing"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

func scored(scores []float64, sections int) []domain.Candidate {
	out := make([]domain.Candidate, len(scores))
	for i, s := range scores {
		section := fmt.Sprintf("section-%d", i%sections)
		out[i] = domain.Candidate{
			Chunk:       domain.Chunk{ID: fmt.Sprintf("c%d", i), SectionPath: section},
			HybridScore: s,
		}
	}
	return out
}

func TestScoreConfidenceBuckets(t *testing.T) {
	cases := []struct {
		name     string
		scores   []float64
		sections int
		want     domain.ConfidenceLevel
	}{
		{"high", []float64{0.40, 0.30, 0.28, 0.27, 0.26}, 3, domain.ConfidenceHigh},
		{"medium top1 with sections", []float64{0.18, 0.17, 0.17, 0.17, 0.17}, 2, domain.ConfidenceMedium},
		{"low weak top1", []float64{0.10, 0.09, 0.08}, 3, domain.ConfidenceLow},
		{"low flat scores one section", []float64{0.14, 0.14, 0.14}, 1, domain.ConfidenceLow},
		{"high demoted without sections", []float64{0.40, 0.30, 0.28, 0.27, 0.26}, 1, domain.ConfidenceMedium},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := ScoreConfidence(scored(tc.scores, tc.sections))
			if sig.Level != tc.want {
				t.Fatalf("level = %s (top1=%f gap=%f sections=%d), want %s",
					sig.Level, sig.Top1, sig.ScoreGap, sig.UniqueSections, tc.want)
			}
		})
	}
}

func TestScoreConfidenceMonotonicInTop1(t *testing.T) {
	// Raising only the top score must never lower the bucket.
	rank := map[domain.ConfidenceLevel]int{
		domain.ConfidenceLow:    0,
		domain.ConfidenceMedium: 1,
		domain.ConfidenceHigh:   2,
	}

	tail := []float64{0.12, 0.11, 0.10, 0.09}
	prev := -1
	for top1 := 0.12; top1 <= 0.45; top1 += 0.01 {
		sig := ScoreConfidence(scored(append([]float64{top1}, tail...), 3))
		if rank[sig.Level] < prev {
			t.Fatalf("bucket dropped to %s at top1=%f", sig.Level, top1)
		}
		prev = rank[sig.Level]
	}
}

func TestScoreConfidenceEmptySelection(t *testing.T) {
	sig := ScoreConfidence(nil)
	if sig.Level != domain.ConfidenceLow {
		t.Fatalf("empty selection should be low, got %s", sig.Level)
	}
}

func TestShouldFallback(t *testing.T) {
	low := ConfidenceSignals{Level: domain.ConfidenceLow}
	if !ShouldFallback(low, 3) {
		t.Fatalf("low confidence with thin selection should fall back")
	}
	if ShouldFallback(low, 5) {
		t.Fatalf("full selection should not fall back")
	}
	if ShouldFallback(ConfidenceSignals{Level: domain.ConfidenceMedium}, 1) {
		t.Fatalf("medium confidence should not fall back")
	}
}

func TestMedianTopScores(t *testing.T) {
	sel := scored([]float64{0.5, 0.4, 0.3, 0.2, 0.1, 0.05}, 2)
	if got := medianTopScores(sel, 5); got != 0.3 {
		t.Fatalf("median of top-5 = %f, want 0.3", got)
	}
	if got := medianTopScores(sel[:2], 5); got != (0.5+0.4)/2 {
		t.Fatalf("median of two = %f", got)
	}
}
