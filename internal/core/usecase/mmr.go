package usecase

import (
	"log/slog"
	"strings"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

// mmrLambda weights relevance against redundancy in the greedy selection.
const mmrLambda = 0.7

// SelectDiverse runs greedy maximal-marginal-relevance selection over the
// fused candidates. Relevance is the hybrid score; redundancy is the
// smallest Jaccard word overlap against the already-selected set, so a
// candidate is only held back while it resembles everything chosen so
// far. A per-page cap keeps one dense page from crowding out the rest of
// the document, and a section-diversity target is checked after selection
// (logged when missed, never fatal).
func SelectDiverse(logger *slog.Logger, intent domain.Intent, candidates []domain.Candidate, k int) []domain.Candidate {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	pageCap := maxPerPage(intent)
	wordSets := make([]map[string]struct{}, len(candidates))
	for i, c := range candidates {
		wordSets[i] = wordSet(c.Chunk.Content)
	}

	selected := make([]domain.Candidate, 0, k)
	selectedSets := make([]map[string]struct{}, 0, k)
	pageCount := make(map[int]int)
	used := make([]bool, len(candidates))

	for len(selected) < k {
		bestIdx := -1
		bestScore := 0.0
		for i, c := range candidates {
			if used[i] {
				continue
			}
			if pageCount[c.Chunk.Page()] >= pageCap {
				continue
			}
			score := mmrLambda * c.HybridScore
			if len(selectedSets) > 0 {
				score -= (1 - mmrLambda) * minOverlap(wordSets[i], selectedSets)
			}
			if bestIdx == -1 || score > bestScore {
				bestIdx = i
				bestScore = score
			}
		}
		if bestIdx == -1 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, candidates[bestIdx])
		selectedSets = append(selectedSets, wordSets[bestIdx])
		pageCount[candidates[bestIdx].Chunk.Page()]++
	}

	if got, want := countSections(selected), minSections(intent); got < want {
		logger.Warn("diversity_target_missed",
			slog.String("intent", string(intent)),
			slog.Int("sections", got),
			slog.Int("target", want),
		)
	}
	return selected
}

// minOverlap is the smallest similarity between a candidate and the
// selected set. A candidate that differs from even one selected item
// escapes the redundancy penalty.
func minOverlap(set map[string]struct{}, against []map[string]struct{}) float64 {
	min := 1.0
	for _, other := range against {
		if j := jaccard(set, other); j < min {
			min = j
		}
	}
	return min
}

// jaccard is word-set intersection over union; two empty sets overlap fully.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for w := range small {
		if _, ok := large[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func wordSet(content string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(content)) {
		set[w] = struct{}{}
	}
	return set
}

func countSections(candidates []domain.Candidate) int {
	sections := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		sections[c.Chunk.Section()] = struct{}{}
	}
	return len(sections)
}
