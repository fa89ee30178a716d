package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

const (
	vectorWeight = 0.7
	textWeight   = 0.3
)

// TokenizeLexicalQuery turns free text into the AND-joined token query the
// datastore's ranked search expects: lowercased, non-alphanumerics
// stripped, tokens shorter than 3 runes dropped.
func TokenizeLexicalQuery(query string) string {
	tokens := splitAlphaNumLower(query)
	kept := tokens[:0]
	for _, tok := range tokens {
		if len(tok) >= 3 {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " & ")
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

// FuseHybrid unions the two result sets by chunk id (full outer join
// semantics: a chunk seen by only one pass scores 0 on the other),
// normalizes lexical scores against the batch maximum, applies the
// 0.7/0.3 weighted fusion, and sorts descending with a deterministic
// tiebreak.
func FuseHybrid(vectorHits, lexicalHits []domain.Candidate) []domain.Candidate {
	acc := make(map[string]domain.Candidate, len(vectorHits)+len(lexicalHits))

	for _, c := range vectorHits {
		acc[c.Chunk.ID] = c
	}
	for _, c := range lexicalHits {
		if existing, ok := acc[c.Chunk.ID]; ok {
			if c.TextScore > existing.TextScore {
				existing.TextScore = c.TextScore
			}
			acc[c.Chunk.ID] = existing
			continue
		}
		acc[c.Chunk.ID] = c
	}

	fused := make([]domain.Candidate, 0, len(acc))
	for _, c := range acc {
		fused = append(fused, c)
	}

	normalizeTextScores(fused)
	for i := range fused {
		fused[i].HybridScore = vectorWeight*fused[i].VectorScore + textWeight*fused[i].TextScore
	}

	sortByHybridScore(fused)
	return fused
}

// normalizeTextScores maps raw lexical rank values onto [0,1] by dividing
// by the batch maximum. A batch whose maximum is 0 stays at 0.
func normalizeTextScores(candidates []domain.Candidate) {
	maxScore := 0.0
	for _, c := range candidates {
		if c.TextScore > maxScore {
			maxScore = c.TextScore
		}
	}
	if maxScore == 0 {
		return
	}
	for i := range candidates {
		candidates[i].TextScore /= maxScore
	}
}

// scoreLexicalOnly scores a pool that never saw the vector pass: text
// scores are normalized against the batch maximum and the text weight
// alone carries the hybrid score, so the pool ranks against fused
// candidates instead of sinking to zero.
func scoreLexicalOnly(candidates []domain.Candidate) {
	normalizeTextScores(candidates)
	for i := range candidates {
		candidates[i].HybridScore = textWeight * candidates[i].TextScore
	}
}

func sortByHybridScore(candidates []domain.Candidate) {
	SortWithPreference(domain.PreferNone, candidates)
}

// SortWithPreference orders by hybrid score descending. Exact score ties
// go to candidates matching the plan's soft preference, then to the
// deterministic document/chunk ordering.
func SortWithPreference(prefer domain.PreferKind, candidates []domain.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].HybridScore != candidates[j].HybridScore {
			return candidates[i].HybridScore > candidates[j].HybridScore
		}
		if prefer != domain.PreferNone {
			pi, pj := preferMatches(prefer, candidates[i]), preferMatches(prefer, candidates[j])
			if pi != pj {
				return pi
			}
		}
		return lessByChunkOrder(candidates[i], candidates[j])
	})
}

func lessByChunkOrder(a, b domain.Candidate) bool {
	if a.Chunk.DocumentID != b.Chunk.DocumentID {
		return a.Chunk.DocumentID < b.Chunk.DocumentID
	}
	if a.Chunk.ChunkIndex != b.Chunk.ChunkIndex {
		return a.Chunk.ChunkIndex < b.Chunk.ChunkIndex
	}
	return a.Chunk.ID < b.Chunk.ID
}

// MergeDeduplicate unions candidate pools keeping the first occurrence of
// each chunk id, then re-sorts by hybrid score.
func MergeDeduplicate(pools ...[]domain.Candidate) []domain.Candidate {
	seen := make(map[string]struct{})
	var merged []domain.Candidate
	for _, pool := range pools {
		for _, c := range pool {
			if _, ok := seen[c.Chunk.ID]; ok {
				continue
			}
			seen[c.Chunk.ID] = struct{}{}
			merged = append(merged, c)
		}
	}
	sortByHybridScore(merged)
	return merged
}
