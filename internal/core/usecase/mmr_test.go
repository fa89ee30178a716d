package usecase

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func diverseCandidate(id string, page int, content string, score float64) domain.Candidate {
	return domain.Candidate{
		Chunk: domain.Chunk{
			ID:          id,
			DocumentID:  "doc-1",
			Content:     content,
			SectionPath: fmt.Sprintf("section-%d", page),
			Metadata:    domain.ElementMetadata{Page: page},
		},
		HybridScore: score,
	}
}

func TestSelectDiversePageCap(t *testing.T) {
	// Fifty candidates all on page 3; the default cap admits only two.
	var pool []domain.Candidate
	for i := 0; i < 50; i++ {
		pool = append(pool, diverseCandidate(
			fmt.Sprintf("c%d", i), 3,
			fmt.Sprintf("content variant %d with words", i),
			1.0-float64(i)*0.01,
		))
	}

	selected := SelectDiverse(testLogger(), domain.IntentDefault, pool, 8)
	if len(selected) != 2 {
		t.Fatalf("expected page cap to limit selection to 2, got %d", len(selected))
	}
}

func TestSelectDiverseStructuredIntentCap(t *testing.T) {
	var pool []domain.Candidate
	for i := 0; i < 10; i++ {
		pool = append(pool, diverseCandidate(
			fmt.Sprintf("c%d", i), 1,
			fmt.Sprintf("table row content %d", i),
			1.0-float64(i)*0.05,
		))
	}

	selected := SelectDiverse(testLogger(), domain.IntentTable, pool, 8)
	if len(selected) != 3 {
		t.Fatalf("expected structured cap of 3, got %d", len(selected))
	}
}

func TestSelectDiversePenalizesNearDuplicates(t *testing.T) {
	pool := []domain.Candidate{
		diverseCandidate("a", 1, "the quick brown fox jumps over the lazy dog", 0.9),
		diverseCandidate("b", 2, "the quick brown fox jumps over the lazy dog", 0.89),
		diverseCandidate("c", 3, "completely different subject matter entirely here", 0.5),
	}

	selected := SelectDiverse(testLogger(), domain.IntentDefault, pool, 2)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected, got %d", len(selected))
	}
	if selected[0].Chunk.ID != "a" {
		t.Fatalf("expected highest score first, got %s", selected[0].Chunk.ID)
	}
	if selected[1].Chunk.ID != "c" {
		t.Fatalf("expected diverse candidate second, got %s", selected[1].Chunk.ID)
	}
}

func TestSelectDiverseRedundancyUsesSmallestSimilarity(t *testing.T) {
	// Once the selection holds dissimilar items, a duplicate of just one
	// of them carries no penalty (its smallest similarity is ~0), so the
	// higher-scored duplicate must beat a weaker distinct candidate.
	pool := []domain.Candidate{
		diverseCandidate("a", 1, "alpha bravo charlie delta echo", 0.9),
		diverseCandidate("b", 2, "foxtrot golf hotel india juliet", 0.8),
		diverseCandidate("c", 3, "alpha bravo charlie delta echo", 0.7),
		diverseCandidate("d", 4, "kilo lima mike november oscar", 0.5),
	}

	selected := SelectDiverse(testLogger(), domain.IntentDefault, pool, 3)
	if len(selected) != 3 {
		t.Fatalf("expected 3 selected, got %d", len(selected))
	}
	if selected[2].Chunk.ID != "c" {
		t.Fatalf("third pick = %q, want %q", selected[2].Chunk.ID, "c")
	}
}

func TestSelectDiverseEmptyAndOversizedK(t *testing.T) {
	if out := SelectDiverse(testLogger(), domain.IntentDefault, nil, 5); len(out) != 0 {
		t.Fatalf("expected empty output, got %d", len(out))
	}

	pool := []domain.Candidate{
		diverseCandidate("a", 1, "alpha words", 0.8),
		diverseCandidate("b", 2, "beta words", 0.6),
	}
	if out := SelectDiverse(testLogger(), domain.IntentDefault, pool, 10); len(out) != 2 {
		t.Fatalf("expected k clamped to pool size, got %d", len(out))
	}
}

func TestJaccard(t *testing.T) {
	a := wordSet("alpha beta gamma")
	b := wordSet("beta gamma delta")
	if got := jaccard(a, b); got != 0.5 {
		t.Fatalf("jaccard = %f, want 0.5", got)
	}
	if got := jaccard(wordSet(""), wordSet("")); got != 1 {
		t.Fatalf("empty sets should fully overlap, got %f", got)
	}
}
