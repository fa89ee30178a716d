package ports

import (
	"context"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

// Embedder builds a query vector from text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore performs scoped read-only search over pre-computed chunks.
type ChunkStore interface {
	// SearchVector returns up to limit chunks ordered by cosine distance
	// to the query vector, with VectorScore populated.
	SearchVector(ctx context.Context, scope domain.RetrieveOpts, vector []float32, limit int) ([]domain.Candidate, error)
	// SearchLexical returns up to limit chunks ranked by the datastore's
	// lexical rank function, with raw (unnormalized) TextScore populated.
	SearchLexical(ctx context.Context, scope domain.RetrieveOpts, query string, limit int) ([]domain.Candidate, error)
}

// AnswerGenerator is the external generative collaborator used only when
// verbatim extraction fails.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, contexts []domain.RetrievalSource) (string, error)
}

// EventPublisher emits fire-and-forget telemetry events.
type EventPublisher interface {
	PublishRetrievalCompleted(ctx context.Context, meta domain.RetrievalMeta) error
}
