package ports

import (
	"context"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

// Retriever is the inbound contract for ranked context retrieval.
type Retriever interface {
	Retrieve(ctx context.Context, opts domain.RetrieveOpts) ([]domain.RetrievalSource, domain.RetrievalMeta, error)
}

// AnswerService is the inbound contract for full question answering:
// retrieval, verbatim extraction, optional generation, finalization.
type AnswerService interface {
	Answer(ctx context.Context, opts domain.RetrieveOpts) (*domain.Answer, error)
}
