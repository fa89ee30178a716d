package usecase

import (
	"context"
	"log/slog"

	"github.com/askvia/docs-copilot/internal/core/domain"
	"github.com/askvia/docs-copilot/internal/core/ports"
)

type AnswerUseCase struct {
	retriever *RetrieveUseCase
	generator ports.AnswerGenerator
	logger    *slog.Logger
}

func NewAnswerUseCase(retriever *RetrieveUseCase, generator ports.AnswerGenerator, logger *slog.Logger) *AnswerUseCase {
	return &AnswerUseCase{retriever: retriever, generator: generator, logger: logger}
}

// Answer runs retrieval, attempts a deterministic verbatim extraction, and
// only hands off to the generator when extraction finds nothing. The final
// text always passes through the same normalization.
func (uc *AnswerUseCase) Answer(ctx context.Context, opts domain.RetrieveOpts) (*domain.Answer, error) {
	selected, meta, err := uc.retriever.retrieveCandidates(ctx, opts)
	if err != nil {
		return nil, err
	}

	if len(selected) == 0 {
		return &domain.Answer{
			Text: NoContextAnswer,
			Mode: domain.ModeNoContext,
			Tier: domain.ConfidenceLow,
			Meta: meta,
		}, nil
	}

	sources := toSources(selected)

	if ex, ok := ExtractVerbatim(meta.Intent, opts.Query, selected); ok {
		uc.logger.Info("verbatim_extraction_hit",
			slog.String("intent", string(meta.Intent)),
			slog.String("tier", string(ex.Tier)),
		)
		return &domain.Answer{
			Text:     FinalizeAnswer(ex.Text),
			Mode:     domain.ModeVerbatim,
			Tier:     ex.Tier,
			Contexts: sources,
			Meta:     meta,
		}, nil
	}

	text, err := uc.generator.GenerateAnswer(ctx, opts.Query, sources)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "generate_answer", err)
	}

	return &domain.Answer{
		Text:     FinalizeAnswer(text),
		Mode:     domain.ModeGenerated,
		Tier:     meta.ConfidenceLevel,
		Contexts: sources,
		Meta:     meta,
	}, nil
}
