package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/askvia/docs-copilot/internal/core/domain"
	"github.com/askvia/docs-copilot/internal/core/ports"
)

const defaultTopK = 8

// RetrieveOptions toggles individual pipeline stages. All default to on;
// turning one off degrades gracefully to the previous stage's output.
type RetrieveOptions struct {
	HybridFusion   bool
	MMRRerank      bool
	FallbackExpand bool
}

type RetrieveUseCase struct {
	embedder ports.Embedder
	store    ports.ChunkStore
	events   ports.EventPublisher
	logger   *slog.Logger
	opts     RetrieveOptions
}

func NewRetrieveUseCase(
	embedder ports.Embedder,
	store ports.ChunkStore,
	events ports.EventPublisher,
	logger *slog.Logger,
	opts RetrieveOptions,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder: embedder,
		store:    store,
		events:   events,
		logger:   logger,
		opts:     opts,
	}
}

// Retrieve runs the full pipeline: classify, plan, hybrid search, filter,
// diversify, score confidence, optionally expand, and shape the output.
// An empty result is not an error; callers read Meta.NoContext.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, opts domain.RetrieveOpts) ([]domain.RetrievalSource, domain.RetrievalMeta, error) {
	selected, meta, err := uc.retrieveCandidates(ctx, opts)
	if err != nil {
		return nil, domain.RetrievalMeta{}, err
	}
	return toSources(selected), meta, nil
}

// retrieveCandidates is Retrieve before the output shaping; the answer
// path uses it directly because extraction needs chunk metadata.
func (uc *RetrieveUseCase) retrieveCandidates(ctx context.Context, opts domain.RetrieveOpts) ([]domain.Candidate, domain.RetrievalMeta, error) {
	started := time.Now()

	if strings.TrimSpace(opts.Query) == "" {
		return nil, domain.RetrievalMeta{}, domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("empty query"))
	}
	if opts.OrganizationID == "" || opts.DatasetID == "" {
		return nil, domain.RetrievalMeta{}, domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("missing scope"))
	}

	intent := opts.Intent
	if intent == "" {
		intent = ClassifyIntent(opts.Query)
	}
	topK := opts.K
	if topK <= 0 {
		topK = defaultTopK
	}

	plan := PlanForIntent(intent)

	// An unreachable embedding provider fails closed: no zero-vector
	// search, no partial pipeline, just the no-context terminal.
	vector, err := uc.embedder.EmbedQuery(ctx, opts.Query)
	if err != nil {
		uc.logger.Warn("embed_query_failed", slog.String("error", err.Error()))
		meta := domain.RetrievalMeta{
			Intent:          intent,
			ConfidenceLevel: domain.ConfidenceLow,
			NoContext:       true,
			RetrievalTimeMs: time.Since(started).Milliseconds(),
		}
		uc.publish(ctx, meta)
		return nil, meta, nil
	}

	pool, err := uc.searchHybrid(ctx, opts, vector, plan.K)
	if err != nil {
		return nil, domain.RetrievalMeta{}, err
	}

	filtered := ApplyPlanFilters(plan, pool)
	if plan.Filtered() && len(filtered) < minFilteredSurvivors {
		uc.logger.Info("plan_filter_starved",
			slog.String("intent", string(intent)),
			slog.Int("survivors", len(filtered)),
		)
		filtered = pool
	}
	SortWithPreference(plan.Prefer, filtered)

	selected := uc.rerank(intent, filtered, topK)
	sig := ScoreConfidence(selected)

	meta := domain.RetrievalMeta{
		Top1:            sig.Top1,
		ScoreGap:        sig.ScoreGap,
		UniqueSections:  sig.UniqueSections,
		ConfidenceLevel: sig.Level,
		Intent:          intent,
	}

	if uc.opts.FallbackExpand && ShouldFallback(sig, len(selected)) {
		expanded, strategies, expErr := uc.expandFallback(ctx, opts, vector, plan, pool)
		if expErr != nil {
			uc.logger.Warn("fallback_expansion_failed", slog.String("error", expErr.Error()))
		} else {
			SortWithPreference(plan.Prefer, expanded)
			selected = uc.rerank(intent, expanded, topK)
			sig = ScoreConfidence(selected)
			meta.Top1 = sig.Top1
			meta.ScoreGap = sig.ScoreGap
			meta.UniqueSections = sig.UniqueSections
			meta.ConfidenceLevel = sig.Level
			meta.FallbackTriggered = true
			meta.ExpansionStrategy = strategies
		}
	}

	meta.RetrievalTimeMs = time.Since(started).Milliseconds()
	meta.NoContext = len(selected) == 0

	uc.publish(ctx, meta)

	return selected, meta, nil
}

// searchHybrid runs the vector and lexical passes concurrently and fuses
// them. Each pass fetches twice the requested k so the fusion and the
// diversity pass have headroom to work with. With fusion disabled only
// the vector pass runs.
func (uc *RetrieveUseCase) searchHybrid(ctx context.Context, opts domain.RetrieveOpts, vector []float32, limit int) ([]domain.Candidate, error) {
	fetch := limit * 2

	if !uc.opts.HybridFusion {
		hits, err := uc.store.SearchVector(ctx, opts, vector, fetch)
		if err != nil {
			return nil, domain.WrapError(domain.ErrDatastore, "search_vector", err)
		}
		return FuseHybrid(hits, nil), nil
	}

	var (
		wg          sync.WaitGroup
		vectorHits  []domain.Candidate
		lexicalHits []domain.Candidate
		vectorErr   error
		lexicalErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = uc.store.SearchVector(ctx, opts, vector, fetch)
	}()
	go func() {
		defer wg.Done()
		tsQuery := TokenizeLexicalQuery(opts.Query)
		if tsQuery == "" {
			return
		}
		lexicalHits, lexicalErr = uc.store.SearchLexical(ctx, opts, tsQuery, fetch)
	}()
	wg.Wait()

	if vectorErr != nil {
		return nil, domain.WrapError(domain.ErrDatastore, "search_vector", vectorErr)
	}
	if lexicalErr != nil {
		// Lexical is the junior partner; losing it degrades to
		// vector-only scoring rather than failing the request.
		uc.logger.Warn("lexical_search_failed", slog.String("error", lexicalErr.Error()))
		lexicalHits = nil
	}

	return FuseHybrid(vectorHits, lexicalHits), nil
}

func (uc *RetrieveUseCase) rerank(intent domain.Intent, candidates []domain.Candidate, topK int) []domain.Candidate {
	if !uc.opts.MMRRerank {
		if topK > len(candidates) {
			topK = len(candidates)
		}
		return candidates[:topK]
	}
	return SelectDiverse(uc.logger, intent, candidates, topK)
}

// publish emits telemetry without blocking the caller or failing the
// request; a dead broker only costs a log line.
func (uc *RetrieveUseCase) publish(ctx context.Context, meta domain.RetrievalMeta) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishRetrievalCompleted(ctx, meta); err != nil {
		uc.logger.Warn("telemetry_publish_failed", slog.String("error", err.Error()))
	}
}

func toSources(selected []domain.Candidate) []domain.RetrievalSource {
	sources := make([]domain.RetrievalSource, 0, len(selected))
	for _, c := range selected {
		sources = append(sources, domain.RetrievalSource{
			ID:          c.Chunk.ID,
			DocumentID:  c.Chunk.DocumentID,
			Content:     c.Chunk.Content,
			Score:       c.HybridScore,
			Page:        c.Chunk.Page(),
			SectionPath: c.Chunk.SectionName(),
			ChunkIndex:  c.Chunk.ChunkIndex,
			Title:       c.Chunk.Title,
		})
	}
	return sources
}
