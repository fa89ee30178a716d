package usecase

import (
	"context"
	"sync"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

const (
	fallbackExtraK   = 10
	fallbackLexicalK = 20
	strategyWiderK   = "wider_k"
	strategyLexical  = "lexical_only"
	strategyUnfilter = "relax_filters"
)

// expandFallback widens a weak retrieval with three concurrent strategies:
// the same hybrid search at a larger k, a lexical-only pass, and (for
// filtered plans) the original pool with filters relaxed. The merged pool
// always contains at least the original candidates.
func (uc *RetrieveUseCase) expandFallback(
	ctx context.Context,
	opts domain.RetrieveOpts,
	vector []float32,
	plan domain.SearchPlan,
	original []domain.Candidate,
) ([]domain.Candidate, []string, error) {
	var (
		wg        sync.WaitGroup
		widerHits []domain.Candidate
		lexHits   []domain.Candidate
		widerErr  error
		lexErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		widerHits, widerErr = uc.searchHybrid(ctx, opts, vector, plan.K+fallbackExtraK)
	}()
	go func() {
		defer wg.Done()
		tsQuery := TokenizeLexicalQuery(opts.Query)
		if tsQuery == "" {
			return
		}
		lexHits, lexErr = uc.store.SearchLexical(ctx, opts, tsQuery, fallbackLexicalK)
	}()
	wg.Wait()

	if widerErr != nil && lexErr != nil {
		return nil, nil, widerErr
	}

	strategies := make([]string, 0, 3)
	pools := [][]domain.Candidate{original}
	if widerErr == nil && len(widerHits) > 0 {
		pools = append(pools, widerHits)
		strategies = append(strategies, strategyWiderK)
	}
	if lexErr == nil && len(lexHits) > 0 {
		scoreLexicalOnly(lexHits)
		pools = append(pools, lexHits)
		strategies = append(strategies, strategyLexical)
	}
	if plan.Filtered() {
		// The primary pass may have discarded the only relevant chunks;
		// readmit everything the unfiltered search saw.
		strategies = append(strategies, strategyUnfilter)
	}

	return MergeDeduplicate(pools...), strategies, nil
}
