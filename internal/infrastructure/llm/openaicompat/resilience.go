package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/askvia/docs-copilot/internal/core/domain"
	"github.com/askvia/docs-copilot/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "llm status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("llm %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("llm %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyLLMError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyLLMError(err).Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

// ResilientEmbedder runs embedding calls through the shared executor.
type ResilientEmbedder struct {
	embedder *Embedder
	executor *resilience.Executor
}

func NewResilientEmbedder(embedder *Embedder, executor *resilience.Executor) *ResilientEmbedder {
	return &ResilientEmbedder{embedder: embedder, executor: executor}
}

func (r *ResilientEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := r.executor.Execute(ctx, "llm_embed_query", func(ctx context.Context) error {
		var callErr error
		vector, callErr = r.embedder.EmbedQuery(ctx, text)
		return callErr
	}, classifyLLMError)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed_query", err)
	}
	return vector, nil
}

// ResilientGenerator runs completion calls through the shared executor.
type ResilientGenerator struct {
	generator *Generator
	executor  *resilience.Executor
}

func NewResilientGenerator(generator *Generator, executor *resilience.Executor) *ResilientGenerator {
	return &ResilientGenerator{generator: generator, executor: executor}
}

func (r *ResilientGenerator) GenerateAnswer(ctx context.Context, question string, contexts []domain.RetrievalSource) (string, error) {
	var text string
	err := r.executor.Execute(ctx, "llm_generate_answer", func(ctx context.Context) error {
		var callErr error
		text, callErr = r.generator.GenerateAnswer(ctx, question, contexts)
		return callErr
	}, classifyLLMError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate_answer", err)
	}
	return text, nil
}
