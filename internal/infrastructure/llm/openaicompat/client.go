package openaicompat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/askvia/docs-copilot/internal/core/domain"
)

// Client speaks the OpenAI-compatible REST surface: /v1/embeddings for
// query vectors and /v1/chat/completions for generated answers. Any
// provider exposing that contract works.
type Client struct {
	baseURL    string
	apiKey     string
	embedModel string
	chatModel  string
	httpClient *http.Client
}

func New(baseURL, apiKey, embedModel, chatModel string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		embedModel: embedModel,
		chatModel:  chatModel,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": e.client.embedModel,
		"input": []string{text},
	}

	var response struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := e.client.postJSON(ctx, "/v1/embeddings", request, &response, "embed"); err != nil {
		return nil, err
	}
	if len(response.Data) == 0 || len(response.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Data[0].Embedding, nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, question string, contexts []domain.RetrievalSource) (string, error) {
	request := map[string]any{
		"model": g.client.chatModel,
		"messages": []map[string]string{
			{"role": "system", "content": answerSystemPrompt},
			{"role": "user", "content": buildAnswerPrompt(question, contexts)},
		},
		"temperature": 0.1,
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := g.client.postJSON(ctx, "/v1/chat/completions", request, &response, "generate"); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("empty completion result")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

const answerSystemPrompt = "You answer questions strictly from the provided documentation excerpts. " +
	"Quote exact values, endpoints, and field names. If the excerpts do not contain the answer, say so."

func buildAnswerPrompt(question string, contexts []domain.RetrievalSource) string {
	var b strings.Builder
	b.WriteString("Documentation excerpts:\n\n")
	for i, src := range contexts {
		fmt.Fprintf(&b, "[%d] %s (page %d)\n%s\n\n", i+1, src.Title, src.Page, src.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
