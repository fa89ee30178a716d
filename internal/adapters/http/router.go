package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/askvia/docs-copilot/internal/core/domain"
	"github.com/askvia/docs-copilot/internal/core/ports"
	"github.com/askvia/docs-copilot/internal/observability/metrics"
)

const serviceName = "docs-copilot"

type TrafficConfig struct {
	RateLimitRPS    float64
	RateLimitBurst  int
	MaxConcurrent   int
	BackpressureMax time.Duration
}

type Router struct {
	retriever ports.Retriever
	answerer  ports.AnswerService
	metrics   *metrics.HTTPServerMetrics
	traffic   TrafficConfig
}

func NewRouter(
	retriever ports.Retriever,
	answerer ports.AnswerService,
	m *metrics.HTTPServerMetrics,
	traffic TrafficConfig,
) *Router {
	return &Router{
		retriever: retriever,
		answerer:  answerer,
		metrics:   m,
		traffic:   traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/retrieve", rt.retrieve)
	mux.HandleFunc("/v1/answer", rt.answer)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.traffic.MaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.traffic.MaxConcurrent, rt.traffic.BackpressureMax)
	}
	if rt.traffic.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type retrieveRequest struct {
	Query          string `json:"query"`
	OrganizationID string `json:"organization_id"`
	DatasetID      string `json:"dataset_id"`
	K              int    `json:"k"`
}

func (req retrieveRequest) toOpts() domain.RetrieveOpts {
	return domain.RetrieveOpts{
		Query:          req.Query,
		OrganizationID: req.OrganizationID,
		DatasetID:      req.DatasetID,
		K:              req.K,
	}
}

func decodeRetrieveRequest(w http.ResponseWriter, r *http.Request) (retrieveRequest, bool) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return req, false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return req, false
	}
	if req.OrganizationID == "" || req.DatasetID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "organization_id and dataset_id are required"})
		return req, false
	}
	return req, true
}

func (rt *Router) retrieve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok := decodeRetrieveRequest(w, r)
	if !ok {
		return
	}

	sources, meta, err := rt.retriever.Retrieve(r.Context(), req.toOpts())
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	rt.recordRetrieval(meta, len(sources))

	writeJSON(w, http.StatusOK, map[string]any{
		"sources": sources,
		"meta":    meta,
	})
}

func (rt *Router) answer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	req, ok := decodeRetrieveRequest(w, r)
	if !ok {
		return
	}

	answer, err := rt.answerer.Answer(r.Context(), req.toOpts())
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	rt.recordRetrieval(answer.Meta, len(answer.Contexts))
	if rt.metrics != nil {
		rt.metrics.RecordAnswerMode(serviceName, string(answer.Mode))
	}

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) recordRetrieval(meta domain.RetrievalMeta, sourceCount int) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordRetrieval(
		serviceName,
		string(meta.Intent),
		string(meta.ConfidenceLevel),
		sourceCount,
		meta.FallbackTriggered,
		meta.NoContext,
		time.Duration(meta.RetrievalTimeMs)*time.Millisecond,
	)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
