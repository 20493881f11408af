// Package chi holds the HTTP API layer: route registration, request
// decoding, domain-error-to-status mapping, and bearer auth.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shoptalk-ai/shoptalk/internal/domain"
	healthuc "github.com/shoptalk-ai/shoptalk/internal/usecase/health"
	"github.com/shoptalk-ai/shoptalk/internal/version"
)

// Answerer runs the full retrieval pipeline.
type Answerer interface {
	Answer(ctx context.Context, query string, k int) (domain.Answer, error)
}

// Searcher runs raw similarity search.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.Candidate, error)
}

// HealthChecker reports aggregated readiness.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Status
}

// Server exposes the API over chi.
type Server struct {
	answer Answerer
	search Searcher
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(answer Answerer, search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{answer: answer, search: search, health: health, logger: logger}
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/answer", s.handleAnswer)
	r.Get("/search", s.handleSearch)
	r.Get("/health", s.handleHealth)
	r.Get("/debug", s.handleDebug)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// handleAnswer handles GET /answer?q=...&k=...
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	k, ok := parseK(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", "k must be a positive integer")
		return
	}

	answer, err := s.answer.Answer(r.Context(), query, k)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		Summary:        answer.Summary,
		RewrittenQuery: answer.Rewrite,
		Filters:        filtersToDTO(answer.Filters),
		Results:        resultsToDTO(answer.Results),
		DegradedParse:  answer.DegradedParse,
	})
}

// handleSearch handles GET /search?q=...&k=...
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	k, ok := parseK(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", "k must be a positive integer")
		return
	}

	candidates, err := s.search.Search(r.Context(), query, k)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Items: resultsToDTO(candidates),
		Total: len(candidates),
	})
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.health.Check(r.Context())

	resp := healthResponse{
		Status: "healthy",
		Checks: map[string]string{
			"store":    checkWord(status.StoreOK),
			"embedder": checkWord(status.EmbedderOK),
		},
		StoreDriver:   status.StoreDriver,
		DocumentCount: status.DocumentCount,
	}
	httpStatus := http.StatusOK
	if !status.Healthy {
		resp.Status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, resp)
}

// smokeQuery exercises the embed-and-retrieve path from /debug.
const smokeQuery = "running shoes"

// handleDebug handles GET /debug.
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	status := s.health.Check(r.Context())

	smokeCount := 0
	if hits, err := s.search.Search(r.Context(), smokeQuery, 3); err == nil {
		smokeCount = len(hits)
	} else {
		s.logger.Warn("Debug smoke query failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, debugResponse{
		Version:          version.Version,
		StoreDriver:      status.StoreDriver,
		DocumentCount:    status.DocumentCount,
		SmokeQuery:       smokeQuery,
		SmokeResultCount: smokeCount,
	})
}

// parseK reads the optional k query param. 0 means "use the default".
func parseK(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("k")
	if raw == "" {
		return 0, true
	}
	k, err := strconv.Atoi(raw)
	if err != nil || k <= 0 {
		return 0, false
	}
	return k, true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "empty_query", "query parameter q is required")
	case errors.Is(err, domain.ErrRequestTimeout):
		writeError(w, http.StatusRequestTimeout, "request_timeout", "request exceeded the time budget")
	case errors.Is(err, domain.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", "embedding provider rate limited")
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, "embedding_provider_error", "embedding provider error")
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "vector store unavailable")
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func checkWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
