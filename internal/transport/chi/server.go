// Package chi exposes the search service over HTTP using the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/doclens/doclens/internal/domain"
	healthuc "github.com/doclens/doclens/internal/usecase/health"
	searchuc "github.com/doclens/doclens/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server hosts the HTTP API handlers.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		reasonHandler(domain.ReasonInvalidQuery, http.StatusBadRequest),
		reasonHandler(domain.ReasonEmbeddingFailure, http.StatusBadGateway),
		reasonHandler(domain.ReasonSemanticRetrieval, http.StatusBadGateway),
		reasonHandler(domain.ReasonKeywordRetrieval, http.StatusBadGateway),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_failure"),
		sentinelHandler(domain.ErrRetrievalFailed, http.StatusBadGateway, "retrieval_failure"),
	}
	return s
}

// RegisterRoutes mounts all API routes onto r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/v1/search", s.Search)
	r.Delete("/v1/cache", s.InvalidateCache)
	r.Get("/healthz", s.Healthz)
	r.Get("/metrics", s.Metrics)
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var dto searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	req, err := dto.toRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponseDTO(resp))
}

// InvalidateCache handles DELETE /v1/cache. An optional ?pattern= glob
// narrows the invalidation; without it every cached response is dropped.
func (s *Server) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")

	removed, err := s.search.InvalidateCache(r.Context(), pattern)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, invalidateResponseDTO{Removed: removed})
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, res := range report.Checks {
		checks[name] = string(res)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponseDTO{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponseDTO{
		Error: errorBodyDTO{Code: code, Message: message},
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	switch domain.ReasonOf(err) {
	case domain.ReasonInvalidQuery:
		return "invalid search query"
	case domain.ReasonEmbeddingFailure:
		return "embedding provider unavailable"
	case domain.ReasonSemanticRetrieval:
		return "semantic retrieval failed"
	case domain.ReasonKeywordRetrieval:
		return "keyword retrieval failed"
	}
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrEmbeddingProviderError,
		domain.ErrRetrievalFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// reasonHandler returns an errorHandler that matches a SearchError reason code.
func reasonHandler(reason domain.Reason, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if domain.ReasonOf(err) != reason {
			return false
		}
		writeError(w, status, string(reason), msg)
		return true
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
