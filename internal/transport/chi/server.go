package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/usecase/ask"
	healthuc "github.com/kailas-cloud/drugqa/internal/usecase/health"
	"github.com/kailas-cloud/drugqa/internal/usecase/ingest"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeUnauthorized     = "unauthorized"
	CodeNotFound         = "not_found"
	CodeRateLimited      = "rate_limited"
	CodeProviderError    = "provider_error"
	CodeInternalError    = "internal_error"
)

const (
	maxDocumentsPerRequest = 100
	maxBodyBytes           = 32 << 20
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AskRequest is the body of POST /v1/ask.
type AskRequest struct {
	Query   string   `json:"query"`
	Tenants []string `json:"tenants,omitempty"`
	Source  string   `json:"source,omitempty"`
	DrugID  string   `json:"drug_id,omitempty"`
	TopK    int      `json:"top_k,omitempty"`
}

// IngestRequest is the body of POST /v1/tenants/{tenant}/documents.
type IngestRequest struct {
	Documents []ingest.Document `json:"documents"`
}

// DeleteResponse reports whether a purge removed anything.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the question answering and ingestion API.
type Server struct {
	asker         Asker
	ingester      Ingester
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(asker Asker, ingester Ingester, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		asker:    asker,
		ingester: ingester,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidTenant, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusUnprocessableEntity, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeProviderError),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, CodeProviderError),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.Ask)
		r.Route("/tenants/{tenant}", func(r chi.Router) {
			r.Post("/documents", s.IngestDocuments)
			r.Delete("/drugs/{drugID}", s.DeleteDrug)
			r.Delete("/files/{fileID}", s.DeleteFile)
			r.Get("/stats", s.Stats)
		})
	})
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.TopK < 0 || req.TopK > domain.MaxTopK {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("top_k must be between 0 and %d", domain.MaxTopK))
		return
	}

	tenants := make([]domain.TenantID, len(req.Tenants))
	for i, t := range req.Tenants {
		tenants[i] = domain.TenantID(t)
	}

	resp, err := s.asker.Ask(r.Context(), ask.Request{
		Query:   req.Query,
		Tenants: tenants,
		Source:  domain.TenantID(req.Source),
		DrugID:  req.DrugID,
		TopK:    req.TopK,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if resp.Usage.EmbeddingTokens > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(resp.Usage.EmbeddingTokens))
	}
	writeJSON(w, http.StatusOK, resp)
}

// IngestDocuments handles POST /v1/tenants/{tenant}/documents.
func (s *Server) IngestDocuments(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 || len(req.Documents) > maxDocumentsPerRequest {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", maxDocumentsPerRequest))
		return
	}
	for i, d := range req.Documents {
		if d.DrugID == "" || d.FileID == "" {
			writeError(w, http.StatusBadRequest, CodeValidationFailed,
				fmt.Sprintf("documents[%d]: drug_id and file_id are required", i))
			return
		}
	}

	res, err := s.ingester.Ingest(r.Context(), tenantParam(r), req.Documents...)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// DeleteDrug handles DELETE /v1/tenants/{tenant}/drugs/{drugID}.
func (s *Server) DeleteDrug(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.ingester.DeleteDrug(r.Context(), tenantParam(r), chi.URLParam(r, "drugID"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: deleted})
}

// DeleteFile handles DELETE /v1/tenants/{tenant}/files/{fileID}.
func (s *Server) DeleteFile(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.ingester.DeleteFile(r.Context(), tenantParam(r), chi.URLParam(r, "fileID"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: deleted})
}

// Stats handles GET /v1/tenants/{tenant}/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ingester.Stats(r.Context(), tenantParam(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func tenantParam(r *http.Request) domain.TenantID {
	return domain.TenantID(chi.URLParam(r, "tenant"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrInvalidTenant,
		domain.ErrVectorDimMismatch,
		domain.ErrNotFound,
		domain.ErrRateLimited,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
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

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", chimw.GetReqID(r.Context())))
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
