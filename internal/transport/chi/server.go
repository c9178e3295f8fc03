package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docman/internal/domain"
	dombulk "github.com/kailas-cloud/docman/internal/domain/bulk"
	domentity "github.com/kailas-cloud/docman/internal/domain/entity"
	"github.com/kailas-cloud/docman/internal/domain/flatten"
	"github.com/kailas-cloud/docman/internal/domain/validate"
	bulkuc "github.com/kailas-cloud/docman/internal/usecase/bulk"
	entityuc "github.com/kailas-cloud/docman/internal/usecase/entity"
	healthuc "github.com/kailas-cloud/docman/internal/usecase/health"
)

// Error response codes.
const (
	codeBadRequest       = "BAD_REQUEST"
	codeValidationFailed = "VALIDATION_FAILED"
	codeNotFound         = "NOT_FOUND"
	codeAlreadyExists    = "ALREADY_EXISTS"
	codeUnsupportedKey   = "UNSUPPORTED_KEY"
	codeInternalError    = "INTERNAL_ERROR"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API surface over the entity, bulk and health services.
type Server struct {
	entities      *entityuc.Service
	bulk          *bulkuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	entities *entityuc.Service,
	bulk *bulkuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		entities: entities,
		bulk:     bulk,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrUnsupportedKey, http.StatusBadRequest, codeUnsupportedKey),
		backendHandler,
	}
	return s
}

// Routes registers all API routes on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1/entities", func(r chi.Router) {
		r.Post("/", s.CreateEntity)
		r.Post("/search", s.SearchEntities)

		r.Post("/batch", s.BulkCreate)
		r.Patch("/batch", s.BulkUpdate)
		r.Delete("/batch", s.BulkDelete)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetEntity)
			r.Patch("/", s.PatchEntity)
			r.Delete("/", s.DeleteEntity)
			r.Get("/flat", s.GetEntityFlat)
			r.Put("/flat", s.PutEntityFlat)
		})
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// CreateEntity handles POST /api/v1/entities.
func (s *Server) CreateEntity(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeBody(w, r)
	if !ok {
		return
	}

	e, err := s.entities.Create(r.Context(), payload)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/entities/"+e.ID())
	writeJSON(w, http.StatusCreated, entityToResponse(&e))
}

// GetEntity handles GET /api/v1/entities/{id}.
func (s *Server) GetEntity(w http.ResponseWriter, r *http.Request) {
	e, err := s.entities.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entityToResponse(&e))
}

// PatchEntity handles PATCH /api/v1/entities/{id}. Fields absent from the
// payload keep their stored values.
func (s *Server) PatchEntity(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeBody(w, r)
	if !ok {
		return
	}

	e, err := s.entities.Update(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entityToResponse(&e))
}

// DeleteEntity handles DELETE /api/v1/entities/{id}.
func (s *Server) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	if err := s.entities.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchEntities handles POST /api/v1/entities/search.
func (s *Server) SearchEntities(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	out, err := s.entities.Search(r.Context(), entityuc.SearchInput{
		Filters:  req.Filters,
		Sort:     req.Sort,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]entityResponse, len(out.Entities))
	for i := range out.Entities {
		items[i] = entityToResponse(&out.Entities[i])
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Items:    items,
		Total:    out.Total,
		Page:     out.Page,
		PageSize: out.PageSize,
	})
}

// GetEntityFlat handles GET /api/v1/entities/{id}/flat.
func (s *Server) GetEntityFlat(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entities.Flat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, flatResponse{Entries: entries})
}

// PutEntityFlat handles PUT /api/v1/entities/{id}/flat. The body carries
// the full set of path/value leaves; the stored entity is replaced.
func (s *Server) PutEntityFlat(w http.ResponseWriter, r *http.Request) {
	var req flatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	e, err := s.entities.FlatReplace(r.Context(), chi.URLParam(r, "id"), req.Entries)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entityToResponse(&e))
}

// BulkCreate handles POST /api/v1/entities/batch.
func (s *Server) BulkCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBodyMap(w, r)
	if !ok {
		return
	}

	summary, err := s.bulk.Create(r.Context(), body["entities"])
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bulkEntityResponse(summary, "created"))
}

// BulkUpdate handles PATCH /api/v1/entities/batch.
func (s *Server) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBodyMap(w, r)
	if !ok {
		return
	}

	summary, err := s.bulk.Update(r.Context(), body["updates"])
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bulkEntityResponse(summary, "updated"))
}

// BulkDelete handles DELETE /api/v1/entities/batch.
func (s *Server) BulkDelete(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBodyMap(w, r)
	if !ok {
		return
	}

	summary, err := s.bulk.Delete(r.Context(), body["ids"])
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bulkResponse[string]{
		Success:        summary.Success,
		TotalProcessed: summary.TotalProcessed,
		TotalSuccess:   summary.TotalSuccess,
		TotalFailed:    summary.TotalFailed,
		Deleted:        summary.Succeeded,
		Failed:         summary.Failed,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// --- Wire shapes ---

type entityResponse struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Status     string         `json:"status"`
	Priority   int            `json:"priority"`
	Tags       []string       `json:"tags"`
	Attributes map[string]any `json:"attributes,omitempty"`
	CreatedAt  int64          `json:"createdAt"`
	UpdatedAt  int64          `json:"updatedAt"`
}

type searchRequest struct {
	Filters  any `json:"filters"`
	Sort     any `json:"sort"`
	Page     any `json:"page"`
	PageSize any `json:"pageSize"`
}

type searchResponse struct {
	Items    []entityResponse `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

type flatRequest struct {
	Entries []flatten.Entry `json:"entries"`
}

type flatResponse struct {
	Entries []flatten.Entry `json:"entries"`
}

// bulkResponse carries a per-item outcome summary. Exactly one of Created,
// Updated or Deleted is populated, named after the operation.
type bulkResponse[T any] struct {
	Success        bool              `json:"success"`
	TotalProcessed int               `json:"totalProcessed"`
	TotalSuccess   int               `json:"totalSuccess"`
	TotalFailed    int               `json:"totalFailed"`
	Created        []T               `json:"created,omitempty"`
	Updated        []T               `json:"updated,omitempty"`
	Deleted        []T               `json:"deleted,omitempty"`
	Failed         []dombulk.Failure `json:"failed"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

type errorResponse struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Errors  []validate.FieldError `json:"errors,omitempty"`
}

func entityToResponse(e *domentity.Entity) entityResponse {
	tags := e.Tags()
	if tags == nil {
		tags = []string{}
	}
	return entityResponse{
		ID:         e.ID(),
		Title:      e.Title(),
		Status:     string(e.Status()),
		Priority:   e.Priority(),
		Tags:       tags,
		Attributes: e.Attributes(),
		CreatedAt:  e.CreatedAt(),
		UpdatedAt:  e.UpdatedAt(),
	}
}

func bulkEntityResponse(summary dombulk.Summary[domentity.Entity], op string) bulkResponse[entityResponse] {
	items := make([]entityResponse, len(summary.Succeeded))
	for i := range summary.Succeeded {
		items[i] = entityToResponse(&summary.Succeeded[i])
	}

	resp := bulkResponse[entityResponse]{
		Success:        summary.Success,
		TotalProcessed: summary.TotalProcessed,
		TotalSuccess:   summary.TotalSuccess,
		TotalFailed:    summary.TotalFailed,
		Failed:         summary.Failed,
	}
	switch op {
	case "created":
		resp.Created = items
	case "updated":
		resp.Updated = items
	}
	return resp
}

// decodeBody decodes the request body as raw JSON. Validation of the
// decoded value belongs to the services.
func decodeBody(w http.ResponseWriter, r *http.Request) (any, bool) {
	var payload any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	return payload, true
}

func decodeBodyMap(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	payload, ok := decodeBody(w, r)
	if !ok {
		return nil, false
	}
	m, ok := payload.(map[string]any)
	if !ok {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Request body must be a JSON object")
		return nil, false
	}
	return m, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrValidation,
		domain.ErrUnsupportedKey,
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

// validationHandler reports every offending field at once so a client can
// surface all problems in a single round trip.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *validate.Error
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    codeValidationFailed,
			Message: domain.ErrValidation.Error(),
			Errors:  ve.Fields(),
		})
		return true
	}
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, safeDomainMessage(err))
		return true
	}
	return false
}

// backendHandler maps a store rejection onto the matching HTTP status.
func backendHandler(w http.ResponseWriter, err error, _ string) bool {
	var be *domain.BackendError
	if !errors.As(err, &be) {
		return false
	}

	var status int
	var code string
	switch be.Kind {
	case domain.BackendNotFound:
		status, code = http.StatusNotFound, codeNotFound
	case domain.BackendConflict:
		status, code = http.StatusConflict, codeAlreadyExists
	case domain.BackendBadRequest:
		status, code = http.StatusBadRequest, codeBadRequest
	case domain.BackendForbidden:
		status, code = http.StatusForbidden, codeBadRequest
	default:
		status, code = http.StatusBadGateway, codeInternalError
	}
	writeError(w, status, code, fmt.Sprintf("backend rejected the request: %s", be.Kind))
	return true
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
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
