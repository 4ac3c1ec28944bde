// Package httpx is the REST surface of the service: search and abort, cached
// result retrieval with view parameters, and the history, project, bookmark,
// annotation and counter endpoints.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/evidlit/evidlit/internal/domain"
	healthuc "github.com/evidlit/evidlit/internal/usecase/health"
	historyuc "github.com/evidlit/evidlit/internal/usecase/history"
	pipelineuc "github.com/evidlit/evidlit/internal/usecase/pipeline"
	"github.com/evidlit/evidlit/internal/usecase/urlstate"
	"github.com/evidlit/evidlit/internal/usecase/view"
)

// BundleReader serves cached result bundles directly, outside a pipeline run.
type BundleReader interface {
	Get(ctx context.Context, userID, query string) (*domain.ResultBundle, error)
	Update(ctx context.Context, userID, query string, b *domain.ResultBundle) error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the use case services over HTTP.
type Server struct {
	pipeline      *pipelineuc.Service
	history       *historyuc.Service
	bundles       BundleReader
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	pipeline *pipelineuc.Service,
	history *historyuc.Service,
	bundles BundleReader,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		pipeline: pipeline,
		history:  history,
		bundles:  bundles,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrUnauthenticated, http.StatusUnauthorized, codeUnauthorized),
		sentinelHandler(domain.ErrBundleNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrSearchLocked, http.StatusConflict, codeSearchLocked),
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrGatewayUnavailable, http.StatusBadGateway, codeGatewayError),
	}
	return s
}

// Routes mounts all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/search/abort", s.AbortSearch)
		r.Get("/search-results/", s.GetResults)
		r.Put("/search-results/", s.UpdateResults)

		r.Get("/search-history/", s.ListHistory)
		r.Post("/search-history/", s.SaveHistory)
		r.Put("/search-history/{id}/", s.RenameHistory)
		r.Delete("/search-history/{id}/", s.DeleteHistory)
		r.Post("/search-history/reorder/", s.ReorderHistory)

		r.Get("/projects/", s.ListProjects)
		r.Post("/projects/", s.CreateProject)
		r.Put("/projects/{id}/", s.RenameProject)
		r.Delete("/projects/{id}/", s.DeleteProject)

		r.Post("/user/increment-questions/", s.IncrementQuestions)
		r.Post("/user/daily-questions/", s.DailyQuestions)
	})

	r.Get("/bookmarks/", s.ListBookmarks)
	r.Post("/bookmarks/create/", s.CreateBookmark)
	r.Delete("/bookmarks/{pmid}/delete/", s.DeleteBookmark)

	r.Route("/documents/{pmid}/annotations", func(r chi.Router) {
		r.Get("/", s.ListAnnotations)
		r.Post("/", s.CreateAnnotation)
		r.Put("/{id}/", s.UpdateAnnotation)
		r.Delete("/{id}/", s.DeleteAnnotation)
	})
}

// Search handles POST /api/search: runs the pipeline synchronously and
// returns the bundle with the terminal state snapshot. An abort while the
// run is in flight yields the cleared state, not an error.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	filters := domain.DefaultFilters()
	if req.Filters != nil {
		filters = req.Filters.Normalize()
	}

	userID := UserFromContext(r.Context())
	bundle, err := s.pipeline.Search(r.Context(), userID, req.Query, filters, req.OverwriteCache)
	if err != nil && !errors.Is(err, domain.ErrAborted) {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:     req.Query,
		Results:   bundle,
		State:     s.pipeline.State(userID),
		Citations: view.ResolveCitations(bundle),
	})
}

// AbortSearch handles POST /api/search/abort.
func (s *Server) AbortSearch(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())
	s.pipeline.Abort(userID)
	writeJSON(w, http.StatusAccepted, s.pipeline.State(userID))
}

// GetResults handles GET /api/search-results/?query=. The URL's sort/filter
// parameters shape the returned document order; the bundle itself is served
// as cached.
func (s *Server) GetResults(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())
	if userID == "" {
		s.handleDomainError(w, domain.ErrUnauthenticated)
		return
	}
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query parameter is required")
		return
	}

	bundle, err := s.bundles.Get(r.Context(), userID, query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	_, vs := urlstate.Decode(r.URL.Query())
	displayed := view.Apply(bundle.Documents, vs)

	writeJSON(w, http.StatusOK, resultsResponse{
		Query:     query,
		Results:   bundle,
		Documents: displayed,
		Positions: view.PositionMap(displayed),
		Citations: view.ResolveCitations(bundle),
		ViewState: vs,
	})
}

// UpdateResults handles PUT /api/search-results/?query=: overwrites the
// cached bundle. Last writer wins.
func (s *Server) UpdateResults(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())
	if userID == "" {
		s.handleDomainError(w, domain.ErrUnauthenticated)
		return
	}
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "query parameter is required")
		return
	}

	var req updateResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Results == nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "results are required")
		return
	}

	if err := s.bundles.Update(r.Context(), userID, query, req.Results); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListHistory handles GET /api/search-history/.
func (s *Server) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.List(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// SaveHistory handles POST /api/search-history/.
func (s *Server) SaveHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	userID := UserFromContext(r.Context())
	if userID == "" {
		s.handleDomainError(w, domain.ErrUnauthenticated)
		return
	}
	entry, err := s.history.Add(r.Context(), userID, req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// RenameHistory handles PUT /api/search-history/{id}/: sets the custom
// title and, when project_id is present, the project assignment.
func (s *Server) RenameHistory(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req renameHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID := UserFromContext(r.Context())
	if req.CustomTitle != "" {
		if err := s.history.Rename(r.Context(), userID, entryID, req.CustomTitle); err != nil {
			s.handleDomainError(w, err)
			return
		}
	}
	if req.ProjectID != nil {
		if err := s.history.AssignProject(r.Context(), userID, entryID, *req.ProjectID); err != nil {
			s.handleDomainError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteHistory handles DELETE /api/search-history/{id}/.
func (s *Server) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.history.Delete(r.Context(), UserFromContext(r.Context()), entryID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderHistory handles POST /api/search-history/reorder/.
func (s *Server) ReorderHistory(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.history.Reorder(r.Context(), UserFromContext(r.Context()), req.IDs); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProjects handles GET /api/projects/.
func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.history.Projects(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if projects == nil {
		projects = []domain.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// CreateProject handles POST /api/projects/.
func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	project, err := s.history.CreateProject(r.Context(), UserFromContext(r.Context()), req.Name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// RenameProject handles PUT /api/projects/{id}/.
func (s *Server) RenameProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.history.RenameProject(r.Context(), UserFromContext(r.Context()), projectID, req.Name); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteProject handles DELETE /api/projects/{id}/.
func (s *Server) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.history.DeleteProject(r.Context(), UserFromContext(r.Context()), projectID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBookmarks handles GET /bookmarks/.
func (s *Server) ListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.history.Bookmarks(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}
	writeJSON(w, http.StatusOK, bookmarks)
}

// CreateBookmark handles POST /bookmarks/create/.
func (s *Server) CreateBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	err := s.history.AddBookmark(r.Context(), UserFromContext(r.Context()), domain.Bookmark{
		PMID:  req.PMID,
		Title: req.Title,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// DeleteBookmark handles DELETE /bookmarks/{pmid}/delete/.
func (s *Server) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	pmid := chi.URLParam(r, "pmid")
	if err := s.history.RemoveBookmark(r.Context(), UserFromContext(r.Context()), pmid); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAnnotations handles GET /documents/{pmid}/annotations/.
func (s *Server) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	pmid := chi.URLParam(r, "pmid")
	notes, err := s.history.Annotations(r.Context(), UserFromContext(r.Context()), pmid)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if notes == nil {
		notes = []domain.Annotation{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// CreateAnnotation handles POST /documents/{pmid}/annotations/.
func (s *Server) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	pmid := chi.URLParam(r, "pmid")
	var req annotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	note, err := s.history.AddAnnotation(r.Context(), UserFromContext(r.Context()), domain.Annotation{
		Kind:      domain.AnnotationKind(req.Kind),
		PMID:      pmid,
		Text:      req.Text,
		Selection: req.Selection,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateAnnotation handles PUT /documents/{pmid}/annotations/{id}/.
func (s *Server) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	pmid := chi.URLParam(r, "pmid")
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req annotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.history.UpdateAnnotation(r.Context(), UserFromContext(r.Context()), pmid, id, req.Text); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAnnotation handles DELETE /documents/{pmid}/annotations/{id}/.
func (s *Server) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	pmid := chi.URLParam(r, "pmid")
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.history.RemoveAnnotation(r.Context(), UserFromContext(r.Context()), pmid, id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IncrementQuestions handles POST /api/user/increment-questions/.
func (s *Server) IncrementQuestions(w http.ResponseWriter, r *http.Request) {
	counts, err := s.history.IncrementQuestions(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// DailyQuestions handles POST /api/user/daily-questions/: reads the current
// counters without incrementing.
func (s *Server) DailyQuestions(w http.ResponseWriter, r *http.Request) {
	counts, err := s.history.Questions(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "invalid "+param)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnauthenticated,
		domain.ErrBundleNotFound,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrSearchLocked,
		domain.ErrEmptyQuery,
		domain.ErrGatewayUnavailable,
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
