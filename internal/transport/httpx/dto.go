package httpx

import (
	"github.com/evidlit/evidlit/internal/domain"
	"github.com/evidlit/evidlit/internal/usecase/view"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes on the wire.
const (
	codeBadRequest       = "bad_request"
	codeUnauthorized     = "unauthorized"
	codeNotFound         = "not_found"
	codeAlreadyExists    = "already_exists"
	codeSearchLocked     = "search_locked"
	codeGatewayError     = "gateway_unavailable"
	codeValidationFailed = "validation_failed"
	codeInternalError    = "internal_error"
)

type searchRequest struct {
	Query          string                `json:"query"`
	Filters        *domain.SearchFilters `json:"filters,omitempty"`
	OverwriteCache bool                  `json:"overwriteCache"`
}

// searchResponse carries the bundle next to the state snapshot so a caller
// can see partial-failure details (which stages failed) alongside whatever
// results were applied.
type searchResponse struct {
	Query     string               `json:"query"`
	Results   *domain.ResultBundle `json:"results"`
	State     domain.PipelineState `json:"state"`
	Citations []view.Citation      `json:"citations,omitempty"`
}

// resultsResponse is a cached bundle rendered through the view model: the
// document array sorted and filtered per the URL parameters, the live
// position map, and the resolved citation markers.
type resultsResponse struct {
	Query     string               `json:"query"`
	Results   *domain.ResultBundle `json:"results"`
	Documents []domain.Document    `json:"documents"`
	Positions map[string]int       `json:"positions"`
	Citations []view.Citation      `json:"citations,omitempty"`
	ViewState domain.ViewState     `json:"viewState"`
}

type updateResultsRequest struct {
	Results *domain.ResultBundle `json:"results"`
}

type renameHistoryRequest struct {
	CustomTitle string `json:"custom_title"`
	ProjectID   *int64 `json:"project_id,omitempty"`
}

type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

type projectRequest struct {
	Name string `json:"name"`
}

type bookmarkRequest struct {
	PMID  string `json:"pmid"`
	Title string `json:"title"`
}

type annotationRequest struct {
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	Selection string `json:"selection,omitempty"`
}
