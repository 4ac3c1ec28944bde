package evidlit

import (
	"github.com/evidlit/evidlit/internal/domain"
	"github.com/evidlit/evidlit/internal/usecase/health"
	"github.com/evidlit/evidlit/internal/usecase/view"
)

// Domain types re-exported for SDK callers.
type (
	Document        = domain.Document
	Citations       = domain.Citations
	Agreeableness   = domain.Agreeableness
	RelevantSection = domain.RelevantSection
	ResultBundle    = domain.ResultBundle
	PipelineState   = domain.PipelineState
	SearchFilters   = domain.SearchFilters
	Range           = domain.Range
	ViewState       = domain.ViewState
	SortKey         = domain.SortKey
	SortOrder       = domain.SortOrder
	HistoryEntry    = domain.HistoryEntry
	Project         = domain.Project
	Bookmark        = domain.Bookmark
	Annotation      = domain.Annotation
	QuestionCounts  = domain.QuestionCounts
	Citation        = view.Citation
	HealthReport    = health.Report
)

// Sort keys and orders for ViewState.
const (
	SortNone       = domain.SortNone
	SortSimilarity = domain.SortSimilarity
	SortYear       = domain.SortYear
	SortCitations  = domain.SortCitations

	SortAsc  = domain.SortAsc
	SortDesc = domain.SortDesc
)

// DefaultFilters returns the filter set used for a fresh search.
func DefaultFilters() SearchFilters { return domain.DefaultFilters() }

// DefaultViewState is the state of a fresh result view.
func DefaultViewState() ViewState { return domain.DefaultViewState() }

// Observer is notified after every observable pipeline transition.
// Implementations must not block; callbacks run on pipeline goroutines.
type Observer interface {
	StateChanged(userID string, state PipelineState)
	ResultsChanged(userID string, bundle *ResultBundle)
	Notify(userID, message string)
}
