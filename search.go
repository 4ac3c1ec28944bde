package evidlit

import (
	"context"
	"net/url"

	bundlerepo "github.com/evidlit/evidlit/internal/repository/bundle"
	"github.com/evidlit/evidlit/internal/usecase/pipeline"
	"github.com/evidlit/evidlit/internal/usecase/urlstate"
	"github.com/evidlit/evidlit/internal/usecase/view"
)

// SearchService runs the five-stage result pipeline and reads cached bundles.
// A userID of "" is an anonymous caller: searches run but nothing is cached
// or recorded in history.
type SearchService struct {
	svc     *pipeline.Service
	bundles *bundlerepo.Repo
}

// Run executes a full pipeline synchronously and returns the result bundle.
// A cached bundle for the same (user, query) short-circuits all stages.
// Returns ErrSearchLocked while another search for the user is running and
// ErrAborted when the run is cancelled via Abort.
func (s *SearchService) Run(ctx context.Context, userID, query string, filters *SearchFilters) (*ResultBundle, error) {
	f := DefaultFilters()
	if filters != nil {
		f = *filters
	}
	return s.svc.Search(ctx, userID, query, f, false)
}

// Refresh re-runs the pipeline bypassing the cache and overwrites the cached
// bundle on success.
func (s *SearchService) Refresh(ctx context.Context, userID, query string, filters *SearchFilters) (*ResultBundle, error) {
	f := DefaultFilters()
	if filters != nil {
		f = *filters
	}
	return s.svc.Search(ctx, userID, query, f, true)
}

// Trigger schedules a debounced pipeline run in the background. Rapid
// repeated triggers collapse into one run with the last query.
func (s *SearchService) Trigger(userID, query string, filters *SearchFilters) {
	f := DefaultFilters()
	if filters != nil {
		f = *filters
	}
	s.svc.Trigger(userID, query, f, false)
}

// Abort cancels the user's running pipeline and discards its results.
func (s *SearchService) Abort(userID string) {
	s.svc.Abort(userID)
}

// State returns the user's current pipeline state.
func (s *SearchService) State(userID string) PipelineState {
	return s.svc.State(userID)
}

// Results returns the user's in-flight or last completed bundle, or nil.
func (s *SearchService) Results(userID string) *ResultBundle {
	return s.svc.Results(userID)
}

// Cached reads a previously persisted bundle without running the pipeline.
// Returns ErrBundleNotFound on a miss.
func (s *SearchService) Cached(ctx context.Context, userID, query string) (*ResultBundle, error) {
	return s.bundles.Get(ctx, userID, query)
}

// SaveResults overwrites the cached bundle for (user, query), preserving
// client-side edits such as annotated view state.
func (s *SearchService) SaveResults(ctx context.Context, userID, query string, b *ResultBundle) error {
	return s.bundles.Update(ctx, userID, query, b)
}

// ApplyView sorts and filters documents per the view state without mutating
// the input slice.
func ApplyView(docs []Document, vs ViewState) []Document {
	return view.Apply(docs, vs)
}

// PositionMap maps each document's PMID to its 1-based position.
func PositionMap(docs []Document) map[string]int {
	return view.PositionMap(docs)
}

// ResolveCitations resolves the bundle summary's [n] markers against the
// original document order frozen at fetch time.
func ResolveCitations(b *ResultBundle) []Citation {
	return view.ResolveCitations(b)
}

// EncodeQueryState serializes a query and view state into URL parameters.
func EncodeQueryState(query string, vs ViewState) url.Values {
	return urlstate.Encode(query, vs)
}

// DecodeQueryState parses URL parameters back into a query and view state,
// tolerating unknown or malformed values.
func DecodeQueryState(values url.Values) (string, ViewState) {
	return urlstate.Decode(values)
}
