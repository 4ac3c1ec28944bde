// Package urlstate converts between view state and URL query parameters so
// a result view can be addressed, shared, and restored from a link.
package urlstate

import (
	"net/url"
	"strconv"

	"github.com/evidlit/evidlit/internal/domain"
)

// Query parameter names. These are the public URL contract; renaming one
// breaks existing shared links.
const (
	ParamQuery     = "q"
	ParamSortBy    = "sortBy"
	ParamSortOrder = "sortOrder"
	ParamYearMin   = "yearMin"
	ParamYearMax   = "yearMax"
	ParamCitMin    = "citMin"
	ParamCitMax    = "citMax"
)

// Mode says how a URL update is applied to navigation history.
type Mode int

const (
	// Replace rewrites the current URL in place with no history entry.
	Replace Mode = iota
	// Push adds a navigable history entry.
	Push
)

// ModeFor returns the history mode for a state transition. Sort and filter
// changes replace the URL in place; a new query text pushes so back
// navigation returns to the previous search. The asymmetry is deliberate:
// each search is a navigable destination, each re-sort of the same results
// is not.
func ModeFor(oldQuery, newQuery string) Mode {
	if oldQuery != newQuery {
		return Push
	}
	return Replace
}

// Encode renders the query text and view state as URL parameters. Default
// values are written explicitly so a restored link is unambiguous; unset
// ranges are omitted.
func Encode(query string, vs domain.ViewState) url.Values {
	values := url.Values{}
	if query != "" {
		values.Set(ParamQuery, query)
	}
	if vs.SortKey != domain.SortNone {
		values.Set(ParamSortBy, string(vs.SortKey))
		values.Set(ParamSortOrder, string(vs.SortOrder))
	}
	if vs.YearRange != nil {
		values.Set(ParamYearMin, strconv.Itoa(vs.YearRange.Min))
		values.Set(ParamYearMax, strconv.Itoa(vs.YearRange.Max))
	}
	if vs.CitationRange != nil {
		values.Set(ParamCitMin, strconv.Itoa(vs.CitationRange.Min))
		values.Set(ParamCitMax, strconv.Itoa(vs.CitationRange.Max))
	}
	return values
}

// Decode restores the query text and view state from URL parameters.
// Hydration is tolerant: an unknown sort key, a bad direction, or a
// half-present range falls back to the default rather than failing, so a
// hand-edited or truncated link still loads.
func Decode(values url.Values) (string, domain.ViewState) {
	vs := domain.DefaultViewState()

	switch domain.SortKey(values.Get(ParamSortBy)) {
	case domain.SortSimilarity:
		vs.SortKey = domain.SortSimilarity
	case domain.SortYear:
		vs.SortKey = domain.SortYear
	case domain.SortCitations:
		vs.SortKey = domain.SortCitations
	}
	switch domain.SortOrder(values.Get(ParamSortOrder)) {
	case domain.SortAsc:
		vs.SortOrder = domain.SortAsc
	case domain.SortDesc:
		vs.SortOrder = domain.SortDesc
	}

	vs.YearRange = decodeRange(values, ParamYearMin, ParamYearMax)
	vs.CitationRange = decodeRange(values, ParamCitMin, ParamCitMax)

	return values.Get(ParamQuery), vs
}

// decodeRange needs both bounds as valid integers; anything less means no
// filter.
func decodeRange(values url.Values, minParam, maxParam string) *domain.Range {
	minRaw, maxRaw := values.Get(minParam), values.Get(maxParam)
	if minRaw == "" || maxRaw == "" {
		return nil
	}
	lo, err := strconv.Atoi(minRaw)
	if err != nil {
		return nil
	}
	hi, err := strconv.Atoi(maxRaw)
	if err != nil {
		return nil
	}
	return &domain.Range{Min: lo, Max: hi}
}
