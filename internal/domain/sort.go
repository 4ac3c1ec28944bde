package domain

// SortKey selects the value documents are ordered by.
type SortKey string

const (
	SortNone       SortKey = ""
	SortSimilarity SortKey = "similarity"
	SortYear       SortKey = "year"
	SortCitations  SortKey = "citations"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Range is an inclusive [Min, Max] filter bound.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v falls inside the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// ViewState is the sort/filter state of a result view. It is a pure view
// concern: it never mutates a document or bundle, it only determines the
// order and subset presented. At most one sort key is active at any time.
type ViewState struct {
	SortKey       SortKey   `json:"sortBy"`
	SortOrder     SortOrder `json:"sortOrder"`
	YearRange     *Range    `json:"yearRange,omitempty"`
	CitationRange *Range    `json:"citationRange,omitempty"`
}

// DefaultViewState is the state of a fresh result view.
func DefaultViewState() ViewState {
	return ViewState{SortKey: SortSimilarity, SortOrder: SortDesc}
}

// Toggle applies a sort-key selection: re-selecting the active key flips the
// direction, switching keys activates the new key descending. Selecting a
// key twice in a row therefore toggles direction, never re-selects it fresh.
func (s ViewState) Toggle(key SortKey) ViewState {
	if s.SortKey == key {
		if s.SortOrder == SortAsc {
			s.SortOrder = SortDesc
		} else {
			s.SortOrder = SortAsc
		}
		return s
	}
	s.SortKey = key
	s.SortOrder = SortDesc
	return s
}
