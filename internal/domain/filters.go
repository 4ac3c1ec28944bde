package domain

import "time"

// MaxCitationsSentinel encodes an unset upper citation bound on the wire.
// The gateway's query parameters are numeric, so "no upper bound" is sent as
// a very large count rather than a non-numeric infinity.
const MaxCitationsSentinel = 999999

// SearchFilters are the remote filters sent with a document search.
type SearchFilters struct {
	PublicationTypes []string `json:"publicationTypes"`
	MinYear          int      `json:"minYear"`
	MaxYear          int      `json:"maxYear"`
	MaxResults       int      `json:"maxResults"`
	MinCitations     int      `json:"minCitations"`
	MaxCitations     int      `json:"maxCitations"` // MaxCitationsSentinel when unbounded
}

// DefaultFilters returns the filter set used for a fresh search.
func DefaultFilters() SearchFilters {
	return SearchFilters{
		PublicationTypes: []string{"journal article", "review"},
		MinYear:          1900,
		MaxYear:          time.Now().Year(),
		MaxResults:       20,
		MinCitations:     0,
		MaxCitations:     MaxCitationsSentinel,
	}
}

// Normalize fills zero fields with their defaults.
func (f SearchFilters) Normalize() SearchFilters {
	def := DefaultFilters()
	if len(f.PublicationTypes) == 0 {
		f.PublicationTypes = def.PublicationTypes
	}
	if f.MinYear <= 0 {
		f.MinYear = def.MinYear
	}
	if f.MaxYear <= 0 {
		f.MaxYear = def.MaxYear
	}
	if f.MaxResults <= 0 {
		f.MaxResults = def.MaxResults
	}
	if f.MaxCitations <= 0 {
		f.MaxCitations = MaxCitationsSentinel
	}
	return f
}
