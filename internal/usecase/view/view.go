// Package view derives the displayed document order from a bundle and a
// sort/filter state. Everything here is a pure function of its inputs: no
// sorted state is stored, the derivation is recomputed whenever documents or
// view state change.
package view

import (
	"sort"

	"github.com/evidlit/evidlit/internal/domain"
)

// Apply filters and sorts a document list per the view state and returns a
// new slice; the input is never reordered in place. Sorting is stable, so
// documents with equal sort values keep their fetch order. Missing values
// sort as zero: an absent similarity, an unparsable publication date, and a
// missing citation count all rank at the extreme end.
func Apply(docs []domain.Document, vs domain.ViewState) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if vs.YearRange != nil && !vs.YearRange.Contains(d.Year()) {
			continue
		}
		if vs.CitationRange != nil && !vs.CitationRange.Contains(d.Citations.Total) {
			continue
		}
		out = append(out, d)
	}

	if vs.SortKey == domain.SortNone {
		return out
	}

	value := sortValue(vs.SortKey)
	sort.SliceStable(out, func(i, j int) bool {
		if vs.SortOrder == domain.SortAsc {
			return value(out[i]) < value(out[j])
		}
		return value(out[i]) > value(out[j])
	})
	return out
}

func sortValue(key domain.SortKey) func(domain.Document) float64 {
	switch key {
	case domain.SortYear:
		return func(d domain.Document) float64 { return float64(d.Year()) }
	case domain.SortCitations:
		return func(d domain.Document) float64 { return float64(d.Citations.Total) }
	default:
		return func(d domain.Document) float64 { return d.Similarity }
	}
}

// PositionMap maps pmid to 1-based position in the currently displayed
// order. Unlike the bundle's OriginalDocumentOrder it changes with every
// re-sort; it drives in-page anchors, not citation numbering.
func PositionMap(docs []domain.Document) map[string]int {
	m := make(map[string]int, len(docs))
	for i, d := range docs {
		if d.PMID == "" {
			continue
		}
		m[d.PMID] = i + 1
	}
	return m
}
