package view

import (
	"regexp"
	"strconv"

	"github.com/evidlit/evidlit/internal/domain"
)

var markerRe = regexp.MustCompile(`\[(\d+)\]`)

// Citation is a resolved [n] marker from the summary prose. Markers resolve
// through the bundle's frozen order snapshot, so the numbers in the text
// stay correct no matter how the display order changes afterwards.
type Citation struct {
	Marker    int    `json:"marker"`
	PMID      string `json:"pmid"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Citations int    `json:"citations"`
}

// ResolveCitations parses the [n] markers in the bundle's summary and
// resolves each against OriginalDocumentOrder. Markers that point outside
// the snapshot are dropped; repeated markers resolve once, in order of
// first appearance.
func ResolveCitations(b *domain.ResultBundle) []Citation {
	if b == nil || b.Summary == "" {
		return nil
	}

	byRank := make(map[int]string, len(b.OriginalDocumentOrder))
	for pmid, rank := range b.OriginalDocumentOrder {
		byRank[rank] = pmid
	}
	titles := make(map[string]string, len(b.Documents))
	for _, d := range b.Documents {
		titles[d.PMID] = d.Title
	}

	seen := make(map[int]bool)
	var out []Citation
	for _, m := range markerRe.FindAllStringSubmatch(b.Summary, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		pmid, ok := byRank[n]
		if !ok {
			continue
		}
		out = append(out, Citation{
			Marker:    n,
			PMID:      pmid,
			Title:     titles[pmid],
			Summary:   b.DocumentSummaries[pmid],
			Citations: b.CitationCount(pmid),
		})
	}
	return out
}
