package domain

import "fmt"

// ResultBundle is the persisted unit of a completed search: the enriched
// document list plus the narrative summary, per-document summaries, and the
// order/citation snapshots taken when the documents were first fetched.
//
// OriginalDocumentOrder maps pmid to the 1-based rank in the array as first
// returned by search. It is frozen for the lifetime of the bundle so that
// [n]-style citation markers in the summary prose stay stable no matter how
// the display order changes afterwards. OriginalCitations is the citation
// count at fetch time, used as a fallback when a later document object lacks
// citation data.
type ResultBundle struct {
	Documents             []Document        `json:"documents"`
	Summary               string            `json:"summary"`
	DocumentSummaries     map[string]string `json:"documentSummaries"`
	OriginalDocumentOrder map[string]int    `json:"originalDocumentOrder"`
	OriginalCitations     map[string]int    `json:"originalCitations"`
}

// NewBundle creates a bundle from a freshly fetched document array and
// snapshots the order and citation maps. Documents without a pmid are kept
// in the array but excluded from the snapshots.
func NewBundle(docs []Document) *ResultBundle {
	b := &ResultBundle{
		Documents:             docs,
		DocumentSummaries:     make(map[string]string),
		OriginalDocumentOrder: make(map[string]int, len(docs)),
		OriginalCitations:     make(map[string]int, len(docs)),
	}
	for i, d := range docs {
		if d.PMID == "" {
			continue
		}
		b.OriginalDocumentOrder[d.PMID] = i + 1
		if d.Citations.Total > 0 {
			b.OriginalCitations[d.PMID] = d.Citations.Total
		}
	}
	return b
}

// SetDocumentSummaries re-keys a positionally aligned summary array to the
// pmid map. The array order is an implicit contract with the gateway: entry
// i belongs to Documents[i]. A length mismatch fails loudly rather than
// silently misaligning.
func (b *ResultBundle) SetDocumentSummaries(summaries []string) error {
	if len(summaries) != len(b.Documents) {
		return fmt.Errorf("%w: %d documents, %d summaries",
			ErrSummaryCountMismatch, len(b.Documents), len(summaries))
	}
	for i, s := range summaries {
		if pmid := b.Documents[i].PMID; pmid != "" {
			b.DocumentSummaries[pmid] = s
		}
	}
	return nil
}

// MergeAgreeableness returns a new document array with the scored triples
// merged in by pmid. Documents missing from the response get a zero stub so
// downstream consumers never see a nil triple after this stage.
func MergeAgreeableness(docs []Document, scores map[string]Agreeableness) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		if s, ok := scores[d.PMID]; ok && d.PMID != "" {
			d.Agreeableness = &Agreeableness{Agree: s.Agree, Disagree: s.Disagree, Neutral: s.Neutral}
		} else {
			d.Agreeableness = &Agreeableness{}
		}
		out[i] = d
	}
	return out
}

// MergeRelevantSections returns a new document array with the most relevant
// sentence merged in by pmid. Documents without a match keep a nil section.
func MergeRelevantSections(docs []Document, sections map[string]RelevantSection) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		if rs, ok := sections[d.PMID]; ok && d.PMID != "" {
			d.RelevantSection = &RelevantSection{
				MostRelevantSentence: rs.MostRelevantSentence,
				SimilarityScore:      rs.SimilarityScore,
			}
		}
		out[i] = d
	}
	return out
}

// CitationCount returns the best-known citation count for a pmid: the live
// document value when present, otherwise the fetch-time snapshot.
func (b *ResultBundle) CitationCount(pmid string) int {
	for _, d := range b.Documents {
		if d.PMID == pmid && d.Citations.Total > 0 {
			return d.Citations.Total
		}
	}
	return b.OriginalCitations[pmid]
}
