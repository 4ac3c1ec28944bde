package bundle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/evidlit/evidlit/internal/domain"
)

// storedBundle is the persisted JSON shape. It mirrors the wire contract of
// the search-results API: the bundle nests under "results" next to the query
// text and the expiry timestamp.
type storedBundle struct {
	Query     string        `json:"query"`
	Results   storedResults `json:"results"`
	ExpiresAt time.Time     `json:"expires_at"`
}

type storedResults struct {
	Documents             []domain.Document `json:"documents"`
	Summary               string            `json:"summary"`
	DocumentSummaries     map[string]string `json:"documentSummaries"`
	OriginalDocumentOrder map[string]int    `json:"originalDocumentOrder"`
	OriginalCitations     map[string]int    `json:"originalCitations"`
}

func buildStored(query string, b *domain.ResultBundle, expiresAt time.Time) storedBundle {
	return storedBundle{
		Query: query,
		Results: storedResults{
			Documents:             b.Documents,
			Summary:               b.Summary,
			DocumentSummaries:     b.DocumentSummaries,
			OriginalDocumentOrder: b.OriginalDocumentOrder,
			OriginalCitations:     b.OriginalCitations,
		},
		ExpiresAt: expiresAt,
	}
}

// parseStored decodes a stored bundle. JSON.GET with a $ path returns a
// one-element array wrapping the document.
func parseStored(raw []byte) (*domain.ResultBundle, error) {
	var wrapped []storedBundle
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		// Some server versions return the bare object for a root path.
		var single storedBundle
		if err2 := json.Unmarshal(raw, &single); err2 != nil {
			return nil, fmt.Errorf("unmarshal bundle: %w", err)
		}
		return fromStored(single), nil
	}
	if len(wrapped) == 0 {
		return nil, domain.ErrBundleNotFound
	}
	return fromStored(wrapped[0]), nil
}

func fromStored(s storedBundle) *domain.ResultBundle {
	b := &domain.ResultBundle{
		Documents:             s.Results.Documents,
		Summary:               s.Results.Summary,
		DocumentSummaries:     s.Results.DocumentSummaries,
		OriginalDocumentOrder: s.Results.OriginalDocumentOrder,
		OriginalCitations:     s.Results.OriginalCitations,
	}
	if b.DocumentSummaries == nil {
		b.DocumentSummaries = make(map[string]string)
	}
	if b.OriginalDocumentOrder == nil {
		b.OriginalDocumentOrder = make(map[string]int)
	}
	if b.OriginalCitations == nil {
		b.OriginalCitations = make(map[string]int)
	}
	return b
}
