package gateway

import "github.com/evidlit/evidlit/internal/domain"

// stageRequest is the shared POST body of the enrichment endpoints.
type stageRequest struct {
	Query     string            `json:"query"`
	Documents []domain.Document `json:"documents"`
}

type documentsResponse struct {
	Documents []domain.Document `json:"documents"`
}

type summaryResponse struct {
	Summary   string            `json:"summary"`
	Documents []domain.Document `json:"documents"`
}

type documentSummariesResponse struct {
	DocumentSummaries []string `json:"documentSummaries"`
}

type agreeablenessResponse struct {
	Agreeableness map[string]domain.Agreeableness `json:"agreeableness"`
}

type relevantSectionsResponse struct {
	RelevantSections map[string]domain.RelevantSection `json:"relevantSections"`
}
