package domain

// Stage names one step of the enrichment pipeline.
type Stage string

const (
	StageDocuments         Stage = "documents"
	StageSummary           Stage = "summary"
	StageDocumentSummaries Stage = "document_summaries"
	StageAgreeableness     Stage = "agreeableness"
	StageEnrichment        Stage = "enrichment"
	StagePersist           Stage = "persist"
)

// PipelineState is a snapshot of the orchestrator published after every
// observable transition. Each loading flag tracks one stage independently;
// once Aborting is set all loading flags are forced false and no further
// stage may start until abort cleanup releases the lock.
type PipelineState struct {
	Query                string  `json:"query"`
	LoadingDocuments     bool    `json:"loadingDocuments"`
	LoadingSummary       bool    `json:"loadingSummary"`
	LoadingAgreeableness bool    `json:"loadingAgreeableness"`
	LoadingEnrichment    bool    `json:"loadingEnrichment"`
	Aborting             bool    `json:"aborting"`
	SearchLocked         bool    `json:"searchLocked"`
	EncounteredError     bool    `json:"encounteredError"`
	CacheHit             bool    `json:"cacheHit"`
	FailedStages         []Stage `json:"failedStages,omitempty"`
}

// Loading reports whether any stage is still in flight.
func (s PipelineState) Loading() bool {
	return s.LoadingDocuments || s.LoadingSummary || s.LoadingAgreeableness || s.LoadingEnrichment
}
