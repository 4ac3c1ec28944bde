package pipeline

import (
	"context"

	"github.com/evidlit/evidlit/internal/domain"
)

// Gateway defines the five enrichment stages of the remote search backend.
type Gateway interface {
	FetchDocuments(ctx context.Context, query string, filters domain.SearchFilters) ([]domain.Document, error)
	Summary(ctx context.Context, query string, docs []domain.Document) (string, error)
	DocumentSummaries(ctx context.Context, query string, docs []domain.Document) ([]string, error)
	Agreeableness(ctx context.Context, query string, docs []domain.Document) (map[string]domain.Agreeableness, error)
	RelevantSections(ctx context.Context, query string, docs []domain.Document) (map[string]domain.RelevantSection, error)
}

// BundleCache persists completed result bundles per (user, query).
type BundleCache interface {
	Get(ctx context.Context, userID, query string) (*domain.ResultBundle, error)
	Create(ctx context.Context, userID, query string, b *domain.ResultBundle) error
	Update(ctx context.Context, userID, query string, b *domain.ResultBundle) error
}

// Recorder receives the fire-and-forget side effects of a fresh search.
type Recorder interface {
	Add(ctx context.Context, userID, query string) (domain.HistoryEntry, error)
	IncrementQuestions(ctx context.Context, userID string) (domain.QuestionCounts, error)
}

// Observer is notified after every observable pipeline transition.
type Observer interface {
	StateChanged(userID string, state domain.PipelineState)
	ResultsChanged(userID string, bundle *domain.ResultBundle)
	Notify(userID, message string)
}

// NopObserver discards all notifications.
type NopObserver struct{}

func (NopObserver) StateChanged(string, domain.PipelineState) {}

func (NopObserver) ResultsChanged(string, *domain.ResultBundle) {}

func (NopObserver) Notify(string, string) {}
