package gateway

import (
	"context"

	"github.com/evidlit/evidlit/internal/domain"
)

// Summarizer is the alternative backend for the three LLM stages.
type Summarizer interface {
	Summary(ctx context.Context, query string, docs []domain.Document) (string, error)
	DocumentSummaries(ctx context.Context, query string, docs []domain.Document) ([]string, error)
	Agreeableness(ctx context.Context, query string, docs []domain.Document) (map[string]domain.Agreeableness, error)
}

// StagedClient routes the LLM stages to a Summarizer while the embedded
// gateway client keeps document search and relevant sections.
type StagedClient struct {
	*Client
	llm Summarizer
}

// WithSummarizer overlays the summary, per-document summary, and
// agreeableness stages onto llm.
func (c *Client) WithSummarizer(llm Summarizer) *StagedClient {
	return &StagedClient{Client: c, llm: llm}
}

func (c *StagedClient) Summary(ctx context.Context, query string, docs []domain.Document) (string, error) {
	return c.llm.Summary(ctx, query, docs)
}

func (c *StagedClient) DocumentSummaries(ctx context.Context, query string, docs []domain.Document) ([]string, error) {
	return c.llm.DocumentSummaries(ctx, query, docs)
}

func (c *StagedClient) Agreeableness(ctx context.Context, query string, docs []domain.Document) (map[string]domain.Agreeableness, error) {
	return c.llm.Agreeableness(ctx, query, docs)
}
