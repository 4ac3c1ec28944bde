// Package openai implements the three LLM pipeline stages (narrative summary,
// per-document summaries, agreeableness scoring) directly against an
// OpenAI-compatible chat completion API. It is a drop-in alternative to the
// remote gateway for deployments that run without one; document search and
// relevant-section enrichment always need the gateway.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/evidlit/evidlit/internal/domain"
)

const defaultModel = "gpt-4o-mini"

// Summarizer produces summaries and agreement scores via chat completions.
type Summarizer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the summarizer settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewSummarizer creates an OpenAI-compatible summarizer.
func NewSummarizer(cfg *Config) *Summarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Summarizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger,
	}
}

const summarySystemPrompt = `You are a medical research assistant guiding researchers on hypothesis exploration. You are given a research hypothesis (a query) together with the most relevant research publications, numbered [1]..[n].

Write a concise narrative summary of how these documents relate to the hypothesis: whether they support it, contradict it, or are inconclusive. Cite individual documents inline using their bracketed numbers, e.g. [3]. Use language informative to researchers but understandable to laypeople. Be critical. Keep the summary under 300 words.`

// Summary produces the overall narrative summary with [n] citation markers
// referencing the 1-based position of each document in the given array.
func (s *Summarizer) Summary(
	ctx context.Context, query string, docs []domain.Document,
) (string, error) {
	var sb strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i+1, d.Title, d.Abstract)
	}

	content, err := s.complete(ctx, summarySystemPrompt,
		fmt.Sprintf("Hypothesis: %s\n\n---\n\nDocuments:\n%s", query, sb.String()))
	if err != nil {
		return "", err
	}
	return content, nil
}

const documentSummariesPrompt = `For each numbered document, write exactly one sentence summarizing its finding with respect to the hypothesis. Respond with a JSON object {"documentSummaries": ["...", ...]} whose array has exactly one entry per document, in the same order as the input. No other text.`

// DocumentSummaries produces one-line summaries positionally aligned with docs.
func (s *Summarizer) DocumentSummaries(
	ctx context.Context, query string, docs []domain.Document,
) ([]string, error) {
	var sb strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&sb, "[%d] %s\n%s\n\n", i+1, d.Title, d.Abstract)
	}

	content, err := s.complete(ctx, documentSummariesPrompt,
		fmt.Sprintf("Hypothesis: %s\n\nDocuments:\n%s", query, sb.String()))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		DocumentSummaries []string `json:"documentSummaries"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, fmt.Errorf("parse document summaries: %w: %w", domain.ErrGatewayUnavailable, err)
	}
	return parsed.DocumentSummaries, nil
}

const agreeablenessPrompt = `For each document, estimate how strongly it agrees with, disagrees with, or is neutral toward the hypothesis. Respond with a JSON object {"agreeableness": {"<pmid>": {"agree": x, "disagree": y, "neutral": z}, ...}} where x+y+z = 1.0 per document. Include every pmid given. No other text.`

// Agreeableness scores each document's stance toward the query.
func (s *Summarizer) Agreeableness(
	ctx context.Context, query string, docs []domain.Document,
) (map[string]domain.Agreeableness, error) {
	var sb strings.Builder
	for _, d := range docs {
		fmt.Fprintf(&sb, "pmid %s: %s\n%s\n\n", d.PMID, d.Title, d.Abstract)
	}

	content, err := s.complete(ctx, agreeablenessPrompt,
		fmt.Sprintf("Hypothesis: %s\n\nDocuments:\n%s", query, sb.String()))
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Agreeableness map[string]domain.Agreeableness `json:"agreeableness"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, fmt.Errorf("parse agreeableness: %w: %w", domain.ErrGatewayUnavailable, err)
	}
	return parsed.Agreeableness, nil
}

// complete runs one chat completion and returns the first choice's content.
func (s *Summarizer) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGatewayUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrGatewayUnavailable for uniform
// stage-failure handling in the orchestrator.
func parseAPIError(err error) error {
	wrap := domain.ErrGatewayUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}

// stripFences removes a markdown code fence around a JSON payload, which
// some models emit despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
