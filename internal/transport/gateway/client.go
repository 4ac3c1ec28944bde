// Package gateway is the HTTP client for the remote search gateway: document
// search plus the LLM-backed summary, agreeableness, and relevant-section
// stages. The gateway is an external collaborator with a fixed contract; this
// package only speaks its wire format and never interprets results.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/evidlit/evidlit/internal/domain"
	"github.com/evidlit/evidlit/internal/metrics"
)

// Config holds the gateway client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client talks to the remote search gateway.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a gateway client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// FetchDocuments runs the document search with the remote filter set.
func (c *Client) FetchDocuments(
	ctx context.Context, query string, filters domain.SearchFilters,
) ([]domain.Document, error) {
	params := url.Values{}
	params.Set("pub_types", strings.Join(filters.PublicationTypes, ","))
	params.Set("min_year", strconv.Itoa(filters.MinYear))
	params.Set("max_year", strconv.Itoa(filters.MaxYear))
	params.Set("max_results", strconv.Itoa(filters.MaxResults))
	params.Set("min_citations", strconv.Itoa(filters.MinCitations))
	params.Set("max_citations", strconv.Itoa(filters.MaxCitations))

	path := fmt.Sprintf("/query/%s/?%s", url.PathEscape(query), params.Encode())

	var resp documentsResponse
	if err := c.doJSON(ctx, http.MethodGet, "query", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

// Summary returns the overall narrative summary. The returned text contains
// [n]-style citation markers referencing 1-based original document order.
func (c *Client) Summary(
	ctx context.Context, query string, docs []domain.Document,
) (string, error) {
	var resp summaryResponse
	req := stageRequest{Query: query, Documents: docs}
	if err := c.doJSON(ctx, http.MethodPost, "document_summary", "/openai/document-summary", req, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}

// DocumentSummaries returns one-line summaries positionally aligned with the
// request document list. The caller is responsible for re-keying by pmid and
// validating the length; no key is echoed back.
func (c *Client) DocumentSummaries(
	ctx context.Context, query string, docs []domain.Document,
) ([]string, error) {
	var resp documentSummariesResponse
	req := stageRequest{Query: query, Documents: docs}
	if err := c.doJSON(ctx, http.MethodPost, "document_summaries", "/openai/document-summaries", req, &resp); err != nil {
		return nil, err
	}
	return resp.DocumentSummaries, nil
}

// Agreeableness returns per-pmid {agree, disagree, neutral} triples.
func (c *Client) Agreeableness(
	ctx context.Context, query string, docs []domain.Document,
) (map[string]domain.Agreeableness, error) {
	var resp agreeablenessResponse
	req := stageRequest{Query: query, Documents: docs}
	if err := c.doJSON(ctx, http.MethodPost, "agreeableness", "/openai/agreeableness", req, &resp); err != nil {
		return nil, err
	}
	return resp.Agreeableness, nil
}

// RelevantSections returns the most relevant sentence per pmid.
func (c *Client) RelevantSections(
	ctx context.Context, query string, docs []domain.Document,
) (map[string]domain.RelevantSection, error) {
	var resp relevantSectionsResponse
	req := stageRequest{Query: query, Documents: docs}
	if err := c.doJSON(ctx, http.MethodPost, "relevant_sections", "/enrich/relevant-sections", req, &resp); err != nil {
		return nil, err
	}
	return resp.RelevantSections, nil
}

// doJSON issues a request and decodes the JSON response. Context cancellation
// is surfaced as-is so the orchestrator can tell an abort from a failure;
// transport failures and non-2xx statuses are wrapped uniformly.
func (c *Client) doJSON(
	ctx context.Context, method, endpoint, path string, body, out any,
) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			metrics.GatewayRequestsTotal.WithLabelValues(endpoint, "aborted").Inc()
			return ctx.Err()
		}
		metrics.GatewayRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s: %w: %w", endpoint, domain.ErrGatewayUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.GatewayRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		// Drain a little of the body for diagnostics, then give up.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		c.logger.Warn("gateway request failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return fmt.Errorf("%s: %w: status %d", endpoint, domain.ErrGatewayUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			metrics.GatewayRequestsTotal.WithLabelValues(endpoint, "aborted").Inc()
			return ctx.Err()
		}
		metrics.GatewayRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s: %w: decode: %w", endpoint, domain.ErrGatewayUnavailable, err)
	}

	metrics.GatewayRequestsTotal.WithLabelValues(endpoint, "success").Inc()
	c.logger.Debug("gateway request",
		zap.String("endpoint", endpoint),
		zap.Duration("latency", time.Since(start)),
	)
	return nil
}

// HealthCheck reports whether the gateway is reachable. Any HTTP response
// counts as reachable; only a transport failure is an error.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrGatewayUnavailable, err)
	}
	_ = resp.Body.Close()
	return nil
}
