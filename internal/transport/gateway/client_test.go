package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/evidlit/evidlit/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL}), srv
}

func TestFetchDocuments_EncodesFilters(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"documents": []domain.Document{{PMID: "111", Title: "t"}},
		})
	}))

	filters := domain.SearchFilters{
		PublicationTypes: []string{"journal article", "review"},
		MinYear:          1990,
		MaxYear:          2025,
		MaxResults:       20,
		MinCitations:     0,
		MaxCitations:     domain.MaxCitationsSentinel,
	}
	docs, err := c.FetchDocuments(context.Background(), "does vitamin D prevent COVID-19?", filters)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].PMID != "111" {
		t.Fatalf("docs = %+v", docs)
	}

	// r.URL.Path is the decoded path
	if gotPath != "/query/does vitamin D prevent COVID-19?/" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery.Get("pub_types") != "journal article,review" {
		t.Errorf("pub_types = %q", gotQuery.Get("pub_types"))
	}
	// unbounded citations travel as the numeric sentinel, never "Inf"
	if gotQuery.Get("max_citations") != "999999" {
		t.Errorf("max_citations = %q, want 999999", gotQuery.Get("max_citations"))
	}
}

func TestSummary_PostsQueryAndDocuments(t *testing.T) {
	var gotBody stageRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/document-summary" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"summary": "The evidence [1] is mixed."})
	}))

	docs := []domain.Document{{PMID: "111"}}
	summary, err := c.Summary(context.Background(), "q", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary != "The evidence [1] is mixed." {
		t.Errorf("summary = %q", summary)
	}
	if gotBody.Query != "q" || len(gotBody.Documents) != 1 {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestDoJSON_Non2xxIsGatewayUnavailable(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := c.Agreeableness(context.Background(), "q", nil)
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestDoJSON_CancelledContextIsNotAFailure(t *testing.T) {
	started := make(chan struct{})
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The request body must be drained before blocking or the server
		// never notices the client going away and Close hangs.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.RelevantSections(ctx, "q", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Error("cancellation must not be reported as a gateway failure")
	}
}

func TestDocumentSummaries_PositionalArray(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"documentSummaries": []string{"first", "second"},
		})
	}))

	got, err := c.DocumentSummaries(context.Background(), "q", []domain.Document{{PMID: "1"}, {PMID: "2"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1] != "second" {
		t.Errorf("summaries = %v", got)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{BaseURL: "http://example.com/"})
	if c.baseURL != "http://example.com" {
		t.Errorf("baseURL = %q, trailing slash should be trimmed", c.baseURL)
	}
	if c.http.Timeout != 60*time.Second {
		t.Errorf("timeout = %v, want 60s default", c.http.Timeout)
	}
}
