package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/evidlit/evidlit/internal/db"
	"github.com/evidlit/evidlit/internal/domain"
	bundlerepo "github.com/evidlit/evidlit/internal/repository/bundle"
	historyrepo "github.com/evidlit/evidlit/internal/repository/history"
	healthuc "github.com/evidlit/evidlit/internal/usecase/health"
	historyuc "github.com/evidlit/evidlit/internal/usecase/history"
	pipelineuc "github.com/evidlit/evidlit/internal/usecase/pipeline"
)

// memStore is an in-memory stand-in for the Redis store, implementing the
// consumer interfaces of both repositories.
type memStore struct {
	mu     sync.Mutex
	kv     map[string][]byte
	hashes map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{kv: make(map[string][]byte), hashes: make(map[string]map[string]string)}
}

func (m *memStore) Ping(context.Context) error { return nil }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *memStore) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if raw, ok := m.kv[key]; ok {
		n, _ = strconv.ParseInt(string(raw), 10, 64)
	}
	n += val
	m.kv[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func (m *memStore) Expire(context.Context, string, time.Duration, bool) error { return nil }

func (m *memStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.kv[key]
	return ok, nil
}

func (m *memStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = make(map[string]string)
		m.hashes[key] = h
	}
	for f, v := range fields {
		h[f] = v
	}
	return nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *memStore) HDel(_ context.Context, key string, fields ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	return nil
}

func (m *memStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = data
	return nil
}

func (m *memStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return append(append([]byte("["), data...), ']'), nil
}

// stubGateway returns a fixed two-document result set.
type stubGateway struct{}

func (stubGateway) FetchDocuments(context.Context, string, domain.SearchFilters) ([]domain.Document, error) {
	return []domain.Document{
		{PMID: "111", Title: "first", PublicationDate: "2021", Similarity: 0.9, Citations: domain.Citations{Total: 50}},
		{PMID: "222", Title: "second", PublicationDate: "2018", Similarity: 0.6, Citations: domain.Citations{Total: 5}},
	}, nil
}

func (stubGateway) Summary(context.Context, string, []domain.Document) (string, error) {
	return "Evidence from [1] and [2].", nil
}

func (stubGateway) DocumentSummaries(context.Context, string, []domain.Document) ([]string, error) {
	return []string{"line one", "line two"}, nil
}

func (stubGateway) Agreeableness(context.Context, string, []domain.Document) (map[string]domain.Agreeableness, error) {
	return map[string]domain.Agreeableness{"111": {Agree: 0.7, Disagree: 0.2, Neutral: 0.1}}, nil
}

func (stubGateway) RelevantSections(context.Context, string, []domain.Document) (map[string]domain.RelevantSection, error) {
	return map[string]domain.RelevantSection{"111": {MostRelevantSentence: "key sentence", SimilarityScore: 0.9}}, nil
}

const testAPIKey = "test-key"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ms := newMemStore()
	bundles := bundlerepo.New(ms, "t:", 0)
	histories := historyrepo.New(ms, "t:")
	historySvc := historyuc.New(histories)
	pipelineSvc := pipelineuc.New(stubGateway{}, bundles, histories, nil, zap.NewNop(), pipelineuc.Config{
		Debounce:      time.Millisecond,
		AbortCooldown: time.Millisecond,
	})
	healthSvc := healthuc.New(ms, nil)

	server := NewServer(pipelineSvc, historySvc, bundles, healthSvc, zap.NewNop())
	r := chi.NewRouter()
	r.Use(BearerAuthMiddleware([]string{testAPIKey}))
	server.Routes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

// do issues an authenticated request and decodes the JSON response into out.
func do(t *testing.T, ts *httptest.Server, method, path string, body any, out any) *http.Response {
	t.Helper()
	return doAs(t, ts, testAPIKey, method, path, body, out)
}

func doAs(t *testing.T, ts *httptest.Server, token, method, path string, body any, out any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp
}
