package bundle

import (
	"context"
	"testing"
	"time"

	"github.com/evidlit/evidlit/internal/db"
	"github.com/evidlit/evidlit/internal/domain"
)

// mockStore is an in-memory store implementing the consumer interface.
type mockStore struct {
	data       map[string][]byte
	ttls       map[string]time.Duration
	jsonSetErr error
	jsonGetErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockStore) JSONSet(_ context.Context, key, _ string, data []byte) error {
	if m.jsonSetErr != nil {
		return m.jsonSetErr
	}
	m.data[key] = data
	return nil
}

func (m *mockStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	if m.jsonGetErr != nil {
		return nil, m.jsonGetErr
	}
	data, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	// JSON.GET with a root path wraps the document in an array.
	return append(append([]byte("["), data...), ']'), nil
}

func (m *mockStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockStore) Expire(_ context.Context, key string, ttl time.Duration, _ bool) error {
	m.ttls[key] = ttl
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms, "evidlit:", 0), ms
}

func testBundle() *domain.ResultBundle {
	b := domain.NewBundle([]domain.Document{
		{PMID: "111", Title: "first", Citations: domain.Citations{Total: 50}},
		{PMID: "222", Title: "second", Citations: domain.Citations{Total: 5}},
	})
	b.Summary = "Both papers [1][2] agree."
	b.DocumentSummaries["111"] = "one"
	b.DocumentSummaries["222"] = "two"
	return b
}
