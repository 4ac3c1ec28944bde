package bundle

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/evidlit/evidlit/internal/domain"
)

func TestGetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "user-1", "does aspirin prevent stroke?")
	if !errors.Is(err, domain.ErrBundleNotFound) {
		t.Fatalf("expected ErrBundleNotFound, got %v", err)
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	want := testBundle()

	if err := repo.Create(ctx, "user-1", "q1", want); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.Get(ctx, "user-1", "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got.Documents, want.Documents) {
		t.Errorf("documents = %+v, want %+v", got.Documents, want.Documents)
	}
	if got.Summary != want.Summary {
		t.Errorf("summary = %q, want %q", got.Summary, want.Summary)
	}
	if !reflect.DeepEqual(got.DocumentSummaries, want.DocumentSummaries) {
		t.Errorf("document summaries = %v, want %v", got.DocumentSummaries, want.DocumentSummaries)
	}
	if !reflect.DeepEqual(got.OriginalDocumentOrder, want.OriginalDocumentOrder) {
		t.Errorf("order snapshot = %v, want %v", got.OriginalDocumentOrder, want.OriginalDocumentOrder)
	}
	if !reflect.DeepEqual(got.OriginalCitations, want.OriginalCitations) {
		t.Errorf("citation snapshot = %v, want %v", got.OriginalCitations, want.OriginalCitations)
	}
}

func TestCreateExisting(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, "user-1", "q1", testBundle()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := repo.Create(ctx, "user-1", "q1", testBundle())
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdateOverwrites(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, "user-1", "q1", testBundle()); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated := testBundle()
	updated.Summary = "revised summary"
	if err := repo.Update(ctx, "user-1", "q1", updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.Get(ctx, "user-1", "q1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Summary != "revised summary" {
		t.Errorf("summary = %q, want overwrite to win", got.Summary)
	}
}

func TestDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, "user-1", "q1", testBundle()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, "user-1", "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := repo.Get(ctx, "user-1", "q1")
	if !errors.Is(err, domain.ErrBundleNotFound) {
		t.Fatalf("expected ErrBundleNotFound after delete, got %v", err)
	}
}

func TestKeyIsolation(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, "user-1", "q1", testBundle()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Get(ctx, "user-2", "q1"); !errors.Is(err, domain.ErrBundleNotFound) {
		t.Fatalf("expected miss for other user, got %v", err)
	}
	if _, err := repo.Get(ctx, "user-1", "q2"); !errors.Is(err, domain.ErrBundleNotFound) {
		t.Fatalf("expected miss for other query, got %v", err)
	}
}

func TestWriteSetsTTL(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, "user-1", "q1", testBundle()); err != nil {
		t.Fatalf("create: %v", err)
	}
	for key, ttl := range ms.ttls {
		if !strings.HasPrefix(key, "evidlit:results:user-1:") {
			t.Errorf("key = %q, want evidlit:results:user-1: prefix", key)
		}
		if ttl != DefaultTTL {
			t.Errorf("ttl = %v, want %v", ttl, DefaultTTL)
		}
	}
	if len(ms.ttls) != 1 {
		t.Fatalf("expected one expire call, got %d", len(ms.ttls))
	}
}

func TestParseBareObject(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, "user-1", "q1", testBundle()); err != nil {
		t.Fatalf("create: %v", err)
	}
	// Simulate a server that returns the bare object for a root path.
	for key, data := range ms.data {
		_ = key
		got, err := parseStored(data)
		if err != nil {
			t.Fatalf("parse bare object: %v", err)
		}
		if got.Summary == "" {
			t.Error("bare-object parse lost the summary")
		}
	}
}
