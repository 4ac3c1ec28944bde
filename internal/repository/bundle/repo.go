// Package bundle persists completed search results keyed by (user, query).
// A bundle is written once per search (create) or overwritten on an explicit
// rerun (update), and expires server-side after its TTL.
package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evidlit/evidlit/internal/db"
	"github.com/evidlit/evidlit/internal/domain"
)

// DefaultTTL is how long a cached result bundle is retained.
const DefaultTTL = 31 * 24 * time.Hour

// store is the consumer interface for bundle persistence (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo implements the pipeline's BundleCache contract.
type Repo struct {
	store     store
	keyPrefix string
	ttl       time.Duration
}

// New creates a bundle repository.
func New(s store, keyPrefix string, ttl time.Duration) *Repo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repo{store: s, keyPrefix: keyPrefix, ttl: ttl}
}

// Get returns the cached bundle for (user, query), or domain.ErrBundleNotFound.
func (r *Repo) Get(ctx context.Context, userID, query string) (*domain.ResultBundle, error) {
	key := r.key(userID, query)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrBundleNotFound
		}
		return nil, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseStored(raw)
}

// Create persists a fresh bundle. Fails with domain.ErrAlreadyExists when a
// bundle for (user, query) is already cached; use Update to overwrite.
func (r *Repo) Create(ctx context.Context, userID, query string, b *domain.ResultBundle) error {
	key := r.key(userID, query)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("exists %s: %w", key, err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	return r.write(ctx, key, query, b)
}

// Update overwrites the cached bundle for (user, query). Last writer wins;
// there is no optimistic locking on the cache.
func (r *Repo) Update(ctx context.Context, userID, query string, b *domain.ResultBundle) error {
	return r.write(ctx, r.key(userID, query), query, b)
}

// Delete removes a cached bundle.
func (r *Repo) Delete(ctx context.Context, userID, query string) error {
	if err := r.store.Del(ctx, r.key(userID, query)); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

func (r *Repo) write(ctx context.Context, key, query string, b *domain.ResultBundle) error {
	data, err := json.Marshal(buildStored(query, b, time.Now().Add(r.ttl)))
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	if err := r.store.Expire(ctx, key, r.ttl, false); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	return nil
}

// key addresses a bundle by user and a digest of the query text. Hashing
// keeps arbitrary query strings out of the keyspace.
func (r *Repo) key(userID, query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%sresults:%s:%s", r.keyPrefix, userID, hex.EncodeToString(sum[:16]))
}
