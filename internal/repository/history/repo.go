// Package history persists per-user search history, projects, bookmarks,
// document annotations and question counters.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evidlit/evidlit/internal/db"
	"github.com/evidlit/evidlit/internal/domain"
)

// dailyCounterTTL keeps daily question counters around for two days so a
// counter read just after midnight still sees yesterday's key expire on its
// own rather than lingering forever.
const dailyCounterTTL = 48 * time.Hour

// store is the consumer interface for history persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	Del(ctx context.Context, key string) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
}

// Repo stores history data in Redis. Lists (history entries, projects,
// annotations) are kept as JSON arrays under a single key per user; bookmarks
// use a hash keyed by pmid. Identifiers come from per-user sequence counters.
type Repo struct {
	store     store
	keyPrefix string
	now       func() time.Time
}

// New creates a history repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, now: time.Now}
}

// --- search history ---

// List returns the user's saved searches, newest first.
func (r *Repo) List(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	if err := r.readList(ctx, r.historyKey(userID), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Add prepends a new history entry for the query and returns it. A repeated
// query is moved to the front rather than duplicated.
func (r *Repo) Add(ctx context.Context, userID, query string) (domain.HistoryEntry, error) {
	entries, err := r.List(ctx, userID)
	if err != nil {
		return domain.HistoryEntry{}, err
	}

	for i, e := range entries {
		if e.Query == query {
			moved := append([]domain.HistoryEntry{e}, append(entries[:i:i], entries[i+1:]...)...)
			return e, r.writeList(ctx, r.historyKey(userID), moved)
		}
	}

	id, err := r.nextID(ctx, r.historyKey(userID)+":seq")
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	entry := domain.HistoryEntry{ID: id, Query: query, CreatedAt: r.now().UTC()}
	return entry, r.writeList(ctx, r.historyKey(userID), append([]domain.HistoryEntry{entry}, entries...))
}

// Rename sets the custom title of an entry.
func (r *Repo) Rename(ctx context.Context, userID string, entryID int64, title string) error {
	return r.mutateEntry(ctx, userID, entryID, func(e *domain.HistoryEntry) {
		e.CustomTitle = title
	})
}

// AssignProject moves an entry into a project (0 removes the assignment).
func (r *Repo) AssignProject(ctx context.Context, userID string, entryID, projectID int64) error {
	return r.mutateEntry(ctx, userID, entryID, func(e *domain.HistoryEntry) {
		e.ProjectID = projectID
	})
}

// Remove deletes a history entry.
func (r *Repo) Remove(ctx context.Context, userID string, entryID int64) error {
	entries, err := r.List(ctx, userID)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if e.ID == entryID {
			return r.writeList(ctx, r.historyKey(userID), append(entries[:i:i], entries[i+1:]...))
		}
	}
	return domain.ErrNotFound
}

// Reorder rewrites the entry order to match ids. Every current entry must
// appear exactly once.
func (r *Repo) Reorder(ctx context.Context, userID string, ids []int64) error {
	entries, err := r.List(ctx, userID)
	if err != nil {
		return err
	}
	if len(ids) != len(entries) {
		return fmt.Errorf("reorder: got %d ids for %d entries: %w", len(ids), len(entries), domain.ErrNotFound)
	}
	byID := make(map[int64]domain.HistoryEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	ordered := make([]domain.HistoryEntry, 0, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok {
			return fmt.Errorf("reorder: entry %d: %w", id, domain.ErrNotFound)
		}
		delete(byID, id)
		ordered = append(ordered, e)
	}
	return r.writeList(ctx, r.historyKey(userID), ordered)
}

func (r *Repo) mutateEntry(ctx context.Context, userID string, entryID int64, fn func(*domain.HistoryEntry)) error {
	entries, err := r.List(ctx, userID)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == entryID {
			fn(&entries[i])
			return r.writeList(ctx, r.historyKey(userID), entries)
		}
	}
	return domain.ErrNotFound
}

// --- projects ---

// Projects returns the user's projects in creation order.
func (r *Repo) Projects(ctx context.Context, userID string) ([]domain.Project, error) {
	var projects []domain.Project
	if err := r.readList(ctx, r.projectsKey(userID), &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject appends a new project and returns it.
func (r *Repo) CreateProject(ctx context.Context, userID, name string) (domain.Project, error) {
	projects, err := r.Projects(ctx, userID)
	if err != nil {
		return domain.Project{}, err
	}
	id, err := r.nextID(ctx, r.projectsKey(userID)+":seq")
	if err != nil {
		return domain.Project{}, err
	}
	p := domain.Project{ID: id, Name: name, CreatedAt: r.now().UTC()}
	return p, r.writeList(ctx, r.projectsKey(userID), append(projects, p))
}

// RenameProject changes a project's name.
func (r *Repo) RenameProject(ctx context.Context, userID string, projectID int64, name string) error {
	projects, err := r.Projects(ctx, userID)
	if err != nil {
		return err
	}
	for i := range projects {
		if projects[i].ID == projectID {
			projects[i].Name = name
			return r.writeList(ctx, r.projectsKey(userID), projects)
		}
	}
	return domain.ErrNotFound
}

// DeleteProject removes a project and unassigns its history entries.
func (r *Repo) DeleteProject(ctx context.Context, userID string, projectID int64) error {
	projects, err := r.Projects(ctx, userID)
	if err != nil {
		return err
	}
	found := false
	kept := projects[:0]
	for _, p := range projects {
		if p.ID == projectID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return domain.ErrNotFound
	}
	if err := r.writeList(ctx, r.projectsKey(userID), kept); err != nil {
		return err
	}

	entries, err := r.List(ctx, userID)
	if err != nil {
		return err
	}
	changed := false
	for i := range entries {
		if entries[i].ProjectID == projectID {
			entries[i].ProjectID = 0
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return r.writeList(ctx, r.historyKey(userID), entries)
}

// --- bookmarks ---

// Bookmarks returns the user's bookmarked documents.
func (r *Repo) Bookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	fields, err := r.store.HGetAll(ctx, r.bookmarksKey(userID))
	if err != nil {
		return nil, fmt.Errorf("hgetall bookmarks: %w", err)
	}
	bookmarks := make([]domain.Bookmark, 0, len(fields))
	for _, raw := range fields {
		var b domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("unmarshal bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, nil
}

// AddBookmark saves a document bookmark. Re-bookmarking a pmid overwrites it.
func (r *Repo) AddBookmark(ctx context.Context, userID string, b domain.Bookmark) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = r.now().UTC()
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal bookmark: %w", err)
	}
	if err := r.store.HSet(ctx, r.bookmarksKey(userID), map[string]string{b.PMID: string(data)}); err != nil {
		return fmt.Errorf("hset bookmark: %w", err)
	}
	return nil
}

// RemoveBookmark deletes a bookmark by pmid.
func (r *Repo) RemoveBookmark(ctx context.Context, userID, pmid string) error {
	if err := r.store.HDel(ctx, r.bookmarksKey(userID), pmid); err != nil {
		return fmt.Errorf("hdel bookmark: %w", err)
	}
	return nil
}

// --- annotations ---

// Annotations returns the user's annotations on a document.
func (r *Repo) Annotations(ctx context.Context, userID, pmid string) ([]domain.Annotation, error) {
	var notes []domain.Annotation
	if err := r.readList(ctx, r.annotationsKey(userID, pmid), &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// AddAnnotation appends a comment or highlight and returns it with its id.
func (r *Repo) AddAnnotation(ctx context.Context, userID string, a domain.Annotation) (domain.Annotation, error) {
	notes, err := r.Annotations(ctx, userID, a.PMID)
	if err != nil {
		return domain.Annotation{}, err
	}
	id, err := r.nextID(ctx, r.keyPrefix+"annotations:seq:"+userID)
	if err != nil {
		return domain.Annotation{}, err
	}
	a.ID = id
	a.CreatedAt = r.now().UTC()
	a.UpdatedAt = a.CreatedAt
	return a, r.writeList(ctx, r.annotationsKey(userID, a.PMID), append(notes, a))
}

// UpdateAnnotation rewrites the text of an existing annotation.
func (r *Repo) UpdateAnnotation(ctx context.Context, userID, pmid string, id int64, text string) error {
	notes, err := r.Annotations(ctx, userID, pmid)
	if err != nil {
		return err
	}
	for i := range notes {
		if notes[i].ID == id {
			notes[i].Text = text
			notes[i].UpdatedAt = r.now().UTC()
			return r.writeList(ctx, r.annotationsKey(userID, pmid), notes)
		}
	}
	return domain.ErrNotFound
}

// RemoveAnnotation deletes an annotation.
func (r *Repo) RemoveAnnotation(ctx context.Context, userID, pmid string, id int64) error {
	notes, err := r.Annotations(ctx, userID, pmid)
	if err != nil {
		return err
	}
	for i := range notes {
		if notes[i].ID == id {
			return r.writeList(ctx, r.annotationsKey(userID, pmid), append(notes[:i:i], notes[i+1:]...))
		}
	}
	return domain.ErrNotFound
}

// --- question counters ---

// IncrementQuestions bumps the user's lifetime and daily question counters
// and returns the new values. The daily counter expires on its own.
func (r *Repo) IncrementQuestions(ctx context.Context, userID string) (domain.QuestionCounts, error) {
	date := r.now().UTC().Format("2006-01-02")

	total, err := r.store.IncrBy(ctx, r.totalKey(userID), 1)
	if err != nil {
		return domain.QuestionCounts{}, fmt.Errorf("incr total: %w", err)
	}
	dailyKey := r.dailyKey(userID, date)
	daily, err := r.store.IncrBy(ctx, dailyKey, 1)
	if err != nil {
		return domain.QuestionCounts{}, fmt.Errorf("incr daily: %w", err)
	}
	// NX so repeated increments on the same day keep the original expiry.
	if err := r.store.Expire(ctx, dailyKey, dailyCounterTTL, true); err != nil {
		return domain.QuestionCounts{}, fmt.Errorf("expire daily: %w", err)
	}
	return domain.QuestionCounts{Total: total, Daily: daily, Date: date}, nil
}

// Questions reads the current counters without incrementing.
func (r *Repo) Questions(ctx context.Context, userID string) (domain.QuestionCounts, error) {
	date := r.now().UTC().Format("2006-01-02")

	total, err := r.readCounter(ctx, r.totalKey(userID))
	if err != nil {
		return domain.QuestionCounts{}, err
	}
	daily, err := r.readCounter(ctx, r.dailyKey(userID, date))
	if err != nil {
		return domain.QuestionCounts{}, err
	}
	return domain.QuestionCounts{Total: total, Daily: daily, Date: date}, nil
}

// --- helpers ---

func (r *Repo) readCounter(ctx context.Context, key string) (int64, error) {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("get %s: %w", key, err)
	}
	var n int64
	if _, err := fmt.Sscanf(string(raw), "%d", &n); err != nil {
		return 0, fmt.Errorf("parse counter %s: %w", key, err)
	}
	return n, nil
}

func (r *Repo) readList(ctx context.Context, key string, out any) error {
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

func (r *Repo) writeList(ctx context.Context, key string, list any) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *Repo) nextID(ctx context.Context, key string) (int64, error) {
	id, err := r.store.IncrBy(ctx, key, 1)
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return id, nil
}

func (r *Repo) historyKey(userID string) string  { return r.keyPrefix + "history:" + userID }
func (r *Repo) projectsKey(userID string) string { return r.keyPrefix + "projects:" + userID }
func (r *Repo) bookmarksKey(userID string) string {
	return r.keyPrefix + "bookmarks:" + userID
}
func (r *Repo) totalKey(userID string) string { return r.keyPrefix + "questions:total:" + userID }
func (r *Repo) dailyKey(userID, date string) string {
	return r.keyPrefix + "questions:daily:" + userID + ":" + date
}
func (r *Repo) annotationsKey(userID, pmid string) string {
	return r.keyPrefix + "annotations:" + userID + ":" + pmid
}
