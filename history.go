package evidlit

import (
	"context"

	historyuc "github.com/evidlit/evidlit/internal/usecase/history"
)

// HistoryService manages per-user search history, projects, bookmarks,
// annotations, and question counters. All methods except Add and
// IncrementQuestions return ErrUnauthenticated for an empty userID; those
// two silently skip anonymous users.
type HistoryService struct {
	svc *historyuc.Service
}

// List returns the user's history entries, newest first.
func (h *HistoryService) List(ctx context.Context, userID string) ([]HistoryEntry, error) {
	return h.svc.List(ctx, userID)
}

// Add records a query at the front of the history. Repeating a query moves
// its existing entry to the front instead of duplicating it.
func (h *HistoryService) Add(ctx context.Context, userID, query string) (HistoryEntry, error) {
	return h.svc.Add(ctx, userID, query)
}

// Rename sets a custom title on a history entry.
func (h *HistoryService) Rename(ctx context.Context, userID string, entryID int64, title string) error {
	return h.svc.Rename(ctx, userID, entryID, title)
}

// Delete removes a history entry.
func (h *HistoryService) Delete(ctx context.Context, userID string, entryID int64) error {
	return h.svc.Delete(ctx, userID, entryID)
}

// AssignProject moves a history entry into a project; projectID 0 unassigns.
func (h *HistoryService) AssignProject(ctx context.Context, userID string, entryID, projectID int64) error {
	return h.svc.AssignProject(ctx, userID, entryID, projectID)
}

// Reorder rewrites the history order. ids must contain every entry exactly once.
func (h *HistoryService) Reorder(ctx context.Context, userID string, ids []int64) error {
	return h.svc.Reorder(ctx, userID, ids)
}

// Projects returns the user's projects.
func (h *HistoryService) Projects(ctx context.Context, userID string) ([]Project, error) {
	return h.svc.Projects(ctx, userID)
}

// CreateProject creates a named project.
func (h *HistoryService) CreateProject(ctx context.Context, userID, name string) (Project, error) {
	return h.svc.CreateProject(ctx, userID, name)
}

// RenameProject renames a project.
func (h *HistoryService) RenameProject(ctx context.Context, userID string, projectID int64, name string) error {
	return h.svc.RenameProject(ctx, userID, projectID, name)
}

// DeleteProject removes a project and unassigns its history entries.
func (h *HistoryService) DeleteProject(ctx context.Context, userID string, projectID int64) error {
	return h.svc.DeleteProject(ctx, userID, projectID)
}

// Bookmarks returns the user's bookmarked documents.
func (h *HistoryService) Bookmarks(ctx context.Context, userID string) ([]Bookmark, error) {
	return h.svc.Bookmarks(ctx, userID)
}

// AddBookmark bookmarks a document.
func (h *HistoryService) AddBookmark(ctx context.Context, userID string, b Bookmark) error {
	return h.svc.AddBookmark(ctx, userID, b)
}

// RemoveBookmark removes a bookmark by PMID.
func (h *HistoryService) RemoveBookmark(ctx context.Context, userID, pmid string) error {
	return h.svc.RemoveBookmark(ctx, userID, pmid)
}

// Annotations returns the user's annotations for a document.
func (h *HistoryService) Annotations(ctx context.Context, userID, pmid string) ([]Annotation, error) {
	return h.svc.Annotations(ctx, userID, pmid)
}

// AddAnnotation stores a comment or highlight on a document.
func (h *HistoryService) AddAnnotation(ctx context.Context, userID string, a Annotation) (Annotation, error) {
	return h.svc.AddAnnotation(ctx, userID, a)
}

// UpdateAnnotation rewrites an annotation's text.
func (h *HistoryService) UpdateAnnotation(ctx context.Context, userID, pmid string, id int64, text string) error {
	return h.svc.UpdateAnnotation(ctx, userID, pmid, id, text)
}

// RemoveAnnotation deletes an annotation.
func (h *HistoryService) RemoveAnnotation(ctx context.Context, userID, pmid string, id int64) error {
	return h.svc.RemoveAnnotation(ctx, userID, pmid, id)
}

// IncrementQuestions bumps the user's lifetime and daily question counters.
func (h *HistoryService) IncrementQuestions(ctx context.Context, userID string) (QuestionCounts, error) {
	return h.svc.IncrementQuestions(ctx, userID)
}

// Questions reads the counters without incrementing.
func (h *HistoryService) Questions(ctx context.Context, userID string) (QuestionCounts, error) {
	return h.svc.Questions(ctx, userID)
}
