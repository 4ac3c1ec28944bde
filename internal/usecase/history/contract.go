package history

import (
	"context"

	"github.com/evidlit/evidlit/internal/domain"
)

// Repository is the storage contract for history operations.
type Repository interface {
	List(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
	Add(ctx context.Context, userID, query string) (domain.HistoryEntry, error)
	Rename(ctx context.Context, userID string, entryID int64, title string) error
	AssignProject(ctx context.Context, userID string, entryID, projectID int64) error
	Remove(ctx context.Context, userID string, entryID int64) error
	Reorder(ctx context.Context, userID string, ids []int64) error

	Projects(ctx context.Context, userID string) ([]domain.Project, error)
	CreateProject(ctx context.Context, userID, name string) (domain.Project, error)
	RenameProject(ctx context.Context, userID string, projectID int64, name string) error
	DeleteProject(ctx context.Context, userID string, projectID int64) error

	Bookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error)
	AddBookmark(ctx context.Context, userID string, b domain.Bookmark) error
	RemoveBookmark(ctx context.Context, userID, pmid string) error

	Annotations(ctx context.Context, userID, pmid string) ([]domain.Annotation, error)
	AddAnnotation(ctx context.Context, userID string, a domain.Annotation) (domain.Annotation, error)
	UpdateAnnotation(ctx context.Context, userID, pmid string, id int64, text string) error
	RemoveAnnotation(ctx context.Context, userID, pmid string, id int64) error

	IncrementQuestions(ctx context.Context, userID string) (domain.QuestionCounts, error)
	Questions(ctx context.Context, userID string) (domain.QuestionCounts, error)
}
