// Package history manages a user's saved searches, projects, bookmarks,
// document annotations and question counters. Everything here requires an
// authenticated user; anonymous callers get domain.ErrUnauthenticated
// except for the search save, which is silently skipped so an anonymous
// search never fails on its side effects.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/evidlit/evidlit/internal/domain"
)

// Service handles history operations over the repository.
type Service struct {
	repo Repository
}

// New creates a history service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add saves a search to the user's history. Anonymous searches are not
// recorded; the call succeeds with a zero entry.
func (s *Service) Add(ctx context.Context, userID, query string) (domain.HistoryEntry, error) {
	if userID == "" {
		return domain.HistoryEntry{}, nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.HistoryEntry{}, domain.ErrEmptyQuery
	}
	return s.repo.Add(ctx, userID, query)
}

// List returns the user's history, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.List(ctx, userID)
}

// Rename sets a custom title on a history entry.
func (s *Service) Rename(ctx context.Context, userID string, entryID int64, title string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("empty title: %w", domain.ErrEmptyQuery)
	}
	return s.repo.Rename(ctx, userID, entryID, title)
}

// Delete removes a history entry.
func (s *Service) Delete(ctx context.Context, userID string, entryID int64) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	return s.repo.Remove(ctx, userID, entryID)
}

// AssignProject moves an entry into a project; projectID 0 unassigns.
func (s *Service) AssignProject(ctx context.Context, userID string, entryID, projectID int64) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if projectID != 0 {
		if err := s.projectExists(ctx, userID, projectID); err != nil {
			return err
		}
	}
	return s.repo.AssignProject(ctx, userID, entryID, projectID)
}

// Reorder rewrites the history order to the given entry ids.
func (s *Service) Reorder(ctx context.Context, userID string, ids []int64) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	return s.repo.Reorder(ctx, userID, ids)
}

// Projects returns the user's projects.
func (s *Service) Projects(ctx context.Context, userID string) ([]domain.Project, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.Projects(ctx, userID)
}

// CreateProject adds a project.
func (s *Service) CreateProject(ctx context.Context, userID, name string) (domain.Project, error) {
	if userID == "" {
		return domain.Project{}, domain.ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, fmt.Errorf("empty project name: %w", domain.ErrEmptyQuery)
	}
	return s.repo.CreateProject(ctx, userID, name)
}

// RenameProject changes a project's name.
func (s *Service) RenameProject(ctx context.Context, userID string, projectID int64, name string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("empty project name: %w", domain.ErrEmptyQuery)
	}
	return s.repo.RenameProject(ctx, userID, projectID, name)
}

// DeleteProject removes a project and unassigns its entries.
func (s *Service) DeleteProject(ctx context.Context, userID string, projectID int64) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	return s.repo.DeleteProject(ctx, userID, projectID)
}

// Bookmarks returns the user's bookmarked documents.
func (s *Service) Bookmarks(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.Bookmarks(ctx, userID)
}

// AddBookmark saves a document bookmark.
func (s *Service) AddBookmark(ctx context.Context, userID string, b domain.Bookmark) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if b.PMID == "" {
		return fmt.Errorf("bookmark without pmid: %w", domain.ErrNotFound)
	}
	return s.repo.AddBookmark(ctx, userID, b)
}

// RemoveBookmark deletes a bookmark.
func (s *Service) RemoveBookmark(ctx context.Context, userID, pmid string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	return s.repo.RemoveBookmark(ctx, userID, pmid)
}

// Annotations returns the user's comments and highlights on a document.
func (s *Service) Annotations(ctx context.Context, userID, pmid string) ([]domain.Annotation, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.Annotations(ctx, userID, pmid)
}

// AddAnnotation attaches a comment or highlight to a document.
func (s *Service) AddAnnotation(ctx context.Context, userID string, a domain.Annotation) (domain.Annotation, error) {
	if userID == "" {
		return domain.Annotation{}, domain.ErrUnauthenticated
	}
	if a.PMID == "" {
		return domain.Annotation{}, fmt.Errorf("annotation without pmid: %w", domain.ErrNotFound)
	}
	if a.Kind != domain.AnnotationComment && a.Kind != domain.AnnotationHighlight {
		return domain.Annotation{}, fmt.Errorf("unknown annotation kind %q: %w", a.Kind, domain.ErrNotFound)
	}
	return s.repo.AddAnnotation(ctx, userID, a)
}

// UpdateAnnotation rewrites an annotation's text.
func (s *Service) UpdateAnnotation(ctx context.Context, userID, pmid string, id int64, text string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	return s.repo.UpdateAnnotation(ctx, userID, pmid, id, text)
}

// RemoveAnnotation deletes an annotation.
func (s *Service) RemoveAnnotation(ctx context.Context, userID, pmid string, id int64) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	return s.repo.RemoveAnnotation(ctx, userID, pmid, id)
}

// IncrementQuestions bumps the user's question counters. Anonymous
// increments are skipped, mirroring the history save.
func (s *Service) IncrementQuestions(ctx context.Context, userID string) (domain.QuestionCounts, error) {
	if userID == "" {
		return domain.QuestionCounts{}, nil
	}
	return s.repo.IncrementQuestions(ctx, userID)
}

// Questions reads the user's counters without incrementing.
func (s *Service) Questions(ctx context.Context, userID string) (domain.QuestionCounts, error) {
	if userID == "" {
		return domain.QuestionCounts{}, domain.ErrUnauthenticated
	}
	return s.repo.Questions(ctx, userID)
}

func (s *Service) projectExists(ctx context.Context, userID string, projectID int64) error {
	projects, err := s.repo.Projects(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range projects {
		if p.ID == projectID {
			return nil
		}
	}
	return fmt.Errorf("project %d: %w", projectID, domain.ErrNotFound)
}
