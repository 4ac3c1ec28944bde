package history

import (
	"context"
	"errors"
	"testing"

	"github.com/evidlit/evidlit/internal/domain"
)

// fakeRepo records calls; behavior is scripted per test.
type fakeRepo struct {
	Repository

	added    []string
	entries  []domain.HistoryEntry
	projects []domain.Project
	assigned map[int64]int64
	incrs    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{assigned: make(map[int64]int64)}
}

func (r *fakeRepo) Add(_ context.Context, _, query string) (domain.HistoryEntry, error) {
	r.added = append(r.added, query)
	return domain.HistoryEntry{ID: int64(len(r.added)), Query: query}, nil
}

func (r *fakeRepo) List(context.Context, string) ([]domain.HistoryEntry, error) {
	return r.entries, nil
}

func (r *fakeRepo) Projects(context.Context, string) ([]domain.Project, error) {
	return r.projects, nil
}

func (r *fakeRepo) AssignProject(_ context.Context, _ string, entryID, projectID int64) error {
	r.assigned[entryID] = projectID
	return nil
}

func (r *fakeRepo) IncrementQuestions(context.Context, string) (domain.QuestionCounts, error) {
	r.incrs++
	return domain.QuestionCounts{Total: int64(r.incrs), Daily: int64(r.incrs)}, nil
}

func TestAddSkipsAnonymous(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo)

	entry, err := svc.Add(context.Background(), "", "some query")
	if err != nil {
		t.Fatalf("anonymous add: %v", err)
	}
	if entry.ID != 0 {
		t.Errorf("entry = %+v, want zero entry for anonymous", entry)
	}
	if len(repo.added) != 0 {
		t.Errorf("repo called %d times for anonymous, want 0", len(repo.added))
	}
}

func TestAddTrimsAndRejectsEmpty(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "u1", "   "); !errors.Is(err, domain.ErrEmptyQuery) {
		t.Errorf("blank query = %v, want ErrEmptyQuery", err)
	}
	if _, err := svc.Add(ctx, "u1", "  padded  "); err != nil {
		t.Fatalf("add: %v", err)
	}
	if repo.added[0] != "padded" {
		t.Errorf("saved query = %q, want trimmed", repo.added[0])
	}
}

func TestListRequiresUser(t *testing.T) {
	svc := New(newFakeRepo())
	if _, err := svc.List(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("anonymous list = %v, want ErrUnauthenticated", err)
	}
}

func TestAssignProjectChecksExistence(t *testing.T) {
	repo := newFakeRepo()
	repo.projects = []domain.Project{{ID: 7, Name: "cardio"}}
	svc := New(repo)
	ctx := context.Background()

	if err := svc.AssignProject(ctx, "u1", 1, 7); err != nil {
		t.Fatalf("assign to existing project: %v", err)
	}
	if repo.assigned[1] != 7 {
		t.Errorf("assigned = %v", repo.assigned)
	}

	if err := svc.AssignProject(ctx, "u1", 1, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("assign to missing project = %v, want ErrNotFound", err)
	}

	// Unassign never needs an existence check.
	if err := svc.AssignProject(ctx, "u1", 1, 0); err != nil {
		t.Errorf("unassign: %v", err)
	}
}

func TestAddAnnotationValidatesKind(t *testing.T) {
	svc := New(newFakeRepo())
	_, err := svc.AddAnnotation(context.Background(), "u1", domain.Annotation{
		Kind: "sticky-note", PMID: "111", Text: "x",
	})
	if err == nil {
		t.Fatal("unknown annotation kind must be rejected")
	}
}

func TestIncrementQuestionsSkipsAnonymous(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo)

	counts, err := svc.IncrementQuestions(context.Background(), "")
	if err != nil {
		t.Fatalf("anonymous increment: %v", err)
	}
	if counts.Total != 0 || repo.incrs != 0 {
		t.Errorf("anonymous increment hit the repo: %+v, incrs=%d", counts, repo.incrs)
	}

	counts, err = svc.IncrementQuestions(context.Background(), "u1")
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if counts.Total != 1 {
		t.Errorf("counts = %+v, want total 1", counts)
	}
}
