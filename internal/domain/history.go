package domain

import "time"

// HistoryEntry is one saved search in a user's history. Entries are ordered
// newest first; an entry may be assigned to a project and reordered within it
// (drag-and-drop in the client).
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Query       string    `json:"query_text"`
	CustomTitle string    `json:"custom_title,omitempty"`
	ProjectID   int64     `json:"project_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Title returns the display title: the custom title when set, else the query.
func (e HistoryEntry) Title() string {
	if e.CustomTitle != "" {
		return e.CustomTitle
	}
	return e.Query
}

// Project groups saved searches.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark marks a document as saved by a user.
type Bookmark struct {
	PMID      string    `json:"pmid"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// AnnotationKind distinguishes the two per-document annotation types.
type AnnotationKind string

const (
	AnnotationComment   AnnotationKind = "comment"
	AnnotationHighlight AnnotationKind = "highlight"
)

// Annotation is a user comment or highlight attached to a document.
type Annotation struct {
	ID        int64          `json:"id"`
	Kind      AnnotationKind `json:"kind"`
	PMID      string         `json:"pmid"`
	Text      string         `json:"text"`
	Selection string         `json:"selection,omitempty"` // highlighted passage
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// QuestionCounts are a user's question counters.
type QuestionCounts struct {
	Total int64  `json:"number_questions"`
	Daily int64  `json:"count"`
	Date  string `json:"date"` // YYYY-MM-DD of the daily counter
}
