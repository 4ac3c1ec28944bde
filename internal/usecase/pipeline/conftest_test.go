package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/evidlit/evidlit/internal/domain"
)

// fakeGateway scripts the five stage endpoints. Per-stage errors simulate
// failures; per-stage block channels let a test hold a stage in flight
// while it aborts the pipeline.
type fakeGateway struct {
	mu    sync.Mutex
	calls map[domain.Stage]int

	docs         []domain.Document
	lastFilters  domain.SearchFilters
	summary      string
	docSummaries []string
	agree        map[string]domain.Agreeableness
	sections     map[string]domain.RelevantSection

	errs    map[domain.Stage]error
	started map[domain.Stage]chan struct{}
	release map[domain.Stage]chan struct{}
}

func newFakeGateway() *fakeGateway {
	docs := []domain.Document{
		{PMID: "111", Title: "first", Similarity: 0.9, Citations: domain.Citations{Total: 50}},
		{PMID: "222", Title: "second", Similarity: 0.7, Citations: domain.Citations{Total: 5}},
	}
	return &fakeGateway{
		calls:        make(map[domain.Stage]int),
		docs:         docs,
		summary:      "Both studies [1][2] support the hypothesis.",
		docSummaries: []string{"one line on first", "one line on second"},
		agree: map[string]domain.Agreeableness{
			"111": {Agree: 0.8, Disagree: 0.1, Neutral: 0.1},
		},
		sections: map[string]domain.RelevantSection{
			"111": {MostRelevantSentence: "We observed a strong effect.", SimilarityScore: 0.93},
		},
		errs:    make(map[domain.Stage]error),
		started: make(map[domain.Stage]chan struct{}),
		release: make(map[domain.Stage]chan struct{}),
	}
}

// blockStage makes a stage wait until its release channel is closed (or the
// context is cancelled). Returns the started and release channels.
func (g *fakeGateway) blockStage(stage domain.Stage) (started, release chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	started = make(chan struct{})
	release = make(chan struct{})
	g.started[stage] = started
	g.release[stage] = release
	return started, release
}

func (g *fakeGateway) enter(ctx context.Context, stage domain.Stage) error {
	g.mu.Lock()
	g.calls[stage]++
	err := g.errs[stage]
	started := g.started[stage]
	release := g.release[stage]
	g.mu.Unlock()

	if started != nil {
		close(started)
		g.mu.Lock()
		g.started[stage] = nil
		g.mu.Unlock()
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (g *fakeGateway) callCount(stage domain.Stage) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[stage]
}

func (g *fakeGateway) FetchDocuments(ctx context.Context, _ string, filters domain.SearchFilters) ([]domain.Document, error) {
	if err := g.enter(ctx, domain.StageDocuments); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.lastFilters = filters
	g.mu.Unlock()
	return append([]domain.Document(nil), g.docs...), nil
}

func (g *fakeGateway) Summary(ctx context.Context, _ string, _ []domain.Document) (string, error) {
	if err := g.enter(ctx, domain.StageSummary); err != nil {
		return "", err
	}
	return g.summary, nil
}

func (g *fakeGateway) DocumentSummaries(ctx context.Context, _ string, _ []domain.Document) ([]string, error) {
	if err := g.enter(ctx, domain.StageDocumentSummaries); err != nil {
		return nil, err
	}
	return g.docSummaries, nil
}

func (g *fakeGateway) Agreeableness(ctx context.Context, _ string, _ []domain.Document) (map[string]domain.Agreeableness, error) {
	if err := g.enter(ctx, domain.StageAgreeableness); err != nil {
		return nil, err
	}
	return g.agree, nil
}

func (g *fakeGateway) RelevantSections(ctx context.Context, _ string, _ []domain.Document) (map[string]domain.RelevantSection, error) {
	if err := g.enter(ctx, domain.StageEnrichment); err != nil {
		return nil, err
	}
	return g.sections, nil
}

// fakeCache is an in-memory bundle cache recording writes.
type fakeCache struct {
	mu      sync.Mutex
	bundles map[string]*domain.ResultBundle
	creates int
	updates int
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{bundles: make(map[string]*domain.ResultBundle)}
}

func (c *fakeCache) key(userID, query string) string { return userID + "\x00" + query }

func (c *fakeCache) Get(_ context.Context, userID, query string) (*domain.ResultBundle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	b, ok := c.bundles[c.key(userID, query)]
	if !ok {
		return nil, domain.ErrBundleNotFound
	}
	return b, nil
}

func (c *fakeCache) Create(_ context.Context, userID, query string, b *domain.ResultBundle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.bundles[c.key(userID, query)]; ok {
		return domain.ErrAlreadyExists
	}
	c.creates++
	c.bundles[c.key(userID, query)] = b
	return nil
}

func (c *fakeCache) Update(_ context.Context, userID, query string, b *domain.ResultBundle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates++
	c.bundles[c.key(userID, query)] = b
	return nil
}

// fakeRecorder records fire-and-forget side effects and signals each one so
// tests can wait without sleeping.
type fakeRecorder struct {
	mu       sync.Mutex
	queries  []string
	incrs    int
	recorded chan struct{}
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{recorded: make(chan struct{}, 16)}
}

func (r *fakeRecorder) Add(_ context.Context, _, query string) (domain.HistoryEntry, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	r.recorded <- struct{}{}
	return domain.HistoryEntry{ID: 1, Query: query}, nil
}

func (r *fakeRecorder) IncrementQuestions(_ context.Context, _ string) (domain.QuestionCounts, error) {
	r.mu.Lock()
	r.incrs++
	r.mu.Unlock()
	r.recorded <- struct{}{}
	return domain.QuestionCounts{Total: 1, Daily: 1}, nil
}

func (r *fakeRecorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.recorded:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for side effect %d of %d", i+1, n)
		}
	}
}

func (r *fakeRecorder) addCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queries)
}

// fakeObserver records notifications and state snapshots.
type fakeObserver struct {
	mu       sync.Mutex
	states   []domain.PipelineState
	messages []string
}

func (o *fakeObserver) StateChanged(_ string, state domain.PipelineState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func (o *fakeObserver) ResultsChanged(string, *domain.ResultBundle) {}

func (o *fakeObserver) Notify(_ string, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, message)
}

func (o *fakeObserver) notified(message string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range o.messages {
		if m == message {
			return true
		}
	}
	return false
}

func (o *fakeObserver) sawAborting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, s := range o.states {
		if s.Aborting {
			return true
		}
	}
	return false
}

type fixture struct {
	svc      *Service
	gw       *fakeGateway
	cache    *fakeCache
	recorder *fakeRecorder
	obs      *fakeObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gw := newFakeGateway()
	cache := newFakeCache()
	recorder := newFakeRecorder()
	obs := &fakeObserver{}
	svc := New(gw, cache, recorder, obs, zap.NewNop(), Config{
		Debounce:      10 * time.Millisecond,
		AbortCooldown: 10 * time.Millisecond,
	})
	return &fixture{svc: svc, gw: gw, cache: cache, recorder: recorder, obs: obs}
}

// waitUnlocked polls until the user's search lock is released.
func (f *fixture) waitUnlocked(t *testing.T, userID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st := f.svc.State(userID)
		if !st.SearchLocked && !st.Aborting {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("search lock never released")
}
