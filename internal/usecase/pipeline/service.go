// Package pipeline orchestrates the five-stage search enrichment sequence:
// document fetch, narrative summary, per-document summaries, agreeableness
// scoring, and relevant-section enrichment. Stages run strictly in order
// because each request body carries the document array as enriched by the
// stages before it. One pipeline per user runs at a time; a new trigger
// cancels the previous run before starting.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/evidlit/evidlit/internal/domain"
	"github.com/evidlit/evidlit/internal/logger"
	"github.com/evidlit/evidlit/internal/metrics"
)

const (
	// DefaultDebounce collapses rapid repeated triggers into one run.
	DefaultDebounce = time.Second
	// DefaultAbortCooldown is how long the search lock is held after an
	// abort, letting in-flight rejections settle before a new run may
	// write state.
	DefaultAbortCooldown = 300 * time.Millisecond

	sideEffectTimeout = 10 * time.Second
)

// Config tunes the orchestrator's timing and limits.
type Config struct {
	Debounce      time.Duration
	AbortCooldown time.Duration
	// MaxResults caps the document count requested from the gateway.
	// Zero means no cap beyond the caller's filters.
	MaxResults int
}

// Service runs search pipelines, one active run per user.
type Service struct {
	gw       Gateway
	cache    BundleCache
	recorder Recorder
	obs      Observer
	log      *zap.Logger

	debounce   time.Duration
	cooldown   time.Duration
	maxResults int

	mu       sync.Mutex
	sessions map[string]*session
}

// session is the per-user pipeline state. All fields are guarded by mu.
type session struct {
	mu     sync.Mutex
	state  domain.PipelineState
	bundle *domain.ResultBundle
	cancel context.CancelFunc
	timer  *time.Timer
}

// New creates a pipeline service. A nil observer disables notifications.
func New(gw Gateway, cache BundleCache, recorder Recorder, obs Observer, log *zap.Logger, cfg Config) *Service {
	if obs == nil {
		obs = NopObserver{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.AbortCooldown <= 0 {
		cfg.AbortCooldown = DefaultAbortCooldown
	}
	return &Service{
		gw:         gw,
		cache:      cache,
		recorder:   recorder,
		obs:        obs,
		log:        log,
		debounce:   cfg.Debounce,
		cooldown:   cfg.AbortCooldown,
		maxResults: cfg.MaxResults,
		sessions:   make(map[string]*session),
	}
}

// State returns the current state snapshot for a user.
func (s *Service) State(userID string) domain.PipelineState {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// Results returns the user's current bundle, or nil when none is loaded.
func (s *Service) Results(userID string) *domain.ResultBundle {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.bundle
}

// Trigger schedules a debounced pipeline run. Rapid repeated triggers within
// the debounce window collapse to the last one. Triggers arriving while a
// run is locked or an abort is cooling down are dropped when the timer
// fires. The run itself happens on a background goroutine; results are
// published through the observer.
func (s *Service) Trigger(userID, query string, filters domain.SearchFilters, overwrite bool) {
	if query == "" {
		return
	}
	sess := s.session(userID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.timer != nil {
		sess.timer.Stop()
	}
	sess.timer = time.AfterFunc(s.debounce, func() {
		ctx := logger.ContextWithLogger(context.Background(), s.log)
		if _, err := s.Search(ctx, userID, query, filters, overwrite); err != nil && !errors.Is(err, domain.ErrSearchLocked) {
			s.log.Warn("triggered search failed", zap.String("query", query), zap.Error(err))
		}
	})
}

// Search runs the pipeline synchronously and returns the resulting bundle.
// While a user's run is in flight, further runs for that user fail with
// domain.ErrSearchLocked. Stage failures after the document fetch do not
// propagate: the bundle holds whatever stages completed and the state
// snapshot records which stages failed.
func (s *Service) Search(
	ctx context.Context, userID, query string, filters domain.SearchFilters, overwrite bool,
) (*domain.ResultBundle, error) {
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	log := logger.FromContext(ctx).With(zap.String("query", query))
	if s.maxResults > 0 && (filters.MaxResults <= 0 || filters.MaxResults > s.maxResults) {
		filters.MaxResults = s.maxResults
	}
	sess := s.session(userID)

	// Cancel-then-null: a prior in-flight run must be cancelled before this
	// one may touch shared session state.
	sess.mu.Lock()
	if sess.state.SearchLocked || sess.state.Aborting {
		sess.mu.Unlock()
		return nil, domain.ErrSearchLocked
	}
	if sess.cancel != nil {
		sess.cancel()
		sess.cancel = nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	sess.cancel = cancel
	sess.state = domain.PipelineState{Query: query, SearchLocked: true}
	sess.bundle = nil
	sess.mu.Unlock()
	s.publishState(userID, sess)

	defer func() {
		cancel()
		sess.mu.Lock()
		if sess.cancel != nil {
			sess.cancel = nil
		}
		// An abort owns the lock until its cooldown elapses.
		if !sess.state.Aborting {
			sess.state.SearchLocked = false
			sess.state.LoadingDocuments = false
			sess.state.LoadingSummary = false
			sess.state.LoadingAgreeableness = false
			sess.state.LoadingEnrichment = false
		}
		sess.mu.Unlock()
		s.publishState(userID, sess)
	}()

	// Cache check. Unauthenticated searches and explicit overwrites always
	// recompute.
	if userID != "" && !overwrite {
		cached, err := s.cache.Get(runCtx, userID, query)
		switch {
		case err == nil:
			metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
			sess.mu.Lock()
			sess.bundle = cached
			sess.state.CacheHit = true
			sess.mu.Unlock()
			s.publishResults(userID, sess)
			log.Info("result cache hit")
			return cached, nil
		case errors.Is(err, domain.ErrBundleNotFound):
			metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
		default:
			// A broken cache never blocks a fresh search.
			metrics.ResultCacheTotal.WithLabelValues("error").Inc()
			log.Warn("result cache read failed", zap.Error(err))
		}
	}

	// Stage 1: documents. A failure here is terminal since every later
	// stage needs the document array.
	var docs []domain.Document
	err := s.stage(runCtx, sess, userID, domain.StageDocuments, func(sess *session) {
		sess.state.LoadingDocuments = true
	}, func() error {
		var ferr error
		docs, ferr = s.gw.FetchDocuments(runCtx, query, filters.Normalize())
		return ferr
	}, func(sess *session) {
		sess.bundle = domain.NewBundle(docs)
		sess.state.LoadingDocuments = false
	})
	if err != nil {
		return nil, err
	}

	s.recordSearch(userID, query, overwrite, log)

	bundle := sess.currentBundle()

	// Stage 2: narrative summary. From here on a stage failure ends the
	// run but keeps everything already applied; nothing partial is
	// persisted.
	err = s.stage(runCtx, sess, userID, domain.StageSummary, func(sess *session) {
		sess.state.LoadingSummary = true
	}, func() error {
		text, ferr := s.gw.Summary(runCtx, query, bundle.Documents)
		if ferr != nil {
			return ferr
		}
		bundle.Summary = text
		return nil
	}, func(sess *session) {
		sess.state.LoadingSummary = false
	})
	if errors.Is(err, domain.ErrAborted) {
		return nil, err
	}
	if err != nil {
		return bundle, nil
	}
	s.publishResults(userID, sess)

	// Stage 3: per-document summaries, re-keyed by position.
	err = s.stage(runCtx, sess, userID, domain.StageDocumentSummaries, func(sess *session) {
		sess.state.LoadingSummary = true
	}, func() error {
		lines, ferr := s.gw.DocumentSummaries(runCtx, query, bundle.Documents)
		if ferr != nil {
			return ferr
		}
		return bundle.SetDocumentSummaries(lines)
	}, func(sess *session) {
		sess.state.LoadingSummary = false
	})
	if errors.Is(err, domain.ErrAborted) {
		return nil, err
	}
	if err != nil {
		return bundle, nil
	}
	s.publishResults(userID, sess)

	// Stage 4: agreeableness. Documents without a score get a zero stub.
	err = s.stage(runCtx, sess, userID, domain.StageAgreeableness, func(sess *session) {
		sess.state.LoadingAgreeableness = true
	}, func() error {
		scores, ferr := s.gw.Agreeableness(runCtx, query, bundle.Documents)
		if ferr != nil {
			return ferr
		}
		bundle.Documents = domain.MergeAgreeableness(bundle.Documents, scores)
		return nil
	}, func(sess *session) {
		sess.state.LoadingAgreeableness = false
	})
	if errors.Is(err, domain.ErrAborted) {
		return nil, err
	}
	if err != nil {
		return bundle, nil
	}
	s.publishResults(userID, sess)

	// Stage 5: relevant sections.
	err = s.stage(runCtx, sess, userID, domain.StageEnrichment, func(sess *session) {
		sess.state.LoadingEnrichment = true
	}, func() error {
		sections, ferr := s.gw.RelevantSections(runCtx, query, bundle.Documents)
		if ferr != nil {
			return ferr
		}
		bundle.Documents = domain.MergeRelevantSections(bundle.Documents, sections)
		return nil
	}, func(sess *session) {
		sess.state.LoadingEnrichment = false
	})
	if errors.Is(err, domain.ErrAborted) {
		return nil, err
	}
	if err != nil {
		return bundle, nil
	}
	s.publishResults(userID, sess)

	// Persist. Failures are logged, never surfaced: the caller still gets
	// the in-memory results.
	if userID != "" {
		if perr := s.persist(runCtx, userID, query, bundle, overwrite); perr != nil {
			metrics.PipelineStagesTotal.WithLabelValues(string(domain.StagePersist), "error").Inc()
			log.Warn("persist result bundle failed", zap.Error(perr))
		} else {
			metrics.PipelineStagesTotal.WithLabelValues(string(domain.StagePersist), "success").Inc()
		}
	}

	log.Info("pipeline complete", zap.Int("documents", len(bundle.Documents)))
	return bundle, nil
}

// Abort cancels the user's in-flight pipeline: all loading flags drop
// immediately, accumulated results are discarded rather than kept, and the
// search lock is held for a short cooldown so late responses cannot race a
// fresh run's state writes.
func (s *Service) Abort(userID string) {
	sess := s.session(userID)

	sess.mu.Lock()
	if !sess.state.SearchLocked || sess.state.Aborting {
		sess.mu.Unlock()
		return
	}
	if sess.cancel != nil {
		sess.cancel()
		sess.cancel = nil
	}
	query := sess.state.Query
	sess.state = domain.PipelineState{Query: query, SearchLocked: true, Aborting: true}
	sess.bundle = nil
	sess.mu.Unlock()

	s.publishState(userID, sess)
	s.publishResults(userID, sess)
	s.obs.Notify(userID, "search cancelled")
	s.log.Info("pipeline aborted", zap.String("query", query))

	time.AfterFunc(s.cooldown, func() {
		sess.mu.Lock()
		sess.state.Aborting = false
		sess.state.SearchLocked = false
		sess.mu.Unlock()
		s.publishState(userID, sess)
	})
}

// stage runs one pipeline step: marks its loading flag, times the call, and
// applies the result only when the run context is still live. Cancellation
// is not a failure; a real error marks the stage failed and sets the error
// flag without rolling back earlier stages.
func (s *Service) stage(
	ctx context.Context, sess *session, userID string, name domain.Stage,
	begin func(*session), call func() error, apply func(*session),
) error {
	// An abort between stages already cleared every loading flag; setting
	// this stage's flag afterwards would leave it stuck forever.
	sess.mu.Lock()
	if ctx.Err() != nil || sess.state.Aborting {
		sess.mu.Unlock()
		metrics.PipelineStagesTotal.WithLabelValues(string(name), "aborted").Inc()
		return domain.ErrAborted
	}
	begin(sess)
	sess.mu.Unlock()
	s.publishState(userID, sess)

	start := time.Now()
	err := call()
	metrics.PipelineStageDuration.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())

	// A response that lands after cancellation must not write stale state.
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		metrics.PipelineStagesTotal.WithLabelValues(string(name), "aborted").Inc()
		return domain.ErrAborted
	}
	if err != nil {
		metrics.PipelineStagesTotal.WithLabelValues(string(name), "error").Inc()
		sess.mu.Lock()
		sess.state.EncounteredError = true
		sess.state.FailedStages = append(sess.state.FailedStages, name)
		sess.mu.Unlock()
		s.publishState(userID, sess)
		logger.FromContext(ctx).Error("pipeline stage failed",
			zap.String("stage", string(name)), zap.Error(err))
		return err
	}

	metrics.PipelineStagesTotal.WithLabelValues(string(name), "success").Inc()
	sess.mu.Lock()
	apply(sess)
	sess.mu.Unlock()
	s.publishState(userID, sess)
	return nil
}

// recordSearch saves the query to history and bumps question counters.
// Fire-and-forget: runs on its own goroutine with its own deadline so a
// slow history write never stalls the pipeline, and an abort of the search
// does not lose the record. Overwrite reruns and anonymous users are
// skipped.
func (s *Service) recordSearch(userID, query string, overwrite bool, log *zap.Logger) {
	if userID == "" || overwrite || s.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		if _, err := s.recorder.Add(ctx, userID, query); err != nil {
			log.Warn("history save failed", zap.Error(err))
		}
		if _, err := s.recorder.IncrementQuestions(ctx, userID); err != nil {
			log.Warn("question counter increment failed", zap.Error(err))
		}
	}()
}

func (s *Service) persist(ctx context.Context, userID, query string, b *domain.ResultBundle, overwrite bool) error {
	if overwrite {
		return s.cache.Update(ctx, userID, query, b)
	}
	err := s.cache.Create(ctx, userID, query, b)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// The entry appeared between cache check and persist. Last writer
		// wins; there is no optimistic locking on the cache.
		return s.cache.Update(ctx, userID, query, b)
	}
	return err
}

func (s *Service) session(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	return sess
}

func (s *Service) publishState(userID string, sess *session) {
	sess.mu.Lock()
	state := sess.state
	sess.mu.Unlock()
	s.obs.StateChanged(userID, state)
}

func (s *Service) publishResults(userID string, sess *session) {
	sess.mu.Lock()
	bundle := sess.bundle
	sess.mu.Unlock()
	s.obs.ResultsChanged(userID, bundle)
}

func (sess *session) currentBundle() *domain.ResultBundle {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.bundle
}
