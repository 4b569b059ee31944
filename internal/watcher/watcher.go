// Package watcher detects newly published marketplace collections, notifies
// about them, and records the newest one seen.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/donaldgifford/collection-watcher/internal/config"
	"github.com/donaldgifford/collection-watcher/internal/marketplace"
	"github.com/donaldgifford/collection-watcher/internal/metrics"
	"github.com/donaldgifford/collection-watcher/internal/notify"
	"github.com/donaldgifford/collection-watcher/internal/state"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

// ErrCycleInFlight is returned when a trigger is dropped because another
// cycle is still running and the overlap policy is skip.
var ErrCycleInFlight = errors.New("poll cycle already in flight")

var tracer = otel.Tracer("github.com/donaldgifford/collection-watcher/internal/watcher")

// Outcome is the result classification of one poll cycle.
type Outcome string

// Cycle outcomes.
const (
	OutcomeNoChange          Outcome = "no_change"
	OutcomeNewFound          Outcome = "new_found"
	OutcomeFetchFailed       Outcome = "fetch_failed"
	OutcomePersistenceFailed Outcome = "persistence_failed"
)

// Result describes one completed poll cycle.
type Result struct {
	CycleID   string
	Outcome   Outcome
	Latest    *domain.CollectionSummary
	Previous  *domain.PersistedState
	Notified  bool
	NotifyErr error
	Persisted bool
	StartedAt time.Time
	Duration  time.Duration
}

// Watcher runs poll cycles: fetch the newest collection, compare it to the
// recorded one, and on novelty notify then persist. At most one cycle runs at
// a time.
type Watcher struct {
	client   marketplace.Client
	store    state.Store
	notifier notify.Notifier
	log      *slog.Logger

	marketName    string
	siteURL       string
	overlapPolicy string
	cycleTimeout  time.Duration
	now           func() time.Time

	// sem holds one token while a cycle runs.
	sem chan struct{}

	mu       sync.RWMutex
	lastSeen *domain.PersistedState
}

// Option configures the Watcher.
type Option func(*Watcher)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.log = l
	}
}

// WithMarketplace sets the display name and the public site URL used in
// alert messages.
func WithMarketplace(name, siteURL string) Option {
	return func(w *Watcher) {
		w.marketName = name
		w.siteURL = siteURL
	}
}

// WithOverlapPolicy sets what happens to a trigger that arrives while a
// cycle is running: config.OverlapSkip drops it, config.OverlapQueue waits.
func WithOverlapPolicy(policy string) Option {
	return func(w *Watcher) {
		w.overlapPolicy = policy
	}
}

// WithCycleTimeout bounds each cycle. Zero disables the bound.
func WithCycleTimeout(d time.Duration) Option {
	return func(w *Watcher) {
		w.cycleTimeout = d
	}
}

// WithClock overrides the time source used for detection timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		w.now = now
	}
}

// New creates a Watcher with injected dependencies.
func New(
	c marketplace.Client,
	s state.Store,
	n notify.Notifier,
	opts ...Option,
) *Watcher {
	w := &Watcher{
		client:        c,
		store:         s,
		notifier:      n,
		log:           slog.Default(),
		marketName:    "Ortak",
		overlapPolicy: config.OverlapSkip,
		cycleTimeout:  2 * time.Minute,
		now:           time.Now,
		sem:           make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LastSeen returns the state most recently loaded or saved by a cycle, or
// nil when no cycle has observed any state yet.
func (w *Watcher) LastSeen() *domain.PersistedState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.lastSeen == nil {
		return nil
	}
	cp := *w.lastSeen
	return &cp
}

// Poll runs one detection cycle. It returns ErrCycleInFlight without running
// when another cycle holds the guard and the policy is skip. When a cycle
// runs, the Result is always non-nil; the error is non-nil for fetch and
// persistence failures. A failed notification is recorded in the Result but
// does not fail the cycle.
func (w *Watcher) Poll(ctx context.Context) (*Result, error) {
	if err := w.acquire(ctx); err != nil {
		return nil, err
	}
	defer w.release()

	if w.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cycleTimeout)
		defer cancel()
	}

	res := &Result{
		CycleID:   uuid.NewString(),
		StartedAt: w.now(),
	}
	log := w.log.With("cycle_id", res.CycleID)

	ctx, span := tracer.Start(ctx, "watcher.poll")
	defer span.End()
	span.SetAttributes(attribute.String("cycle.id", res.CycleID))

	start := time.Now()
	err := w.runCycle(ctx, log, res)
	res.Duration = time.Since(start)

	metrics.CycleDuration.Observe(res.Duration.Seconds())
	metrics.CyclesTotal.WithLabelValues(string(res.Outcome)).Inc()
	span.SetAttributes(attribute.String("cycle.outcome", string(res.Outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return res, err
}

func (w *Watcher) acquire(ctx context.Context) error {
	if w.overlapPolicy == config.OverlapQueue {
		select {
		case w.sem <- struct{}{}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	select {
	case w.sem <- struct{}{}:
		return nil
	default:
		metrics.CyclesSkippedTotal.Inc()
		w.log.Warn("poll trigger dropped, cycle already in flight")
		return ErrCycleInFlight
	}
}

func (w *Watcher) release() {
	<-w.sem
}

func (w *Watcher) runCycle(ctx context.Context, log *slog.Logger, res *Result) error {
	latest, err := w.client.FetchLatest(ctx)
	if err != nil {
		res.Outcome = OutcomeFetchFailed
		log.Warn("fetching latest collection failed", "error", err)
		return fmt.Errorf("fetching latest collection: %w", err)
	}
	res.Latest = latest

	stored, err := w.store.Load(ctx)
	if err != nil {
		res.Outcome = OutcomePersistenceFailed
		metrics.PersistenceFailuresTotal.Inc()
		log.Error("loading state failed, skipping cycle", "error", err)
		return fmt.Errorf("loading state: %w", err)
	}
	res.Previous = stored
	w.observe(stored)

	if !stored.IsNewer(latest) {
		res.Outcome = OutcomeNoChange
		log.Debug("no new collection",
			"latest_id", latest.ID,
			"stored_id", stored.LastSeenID(),
		)
		return nil
	}

	res.Outcome = OutcomeNewFound
	log.Info("new collection detected",
		"id", latest.ID,
		"slug", latest.Slug,
		"name", latest.Name,
	)

	msg := FormatAlert(w.marketName, w.siteURL, latest)
	if err := w.notifier.Send(ctx, msg); err != nil {
		res.NotifyErr = err
		log.Error("sending notification failed, persisting anyway", "id", latest.ID, "error", err)
	} else {
		res.Notified = true
		log.Info("notification sent", "id", latest.ID)
	}

	next := &domain.PersistedState{
		CollectionSummary: *latest,
		DetectedAt:        res.StartedAt.UTC(),
	}
	if err := w.store.Save(ctx, next); err != nil {
		res.Outcome = OutcomePersistenceFailed
		metrics.PersistenceFailuresTotal.Inc()
		log.Error("saving state failed, collection will be re-detected", "id", latest.ID, "error", err)
		return fmt.Errorf("saving state: %w", err)
	}
	res.Persisted = true
	w.observe(next)

	return nil
}

func (w *Watcher) observe(s *domain.PersistedState) {
	if s == nil {
		return
	}
	w.mu.Lock()
	w.lastSeen = s
	w.mu.Unlock()
	metrics.LastSeenCollectionID.Set(float64(s.ID))
}
