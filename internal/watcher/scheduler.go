package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/collection-watcher/internal/metrics"
)

// Poller runs a single detection cycle.
type Poller interface {
	Poll(ctx context.Context) (*Result, error)
}

// Scheduler runs poll cycles on a fixed interval, with an optional eager
// first cycle at start.
type Scheduler struct {
	cron       *cron.Cron
	poller     Poller
	log        *slog.Logger
	job        cron.Job
	entryID    cron.EntryID
	runOnStart bool

	wg sync.WaitGroup
}

// SchedulerOption configures the Scheduler.
type SchedulerOption func(*Scheduler)

// WithRunOnStart controls whether Start runs a cycle immediately.
func WithRunOnStart(v bool) SchedulerOption {
	return func(s *Scheduler) {
		s.runOnStart = v
	}
}

// NewScheduler creates a Scheduler that polls every interval.
func NewScheduler(
	p Poller,
	interval time.Duration,
	log *slog.Logger,
	opts ...SchedulerOption,
) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Scheduler{
		poller:     p,
		log:        log,
		runOnStart: true,
	}
	for _, opt := range opts {
		opt(s)
	}

	// The eager cycle runs the same recovered job.
	s.job = cron.NewChain(cron.Recover(cronLogger{log: log})).Then(cron.FuncJob(s.runPoll))
	s.cron = cron.New()

	id, err := s.cron.AddJob("@every "+interval.String(), s.job)
	if err != nil {
		return nil, fmt.Errorf("registering poll schedule: %w", err)
	}
	s.entryID = id

	return s, nil
}

// Start begins running scheduled cycles. When run-on-start is enabled the
// first cycle starts immediately in the background.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.job.Run()
		}()
	}
}

// Stop gracefully stops the scheduler. The returned context is done once
// every running cycle, including the eager one, has finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	cronDone := s.cron.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		cancel()
	}()
	return ctx
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// NextPoll returns the next scheduled run time. It is zero until Start.
func (s *Scheduler) NextPoll() time.Time {
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) runPoll() {
	defer s.syncNextPoll()

	res, err := s.poller.Poll(context.Background())
	switch {
	case errors.Is(err, ErrCycleInFlight):
		s.log.Warn("scheduled poll skipped, previous cycle still running")
	case err != nil:
		s.log.Error("scheduled poll failed", "error", err)
	case res != nil:
		s.log.Info("scheduled poll complete",
			"cycle_id", res.CycleID,
			"outcome", res.Outcome,
			"duration", res.Duration,
		)
	}
}

func (s *Scheduler) syncNextPoll() {
	if next := s.NextPoll(); !next.IsZero() {
		metrics.SchedulerNextPollTimestamp.Set(float64(next.Unix()))
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
