package watcher

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePoller struct {
	calls atomic.Int32
	fn    func() (*Result, error)
}

func (f *fakePoller) Poll(context.Context) (*Result, error) {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn()
	}
	return &Result{Outcome: OutcomeNoChange}, nil
}

func TestNewScheduler_RegistersCronEntry(t *testing.T) {
	t.Parallel()

	sched, err := NewScheduler(&fakePoller{}, 10*time.Minute, quietLogger())
	require.NoError(t, err)
	assert.Len(t, sched.Entries(), 1)
	assert.True(t, sched.NextPoll().IsZero())
}

func TestNewScheduler_RejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()

	_, err := NewScheduler(&fakePoller{}, 0, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll interval must be positive")
}

func TestScheduler_RunsEagerCycle(t *testing.T) {
	t.Parallel()

	p := &fakePoller{}
	sched, err := NewScheduler(p, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.Start()
	ctx := sched.Stop()
	<-ctx.Done()

	assert.Equal(t, int32(1), p.calls.Load())
}

func TestScheduler_NoEagerCycle(t *testing.T) {
	t.Parallel()

	p := &fakePoller{}
	sched, err := NewScheduler(p, time.Hour, quietLogger(), WithRunOnStart(false))
	require.NoError(t, err)

	sched.Start()
	assert.Eventually(t, func() bool { return !sched.NextPoll().IsZero() }, time.Second, 10*time.Millisecond)
	<-sched.Stop().Done()

	assert.Equal(t, int32(0), p.calls.Load())
}

func TestScheduler_RecoversPanic(t *testing.T) {
	t.Parallel()

	p := &fakePoller{fn: func() (*Result, error) { panic("boom") }}
	sched, err := NewScheduler(p, time.Hour, quietLogger())
	require.NoError(t, err)

	sched.Start()
	<-sched.Stop().Done()

	assert.Equal(t, int32(1), p.calls.Load())
}

func TestScheduler_LogsSkippedAndFailedCycles(t *testing.T) {
	t.Parallel()

	for _, err := range []error{ErrCycleInFlight, context.DeadlineExceeded} {
		p := &fakePoller{fn: func() (*Result, error) { return nil, err }}
		sched, serr := NewScheduler(p, time.Hour, quietLogger())
		require.NoError(t, serr)

		sched.runPoll()
		assert.Equal(t, int32(1), p.calls.Load())
	}
}

func TestScheduler_TicksOnInterval(t *testing.T) {
	t.Parallel()

	p := &fakePoller{}
	sched, err := NewScheduler(p, time.Second, quietLogger(), WithRunOnStart(false))
	require.NoError(t, err)

	sched.Start()
	assert.Eventually(t, func() bool { return p.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	<-sched.Stop().Done()
}
