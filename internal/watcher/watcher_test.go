package watcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/collection-watcher/internal/config"
	"github.com/donaldgifford/collection-watcher/internal/fileio"
	"github.com/donaldgifford/collection-watcher/internal/marketplace"
	marketMocks "github.com/donaldgifford/collection-watcher/internal/marketplace/mocks"
	"github.com/donaldgifford/collection-watcher/internal/metrics"
	"github.com/donaldgifford/collection-watcher/internal/notify"
	notifyMocks "github.com/donaldgifford/collection-watcher/internal/notify/mocks"
	"github.com/donaldgifford/collection-watcher/internal/state"
	stateMocks "github.com/donaldgifford/collection-watcher/internal/state/mocks"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

const (
	testSite      = "https://ortak.example"
	testStatePath = "data/latest_collection.json"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// quietLogger returns a logger that discards output for tests.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWatcher(
	c marketplace.Client,
	s state.Store,
	n notify.Notifier,
	opts ...Option,
) *Watcher {
	base := []Option{
		WithLogger(quietLogger()),
		WithMarketplace("Ortak", testSite),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(c, s, n, append(base, opts...)...)
}

func collection(id int64, slug, name string) *domain.CollectionSummary {
	return &domain.CollectionSummary{ID: id, Slug: slug, Name: name}
}

func TestPoll_FirstRunNotifiesAndPersists(t *testing.T) {
	t.Parallel()

	files := fileio.NewMemory()
	store := state.NewFileStore(files, testStatePath)
	mc := marketMocks.NewMockClient(t)
	mn := notifyMocks.NewMockNotifier(t)

	mc.EXPECT().FetchLatest(mock.Anything).Return(collection(100, "nhl", "NHL"), nil).Once()
	mn.EXPECT().Send(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, m notify.Message) error {
			assert.Equal(t, "https://ortak.example/collections/nhl/nfts", m.Link)
			assert.Contains(t, m.Text, "Name: NHL")
			assert.Contains(t, m.Text, "ID: 100")
			assert.Contains(t, m.Text, "Homepage: https://ortak.example")
			return nil
		}).Once()

	w := newTestWatcher(mc, store, mn)
	res, err := w.Poll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNewFound, res.Outcome)
	assert.True(t, res.Notified)
	assert.True(t, res.Persisted)
	assert.Nil(t, res.Previous)
	assert.NotEmpty(t, res.CycleID)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(100), got.ID)
	assert.Equal(t, "nhl", got.Slug)
	assert.True(t, fixedNow.Equal(got.DetectedAt))

	last := w.LastSeen()
	require.NotNil(t, last)
	assert.Equal(t, int64(100), last.ID)
}

func TestPoll_Comparisons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		storedID    int64
		latestID    int64
		wantOutcome Outcome
		wantStored  int64
	}{
		{name: "same id is no change", storedID: 100, latestID: 100, wantOutcome: OutcomeNoChange, wantStored: 100},
		{name: "lower id is no change", storedID: 100, latestID: 99, wantOutcome: OutcomeNoChange, wantStored: 100},
		{name: "higher id is new", storedID: 100, latestID: 101, wantOutcome: OutcomeNewFound, wantStored: 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := state.NewFileStore(fileio.NewMemory(), testStatePath)
			require.NoError(t, store.Save(context.Background(), &domain.PersistedState{
				CollectionSummary: *collection(tt.storedID, "nhl", "NHL"),
			}))

			mc := marketMocks.NewMockClient(t)
			mn := notifyMocks.NewMockNotifier(t)
			mc.EXPECT().FetchLatest(mock.Anything).Return(collection(tt.latestID, "nba", "NBA"), nil).Once()
			if tt.wantOutcome == OutcomeNewFound {
				mn.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Once()
			}

			res, err := newTestWatcher(mc, store, mn).Poll(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, res.Outcome)
			assert.Equal(t, tt.wantOutcome == OutcomeNewFound, res.Notified)

			got, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantStored, got.ID)
		})
	}
}


func TestPoll_UnchangedLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		latestID int64
	}{
		{name: "same id", latestID: 100},
		{name: "lower id", latestID: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stored := &domain.PersistedState{
				CollectionSummary: *collection(100, "nhl", "NHL"),
				DetectedAt:        fixedNow.Add(-time.Hour),
			}

			// Only Load is expected: any Save or Send fails the test.
			ms := stateMocks.NewMockStore(t)
			ms.EXPECT().Load(mock.Anything).Return(stored, nil).Once()
			mc := marketMocks.NewMockClient(t)
			mc.EXPECT().FetchLatest(mock.Anything).Return(collection(tt.latestID, "nhl", "NHL"), nil).Once()
			mn := notifyMocks.NewMockNotifier(t)

			res, err := newTestWatcher(mc, ms, mn).Poll(context.Background())
			require.NoError(t, err)
			assert.Equal(t, OutcomeNoChange, res.Outcome)
			assert.False(t, res.Notified)
			assert.False(t, res.Persisted)
			ms.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
			mn.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestPoll_UnchangedDoesNotRewriteStateFile(t *testing.T) {
	t.Parallel()

	files := fileio.NewMemory()
	store := state.NewFileStore(files, testStatePath)
	require.NoError(t, store.Save(context.Background(), &domain.PersistedState{
		CollectionSummary: *collection(100, "nhl", "NHL"),
		DetectedAt:        fixedNow.Add(-time.Hour),
	}))
	before, err := afero.ReadFile(files.Fs(), testStatePath)
	require.NoError(t, err)

	epoch := time.Unix(0, 0)
	require.NoError(t, files.Fs().Chtimes(testStatePath, epoch, epoch))

	mc := marketMocks.NewMockClient(t)
	mc.EXPECT().FetchLatest(mock.Anything).Return(collection(100, "nhl", "NHL"), nil).Once()

	res, err := newTestWatcher(mc, store, notifyMocks.NewMockNotifier(t)).Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChange, res.Outcome)

	after, err := afero.ReadFile(files.Fs(), testStatePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	info, err := files.Fs().Stat(testStatePath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(epoch), "state file must not be rewritten")
}
func TestPoll_FetchFailure(t *testing.T) {
	t.Parallel()

	ms := stateMocks.NewMockStore(t)
	mc := marketMocks.NewMockClient(t)
	mn := notifyMocks.NewMockNotifier(t)

	mc.EXPECT().FetchLatest(mock.Anything).
		Return(nil, &marketplace.APIError{Endpoint: "latest", Code: 1, Message: "error"}).Once()

	before := ptestutil.ToFloat64(metrics.CyclesTotal.WithLabelValues(string(OutcomeFetchFailed)))

	res, err := newTestWatcher(mc, ms, mn).Poll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, marketplace.ErrFetchFailed)
	require.NotNil(t, res)
	assert.Equal(t, OutcomeFetchFailed, res.Outcome)
	assert.False(t, res.Notified)
	assert.False(t, res.Persisted)

	after := ptestutil.ToFloat64(metrics.CyclesTotal.WithLabelValues(string(OutcomeFetchFailed)))
	assert.GreaterOrEqual(t, after-before, 1.0)
}

func TestPoll_NotifyFailureStillPersists(t *testing.T) {
	t.Parallel()

	store := state.NewFileStore(fileio.NewMemory(), testStatePath)
	mc := marketMocks.NewMockClient(t)
	mn := notifyMocks.NewMockNotifier(t)

	mc.EXPECT().FetchLatest(mock.Anything).Return(collection(101, "nba", "NBA"), nil).Once()
	sendErr := errors.New("telegram down")
	mn.EXPECT().Send(mock.Anything, mock.Anything).Return(sendErr).Once()

	res, err := newTestWatcher(mc, store, mn).Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNewFound, res.Outcome)
	assert.False(t, res.Notified)
	assert.ErrorIs(t, res.NotifyErr, sendErr)
	assert.True(t, res.Persisted)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(101), got.ID)
}

func TestPoll_LoadFailureSkipsNotify(t *testing.T) {
	t.Parallel()

	ms := stateMocks.NewMockStore(t)
	mc := marketMocks.NewMockClient(t)
	mn := notifyMocks.NewMockNotifier(t)

	mc.EXPECT().FetchLatest(mock.Anything).Return(collection(5, "a", "A"), nil).Once()
	ms.EXPECT().Load(mock.Anything).Return(nil, state.ErrPersistence).Once()

	res, err := newTestWatcher(mc, ms, mn).Poll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, state.ErrPersistence)
	assert.Equal(t, OutcomePersistenceFailed, res.Outcome)
	assert.False(t, res.Notified)
}

func TestPoll_SaveFailureRetriesNextCycle(t *testing.T) {
	t.Parallel()

	ms := stateMocks.NewMockStore(t)
	mc := marketMocks.NewMockClient(t)
	mn := notifyMocks.NewMockNotifier(t)

	mc.EXPECT().FetchLatest(mock.Anything).Return(collection(7, "seven", "Seven"), nil).Times(2)
	ms.EXPECT().Load(mock.Anything).Return(nil, nil).Times(2)
	mn.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Times(2)
	ms.EXPECT().Save(mock.Anything, mock.Anything).Return(state.ErrPersistence).Once()
	ms.EXPECT().Save(mock.Anything, mock.MatchedBy(func(s *domain.PersistedState) bool {
		return s.ID == 7 && s.Slug == "seven"
	})).Return(nil).Once()

	w := newTestWatcher(mc, ms, mn)

	res, err := w.Poll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, state.ErrPersistence)
	assert.Equal(t, OutcomePersistenceFailed, res.Outcome)
	assert.True(t, res.Notified)
	assert.False(t, res.Persisted)
	assert.Nil(t, w.LastSeen())

	res, err = w.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNewFound, res.Outcome)
	assert.True(t, res.Persisted)
}

func TestPoll_Idempotent(t *testing.T) {
	t.Parallel()

	store := state.NewFileStore(fileio.NewMemory(), testStatePath)
	mc := marketMocks.NewMockClient(t)
	mn := notifyMocks.NewMockNotifier(t)

	mc.EXPECT().FetchLatest(mock.Anything).Return(collection(100, "nhl", "NHL"), nil).Times(2)
	mn.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Once()

	w := newTestWatcher(mc, store, mn)

	first, err := w.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNewFound, first.Outcome)

	second, err := w.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChange, second.Outcome)
	require.NotNil(t, second.Previous)
	assert.Equal(t, int64(100), second.Previous.ID)
}

func TestPoll_RestartSafety(t *testing.T) {
	t.Parallel()

	files := fileio.NewMemory()
	mc := marketMocks.NewMockClient(t)
	mc.EXPECT().FetchLatest(mock.Anything).Return(collection(100, "nhl", "NHL"), nil).Times(2)

	firstNotifier := notifyMocks.NewMockNotifier(t)
	firstNotifier.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Once()

	_, err := newTestWatcher(mc, state.NewFileStore(files, testStatePath), firstNotifier).
		Poll(context.Background())
	require.NoError(t, err)

	// A fresh process over the same files must not alert again.
	restartedNotifier := notifyMocks.NewMockNotifier(t)
	res, err := newTestWatcher(mc, state.NewFileStore(files, testStatePath), restartedNotifier).
		Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoChange, res.Outcome)
}

func TestPoll_ScenarioSequence(t *testing.T) {
	t.Parallel()

	store := state.NewFileStore(fileio.NewMemory(), testStatePath)
	mc := marketMocks.NewMockClient(t)
	mn := notifyMocks.NewMockNotifier(t)

	mc.EXPECT().FetchLatest(mock.Anything).Return(collection(100, "nhl", "NHL"), nil).Times(2)
	mc.EXPECT().FetchLatest(mock.Anything).Return(collection(101, "nba", "NBA"), nil).Once()
	mc.EXPECT().FetchLatest(mock.Anything).
		Return(nil, &marketplace.APIError{Endpoint: "latest", Code: 1}).Once()

	var sent []notify.Message
	mn.EXPECT().Send(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, m notify.Message) error {
			sent = append(sent, m)
			return nil
		}).Times(2)

	w := newTestWatcher(mc, store, mn)
	want := []Outcome{OutcomeNewFound, OutcomeNoChange, OutcomeNewFound, OutcomeFetchFailed}
	for _, o := range want {
		res, _ := w.Poll(context.Background())
		require.NotNil(t, res)
		assert.Equal(t, o, res.Outcome)
	}

	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].Text, "ID: 100")
	assert.Contains(t, sent[1].Text, "ID: 101")
	assert.Equal(t, "https://ortak.example/collections/nba/nfts", sent[1].Link)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(101), got.ID)
}

func TestPoll_OverlapSkip(t *testing.T) {
	t.Parallel()

	store := state.NewFileStore(fileio.NewMemory(), testStatePath)
	mc := marketMocks.NewMockClient(t)
	mn := notifyMocks.NewMockNotifier(t)

	entered := make(chan struct{})
	unblock := make(chan struct{})
	mc.EXPECT().FetchLatest(mock.Anything).
		RunAndReturn(func(context.Context) (*domain.CollectionSummary, error) {
			close(entered)
			<-unblock
			return collection(100, "nhl", "NHL"), nil
		}).Once()
	mn.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Once()

	w := newTestWatcher(mc, store, mn, WithOverlapPolicy(config.OverlapSkip))

	done := make(chan error, 1)
	go func() {
		_, err := w.Poll(context.Background())
		done <- err
	}()
	<-entered

	skippedBefore := ptestutil.ToFloat64(metrics.CyclesSkippedTotal)
	res, err := w.Poll(context.Background())
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrCycleInFlight)
	assert.GreaterOrEqual(t, ptestutil.ToFloat64(metrics.CyclesSkippedTotal)-skippedBefore, 1.0)

	close(unblock)
	require.NoError(t, <-done)
}

func TestPoll_OverlapQueue(t *testing.T) {
	t.Parallel()

	store := state.NewFileStore(fileio.NewMemory(), testStatePath)
	mc := marketMocks.NewMockClient(t)
	mn := notifyMocks.NewMockNotifier(t)

	var inFlight, maxInFlight atomic.Int32
	entered := make(chan struct{}, 2)
	unblock := make(chan struct{})
	mc.EXPECT().FetchLatest(mock.Anything).
		RunAndReturn(func(context.Context) (*domain.CollectionSummary, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			if n > maxInFlight.Load() {
				maxInFlight.Store(n)
			}
			entered <- struct{}{}
			<-unblock
			return collection(100, "nhl", "NHL"), nil
		}).Times(2)
	mn.EXPECT().Send(mock.Anything, mock.Anything).Return(nil).Once()

	w := newTestWatcher(mc, store, mn, WithOverlapPolicy(config.OverlapQueue))

	var wg sync.WaitGroup
	outcomes := make(chan Outcome, 2)
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := w.Poll(context.Background())
			assert.NoError(t, err)
			if res != nil {
				outcomes <- res.Outcome
			}
		}()
	}

	<-entered
	select {
	case <-entered:
		t.Fatal("second cycle started while first was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	close(unblock)
	wg.Wait()
	close(outcomes)

	var got []Outcome
	for o := range outcomes {
		got = append(got, o)
	}
	assert.ElementsMatch(t, []Outcome{OutcomeNewFound, OutcomeNoChange}, got)
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestPoll_QueueHonorsContext(t *testing.T) {
	t.Parallel()

	mc := marketMocks.NewMockClient(t)
	w := newTestWatcher(mc, stateMocks.NewMockStore(t), notifyMocks.NewMockNotifier(t),
		WithOverlapPolicy(config.OverlapQueue))

	// Hold the guard as an in-flight cycle would.
	w.sem <- struct{}{}
	defer w.release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := w.Poll(ctx)
	assert.Nil(t, res)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoll_CycleTimeout(t *testing.T) {
	t.Parallel()

	mc := marketMocks.NewMockClient(t)
	mc.EXPECT().FetchLatest(mock.Anything).
		RunAndReturn(func(ctx context.Context) (*domain.CollectionSummary, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}).Once()

	w := newTestWatcher(mc, stateMocks.NewMockStore(t), notifyMocks.NewMockNotifier(t),
		WithCycleTimeout(10*time.Millisecond))

	res, err := w.Poll(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, OutcomeFetchFailed, res.Outcome)
}

func TestFormatAlert(t *testing.T) {
	t.Parallel()

	msg := FormatAlert("Ortak", testSite, collection(101, "nba", "NBA Legends"))
	assert.Equal(t, "New Collection on Ortak: NBA Legends", msg.Subject)
	assert.Equal(t,
		"🚨 Alert: New Collection on Ortak!\n"+
			"Name: NBA Legends\n"+
			"ID: 101\n"+
			"Link: https://ortak.example/collections/nba/nfts\n"+
			"Homepage: https://ortak.example",
		msg.Text,
	)
	assert.Equal(t, "https://ortak.example/collections/nba/nfts", msg.Link)
}

func TestCollectionLink_EscapesSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://x.example/collections/a%2Fb/nfts", CollectionLink("https://x.example", "a/b"))
}

func TestPoll_AnnouncesCollectionWithoutSlug(t *testing.T) {
	t.Parallel()

	mc := marketMocks.NewMockClient(t)
	mc.EXPECT().FetchLatest(mock.Anything).Return(collection(102, "", "Untitled Drop"), nil).Once()
	mn := notifyMocks.NewMockNotifier(t)
	mn.EXPECT().Send(mock.Anything, mock.MatchedBy(func(m notify.Message) bool {
		return m.Link == testSite+"/collections"
	})).Return(nil).Once()

	store := state.NewFileStore(fileio.NewMemory(), testStatePath)
	res, err := newTestWatcher(mc, store, mn).Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNewFound, res.Outcome)
	assert.True(t, res.Persisted)
}
