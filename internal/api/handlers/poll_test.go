package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/collection-watcher/internal/api/handlers"
	"github.com/donaldgifford/collection-watcher/internal/marketplace"
	"github.com/donaldgifford/collection-watcher/internal/watcher"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

type mockPoller struct {
	res    *watcher.Result
	err    error
	called int
}

func (m *mockPoller) Poll(_ context.Context) (*watcher.Result, error) {
	m.called++
	return m.res, m.err
}

func TestPollHandler_NewCollection(t *testing.T) {
	t.Parallel()

	p := &mockPoller{res: &watcher.Result{
		CycleID:  "cycle-1",
		Outcome:  watcher.OutcomeNewFound,
		Latest:   &domain.CollectionSummary{ID: 1043, Slug: "neon-cats", Name: "Neon Cats"},
		Previous: &domain.PersistedState{CollectionSummary: domain.CollectionSummary{ID: 1042}},
		Notified: true, Persisted: true,
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  150 * time.Millisecond,
	}}

	_, api := humatest.New(t)
	handlers.RegisterPollRoutes(api, handlers.NewPollHandler(p))

	resp := api.Post("/api/v1/poll")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, p.called)

	body := resp.Body.String()
	assert.Contains(t, body, `"outcome":"new_found"`)
	assert.Contains(t, body, `"slug":"neon-cats"`)
	assert.Contains(t, body, `"previous_id":1042`)
	assert.Contains(t, body, `"notified":true`)
	assert.Contains(t, body, `"duration_ms":150`)
	assert.NotContains(t, body, "notify_error")
}

func TestPollHandler_NotifyFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	p := &mockPoller{res: &watcher.Result{
		CycleID:   "cycle-2",
		Outcome:   watcher.OutcomeNewFound,
		Latest:    &domain.CollectionSummary{ID: 7, Slug: "s", Name: "S"},
		NotifyErr: errors.New("telegram returned 403"),
		Persisted: true,
	}}

	_, api := humatest.New(t)
	handlers.RegisterPollRoutes(api, handlers.NewPollHandler(p))

	resp := api.Post("/api/v1/poll")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"notify_error":"telegram returned 403"`)
	assert.Contains(t, resp.Body.String(), `"previous_id":0`)
}

func TestPollHandler_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"cycle in flight", watcher.ErrCycleInFlight, http.StatusConflict},
		{
			"fetch failed",
			fmt.Errorf("fetching latest collection: %w", marketplace.ErrNoResults),
			http.StatusBadGateway,
		},
		{"persistence failed", errors.New("saving state: disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterPollRoutes(api, handlers.NewPollHandler(&mockPoller{
				res: &watcher.Result{Outcome: watcher.OutcomeFetchFailed},
				err: tt.err,
			}))

			resp := api.Post("/api/v1/poll")
			assert.Equal(t, tt.wantStatus, resp.Code)
		})
	}
}
