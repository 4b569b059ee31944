package handlers_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/collection-watcher/internal/api/handlers"
	"github.com/donaldgifford/collection-watcher/internal/state/mocks"
	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

func TestGetState(t *testing.T) {
	t.Parallel()

	detected := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		state      *domain.PersistedState
		err        error
		wantStatus int
		wantBody   []string
	}{
		{
			name: "recorded collection",
			state: &domain.PersistedState{
				CollectionSummary: domain.CollectionSummary{ID: 1043, Slug: "neon-cats", Name: "Neon Cats"},
				DetectedAt:        detected,
			},
			wantStatus: http.StatusOK,
			wantBody: []string{
				`"id":1043`,
				`"slug":"neon-cats"`,
				`"detected_at":"2026-03-01T12:00:00Z"`,
			},
		},
		{
			name:       "nothing recorded",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "backend error",
			err:        errors.New("read failed"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := mocks.NewMockStore(t)
			st.EXPECT().Load(mock.Anything).Return(tt.state, tt.err)

			_, api := humatest.New(t)
			handlers.RegisterStateRoutes(api, handlers.NewStateHandler(st))

			resp := api.Get("/api/v1/state")
			require.Equal(t, tt.wantStatus, resp.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, resp.Body.String(), want)
			}
		})
	}
}
