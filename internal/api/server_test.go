package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/collection-watcher/internal/api"
	"github.com/donaldgifford/collection-watcher/internal/config"
	"github.com/donaldgifford/collection-watcher/internal/state/mocks"
	"github.com/donaldgifford/collection-watcher/internal/watcher"
	"github.com/donaldgifford/collection-watcher/pkg/logger"
)

type stubPoller struct{}

func (stubPoller) Poll(_ context.Context) (*watcher.Result, error) {
	return nil, watcher.ErrCycleInFlight
}

func newTestServer(t *testing.T) (*api.Server, *mocks.MockStore) {
	t.Helper()

	st := mocks.NewMockStore(t)
	srv := api.NewServer(
		&config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		logger.Discard(),
		"test",
		api.Deps{Store: st, Poller: stubPoller{}},
	)
	return srv, st
}

func TestServer_Routes(t *testing.T) {
	t.Parallel()

	srv, st := newTestServer(t)
	st.EXPECT().Ping(mock.Anything).Return(nil)
	st.EXPECT().Load(mock.Anything).Return(nil, nil)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/openapi.json", http.StatusOK},
		{http.MethodGet, "/api/v1/state", http.StatusNotFound},
		{http.MethodPost, "/api/v1/poll", http.StatusConflict},
		{http.MethodPost, "/api/v1/aggregate", http.StatusNotFound},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, tt.wantStatus, rec.Code, "%s %s", tt.method, tt.path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), "%s %s", tt.method, tt.path)
	}
}

func TestServer_OpenAPIAndAddr(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	assert.Equal(t, "127.0.0.1:8080", srv.Addr())

	doc := srv.OpenAPI()
	require.NotNil(t, doc)
	assert.Equal(t, "Collection Watcher API", doc.Info.Title)
	assert.Contains(t, doc.Paths, "/api/v1/poll")
	assert.Contains(t, doc.Paths, "/api/v1/state")
	assert.NotContains(t, doc.Paths, "/api/v1/aggregate")
}
