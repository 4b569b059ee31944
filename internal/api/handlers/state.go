package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/collection-watcher/pkg/types"
)

// StateLoader reads the recorded last-seen collection.
type StateLoader interface {
	Load(ctx context.Context) (*domain.PersistedState, error)
}

// StateHandler serves the recorded watcher state.
type StateHandler struct {
	loader StateLoader
}

// NewStateHandler creates a new StateHandler.
func NewStateHandler(l StateLoader) *StateHandler {
	return &StateHandler{loader: l}
}

// StateOutput is the response body for the state endpoint.
type StateOutput struct {
	Body struct {
		CollectionBody
		DetectedAt time.Time `json:"detected_at" doc:"When the collection was first detected"`
	}
}

// GetState returns the last-seen collection.
func (h *StateHandler) GetState(ctx context.Context, _ *struct{}) (*StateOutput, error) {
	st, err := h.loader.Load(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("loading state: " + err.Error())
	}
	if st == nil {
		return nil, huma.Error404NotFound("no collection has been recorded yet")
	}

	resp := &StateOutput{}
	resp.Body.CollectionBody = CollectionBody{ID: st.ID, Slug: st.Slug, Name: st.Name}
	resp.Body.DetectedAt = st.DetectedAt
	return resp, nil
}

// RegisterStateRoutes registers the state endpoint with the Huma API.
func RegisterStateRoutes(api huma.API, h *StateHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-state",
		Method:      http.MethodGet,
		Path:        "/api/v1/state",
		Summary:     "Get watcher state",
		Description: "Returns the last-seen collection as recorded by the state backend.",
		Tags:        []string{"watcher"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.GetState)
}
