package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/collection-watcher/internal/marketplace"
	"github.com/donaldgifford/collection-watcher/internal/watcher"
)

// Poller defines the interface for running one detection cycle.
type Poller interface {
	Poll(ctx context.Context) (*watcher.Result, error)
}

// PollHandler handles manual poll trigger requests.
type PollHandler struct {
	poller Poller
}

// NewPollHandler creates a new PollHandler.
func NewPollHandler(p Poller) *PollHandler {
	return &PollHandler{poller: p}
}

// CollectionBody is the wire form of a collection summary.
type CollectionBody struct {
	ID   int64  `json:"id"   example:"1043"      doc:"Collection ID"`
	Slug string `json:"slug" example:"neon-cats" doc:"URL slug"`
	Name string `json:"name" example:"Neon Cats" doc:"Display name"`
}

// PollOutput is the response body for the poll endpoint.
type PollOutput struct {
	Body struct {
		CycleID     string          `json:"cycle_id"               doc:"Unique ID of the cycle"`
		Outcome     string          `json:"outcome"                doc:"Cycle outcome" enum:"no_change,new_found"`
		Latest      *CollectionBody `json:"latest,omitempty"       doc:"Newest collection reported by the marketplace"`
		PreviousID  int64           `json:"previous_id"            doc:"Collection ID recorded before the cycle, 0 if none"`
		Notified    bool            `json:"notified"               doc:"Whether the alert was delivered"`
		NotifyError string          `json:"notify_error,omitempty" doc:"Delivery failure, if any"`
		Persisted   bool            `json:"persisted"              doc:"Whether the new state was saved"`
		StartedAt   time.Time       `json:"started_at"             doc:"Cycle start time"`
		DurationMS  int64           `json:"duration_ms"            doc:"Cycle duration in milliseconds"`
	}
}

// Poll runs one detection cycle immediately.
func (h *PollHandler) Poll(ctx context.Context, _ *struct{}) (*PollOutput, error) {
	res, err := h.poller.Poll(ctx)
	switch {
	case errors.Is(err, watcher.ErrCycleInFlight):
		return nil, huma.Error409Conflict("a poll cycle is already in flight")
	case errors.Is(err, marketplace.ErrFetchFailed):
		return nil, huma.Error502BadGateway("fetching latest collection failed: " + err.Error())
	case err != nil:
		return nil, huma.Error500InternalServerError("poll failed: " + err.Error())
	}

	resp := &PollOutput{}
	resp.Body.CycleID = res.CycleID
	resp.Body.Outcome = string(res.Outcome)
	if res.Latest != nil {
		resp.Body.Latest = &CollectionBody{ID: res.Latest.ID, Slug: res.Latest.Slug, Name: res.Latest.Name}
	}
	resp.Body.PreviousID = res.Previous.LastSeenID()
	resp.Body.Notified = res.Notified
	if res.NotifyErr != nil {
		resp.Body.NotifyError = res.NotifyErr.Error()
	}
	resp.Body.Persisted = res.Persisted
	resp.Body.StartedAt = res.StartedAt
	resp.Body.DurationMS = res.Duration.Milliseconds()
	return resp, nil
}

// RegisterPollRoutes registers the poll endpoint with the Huma API.
func RegisterPollRoutes(api huma.API, h *PollHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-poll",
		Method:      http.MethodPost,
		Path:        "/api/v1/poll",
		Summary:     "Trigger a poll cycle",
		Description: "Fetches the newest collection, compares it with the recorded one, " +
			"and on a new collection sends the alert and saves the new state.",
		Tags: []string{"watcher"},
		Errors: []int{
			http.StatusConflict,
			http.StatusInternalServerError,
			http.StatusBadGateway,
		},
	}, h.Poll)
}
