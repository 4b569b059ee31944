// Package handlers implements HTTP handlers for the collection-watcher API.
package handlers

// StatusResponse is the body of the health and readiness probes.
type StatusResponse struct {
	Status string `json:"status" example:"ready"`
	Detail string `json:"detail,omitempty" example:"state backend unreachable"`
}
