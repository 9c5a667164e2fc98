package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tlama/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool   `json:"ok"`
	Kind        string `json:"kind,omitempty"`
	ItemsCached *int   `json:"items_cached,omitempty"`
	LastRun     string `json:"last_run,omitempty"`
	Corrected   *int   `json:"corrected,omitempty"`
	Error       string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"store":    checkStore(ctx, d),
			"rescorer": rescorerStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func overallStatus(components map[string]componentStatus) string {
	if store, ok := components["store"]; ok && !store.OK {
		return "critical"
	}
	if rescorer, ok := components["rescorer"]; ok && !rescorer.OK {
		return "degraded"
	}
	return "ok"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	status := componentStatus{Kind: d.Store.Kind()}

	if err := d.Store.Ping(ctx); err != nil {
		status.Error = "unreachable"
		return status
	}

	count, err := d.Items.Count(ctx)
	if err != nil {
		status.Error = "count failed"
		return status
	}

	status.OK = true
	status.ItemsCached = &count
	return status
}

func rescorerStatus(d deps.Deps) componentStatus {
	if d.Rescorer == nil {
		return componentStatus{OK: true, LastRun: "disabled"}
	}

	s := d.Rescorer.Status()
	if s.LastRun.IsZero() {
		return componentStatus{OK: true, LastRun: "never"}
	}

	corrected := s.Corrected
	return componentStatus{
		OK:        s.Error == "",
		LastRun:   s.LastRun.Format(time.RFC3339),
		Corrected: &corrected,
		Error:     s.Error,
	}
}
