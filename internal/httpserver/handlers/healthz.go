package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tlama/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status string    `json:"status"`
	Uptime string    `json:"uptime"`
	Store  string    `json:"store,omitempty"`
	Build  buildInfo `json:"build"`
}

// Healthz is the liveness probe. It never touches the store.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}
	var storeKind string
	if d.Store != nil {
		storeKind = d.Store.Kind()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status: "ok",
			Uptime: time.Since(d.StartTime).Round(time.Second).String(),
			Store:  storeKind,
			Build:  build,
		})
	}
}
