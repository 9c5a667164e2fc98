package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tlama/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tlama/internal/logger"
)

type rescoreResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Rescore triggers a manual rescoring pass of the cache.
func Rescore(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.RescoreTrigger <- struct{}{}:
			d.Logger.Info("manual rescore triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, rescoreResponse{Triggered: true, Message: "rescore triggered"})
		default:
			d.Logger.Warn("rescore already pending",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, rescoreResponse{Message: "rescore already pending"})
		}
	}
}
