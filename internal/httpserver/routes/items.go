package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tlama/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tlama/internal/httpserver/handlers"
)

func init() {
	Register("items", func(r chi.Router, d deps.Deps) {
		r.Get("/api/items", handlers.Items(d))
		r.Get("/api/items/lookup", handlers.ItemLookup(d))
	})
	RegisterGuarded("items-admin", func(r chi.Router, d deps.Deps) {
		r.Post("/api/items/flag", handlers.Flag(d))
		r.Post("/api/rescore", handlers.Rescore(d))
	})
}
