package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tlama/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tlama/internal/httpserver/mw"
	"github.com/MrSnakeDoc/tlama/internal/logger"
)

// Registrar mounts one group of routes.
type Registrar func(r chi.Router, d deps.Deps)

type group struct {
	name    string
	reg     Registrar
	guarded bool
}

var groups []group

// Register adds a public route group.
func Register(name string, reg Registrar) {
	groups = append(groups, group{name: name, reg: reg})
}

// RegisterGuarded adds a route group only reachable from the allowed CIDRs.
func RegisterGuarded(name string, reg Registrar) {
	groups = append(groups, group{name: name, reg: reg, guarded: true})
}

// RegisterAll mounts every group on r. Called once from NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	guard := mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)

	for _, g := range groups {
		target := r
		if g.guarded {
			target = r.With(guard)
		}
		g.reg(target, d)
		d.Logger.Debug("routes mounted",
			logger.String("group", g.name),
			logger.Bool("guarded", g.guarded))
	}
}
