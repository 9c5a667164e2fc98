package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/tlama/internal/logger"
)

// AllowOnlyCIDRS rejects clients outside allowed with 403. An empty list
// disables the check. Set trustProxy when tlama sits behind a reverse proxy
// that sets the client address headers.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := newIPMatcher(allowed)
	if m.isEmpty() {
		log.Debug("cidr guard disabled, no rules configured")
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debug("cidr guard enabled",
		logger.Int("rules", len(allowed)),
		logger.Bool("trust_proxy", trustProxy))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustProxy)
			if m.allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			log.Warn("request rejected by cidr guard",
				logger.String("ip", ip),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})
	}
}
