package deps

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/logger"
	"github.com/MrSnakeDoc/tlama/internal/scheduler"
)

// Items is the cached catalog as seen by the HTTP surface.
type Items interface {
	LoadAll(ctx context.Context) ([]*domain.Item, error)
	Search(ctx context.Context, query string) ([]*domain.Item, error)
	Load(ctx context.Context, url string) (*domain.Item, error)
	SetFlag(ctx context.Context, url, flag string, value bool) (*domain.Item, error)
	Count(ctx context.Context) (int, error)
}

// ItemURLs canonicalises product references (absolute or shop-relative)
// into item identifiers.
type ItemURLs interface {
	ItemURL(ref string) (string, error)
}

// Store reports backend health.
type Store interface {
	Ping(ctx context.Context) error
	Kind() string
}

// RescoreStatus reports the last rescoring pass.
type RescoreStatus interface {
	Status() scheduler.RescoreStatus
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	AllowedCIDRS   []string            // IPs allowed to reach probes and mutating endpoints
	TrustProxy     bool                // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Items          Items               // Reconciled item cache
	ItemURLs       ItemURLs            // nil => request URLs are used as given
	Store          Store               // Backing store, for probes
	Rescorer       RescoreStatus       // nil when periodic rescoring is off
	RescoreTrigger chan struct{}       // Channel to trigger a manual rescore
	Gatherer       prometheus.Gatherer // Metrics exposed on /metrics
}
