package pipeline

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/tlama/internal/domain"
)

// ErrFirstPageFailed marks a crawl whose very first listing page could not
// be fetched. Failures on later pages only end pagination.
var ErrFirstPageFailed = errors.New("first listing page failed")

// Store is the persistent item cache. Implementations must keep at most one
// record per URL.
type Store interface {
	Exists(ctx context.Context, url string) (bool, error)
	Get(ctx context.Context, url string) (*domain.Record, error)
	Put(ctx context.Context, rec domain.Record) error
	SetFlag(ctx context.Context, url string, flag domain.Flag, value bool) error
	All(ctx context.Context) ([]domain.Record, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Kind() string
}

// Fetcher retrieves shop pages. Failures are *domain.FetchError.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
	FetchRendered(ctx context.Context, url, waitSelector string) (string, error)
}

// Site knows the shop's URL layout and how to read its pages.
type Site interface {
	ListingURL(query string, page int) string
	ItemURL(ref string) (string, error)
	HomeURL() string
	PromoSelector() string

	ListingLinks(markup, pageURL string) ([]string, error)
	PromoLink(markup string) (string, error)
	Extract(markup, itemURL string) (*domain.Item, error)
}
