package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/logger"
	"github.com/MrSnakeDoc/tlama/internal/metrics"
)

// DefaultMaxPages bounds pagination when no limit is configured.
const DefaultMaxPages = 50

// Crawler drives listing pagination and per-item reconciliation. All work
// is sequential: one request in flight, one cache write at a time.
type Crawler struct {
	fetcher    Fetcher
	site       Site
	queries    *domain.QueryBuilder
	reconciler *Reconciler
	maxPages   int
	log        logger.Logger
	metrics    *metrics.Metrics
}

type CrawlerOptions struct {
	MaxPages int
}

func NewCrawler(
	fetcher Fetcher,
	site Site,
	queries *domain.QueryBuilder,
	reconciler *Reconciler,
	opts CrawlerOptions,
	log logger.Logger,
	m *metrics.Metrics,
) *Crawler {
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	return &Crawler{
		fetcher:    fetcher,
		site:       site,
		queries:    queries,
		reconciler: reconciler,
		maxPages:   maxPages,
		log:        log,
		metrics:    m,
	}
}

// Search builds the query for filters and crawls it. Unknown filters fail
// with *domain.ConfigurationError before any request is made.
func (c *Crawler) Search(ctx context.Context, filters []string, observe Observer) ([]*domain.Item, error) {
	query, err := c.queries.Build(filters)
	if err != nil {
		return nil, err
	}
	return c.Crawl(ctx, query, observe)
}

// Crawl pages through the listing for query, then reconciles every
// discovered item in discovery order. The result holds every item that
// reconciled successfully, ranked by score.
//
// Only a failure to fetch the first listing page is returned as an error.
// Item failures are logged, reported to observe and skipped. When ctx is
// cancelled the items reconciled so far are returned with ctx.Err().
func (c *Crawler) Crawl(ctx context.Context, query string, observe Observer) ([]*domain.Item, error) {
	runID := uuid.NewString()
	log := c.log.With(logger.String("run_id", runID))
	start := time.Now()

	log.Info("crawl started", logger.String("query", query))

	links, err := c.collectLinks(ctx, runID, query, log, observe)
	if err != nil {
		return nil, err
	}

	items, err := c.reconcileAll(ctx, runID, links, log, observe)

	took := time.Since(start)
	c.metrics.CrawlFinished(took)
	log.Info("crawl finished",
		logger.Int("discovered", len(links)),
		logger.Int("reconciled", len(items)),
		logger.Duration("took", took))

	return items, err
}

// Game reconciles a single product given by URL or shop-relative path.
func (c *Crawler) Game(ctx context.Context, ref string) (*domain.Item, error) {
	url, err := c.site.ItemURL(ref)
	if err != nil {
		return nil, err
	}
	return c.reconciler.Reconcile(ctx, url, c.fetchItem)
}

// Promo reconciles the product advertised on the shop's landing page. The
// promo widget is rendered client-side, so the page is loaded in a browser.
func (c *Crawler) Promo(ctx context.Context) (*domain.Item, error) {
	markup, err := c.fetcher.FetchRendered(ctx, c.site.HomeURL(), c.site.PromoSelector())
	if err != nil {
		return nil, err
	}

	url, err := c.site.PromoLink(markup)
	if err != nil {
		return nil, err
	}

	c.log.Debug("promo item found", logger.String("url", url))
	return c.reconciler.Reconcile(ctx, url, c.fetchItem)
}

func (c *Crawler) collectLinks(ctx context.Context, runID, query string, log logger.Logger, observe Observer) ([]string, error) {
	var links []string
	seen := make(map[string]struct{})

	page := 1
	for ; page <= c.maxPages; page++ {
		pageURL := c.site.ListingURL(query, page)

		markup, err := c.fetcher.FetchText(ctx, pageURL)
		if err != nil {
			if page == 1 {
				c.metrics.ListingPage("failed")
				return nil, fmt.Errorf("%w: %w", ErrFirstPageFailed, err)
			}
			c.metrics.ListingPage("end")
			log.Warn("listing fetch failed, paging stopped",
				logger.Int("page", page),
				logger.Error(err))
			break
		}

		pageLinks, err := c.site.ListingLinks(markup, pageURL)
		if err != nil || len(pageLinks) == 0 {
			c.metrics.ListingPage("end")
			log.Debug("listing exhausted", logger.Int("page", page))
			break
		}
		c.metrics.ListingPage("ok")

		fresh := 0
		for _, link := range pageLinks {
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
			fresh++
		}

		observe.emit(Event{
			RunID:   runID,
			Stage:   StagePages,
			Current: page,
			Total:   len(links),
			Message: fmt.Sprintf("Page %d: %d games", page, fresh),
		})
	}

	if page > c.maxPages {
		log.Warn("page limit reached", logger.Int("max_pages", c.maxPages))
	}

	observe.emit(Event{
		RunID:   runID,
		Stage:   StagePagesComplete,
		Current: len(links),
		Total:   len(links),
		Message: fmt.Sprintf("Found %d games", len(links)),
	})

	return links, nil
}

func (c *Crawler) reconcileAll(ctx context.Context, runID string, links []string, log logger.Logger, observe Observer) ([]*domain.Item, error) {
	items := make([]*domain.Item, 0, len(links))

	for i, link := range links {
		if err := ctx.Err(); err != nil {
			domain.Rank(items)
			return items, err
		}

		var msg string
		item, err := c.reconciler.Reconcile(ctx, link, c.fetchItem)
		if err != nil {
			c.metrics.Item(metrics.OutcomeSkipped)
			log.Warn("item skipped",
				logger.String("url", link),
				logger.String("reason", skipReason(err)),
				logger.Error(err))
			msg = fmt.Sprintf("Skipped %s", link)
		} else {
			items = append(items, item)
			msg = fmt.Sprintf("%s (%d)", item.Name, item.Score)
		}

		observe.emit(Event{
			RunID:   runID,
			Stage:   StageItems,
			Current: i + 1,
			Total:   len(links),
			Message: msg,
		})
	}

	domain.Rank(items)
	return items, nil
}

func (c *Crawler) fetchItem(ctx context.Context, url string) (*domain.Item, error) {
	markup, err := c.fetcher.FetchText(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.site.Extract(markup, url)
}

func skipReason(err error) string {
	var (
		fetchErr *domain.FetchError
		parseErr *domain.ParseError
	)
	switch {
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &parseErr):
		return "parse"
	default:
		return "store"
	}
}
