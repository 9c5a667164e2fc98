package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/logger"
)

// Options configures the shop client.
type Options struct {
	Timeout         time.Duration
	RequestInterval time.Duration // minimum spacing between two requests
	UserAgent       string

	BrowserBin      string // empty lets rod locate or download a browser
	BrowserHeadless bool
}

// Client fetches pages from the shop. Plain pages go through resty; pages
// that need JavaScript go through a headless browser started on first use.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	opts    Options
	log     logger.Logger

	mu      sync.Mutex
	browser *browser
}

func New(opts Options, log logger.Logger) *Client {
	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}

	rc := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetHeader("Accept-Language", "cs,en;q=0.8")
	if opts.UserAgent != "" {
		rc.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{
		http:    rc,
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		log:     log,
	}
}

// FetchText GETs a page and returns its body. Network failures, timeouts
// and non-2xx statuses fail with *domain.FetchError.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	start := time.Now()
	res, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	c.log.Debug("fetched page",
		logger.String("url", url),
		logger.Int("status", res.StatusCode()),
		logger.Duration("took", time.Since(start)))

	if !res.IsSuccess() {
		return "", &domain.FetchError{URL: url, StatusCode: res.StatusCode()}
	}
	return res.String(), nil
}

// FetchRendered loads a page in the browser, waits until waitSelector is
// present (when set) and returns the rendered HTML.
func (c *Client) FetchRendered(ctx context.Context, url, waitSelector string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	b, err := c.ensureBrowser()
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}

	html, err := b.render(ctx, url, waitSelector)
	if err != nil {
		return "", &domain.FetchError{URL: url, Err: err}
	}
	return html, nil
}

// Close shuts the browser down if it was started.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser == nil {
		return nil
	}
	err := c.browser.close()
	c.browser = nil
	return err
}

func (c *Client) ensureBrowser() (*browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		return c.browser, nil
	}

	b, err := launchBrowser(c.opts, c.log)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	c.browser = b
	return b, nil
}
