package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tlama/internal/domain"
	"github.com/MrSnakeDoc/tlama/internal/index"
	"github.com/MrSnakeDoc/tlama/internal/logger"
	"github.com/MrSnakeDoc/tlama/internal/preferences"
	"github.com/MrSnakeDoc/tlama/internal/sources/tlama"
)

const baseURL = "https://www.tlamagames.com"

// fakeFetcher serves canned pages and records every request.
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	rendered map[string]string
	failures map[string]error
	calls    []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:    map[string]string{},
		rendered: map[string]string{},
		failures: map[string]error{},
	}
}

func (f *fakeFetcher) FetchText(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, url)
	if err, ok := f.failures[url]; ok {
		return "", err
	}
	if body, ok := f.pages[url]; ok {
		return body, nil
	}
	return "", &domain.FetchError{URL: url, StatusCode: 404}
}

func (f *fakeFetcher) FetchRendered(_ context.Context, url, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, "rendered:"+url)
	if body, ok := f.rendered[url]; ok {
		return body, nil
	}
	return "", &domain.FetchError{URL: url, StatusCode: 404}
}

func (f *fakeFetcher) callsWithPrefix(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type fixture struct {
	fetcher    *fakeFetcher
	store      *index.MemoryIndex
	site       *tlama.Site
	settings   *preferences.Settings
	reconciler *Reconciler
	crawler    *Crawler
}

func newFixture(t *testing.T, maxPages int) *fixture {
	t.Helper()

	settings, err := preferences.Load("")
	require.NoError(t, err)

	site, err := tlama.NewSite(tlama.Options{
		BaseURL:       baseURL,
		ShopPath:      settings.Catalog.ShopPath,
		PagePath:      settings.Catalog.PagePath,
		PromoSelector: settings.Catalog.PromoSelector,
	})
	require.NoError(t, err)

	f := &fixture{
		fetcher:  newFakeFetcher(),
		store:    index.NewMemoryIndex(),
		site:     site,
		settings: settings,
	}
	f.reconciler = NewReconciler(f.store, domain.NewScorer(settings.Preferences), logger.NewNop(), nil)
	f.crawler = NewCrawler(
		f.fetcher,
		site,
		domain.NewQueryBuilder(settings.Vocabulary),
		f.reconciler,
		CrawlerOptions{MaxPages: maxPages},
		logger.NewNop(),
		nil,
	)
	return f
}

func (f *fixture) listingURL(t *testing.T, filters []string, page int) string {
	t.Helper()
	query, err := domain.NewQueryBuilder(f.settings.Vocabulary).Build(filters)
	require.NoError(t, err)
	return f.site.ListingURL(query, page)
}

func productURL(slug string) string {
	return baseURL + "/deskove-hry/" + slug + "/"
}

func listingPage(slugs ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="products">`)
	for _, s := range slugs {
		fmt.Fprintf(&b, `<div class="product"><a href="/deskove-hry/%s/">%s</a></div>`, s, s)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

type row struct{ label, value string }

func productPage(name string, price int, rows ...row) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<html><body><h1>%s</h1>`, name)
	fmt.Fprintf(&b, `<span class="price-final-holder">%d Kč</span>`, price)
	b.WriteString(`<div class="extended-description"><table class="detail-parameters">`)
	for _, r := range rows {
		fmt.Fprintf(&b, `<tr><th>%s:</th><td>%s</td></tr>`, r.label, r.value)
	}
	b.WriteString(`</table></div></body></html>`)
	return b.String()
}

func slugs(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%02d", prefix, i)
	}
	return out
}
