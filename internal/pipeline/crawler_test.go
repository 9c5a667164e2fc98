package pipeline

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tlama/internal/domain"
)

func TestCrawlTwoPagesThenEmpty(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	page1 := slugs("a", 20)
	page2 := slugs("b", 5)
	all := append(slices.Clone(page1), page2...)

	f.fetcher.pages[f.listingURL(t, nil, 1)] = listingPage(page1...)
	f.fetcher.pages[f.listingURL(t, nil, 2)] = listingPage(page2...)
	f.fetcher.pages[f.listingURL(t, nil, 3)] = listingPage()
	for i, s := range all {
		// Prices from 300 to 2220 spread items over every price band,
		// leaving plenty of ties.
		f.fetcher.pages[productURL(s)] = productPage(s, 300+i*80)
	}

	var events []Event
	items, err := f.crawler.Search(ctx, nil, func(e Event) { events = append(events, e) })
	require.NoError(t, err)

	assert.Equal(t, 1, f.fetcher.callsWithPrefix(baseURL+"/deskove-hry/?"), "page 1")
	assert.Equal(t, 2, f.fetcher.callsWithPrefix(baseURL+"/deskove-hry/strana-"), "pages 2 and 3")
	assert.Equal(t, 25, f.fetcher.callsWithPrefix(baseURL+"/deskove-hry/a-")+f.fetcher.callsWithPrefix(baseURL+"/deskove-hry/b-"))

	require.Len(t, items, 25)
	assert.True(t, slices.IsSortedFunc(items, func(a, b *domain.Item) int { return b.Score - a.Score }))

	// Ties keep discovery order.
	discovery := map[string]int{}
	for i, s := range all {
		discovery[productURL(s)] = i
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].Score == items[i].Score {
			assert.Less(t, discovery[items[i-1].URL], discovery[items[i].URL])
		}
	}

	var itemEvents []Event
	for _, e := range events {
		if e.Stage == StageItems {
			itemEvents = append(itemEvents, e)
		}
	}
	require.Len(t, itemEvents, 25)
	for i, e := range itemEvents {
		assert.Equal(t, i+1, e.Current)
		assert.Equal(t, 25, e.Total)
		assert.NotEmpty(t, e.RunID)
	}
	assert.Equal(t, StagePagesComplete, events[2].Stage)
	assert.Equal(t, 25, events[2].Total)

	n, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}

func TestCrawlSkipsBrokenItems(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	f.fetcher.pages[f.listingURL(t, nil, 1)] = listingPage("ok", "no-table", "gone", "ok-2")
	f.fetcher.pages[productURL("ok")] = productPage("OK", 400)
	f.fetcher.pages[productURL("ok-2")] = productPage("OK 2", 1500)
	f.fetcher.pages[productURL("no-table")] = `<html><body><h1>Bez tabulky</h1></body></html>`
	f.fetcher.failures[productURL("gone")] = &domain.FetchError{URL: productURL("gone"), StatusCode: 500}

	var itemEvents int
	items, err := f.crawler.Search(ctx, nil, func(e Event) {
		if e.Stage == StageItems {
			itemEvents++
		}
	})
	require.NoError(t, err)

	assert.Equal(t, 4, itemEvents, "one event per attempted item")
	require.Len(t, items, 2)
	assert.Equal(t, "OK", items[0].Name)
	assert.Equal(t, "OK 2", items[1].Name)

	for _, s := range []string{"no-table", "gone"} {
		ok, err := f.store.Exists(ctx, productURL(s))
		require.NoError(t, err)
		assert.False(t, ok, "%s must not be cached", s)
	}
}

func TestCrawlFirstPageFailure(t *testing.T) {
	f := newFixture(t, 0)
	first := f.listingURL(t, nil, 1)
	f.fetcher.failures[first] = &domain.FetchError{URL: first, StatusCode: 503}

	var events []Event
	items, err := f.crawler.Search(context.Background(), nil, func(e Event) { events = append(events, e) })

	assert.Nil(t, items)
	assert.ErrorIs(t, err, ErrFirstPageFailed)
	var fe *domain.FetchError
	assert.ErrorAs(t, err, &fe)
	assert.Empty(t, events)
}

func TestCrawlFirstPageWithoutListing(t *testing.T) {
	f := newFixture(t, 0)
	f.fetcher.pages[f.listingURL(t, nil, 1)] = `<html><body><p>Nic nenalezeno</p></body></html>`

	items, err := f.crawler.Search(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, len(f.fetcher.calls))
}

func TestCrawlLaterPageFailureEndsPaging(t *testing.T) {
	f := newFixture(t, 0)
	f.fetcher.pages[f.listingURL(t, nil, 1)] = listingPage("a")
	second := f.listingURL(t, nil, 2)
	f.fetcher.failures[second] = &domain.FetchError{URL: second, StatusCode: 503}
	f.fetcher.pages[productURL("a")] = productPage("A", 700)

	items, err := f.crawler.Search(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, f.fetcher.callsWithPrefix(f.listingURL(t, nil, 3)))
}

func TestCrawlStopsAtPageLimit(t *testing.T) {
	f := newFixture(t, 2)
	for page := 1; page <= 5; page++ {
		f.fetcher.pages[f.listingURL(t, nil, page)] = listingPage(slugs(string(rune('a'+page)), 2)...)
	}

	_, err := f.crawler.Search(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, f.fetcher.callsWithPrefix(f.listingURL(t, nil, 3)))
	assert.Equal(t, 1, f.fetcher.callsWithPrefix(f.listingURL(t, nil, 2)))
}

func TestCrawlDeduplicatesAcrossPages(t *testing.T) {
	f := newFixture(t, 0)
	f.fetcher.pages[f.listingURL(t, nil, 1)] = listingPage("a", "b")
	f.fetcher.pages[f.listingURL(t, nil, 2)] = listingPage("b", "c")
	for _, s := range []string{"a", "b", "c"} {
		f.fetcher.pages[productURL(s)] = productPage(s, 700)
	}

	items, err := f.crawler.Search(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, 1, f.fetcher.callsWithPrefix(productURL("b")))
}

func TestSearchUnknownFilterMakesNoRequest(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.crawler.Search(context.Background(), []string{"discounted", "category:nope"}, nil)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "category:nope", cfgErr.Token)
	assert.Empty(t, f.fetcher.calls)
}

func TestSearchUsesFilters(t *testing.T) {
	f := newFixture(t, 0)
	filters := []string{"discounted", "category:card_game"}
	f.fetcher.pages[f.listingURL(t, filters, 1)] = listingPage()

	_, err := f.crawler.Search(context.Background(), filters, nil)
	require.NoError(t, err)
	require.Len(t, f.fetcher.calls, 1)
	assert.Equal(t, baseURL+"/deskove-hry/?stock=1&pv117=2127&dd=1&pv264=13707", f.fetcher.calls[0])
}

func TestCrawlCancelled(t *testing.T) {
	f := newFixture(t, 0)
	f.fetcher.pages[f.listingURL(t, nil, 1)] = listingPage("a", "b")
	f.fetcher.pages[productURL("a")] = productPage("A", 700)
	f.fetcher.pages[productURL("b")] = productPage("B", 700)

	ctx, cancel := context.WithCancel(context.Background())
	items, err := f.crawler.Search(ctx, nil, func(e Event) {
		if e.Stage == StageItems {
			cancel()
		}
	})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, items, 1)
}

func TestGame(t *testing.T) {
	f := newFixture(t, 0)
	f.fetcher.pages[productURL("hra")] = productPage("Hra", 450)

	item, err := f.crawler.Game(context.Background(), "deskove-hry/hra/?ref=x")
	require.NoError(t, err)
	assert.Equal(t, productURL("hra"), item.URL)
	assert.Equal(t, 450, *item.Price)
	assert.Equal(t, domain.ScorePriceBudget, item.Score)

	_, err = f.crawler.Game(context.Background(), "https://elsewhere.example/hra/")
	assert.ErrorIs(t, err, domain.ErrInvalidItem)
}

func TestPromo(t *testing.T) {
	f := newFixture(t, 0)
	f.fetcher.rendered[f.site.HomeURL()] = `<html><body><div id="fvStudio-component-topproduct"><a href="/deskove-hry/promo/">Promo</a></div></body></html>`
	f.fetcher.pages[productURL("promo")] = productPage("Promo", 990)

	item, err := f.crawler.Promo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Promo", item.Name)
	assert.Equal(t, 1, f.fetcher.callsWithPrefix("rendered:"))
}

func TestPromoWidgetMissing(t *testing.T) {
	f := newFixture(t, 0)
	f.fetcher.rendered[f.site.HomeURL()] = `<html><body></body></html>`

	_, err := f.crawler.Promo(context.Background())
	var parseErr *domain.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
