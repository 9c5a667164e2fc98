package tlama

import (
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/MrSnakeDoc/tlama/internal/domain"
)

const (
	selectorTitle         = "h1"
	selectorPrice         = "span.price-final-holder"
	selectorDistributor   = "a[data-testid='productCardBrandName'] span"
	selectorParameters    = "div.extended-description table.detail-parameters"
	selectorImage         = "meta[property='og:image']"
	selectorImageFallback = "div.p-image img"

	currencySuffix = "Kč"
)

// Extractor turns a product page into an Item.
type Extractor struct {
	now func() time.Time
}

func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// Extract parses a product page. A page without a title or without the
// parameter table is not a product page and fails with *domain.ParseError.
func (e *Extractor) Extract(markup, itemURL string) (*domain.Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &domain.ParseError{URL: itemURL, Reason: err.Error()}
	}

	title := collapseSpace(doc.Find(selectorTitle).First().Text())
	if title == "" {
		return nil, &domain.ParseError{URL: itemURL, Reason: "product title not found"}
	}

	table := doc.Find(selectorParameters).First()
	if table.Length() == 0 {
		return nil, &domain.ParseError{URL: itemURL, Reason: "parameter table not found"}
	}

	item, err := domain.NewItem(itemURL, e.now())
	if err != nil {
		return nil, err
	}

	item.Name = title
	item.Price = parsePrice(doc.Find(selectorPrice).First().Text())
	item.Distributor = collapseSpace(doc.Find(selectorDistributor).First().Text())
	item.ImageURL = imageURL(doc, itemURL)

	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		th := row.Find("th").First()
		td := row.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return
		}

		label := normalizeLabel(th.Text())
		value := collapseSpace(td.Text())
		if label == "" || value == "" {
			return
		}

		item.Parameters[label] = value
		if set, ok := parameterFields[label]; ok {
			set(item, value)
		}
	})

	return item, nil
}

// parsePrice reads "1 299 Kč" or "1 299,50 Kč" as 1299.
func parsePrice(raw string) *int {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), currencySuffix))
	s, _, _ = strings.Cut(s, ",")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func imageURL(doc *goquery.Document, itemURL string) string {
	src, ok := doc.Find(selectorImage).First().Attr("content")
	if !ok || strings.TrimSpace(src) == "" {
		src, ok = doc.Find(selectorImageFallback).First().Attr("src")
	}
	if !ok || strings.TrimSpace(src) == "" {
		return ""
	}

	base, err := url.Parse(itemURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
