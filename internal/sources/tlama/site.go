package tlama

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MrSnakeDoc/tlama/internal/domain"
)

const (
	selectorProducts = "div#products"
	selectorProduct  = "div.product"
)

// Options describes the shop layout.
type Options struct {
	BaseURL       string
	ShopPath      string
	PagePath      string
	PromoSelector string
}

// Site knows the URL layout and markup of the shop.
type Site struct {
	base          *url.URL
	shopPath      string
	pagePath      string
	promoSelector string

	*Extractor
}

func NewSite(opts Options) (*Site, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil || !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}
	base.Path = "/"
	base.RawQuery = ""
	base.Fragment = ""

	shopPath := "/" + strings.Trim(opts.ShopPath, "/") + "/"
	if shopPath == "//" {
		shopPath = "/"
	}

	return &Site{
		base:          base,
		shopPath:      shopPath,
		pagePath:      strings.TrimPrefix(opts.PagePath, "/"),
		promoSelector: opts.PromoSelector,
		Extractor:     NewExtractor(),
	}, nil
}

// HomeURL is the shop landing page.
func (s *Site) HomeURL() string {
	return s.base.String()
}

// PromoSelector is the element that appears once the promo widget has
// rendered.
func (s *Site) PromoSelector() string {
	return s.promoSelector
}

// ListingURL returns the address of a listing page. Page 1 is the plain
// shop path; later pages append the page path segment.
func (s *Site) ListingURL(query string, page int) string {
	path := s.shopPath
	if page > 1 && s.pagePath != "" {
		path += fmt.Sprintf(s.pagePath, page)
	}

	u := *s.base
	u.Path = path
	u.RawQuery = query
	return u.String()
}

// ItemURL canonicalizes a product reference into the item identifier. The
// reference may be absolute or relative to the shop root; query and
// fragment are dropped.
func (s *Site) ItemURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty product reference", domain.ErrInvalidItem)
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidItem, err)
	}

	u := s.base.ResolveReference(parsed)
	if !strings.EqualFold(u.Host, s.base.Host) {
		return "", fmt.Errorf("%w: %s is not a %s product", domain.ErrInvalidItem, ref, s.base.Host)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// ListingLinks returns the product identifiers on a listing page in page
// order. A missing product container fails with *domain.ParseError; a
// container without products returns an empty list.
func (s *Site) ListingLinks(markup, pageURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, &domain.ParseError{URL: pageURL, Reason: err.Error()}
	}

	container := doc.Find(selectorProducts).First()
	if container.Length() == 0 {
		return nil, &domain.ParseError{URL: pageURL, Reason: "product listing not found"}
	}

	links := []string{}
	seen := map[string]struct{}{}
	container.Find(selectorProduct).Each(func(_ int, product *goquery.Selection) {
		href, ok := product.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		id, err := s.ItemURL(href)
		if err != nil {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		links = append(links, id)
	})

	return links, nil
}

// PromoLink returns the product identifier advertised in the rendered
// promo widget.
func (s *Site) PromoLink(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", &domain.ParseError{URL: s.HomeURL(), Reason: err.Error()}
	}

	href, ok := doc.Find(s.promoSelector).Find("a[href]").First().Attr("href")
	if !ok {
		return "", &domain.ParseError{URL: s.HomeURL(), Reason: "promo link not found"}
	}

	return s.ItemURL(href)
}
