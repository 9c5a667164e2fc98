package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Item is the canonical representation of one catalog product.
//
// An Item is uniquely identified by its URL. Everything else is either
// scraped from the product page (descriptive), set by the user
// (annotations) or derived from both (Score).
//
// Items are created through NewItem (fresh extraction) or FromStorage
// (rehydration). Both paths enforce the same identity rules.
type Item struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// URL is the absolute product page address without query or fragment.
	URL string

	// ─────────────────────────────
	// Descriptive attributes
	// (overwritten on every re-crawl)
	// ─────────────────────────────

	Name        string
	Price       *int
	Distributor string
	ImageURL    string

	Category        string
	WeightKg        *float64
	EAN             string
	GameType        string
	MinAge          *int
	GameLanguages   []string
	RulesLanguages  []string
	MinPlayers      *int
	MaxPlayers      *int
	PlayTimeMinutes *int
	Rating          *float64
	Complexity      *float64
	Author          string
	Categories      []string
	Mechanics       []string
	YearPublished   *int
	Artists         []string

	// Parameters holds every parameter row as scraped, keyed by label.
	Parameters map[string]string

	// FetchedAt is the time the descriptive attributes were extracted.
	FetchedAt time.Time

	// ─────────────────────────────
	// User annotations
	// (never produced by extraction, survive re-crawls)
	// ─────────────────────────────

	Owned   bool
	Flagged bool

	// ─────────────────────────────
	// Derived
	// ─────────────────────────────

	// Score is recomputed whenever the item is constructed or loaded.
	Score int
}

// Annotations groups the user-owned fields of an Item.
type Annotations struct {
	Owned   bool
	Flagged bool
}

// NewItem creates an empty item for a freshly extracted product page.
func NewItem(rawURL string, fetchedAt time.Time) (*Item, error) {
	id, err := validateIdentity(rawURL)
	if err != nil {
		return nil, err
	}

	return &Item{
		URL:        id,
		Parameters: map[string]string{},
		FetchedAt:  fetchedAt,
	}, nil
}

// Annotations returns the user-owned fields of the item.
func (i *Item) Annotations() Annotations {
	return Annotations{Owned: i.Owned, Flagged: i.Flagged}
}

// ApplyAnnotations overwrites the user-owned fields. Applying the same
// annotations twice yields the same item.
func (i *Item) ApplyAnnotations(a Annotations) {
	i.Owned = a.Owned
	i.Flagged = a.Flagged
}

func validateIdentity(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidItem)
	}

	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: url %q is not absolute", ErrInvalidItem, rawURL)
	}

	return rawURL, nil
}
