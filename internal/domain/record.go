package domain

import (
	"maps"
	"slices"
	"time"
)

// Record is the persisted shape of an Item.
//
// It carries the score that was current when it was written; callers must
// not trust it and rescore after rehydration.
type Record struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	Price       *int   `json:"price,omitempty"`
	Distributor string `json:"distributor,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`

	Category        string   `json:"category,omitempty"`
	WeightKg        *float64 `json:"weight_kg,omitempty"`
	EAN             string   `json:"ean,omitempty"`
	GameType        string   `json:"game_type,omitempty"`
	MinAge          *int     `json:"min_age,omitempty"`
	GameLanguages   []string `json:"game_language,omitempty"`
	RulesLanguages  []string `json:"rules_language,omitempty"`
	MinPlayers      *int     `json:"min_players,omitempty"`
	MaxPlayers      *int     `json:"max_players,omitempty"`
	PlayTimeMinutes *int     `json:"play_time_minutes,omitempty"`
	Rating          *float64 `json:"bgg_rating,omitempty"`
	Complexity      *float64 `json:"complexity,omitempty"`
	Author          string   `json:"author,omitempty"`
	Categories      []string `json:"game_categories,omitempty"`
	Mechanics       []string `json:"game_mechanics,omitempty"`
	YearPublished   *int     `json:"year_published,omitempty"`
	Artists         []string `json:"artists,omitempty"`

	Parameters map[string]string `json:"parameters,omitempty"`
	FetchedAt  time.Time         `json:"fetched_at"`

	Owned   bool `json:"owned"`
	Flagged bool `json:"flagged"`

	Score int `json:"score"`
}

// Annotations returns the user-owned fields stored in the record.
func (r *Record) Annotations() Annotations {
	return Annotations{Owned: r.Owned, Flagged: r.Flagged}
}

// ApplyAnnotations overwrites the user-owned fields of the record.
func (r *Record) ApplyAnnotations(a Annotations) {
	r.Owned = a.Owned
	r.Flagged = a.Flagged
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	r.GameLanguages = slices.Clone(r.GameLanguages)
	r.RulesLanguages = slices.Clone(r.RulesLanguages)
	r.Categories = slices.Clone(r.Categories)
	r.Mechanics = slices.Clone(r.Mechanics)
	r.Artists = slices.Clone(r.Artists)
	r.Parameters = maps.Clone(r.Parameters)
	return r
}

// Record converts the item into its persisted shape.
func (i *Item) Record() Record {
	return Record{
		URL:             i.URL,
		Name:            i.Name,
		Price:           i.Price,
		Distributor:     i.Distributor,
		ImageURL:        i.ImageURL,
		Category:        i.Category,
		WeightKg:        i.WeightKg,
		EAN:             i.EAN,
		GameType:        i.GameType,
		MinAge:          i.MinAge,
		GameLanguages:   slices.Clone(i.GameLanguages),
		RulesLanguages:  slices.Clone(i.RulesLanguages),
		MinPlayers:      i.MinPlayers,
		MaxPlayers:      i.MaxPlayers,
		PlayTimeMinutes: i.PlayTimeMinutes,
		Rating:          i.Rating,
		Complexity:      i.Complexity,
		Author:          i.Author,
		Categories:      slices.Clone(i.Categories),
		Mechanics:       slices.Clone(i.Mechanics),
		YearPublished:   i.YearPublished,
		Artists:         slices.Clone(i.Artists),
		Parameters:      maps.Clone(i.Parameters),
		FetchedAt:       i.FetchedAt,
		Owned:           i.Owned,
		Flagged:         i.Flagged,
		Score:           i.Score,
	}
}

// FromStorage rehydrates an item from a persisted record. The stored score
// is copied as-is; it is the caller's job to rescore.
func FromStorage(r Record) (*Item, error) {
	id, err := validateIdentity(r.URL)
	if err != nil {
		return nil, err
	}

	params := maps.Clone(r.Parameters)
	if params == nil {
		params = map[string]string{}
	}

	return &Item{
		URL:             id,
		Name:            r.Name,
		Price:           r.Price,
		Distributor:     r.Distributor,
		ImageURL:        r.ImageURL,
		Category:        r.Category,
		WeightKg:        r.WeightKg,
		EAN:             r.EAN,
		GameType:        r.GameType,
		MinAge:          r.MinAge,
		GameLanguages:   slices.Clone(r.GameLanguages),
		RulesLanguages:  slices.Clone(r.RulesLanguages),
		MinPlayers:      r.MinPlayers,
		MaxPlayers:      r.MaxPlayers,
		PlayTimeMinutes: r.PlayTimeMinutes,
		Rating:          r.Rating,
		Complexity:      r.Complexity,
		Author:          r.Author,
		Categories:      slices.Clone(r.Categories),
		Mechanics:       slices.Clone(r.Mechanics),
		YearPublished:   r.YearPublished,
		Artists:         slices.Clone(r.Artists),
		Parameters:      params,
		FetchedAt:       r.FetchedAt,
		Owned:           r.Owned,
		Flagged:         r.Flagged,
		Score:           r.Score,
	}, nil
}
