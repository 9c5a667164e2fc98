package preferences

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/MrSnakeDoc/tlama/internal/domain"
)

// PresetBestDeals names the preset used by the best-deals command.
const PresetBestDeals = "best_deals"

// Catalog is the shop layout needed to build listing and promo requests.
type Catalog struct {
	ShopPath      string
	PagePath      string
	PromoSelector string
}

// Settings is the mapped, validated content of a preferences file. It is
// built once and passed by reference afterwards.
type Settings struct {
	Catalog     Catalog
	Vocabulary  *domain.Vocabulary
	Preferences domain.Preferences
	Presets     map[string][]string
}

// Preset returns the filter tokens of a named preset.
func (s *Settings) Preset(name string) ([]string, bool) {
	tokens, ok := s.Presets[name]
	return slices.Clone(tokens), ok
}

// Map converts a parsed file into Settings.
func Map(f *File) (*Settings, error) {
	if f == nil {
		return nil, errors.New("nil preferences file")
	}

	catalog := Catalog{
		ShopPath:      f.Catalog.ShopPath,
		PagePath:      f.Catalog.PagePath,
		PromoSelector: strings.TrimSpace(f.Catalog.PromoSelector),
	}
	if catalog.ShopPath == "" {
		catalog.ShopPath = "/"
	}
	if catalog.PagePath != "" && !strings.Contains(catalog.PagePath, "%d") {
		return nil, fmt.Errorf("catalog.page_path %q must contain %%d", catalog.PagePath)
	}

	vocab := &domain.Vocabulary{
		Baseline:      slices.Clone(f.Filters.Baseline),
		Filters:       maps.Clone(f.Filters.Flat),
		CategoryParam: f.Filters.CategoryParam,
		Categories:    maps.Clone(f.Filters.Categories),
		MechanicParam: f.Filters.MechanicParam,
		Mechanics:     maps.Clone(f.Filters.Mechanics),
	}
	if vocab.Filters == nil {
		vocab.Filters = map[string]string{}
	}
	if err := vocab.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter vocabulary: %w", err)
	}

	// Presets may only reference known tokens.
	qb := domain.NewQueryBuilder(vocab)
	presets := make(map[string][]string, len(f.Filters.Presets))
	for name, tokens := range f.Filters.Presets {
		if _, err := qb.Build(tokens); err != nil {
			return nil, fmt.Errorf("preset %q: %w", name, err)
		}
		presets[name] = slices.Clone(tokens)
	}

	p := f.Preferences
	prefs := domain.Preferences{
		FavoredDistributors:    slices.Clone(p.Distributors.Favored),
		DisfavoredDistributors: slices.Clone(p.Distributors.Disfavored),
		BaseGameTypes:          slices.Clone(p.GameTypes.Base),
		ExpansionTypes:         slices.Clone(p.GameTypes.Expansion),
		Categories:             mapBuckets(p.Categories),
		Mechanics:              mapBuckets(p.Mechanics),
	}

	return &Settings{
		Catalog:     catalog,
		Vocabulary:  vocab,
		Preferences: prefs,
		Presets:     presets,
	}, nil
}

// Load reads, parses and maps the preferences at path. An empty path
// selects the embedded defaults.
func Load(path string) (*Settings, error) {
	f, err := NewLoader(path).Load()
	if err != nil {
		return nil, err
	}
	return Map(f)
}

func mapBuckets(b BucketsSection) domain.Buckets {
	return domain.Buckets{
		MostFavored: slices.Clone(b.MostFavored),
		Favored:     slices.Clone(b.Favored),
		Disfavored:  slices.Clone(b.Disfavored),
	}
}
