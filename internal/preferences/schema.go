package preferences

// File represents the top-level structure of the preferences yaml.
type File struct {
	Catalog     CatalogSection     `yaml:"catalog"`
	Filters     FiltersSection     `yaml:"filters"`
	Preferences PreferencesSection `yaml:"preferences"`
}

// CatalogSection describes the shop layout.
type CatalogSection struct {
	ShopPath      string `yaml:"shop_path"`
	PagePath      string `yaml:"page_path"`
	PromoSelector string `yaml:"promo_selector"`
}

// FiltersSection is the filter vocabulary.
type FiltersSection struct {
	Baseline      []string            `yaml:"baseline"`
	Flat          map[string]string   `yaml:"flat"`
	CategoryParam string              `yaml:"category_param"`
	Categories    map[string]string   `yaml:"categories"`
	MechanicParam string              `yaml:"mechanic_param"`
	Mechanics     map[string]string   `yaml:"mechanics"`
	Presets       map[string][]string `yaml:"presets,omitempty"`
}

// PreferencesSection is the personal taste model.
type PreferencesSection struct {
	Distributors struct {
		Favored    []string `yaml:"favored"`
		Disfavored []string `yaml:"disfavored"`
	} `yaml:"distributors"`

	GameTypes struct {
		Base      []string `yaml:"base"`
		Expansion []string `yaml:"expansion"`
	} `yaml:"game_types"`

	Categories BucketsSection `yaml:"categories"`
	Mechanics  BucketsSection `yaml:"mechanics"`
}

type BucketsSection struct {
	MostFavored []string `yaml:"most_favored"`
	Favored     []string `yaml:"favored"`
	Disfavored  []string `yaml:"disfavored"`
}
