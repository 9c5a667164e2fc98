package domain

import (
	"testing"

	"golang.org/x/text/unicode/norm"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testPreferences() Preferences {
	return Preferences{
		FavoredDistributors:    []string{"TLAMA games"},
		DisfavoredDistributors: []string{"Shady Imports"},
		BaseGameTypes:          []string{"Základní hra"},
		ExpansionTypes:         []string{"Rozšíření"},
		Categories: Buckets{
			MostFavored: []string{"Kostkové"},
			Favored:     []string{"Karetní", "Kostkové", "Sci-fi"},
			Disfavored:  []string{"Horror"},
		},
		Mechanics: Buckets{
			MostFavored: []string{"Solo / Solitaire Game"},
			Favored:     []string{"Hand Management"},
			Disfavored:  []string{"Real-Time"},
		},
	}
}

func TestScorerRules(t *testing.T) {
	scorer := NewScorer(testPreferences())

	tests := []struct {
		name string
		item Item
		want int
	}{
		{name: "empty item", item: Item{}, want: 0},
		{name: "price under 500", item: Item{Price: intPtr(499)}, want: 50},
		{name: "price at 500", item: Item{Price: intPtr(500)}, want: 20},
		{name: "price under 1200", item: Item{Price: intPtr(1199)}, want: 5},
		{name: "price at 1200", item: Item{Price: intPtr(1200)}, want: 0},
		{name: "price at 1999", item: Item{Price: intPtr(1999)}, want: 0},
		{name: "price at 2000", item: Item{Price: intPtr(2000)}, want: -50},
		{name: "favored distributor", item: Item{Distributor: "TLAMA games"}, want: 10},
		{
			name: "disfavored distributor short-circuits",
			item: Item{Distributor: "Shady Imports", Price: intPtr(100), Rating: floatPtr(9)},
			want: -10000,
		},
		{name: "base game", item: Item{GameType: "Základní hra"}, want: 10},
		{
			name: "expansion stops after subtype",
			item: Item{Price: intPtr(400), GameType: "Rozšíření", MinPlayers: intPtr(1), Rating: floatPtr(9)},
			want: 40,
		},
		{name: "solo support", item: Item{MinPlayers: intPtr(1)}, want: 10},
		{name: "two players minimum", item: Item{MinPlayers: intPtr(2)}, want: 0},
		{name: "rating 8.2 collects three bands", item: Item{Rating: floatPtr(8.2)}, want: 35},
		{name: "rating 7.6", item: Item{Rating: floatPtr(7.6)}, want: 15},
		{name: "rating 7.0", item: Item{Rating: floatPtr(7.0)}, want: 5},
		{name: "rating 6.5", item: Item{Rating: floatPtr(6.5)}, want: 0},
		{name: "rating 6.0", item: Item{Rating: floatPtr(6.0)}, want: -20},
		{name: "rating 4.5 double penalty", item: Item{Rating: floatPtr(4.5)}, want: -60},
		{name: "long session", item: Item{PlayTimeMinutes: intPtr(121)}, want: -10},
		{name: "two hours", item: Item{PlayTimeMinutes: intPtr(120)}, want: 0},
		{name: "short session", item: Item{PlayTimeMinutes: intPtr(30)}, want: -50},
		{name: "not stated duration", item: Item{PlayTimeMinutes: intPtr(0)}, want: -50},
		{name: "category in two buckets", item: Item{Categories: []string{"Kostkové"}}, want: 65},
		{name: "favored categories add up", item: Item{Categories: []string{"Karetní", "Sci-fi"}}, want: 30},
		{
			name: "disfavored category stops before mechanics",
			item: Item{
				Categories: []string{"Karetní", "Horror", "Sci-fi"},
				Mechanics:  []string{"Solo / Solitaire Game"},
			},
			want: 15 - 100,
		},
		{name: "mechanics", item: Item{Mechanics: []string{"Solo / Solitaire Game", "Hand Management"}}, want: 60},
		{name: "disfavored mechanic", item: Item{Mechanics: []string{"Hand Management", "Real-Time", "Solo / Solitaire Game"}}, want: -90},
		{name: "matching is case-insensitive", item: Item{Categories: []string{"karetní"}}, want: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := tt.item
			if got := scorer.Score(&item); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScorerFlaggedOverridesEverything(t *testing.T) {
	scorer := NewScorer(testPreferences())

	item := &Item{
		URL:             "https://www.tlamagames.com/hra",
		Flagged:         true,
		Price:           intPtr(100),
		Distributor:     "TLAMA games",
		GameType:        "Základní hra",
		MinPlayers:      intPtr(1),
		Rating:          floatPtr(9.5),
		PlayTimeMinutes: intPtr(60),
		Categories:      []string{"Kostkové", "Karetní"},
		Mechanics:       []string{"Solo / Solitaire Game"},
	}

	if got := scorer.Score(item); got != ScoreFlagged {
		t.Fatalf("Score() = %d, want %d", got, ScoreFlagged)
	}
}

func TestScorerIsDeterministic(t *testing.T) {
	scorer := NewScorer(testPreferences())
	item := &Item{
		Price:      intPtr(899),
		Rating:     floatPtr(7.8),
		Categories: []string{"Kostkové", "Sci-fi"},
		Mechanics:  []string{"Hand Management"},
	}

	first := scorer.Score(item)
	for i := 0; i < 10; i++ {
		if got := scorer.Score(item); got != first {
			t.Fatalf("run %d: Score() = %d, want %d", i, got, first)
		}
	}
}

func TestScorerNilItem(t *testing.T) {
	if got := NewScorer(Preferences{}).Score(nil); got != 0 {
		t.Errorf("Score(nil) = %d, want 0", got)
	}
}

func TestRankIsStable(t *testing.T) {
	items := []*Item{
		{URL: "a", Score: 10},
		{URL: "b", Score: 30},
		{URL: "c", Score: 10},
		{URL: "d", Score: -5},
		{URL: "e", Score: 30},
	}

	Rank(items)

	want := []string{"b", "e", "a", "c", "d"}
	for i, item := range items {
		if item.URL != want[i] {
			t.Errorf("position %d: got %s, want %s", i, item.URL, want[i])
		}
	}
}

func TestScorerMatchesDecomposedNames(t *testing.T) {
	scorer := NewScorer(testPreferences())

	tests := []struct {
		name string
		item Item
		want int
	}{
		{name: "decomposed category", item: Item{Categories: []string{norm.NFD.String("Karetní")}}, want: 15},
		{name: "decomposed upper-case subtype", item: Item{GameType: norm.NFD.String("ZÁKLADNÍ HRA")}, want: 10},
		{name: "decomposed expansion", item: Item{Price: intPtr(400), GameType: norm.NFD.String("Rozšíření")}, want: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scorer.Score(&tt.item); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}
