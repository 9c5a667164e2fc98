package domain

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// Short-circuit scores
	ScoreFlagged               = -10000
	ScoreDisfavoredDistributor = -10000

	// Price bands (CZK)
	ScorePriceBudget    = 50
	ScorePriceCheap     = 20
	ScorePriceFair      = 5
	ScorePriceExpensive = -50

	ScoreFavoredDistributor = 10
	ScoreBaseGame           = 10
	ScoreExpansion          = -10
	ScoreSoloSupport        = 10

	// Rating bands, applied independently of each other
	ScoreRatingExcellent = 20
	ScoreRatingGreat     = 10
	ScoreRatingGood      = 5
	ScoreRatingMediocre  = -20
	ScoreRatingPoor      = -40

	ScoreLongSession  = -10
	ScoreShortSession = -50

	ScoreCategoryMostFavored = 50
	ScoreCategoryFavored     = 15
	ScoreMechanicMostFavored = 50
	ScoreMechanicFavored     = 10
	ScoreBucketDisfavored    = -100
)

// Buckets ranks names into three preference tiers. A name may appear in
// several tiers; each tier is checked on its own.
type Buckets struct {
	MostFavored []string
	Favored     []string
	Disfavored  []string
}

// Preferences is the personal taste model driving the Scorer.
type Preferences struct {
	FavoredDistributors    []string
	DisfavoredDistributors []string

	BaseGameTypes  []string
	ExpansionTypes []string

	Categories Buckets
	Mechanics  Buckets
}

type nameSet map[string]struct{}

func newNameSet(names []string) nameSet {
	set := make(nameSet, len(names))
	for _, n := range names {
		if k := normalizeName(n); k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

func (s nameSet) has(name string) bool {
	_, ok := s[normalizeName(name)]
	return ok
}

// normalizeName folds case and composes diacritics, so decomposed and
// precomposed Czech names compare equal.
func normalizeName(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

type bucketSets struct {
	mostFavored nameSet
	favored     nameSet
	disfavored  nameSet
}

func newBucketSets(b Buckets) bucketSets {
	return bucketSets{
		mostFavored: newNameSet(b.MostFavored),
		favored:     newNameSet(b.Favored),
		disfavored:  newNameSet(b.Disfavored),
	}
}

// Scorer computes the preference score of an item. It is immutable once
// built and safe for concurrent use.
type Scorer struct {
	favoredDistributors    nameSet
	disfavoredDistributors nameSet
	baseGameTypes          nameSet
	expansionTypes         nameSet
	categories             bucketSets
	mechanics              bucketSets
}

func NewScorer(p Preferences) *Scorer {
	return &Scorer{
		favoredDistributors:    newNameSet(p.FavoredDistributors),
		disfavoredDistributors: newNameSet(p.DisfavoredDistributors),
		baseGameTypes:          newNameSet(p.BaseGameTypes),
		expansionTypes:         newNameSet(p.ExpansionTypes),
		categories:             newBucketSets(p.Categories),
		mechanics:              newBucketSets(p.Mechanics),
	}
}

// Score returns the item's score. Rules run in a fixed order and some of
// them end the evaluation early.
func (s *Scorer) Score(item *Item) int {
	if item == nil {
		return 0
	}

	if item.Flagged {
		return ScoreFlagged
	}

	score := 0

	if item.Price != nil {
		score += scorePrice(*item.Price)
	}

	if item.Distributor != "" {
		if s.favoredDistributors.has(item.Distributor) {
			score += ScoreFavoredDistributor
		}
		if s.disfavoredDistributors.has(item.Distributor) {
			return ScoreDisfavoredDistributor
		}
	}

	if item.GameType != "" {
		if s.baseGameTypes.has(item.GameType) {
			score += ScoreBaseGame
		}
		if s.expansionTypes.has(item.GameType) {
			return score + ScoreExpansion
		}
	}

	if item.MinPlayers != nil && *item.MinPlayers == 1 {
		score += ScoreSoloSupport
	}

	if item.Rating != nil {
		score += scoreRating(*item.Rating)
	}

	if item.PlayTimeMinutes != nil {
		score += scoreDuration(*item.PlayTimeMinutes)
	}

	delta, stop := scoreBuckets(item.Categories, s.categories, ScoreCategoryMostFavored, ScoreCategoryFavored)
	score += delta
	if stop {
		return score
	}

	delta, _ = scoreBuckets(item.Mechanics, s.mechanics, ScoreMechanicMostFavored, ScoreMechanicFavored)
	return score + delta
}

func scorePrice(price int) int {
	switch {
	case price < 500:
		return ScorePriceBudget
	case price < 1000:
		return ScorePriceCheap
	case price < 1200:
		return ScorePriceFair
	case price < 2000:
		return 0
	default:
		return ScorePriceExpensive
	}
}

// scoreRating applies every matching band. A rating of 8.2 collects the
// excellent, great and good bonuses; 4.5 collects both penalties.
func scoreRating(rating float64) int {
	score := 0
	if rating >= 8 {
		score += ScoreRatingExcellent
	}
	if rating >= 7.5 {
		score += ScoreRatingGreat
	}
	if rating >= 7 {
		score += ScoreRatingGood
	}
	if rating <= 6 {
		score += ScoreRatingMediocre
	}
	if rating <= 5 {
		score += ScoreRatingPoor
	}
	return score
}

func scoreDuration(minutes int) int {
	switch {
	case minutes > 120:
		return ScoreLongSession
	case minutes <= 30:
		return ScoreShortSession
	default:
		return 0
	}
}

// scoreBuckets walks names in order. The first disfavored name adds its
// penalty and stops the walk; stop reports whether that happened.
func scoreBuckets(names []string, b bucketSets, mostFavored, favored int) (score int, stop bool) {
	for _, name := range names {
		if b.mostFavored.has(name) {
			score += mostFavored
		}
		if b.favored.has(name) {
			score += favored
		}
		if b.disfavored.has(name) {
			return score + ScoreBucketDisfavored, true
		}
	}
	return score, false
}

// Rank sorts items by score, highest first. Equal scores keep their
// relative order.
func Rank(items []*Item) {
	slices.SortStableFunc(items, func(a, b *Item) int {
		return cmp.Compare(b.Score, a.Score)
	})
}
