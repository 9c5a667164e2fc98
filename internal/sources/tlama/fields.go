package tlama

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/MrSnakeDoc/tlama/internal/domain"
)

const (
	// notStated is how the shop marks an unknown play time.
	notStated = "neuvedeno"

	// Sentinels for open-ended play times.
	openEndedMinutes = 300
	upToMinutes      = 10
)

type fieldSetter func(item *domain.Item, raw string)

// parameterFields dispatches localized parameter labels to typed Item
// fields. Labels missing here only land in Item.Parameters.
var parameterFields = normalizeKeys(map[string]fieldSetter{
	"Kategorie": func(it *domain.Item, raw string) { it.Category = parseText(raw) },
	"Hmotnost":  func(it *domain.Item, raw string) { it.WeightKg = parseDecimal(raw) },
	"EAN":       func(it *domain.Item, raw string) { it.EAN = parseText(raw) },

	"1. Základní hra / rozšíření":       func(it *domain.Item, raw string) { it.GameType = parseText(raw) },
	"2. Minimální věk":                  func(it *domain.Item, raw string) { it.MinAge = parseInt(raw) },
	"3. Jazyk hry":                      func(it *domain.Item, raw string) { it.GameLanguages = parseList(raw) },
	"4. Jazyk pravidel":                 func(it *domain.Item, raw string) { it.RulesLanguages = parseList(raw) },
	"5. Minimální počet hráčů":          func(it *domain.Item, raw string) { it.MinPlayers = parseInt(raw) },
	"6. Maximální počet hráčů":          func(it *domain.Item, raw string) { it.MaxPlayers = parseInt(raw) },
	"7. Herní doba (minut)":             func(it *domain.Item, raw string) { it.PlayTimeMinutes = parseDuration(raw) },
	"8. Hodnocení Boardgamegeek (0-10)": func(it *domain.Item, raw string) { it.Rating = parseDecimal(raw) },
	"9. Náročnost (1-5)":                func(it *domain.Item, raw string) { it.Complexity = parseDecimal(raw) },

	"Autor":           func(it *domain.Item, raw string) { it.Author = parseText(raw) },
	"Herní kategorie": func(it *domain.Item, raw string) { it.Categories = parseList(raw) },
	"Herní mechaniky": func(it *domain.Item, raw string) { it.Mechanics = parseList(raw) },
	"Rok vydání":      func(it *domain.Item, raw string) { it.YearPublished = parseInt(raw) },
	"Výtvarníci":      func(it *domain.Item, raw string) { it.Artists = parseList(raw) },
})

func normalizeKeys(m map[string]fieldSetter) map[string]fieldSetter {
	out := make(map[string]fieldSetter, len(m))
	for k, v := range m {
		key := normalizeLabel(k)
		if _, dup := out[key]; dup {
			panic("tlama: duplicate parameter label " + key)
		}
		out[key] = v
	}
	return out
}

// normalizeLabel cleans a table header into a dispatch key. Headers may
// carry a tooltip marker ("? ") and a trailing colon.
func normalizeLabel(s string) string {
	s = collapseSpace(norm.NFC.String(s))
	s = strings.ReplaceAll(s, "? ", "")
	s = strings.TrimSuffix(s, ":")
	return strings.TrimSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func parseText(raw string) string {
	return collapseSpace(raw)
}

// parseList splits a comma-separated value. An empty value yields an
// empty, non-nil list.
func parseList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := collapseSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// firstElement returns the first comma-separated element of raw.
func firstElement(raw string) string {
	head, _, _ := strings.Cut(raw, ",")
	return strings.TrimSpace(head)
}

func parseInt(raw string) *int {
	v, err := strconv.Atoi(firstElement(raw))
	if err != nil {
		return nil
	}
	return &v
}

// parseDecimal accepts both decimal separators and a trailing mass unit.
func parseDecimal(raw string) *float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "kg"), "Kg"))
	if s == "" {
		return nil
	}

	if v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64); err == nil {
		return &v
	}
	if v, err := strconv.ParseFloat(firstElement(s), 64); err == nil {
		return &v
	}
	return nil
}

// parseDuration understands the shop's play time phrases:
//
//	"neuvedeno" -> 0
//	"180+"      -> 300
//	"do 15"     -> 10
//	"61-90"     -> 75
func parseDuration(raw string) *int {
	s := strings.ToLower(collapseSpace(raw))
	s = strings.TrimSpace(strings.TrimSuffix(s, "min"))

	switch {
	case s == "":
		return nil
	case s == notStated:
		return intValue(0)
	case strings.HasSuffix(s, "+"):
		if _, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(s, "+"))); err != nil {
			return nil
		}
		return intValue(openEndedMinutes)
	case strings.HasPrefix(s, "do "):
		if _, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(s, "do "))); err != nil {
			return nil
		}
		return intValue(upToMinutes)
	}

	s = strings.ReplaceAll(s, "–", "-")
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		a, errA := strconv.Atoi(strings.TrimSpace(lo))
		b, errB := strconv.Atoi(strings.TrimSpace(hi))
		if errA != nil || errB != nil {
			return nil
		}
		return intValue((a + b) / 2)
	}

	return parseInt(s)
}

func intValue(v int) *int { return &v }
