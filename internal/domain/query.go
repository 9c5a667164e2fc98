package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CategoryPrefix = "category:"
	MechanicPrefix = "mechanic:"
)

// Vocabulary is the filter dictionary of the catalog. It is built once at
// startup and only read afterwards.
type Vocabulary struct {
	// Baseline tokens are prepended to every query, in this order.
	Baseline []string

	// Filters maps a plain token to its "key=value" fragment.
	Filters map[string]string

	// CategoryParam and MechanicParam name the multi-valued parameters
	// that prefixed tokens aggregate into.
	CategoryParam string
	Categories    map[string]string
	MechanicParam string
	Mechanics     map[string]string
}

// Validate checks that the vocabulary is self-consistent.
func (v *Vocabulary) Validate() error {
	var errs []error
	for _, token := range v.Baseline {
		if _, ok := v.Filters[token]; !ok {
			errs = append(errs, fmt.Errorf("baseline token %q has no filter", token))
		}
	}
	for token, fragment := range v.Filters {
		if !strings.Contains(fragment, "=") {
			errs = append(errs, fmt.Errorf("filter %q: fragment %q is not key=value", token, fragment))
		}
	}
	if len(v.Categories) > 0 && v.CategoryParam == "" {
		errs = append(errs, errors.New("categories defined without category param"))
	}
	if len(v.Mechanics) > 0 && v.MechanicParam == "" {
		errs = append(errs, errors.New("mechanics defined without mechanic param"))
	}
	return errors.Join(errs...)
}

// QueryBuilder turns filter tokens into the listing query string.
type QueryBuilder struct {
	vocab *Vocabulary
}

func NewQueryBuilder(vocab *Vocabulary) *QueryBuilder {
	return &QueryBuilder{vocab: vocab}
}

// Build returns the query for the given tokens, without a leading "?".
//
// Fragments come out as: baseline filters, caller filters in call order,
// then the category aggregate, then the mechanic aggregate. Repeated
// tokens keep their first position. Unknown tokens fail with a
// *ConfigurationError.
func (b *QueryBuilder) Build(tokens []string) (string, error) {
	seen := make(map[string]struct{}, len(tokens)+len(b.vocab.Baseline))
	var (
		fragments  []string
		categories []string
		mechanics  []string
	)

	all := make([]string, 0, len(b.vocab.Baseline)+len(tokens))
	all = append(all, b.vocab.Baseline...)
	all = append(all, tokens...)

	for _, raw := range all {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}

		switch {
		case strings.HasPrefix(token, CategoryPrefix):
			id, ok := b.vocab.Categories[strings.TrimPrefix(token, CategoryPrefix)]
			if !ok {
				return "", &ConfigurationError{Token: token}
			}
			categories = append(categories, id)
		case strings.HasPrefix(token, MechanicPrefix):
			id, ok := b.vocab.Mechanics[strings.TrimPrefix(token, MechanicPrefix)]
			if !ok {
				return "", &ConfigurationError{Token: token}
			}
			mechanics = append(mechanics, id)
		default:
			fragment, ok := b.vocab.Filters[token]
			if !ok {
				return "", &ConfigurationError{Token: token}
			}
			fragments = append(fragments, fragment)
		}
	}

	if len(categories) > 0 {
		fragments = append(fragments, b.vocab.CategoryParam+"="+strings.Join(categories, ","))
	}
	if len(mechanics) > 0 {
		fragments = append(fragments, b.vocab.MechanicParam+"="+strings.Join(mechanics, ","))
	}

	return strings.Join(fragments, "&"), nil
}
