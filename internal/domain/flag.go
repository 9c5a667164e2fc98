package domain

import (
	"fmt"
	"strings"
)

// Flag names one of the user annotation fields.
type Flag string

const (
	FlagOwned   Flag = "owned"
	FlagFlagged Flag = "flagged"
)

// Flags lists every recognized annotation name.
var Flags = []Flag{FlagOwned, FlagFlagged}

// ParseFlag resolves a user-supplied annotation name. Anything outside the
// allow-list is rejected with ErrUnknownFlag.
func ParseFlag(name string) (Flag, error) {
	switch f := Flag(strings.ToLower(strings.TrimSpace(name))); f {
	case FlagOwned, FlagFlagged:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFlag, name)
	}
}

// With returns a copy of the annotations with the given flag set.
func (a Annotations) With(flag Flag, value bool) (Annotations, error) {
	switch flag {
	case FlagOwned:
		a.Owned = value
	case FlagFlagged:
		a.Flagged = value
	default:
		return a, fmt.Errorf("%w: %q", ErrUnknownFlag, flag)
	}
	return a, nil
}
