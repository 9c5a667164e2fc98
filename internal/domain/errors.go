package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an item is absent from the cache.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidItem is returned when an item violates its identity rules.
	ErrInvalidItem = errors.New("invalid item")

	// ErrUnknownFlag is returned for annotation names outside the allow-list.
	ErrUnknownFlag = errors.New("unknown annotation flag")
)

// ConfigurationError reports a filter token that is not part of the
// vocabulary. It is raised before any network activity.
type ConfigurationError struct {
	Token string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unknown filter token %q", e.Token)
}

// FetchError reports a network failure or a non-success HTTP status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports markup that lacks a required structural element.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.URL, e.Reason)
}
