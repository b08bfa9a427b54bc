// Package util provides shared utility functions.
package util

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultShortIDLength is the default number of characters for short IDs.
	DefaultShortIDLength = 8
	// MaxAmbiguousCandidates is the max number of candidates to show in an
	// ambiguous-prefix error.
	MaxAmbiguousCandidates = 5
)

// Errors returned by ID resolution.
var (
	ErrAmbiguousID = errors.New("ambiguous ID prefix")
	ErrNotFound    = errors.New("not found")
)

// ShortID returns a shortened version of an ID for display. If n is 0 or
// negative, DefaultShortIDLength is used.
func ShortID(id string, n int) string {
	if n <= 0 {
		n = DefaultShortIDLength
	}
	if len(id) <= n {
		return id
	}
	return id[:n]
}

// ResolveID resolves an ID or unique prefix against a candidate set.
//
// Resolution rules:
//  1. An exact match wins, even when it is also a prefix of other IDs.
//  2. A prefix matching exactly one candidate resolves to that candidate.
//  3. Multiple prefix matches return ErrAmbiguousID listing candidates.
//  4. No matches return ErrNotFound.
func ResolveID(idOrPrefix string, candidates []string, entityType string) (string, error) {
	if idOrPrefix == "" {
		return "", fmt.Errorf("%s ID: %w", entityType, ErrNotFound)
	}

	var matches []string
	for _, c := range candidates {
		if c == idOrPrefix {
			return c, nil
		}
		if strings.HasPrefix(c, idOrPrefix) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s with prefix %q: %w", entityType, idOrPrefix, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		shown := matches
		if len(shown) > MaxAmbiguousCandidates {
			shown = shown[:MaxAmbiguousCandidates]
		}
		return "", fmt.Errorf("%w: prefix %q matches %d %ss: %v",
			ErrAmbiguousID, idOrPrefix, len(matches), entityType, shown)
	}
}
