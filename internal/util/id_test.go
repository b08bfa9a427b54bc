package util

import (
	"errors"
	"testing"
)

func TestShortID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		n    int
		want string
	}{
		{"default length", "abcdef1234567890", 0, "abcdef12"},
		{"custom length", "abcdef1234567890", 4, "abcd"},
		{"shorter than limit", "abc", 8, "abc"},
		{"exact length", "abcdefgh", 8, "abcdefgh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShortID(tt.id, tt.n); got != tt.want {
				t.Errorf("ShortID(%q, %d) = %q, want %q", tt.id, tt.n, got, tt.want)
			}
		})
	}
}

func TestResolveID(t *testing.T) {
	candidates := []string{"abc12345", "abc99999", "def00000"}

	t.Run("exact match", func(t *testing.T) {
		got, err := ResolveID("abc12345", candidates, "task")
		if err != nil || got != "abc12345" {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("unique prefix", func(t *testing.T) {
		got, err := ResolveID("def", candidates, "task")
		if err != nil || got != "def00000" {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("ambiguous prefix", func(t *testing.T) {
		_, err := ResolveID("abc", candidates, "task")
		if !errors.Is(err, ErrAmbiguousID) {
			t.Errorf("err = %v, want ErrAmbiguousID", err)
		}
	})

	t.Run("no match", func(t *testing.T) {
		_, err := ResolveID("zzz", candidates, "task")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := ResolveID("", candidates, "task"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("exact match beats prefix ambiguity", func(t *testing.T) {
		ids := []string{"abc", "abcdef"}
		got, err := ResolveID("abc", ids, "task")
		if err != nil || got != "abc" {
			t.Errorf("got %q, %v", got, err)
		}
	})
}
