package oracle

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNewError_TimeoutInference(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline exceeded", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("generate: %w", context.DeadlineExceeded), KindTimeout},
		{"canceled", context.Canceled, KindTimeout},
		{"plain failure", errors.New("connection refused"), KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewError("classify", KindUnavailable, tt.err)
			if e.Kind != tt.want {
				t.Errorf("NewError kind = %s, want %s", e.Kind, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	e := NewError("extract", KindMalformed, errors.New("empty response"))
	if got := KindOf(fmt.Errorf("outer: %w", e)); got != KindMalformed {
		t.Errorf("KindOf(wrapped) = %s, want %s", got, KindMalformed)
	}
	if got := KindOf(errors.New("anonymous")); got != KindUnavailable {
		t.Errorf("KindOf(plain) = %s, want %s", got, KindUnavailable)
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	e := NewError("plan", KindUnavailable, inner)
	if !errors.Is(e, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
}

func TestFuncAdapters(t *testing.T) {
	ctx := context.Background()

	c := ClassifierFunc(func(ctx context.Context, prompt string) (string, error) {
		return "create-wbs", nil
	})
	got, err := c.Classify(ctx, "whatever")
	if err != nil || got != "create-wbs" {
		t.Errorf("ClassifierFunc = %q, %v", got, err)
	}

	r := ResearcherFunc(func(ctx context.Context, query string) (string, error) {
		return "", errors.New("down")
	})
	if _, err := r.Research(ctx, "q"); err == nil {
		t.Error("expected ResearcherFunc error to pass through")
	}
}
