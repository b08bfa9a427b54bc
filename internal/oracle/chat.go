package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/taskloop/taskloop/internal/llm"
)

// DefaultCallTimeout bounds a single oracle call when the caller's context
// carries no deadline of its own.
const DefaultCallTimeout = 30 * time.Second

// ChatOracle implements all four oracle contracts over a single Eino chat
// model. The model is created lazily on first use so construction never does
// network I/O.
type ChatOracle struct {
	cfg     llm.Config
	timeout time.Duration
	model   *llm.CloseableChatModel
}

// NewChatOracle creates a ChatOracle for the given provider configuration.
// A non-positive timeout falls back to DefaultCallTimeout.
func NewChatOracle(cfg llm.Config, timeout time.Duration) *ChatOracle {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return &ChatOracle{cfg: cfg, timeout: timeout}
}

// Close releases the underlying chat model.
func (o *ChatOracle) Close() error {
	if o.model != nil {
		return o.model.Close()
	}
	return nil
}

// Classify implements Classifier.
func (o *ChatOracle) Classify(ctx context.Context, prompt string) (string, error) {
	return o.generate(ctx, "classify", prompt)
}

// Extract implements Extractor.
func (o *ChatOracle) Extract(ctx context.Context, prompt string) (string, error) {
	return o.generate(ctx, "extract", prompt)
}

// Plan implements Planner.
func (o *ChatOracle) Plan(ctx context.Context, prompt string) (string, error) {
	return o.generate(ctx, "plan", prompt)
}

// Research implements Researcher.
func (o *ChatOracle) Research(ctx context.Context, query string) (string, error) {
	return o.generate(ctx, "research", query)
}

func (o *ChatOracle) generate(ctx context.Context, op, prompt string) (string, error) {
	if o.model == nil {
		m, err := llm.NewCloseableChatModel(ctx, o.cfg)
		if err != nil {
			return "", NewError(op, KindUnavailable, fmt.Errorf("create chat model: %w", err))
		}
		o.model = m
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		return "", NewError(op, KindUnavailable, err)
	}

	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", NewError(op, KindMalformed, fmt.Errorf("empty response"))
	}
	return content, nil
}
