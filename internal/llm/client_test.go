package llm

import (
	"context"
	"strings"
	"testing"
)

func TestNewChatModel_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "openai without key",
			cfg:     Config{Provider: ProviderOpenAI},
			wantErr: "OpenAI API key is required",
		},
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: ProviderAnthropic},
			wantErr: "anthropic API key is required",
		},
		{
			name:    "gemini without key",
			cfg:     Config{Provider: ProviderGemini},
			wantErr: "gemini API key is required",
		},
		{
			name:    "unsupported provider",
			cfg:     Config{Provider: "unknown", APIKey: "key"},
			wantErr: "unsupported LLM provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChatModel(ctx, tt.cfg)
			if err == nil {
				t.Fatalf("NewChatModel() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewChatModel() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProvider(t *testing.T) {
	for _, p := range []string{ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderGemini} {
		if _, err := ValidateProvider(p); err != nil {
			t.Errorf("ValidateProvider(%q) = %v, want nil", p, err)
		}
	}
	if _, err := ValidateProvider("mystery"); err == nil {
		t.Error("ValidateProvider(mystery) expected error, got nil")
	}
}

func TestCloseableChatModel_Close(t *testing.T) {
	cm := &CloseableChatModel{}

	if err := cm.Close(); err != nil {
		t.Errorf("Close() on nil closer should return nil, got %v", err)
	}
	// Multiple closes are safe
	if err := cm.Close(); err != nil {
		t.Errorf("second Close() should return nil, got %v", err)
	}
}

func TestDefaultModelForProvider(t *testing.T) {
	if m := DefaultModelForProvider(ProviderOllama); m == "" {
		t.Error("expected default model for ollama")
	}
	// Unknown providers fall back to the OpenAI default
	if m := DefaultModelForProvider("nope"); m != defaultModels[ProviderOpenAI] {
		t.Errorf("unknown provider default = %q, want OpenAI default", m)
	}
}
