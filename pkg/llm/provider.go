package llm

import (
	"context"
	"fmt"
	"strings"
)

// Provider executes a single chat completion against a hosted model API.
type Provider interface {
	Complete(ctx context.Context, messages []Message) (Completion, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion is the normalized result shape every provider must produce.
// Content is always populated on success; providers are responsible for
// mapping whatever their wire format returns into this struct at the
// boundary.
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

type Config struct {
	Provider  string
	Model     string
	APIKey    string
	APIURL    string
	MaxTokens int
}

func NewProvider(cfg Config) (Provider, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		return NewOpenAIProvider(cfg), nil
	case "groq":
		return NewGroqProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
