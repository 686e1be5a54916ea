package llm

import (
	"context"
	"strings"
)

// GroqProvider speaks Groq's OpenAI-compatible chat completion API.
type GroqProvider struct {
	openai *OpenAIProvider
}

func NewGroqProvider(cfg Config) *GroqProvider {
	cfgCopy := cfg
	if strings.TrimSpace(cfgCopy.APIURL) == "" {
		cfgCopy.APIURL = "https://api.groq.com/openai/v1"
	}
	return &GroqProvider{
		openai: NewOpenAIProvider(cfgCopy),
	}
}

func (p *GroqProvider) Complete(ctx context.Context, messages []Message) (Completion, error) {
	return p.openai.Complete(ctx, messages)
}
