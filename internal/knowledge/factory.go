package knowledge

import (
	"context"
	"fmt"
	"strings"
)

type Options struct {
	Provider  string
	APIKey    string
	Model     string
	Dimension int
	BaseURL   string
}

// NewEmbedder builds an Embedder for the configured provider.
func NewEmbedder(ctx context.Context, opts Options) (Embedder, error) {
	switch normalizeProvider(opts.Provider) {
	case "openai":
		return NewOpenAIEmbedder(opts.APIKey, opts.Model, opts.Dimension, opts.BaseURL), nil
	case "gemini":
		return NewGeminiEmbedder(ctx, opts.APIKey, opts.Model, opts.Dimension)
	case "ollama":
		return NewOllamaEmbedder(opts.Model, opts.Dimension, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", opts.Provider)
	}
}

// NewChatModel builds a ChatModel for the configured provider.
func NewChatModel(ctx context.Context, opts Options) (ChatModel, error) {
	switch normalizeProvider(opts.Provider) {
	case "openai":
		return NewOpenAIChat(opts.APIKey, opts.Model, opts.BaseURL), nil
	case "gemini":
		return NewGeminiChat(ctx, opts.APIKey, opts.Model)
	case "ollama":
		return NewOllamaChat(opts.Model, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported chat provider: %s", opts.Provider)
	}
}

func normalizeProvider(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		p = "openai"
	}
	return p
}
