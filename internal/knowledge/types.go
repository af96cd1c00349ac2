// Package knowledge provides the LLM provider layer: text embedding and chat
// completion behind provider-agnostic interfaces, with OpenAI, Gemini, and
// Ollama implementations.
package knowledge

import (
	"context"
)

// Embedder defines the interface for converting text to vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Message roles understood by every ChatModel implementation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatModel defines the interface for chat-style text generation.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message, temperature float64) (string, error)
}
