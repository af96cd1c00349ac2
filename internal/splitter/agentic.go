package splitter

import (
	"context"
	"fmt"
	"strings"

	"quizforge/internal/knowledge"
)

// splitMarker is what the model is asked to insert between chunks.
const splitMarker = "<<<SPLIT>>>"

// Agentic delegates chunking to a chat model: the model marks natural topic
// boundaries and the text is split at those markers.
type Agentic struct {
	chat       knowledge.ChatModel
	TargetSize int
}

func NewAgentic(chat knowledge.ChatModel, targetSize int) *Agentic {
	if targetSize <= 0 {
		targetSize = 200
	}
	return &Agentic{chat: chat, TargetSize: targetSize}
}

func (a *Agentic) Split(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	prompt := fmt.Sprintf(`You are a text chunking expert. Split this text into logical chunks.

Rules:
- Each chunk should be around %d characters or less
- Split at natural topic boundaries
- Keep related information together
- Put "%s" between chunks

Text:
%s

Return the text with %s markers where you want to split:`, a.TargetSize, splitMarker, text, splitMarker)

	marked, err := a.chat.Complete(ctx, []knowledge.Message{
		{Role: knowledge.RoleUser, Content: prompt},
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("agentic split failed: %w", err)
	}
	marked = knowledge.StripCodeFence(marked)

	var chunks []string
	for _, part := range strings.Split(marked, splitMarker) {
		if cleaned := strings.TrimSpace(part); cleaned != "" {
			chunks = append(chunks, cleaned)
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("agentic split produced no chunks")
	}
	return chunks, nil
}
