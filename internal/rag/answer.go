package rag

import (
	"context"
	"fmt"
	"strings"

	"quizforge/internal/knowledge"
	"quizforge/internal/storage"
)

const answerTemperature = 0.2

const qaSystemPrompt = "You are a helpful assistant. Answer ONLY using the given context. " +
	"If the context does not contain the answer, say: " +
	"'I don't have enough information in the provided documents.'"

// Answerer answers a single question from retrieved chunks.
type Answerer struct {
	Retriever *Retriever
	Chat      knowledge.ChatModel
}

// Result holds the generated answer together with the chunks it was
// grounded on, so callers can show sources.
type Result struct {
	Answer string
	Chunks []storage.ScoredChunk
}

// Answer retrieves context for the question and asks the chat model to
// answer from that context only.
func (a *Answerer) Answer(ctx context.Context, question string) (*Result, error) {
	chunks, err := a.Retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("collection %q is empty, run ingest first", a.Retriever.Collection)
	}

	userPrompt := fmt.Sprintf(`CONTEXT (retrieved from documents):
%s

USER QUESTION:
%s

INSTRUCTIONS:
- Use only the context.
- Keep the answer short and clear.
- If unsure, say you don't have enough information.`, BuildContext(chunks), question)

	answer, err := a.Chat.Complete(ctx, []knowledge.Message{
		{Role: knowledge.RoleSystem, Content: qaSystemPrompt},
		{Role: knowledge.RoleUser, Content: userPrompt},
	}, answerTemperature)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	return &Result{Answer: strings.TrimSpace(answer), Chunks: chunks}, nil
}

// BuildContext renders retrieved chunks as a numbered context block with
// their source and similarity score.
func BuildContext(chunks []storage.ScoredChunk) string {
	lines := make([]string, 0, len(chunks))
	for i, sc := range chunks {
		source := sc.Chunk.Metadata["source"]
		if source == "" {
			source = "unknown"
		}
		lines = append(lines, fmt.Sprintf("[%d] (source=%s, chunk=%d, score=%.4f)\n%s",
			i+1, source, sc.Chunk.Index, sc.Score, sc.Chunk.Text))
	}
	return strings.Join(lines, "\n\n")
}
