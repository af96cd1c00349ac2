// Package rag answers questions from the ingested notes: it retrieves the
// most similar chunks for a question and asks a chat model to answer from
// those chunks alone.
package rag

import (
	"context"
	"fmt"
	"strings"

	"quizforge/internal/knowledge"
	"quizforge/internal/storage"
)

const defaultTopK = 5

// Retriever turns a question into an embedding and looks up the closest
// chunks in a collection.
type Retriever struct {
	Embedder   knowledge.Embedder
	Store      storage.VectorStore
	Collection string
	TopK       int
}

// Retrieve returns the TopK chunks most similar to the question, best first.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]storage.ScoredChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	vectors, err := r.Embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(vectors))
	}

	topK := r.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return r.Store.Search(ctx, r.Collection, vectors[0], topK)
}
