// Package splitter breaks note text into chunks sized for embedding. Four
// strategies are available: plain character windows, recursive separator
// descent, semantic grouping by embedding distance, and LLM-driven (agentic)
// splitting.
package splitter

import (
	"context"
	"fmt"
	"strings"

	"quizforge/internal/document"
	"quizforge/internal/knowledge"
)

// Splitter turns a text into ordered chunks.
type Splitter interface {
	Split(ctx context.Context, text string) ([]string, error)
}

// Options configures the splitter factory. Embedder is required for the
// semantic strategy, Chat for the agentic one.
type Options struct {
	Size     int
	Overlap  int
	Embedder knowledge.Embedder
	Chat     knowledge.ChatModel
}

// New builds a Splitter for the named strategy.
func New(strategy string, opts Options) (Splitter, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", "recursive":
		return NewRecursive(opts.Size, opts.Overlap), nil
	case "character":
		return NewCharacter(opts.Size, opts.Overlap), nil
	case "semantic":
		if opts.Embedder == nil {
			return nil, fmt.Errorf("semantic splitting requires an embedder")
		}
		return NewSemantic(opts.Embedder), nil
	case "agentic":
		if opts.Chat == nil {
			return nil, fmt.Errorf("agentic splitting requires a chat model")
		}
		return NewAgentic(opts.Chat, opts.Size), nil
	default:
		return nil, fmt.Errorf("unsupported splitting strategy: %s", strategy)
	}
}

// SplitDocument runs a splitter over a document and wraps the pieces as
// chunks, carrying the document metadata and assigning stable IDs.
func SplitDocument(ctx context.Context, s Splitter, doc *document.Document) ([]document.Chunk, error) {
	pieces, err := s.Split(ctx, doc.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", doc.ID, err)
	}

	chunks := make([]document.Chunk, 0, len(pieces))
	for i, text := range pieces {
		meta := make(map[string]string, len(doc.Metadata)+1)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta["chunk_index"] = fmt.Sprintf("%d", i)

		chunks = append(chunks, document.Chunk{
			ID:         fmt.Sprintf("%s::chunk_%d", doc.ID, i),
			DocumentID: doc.ID,
			Index:      i,
			Text:       text,
			Metadata:   meta,
		})
	}
	return chunks, nil
}
