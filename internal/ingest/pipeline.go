// Package ingest builds the notes knowledge base: it loads a folder of study
// notes, cleans and chunks them, embeds each chunk, and stores the result in
// a vector store collection.
package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"quizforge/internal/document"
	"quizforge/internal/knowledge"
	"quizforge/internal/splitter"
	"quizforge/internal/storage"

	"github.com/charmbracelet/log"
)

const defaultBatchSize = 64

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	Loader    *document.Loader
	Splitter  splitter.Splitter
	Embedder  knowledge.Embedder
	Store     storage.VectorStore
	Logger    *log.Logger
	BatchSize int
}

// Summary reports what an ingestion run produced.
type Summary struct {
	Documents int
	Chunks    int
}

// IngestFolder rebuilds a collection from every supported file in dir.
// The collection is replaced, not merged: stale chunks from removed notes
// would otherwise survive forever.
func (p *Pipeline) IngestFolder(ctx context.Context, dir, collection string) (*Summary, error) {
	logger := p.logger()

	docs, err := p.Loader.LoadFolder(dir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no supported notes found in %s (use .pdf, .txt, .md, .html)", dir)
	}
	logger.Info("loaded notes", "dir", dir, "documents", len(docs))

	var chunks []document.Chunk
	for _, doc := range docs {
		doc.Text = document.CleanPreserveLines(doc.Text)
		docChunks, err := splitter.SplitDocument(ctx, p.Splitter, doc)
		if err != nil {
			return nil, err
		}
		for i := range docChunks {
			docChunks[i].Metadata["topic"] = ExtractTopic(docChunks[i].Text)
		}
		logger.Debug("split document", "source", doc.ID, "chunks", len(docChunks))
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced from %d documents", len(docs))
	}

	if err := p.Store.DeleteCollection(ctx, collection); err != nil {
		return nil, fmt.Errorf("failed to reset collection: %w", err)
	}

	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	total := (len(chunks) + batchSize - 1) / batchSize
	for i := 0; i < len(chunks); i += batchSize {
		end := min(i+batchSize, len(chunks))
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Text
		}
		vectors, err := p.Embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(vectors), len(batch))
		}

		items := make([]storage.VectorItem, len(batch))
		for j := range batch {
			items[j] = storage.VectorItem{Chunk: batch[j], Embedding: vectors[j]}
		}
		if err := p.Store.AddChunks(ctx, collection, items); err != nil {
			return nil, fmt.Errorf("failed to store batch: %w", err)
		}
		logger.Info("inserted batch", "batch", i/batchSize+1, "of", total, "chunks", len(batch))
	}

	return &Summary{Documents: len(docs), Chunks: len(chunks)}, nil
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

var headingLine = regexp.MustCompile(`(?m)^#+\s*(.+)$`)

// ExtractTopic labels a chunk with its markdown heading, or its first line
// when no heading is present.
func ExtractTopic(text string) string {
	if m := headingLine.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	first, _, _ := strings.Cut(text, "\n")
	if len(first) > 50 {
		first = first[:50]
	}
	return strings.TrimSpace(first)
}
