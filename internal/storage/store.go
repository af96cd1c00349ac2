// Package storage persists embedded note chunks and quiz results in SQLite.
// Embeddings are stored as little-endian float32 BLOBs and searched with
// in-process cosine similarity, which is plenty fast for the size of a
// personal notes collection.
package storage

import (
	"context"
	"time"

	"quizforge/internal/document"
)

// VectorItem pairs a chunk with its embedding.
type VectorItem struct {
	Chunk     document.Chunk
	Embedding []float32
}

// ScoredChunk is a search hit with its cosine similarity to the query.
type ScoredChunk struct {
	Chunk document.Chunk
	Score float32
}

// VectorStore holds embedded chunks grouped into named collections.
type VectorStore interface {
	// AddChunks upserts items into a collection.
	AddChunks(ctx context.Context, collection string, items []VectorItem) error

	// Search returns the topK chunks most similar to the query vector,
	// ordered by descending similarity.
	Search(ctx context.Context, collection string, query []float32, topK int) ([]ScoredChunk, error)

	// CountChunks reports how many chunks a collection holds.
	CountChunks(ctx context.Context, collection string) (int, error)

	// DeleteCollection removes a collection and all its chunks.
	DeleteCollection(ctx context.Context, collection string) error
}

// QuizResult is one completed quiz session.
type QuizResult struct {
	ID         string
	Name       string
	Topic      string
	Score      int
	Total      int
	Percentage float64
	TakenAt    time.Time
}

// ResultStore records quiz outcomes for the history view.
type ResultStore interface {
	SaveResult(ctx context.Context, result QuizResult) error
	ListResults(ctx context.Context) ([]QuizResult, error)
}

// Store combines vector and quiz-result storage.
type Store interface {
	VectorStore
	ResultStore
	Close() error
}
