package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT NOT NULL,
			collection TEXT NOT NULL,
			document_id TEXT,
			chunk_index INTEGER,
			content TEXT,
			metadata JSON,
			embedding BLOB,
			PRIMARY KEY (id, collection)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection);`,
		`CREATE TABLE IF NOT EXISTS quiz_results (
			id TEXT PRIMARY KEY,
			name TEXT,
			topic TEXT,
			score INTEGER,
			total INTEGER,
			percentage REAL,
			taken_at TIMESTAMP
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- VectorStore Implementation ---

func (s *SQLiteStore) AddChunks(ctx context.Context, collection string, items []VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	dim := len(items[0].Embedding)
	for _, item := range items {
		if len(item.Embedding) != dim {
			return fmt.Errorf("inconsistent embedding dimension in batch: %d vs %d", len(item.Embedding), dim)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// The collection pins its dimension on first insert; later batches must match.
	var existing int
	err = tx.QueryRowContext(ctx, "SELECT dimension FROM collections WHERE name = ?", collection).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		if _, err := tx.ExecContext(ctx, "INSERT INTO collections (name, dimension) VALUES (?, ?)", collection, dim); err != nil {
			return err
		}
	case err != nil:
		return err
	case existing != 0 && existing != dim:
		return fmt.Errorf("collection %q stores %d-dimensional embeddings, got %d", collection, existing, dim)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, collection, document_id, chunk_index, content, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, collection) DO UPDATE SET
			document_id=excluded.document_id,
			chunk_index=excluded.chunk_index,
			content=excluded.content,
			metadata=excluded.metadata,
			embedding=excluded.embedding
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, item := range items {
		metadata, err := json.Marshal(item.Chunk.Metadata)
		if err != nil {
			return err
		}
		blob, err := encodeEmbedding(item.Embedding)
		if err != nil {
			return err
		}
		c := item.Chunk
		if _, err := stmt.ExecContext(ctx, c.ID, collection, c.DocumentID, c.Index, c.Text, metadata, blob); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Search(ctx context.Context, collection string, query []float32, topK int) ([]ScoredChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, document_id, chunk_index, content, metadata, embedding FROM chunks WHERE collection = ?",
		collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []ScoredChunk
	for rows.Next() {
		sc, err := scanScoredChunk(rows, query)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func (s *SQLiteStore) CountChunks(ctx context.Context, collection string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE collection = ?", collection).Scan(&count)
	return count, err
}

func (s *SQLiteStore) DeleteCollection(ctx context.Context, collection string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE collection = ?", collection); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", collection); err != nil {
		return err
	}
	return tx.Commit()
}

// --- ResultStore Implementation ---

func (s *SQLiteStore) SaveResult(ctx context.Context, result QuizResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_results (id, name, topic, score, total, percentage, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.ID, result.Name, result.Topic, result.Score, result.Total, result.Percentage, result.TakenAt)
	return err
}

func (s *SQLiteStore) ListResults(ctx context.Context) ([]QuizResult, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, topic, score, total, percentage, taken_at FROM quiz_results ORDER BY taken_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []QuizResult
	for rows.Next() {
		var r QuizResult
		if err := rows.Scan(&r.ID, &r.Name, &r.Topic, &r.Score, &r.Total, &r.Percentage, &r.TakenAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- helpers ---

type chunkRows interface {
	Scan(dest ...any) error
}

func scanScoredChunk(rows chunkRows, query []float32) (ScoredChunk, error) {
	var sc ScoredChunk
	var metadata, blob []byte
	c := &sc.Chunk
	if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text, &metadata, &blob); err != nil {
		return sc, err
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &c.Metadata)
	}

	embedding, err := decodeEmbedding(blob)
	if err != nil {
		return sc, err
	}
	sc.Score = cosineSimilarity(query, embedding)
	return sc, nil
}

func encodeEmbedding(vec []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeEmbedding(blob []byte) ([]float32, error) {
	vec := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float32
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(magA))) * float32(math.Sqrt(float64(magB))))
}
