package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
)

// Passage is a stored knowledge entry with its retrieval similarity.
type Passage struct {
	ID         string
	Title      string
	Content    string
	Metadata   map[string]any
	Similarity float64
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Search returns the passages closest to the query embedding, ordered by
// cosine distance. Similarity is 1 - distance, so higher is closer.
func (s *Store) Search(ctx context.Context, embedding []float32, limit int) ([]Passage, error) {
	if len(embedding) == 0 {
		return nil, errors.New("embedding is required")
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id,
			title,
			content,
			metadata,
			1 - (embedding <=> $1) AS similarity
		FROM agent_knowledge
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("search knowledge: %w", err)
	}
	defer rows.Close()

	var passages []Passage
	for rows.Next() {
		var passage Passage
		var metadataBytes []byte
		if err := rows.Scan(
			&passage.ID,
			&passage.Title,
			&passage.Content,
			&metadataBytes,
			&passage.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scan knowledge passage: %w", err)
		}
		if len(metadataBytes) > 0 {
			if err := json.Unmarshal(metadataBytes, &passage.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		passages = append(passages, passage)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate knowledge passages: %w", err)
	}

	return passages, nil
}

// Insert stores a single passage with its embedding.
func (s *Store) Insert(ctx context.Context, title, content string, embedding []float32, metadata map[string]any) error {
	if content == "" {
		return errors.New("content is required")
	}
	if len(embedding) == 0 {
		return errors.New("embedding is required")
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataBytes, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_knowledge (title, content, embedding, metadata)
		VALUES ($1, $2, $3, $4)
	`, title, content, pgvector.NewVector(embedding), metadataBytes); err != nil {
		return fmt.Errorf("insert knowledge passage: %w", err)
	}
	return nil
}

// Count returns the number of stored passages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agent_knowledge`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count knowledge passages: %w", err)
	}
	return count, nil
}
