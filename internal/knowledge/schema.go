package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// EnsureSchema creates the conversation tables, and the knowledge tables
// when an embedding dimension is known (dimensions <= 0 skips them). Safe to
// run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB, dimensions int) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			conversation_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			agent TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS chat_messages_conversation_idx
			ON chat_messages (conversation_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	if dimensions <= 0 {
		return nil
	}

	stmts = []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS agent_knowledge (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding vector(%d),
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS agent_knowledge_embedding_idx
			ON agent_knowledge USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return EnsureEmbeddingDimensions(ctx, db, dimensions)
}

// EnsureEmbeddingDimensions checks whether the embedding vector column matches
// the target dimension count. When they differ it truncates stale data, alters
// the column type, and rebuilds the HNSW index. Old embeddings come from a
// different model and cannot be meaningfully searched against new vectors.
func EnsureEmbeddingDimensions(ctx context.Context, db *sql.DB, target int) error {
	// pgvector stores the dimension count in atttypmod for vector(N) columns.
	var current int
	err := db.QueryRowContext(ctx, `
		SELECT atttypmod
		FROM pg_attribute
		WHERE attrelid = 'agent_knowledge'::regclass
		  AND attname = 'embedding'
	`).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query current embedding dimensions: %w", err)
	}

	if current == target {
		return nil
	}

	stmts := []string{
		`DROP INDEX IF EXISTS agent_knowledge_embedding_idx`,
		`TRUNCATE agent_knowledge`,
		fmt.Sprintf(`ALTER TABLE agent_knowledge ALTER COLUMN embedding TYPE vector(%d)`, target),
		`CREATE INDEX agent_knowledge_embedding_idx ON agent_knowledge USING hnsw (embedding vector_cosine_ops)`,
	}
	for _, stmt := range stmts {
		if _, execErr := db.ExecContext(ctx, stmt); execErr != nil {
			return fmt.Errorf("migrate embedding dimensions (%d to %d): %w", current, target, execErr)
		}
	}

	return nil
}
