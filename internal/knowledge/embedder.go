package knowledge

import (
	"context"
	"errors"
	"fmt"

	"crewdesk/pkg/llm"
)

// Embedder turns text into fixed-dimension vectors for the knowledge store.
type Embedder struct {
	client     llm.EmbeddingClient
	dimensions int
}

func NewEmbedder(client llm.EmbeddingClient, dimensions int) (*Embedder, error) {
	if client == nil {
		return nil, errors.New("embedding client is required")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("invalid embedding dimensions: %d", dimensions)
	}
	return &Embedder{client: client, dimensions: dimensions}, nil
}

func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}
	vectors, err := e.client.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, errors.New("no embedding returned")
	}
	if len(vectors[0]) != e.dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vectors[0]), e.dimensions)
	}
	return vectors[0], nil
}

// ZeroVector returns an all-zero embedding of the configured dimensions.
// Used when the embedding backend fails but a row must still be written
// with a well-formed vector column.
func (e *Embedder) ZeroVector() []float32 {
	return make([]float32, e.dimensions)
}
