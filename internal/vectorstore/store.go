// Package vectorstore holds embedded chunks in per-collection segments and
// answers nearest-neighbour queries over them.
package vectorstore

import (
	"context"

	"github.com/var1ableX/langconnect-client/internal/envelope"
	"github.com/var1ableX/langconnect-client/internal/model"
)

// Store is addressed by storage handle. Callers resolve and authorize the
// collection before reaching it.
type Store interface {
	// CreateOrOpen makes sure a segment named handle exists, storing env on
	// creation. Opening an existing handle leaves its envelope alone.
	CreateOrOpen(ctx context.Context, handle string, env envelope.Envelope) error
	// AddChunks embeds and stores chunks, returning one new id per chunk in
	// input order.
	AddChunks(ctx context.Context, handle string, chunks []model.Chunk) ([]string, error)
	// SimilaritySearch returns up to k chunks closest to query. Score is
	// cosine similarity, higher is closer.
	SimilaritySearch(ctx context.Context, handle string, query string, k int) ([]model.SearchResult, error)
}
