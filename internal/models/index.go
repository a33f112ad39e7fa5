package models

import "context"

// ScoredChunk is a search hit, higher Similarity is closer.
type ScoredChunk struct {
	Chunk
	Similarity float32 `json:"similarity"`
}

// Index is a nearest-neighbour index over one document's chunks.
type Index interface {
	// Search returns at most k chunks ordered by decreasing similarity.
	Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)
	Count() int
	// Close releases whatever the index holds in its backend.
	Close(ctx context.Context) error
}

// IndexStore builds an Index from embedded chunks. Either every chunk is
// stored or Build fails and nothing is left behind.
type IndexStore interface {
	Build(ctx context.Context, docID string, items []ChunkEmbedding) (Index, error)
}
