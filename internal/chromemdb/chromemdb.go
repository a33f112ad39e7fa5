package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"document-quiz/internal/models"
)

const (
	collectionPrefix = "doc-"
	metaDocumentID   = "document_id"
	metaChunkIndex   = "chunk_index"
)

var errExternalEmbeddings = errors.New("chunks must be embedded before indexing")

// VectorDBManager keeps one in-memory chromem collection per document.
type VectorDBManager struct {
	db *chromem.DB
}

// NewVectorDBManager initializes an in-memory vector database
func NewVectorDBManager() *VectorDBManager {
	return &VectorDBManager{db: chromem.NewDB()}
}

// Build replaces the collection for docID with items.
func (m *VectorDBManager) Build(ctx context.Context, docID string, items []models.ChunkEmbedding) (models.Index, error) {
	name := collectionPrefix + docID
	// a rebuilt document starts from an empty collection
	if err := m.db.DeleteCollection(name); err != nil {
		return nil, fmt.Errorf("%w: reset collection %s: %w", models.ErrEmbedding, name, err)
	}

	c, err := m.db.CreateCollection(name, map[string]string{metaDocumentID: docID}, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("%w: create collection %s: %w", models.ErrEmbedding, name, err)
	}

	docs := make([]chromem.Document, len(items))
	for i, it := range items {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("%s-%d", docID, it.Index),
			Content:   it.Content,
			Embedding: it.Embedding,
			Metadata: map[string]string{
				metaDocumentID: docID,
				metaChunkIndex: strconv.Itoa(it.Index),
			},
		}
	}

	if len(docs) > 0 {
		if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			_ = m.db.DeleteCollection(name)
			return nil, fmt.Errorf("%w: add documents: %w", models.ErrEmbedding, err)
		}
	}
	log.Debug().Str("collection", name).Int("documents", c.Count()).Msg("Built index")
	return &Index{manager: m, collection: c, docID: docID}, nil
}

// Collections lists the live per-document collections
func (m *VectorDBManager) Collections() []string {
	names := make([]string, 0)
	for name := range m.db.ListCollections() {
		names = append(names, name)
	}
	return names
}

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errExternalEmbeddings
}

// Index is a read view over one document's collection.
type Index struct {
	manager    *VectorDBManager
	collection *chromem.Collection
	docID      string
}

func (i *Index) Count() int {
	return i.collection.Count()
}

// Search runs a similarity query; k is clamped to the number of chunks.
func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]models.ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", models.ErrEmbedding)
	}
	n := min(k, i.collection.Count())
	if n <= 0 {
		return []models.ScoredChunk{}, nil
	}

	results, err := i.collection.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: query by similarity: %w", models.ErrEmbedding, err)
	}

	hits := make([]models.ScoredChunk, 0, len(results))
	for _, r := range results {
		idx, _ := strconv.Atoi(r.Metadata[metaChunkIndex])
		hits = append(hits, models.ScoredChunk{
			Chunk:      models.Chunk{DocumentID: i.docID, Index: idx, Content: r.Content},
			Similarity: r.Similarity,
		})
	}
	return hits, nil
}

// delete collection
func (i *Index) Close(context.Context) error {
	if err := i.manager.db.DeleteCollection(i.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}
