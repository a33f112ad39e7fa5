package db

import (
	"context"
	"errors"
	"testing"

	"document-quiz/internal/config"
	"document-quiz/internal/models"
)

func TestToRecords(t *testing.T) {
	items := []models.ChunkEmbedding{
		{Chunk: models.Chunk{DocumentID: "ignored", Index: 3, Content: "alpha"}, Embedding: []float32{0.1, 0.2}},
	}
	records := toRecords("doc-1", items)
	if len(records) != 1 {
		t.Fatalf("records: got %d", len(records))
	}
	r := records[0]
	if r.DocumentID != "doc-1" || r.ChunkIndex != 3 || r.Content != "alpha" {
		t.Fatalf("unexpected record %+v", r)
	}
	if got := r.Embedding.Slice(); len(got) != 2 || got[1] != 0.2 {
		t.Fatalf("embedding: got %v", got)
	}
}

func TestToHits(t *testing.T) {
	hits := toHits([]ChunkRecord{
		{DocumentID: "d", ChunkIndex: 0, Content: "near", Distance: 0.1},
		{DocumentID: "d", ChunkIndex: 4, Content: "far", Distance: 0.7},
	})
	if hits[0].Similarity <= hits[1].Similarity {
		t.Fatalf("closer rows must have higher similarity: %+v", hits)
	}
	if hits[1].Index != 4 {
		t.Fatalf("index: got %d", hits[1].Index)
	}
}

func TestConnectDB_EmptyDSN(t *testing.T) {
	if _, err := ConnectDB(&config.DatabaseConfig{}); !errors.Is(err, models.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestSearch_EmptyIndexSkipsQuery(t *testing.T) {
	// a nil db proves no query is issued
	idx := &Index{docID: "d"}
	hits, err := idx.Search(context.Background(), []float32{1}, 4)
	if err != nil || len(hits) != 0 {
		t.Fatalf("got %v, %v", hits, err)
	}
}
