package embedding

import (
	"context"
	"errors"
	"testing"

	"document-quiz/internal/config"
	"document-quiz/internal/models"
)

type stubEmbedder struct {
	vectors [][]float32
	err     error
}

func (s *stubEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return s.vectors, s.err
}

func (s *stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.vectors) == 0 {
		return nil, nil
	}
	return s.vectors[0], nil
}

func chunks(n int) []models.Chunk {
	out := make([]models.Chunk, n)
	for i := range out {
		out[i] = models.Chunk{DocumentID: "d", Index: i, Content: "chunk"}
	}
	return out
}

func TestEmbedChunks(t *testing.T) {
	tests := []struct {
		name    string
		stub    *stubEmbedder
		n       int
		wantErr bool
	}{
		{"aligned", &stubEmbedder{vectors: [][]float32{{1, 0}, {0, 1}}}, 2, false},
		{"count mismatch", &stubEmbedder{vectors: [][]float32{{1, 0}}}, 2, true},
		{"ragged dimensions", &stubEmbedder{vectors: [][]float32{{1, 0}, {1}}}, 2, true},
		{"empty vector", &stubEmbedder{vectors: [][]float32{{}, {}}}, 2, true},
		{"transport failure", &stubEmbedder{err: errors.New("connection refused")}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := EmbedChunks(context.Background(), tt.stub, chunks(tt.n))
			if tt.wantErr {
				if !errors.Is(err, models.ErrEmbedding) {
					t.Fatalf("expected ErrEmbedding, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("embed: %v", err)
			}
			if len(out) != tt.n || out[1].Index != 1 {
				t.Fatalf("unexpected result %+v", out)
			}
		})
	}
}

func TestEmbedChunks_NoChunks(t *testing.T) {
	out, err := EmbedChunks(context.Background(), &stubEmbedder{err: errors.New("must not be called")}, nil)
	if err != nil || len(out) != 0 {
		t.Fatalf("got %v, %v", out, err)
	}
}

func TestEmbedQuery_Empty(t *testing.T) {
	if _, err := EmbedQuery(context.Background(), &stubEmbedder{}, "q"); !errors.Is(err, models.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	a, _ := e.EmbedQuery(ctx, "Photosynthesis happens in chloroplasts")
	b, _ := e.EmbedQuery(ctx, "Photosynthesis happens in chloroplasts")
	if len(a) != 256 {
		t.Fatalf("dimension: got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("not deterministic at %d", i)
		}
	}

	docs, err := e.EmbedDocuments(ctx, []string{"chloroplasts photosynthesis light", "tax law court ruling"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if dot(a, docs[0]) <= dot(a, docs[1]) {
		t.Fatalf("related text should score higher")
	}

	blank, _ := e.EmbedQuery(ctx, "  ")
	if blank[0] != 1 {
		t.Fatalf("blank text should map to a unit vector")
	}
}

func TestNewEmbedder_Unknown(t *testing.T) {
	if _, err := NewEmbedder(&config.EmbedConfig{Provider: "sentence-transformers"}); !errors.Is(err, models.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
