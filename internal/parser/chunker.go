package parser

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"document-quiz/internal/config"
	"document-quiz/internal/models"
)

const (
	SplitterFixed     = "fixed"
	SplitterRecursive = "recursive"
)

// Chunker turns document text into overlapping chunks.
type Chunker struct {
	size     int
	overlap  int
	splitter string
}

// NewChunker validates the chunking parameters.
func NewChunker(cfg config.RAGConfig) (*Chunker, error) {
	if err := validateWindow(cfg.ChunkSize, cfg.ChunkOverlap); err != nil {
		return nil, err
	}
	splitter := cfg.Splitter
	if splitter == "" {
		splitter = SplitterFixed
	}
	if splitter != SplitterFixed && splitter != SplitterRecursive {
		return nil, fmt.Errorf("%w: unknown splitter %q", models.ErrConfig, splitter)
	}
	return &Chunker{size: cfg.ChunkSize, overlap: cfg.ChunkOverlap, splitter: splitter}, nil
}

// Split chunks text and tags every chunk with docID and its position.
func (c *Chunker) Split(docID, text string) ([]models.Chunk, error) {
	var (
		parts []string
		err   error
	)
	switch c.splitter {
	case SplitterRecursive:
		if text == "" {
			return []models.Chunk{}, nil
		}
		splitter := textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(c.size),
			textsplitter.WithChunkOverlap(c.overlap),
		)
		parts, err = splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("%w: split text: %w", models.ErrConfig, err)
		}
	default:
		parts, err = SplitText(text, c.size, c.overlap)
		if err != nil {
			return nil, err
		}
	}

	chunks := make([]models.Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, models.Chunk{DocumentID: docID, Index: i, Content: p})
	}
	return chunks, nil
}

// SplitText cuts text into windows of size characters, each starting
// size-overlap characters after the previous one. Every chunk but the last
// is exactly size characters long and consecutive chunks share exactly
// overlap characters. Lengths are counted in runes.
func SplitText(text string, size, overlap int) ([]string, error) {
	if err := validateWindow(size, overlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return []string{}, nil
	}

	step := size - overlap
	chunks := make([]string, 0, n/step+1)
	for start := 0; ; start += step {
		end := min(start+size, n)
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return chunks, nil
}

func validateWindow(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", models.ErrConfig, overlap, size)
	}
	return nil
}
