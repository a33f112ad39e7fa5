package parser

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"document-quiz/internal/config"
	"document-quiz/internal/models"
)

// joinChunks rebuilds the source text from fixed windows: every chunk after
// the first contributes everything past its leading overlap.
func joinChunks(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(string([]rune(c)[overlap:]))
	}
	return b.String()
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		size    int
		overlap int
		want    int
	}{
		{"shorter than window", 500, 1000, 200, 1},
		{"exactly one window", 1000, 1000, 200, 1},
		{"two windows", 1500, 1000, 200, 2},
		{"many windows", 2500, 1000, 200, 3},
		{"no overlap", 30, 10, 0, 3},
		{"one char past window", 11, 10, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("abcdefghij", tt.length/10+1)[:tt.length]
			chunks, err := SplitText(text, tt.size, tt.overlap)
			if err != nil {
				t.Fatalf("split: %v", err)
			}
			if len(chunks) != tt.want {
				t.Fatalf("chunks: got %d want %d", len(chunks), tt.want)
			}
			for i, c := range chunks[:len(chunks)-1] {
				if l := utf8.RuneCountInString(c); l != tt.size {
					t.Fatalf("chunk %d: got length %d want %d", i, l, tt.size)
				}
				next := chunks[i+1]
				if tail, head := c[len(c)-tt.overlap:], next[:tt.overlap]; tail != head {
					t.Fatalf("chunk %d overlap mismatch: %q vs %q", i, tail, head)
				}
			}
			if len(chunks) > 1 && utf8.RuneCountInString(chunks[len(chunks)-1]) <= tt.overlap {
				t.Fatalf("last chunk must be longer than the overlap")
			}
			if got := joinChunks(chunks, tt.overlap); got != text {
				t.Fatalf("reconstruction mismatch")
			}
		})
	}
}

func TestSplitText_Empty(t *testing.T) {
	chunks, err := SplitText("", 1000, 200)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if chunks == nil || len(chunks) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", chunks)
	}
}

func TestSplitText_InvalidWindow(t *testing.T) {
	for _, tc := range []struct{ size, overlap int }{{100, 100}, {100, 150}, {0, 0}, {-5, 0}, {10, -1}} {
		if _, err := SplitText("some text", tc.size, tc.overlap); !errors.Is(err, models.ErrConfig) {
			t.Errorf("size=%d overlap=%d: expected ErrConfig, got %v", tc.size, tc.overlap, err)
		}
	}
}

func TestSplitText_Multibyte(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 20)
	chunks, err := SplitText(text, 25, 5)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid utf-8", i)
		}
	}
	if joinChunks(chunks, 5) != text {
		t.Fatalf("reconstruction mismatch")
	}
}

func TestSplitText_Deterministic(t *testing.T) {
	text := strings.Repeat("the quick brown fox ", 200)
	a, _ := SplitText(text, 300, 50)
	b, _ := SplitText(text, 300, 50)
	if len(a) != len(b) {
		t.Fatalf("lengths differ")
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs", i)
		}
	}
}

func TestChunker_Split(t *testing.T) {
	c, err := NewChunker(config.RAGConfig{ChunkSize: 10, ChunkOverlap: 2})
	if err != nil {
		t.Fatalf("new chunker: %v", err)
	}
	chunks, err := c.Split("doc-1", strings.Repeat("x", 25))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("chunks: got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.DocumentID != "doc-1" || ch.Index != i {
			t.Errorf("chunk %d: got %+v", i, ch)
		}
	}
}

func TestChunker_Recursive(t *testing.T) {
	c, err := NewChunker(config.RAGConfig{ChunkSize: 40, ChunkOverlap: 5, Splitter: SplitterRecursive})
	if err != nil {
		t.Fatalf("new chunker: %v", err)
	}
	text := "First paragraph about photosynthesis.\n\nSecond paragraph about chlorophyll.\n\nThird one."
	chunks, err := c.Split("doc-2", text)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for _, ch := range chunks {
		if utf8.RuneCountInString(ch.Content) > 40 {
			t.Errorf("chunk exceeds size: %q", ch.Content)
		}
	}
}

func TestNewChunker_Invalid(t *testing.T) {
	if _, err := NewChunker(config.RAGConfig{ChunkSize: 100, ChunkOverlap: 100}); !errors.Is(err, models.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if _, err := NewChunker(config.RAGConfig{ChunkSize: 100, Splitter: "sentences"}); !errors.Is(err, models.ErrConfig) {
		t.Fatalf("expected ErrConfig for unknown splitter, got %v", err)
	}
}
