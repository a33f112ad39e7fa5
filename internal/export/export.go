package export

import (
	"fmt"
	"strings"

	"document-quiz/internal/models"
)

type Format string

const (
	FormatDOCX     Format = "docx"
	FormatXLSX     Format = "xlsx"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"

	Title = "Multiple Choice Questions"
)

// ParseFormat accepts a format name or file extension; empty means DOCX.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "", "docx", "word":
		return FormatDOCX, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("%w: export format %q", models.ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

type Options struct {
	IncludeAnswers    bool
	PointsPerQuestion int
}

// Export renders quiz in the given format.
func Export(quiz models.Quiz, format Format, opts Options) ([]byte, error) {
	if len(quiz) == 0 {
		return nil, models.ErrNoQuiz
	}
	switch format {
	case FormatDOCX:
		return DOCX(quiz, opts)
	case FormatXLSX:
		return XLSX(quiz, opts)
	case FormatMarkdown:
		return []byte(Markdown(quiz, opts)), nil
	case FormatHTML:
		return HTML(quiz, opts)
	default:
		return nil, fmt.Errorf("%w: export format %q", models.ErrUnsupportedFormat, format)
	}
}

func questionHeading(i int, opts Options) string {
	return fmt.Sprintf("Question %d (%d points)", i+1, opts.PointsPerQuestion)
}
