package parser

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/lu4p/cat"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"

	"document-quiz/internal/models"
)

const pageSeparator = "\n"

var (
	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:cr/>`)
	tabTag       = regexp.MustCompile(`<w:tab/>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
)

// ExtractFile dispatches on the file extension and returns the document text.
func ExtractFile(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return ExtractText(data)
	case ".docx":
		return extractDOCX(data)
	case ".xlsx":
		return extractXLSX(data)
	case ".odt", ".rtf":
		return extractOther(ext, data)
	case ".txt", ".md":
		return extractPlain(data), nil
	default:
		return "", fmt.Errorf("%w: %w: %q", models.ErrExtraction, models.ErrUnsupportedFormat, ext)
	}
}

// ExtractText returns the plain text of a PDF, pages joined by a newline in
// page order. Pages that cannot be read contribute an empty string.
func ExtractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: unreadable pdf: %v", models.ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", models.ErrExtraction, err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		pages = append(pages, pageText(reader, i))
	}
	log.Debug().Int("pages", numPages).Msg("Extracted pdf")
	return strings.Join(pages, pageSeparator), nil
}

// pageText never fails; broken pages come back empty
func pageText(reader *pdf.Reader, i int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Int("page", i).Interface("panic", r).Msg("Skipping unreadable page")
			text = ""
		}
	}()

	page := reader.Page(i)
	if page.V.IsNull() {
		return ""
	}
	content, err := page.GetPlainText(nil)
	if err != nil {
		log.Warn().Err(err).Int("page", i).Msg("Skipping unreadable page")
		return ""
	}
	return content
}

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open docx: %w", models.ErrExtraction, err)
	}
	defer r.Close()

	raw := r.Editable().GetContent()
	raw = paragraphEnd.ReplaceAllString(raw, "\n")
	raw = tabTag.ReplaceAllString(raw, "\t")
	raw = xmlTag.ReplaceAllString(raw, "")

	var lines []string
	for _, line := range strings.Split(html.UnescapeString(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func extractXLSX(data []byte) (string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return "", fmt.Errorf("%w: open xlsx: %w", models.ErrExtraction, err)
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		text.WriteString(fmt.Sprintf("## Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			if row == nil {
				continue
			}
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			text.WriteString(strings.Join(cells, "\t"))
			text.WriteString("\n")
		}
	}
	return strings.TrimRight(text.String(), "\n"), nil
}

// extractOther covers the word processor formats cat understands
func extractOther(ext string, data []byte) (string, error) {
	text, err := cat.FromBytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", models.ErrExtraction, ext, err)
	}
	return strings.TrimSpace(text), nil
}

func extractPlain(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}
