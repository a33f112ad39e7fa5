package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"document-quiz/internal/models"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// Markdown renders the quiz as a markdown document.
func Markdown(quiz models.Quiz, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", Title)
	for i, item := range quiz {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", questionHeading(i, opts), item.Question)
		for _, c := range item.Choices {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		if opts.IncludeAnswers {
			fmt.Fprintf(&b, "\n*Answer: %s*\n", item.Answer)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// HTML converts the markdown rendering into a standalone page.
func HTML(quiz models.Quiz, opts Options) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(quiz, opts)), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head><body>\n", Title)
	out.Write(body.Bytes())
	out.WriteString("</body></html>\n")
	return out.Bytes(), nil
}
