package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"document-quiz/internal/models"
)

const bodyPlaceholder = `<w:p><w:r><w:t>QUIZ_BODY</w:t></w:r></w:p>`

// skeleton is the smallest package Word opens; the body is filled in later.
var skeleton = map[string]string{
	"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
	"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`,
	"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + bodyPlaceholder + `<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr></w:body></w:document>`,
}

// DOCX writes the quiz as a Word document: a title, then per question a
// heading, the question text, its choices and optionally the answer.
func DOCX(quiz models.Quiz, opts Options) ([]byte, error) {
	tmpl, err := skeletonPackage()
	if err != nil {
		return nil, err
	}
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(tmpl), int64(len(tmpl)))
	if err != nil {
		return nil, fmt.Errorf("open docx template: %w", err)
	}
	defer r.Close()

	var body strings.Builder
	body.WriteString(paragraph(Title, runStyle{bold: true, size: 36}))
	for i, item := range quiz {
		body.WriteString(paragraph(questionHeading(i, opts), runStyle{bold: true, size: 28}))
		body.WriteString(paragraph(item.Question, runStyle{}))
		for _, c := range item.Choices {
			body.WriteString(paragraph(c, runStyle{indent: true}))
		}
		if opts.IncludeAnswers {
			body.WriteString(paragraph("Answer: "+item.Answer, runStyle{italic: true}))
		}
	}

	doc := r.Editable()
	doc.ReplaceRaw(bodyPlaceholder, body.String(), 1)

	var out bytes.Buffer
	if err := doc.Write(&out); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return out.Bytes(), nil
}

func skeletonPackage() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/_rels/document.xml.rels", "word/document.xml"} {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(skeleton[name])); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type runStyle struct {
	bold, italic, indent bool
	size                 int // half-points
}

func paragraph(text string, s runStyle) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	if s.indent {
		b.WriteString(`<w:pPr><w:ind w:left="720"/></w:pPr>`)
	}
	b.WriteString("<w:r>")
	if s.bold || s.italic || s.size > 0 {
		b.WriteString("<w:rPr>")
		if s.bold {
			b.WriteString("<w:b/>")
		}
		if s.italic {
			b.WriteString("<w:i/>")
		}
		if s.size > 0 {
			fmt.Fprintf(&b, `<w:sz w:val="%d"/>`, s.size)
		}
		b.WriteString("</w:rPr>")
	}
	b.WriteString(`<w:t xml:space="preserve">`)
	_ = xml.EscapeText(&b, []byte(text))
	b.WriteString("</w:t></w:r></w:p>")
	return b.String()
}
