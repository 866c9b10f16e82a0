// Package docx renders requirement documents as minimal WordprocessingML files.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/apsas/core/bundle"
)

const (
	Extension   = ".docx"
	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const (
	documentOpen  = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	documentClose = `<w:sectPr/></w:body></w:document>`
)

// font sizes, in half points
const (
	titleSize   = 36
	headingSize = 28
	subSize     = 24
)

type Renderer struct{}

var _ bundle.DocumentRenderer = Renderer{}

func NewRenderer() Renderer {
	return Renderer{}
}

func (Renderer) Extension() string {
	return Extension
}

func (Renderer) Render(w io.Writer, doc *bundle.Document) error {
	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{"word/document.xml", body(doc)},
	}
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		if err != nil {
			return errors.Wrapf(err, "creating %s", p.name)
		}
		if _, err = fw.Write(p.data); err != nil {
			return errors.Wrapf(err, "writing %s", p.name)
		}
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "closing document")
	}
	return nil
}

type builder struct {
	bytes.Buffer
}

// run writes a text run. Line breaks in text become <w:br/>.
func (b *builder) run(text string, bold bool, size int) {
	b.WriteString("<w:r>")
	if bold || size > 0 {
		b.WriteString("<w:rPr>")
		if bold {
			b.WriteString("<w:b/>")
		}
		if size > 0 {
			b.WriteString(`<w:sz w:val="` + strconv.Itoa(size) + `"/>`)
		}
		b.WriteString("</w:rPr>")
	}
	for i, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		_ = xml.EscapeText(b, []byte(line))
		b.WriteString("</w:t>")
	}
	b.WriteString("</w:r>")
}

func (b *builder) para(text string, bold bool, size int) {
	b.WriteString("<w:p>")
	b.run(text, bold, size)
	b.WriteString("</w:p>")
}

// labelled writes "label: text" with a bold label. Empty texts are skipped.
func (b *builder) labelled(label, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	b.WriteString("<w:p>")
	b.run(label+": ", true, 0)
	b.run(text, false, 0)
	b.WriteString("</w:p>")
}

func (b *builder) table(header []string, rows [][]string) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="0" w:type="auto"/>`)
	b.WriteString(`<w:tblBorders>`)
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		b.WriteString(`<w:` + side + ` w:val="single" w:sz="4" w:space="0" w:color="auto"/>`)
	}
	b.WriteString(`</w:tblBorders></w:tblPr>`)
	b.row(header, true)
	for _, r := range rows {
		b.row(r, false)
	}
	b.WriteString("</w:tbl>")
}

func (b *builder) row(cells []string, bold bool) {
	b.WriteString("<w:tr>")
	for _, c := range cells {
		b.WriteString("<w:tc>")
		b.para(c, bold, 0)
		b.WriteString("</w:tc>")
	}
	b.WriteString("</w:tr>")
}

func score(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func body(doc *bundle.Document) []byte {
	var b builder
	b.WriteString(documentOpen)
	b.para(doc.Title, true, titleSize)

	for _, p := range doc.Papers {
		b.para(p.Paper.Name, true, headingSize)
		if p.Paper.Description != "" {
			b.para(p.Paper.Description, false, 0)
		}

		for i, q := range p.Questions {
			num := i + 1
			if q.Question.QuestionNumber.Valid {
				num = q.Question.QuestionNumber.Int
			}
			b.para("Question "+strconv.Itoa(num)+" ("+score(q.Question.Score)+" points)", true, subSize)
			b.para(q.Question.QuestionText, false, 0)
			b.labelled("Sample input", q.Question.QuestionSampleInput)
			b.labelled("Sample output", q.Question.QuestionSampleOutput)

			if len(q.Rubric) > 0 {
				rows := make([][]string, 0, len(q.Rubric))
				for _, r := range q.Rubric {
					rows = append(rows, []string{r.Description, r.Input, r.Output, score(r.Score)})
				}
				b.table([]string{"Criteria", "Input", "Output", "Score"}, rows)
				// a table must be followed by a paragraph
				b.WriteString("<w:p/>")
			}
		}
	}

	b.WriteString(documentClose)
	return b.Bytes()
}
