package extraction

import (
	"archive/zip"
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/xrd-pattern/internal/xrd"
)

const wordNamespace = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// buildDocx packs a minimal Word archive around the given body XML
func buildDocx(body string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml":            `<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNamespace + `><w:body>` + body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		Expect(err).NotTo(HaveOccurred())
		_, err = w.Write([]byte(content))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(zw.Close()).To(Succeed())
	return buf.Bytes()
}

// paragraph wraps each run text in its own w:r element
func paragraph(runs ...string) string {
	var p strings.Builder
	p.WriteString("<w:p>")
	for _, run := range runs {
		p.WriteString(`<w:r><w:t xml:space="preserve">` + run + `</w:t></w:r>`)
	}
	p.WriteString("</w:p>")
	return p.String()
}

var _ = Describe("Docx", func() {
	var (
		data []byte
		text string
		err  error
	)

	JustBeforeEach(func() {
		text, err = (&Docx{}).ExtractText(data, ContentTypeDocx)
	})

	When("the document holds a scan report", func() {
		BeforeEach(func() {
			data = buildDocx(
				paragraph("Sample ", "ZrC-07") +
					paragraph("FirstAngle 10.0") +
					paragraph("ScanRange 90.0") +
					paragraph("StepWidth 0.02") +
					paragraph("ScanData") +
					paragraph("1.0") + paragraph("2.0") + paragraph("3.0"),
			)
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should put each paragraph on its own line", func() {
			Expect(strings.Split(strings.TrimSpace(text), "\n")).To(HaveLen(8))
		})

		It("should parse as a scan record", func() {
			record, parseErr := xrd.Parse(text)
			Expect(parseErr).NotTo(HaveOccurred())
			Expect(record.SampleName).To(Equal("ZrC-07"))
			Expect(record.Intensities).To(Equal([]float64{1, 2, 3}))
		})
	})

	When("a word is split across runs", func() {
		BeforeEach(func() {
			data = buildDocx(paragraph("First", "Angle", " 10"))
		})

		It("should join the runs", func() {
			Expect(text).To(Equal("FirstAngle 10\n"))
		})
	})

	When("values are separated by tabs and breaks", func() {
		BeforeEach(func() {
			data = buildDocx(`<w:p><w:r><w:t>1</w:t><w:tab/><w:t>2</w:t><w:br/><w:t>3</w:t></w:r></w:p>`)
		})

		It("should keep them as separate tokens", func() {
			Expect(text).To(Equal("1\t2\n3\n"))
		})
	})

	When("the document has a table", func() {
		BeforeEach(func() {
			data = buildDocx(`<w:tbl><w:tr><w:tc>` + paragraph("StepWidth") + `</w:tc><w:tc>` + paragraph("0.02") + `</w:tc></w:tr></w:tbl>`)
		})

		It("should separate the cells", func() {
			Expect(xrd.Tokenize(text)).To(Equal(xrd.Tokens{"StepWidth", "0.02"}))
		})
	})

	When("a paragraph holds a drawing with its own text", func() {
		BeforeEach(func() {
			data = buildDocx(
				`<w:p><w:r><w:t>ScanData</w:t></w:r>` +
					`<w:r><w:drawing><a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">` +
					`<a:p><a:r><a:t>Figure 1</a:t></a:r></a:p>` +
					`</a:graphic></w:drawing></w:r></w:p>` +
					paragraph("1.0 2.0"),
			)
		})

		It("should keep only the document text", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("ScanData\n1.0 2.0\n"))
		})
	})

	When("a paragraph holds an equation", func() {
		BeforeEach(func() {
			data = buildDocx(
				`<w:p><w:r><w:t>StepWidth 0.02</w:t></w:r>` +
					`<m:oMath xmlns:m="http://schemas.openxmlformats.org/officeDocument/2006/math">` +
					`<m:r><m:t>2θ</m:t></m:r></m:oMath></w:p>`,
			)
		})

		It("should drop the equation text", func() {
			Expect(xrd.Tokenize(text)).To(Equal(xrd.Tokens{"StepWidth", "0.02"}))
		})
	})

	When("the data is not a zip archive", func() {
		BeforeEach(func() {
			data = []byte("plain text")
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("opening docx"))
		})
	})
})
