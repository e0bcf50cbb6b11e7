package extraction

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// Docx extracts the body text of Word documents
type Docx struct{}

// ExtractText returns the text of word/document.xml with one line per paragraph
func (d *Docx) ExtractText(data []byte, contentType string) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening docx: %w", err)
	}
	defer doc.Close()

	text, err := documentText(doc.Editable().GetContent())
	if err != nil {
		return "", fmt.Errorf("reading document body: %w", err)
	}
	return text, nil
}

// Close is a no-op
func (d *Docx) Close() error {
	return nil
}

// wordprocessingNS is the namespace of w: elements
const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// documentText walks WordprocessingML and keeps only run text.
// Runs of one paragraph are joined without separators so a word split
// across runs stays one token. Text of other vocabularies, such as
// DrawingML shapes and equations, is dropped.
func documentText(content string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var (
		text   strings.Builder
		inText bool
	)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decoding xml: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				text.WriteString("\t")
			case "br", "cr":
				text.WriteString("\n")
			}
		case xml.EndElement:
			if t.Name.Space != wordprocessingNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		}
	}

	return text.String(), nil
}
