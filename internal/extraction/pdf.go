package extraction

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// PDF extracts the text layer of PDF documents
type PDF struct{}

// ExtractText returns the text of every page, separated by newlines
func (p *PDF) ExtractText(data []byte, contentType string) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	var text strings.Builder
	for page := 0; page < doc.NumPage(); page++ {
		pageText, err := doc.Text(page)
		if err != nil {
			return "", fmt.Errorf("reading PDF page %d: %w", page+1, err)
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	return text.String(), nil
}

// Close is a no-op
func (p *PDF) Close() error {
	return nil
}
