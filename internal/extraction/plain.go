package extraction

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Plain passes UTF-8 text documents through unchanged
type Plain struct{}

// ExtractText returns data as a string without its byte order mark
func (p *Plain) ExtractText(data []byte, contentType string) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return "", fmt.Errorf("text is not valid UTF-8")
	}
	return string(data), nil
}

// Close is a no-op
func (p *Plain) Close() error {
	return nil
}
