package extraction

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Content types understood by the extractors
const (
	ContentTypeDocx  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypePDF   = "application/pdf"
	ContentTypePlain = "text/plain"
)

// ErrUnsupportedContentType is returned when no extractor handles a document
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Extractor defines the interface for turning a document into flat text
type Extractor interface {
	// ExtractText returns the text content of a document
	ExtractText(data []byte, contentType string) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}

// Router dispatches documents to an extractor based on their content type
type Router struct {
	docx   Extractor
	pdf    Extractor
	plain  Extractor
	vision Extractor
}

// NewRouter creates a Router for Word, PDF and text documents.
// vision handles images and may be nil, in which case images are rejected.
func NewRouter(vision Extractor) *Router {
	return &Router{
		docx:   &Docx{},
		pdf:    &PDF{},
		plain:  &Plain{},
		vision: vision,
	}
}

// NewRouterWithExtractors creates a Router with custom extractors for testing
func NewRouterWithExtractors(docx, pdf, plain, vision Extractor) *Router {
	return &Router{
		docx:   docx,
		pdf:    pdf,
		plain:  plain,
		vision: vision,
	}
}

// ExtractText extracts text using the extractor registered for contentType
func (r *Router) ExtractText(data []byte, contentType string) (string, error) {
	mimeType := normalizeContentType(contentType)

	var extractor Extractor
	switch {
	case mimeType == ContentTypeDocx:
		extractor = r.docx
	case mimeType == ContentTypePDF:
		extractor = r.pdf
	case mimeType == ContentTypePlain:
		extractor = r.plain
	case strings.HasPrefix(mimeType, "image/") && r.vision != nil:
		extractor = r.vision
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	text, err := extractor.ExtractText(data, mimeType)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", mimeType, err)
	}

	// A scanned PDF has no text layer; read the page image instead
	if mimeType == ContentTypePDF && strings.TrimSpace(text) == "" && r.vision != nil {
		slog.Info("PDF has no text layer, transcribing page image")
		text, err = r.vision.ExtractText(data, mimeType)
		if err != nil {
			return "", fmt.Errorf("transcribing scanned PDF: %w", err)
		}
	}
	return text, nil
}

// Close closes the vision extractor if one is configured
func (r *Router) Close() error {
	if r.vision == nil {
		return nil
	}
	return r.vision.Close()
}

// ContentTypeFor guesses a document's content type from its file extension
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return ContentTypeDocx
	case ".pdf":
		return ContentTypePDF
	case ".txt", ".dat", ".xy", ".raw":
		return ContentTypePlain
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// normalizeContentType lowercases a MIME type and drops its parameters
func normalizeContentType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}
