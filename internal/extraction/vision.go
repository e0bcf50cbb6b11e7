package extraction

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// Scanner names accepted by NewVision
const (
	ScannerNone   = "none"
	ScannerGemini = "gemini"
	ScannerOllama = "ollama"
)

// ErrUnknownScanner is returned for a scanner name NewVision does not know
var ErrUnknownScanner = errors.New("unknown scanner")

// VisionConfig selects and configures the extractor used for images
type VisionConfig struct {
	Scanner     string
	GeminiKey   string // Falls back to GEMINI_API_KEY
	GeminiModel string
	OllamaURL   string
	OllamaModel string
}

// NewVision builds the image extractor named by cfg.Scanner.
// It returns a nil Extractor for ScannerNone.
func NewVision(cfg VisionConfig) (Extractor, error) {
	switch cfg.Scanner {
	case "", ScannerNone:
		return nil, nil
	case ScannerGemini:
		apiKey := cfg.GeminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini api key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner", "model", cfg.GeminiModel)
		return NewGemini(apiKey, cfg.GeminiModel)
	case ScannerOllama:
		slog.Info("Initializing Ollama scanner", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	default:
		return nil, fmt.Errorf("%w: %q (want none, gemini or ollama)", ErrUnknownScanner, cfg.Scanner)
	}
}
