package extraction

import (
	"errors"
	"strings"
)

// ErrEmptyTranscript is returned when a vision model returns no text
var ErrEmptyTranscript = errors.New("empty transcript")

// transcribePrompt is the shared prompt used by all vision providers
const transcribePrompt = `You are reading a photograph or scan of a printed X-ray diffraction measurement report.

Transcribe ALL text in the image exactly as printed, in reading order.

Important:
- Keep the field labels exactly as written, including "Sample", "FirstAngle", "ScanRange", "StepWidth" and "ScanData"
- Copy every number exactly; do not round, reformat or add thousands separators
- Separate values with spaces or newlines only
- Do not summarize, explain or add any text that is not in the image
- Do not use markdown code blocks`

// cleanTranscript removes markdown fences that models add despite the prompt
func cleanTranscript(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		// Drop the opening fence and its info string
		if i := strings.Index(text, "\n"); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
