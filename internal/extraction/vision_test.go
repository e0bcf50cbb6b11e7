package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewVision", func() {
	It("should return no extractor for none", func() {
		vision, err := NewVision(VisionConfig{Scanner: ScannerNone})
		Expect(err).NotTo(HaveOccurred())
		Expect(vision).To(BeNil())
	})

	It("should treat an empty scanner as none", func() {
		vision, err := NewVision(VisionConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(vision).To(BeNil())
	})

	It("should build an Ollama extractor", func() {
		vision, err := NewVision(VisionConfig{Scanner: ScannerOllama, OllamaURL: "http://ollama:11434/"})
		Expect(err).NotTo(HaveOccurred())
		Expect(vision).To(BeAssignableToTypeOf(&Ollama{}))
		Expect(vision.(*Ollama).baseURL).To(Equal("http://ollama:11434"))
	})

	It("returns the error when Gemini has no key", func() {
		GinkgoT().Setenv("GEMINI_API_KEY", "")
		_, err := NewVision(VisionConfig{Scanner: ScannerGemini})
		Expect(err).To(MatchError(ContainSubstring("api key")))
	})

	It("returns the error for an unknown scanner", func() {
		_, err := NewVision(VisionConfig{Scanner: "tesseract"})
		Expect(err).To(MatchError(ErrUnknownScanner))
	})
})
