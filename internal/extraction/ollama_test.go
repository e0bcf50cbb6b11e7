package extraction

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server    *ghttp.Server
		extractor *Ollama
		imageData []byte
		text      string
		err       error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		var newErr error
		extractor, newErr = NewOllama(server.URL()+"/", "qwen2-vl")
		Expect(newErr).NotTo(HaveOccurred())

		var buf bytes.Buffer
		Expect(png.Encode(&buf, testImage())).To(Succeed())
		imageData = buf.Bytes()
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = extractor.ExtractText(imageData, "image/png")
	})

	When("the model returns a transcript", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					body, readErr := io.ReadAll(r.Body)
					Expect(readErr).NotTo(HaveOccurred())
					var req ollamaChatRequest
					Expect(json.Unmarshal(body, &req)).To(Succeed())
					Expect(req.Model).To(Equal("qwen2-vl"))
					Expect(req.Stream).To(BeFalse())
					Expect(req.Messages).To(HaveLen(2))
					Expect(req.Messages[1].Images).To(HaveLen(1))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: "```text\nSample S FirstAngle 10\n```"},
					Done:    true,
				}),
			))
		})

		It("should return the cleaned transcript", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Sample S FirstAngle 10"))
		})
	})

	When("the API returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("status 500"))
			Expect(err.Error()).To(ContainSubstring("model not loaded"))
		})
	})

	When("the model returns nothing", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{Done: true}))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ErrEmptyTranscript))
		})
	})
})

var _ = Describe("NewOllama", func() {
	It("should apply defaults", func() {
		extractor, err := NewOllama("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(extractor.baseURL).To(Equal("http://localhost:11434"))
		Expect(extractor.model).To(Equal("llava"))
	})
})

var _ = Describe("cleanTranscript", func() {
	It("should strip fences with an info string", func() {
		text, err := cleanTranscript("```json\nScanData 1 2\n```")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("ScanData 1 2"))
	})

	It("should leave plain text alone", func() {
		text, err := cleanTranscript("  Sample S\nFirstAngle 10  ")
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Sample S\nFirstAngle 10"))
	})

	It("returns the error for an empty fence", func() {
		_, err := cleanTranscript("```\n```")
		Expect(err).To(MatchError(ErrEmptyTranscript))
	})
})
