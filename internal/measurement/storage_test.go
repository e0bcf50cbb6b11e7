package measurement

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewLocalStorage", func() {
		It("should create a missing directory", func() {
			dir := filepath.Join(tmpDir, "nested", "scans")
			_, err := NewLocalStorage(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(dir).To(BeADirectory())
		})
	})

	Describe("Save", func() {
		var (
			filename  string
			data      []byte
			savedPath string
			err       error
		)

		BeforeEach(func() {
			filename = "123_scan.docx"
			data = []byte("test file content")
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(filename, data)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the name", func() {
				Expect(savedPath).To(Equal(filename))
			})

			It("should save the file to disk", func() {
				content, readErr := os.ReadFile(filepath.Join(tmpDir, filename))
				Expect(readErr).NotTo(HaveOccurred())
				Expect(content).To(Equal(data))
			})
		})

		When("the name escapes the directory", func() {
			BeforeEach(func() {
				filename = "../escape.docx"
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(filepath.Join(filepath.Dir(tmpDir), "escape.docx")).NotTo(BeAnExistingFile())
			})
		})

		When("the name is hidden", func() {
			BeforeEach(func() {
				filename = ".hidden"
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Get", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("123_scan.txt", []byte("ScanData 1 2"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the content", func() {
				data, err := storage.Get("123_scan.txt")
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("ScanData 1 2"))
			})
		})

		When("the file does not exist", func() {
			It("returns the error", func() {
				_, err := storage.Get("missing.txt")
				Expect(err).To(HaveOccurred())
			})
		})

		When("the name escapes the directory", func() {
			It("returns the error", func() {
				_, err := storage.Get("../../etc/passwd")
				Expect(err).To(MatchError(ContainSubstring("invalid document name")))
			})
		})
	})

	Describe("Delete", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("123_scan.txt", []byte("x"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("should remove it", func() {
				Expect(storage.Delete("123_scan.txt")).To(Succeed())
				Expect(filepath.Join(tmpDir, "123_scan.txt")).NotTo(BeAnExistingFile())
			})
		})

		When("the file does not exist", func() {
			It("returns the error", func() {
				Expect(storage.Delete("missing.txt")).NotTo(Succeed())
			})
		})
	})
})
