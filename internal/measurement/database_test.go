package measurement

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/xrd-pattern/internal/xrd"
)

var _ = Describe("BoltDB", func() {
	var (
		tmpDir string
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveMeasurement", func() {
		var (
			m   *Measurement
			err error
		)

		BeforeEach(func() {
			m = &Measurement{
				ID: "test-id",
				Record: xrd.Record{
					SampleName:  "ZrC-01",
					FirstAngle:  20,
					ScanRange:   100,
					StepWidth:   0.02,
					Intensities: []float64{1, 2.5, 3},
				},
				Filename:    "test-id_scan.docx",
				ContentType: "text/plain",
				CreatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
				UpdatedAt:   time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			}
		})

		JustBeforeEach(func() {
			err = db.SaveMeasurement(m)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should round trip the record", func() {
				saved, getErr := db.GetMeasurement("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.Record).To(Equal(m.Record))
				Expect(saved.Filename).To(Equal("test-id_scan.docx"))
				Expect(saved.CreatedAt.Equal(m.CreatedAt)).To(BeTrue())
			})
		})

		When("the measurement already exists", func() {
			JustBeforeEach(func() {
				m.SampleName = "ZrC-02"
				Expect(db.SaveMeasurement(m)).To(Succeed())
			})

			It("should overwrite it", func() {
				saved, getErr := db.GetMeasurement("test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.SampleName).To(Equal("ZrC-02"))
			})
		})
	})

	Describe("GetMeasurement", func() {
		When("the measurement does not exist", func() {
			It("returns the error", func() {
				_, err := db.GetMeasurement("missing")
				Expect(err).To(MatchError(ErrNotFound))
			})
		})
	})

	Describe("ListMeasurements", func() {
		When("the database is empty", func() {
			It("should return an empty list", func() {
				measurements, err := db.ListMeasurements()
				Expect(err).NotTo(HaveOccurred())
				Expect(measurements).NotTo(BeNil())
				Expect(measurements).To(BeEmpty())
			})
		})

		When("measurements exist", func() {
			BeforeEach(func() {
				base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
				Expect(db.SaveMeasurement(&Measurement{ID: "b", CreatedAt: base.Add(time.Hour)})).To(Succeed())
				Expect(db.SaveMeasurement(&Measurement{ID: "c", CreatedAt: base.Add(2 * time.Hour)})).To(Succeed())
				Expect(db.SaveMeasurement(&Measurement{ID: "a", CreatedAt: base.Add(3 * time.Hour)})).To(Succeed())
			})

			It("should return them oldest first", func() {
				measurements, err := db.ListMeasurements()
				Expect(err).NotTo(HaveOccurred())
				ids := make([]string, len(measurements))
				for i, m := range measurements {
					ids[i] = m.ID
				}
				Expect(ids).To(Equal([]string{"b", "c", "a"}))
			})
		})
	})

	Describe("DeleteMeasurement", func() {
		BeforeEach(func() {
			Expect(db.SaveMeasurement(&Measurement{ID: "test-id"})).To(Succeed())
		})

		It("should remove the measurement", func() {
			Expect(db.DeleteMeasurement("test-id")).To(Succeed())
			_, err := db.GetMeasurement("test-id")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("returns the error for a missing measurement", func() {
			Expect(db.DeleteMeasurement("missing")).To(MatchError(ErrNotFound))
		})
	})

	Describe("Figures", func() {
		var f *Figure

		BeforeEach(func() {
			f = &Figure{
				ID:             "fig-1",
				Title:          "Anneal series",
				MeasurementIDs: []string{"m1", "m2"},
				Labels:         []string{"as grown", "900 C"},
				Phases:         []string{"si", "zrc"},
				CreatedAt:      time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			}
			Expect(db.SaveFigure(f)).To(Succeed())
		})

		It("should round trip a figure", func() {
			saved, err := db.GetFigure("fig-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.Title).To(Equal(f.Title))
			Expect(saved.MeasurementIDs).To(Equal(f.MeasurementIDs))
			Expect(saved.Labels).To(Equal(f.Labels))
			Expect(saved.Phases).To(Equal(f.Phases))
		})

		It("should list figures", func() {
			figures, err := db.ListFigures()
			Expect(err).NotTo(HaveOccurred())
			Expect(figures).To(HaveLen(1))
			Expect(figures[0].ID).To(Equal("fig-1"))
		})

		It("should keep figures apart from measurements", func() {
			measurements, err := db.ListMeasurements()
			Expect(err).NotTo(HaveOccurred())
			Expect(measurements).To(BeEmpty())
		})

		It("should delete a figure", func() {
			Expect(db.DeleteFigure("fig-1")).To(Succeed())
			_, err := db.GetFigure("fig-1")
			Expect(err).To(MatchError(ErrNotFound))
		})

		It("returns the error for a missing figure", func() {
			_, err := db.GetFigure("missing")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("reopening", func() {
		It("should keep saved measurements", func() {
			Expect(db.SaveMeasurement(&Measurement{ID: "kept"})).To(Succeed())
			Expect(db.Close()).To(Succeed())

			var err error
			db, err = NewBoltDB(dbPath)
			Expect(err).NotTo(HaveOccurred())
			_, err = db.GetMeasurement("kept")
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
