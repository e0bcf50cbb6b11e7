package measurement

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zombor/xrd-pattern/internal/chart"
	"github.com/zombor/xrd-pattern/internal/extraction"
	"github.com/zombor/xrd-pattern/internal/xrd"
)

var (
	// ErrNoMeasurements is returned when a figure names no measurements
	ErrNoMeasurements = errors.New("at least one measurement is required")

	// ErrMeasurementInUse is returned when deleting a measurement a figure still plots
	ErrMeasurementInUse = errors.New("measurement is used by a figure")

	// ErrNonFiniteValue is returned when a scan holds NaN or an infinity
	ErrNonFiniteValue = errors.New("scan values must be finite")
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// IDGenerator generates unique IDs for measurements and figures
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles measurement and figure operations
type Service struct {
	db          DB
	extractor   extraction.Extractor
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, extractor extraction.Extractor, storage Storage) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor extraction.Extractor, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// sanitizeFilename strips special characters and truncates long instrument export names
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "scan"
	}

	if ext != "" {
		ext = "." + unsafeFilenameChars.ReplaceAllString(strings.TrimPrefix(ext, "."), "")
	}
	return base + ext
}

// checkFinite rejects records the database could not encode
func checkFinite(record *xrd.Record) error {
	for _, field := range []struct {
		name  string
		value float64
	}{
		{"FirstAngle", record.FirstAngle},
		{"ScanRange", record.ScanRange},
		{"StepWidth", record.StepWidth},
	} {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return fmt.Errorf("%w: %s is %v", ErrNonFiniteValue, field.name, field.value)
		}
	}
	for i, v := range record.Intensities {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: intensity %d is %v", ErrNonFiniteValue, i, v)
		}
	}
	return nil
}

// ProcessMeasurement stores a scan document, extracts and parses its text, and saves the measurement
func (s *Service) ProcessMeasurement(filename string, data []byte, contentType string) (*Measurement, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	if contentType == "" {
		contentType = extraction.ContentTypeFor(filename)
	}

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	text, err := s.extractor.ExtractText(data, contentType)
	if err != nil {
		slog.Error("Failed to extract scan text",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	record, err := xrd.Parse(text)
	if err != nil {
		slog.Error("Failed to parse scan", "filename", filename, "error", err)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	if err := checkFinite(record); err != nil {
		slog.Error("Rejected scan", "filename", filename, "error", err)
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	m := &Measurement{
		ID:          id,
		Record:      *record,
		Filename:    savedPath,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.SaveMeasurement(m); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving measurement to database: %w", err)
	}

	slog.Info("Stored measurement", "id", id, "sample", record.SampleName, "samples", len(record.Intensities))
	return m, nil
}

// GetMeasurement retrieves a measurement by ID
func (s *Service) GetMeasurement(id string) (*Measurement, error) {
	m, err := s.db.GetMeasurement(id)
	if err != nil {
		return nil, fmt.Errorf("getting measurement: %w", err)
	}
	return m, nil
}

// ListMeasurements returns all measurements
func (s *Service) ListMeasurements() ([]*Measurement, error) {
	measurements, err := s.db.ListMeasurements()
	if err != nil {
		return nil, fmt.Errorf("listing measurements: %w", err)
	}
	return measurements, nil
}

// DeleteMeasurement removes a measurement and its document unless a figure plots it
func (s *Service) DeleteMeasurement(id string) error {
	m, err := s.db.GetMeasurement(id)
	if err != nil {
		return fmt.Errorf("getting measurement for deletion: %w", err)
	}

	figures, err := s.db.ListFigures()
	if err != nil {
		return fmt.Errorf("listing figures: %w", err)
	}
	for _, f := range figures {
		for _, mid := range f.MeasurementIDs {
			if mid == id {
				return fmt.Errorf("%w: figure %s", ErrMeasurementInUse, f.ID)
			}
		}
	}

	if err := s.storage.Delete(m.Filename); err != nil {
		slog.Warn("Failed to delete file", "filename", m.Filename, "error", err)
	}

	if err := s.db.DeleteMeasurement(id); err != nil {
		return fmt.Errorf("deleting measurement from database: %w", err)
	}
	return nil
}

// GetMeasurementFile retrieves the original document for a measurement
func (s *Service) GetMeasurementFile(id string) ([]byte, string, error) {
	m, err := s.db.GetMeasurement(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting measurement: %w", err)
	}

	data, err := s.storage.Get(m.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting measurement file: %w", err)
	}

	return data, m.ContentType, nil
}

// CreateFigure validates and saves a figure of existing measurements
func (s *Service) CreateFigure(req FigureRequest) (*Figure, error) {
	if len(req.MeasurementIDs) == 0 {
		return nil, ErrNoMeasurements
	}
	if len(req.Labels) != 0 && len(req.Labels) != len(req.MeasurementIDs) {
		return nil, fmt.Errorf("%w: %d labels for %d measurements",
			chart.ErrLabelCountMismatch, len(req.Labels), len(req.MeasurementIDs))
	}

	phases := req.Phases
	if phases == nil {
		phases = chart.DefaultPhaseKeys()
	}
	keys := make([]string, 0, len(phases))
	for _, key := range phases {
		phase, err := chart.LookupPhase(key)
		if err != nil {
			return nil, err
		}
		keys = append(keys, phase.Key)
	}

	for _, mid := range req.MeasurementIDs {
		if _, err := s.db.GetMeasurement(mid); err != nil {
			return nil, fmt.Errorf("getting measurement %s: %w", mid, err)
		}
	}

	var labels []string
	if len(req.Labels) > 0 {
		labels = make([]string, len(req.Labels))
		for i, label := range req.Labels {
			labels[i] = strings.TrimSpace(label)
		}
	}

	now := s.timeSource.Now()
	f := &Figure{
		ID:             s.idGenerator.Generate(),
		Title:          strings.TrimSpace(req.Title),
		MeasurementIDs: req.MeasurementIDs,
		Labels:         labels,
		Phases:         keys,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.db.SaveFigure(f); err != nil {
		return nil, fmt.Errorf("saving figure: %w", err)
	}
	return f, nil
}

// GetFigure retrieves a figure by ID
func (s *Service) GetFigure(id string) (*Figure, error) {
	f, err := s.db.GetFigure(id)
	if err != nil {
		return nil, fmt.Errorf("getting figure: %w", err)
	}
	return f, nil
}

// GetFigureWithMeasurements retrieves a figure with its measurements in draw order
func (s *Service) GetFigureWithMeasurements(id string) (*Figure, []*Measurement, error) {
	f, err := s.db.GetFigure(id)
	if err != nil {
		return nil, nil, fmt.Errorf("getting figure: %w", err)
	}

	measurements := make([]*Measurement, 0, len(f.MeasurementIDs))
	for _, mid := range f.MeasurementIDs {
		m, err := s.db.GetMeasurement(mid)
		if err != nil {
			return nil, nil, fmt.Errorf("getting measurement %s: %w", mid, err)
		}
		measurements = append(measurements, m)
	}

	return f, measurements, nil
}

// ListFigures returns all figures
func (s *Service) ListFigures() ([]*Figure, error) {
	figures, err := s.db.ListFigures()
	if err != nil {
		return nil, fmt.Errorf("listing figures: %w", err)
	}
	return figures, nil
}

// DeleteFigure removes a figure, leaving its measurements in place
func (s *Service) DeleteFigure(id string) error {
	if err := s.db.DeleteFigure(id); err != nil {
		return fmt.Errorf("deleting figure: %w", err)
	}
	return nil
}

// RenderFigure draws a figure and encodes it in the given image format
func (s *Service) RenderFigure(id, format string) ([]byte, string, error) {
	f, measurements, err := s.GetFigureWithMeasurements(id)
	if err != nil {
		return nil, "", err
	}

	series := make([]chart.Series, len(measurements))
	for i, m := range measurements {
		var label string
		if len(f.Labels) == len(measurements) {
			label = f.Labels[i]
		}
		series[i] = chart.SeriesFor(&m.Record, label)
	}

	phases, err := chart.LookupPhases(f.Phases)
	if err != nil {
		return nil, "", err
	}

	p, err := chart.New(series, chart.Options{Title: f.Title, Phases: phases})
	if err != nil {
		return nil, "", fmt.Errorf("drawing figure %s: %w", id, err)
	}

	var buf bytes.Buffer
	if err := chart.Write(&buf, p, format); err != nil {
		return nil, "", fmt.Errorf("rendering figure %s: %w", id, err)
	}
	return buf.Bytes(), chart.ContentType(format), nil
}
