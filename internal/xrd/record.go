package xrd

import (
	"errors"
	"fmt"
	"strconv"
)

// Labels of the fields in a scan document, in the order they must appear.
const (
	LabelSample     = "Sample"
	LabelFirstAngle = "FirstAngle"
	LabelScanRange  = "ScanRange"
	LabelStepWidth  = "StepWidth"
	LabelScanData   = "ScanData"
)

var (
	// ErrMalformedRecord matches every error returned by Parse
	ErrMalformedRecord = errors.New("malformed scan record")
	// ErrMalformedNumber is returned when a numeric field does not parse
	ErrMalformedNumber = errors.New("malformed numeric field")
)

// MalformedRecordError reports which field stopped a record from being assembled
type MalformedRecordError struct {
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrMalformedRecord, e.Field, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMalformedRecord) match any MalformedRecordError
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Record holds the metadata and intensity samples of one XRD scan
type Record struct {
	SampleName  string    `json:"sample_name" yaml:"sample_name"`
	FirstAngle  float64   `json:"first_angle" yaml:"first_angle"`   // degrees 2θ
	ScanRange   float64   `json:"scan_range" yaml:"scan_range"`     // degrees
	StepWidth   float64   `json:"step_width" yaml:"step_width"`     // degrees, informational only
	Intensities []float64 `json:"intensities" yaml:"intensities,flow"`
}

// Angles returns the angle axis for the record's intensity samples.
// StepWidth is not consulted; the range is divided evenly over the samples.
func (r *Record) Angles() []float64 {
	return Angles(r.FirstAngle, r.ScanRange, len(r.Intensities))
}

// Parse assembles a Record from the text content of a scan document.
// Labels are read in a fixed order and every token after ScanData must be numeric.
func Parse(text string) (*Record, error) {
	tokens := Tokenize(text)

	sample, tokens, err := tokens.ValueAfter(LabelSample)
	if err != nil {
		return nil, &MalformedRecordError{Field: LabelSample, Err: err}
	}

	var numbers [3]float64
	for i, label := range []string{LabelFirstAngle, LabelScanRange, LabelStepWidth} {
		var value string
		value, tokens, err = tokens.ValueAfter(label)
		if err != nil {
			return nil, &MalformedRecordError{Field: label, Err: err}
		}
		numbers[i], err = parseNumber(value)
		if err != nil {
			return nil, &MalformedRecordError{Field: label, Err: err}
		}
	}

	tokens, err = tokens.LocateAfter(LabelScanData)
	if err != nil {
		return nil, &MalformedRecordError{Field: LabelScanData, Err: err}
	}
	intensities := make([]float64, 0, len(tokens))
	for _, token := range tokens {
		value, err := parseNumber(token)
		if err != nil {
			return nil, &MalformedRecordError{Field: LabelScanData, Err: err}
		}
		intensities = append(intensities, value)
	}

	return &Record{
		SampleName:  sample,
		FirstAngle:  numbers[0],
		ScanRange:   numbers[1],
		StepWidth:   numbers[2],
		Intensities: intensities,
	}, nil
}

func parseNumber(token string) (float64, error) {
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, token)
	}
	return value, nil
}
