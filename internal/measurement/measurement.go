package measurement

import (
	"time"

	"github.com/zombor/xrd-pattern/internal/xrd"
)

// Measurement is a parsed XRD scan together with the document it came from
type Measurement struct {
	ID string `json:"id"`
	xrd.Record
	Filename    string    `json:"filename"` // Stored original document
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Figure is a saved plot of one or more measurements
type Figure struct {
	ID             string    `json:"id"`
	Title          string    `json:"title,omitempty"`
	MeasurementIDs []string  `json:"measurement_ids"`  // Draw order, bottom series first
	Labels         []string  `json:"labels,omitempty"` // One per measurement when set
	Phases         []string  `json:"phases"`           // Reference phase keys
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FigureRequest describes a figure to create
type FigureRequest struct {
	Title          string   `json:"title"`
	MeasurementIDs []string `json:"measurement_ids"`
	Labels         []string `json:"labels"`
	// Phases nil selects the default phases; an empty list draws none
	Phases []string `json:"phases"`
}
