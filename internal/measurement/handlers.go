package measurement

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zombor/xrd-pattern/internal/chart"
	"github.com/zombor/xrd-pattern/internal/extraction"
	"github.com/zombor/xrd-pattern/internal/xrd"
)

// maxUploadSize bounds multipart uploads and figure request bodies
const maxUploadSize = int64(50 << 20)

// plotFormats are the image formats the plot endpoint renders
var plotFormats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "tif": true, "tiff": true,
	"svg": true, "pdf": true, "eps": true,
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes {"error": message} with the given status
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// statusFor maps service errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMeasurementInUse):
		return http.StatusConflict
	case errors.Is(err, xrd.ErrMalformedRecord),
		errors.Is(err, extraction.ErrUnsupportedContentType),
		errors.Is(err, extraction.ErrEmptyTranscript),
		errors.Is(err, chart.ErrLabelCountMismatch),
		errors.Is(err, chart.ErrUnknownPhase),
		errors.Is(err, chart.ErrNoSeries),
		errors.Is(err, ErrNoMeasurements),
		errors.Is(err, ErrNonFiniteValue):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// serviceError logs err and writes it with the status it maps to
func serviceError(w http.ResponseWriter, msg string, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error(msg, "error", err)
		jsonError(w, "Internal server error", code)
		return
	}
	slog.Warn(msg, "error", err)
	jsonError(w, err.Error(), code)
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticJS serves the interface script
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleListMeasurements returns a list of all measurements
func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	measurements, err := s.service.ListMeasurements()
	if err != nil {
		serviceError(w, "Error listing measurements", err)
		return
	}
	writeJSON(w, http.StatusOK, measurements)
}

// handleUploadMeasurement parses an uploaded scan document
func (s *Server) handleUploadMeasurement(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Maximum size is 50MB."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a scan document to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	// Browsers label .docx and instrument exports inconsistently
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = extraction.ContentTypeFor(header.Filename)
	}

	m, err := s.service.ProcessMeasurement(header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error processing measurement", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// handleGetMeasurement returns a single measurement
func (s *Server) handleGetMeasurement(w http.ResponseWriter, r *http.Request) {
	m, err := s.service.GetMeasurement(r.PathValue("id"))
	if err != nil {
		serviceError(w, "Error getting measurement", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleGetMeasurementFile returns the original document for a measurement
func (s *Server) handleGetMeasurementFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetMeasurementFile(r.PathValue("id"))
	if err != nil {
		jsonError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteMeasurement deletes a measurement
func (s *Server) handleDeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteMeasurement(r.PathValue("id")); err != nil {
		serviceError(w, "Error deleting measurement", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListFigures returns a list of all figures
func (s *Server) handleListFigures(w http.ResponseWriter, r *http.Request) {
	figures, err := s.service.ListFigures()
	if err != nil {
		serviceError(w, "Error listing figures", err)
		return
	}
	writeJSON(w, http.StatusOK, figures)
}

// handleCreateFigure saves a new figure
func (s *Server) handleCreateFigure(w http.ResponseWriter, r *http.Request) {
	var req FigureRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadSize)).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	f, err := s.service.CreateFigure(req)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusNotFound {
			// A figure over missing measurements is a bad request, not a missing figure
			code = http.StatusBadRequest
		}
		slog.Warn("Error creating figure", "error", err)
		jsonError(w, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusCreated, f)
}

// figureResponse pairs a figure with its measurements
type figureResponse struct {
	*Figure
	Measurements []*Measurement `json:"measurements"`
}

// handleGetFigure returns a figure with its measurements
func (s *Server) handleGetFigure(w http.ResponseWriter, r *http.Request) {
	f, measurements, err := s.service.GetFigureWithMeasurements(r.PathValue("id"))
	if err != nil {
		serviceError(w, "Error getting figure", err)
		return
	}
	writeJSON(w, http.StatusOK, figureResponse{Figure: f, Measurements: measurements})
}

// handleDeleteFigure deletes a figure
func (s *Server) handleDeleteFigure(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteFigure(r.PathValue("id")); err != nil {
		serviceError(w, "Error deleting figure", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRenderFigure draws a figure as an image
func (s *Server) handleRenderFigure(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "png"
	}
	if !plotFormats[format] {
		jsonError(w, "Unsupported plot format "+format, http.StatusBadRequest)
		return
	}

	data, contentType, err := s.service.RenderFigure(r.PathValue("id"), format)
	if err != nil {
		serviceError(w, "Error rendering figure", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// phaseResponse describes a reference phase to clients
type phaseResponse struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// handleListPhases returns the registered reference phases
func (s *Server) handleListPhases(w http.ResponseWriter, r *http.Request) {
	keys := chart.PhaseKeys()
	phases := make([]phaseResponse, 0, len(keys))
	for _, key := range keys {
		phase, err := chart.LookupPhase(key)
		if err != nil {
			serviceError(w, "Error listing phases", err)
			return
		}
		phases = append(phases, phaseResponse{Key: phase.Key, Name: phase.Name, Default: phase.Default})
	}
	writeJSON(w, http.StatusOK, phases)
}
