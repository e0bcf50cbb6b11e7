package chart

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Figure size and raster resolution
const (
	Width  = 6.4 * vg.Inch
	Height = 4.8 * vg.Inch
	DPI    = 300
)

// Write renders the plot in format (png, jpg, tif, svg, pdf, eps).
// Raster formats are rendered at DPI.
func Write(w io.Writer, p *plot.Plot, format string) error {
	format = normalizeFormat(format)

	var out io.WriterTo
	switch format {
	case "png", "jpg", "jpeg", "tif", "tiff":
		c := vgimg.NewWith(vgimg.UseWH(Width, Height), vgimg.UseDPI(DPI))
		p.Draw(draw.New(c))
		switch format {
		case "png":
			out = vgimg.PngCanvas{Canvas: c}
		case "jpg", "jpeg":
			out = vgimg.JpegCanvas{Canvas: c}
		default:
			out = vgimg.TiffCanvas{Canvas: c}
		}
	default:
		wt, err := p.WriterTo(Width, Height, format)
		if err != nil {
			return fmt.Errorf("creating %s canvas: %w", format, err)
		}
		out = wt
	}

	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("writing %s: %w", format, err)
	}
	return nil
}

// DefaultFormat is used for file names without an extension
const DefaultFormat = "png"

// SavePath returns the file Save writes for path: path itself, or path
// with the DefaultFormat extension when it has none.
func SavePath(path string) string {
	if normalizeFormat(filepath.Ext(path)) != "" {
		return path
	}
	return strings.TrimSuffix(path, ".") + "." + DefaultFormat
}

// Save writes the plot to SavePath(path), choosing the format from its extension.
// A failed write leaves no file behind.
func Save(p *plot.Plot, path string) (err error) {
	path = SavePath(path)
	format := normalizeFormat(filepath.Ext(path))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating image file: %w", err)
	}
	defer func() {
		closeErr := f.Close()
		if err == nil && closeErr != nil {
			err = fmt.Errorf("closing image file: %w", closeErr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	return Write(f, p, format)
}

// ContentType returns the MIME type of an image format
func ContentType(format string) string {
	switch normalizeFormat(format) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	case "svg":
		return "image/svg+xml"
	case "pdf":
		return "application/pdf"
	case "eps":
		return "application/postscript"
	default:
		return "application/octet-stream"
	}
}

func normalizeFormat(format string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
}
