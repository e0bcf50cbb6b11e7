package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"gonum.org/v1/plot"
	"gopkg.in/yaml.v3"

	"github.com/zombor/xrd-pattern/internal/chart"
	"github.com/zombor/xrd-pattern/internal/extraction"
	"github.com/zombor/xrd-pattern/internal/xrd"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// errNoFiles is returned when no data file is named
var errNoFiles = errors.New("at least one data file is required")

var (
	errorColor = color.New(color.FgRed, color.Bold)
	warnColor  = color.New(color.FgYellow)
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}
		errorColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// printedRecord is the --print view of one parsed document
type printedRecord struct {
	File       string `yaml:"file"`
	Label      string `yaml:"label,omitempty"`
	xrd.Record `yaml:",inline"`
}

// run parses the named scan documents and plots them on one figure
func run(args []string, stdout, stderr io.Writer) error {
	fs := ff.NewFlagSet("xrdpattern")
	var (
		title       = fs.String('t', "title", "", "Figure title")
		labels      = fs.String('l', "labels", "", "Comma separated labels, one per data file")
		save        = fs.String('s', "save", "", "Save the figure to this file; the extension picks the format (png when none)")
		noShow      = fs.BoolLong("no-show", "Do not open the figure in an image viewer")
		noSi        = fs.BoolLong("no-si", "Hide the Si reference lines")
		noZrC       = fs.BoolLong("no-zrc", "Hide the ZrC reference lines")
		withZr      = fs.BoolLong("zr", "Draw the Zr reference lines")
		withZrO2    = fs.BoolLong("zro2", "Draw the m-ZrO2 reference lines")
		skipInvalid = fs.BoolLong("skip-invalid", "Report and skip malformed documents instead of aborting")
		printYAML   = fs.BoolLong("print", "Print the parsed records as YAML")
		scannerType = fs.StringLong("scanner", extraction.ScannerNone, "Scanner for image documents: 'none', 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("XRDPATTERN"),
	); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		return err
	}

	if *showVersion {
		fmt.Fprintln(stdout, version)
		return nil
	}

	files := fs.GetArgs()
	if len(files) == 0 {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		return errNoFiles
	}

	// Checked before any document is read
	captions, err := chart.ParseLabels(*labels, len(files))
	if err != nil {
		return err
	}

	phases, err := chart.LookupPhases(enabledPhases(!*noSi, !*noZrC, *withZr, *withZrO2))
	if err != nil {
		return err
	}

	vision, err := extraction.NewVision(extraction.VisionConfig{
		Scanner:     *scannerType,
		GeminiKey:   *geminiKey,
		GeminiModel: *geminiModel,
		OllamaURL:   *ollamaURL,
		OllamaModel: *ollamaModel,
	})
	if err != nil {
		return err
	}
	extractor := extraction.NewRouter(vision)
	defer extractor.Close()

	var (
		series  []chart.Series
		printed []printedRecord
		skipped int
	)
	for i, file := range files {
		var label string
		if captions != nil {
			label = captions[i]
		}

		record, err := readRecord(extractor, file)
		if err != nil {
			if !*skipInvalid {
				return fmt.Errorf("%s: %w", file, err)
			}
			skipped++
			warnColor.Fprintf(stderr, "skipping %s: %v\n", file, err)
			continue
		}

		slog.Info("Parsed scan", "file", file, "sample", record.SampleName, "samples", len(record.Intensities))
		series = append(series, chart.SeriesFor(record, label))
		printed = append(printed, printedRecord{File: file, Label: label, Record: *record})
	}

	if *printYAML {
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(printed); err != nil {
			return fmt.Errorf("printing records: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("printing records: %w", err)
		}
	}

	p, err := chart.New(series, chart.Options{Title: *title, Phases: phases})
	if err != nil {
		return err
	}

	if *save != "" {
		if err := chart.Save(p, *save); err != nil {
			return fmt.Errorf("saving figure: %w", err)
		}
		slog.Info("Saved figure", "path", chart.SavePath(*save))
	}

	if !*noShow {
		if err := show(p, stderr); err != nil {
			return err
		}
	}

	if skipped > 0 {
		warnColor.Fprintf(stderr, "skipped %d of %d documents\n", skipped, len(files))
	}
	return nil
}

// enabledPhases returns the keys of the switched-on phases in drawing order
func enabledPhases(si, zrc, zr, zro2 bool) []string {
	var keys []string
	for _, phase := range []struct {
		key string
		on  bool
	}{{"si", si}, {"zrc", zrc}, {"zr", zr}, {"zro2", zro2}} {
		if phase.on {
			keys = append(keys, phase.key)
		}
	}
	return keys
}

// readRecord extracts the text of one document and parses it
func readRecord(extractor extraction.Extractor, path string) (*xrd.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	// Instrument exports often carry their own extension
	contentType := extraction.ContentTypeFor(path)
	if contentType == "application/octet-stream" {
		contentType = extraction.ContentTypePlain
	}

	text, err := extractor.ExtractText(data, contentType)
	if err != nil {
		return nil, err
	}
	return xrd.Parse(text)
}

// openViewer is replaced in tests
var openViewer = chart.Open

// show renders the figure to a temporary PNG and opens it.
// The file is left behind for the viewer. A missing viewer is only a warning.
func show(p *plot.Plot, stderr io.Writer) error {
	f, err := os.CreateTemp("", "xrdpattern-*.png")
	if err != nil {
		return fmt.Errorf("creating preview file: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return fmt.Errorf("creating preview file: %w", err)
	}

	if err := chart.Save(p, path); err != nil {
		return fmt.Errorf("rendering preview: %w", err)
	}
	if err := openViewer(path); err != nil {
		slog.Warn("Could not open image viewer", "path", path, "error", err)
		warnColor.Fprintf(stderr, "could not open image viewer, figure written to %s\n", path)
		return nil
	}
	slog.Info("Opened figure", "path", path)
	return nil
}
