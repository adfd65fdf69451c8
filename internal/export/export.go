// Package export writes a report as machine-readable files: one CSV per
// summary table, a workbook with one sheet per table, and JSON/YAML documents.
package export

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/retail-report/internal/model"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatXLSX, FormatJSON, FormatYAML}

// File names for the single-file formats.
const (
	WorkbookFile = "report.xlsx"
	JSONFile     = "report.json"
	YAMLFile     = "report.yaml"
)

// ParseFormats normalizes format names, dropping duplicates. "yml" is
// accepted for YAML.
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		if f == "yml" {
			f = FormatYAML
		}
		if !slices.Contains(Formats, f) {
			return nil, eris.Errorf("export: unsupported format %q", name)
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Exporter writes the configured formats into Dir.
type Exporter struct {
	Dir     string
	Formats []Format
}

// New returns an Exporter for the named formats.
func New(dir string, formats []string) (*Exporter, error) {
	parsed, err := ParseFormats(formats)
	if err != nil {
		return nil, err
	}
	return &Exporter{Dir: dir, Formats: parsed}, nil
}

// Name identifies the exporter in run phases and logs.
func (e *Exporter) Name() string { return "export" }

// Write exports the report.
func (e *Exporter) Write(ctx context.Context, report *model.Report) error {
	return Export(ctx, report, e.Dir, e.Formats)
}

// Export writes each format into dir concurrently. The first failure
// cancels the remaining writers.
func Export(ctx context.Context, report *model.Report, dir string, formats []Format) error {
	if report == nil {
		return eris.New("export: nil report")
	}
	if len(formats) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "export: create %s", dir)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range formats {
		g.Go(func() error {
			if gctx.Err() != nil {
				return eris.Wrap(gctx.Err(), "export: context cancelled")
			}
			switch f {
			case FormatCSV:
				return WriteCSV(gctx, report, dir)
			case FormatXLSX:
				return WriteXLSX(report, filepath.Join(dir, WorkbookFile))
			case FormatJSON:
				return writeDocument(report, filepath.Join(dir, JSONFile), FormatJSON)
			case FormatYAML:
				return writeDocument(report, filepath.Join(dir, YAMLFile), FormatYAML)
			default:
				return eris.Errorf("export: unsupported format %q", f)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zap.L().Info("export: wrote report files",
		zap.String("dir", dir),
		zap.Any("formats", formats),
	)
	return nil
}

// Marshal writes the report document to w as JSON or YAML. The full
// customer table is left out; it is exported as customers.csv.
func Marshal(w io.Writer, report *model.Report, format Format) error {
	doc := NewDocument(report, false)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return eris.Wrap(err, "export: encode json")
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return eris.Wrap(err, "export: encode yaml")
		}
		if err := enc.Close(); err != nil {
			return eris.Wrap(err, "export: encode yaml")
		}
	default:
		return eris.Errorf("export: cannot marshal format %q", format)
	}
	return nil
}

func writeDocument(report *model.Report, path string, format Format) error {
	return writeFile(path, func(w io.Writer) error {
		return Marshal(w, report, format)
	})
}

// writeFile creates path and passes it to fn, closing it afterwards.
func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "export: close %s", path)
		}
	}()
	return fn(f)
}
