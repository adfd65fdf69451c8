package export

import (
	"context"
	"encoding/csv"
	"io"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/retail-report/internal/model"
)

// WriteCSV writes one <table>.csv per summary table into dir.
func WriteCSV(ctx context.Context, report *model.Report, dir string) error {
	for _, t := range Tables(report) {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "export: context cancelled")
		}
		path := filepath.Join(dir, t.Name+".csv")
		if err := writeFile(path, func(w io.Writer) error { return writeTableCSV(w, t) }); err != nil {
			return err
		}
	}
	return nil
}

func writeTableCSV(out io.Writer, t Table) error {
	w := csv.NewWriter(out)
	if err := w.Write(t.Header); err != nil {
		return eris.Wrapf(err, "export: write %s header", t.Name)
	}
	record := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = cellText(v)
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "export: write %s row", t.Name)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "export: flush %s", t.Name)
	}
	return nil
}
