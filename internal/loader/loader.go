// Package loader reads retail transaction files (XLSX workbooks or delimited
// text) into typed rows.
package loader

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/retail-report/internal/model"
)

// defaultHeaderScan is the number of leading rows searched for the header.
const defaultHeaderScan = 20

// Options configures Load.
type Options struct {
	SheetName  string
	SheetIndex int
	Delimiter  rune   // CSV only; 0 = sniff
	Encoding   string // CSV only; "" = auto
	Strict     bool   // fail on the first unparseable row instead of skipping it
	Location   *time.Location
	HeaderScan int
}

// Result is the output of Load.
type Result struct {
	Source model.Source
	Rows   []model.RawTransaction
	Stats  model.LoadStats
}

// Load reads the transaction file at path. Unreadable files, unknown formats
// and missing required columns are fatal. Rows with unparseable fields are
// skipped and counted unless opts.Strict is set.
func Load(ctx context.Context, path string, opts Options) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrap(err, "loader: stat input")
	}
	if info.IsDir() {
		return nil, eris.Errorf("loader: %s is a directory", path)
	}

	format, err := DetectFile(path)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Source: model.Source{Path: path, Format: string(format), Size: info.Size()},
	}
	dec := newDecoder(res, opts)

	switch format {
	case FormatXLSX:
		err = loadXLSX(ctx, path, opts, dec)
	default:
		err = loadCSV(ctx, path, opts, dec)
	}
	if err != nil {
		return nil, err
	}
	if err := dec.finish(); err != nil {
		return nil, err
	}

	log := zap.L().With(zap.String("path", path), zap.String("format", string(format)))
	if res.Stats.Skipped > 0 {
		log.Warn("loader: skipped unparseable rows",
			zap.Int("skipped", res.Stats.Skipped),
			zap.Error(dec.firstErr),
		)
	}
	log.Info("loader: loaded transactions",
		zap.Int("rows", res.Stats.Rows),
		zap.Int("parsed", res.Stats.Parsed),
		zap.Int("blank", res.Stats.Blank),
	)

	return res, nil
}

func loadXLSX(ctx context.Context, path string, opts Options, dec *decoder) error {
	wb, err := ReadXLSX(path, XLSXOptions{
		SheetIndex: opts.SheetIndex,
		SheetName:  opts.SheetName,
		Raw:        true,
	})
	if err != nil {
		return eris.Wrap(err, "loader: read workbook")
	}
	dec.res.Source.Sheet = wb.Sheet
	dec.date1904 = wb.Date1904

	for i, cells := range wb.Rows {
		if ctx.Err() != nil {
			return eris.Wrap(ctx.Err(), "loader: context cancelled")
		}
		if err := dec.feed(i+1, i+1, cells); err != nil {
			return err
		}
	}
	return nil
}

func loadCSV(ctx context.Context, path string, opts Options, dec *decoder) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrap(err, "loader: open file")
	}
	defer f.Close() //nolint:errcheck

	// Cancelling stops the reader goroutine when feed fails early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rowCh, errCh := StreamCSV(ctx, f, CSVOptions{
		Delimiter: opts.Delimiter,
		Encoding:  opts.Encoding,
	})

	for rec := range rowCh {
		if err := dec.feed(rec.Line, rec.End, rec.Fields); err != nil {
			return err
		}
	}
	if err := <-errCh; err != nil {
		return eris.Wrap(err, "loader: read csv")
	}
	return nil
}

// decoder turns raw rows into transactions: it finds the header, then
// parses every following row.
type decoder struct {
	res      *Result
	opts     Options
	finder   headerFinder
	parser   *rowParser
	date1904 bool
	next     int // source line expected after the last row fed
	firstErr error
}

func newDecoder(res *Result, opts Options) *decoder {
	limit := opts.HeaderScan
	if limit <= 0 {
		limit = defaultHeaderScan
	}
	return &decoder{
		res:    res,
		opts:   opts,
		finder: headerFinder{limit: limit},
	}
}

// feed consumes the row spanning source lines line..end. Lines skipped
// since the previous row were empty and count as blank once the header is
// known.
func (d *decoder) feed(line, end int, cells []string) error {
	gap := line - d.next
	d.next = end + 1

	if d.parser == nil {
		if cols, ok := d.finder.offer(cells); ok {
			d.parser = &rowParser{cols: cols, loc: d.opts.Location, date1904: d.date1904}
			return nil
		}
		if d.finder.exhausted() {
			return d.finder.err()
		}
		return nil
	}

	if gap > 0 {
		d.res.Stats.Blank += gap
	}
	if isBlank(cells) {
		d.res.Stats.Blank++
		return nil
	}
	d.res.Stats.Rows++

	tx, err := d.parser.parse(line, cells)
	if err != nil {
		if d.opts.Strict {
			return err
		}
		d.res.Stats.Skipped++
		if d.firstErr == nil {
			d.firstErr = err
		}
		return nil
	}

	d.res.Stats.Parsed++
	d.res.Rows = append(d.res.Rows, tx)
	return nil
}

// finish reports a missing header once all rows have been fed.
func (d *decoder) finish() error {
	if d.parser == nil {
		return d.finder.err()
	}
	return nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
