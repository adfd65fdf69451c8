package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jfyne/csvd"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter rune   // 0 = sniff from the leading lines
	Encoding  string // "" = utf-8, falling back to windows-1252 when the head is not valid utf-8
}

// Record is one CSV record with its position in the source. Empty lines are
// never sent, so a gap between one record's End and the next Line is blank
// input.
type Record struct {
	Line   int // 1-based line the record starts on
	End    int // last line of the record; differs from Line for quoted newlines
	Fields []string
}

// StreamCSV reads delimited text and sends records to a channel.
// Caller must consume the returned record channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Record, <-chan error) {
	rowCh := make(chan Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		decoded, err := decodeReader(r, opts.Encoding)
		if err != nil {
			errCh <- err
			return
		}

		var reader *csv.Reader
		if opts.Delimiter == 0 {
			reader = csvd.NewReader(decoded)
		} else {
			reader = csv.NewReader(decoded)
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1 // allow variable fields

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			select {
			case rowCh <- position(reader, record):
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

func position(reader *csv.Reader, fields []string) Record {
	rec := Record{Fields: fields}
	rec.Line, _ = reader.FieldPos(0)
	last := len(fields) - 1
	line, _ := reader.FieldPos(last)
	rec.End = line + strings.Count(fields[last], "\n")
	return rec
}

// decodeReader converts r to utf-8 according to the named encoding.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "utf-8", "utf8":
		return r, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	case "":
		br := bufio.NewReaderSize(r, sniffLen)
		head, err := br.Peek(sniffLen)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, eris.Wrap(err, "csv: peek head")
		}
		if validUTF8Prefix(head, len(head) == sniffLen) {
			return br, nil
		}
		return charmap.Windows1252.NewDecoder().Reader(br), nil
	default:
		return nil, eris.Errorf("csv: unsupported encoding %q", encoding)
	}
}

// validUTF8Prefix reports whether b is valid utf-8. When b was cut from a
// longer stream a rune split at the end is tolerated.
func validUTF8Prefix(b []byte, truncated bool) bool {
	if utf8.Valid(b) {
		return true
	}
	if !truncated {
		return false
	}
	for i := 1; i < utf8.UTFMax && i < len(b); i++ {
		if utf8.Valid(b[:len(b)-i]) {
			return true
		}
	}
	return false
}
