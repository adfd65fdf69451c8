package loader

import (
	"io"
	"os"

	"github.com/h2non/filetype"
	"github.com/rotisserie/eris"
)

// Format identifies the container format of an input file.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// sniffLen is the number of leading bytes inspected by Detect.
const sniffLen = 8192

// Detect classifies the leading bytes of a file. Zip-signatured input is
// treated as a workbook; anything filetype does not recognize is treated as
// delimited text.
func Detect(head []byte) (Format, error) {
	kind, _ := filetype.Match(head)
	if kind == filetype.Unknown {
		return FormatCSV, nil
	}

	switch kind.Extension {
	case "xlsx", "zip":
		return FormatXLSX, nil
	case "xls":
		return "", eris.New("loader: legacy .xls workbooks are not supported, save as .xlsx")
	default:
		return "", eris.Errorf("loader: unsupported file type %q (%s)", kind.Extension, kind.MIME.Value)
	}
}

// DetectFile reads the head of the file at path and classifies it.
func DetectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrap(err, "loader: open file")
	}
	defer f.Close() //nolint:errcheck

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", eris.Wrap(err, "loader: read file head")
	}
	if n == 0 {
		return "", eris.New("loader: input file is empty")
	}

	return Detect(head[:n])
}
