// Package decoder turns an uploaded roster file into a header row and data
// rows, dispatching on the file extension.
package decoder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/workerimport/internal/types"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("empty file: no data rows")
	ErrSpreadsheetRead   = errors.New("could not read spreadsheet")
)

// Extensions lists the accepted file extensions.
var Extensions = []string{".csv", ".xlsx", ".xls"}

// Supported reports whether the file name carries an accepted extension.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadFile decodes the file at path. Unsupported extensions are rejected
// before the file is opened.
func ReadFile(path string) (*types.FileData, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(filepath.Base(path), f)
}

// Decode reads a whole upload from r; name is only used for its extension.
func Decode(name string, r io.Reader) (*types.FileData, error) {
	var (
		data *types.FileData
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		data, err = decodeCSV(r)
	case ".xlsx", ".xls":
		data, err = decodeXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, err
	}

	data.Name = name
	return data, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
