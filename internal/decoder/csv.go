package decoder

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/nconklindev/workerimport/internal/types"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeCSV(r io.Reader) (*types.FileData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	text, err := toUTF8(raw)
	if err != nil {
		return nil, err
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	data := &types.FileData{}
	header := true
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if header {
			data.Headers = SplitLine(line)
			data.HeaderRow = i
			header = false
			continue
		}
		data.Rows = append(data.Rows, SplitLine(line))
		data.Lines = append(data.Lines, i+1)
	}

	if len(data.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	return data, nil
}

// SplitLine tokenizes one CSV line. A double quote toggles quoted mode and is
// not kept; commas inside quotes are literal. Escaped quotes ("") are not
// recognized.
func SplitLine(line string) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}

	return append(fields, cur.String())
}

// toUTF8 strips a UTF-8 BOM and decodes anything that is not valid UTF-8 as
// Windows-1252, which is what Excel writes for "CSV" in Spanish locales.
func toUTF8(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode windows-1252: %w", err)
	}
	return string(decoded), nil
}
