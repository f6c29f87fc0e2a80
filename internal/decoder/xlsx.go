package decoder

import (
	"fmt"
	"io"

	"github.com/nconklindev/workerimport/internal/alias"
	"github.com/nconklindev/workerimport/internal/types"

	"github.com/xuri/excelize/v2"
)

// HeaderSearchLimit bounds how far down the first sheet the header row is
// looked for.
const HeaderSearchLimit = 20

func decodeXLSX(r io.Reader) (*types.FileData, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpreadsheetRead, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrSpreadsheetRead)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpreadsheetRead, err)
	}

	headerRowIdx := findHeaderRow(rows)
	if headerRowIdx == -1 {
		return nil, ErrEmptyFile
	}

	data := &types.FileData{
		Headers:   rows[headerRowIdx],
		HeaderRow: headerRowIdx,
	}
	for i := headerRowIdx + 1; i < len(rows); i++ {
		if isBlank(rows[i]) {
			continue
		}
		data.Rows = append(data.Rows, rows[i])
		data.Lines = append(data.Lines, i+1)
	}

	if len(data.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	return data, nil
}

// findHeaderRow picks, among the first HeaderSearchLimit rows, the one whose
// cells resolve to the most worker fields, so title rows above the table are
// skipped. Ties keep the earliest row. With no recognizable header the first
// non-blank row is used; -1 means the sheet is blank.
func findHeaderRow(rows [][]string) int {
	searchLimit := len(rows)
	if searchLimit > HeaderSearchLimit {
		searchLimit = HeaderSearchLimit
	}

	first, best, headerIdx := -1, 0, -1
	for i := 0; i < searchLimit; i++ {
		if isBlank(rows[i]) {
			continue
		}
		if first == -1 {
			first = i
		}
		if n := alias.MapHeaders(rows[i]).Recognized(); n > best {
			best = n
			headerIdx = i
		}
	}

	if headerIdx == -1 {
		return first
	}
	return headerIdx
}
