package tabular

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ParseSpreadsheet reads the first sheet of an XLSX workbook. The header row
// is the first non-blank row. Numeric cells are returned as float64 so date
// serials reach the date parser untouched.
func ParseSpreadsheet(data []byte) ([]Row, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnreadableFile, err)
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptyFile)
	}

	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrUnreadableFile, sheet, err)
	}

	headerIdx := -1
	for i, cells := range rows {
		if !blank(cells) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}
	headers := rows[headerIdx]

	result := make([]Row, 0, len(rows)-headerIdx-1)
	for i := headerIdx + 1; i < len(rows); i++ {
		cells := rows[i]
		if blank(cells) {
			continue
		}
		row := make(Row, len(headers))
		for j, raw := range cells {
			if j >= len(headers) || headers[j] == "" || raw == "" {
				continue
			}
			if _, seen := row[headers[j]]; seen {
				continue
			}
			row[headers[j]] = typedCell(file, sheet, j+1, i+1, raw)
		}
		result = append(result, row)
	}
	return result, nil
}

var isoDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func typedCell(file *excelize.File, sheet string, col, row int, raw string) any {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	cellType, err := file.GetCellType(sheet, axis)
	if err != nil {
		return raw
	}

	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return f
		}
	case excelize.CellTypeDate:
		for _, layout := range isoDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC()
			}
		}
	}
	return raw
}
