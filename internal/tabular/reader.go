// Package tabular turns uploaded CSV and XLSX files into header-keyed rows.
package tabular

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("empty file")
	ErrUnreadableFile  = errors.New("unreadable file")
)

// Row maps a header, exactly as found in the file, to a cell value.
// Values are string, float64 or time.Time.
type Row map[string]any

// Read dispatches on the file extension after checking the content matches it.
func Read(filename string, data []byte) ([]Row, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	switch ext {
	case ".csv", ".txt", ".xlsx", ".xlsm":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	detected := sniff(data)
	switch ext {
	case ".xlsx", ".xlsm":
		if detected != "application/zip" {
			return nil, fmt.Errorf("%w: content looks like %s", ErrUnreadableFile, detected)
		}
		return ParseSpreadsheet(data)
	default:
		if !strings.HasPrefix(detected, "text/") {
			return nil, fmt.Errorf("%w: content looks like %s", ErrUnreadableFile, detected)
		}
		return ParseDelimited(data)
	}
}

func sniff(data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected := http.DetectContentType(head)
	return strings.ToLower(strings.TrimSpace(strings.Split(detected, ";")[0]))
}

// CellString renders a cell as text. Whole numbers lose their decimal part so
// numeric SKUs read from a spreadsheet compare equal to the CSV spelling.
func CellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case fmt.Stringer:
		return strings.TrimSpace(c.String())
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func blank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
