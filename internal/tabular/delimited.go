package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const utf8BOM = "\ufeff"

// ParseDelimited reads comma or semicolon separated text. Input that is not
// valid UTF-8 is decoded as Windows-1252, the charset of Italian Excel exports.
func ParseDelimited(data []byte) ([]Row, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, err
	}
	text = bytes.TrimPrefix(text, []byte(utf8BOM))
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, ErrEmptyFile
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var headers []string
	rows := make([]Row, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		if blank(record) {
			continue
		}
		if headers == nil {
			headers = record
			continue
		}

		row := make(Row, len(headers))
		for i, value := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			if _, seen := row[headers[i]]; seen {
				continue
			}
			row[headers[i]] = value
		}
		rows = append(rows, row)
	}
	if headers == nil {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func toUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return decoded, nil
}

// detectDelimiter counts separators on the header line; semicolon wins only
// when it is strictly more frequent.
func detectDelimiter(text []byte) rune {
	var line string
	for _, candidate := range strings.Split(string(text), "\n") {
		if strings.TrimSpace(candidate) != "" {
			line = candidate
			break
		}
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}
