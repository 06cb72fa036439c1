package locale

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

// Spreadsheet serial 25569 is 1970-01-01.
const serialEpochOffset = 25569

const timestampLayout = "2006-01-02T15:04:05.000Z"

var datePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})(?:\s+(\d{1,2}):(\d{2})(?::(\d{2}))?)?$`)

// ParseDate accepts a spreadsheet serial, a time.Time, or a DD/MM/YY[YY]
// string with an optional HH:MM[:SS] suffix. The result is in UTC.
func ParseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	case time.Time:
		if d.IsZero() {
			return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
		}
		return d.UTC(), nil
	case float64:
		return fromSerial(d)
	case int:
		return fromSerial(float64(d))
	case int64:
		return fromSerial(float64(d))
	case string:
		return parseDateString(d)
	}
	return time.Time{}, fmt.Errorf("%w: unsupported value %v", ErrInvalidDate, v)
}

func fromSerial(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial <= 0 {
		return time.Time{}, fmt.Errorf("%w: serial %v", ErrInvalidDate, serial)
	}
	ms := math.Round((serial - serialEpochOffset) * 86400000)
	return time.UnixMilli(int64(ms)).UTC(), nil
}

func parseDateString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		if year <= 30 {
			year += 2000
		} else {
			year += 1900
		}
	}
	var hour, minute, second int
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
	}
	if m[6] != "" {
		second, _ = strconv.Atoi(m[6])
	}

	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1900 || year > 2100 {
		return time.Time{}, fmt.Errorf("%w: %q out of range", ErrInvalidDate, raw)
	}
	if hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("%w: %q time out of range", ErrInvalidDate, raw)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDate, raw)
	}
	return t, nil
}

// FormatTimestamp renders t as an ISO-8601 UTC timestamp with milliseconds.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp is the inverse of FormatTimestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}
