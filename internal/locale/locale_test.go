package locale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"1.234,56", 1234.56, true},
		{"120,00", 120, true},
		{"1,234", 1234, true},
		{"-45,5", -45.5, true},
		{"€ 12,50", 12.5, true},
		{"12,", 12, true},
		{"1,234,567", 1234567, true},
		{"19.90", 19.9, true},
		{"  7 ", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{nil, 0, false},
		{float64(3.5), 3.5, true},
		{42, 42, true},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		assert.Equal(t, tc.ok, ok, "input %v", tc.in)
		if tc.ok {
			assert.InDelta(t, tc.want, got, 1e-9, "input %v", tc.in)
		}
	}
}

func TestRoundAmount(t *testing.T) {
	assert.Equal(t, 100.0, RoundAmount(2, 50))
	assert.Equal(t, 0.3, RoundAmount(3, 0.1))
	assert.Equal(t, 39.8, RoundAmount(2, 19.9))
	assert.Equal(t, 1.01, Round2(1.005))
}

func TestParseDateTwoAndFourDigitYears(t *testing.T) {
	short, err := ParseDate("15/12/24")
	require.NoError(t, err)
	long, err := ParseDate("15/12/2024")
	require.NoError(t, err)

	assert.True(t, short.Equal(long))
	assert.Equal(t, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), long)
	assert.Equal(t, "2024-12-15T00:00:00.000Z", FormatTimestamp(long))
}

func TestParseDateCentury(t *testing.T) {
	d, err := ParseDate("01/01/30")
	require.NoError(t, err)
	assert.Equal(t, 2030, d.Year())

	d, err = ParseDate("01/01/31")
	require.NoError(t, err)
	assert.Equal(t, 1931, d.Year())
}

func TestParseDateKeepsTimeOfDay(t *testing.T) {
	d, err := ParseDate("30/09/2025 18:44:41")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-30T18:44:41.000Z", FormatTimestamp(d))

	d, err = ParseDate("30/09/2025 8:05")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-30T08:05:00.000Z", FormatTimestamp(d))
}

func TestParseDateRejectsInvalid(t *testing.T) {
	for _, in := range []any{"31/02/2024", "00/01/2024", "12/13/2024", "10/10/2024 24:00", "10/10/2024 10:60", "2024-01-01", "", nil, true} {
		_, err := ParseDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %v", in)
	}
}

func TestParseDateSerial(t *testing.T) {
	d, err := ParseDate(float64(45641))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate(45641.5)
	require.NoError(t, err)
	assert.Equal(t, 12, d.Hour())
}

func TestParseDateNative(t *testing.T) {
	in := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	d, err := ParseDate(in)
	require.NoError(t, err)
	assert.Equal(t, 9, d.Hour())
	assert.Equal(t, time.UTC, d.Location())
}

func TestTimestampRoundTrip(t *testing.T) {
	d, err := ParseTimestamp("2025-09-30T18:44:41.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-30T18:44:41.000Z", FormatTimestamp(d))
}
