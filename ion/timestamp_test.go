package ion

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestParseTimestampRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		precision Precision
	}{
		{name: "year", input: "2024T", precision: PrecisionYear},
		{name: "month", input: "2024-01T", precision: PrecisionMonth},
		{name: "day", input: "2024-01-16T", precision: PrecisionDay},
		{name: "minute utc", input: "2024-01-16T10:20Z", precision: PrecisionMinute},
		{name: "second with offset", input: "2024-01-16T10:20:30+09:00", precision: PrecisionSecond},
		{name: "fraction", input: "2024-01-16T10:20:30.125Z", precision: PrecisionFraction},
		{name: "unknown offset", input: "2024-01-16T10:20:30-00:00", precision: PrecisionSecond},
		{name: "negative offset", input: "1999-12-31T23:59-05:30", precision: PrecisionMinute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := ParseTimestamp(tt.input)
			assert.NoError(t, err)
			assert.Equal(t, tt.precision, ts.Precision)
			assert.Equal(t, tt.input, ts.String())
		})
	}
}

func TestParseTimestampDayWithoutT(t *testing.T) {
	ts, err := ParseTimestamp("2024-02-29")
	assert.NoError(t, err)
	assert.Equal(t, "2024-02-29T", ts.String())
}

func TestParseTimestampErrors(t *testing.T) {
	inputs := []string{
		"24T",
		"2024-13T",
		"2023-02-29T",
		"2024-01-16T10",
		"2024-01-16T10:20",
		"2024-01-16T10:20:30.Z",
		"2024-01-16T10:20+25:00",
	}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTimestamp(input)
			assert.IsError(t, err, ErrInvalidTimestamp)
		})
	}
}

func TestTimestampFields(t *testing.T) {
	n := func(v int) *int { return &v }
	sec := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	tests := []struct {
		name     string
		fields   TimestampFields
		expected string
	}{
		{name: "year", fields: TimestampFields{Year: 2024}, expected: "2024T"},
		{name: "month", fields: TimestampFields{Year: 2024, Month: n(3)}, expected: "2024-03T"},
		{name: "day", fields: TimestampFields{Year: 2024, Month: n(3), Day: n(9)}, expected: "2024-03-09T"},
		{
			name:     "minute with unknown offset",
			fields:   TimestampFields{Year: 2024, Month: n(3), Day: n(9), Hour: n(8), Minute: n(7)},
			expected: "2024-03-09T08:07-00:00",
		},
		{
			name:     "second with offset",
			fields:   TimestampFields{Year: 2024, Month: n(3), Day: n(9), Hour: n(8), Minute: n(7), Second: sec("6"), OffsetMinutes: n(540)},
			expected: "2024-03-09T08:07:06+09:00",
		},
		{
			name:     "fractional second keeps its digits",
			fields:   TimestampFields{Year: 2024, Month: n(3), Day: n(9), Hour: n(8), Minute: n(7), Second: sec("6.50"), OffsetMinutes: n(0)},
			expected: "2024-03-09T08:07:06.50Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := tt.fields.Timestamp()
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, ts.String())
		})
	}
}

func TestTimestampFieldsErrors(t *testing.T) {
	n := func(v int) *int { return &v }
	sec := decimal.RequireFromString("1.0123456789")

	tests := []struct {
		name   string
		fields TimestampFields
	}{
		{name: "year out of range", fields: TimestampFields{Year: 0}},
		{name: "day without month", fields: TimestampFields{Year: 2024, Day: n(1)}},
		{name: "hour without minute", fields: TimestampFields{Year: 2024, Month: n(1), Day: n(1), Hour: n(1)}},
		{name: "minute without day", fields: TimestampFields{Year: 2024, Month: n(1), Hour: n(1), Minute: n(1)}},
		{name: "second without minute", fields: TimestampFields{Year: 2024, Month: n(1), Day: n(1), Hour: n(1), Second: &sec}},
		{name: "offset on a date", fields: TimestampFields{Year: 2024, Month: n(1), Day: n(1), OffsetMinutes: n(0)}},
		{name: "month out of range", fields: TimestampFields{Year: 2024, Month: n(13)}},
		{name: "minute out of range", fields: TimestampFields{Year: 2024, Month: n(1), Day: n(1), Hour: n(1), Minute: n(60)}},
		{name: "too many fractional digits", fields: TimestampFields{Year: 2024, Month: n(1), Day: n(1), Hour: n(1), Minute: n(1), Second: &sec}},
		{name: "offset out of range", fields: TimestampFields{Year: 2024, Month: n(1), Day: n(1), Hour: n(1), Minute: n(1), OffsetMinutes: n(1440)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fields.Timestamp()
			assert.IsError(t, err, ErrInvalidTimestamp)
		})
	}
}
