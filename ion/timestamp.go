package ion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTimestamp is returned for malformed timestamp text.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Precision is the finest unit a Timestamp carries.
type Precision uint8

const (
	PrecisionYear Precision = iota
	PrecisionMonth
	PrecisionDay
	PrecisionMinute
	PrecisionSecond
	PrecisionFraction
)

// Timestamp is an Ion timestamp: an instant plus the precision it was written
// with and whether its local offset is known.
type Timestamp struct {
	Time           time.Time
	Precision      Precision
	FractionDigits int
	OffsetKnown    bool
}

// NewTimestamp creates a second-precision timestamp with a known offset.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Precision: PrecisionSecond, OffsetKnown: true}
}

// Equal reports whether both timestamps denote the same instant with the same
// precision and offset knowledge.
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.String() == other.String()
}

// ParseTimestamp parses the Ion text form of a timestamp.
func ParseTimestamp(text string) (Timestamp, error) {
	fail := func(reason string) (Timestamp, error) {
		return Timestamp{}, fmt.Errorf("%w %q: %s", ErrInvalidTimestamp, text, reason)
	}

	s := text
	year, ok := fixedDigits(s, 4)
	if !ok {
		return fail("year must have four digits")
	}
	s = s[4:]
	if s == "T" {
		return Timestamp{Time: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), Precision: PrecisionYear}, nil
	}
	if !strings.HasPrefix(s, "-") {
		return fail("expected '-' after year")
	}
	month, ok := fixedDigits(s[1:], 2)
	if !ok || month < 1 || month > 12 {
		return fail("invalid month")
	}
	s = s[3:]
	if s == "T" {
		return Timestamp{Time: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), Precision: PrecisionMonth}, nil
	}
	if !strings.HasPrefix(s, "-") {
		return fail("expected '-' after month")
	}
	day, ok := fixedDigits(s[1:], 2)
	if !ok || day < 1 || day > daysIn(year, month) {
		return fail("invalid day")
	}
	s = s[3:]
	if s == "" || s == "T" {
		return Timestamp{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), Precision: PrecisionDay}, nil
	}
	if !strings.HasPrefix(s, "T") {
		return fail("expected 'T' after day")
	}
	s = s[1:]

	hour, ok := fixedDigits(s, 2)
	if !ok || hour > 23 || len(s) < 5 || s[2] != ':' {
		return fail("invalid hour")
	}
	minute, ok := fixedDigits(s[3:], 2)
	if !ok || minute > 59 {
		return fail("invalid minute")
	}
	s = s[5:]

	ts := Timestamp{Precision: PrecisionMinute}
	second, nanos := 0, 0
	if strings.HasPrefix(s, ":") {
		second, ok = fixedDigits(s[1:], 2)
		if !ok || second > 59 {
			return fail("invalid second")
		}
		s = s[3:]
		ts.Precision = PrecisionSecond
		if strings.HasPrefix(s, ".") {
			end := 1
			for end < len(s) && s[end] >= '0' && s[end] <= '9' {
				end++
			}
			digits := s[1:end]
			if digits == "" || len(digits) > 9 {
				return fail("invalid fractional seconds")
			}
			frac, _ := strconv.Atoi(digits + strings.Repeat("0", 9-len(digits)))
			nanos = frac
			ts.Precision = PrecisionFraction
			ts.FractionDigits = len(digits)
			s = s[end:]
		}
	}

	loc := time.UTC
	switch {
	case s == "Z":
		ts.OffsetKnown = true
	case s == "-00:00":
		ts.OffsetKnown = false
	case len(s) == 6 && (s[0] == '+' || s[0] == '-') && s[3] == ':':
		oh, ok1 := fixedDigits(s[1:], 2)
		om, ok2 := fixedDigits(s[4:], 2)
		if !ok1 || !ok2 || oh > 23 || om > 59 {
			return fail("invalid offset")
		}
		offset := oh*3600 + om*60
		if s[0] == '-' {
			offset = -offset
		}
		loc = time.FixedZone("", offset)
		ts.OffsetKnown = true
	default:
		return fail("missing or invalid offset")
	}
	ts.Time = time.Date(year, time.Month(month), day, hour, minute, second, nanos, loc)
	return ts, nil
}

// TimestampFields are the components of a timestamp. Nil fields are absent,
// and the finest present field decides the precision.
type TimestampFields struct {
	Year   int
	Month  *int
	Day    *int
	Hour   *int
	Minute *int
	// Second may carry up to nine fractional digits.
	Second *decimal.Decimal
	// OffsetMinutes is the local offset. Nil means the offset is unknown.
	OffsetMinutes *int
}

// Timestamp builds the timestamp the fields describe. A field requires every
// coarser field, and an offset is only allowed with minute precision or finer.
func (f TimestampFields) Timestamp() (Timestamp, error) {
	fail := func(format string, args ...any) (Timestamp, error) {
		return Timestamp{}, fmt.Errorf("%w: %s", ErrInvalidTimestamp, fmt.Sprintf(format, args...))
	}

	if f.Year < 1 || f.Year > 9999 {
		return fail("year %d is out of range", f.Year)
	}
	precision, finest := PrecisionYear, "year"
	switch {
	case f.Second != nil:
		precision, finest = PrecisionSecond, "second"
	case f.Minute != nil:
		precision, finest = PrecisionMinute, "minute"
	case f.Hour != nil:
		return fail("minute is required when hour is present")
	case f.Day != nil:
		precision, finest = PrecisionDay, "day"
	case f.Month != nil:
		precision, finest = PrecisionMonth, "month"
	}
	if f.OffsetMinutes != nil && precision < PrecisionMinute {
		return fail("offset is only allowed with hour and minute")
	}
	required := []struct {
		name    string
		present bool
		from    Precision
	}{
		{"month", f.Month != nil, PrecisionDay},
		{"day", f.Day != nil, PrecisionMinute},
		{"hour", f.Hour != nil, PrecisionMinute},
		{"minute", f.Minute != nil, PrecisionSecond},
	}
	for _, r := range required {
		if precision >= r.from && !r.present {
			return fail("%s is required when %s is present", r.name, finest)
		}
	}

	month, day := 1, 1
	if f.Month != nil {
		month = *f.Month
		if month < 1 || month > 12 {
			return fail("month %d is out of range", month)
		}
	}
	if f.Day != nil {
		day = *f.Day
		if day < 1 || day > daysIn(f.Year, month) {
			return fail("day %d is out of range", day)
		}
	}
	if precision < PrecisionMinute {
		return Timestamp{Time: time.Date(f.Year, time.Month(month), day, 0, 0, 0, 0, time.UTC), Precision: precision}, nil
	}

	hour, minute := *f.Hour, *f.Minute
	if hour < 0 || hour > 23 {
		return fail("hour %d is out of range", hour)
	}
	if minute < 0 || minute > 59 {
		return fail("minute %d is out of range", minute)
	}

	ts := Timestamp{Precision: precision}
	second, nanos := 0, 0
	if f.Second != nil {
		s := *f.Second
		if s.Sign() < 0 || s.GreaterThanOrEqual(decimal.NewFromInt(60)) {
			return fail("second %s is out of range", s)
		}
		if exp := s.Exponent(); exp < 0 {
			if exp < -9 {
				return fail("second %s has more than nine fractional digits", s)
			}
			ts.Precision = PrecisionFraction
			ts.FractionDigits = int(-exp)
		}
		second = int(s.IntPart())
		nanos = int(s.Sub(decimal.NewFromInt(int64(second))).Shift(9).IntPart())
	}

	loc := time.UTC
	if f.OffsetMinutes != nil {
		offset := *f.OffsetMinutes
		if offset <= -24*60 || offset >= 24*60 {
			return fail("offset %d is out of range", offset)
		}
		loc = time.FixedZone("", offset*60)
		ts.OffsetKnown = true
	}
	ts.Time = time.Date(f.Year, time.Month(month), day, hour, minute, second, nanos, loc)
	return ts, nil
}

func (ts Timestamp) String() string {
	t := ts.Time
	switch ts.Precision {
	case PrecisionYear:
		return fmt.Sprintf("%04dT", t.Year())
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%02dT", t.Year(), int(t.Month()))
	case PrecisionDay:
		return fmt.Sprintf("%04d-%02d-%02dT", t.Year(), int(t.Month()), t.Day())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%04d-%02d-%02dT%02d:%02d", t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
	if ts.Precision >= PrecisionSecond {
		fmt.Fprintf(&b, ":%02d", t.Second())
	}
	if ts.Precision == PrecisionFraction && ts.FractionDigits > 0 {
		frac := fmt.Sprintf("%09d", t.Nanosecond())
		b.WriteString(".")
		b.WriteString(frac[:ts.FractionDigits])
	}
	if !ts.OffsetKnown {
		b.WriteString("-00:00")
		return b.String()
	}
	_, offset := t.Zone()
	if offset == 0 {
		b.WriteString("Z")
		return b.String()
	}
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	fmt.Fprintf(&b, "%c%02d:%02d", sign, offset/3600, (offset%3600)/60)
	return b.String()
}

func fixedDigits(s string, n int) (int, bool) {
	if len(s) < n {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + int(c-'0')
	}
	return v, true
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
