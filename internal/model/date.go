package model

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a civil calendar date without time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.In(time.UTC).Format(dateLayout)
}

func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// ISOWeek returns the ISO 8601 year and week number (1..53) of d.
func (d Date) ISOWeek() (year, week int) {
	return d.In(time.UTC).ISOWeek()
}

func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

func (d Date) Before(o Date) bool {
	return d.In(time.UTC).Before(o.In(time.UTC))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Weekday identifies a template day. Sunday is deliberately absent.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Weekdays lists every template day in calendar order.
func Weekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

func (w Weekday) Valid() bool {
	return w >= Monday && w <= Saturday
}

// String returns the lowercase English name, e.g. "monday".
func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// Short returns the three-letter name, e.g. "mon".
func (w Weekday) Short() string {
	return w.String()[:3]
}

// Time converts to the standard library weekday.
func (w Weekday) Time() time.Weekday {
	return time.Weekday((int(w) + 1) % 7)
}

// WeekdayOf maps a standard library weekday; Sunday reports false.
func WeekdayOf(d time.Weekday) (Weekday, bool) {
	if d == time.Sunday {
		return 0, false
	}
	return Weekday(int(d) - 1), true
}

// ParseWeekday accepts short ("mon") or long ("monday") names in any case.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		if s == name || s == name[:3] {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func (w Weekday) MarshalText() ([]byte, error) {
	if !w.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(w))
	}
	return []byte(w.Short()), nil
}

func (w *Weekday) UnmarshalText(b []byte) error {
	parsed, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Parity is the week condition of a template lesson.
type Parity int

const (
	ParityEvery Parity = iota
	ParityEven
	ParityOdd
)

// ParityOf converts the optional is_even flag.
func ParityOf(isEven *bool) Parity {
	switch {
	case isEven == nil:
		return ParityEvery
	case *isEven:
		return ParityEven
	default:
		return ParityOdd
	}
}

// IsEven converts back to the optional flag stored on DefaultLesson.
func (p Parity) IsEven() *bool {
	switch p {
	case ParityEven:
		return Ptr(true)
	case ParityOdd:
		return Ptr(false)
	default:
		return nil
	}
}

// Matches reports whether a lesson with this parity runs in a week of the
// given evenness.
func (p Parity) Matches(evenWeek bool) bool {
	switch p {
	case ParityEven:
		return evenWeek
	case ParityOdd:
		return !evenWeek
	default:
		return true
	}
}

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "every"
	}
}

// ParseParity accepts every/all/empty, even and odd.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "every", "all", "always":
		return ParityEvery, nil
	case "even":
		return ParityEven, nil
	case "odd":
		return ParityOdd, nil
	default:
		return ParityEvery, fmt.Errorf("unknown parity %q", s)
	}
}
