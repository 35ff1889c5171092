package weather

import (
	"fmt"
	"time"
)

// Date is a civil calendar date with no time-of-day component. Daily buckets
// and summary-window iteration work on Date values directly, so day arithmetic
// never depends on string formatting.
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

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

func (d Date) asTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar day.
func (d Date) Next() Date {
	return DateOf(d.asTime().AddDate(0, 0, 1))
}

// Before reports whether d is an earlier day than other.
func (d Date) Before(other Date) bool {
	return d.asTime().Before(other.asTime())
}

// After reports whether d is a later day than other.
func (d Date) After(other Date) bool {
	return d.asTime().After(other.asTime())
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
