package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for dates (ISO 8601 calendar date).
const DateLayout = "2006-01-02"

// DateRange is an inclusive pair of days, normalized to UTC midnight.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range from two instants, truncating both to UTC
// midnight. Returns ErrInvalidRange when start is after end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: midnightUTC(start), End: midnightUTC(end)}
	if r.Start.After(r.End) {
		return DateRange{}, fmt.Errorf("%w: start %s after end %s",
			ErrInvalidRange, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD strings into a range. Empty or
// malformed input and inverted bounds all map to ErrInvalidRange.
func ParseDateRange(startStr, endStr string) (DateRange, error) {
	if startStr == "" || endStr == "" {
		return DateRange{}, fmt.Errorf("%w: start_date and end_date are required", ErrInvalidRange)
	}
	start, err := time.ParseInLocation(DateLayout, startStr, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad start_date %q", ErrInvalidRange, startStr)
	}
	end, err := time.ParseInLocation(DateLayout, endStr, time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: bad end_date %q", ErrInvalidRange, endStr)
	}
	return NewDateRange(start, end)
}

// Overlaps reports whether r and o share at least one day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.End.Before(o.Start) && !o.End.Before(r.Start)
}

// Days returns the number of days the range covers (always >= 1).
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start)/(24*time.Hour)) + 1
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// NextDay and PrevDay step one calendar day; the range-cache walk uses them
// to compute gap boundaries between inclusive entries.

func NextDay(t time.Time) time.Time { return t.AddDate(0, 0, 1) }

func PrevDay(t time.Time) time.Time { return t.AddDate(0, 0, -1) }

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
