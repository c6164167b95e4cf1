package analysis

import (
	"fmt"
	"time"
)

// Granularity selects how event timestamps are grouped into periods.
type Granularity int

const (
	Day Granularity = iota
	Week
	Month
	Year
)

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
}

// ParseGranularity maps a user-supplied label to a Granularity.
func ParseGranularity(label string) (Granularity, error) {
	switch label {
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	default:
		return 0, &ValidationError{Field: "granularity", Message: fmt.Sprintf("unknown granularity %q (want day, week, month or year)", label)}
	}
}

// Bucket truncates t to the start of its period in loc:
// day to midnight, week to the ISO week's Monday, month to the first of
// the month, year to January 1. Bucketing is monotonic: t1 <= t2 implies
// Bucket(t1) <= Bucket(t2).
func Bucket(t time.Time, g Granularity, loc *time.Location) time.Time {
	t = t.In(loc)
	switch g {
	case Week:
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		// Weekday is Sunday-based; shift so Monday is day 0.
		return midnight.AddDate(0, 0, -((int(midnight.Weekday()) + 6) % 7))
	case Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}
}
