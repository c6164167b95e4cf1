package analysis

import (
	"fmt"
	"time"
)

// Filter carries every user-selectable restriction for one analysis run.
// It is built once per request by ParseFilter and never mutated afterwards.
//
// Municipality and station selections are independent dimensions and are
// combined with AND when both are set. Whether they were meant to be
// mutually exclusive selectors in the UI is an open UX question; the
// combined behavior is what the dashboard has always done.
type Filter struct {
	Start            time.Time
	End              time.Time
	EventTypes       []string
	Municipalities   []string
	Stations         []string
	Granularity      Granularity
	StationBreakdown bool
}

// ValidationError reports malformed user input. It aborts an analysis
// before any store query runs.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

const dateLayout = "2006-01-02"

// ParseFilter validates raw date strings and a granularity label into a
// Filter. The date range is inclusive: end covers the whole final day.
func ParseFilter(startDate, endDate string, eventTypes, municipalities, stations []string, granularity string, stationBreakdown bool, loc *time.Location) (Filter, error) {
	start, err := time.ParseInLocation(dateLayout, startDate, loc)
	if err != nil {
		return Filter{}, &ValidationError{Field: "start date", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", startDate)}
	}
	end, err := time.ParseInLocation(dateLayout, endDate, loc)
	if err != nil {
		return Filter{}, &ValidationError{Field: "end date", Message: fmt.Sprintf("%q is not a YYYY-MM-DD date", endDate)}
	}
	if end.Before(start) {
		return Filter{}, &ValidationError{Field: "date range", Message: "end date is before start date"}
	}

	g, err := ParseGranularity(granularity)
	if err != nil {
		return Filter{}, err
	}

	return Filter{
		Start:            start,
		End:              end.AddDate(0, 0, 1).Add(-time.Second),
		EventTypes:       eventTypes,
		Municipalities:   municipalities,
		Stations:         stations,
		Granularity:      g,
		StationBreakdown: stationBreakdown,
	}, nil
}
