package analysis

import "strconv"

// Status tags an analysis result so callers branch explicitly instead of
// sniffing result shapes.
type Status int

const (
	// StatusOK means the result payload is populated.
	StatusOK Status = iota
	// StatusNoData means the store returned no rows for the filters (or
	// the store was unavailable and degraded to empty rows).
	StatusNoData
	// StatusSelectionRequired means a user precondition was not met: no
	// event type was selected. No store query is issued in this case.
	StatusSelectionRequired
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoData:
		return "no_data"
	case StatusSelectionRequired:
		return "selection_required"
	default:
		return "unknown"
	}
}

// MarshalJSON emits the status as its label so consumers of JSON reports
// see "no_data" rather than a bare enum number.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}
