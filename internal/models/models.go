package models

import (
	"database/sql"
	"time"
)

// EventRecord is one dispatched rescue event row from the tilanteet table.
// Records are read-only; nothing in this codebase mutates them.
type EventRecord struct {
	Timestamp    time.Time      `db:"timestamp"`
	EventType    string         `db:"event_type"`
	Municipality string         `db:"municipality"`
	Station      sql.NullString `db:"hake"`
}

// WeatherDay is one daily observation row from the saatilat table.
type WeatherDay struct {
	Date      time.Time       `db:"paivamaara"`
	AvgTemp   sql.NullFloat64 `db:"keskilampotila"`
	Precip    sql.NullFloat64 `db:"sademaara"`
	MaxTemp   sql.NullFloat64 `db:"maksimilampotila"`
	MinTemp   sql.NullFloat64 `db:"minimilampotila"`
	SnowDepth sql.NullFloat64 `db:"lumensyvyys"`
}

// PopulationCount is one municipality/year row from the vakiluvut table.
type PopulationCount struct {
	Municipality string `db:"alue"`
	Year         int    `db:"vuosi"`
	Population   int64  `db:"vakiluku"`
}

// IncidentCount is an aggregated count of events per municipality and type.
type IncidentCount struct {
	Municipality string `db:"municipality"`
	EventType    string `db:"event_type"`
	Count        int64  `db:"incident_count"`
}

// EventTypeCount pairs an event type with its total occurrence count,
// used for populating filter choices.
type EventTypeCount struct {
	EventType string `db:"event_type"`
	Count     int64  `db:"count"`
}

// DataRanges holds the values the UI needs to build its filter widgets:
// the span of available data and the distinct filterable labels.
type DataRanges struct {
	MinDate        time.Time
	MaxDate        time.Time
	EventTypes     []string
	Municipalities []string
	Stations       []string
}
