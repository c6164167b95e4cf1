package store

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sony/gobreaker"

	"github.com/aira-xamk/airadash/internal/metrics"
	"github.com/aira-xamk/airadash/internal/models"
)

const (
	cacheCapacity = 128

	// NoiseFloor is the minimum occurrence count for an event type to be
	// offered as a filter choice or joined against population data. It keeps
	// rarely used category labels out of the UI.
	NoiseFloor = 100
)

// Store issues read-only queries against the rescue event database.
// Queries are always built with bound parameters; user-influenced values
// are never concatenated into SQL text. Results are memoized in a bounded
// LRU cache for the lifetime of the process.
//
// Store never returns query errors to callers: failures are logged and
// counted, and the caller sees empty rows. Analyses degrade to a
// "no data" state instead of crashing the host.
type Store struct {
	db      *sqlx.DB
	cache   *queryCache
	breaker *gobreaker.CircuitBreaker
}

func New(db *sqlx.DB) *Store {
	return &Store{
		db:    db,
		cache: newQueryCache(cacheCapacity),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "store",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// EventsFiltered returns event rows in [start, end] matching every
// non-empty filter set. Passing an empty set for a dimension leaves that
// dimension unfiltered, so the "total" rows for a percentage-of-all chart
// come from the same method with eventTypes nil.
//
// Municipality and station filters are independently combinable and are
// ANDed together when both are present.
func (s *Store) EventsFiltered(start, end time.Time, eventTypes, municipalities, stations []string) []models.EventRecord {
	query := `SELECT timestamp, event_type, municipality, hake FROM tilanteet WHERE timestamp BETWEEN ? AND ?`
	args := []any{start, end}

	if len(eventTypes) > 0 {
		query += ` AND event_type IN (?)`
		args = append(args, sortedCopy(eventTypes))
	}
	if len(municipalities) > 0 {
		query += ` AND municipality IN (?)`
		args = append(args, sortedCopy(municipalities))
	}
	if len(stations) > 0 {
		query += ` AND hake IN (?)`
		args = append(args, sortedCopy(stations))
	}
	query += ` ORDER BY timestamp, event_type, municipality, hake`

	return selectRows[models.EventRecord](s, "tilanteet", query, args...)
}

// DataRanges returns the timestamp span and distinct filter labels the UI
// needs to build its controls. Event types are subject to the noise floor.
// On store failure the zero value is returned.
func (s *Store) DataRanges() models.DataRanges {
	var ranges models.DataRanges

	first := selectRows[time.Time](s, "tilanteet",
		`SELECT timestamp FROM tilanteet ORDER BY timestamp ASC LIMIT 1`)
	last := selectRows[time.Time](s, "tilanteet",
		`SELECT timestamp FROM tilanteet ORDER BY timestamp DESC LIMIT 1`)
	if len(first) == 0 || len(last) == 0 {
		return ranges
	}
	ranges.MinDate = first[0]
	ranges.MaxDate = last[0]

	ranges.EventTypes = selectRows[string](s, "tilanteet",
		`SELECT event_type FROM tilanteet GROUP BY event_type HAVING COUNT(*) > ? ORDER BY event_type`,
		NoiseFloor)
	ranges.Municipalities = selectRows[string](s, "tilanteet",
		`SELECT DISTINCT municipality FROM tilanteet ORDER BY municipality`)
	ranges.Stations = selectRows[string](s, "tilanteet",
		`SELECT DISTINCT hake FROM tilanteet WHERE hake IS NOT NULL ORDER BY hake`)
	return ranges
}

// IncidentCounts returns per-municipality, per-type event counts above the
// noise floor, for joining against population data.
func (s *Store) IncidentCounts() []models.IncidentCount {
	return selectRows[models.IncidentCount](s, "tilanteet",
		`SELECT municipality, event_type, COUNT(*) AS incident_count
		 FROM tilanteet
		 GROUP BY municipality, event_type
		 HAVING COUNT(*) > ?
		 ORDER BY municipality, event_type`,
		NoiseFloor)
}

// PopulationByYear returns one population row per municipality for the
// given reference year.
func (s *Store) PopulationByYear(year int) []models.PopulationCount {
	return selectRows[models.PopulationCount](s, "vakiluvut",
		`SELECT alue, vuosi, vakiluku FROM vakiluvut WHERE vuosi = ? ORDER BY alue`, year)
}

// WeatherDays returns every daily weather row, oldest first.
func (s *Store) WeatherDays() []models.WeatherDay {
	return selectRows[models.WeatherDay](s, "saatilat",
		`SELECT paivamaara, keskilampotila, sademaara, maksimilampotila, minimilampotila, lumensyvyys
		 FROM saatilat ORDER BY paivamaara`)
}

// FireEvents returns fire-related event rows: those whose lowercased type
// is in eventTypes, or every type containing "palo" when no selection is
// given.
func (s *Store) FireEvents(eventTypes []string) []models.EventRecord {
	if len(eventTypes) == 0 {
		return selectRows[models.EventRecord](s, "tilanteet",
			`SELECT timestamp, event_type, municipality, hake FROM tilanteet
			 WHERE lower(event_type) LIKE '%palo%'
			 ORDER BY timestamp, event_type`)
	}

	lowered := make([]string, len(eventTypes))
	for i, et := range eventTypes {
		lowered[i] = strings.ToLower(et)
	}
	return selectRows[models.EventRecord](s, "tilanteet",
		`SELECT timestamp, event_type, municipality, hake FROM tilanteet
		 WHERE lower(event_type) IN (?)
		 ORDER BY timestamp, event_type`,
		sortedCopy(lowered))
}

// FrequentFireTypes returns fire-related event types above the noise
// floor with their counts, most frequent first.
func (s *Store) FrequentFireTypes() []models.EventTypeCount {
	return selectRows[models.EventTypeCount](s, "tilanteet",
		`SELECT lower(event_type) AS event_type, COUNT(*) AS count FROM tilanteet
		 WHERE lower(event_type) LIKE '%palo%'
		 GROUP BY lower(event_type)
		 HAVING COUNT(*) > ?
		 ORDER BY count DESC, event_type`,
		NoiseFloor)
}

// CacheLen reports the number of memoized queries.
func (s *Store) CacheLen() int {
	return s.cache.len()
}

// selectRows expands IN-list placeholders, rebinds for the active driver,
// and runs the query through the cache and circuit breaker. Failures are
// logged and produce empty rows. Callers must treat returned slices as
// read-only; cache hits share the same backing array.
func selectRows[T any](s *Store, table, query string, args ...any) []T {
	bound, flat, err := sqlx.In(query, args...)
	if err != nil {
		log.Printf("store: build query for %s: %v", table, err)
		metrics.StoreQueriesTotal.WithLabelValues(table, "error").Inc()
		return nil
	}
	bound = s.db.Rebind(bound)

	key := cacheKey(bound, flat)
	if v, ok := s.cache.get(key); ok {
		return v.([]T)
	}

	begin := time.Now()
	result, err := s.breaker.Execute(func() (any, error) {
		var rows []T
		if err := s.db.Select(&rows, bound, flat...); err != nil {
			return nil, err
		}
		return rows, nil
	})
	metrics.StoreQueryLatency.WithLabelValues(table).Observe(time.Since(begin).Seconds())
	if err != nil {
		log.Printf("store: query %s: %v", table, err)
		metrics.StoreQueriesTotal.WithLabelValues(table, "error").Inc()
		return nil
	}
	metrics.StoreQueriesTotal.WithLabelValues(table, "ok").Inc()

	rows := result.([]T)
	s.cache.put(key, rows)
	return rows
}

// cacheKey builds a canonical key from the rebound SQL and its flattened
// arguments. Filter sets are sorted before query building, so equal
// filters always map to the same key.
func cacheKey(query string, args []any) string {
	var b strings.Builder
	b.WriteString(query)
	for _, a := range args {
		b.WriteByte(0x1f)
		switch v := a.(type) {
		case time.Time:
			b.WriteString(v.UTC().Format(time.RFC3339Nano))
		default:
			fmt.Fprintf(&b, "%T=%v", v, v)
		}
	}
	return b.String()
}

func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}
