package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/aira-xamk/airadash/internal/metrics"
	"github.com/aira-xamk/airadash/internal/models"
)

const (
	// maxBreakdownCharts caps how many per-station breakdown charts one
	// request produces. A display-capacity limit, not a data limit.
	maxBreakdownCharts = 5

	// sampleLimit bounds the raw-row sample returned for the UI's data
	// preview table.
	sampleLimit = 100
)

// EventSource is the read interface the aggregator needs from the query
// layer. Empty filter sets leave that dimension unrestricted.
type EventSource interface {
	EventsFiltered(start, end time.Time, eventTypes, municipalities, stations []string) []models.EventRecord
}

// RateRow is the share of one event type among all events in one time
// bucket, over the same municipality/station filters.
type RateRow struct {
	Bucket      time.Time
	EventType   string
	SubsetCount int64
	TotalCount  int64
	Percentage  float64
}

// StationRateRow is a RateRow computed against a single station's own
// totals rather than the global ones.
type StationRateRow struct {
	Bucket      time.Time
	Station     string
	EventType   string
	SubsetCount int64
	TotalCount  int64
	Percentage  float64
}

// RateResult is the tagged output of Aggregator.Rates. Rows and the
// summary fields are only meaningful when Status is StatusOK.
type RateResult struct {
	Status         Status
	Rows           []RateRow
	StationRows    []StationRateRow
	BreakdownTypes []string

	SubsetTotal       int64
	GrandTotal        int64
	OverallPercentage float64
	Sample            []models.EventRecord
}

// Aggregator computes percentage-of-total time series for selected event
// types. The "total" denominator applies the same date, municipality and
// station filters as the subset but never the event type filter.
type Aggregator struct {
	source EventSource
	loc    *time.Location
}

func NewAggregator(source EventSource, loc *time.Location) *Aggregator {
	return &Aggregator{source: source, loc: loc}
}

// Rates runs one rate analysis for f. An empty event type selection
// returns StatusSelectionRequired without touching the store; empty
// subset or total rows return StatusNoData.
func (a *Aggregator) Rates(f Filter) RateResult {
	res := a.rates(f)
	metrics.AnalysesTotal.WithLabelValues("rates", res.Status.String()).Inc()
	return res
}

func (a *Aggregator) rates(f Filter) RateResult {
	if len(f.EventTypes) == 0 {
		return RateResult{Status: StatusSelectionRequired}
	}

	subset := a.source.EventsFiltered(f.Start, f.End, f.EventTypes, f.Municipalities, f.Stations)
	total := a.source.EventsFiltered(f.Start, f.End, nil, f.Municipalities, f.Stations)
	if len(subset) == 0 || len(total) == 0 {
		return RateResult{Status: StatusNoData}
	}

	type bucketType struct {
		bucket    time.Time
		eventType string
	}

	totalByBucket := make(map[time.Time]int64)
	for _, r := range total {
		totalByBucket[Bucket(r.Timestamp, f.Granularity, a.loc)]++
	}

	subsetCounts := make(map[bucketType]int64)
	for _, r := range subset {
		key := bucketType{Bucket(r.Timestamp, f.Granularity, a.loc), r.EventType}
		subsetCounts[key]++
	}

	rows := make([]RateRow, 0, len(subsetCounts))
	for key, count := range subsetCounts {
		totalCount := totalByBucket[key.bucket]
		if totalCount == 0 {
			// Percentage is undefined; the bucket is omitted rather than
			// surfacing a division by zero.
			continue
		}
		rows = append(rows, RateRow{
			Bucket:      key.bucket,
			EventType:   key.eventType,
			SubsetCount: count,
			TotalCount:  totalCount,
			Percentage:  round2(float64(count) / float64(totalCount) * 100),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Bucket.Equal(rows[j].Bucket) {
			return rows[i].Bucket.Before(rows[j].Bucket)
		}
		return rows[i].EventType < rows[j].EventType
	})

	result := RateResult{
		Status:      StatusOK,
		Rows:        rows,
		SubsetTotal: int64(len(subset)),
		GrandTotal:  int64(len(total)),
		Sample:      subset[:min(len(subset), sampleLimit)],
	}
	result.OverallPercentage = round2(float64(len(subset)) / float64(len(total)) * 100)

	if f.StationBreakdown {
		result.StationRows, result.BreakdownTypes = a.stationBreakdown(f, subset, total)
	}
	return result
}

// stationBreakdown regroups the same fetched rows by station, using each
// station's own event volume as the denominator. Rows without a station
// value are left out. When no stations were selected the breakdown covers
// every station present in the subset.
func (a *Aggregator) stationBreakdown(f Filter, subset, total []models.EventRecord) ([]StationRateRow, []string) {
	type bucketStation struct {
		bucket  time.Time
		station string
	}
	type bucketStationType struct {
		bucket    time.Time
		station   string
		eventType string
	}

	totalByStation := make(map[bucketStation]int64)
	for _, r := range total {
		if !r.Station.Valid {
			continue
		}
		key := bucketStation{Bucket(r.Timestamp, f.Granularity, a.loc), r.Station.String}
		totalByStation[key]++
	}

	subsetByStation := make(map[bucketStationType]int64)
	for _, r := range subset {
		if !r.Station.Valid {
			continue
		}
		key := bucketStationType{Bucket(r.Timestamp, f.Granularity, a.loc), r.Station.String, r.EventType}
		subsetByStation[key]++
	}

	rows := make([]StationRateRow, 0, len(subsetByStation))
	for key, count := range subsetByStation {
		totalCount := totalByStation[bucketStation{key.bucket, key.station}]
		if totalCount == 0 {
			continue
		}
		rows = append(rows, StationRateRow{
			Bucket:      key.bucket,
			Station:     key.station,
			EventType:   key.eventType,
			SubsetCount: count,
			TotalCount:  totalCount,
			Percentage:  round2(float64(count) / float64(totalCount) * 100),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Bucket.Equal(rows[j].Bucket) {
			return rows[i].Bucket.Before(rows[j].Bucket)
		}
		if rows[i].Station != rows[j].Station {
			return rows[i].Station < rows[j].Station
		}
		return rows[i].EventType < rows[j].EventType
	})

	var types []string
	seen := make(map[string]bool)
	for _, r := range rows {
		if seen[r.EventType] {
			continue
		}
		seen[r.EventType] = true
		types = append(types, r.EventType)
		if len(types) == maxBreakdownCharts {
			break
		}
	}
	return rows, types
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
