// Package report turns analysis results into presentation-ready chart
// series, tables and text summaries. It is pure transformation: no I/O,
// and the only "errors" are the NoData/SelectionRequired tags carried
// through from the analyses.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aira-xamk/airadash/internal/analysis"
)

// Point is one (x, y) pair of a chart series. X is already formatted for
// display; the presentation layer decides styling, not values.
type Point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Series is one named, ordered line or bar group.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Table is a tabular summary with named columns.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// StationChart groups the per-station series of one event type's
// breakdown chart.
type StationChart struct {
	EventType string   `json:"event_type"`
	Series    []Series `json:"series"`
}

// Report is the assembled output of one analysis invocation.
type Report struct {
	Status        analysis.Status `json:"status"`
	Series        []Series        `json:"series,omitempty"`
	StationCharts []StationChart  `json:"station_charts,omitempty"`
	Table         Table           `json:"table"`
	Sample        Table           `json:"sample,omitempty"`
	Summary       string          `json:"summary"`
}

// FormatBucket renders a bucket timestamp at the precision of its
// granularity.
func FormatBucket(t time.Time, g analysis.Granularity) string {
	switch g {
	case analysis.Month:
		return t.Format("2006-01")
	case analysis.Year:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

// Rates assembles the percentage-of-total analysis: one series per
// selected event type, one breakdown chart per capped event type with a
// series per station, the aggregation table, and a raw-row sample.
func Rates(f analysis.Filter, r analysis.RateResult) Report {
	if r.Status != analysis.StatusOK {
		return Report{Status: r.Status, Summary: statusSummary(r.Status)}
	}

	rep := Report{Status: analysis.StatusOK}

	seriesIdx := make(map[string]int)
	for _, row := range r.Rows {
		i, ok := seriesIdx[row.EventType]
		if !ok {
			i = len(rep.Series)
			seriesIdx[row.EventType] = i
			rep.Series = append(rep.Series, Series{Name: row.EventType})
		}
		rep.Series[i].Points = append(rep.Series[i].Points, Point{
			X: FormatBucket(row.Bucket, f.Granularity),
			Y: row.Percentage,
		})
	}

	for _, eventType := range r.BreakdownTypes {
		chart := StationChart{EventType: eventType}
		idx := make(map[string]int)
		for _, row := range r.StationRows {
			if row.EventType != eventType {
				continue
			}
			name := "Station " + row.Station
			i, ok := idx[name]
			if !ok {
				i = len(chart.Series)
				idx[name] = i
				chart.Series = append(chart.Series, Series{Name: name})
			}
			chart.Series[i].Points = append(chart.Series[i].Points, Point{
				X: FormatBucket(row.Bucket, f.Granularity),
				Y: row.Percentage,
			})
		}
		rep.StationCharts = append(rep.StationCharts, chart)
	}

	rep.Table = Table{Columns: []string{"Period", "Event type", "Selected", "Total", "Share %"}}
	for _, row := range r.Rows {
		rep.Table.Rows = append(rep.Table.Rows, []string{
			FormatBucket(row.Bucket, f.Granularity),
			row.EventType,
			strconv.FormatInt(row.SubsetCount, 10),
			strconv.FormatInt(row.TotalCount, 10),
			formatFloat(row.Percentage),
		})
	}

	rep.Sample = Table{Columns: []string{"Timestamp", "Event type", "Municipality", "Station"}}
	for _, rec := range r.Sample {
		station := ""
		if rec.Station.Valid {
			station = rec.Station.String
		}
		rep.Sample.Rows = append(rep.Sample.Rows, []string{
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.EventType,
			rec.Municipality,
			station,
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Events in range: %d\n", r.GrandTotal)
	fmt.Fprintf(&b, "Selected events: %d\n", r.SubsetTotal)
	fmt.Fprintf(&b, "Share of all events: %s%%\n", formatFloat(r.OverallPercentage))
	fmt.Fprintf(&b, "Filters: %s", describeFilter(f))
	rep.Summary = b.String()

	return rep
}

// Municipalities assembles the per-1000-inhabitants ranking: one series
// per selected event type with a point per ranked municipality.
func Municipalities(r analysis.MunicipalResult) Report {
	if r.Status != analysis.StatusOK {
		return Report{Status: r.Status, Summary: statusSummary(r.Status)}
	}

	rep := Report{Status: analysis.StatusOK}

	for _, eventType := range r.EventTypes {
		s := Series{Name: eventType}
		for _, row := range r.Rows {
			if row.EventType != eventType {
				continue
			}
			s.Points = append(s.Points, Point{X: row.Municipality, Y: row.Rate})
		}
		if len(s.Points) > 0 {
			rep.Series = append(rep.Series, s)
		}
	}

	rep.Table = Table{Columns: []string{"Rank", "Municipality", "Event type", "Incidents", "Population", "Per 1000"}}
	var totalIncidents int64
	municipalities := make(map[string]bool)
	for _, row := range r.Rows {
		rep.Table.Rows = append(rep.Table.Rows, []string{
			strconv.Itoa(row.Rank),
			row.Municipality,
			row.EventType,
			strconv.FormatInt(row.IncidentCount, 10),
			strconv.FormatInt(row.Population, 10),
			formatFloat(row.Rate),
		})
		totalIncidents += row.IncidentCount
		municipalities[row.Municipality] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Event types analyzed: %s\n", strings.Join(r.EventTypes, ", "))
	fmt.Fprintf(&b, "Incidents in top municipalities: %d\n", totalIncidents)
	fmt.Fprintf(&b, "Municipalities shown: %d\n", len(municipalities))
	fmt.Fprintf(&b, "Normalization: per 1000 inhabitants (%d population)", analysis.PopulationYear)
	rep.Summary = b.String()

	return rep
}

// FireWeather assembles the fire-event/weather correlation as a scatter
// series of (weather value, fire count), plus the monthly table.
func FireWeather(axis analysis.WeatherAxis, r analysis.FireWeatherResult) Report {
	if r.Status != analysis.StatusOK {
		return Report{Status: r.Status, Summary: statusSummary(r.Status)}
	}

	rep := Report{Status: analysis.StatusOK}

	scatter := Series{Name: "fire events vs " + axis.String()}
	for _, m := range r.Months {
		v, ok := m.AxisValue(axis)
		if !ok {
			continue
		}
		scatter.Points = append(scatter.Points, Point{X: formatFloat(v), Y: float64(m.FireCount)})
	}
	rep.Series = append(rep.Series, scatter)

	rep.Table = Table{Columns: []string{"Month", "Fires", "Avg temp", "Precip", "Max temp", "Min temp", "Snow"}}
	var totalFires int64
	for _, m := range r.Months {
		row := []string{m.Month.Format("2006-01"), strconv.FormatInt(m.FireCount, 10), "", "", "", "", ""}
		if m.HasWeather {
			row[2] = formatFloat(m.AvgTemp)
			row[3] = formatFloat(m.AvgPrecip)
			row[4] = formatFloat(m.AvgMaxTemp)
			row[5] = formatFloat(m.AvgMinTemp)
			row[6] = formatFloat(m.AvgSnow)
		}
		rep.Table.Rows = append(rep.Table.Rows, row)
		totalFires += m.FireCount
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Months covered: %d\n", len(r.Months))
	fmt.Fprintf(&b, "Fire events: %d\n", totalFires)
	fmt.Fprintf(&b, "X axis: %s", axis)
	rep.Summary = b.String()

	return rep
}

func describeFilter(f analysis.Filter) string {
	parts := []string{
		fmt.Sprintf("%s to %s", f.Start.Format("2006-01-02"), f.End.Format("2006-01-02")),
		"granularity " + f.Granularity.String(),
		"types " + orAll(f.EventTypes),
		"municipalities " + orAll(f.Municipalities),
		"stations " + orAll(f.Stations),
	}
	return strings.Join(parts, ", ")
}

func orAll(values []string) string {
	if len(values) == 0 {
		return "all"
	}
	return strings.Join(values, "/")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func statusSummary(s analysis.Status) string {
	switch s {
	case analysis.StatusSelectionRequired:
		return "Select at least one event type."
	case analysis.StatusNoData:
		return "No data available with the current filter settings."
	default:
		return ""
	}
}
