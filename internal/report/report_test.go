package report

import (
	"strings"
	"testing"
	"time"

	"github.com/aira-xamk/airadash/internal/analysis"
)

func monthFilter(t *testing.T) analysis.Filter {
	t.Helper()
	f, err := analysis.ParseFilter("2023-01-01", "2023-02-28", []string{"rakennuspalo"}, nil, nil, "month", false, time.UTC)
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	return f
}

func TestRates_SeriesPerEventType(t *testing.T) {
	f := monthFilter(t)
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)

	res := analysis.RateResult{
		Status: analysis.StatusOK,
		Rows: []analysis.RateRow{
			{Bucket: jan, EventType: "maastopalo", SubsetCount: 1, TotalCount: 10, Percentage: 10},
			{Bucket: jan, EventType: "rakennuspalo", SubsetCount: 4, TotalCount: 10, Percentage: 40},
			{Bucket: feb, EventType: "rakennuspalo", SubsetCount: 2, TotalCount: 8, Percentage: 25},
		},
		SubsetTotal:       7,
		GrandTotal:        18,
		OverallPercentage: 38.89,
	}

	rep := Rates(f, res)
	if rep.Status != analysis.StatusOK {
		t.Fatalf("Status = %v", rep.Status)
	}
	if len(rep.Series) != 2 {
		t.Fatalf("len(Series) = %d, want 2", len(rep.Series))
	}

	byName := map[string]Series{}
	for _, s := range rep.Series {
		byName[s.Name] = s
	}
	rk, ok := byName["rakennuspalo"]
	if !ok {
		t.Fatal("missing rakennuspalo series")
	}
	if len(rk.Points) != 2 {
		t.Fatalf("rakennuspalo points = %d, want 2", len(rk.Points))
	}
	if rk.Points[0].X != "2023-01" || rk.Points[0].Y != 40 {
		t.Errorf("first point = %+v, want (2023-01, 40)", rk.Points[0])
	}
	if rk.Points[1].X != "2023-02" {
		t.Errorf("points out of order: %+v", rk.Points)
	}

	if len(rep.Table.Rows) != 3 {
		t.Errorf("table rows = %d, want 3", len(rep.Table.Rows))
	}
	if !strings.Contains(rep.Summary, "Selected events: 7") {
		t.Errorf("summary missing totals: %q", rep.Summary)
	}
	if !strings.Contains(rep.Summary, "38.89%") {
		t.Errorf("summary missing share: %q", rep.Summary)
	}
}

func TestRates_StationCharts(t *testing.T) {
	f := monthFilter(t)
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	res := analysis.RateResult{
		Status:         analysis.StatusOK,
		BreakdownTypes: []string{"rakennuspalo"},
		StationRows: []analysis.StationRateRow{
			{Bucket: jan, Station: "KAA", EventType: "rakennuspalo", SubsetCount: 2, TotalCount: 10, Percentage: 20},
			{Bucket: jan, Station: "KYM", EventType: "rakennuspalo", SubsetCount: 5, TotalCount: 10, Percentage: 50},
		},
	}

	rep := Rates(f, res)
	if len(rep.StationCharts) != 1 {
		t.Fatalf("len(StationCharts) = %d, want 1", len(rep.StationCharts))
	}
	chart := rep.StationCharts[0]
	if chart.EventType != "rakennuspalo" {
		t.Errorf("chart event type = %q", chart.EventType)
	}
	if len(chart.Series) != 2 {
		t.Fatalf("chart series = %d, want one per station", len(chart.Series))
	}
	if chart.Series[0].Name != "Station KAA" {
		t.Errorf("series name = %q, want Station KAA", chart.Series[0].Name)
	}
}

func TestRates_PropagatesStatus(t *testing.T) {
	f := monthFilter(t)

	rep := Rates(f, analysis.RateResult{Status: analysis.StatusNoData})
	if rep.Status != analysis.StatusNoData {
		t.Errorf("Status = %v, want no_data", rep.Status)
	}
	if rep.Summary == "" {
		t.Error("no-data report should carry a message")
	}
	if len(rep.Series) != 0 {
		t.Error("no-data report should have no series")
	}

	rep = Rates(f, analysis.RateResult{Status: analysis.StatusSelectionRequired})
	if !strings.Contains(rep.Summary, "Select at least one event type") {
		t.Errorf("selection-required message = %q", rep.Summary)
	}
}

func TestMunicipalities(t *testing.T) {
	res := analysis.MunicipalResult{
		Status:     analysis.StatusOK,
		EventTypes: []string{"rakennuspalo", "ensivaste"},
		Rows: []analysis.MunicipalityRate{
			{Municipality: "Kouvola", EventType: "rakennuspalo", IncidentCount: 150, Population: 50000, Rate: 3.0, Rank: 1},
			{Municipality: "Kotka", EventType: "rakennuspalo", IncidentCount: 80, Population: 40000, Rate: 2.0, Rank: 2},
			{Municipality: "Kouvola", EventType: "ensivaste", IncidentCount: 500, Population: 50000, Rate: 10.0, Rank: 1},
		},
	}

	rep := Municipalities(res)
	if rep.Status != analysis.StatusOK {
		t.Fatalf("Status = %v", rep.Status)
	}
	if len(rep.Series) != 2 {
		t.Fatalf("len(Series) = %d, want one per event type", len(rep.Series))
	}
	if rep.Series[0].Name != "rakennuspalo" {
		t.Errorf("series order should follow selection order, got %q first", rep.Series[0].Name)
	}
	if len(rep.Table.Rows) != 3 {
		t.Errorf("table rows = %d, want 3", len(rep.Table.Rows))
	}
	if rep.Table.Rows[0][0] != "1" || rep.Table.Rows[0][1] != "Kouvola" {
		t.Errorf("first row = %v", rep.Table.Rows[0])
	}
	if !strings.Contains(rep.Summary, "Municipalities shown: 2") {
		t.Errorf("summary = %q", rep.Summary)
	}
}

func TestFireWeather_SkipsMonthsWithoutWeather(t *testing.T) {
	res := analysis.FireWeatherResult{
		Status: analysis.StatusOK,
		Months: []analysis.FireMonth{
			{Month: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), FireCount: 4, AvgPrecip: 2.5, HasWeather: true},
			{Month: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), FireCount: 7, HasWeather: false},
		},
	}

	rep := FireWeather(analysis.AxisPrecip, res)
	if len(rep.Series) != 1 {
		t.Fatalf("len(Series) = %d, want 1", len(rep.Series))
	}
	if len(rep.Series[0].Points) != 1 {
		t.Errorf("scatter points = %d, want 1 (February lacks weather)", len(rep.Series[0].Points))
	}
	// The table keeps all months, with empty weather cells.
	if len(rep.Table.Rows) != 2 {
		t.Errorf("table rows = %d, want 2", len(rep.Table.Rows))
	}
	if rep.Table.Rows[1][2] != "" {
		t.Errorf("February weather cell = %q, want empty", rep.Table.Rows[1][2])
	}
}

func TestFormatBucket(t *testing.T) {
	ts := time.Date(2023, 6, 12, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		g    analysis.Granularity
		want string
	}{
		{analysis.Day, "2023-06-12"},
		{analysis.Week, "2023-06-12"},
		{analysis.Month, "2023-06"},
		{analysis.Year, "2023"},
	}
	for _, tt := range tests {
		if got := FormatBucket(ts, tt.g); got != tt.want {
			t.Errorf("FormatBucket(%v) = %q, want %q", tt.g, got, tt.want)
		}
	}
}
