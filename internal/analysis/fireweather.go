package analysis

import (
	"sort"
	"time"

	"github.com/aira-xamk/airadash/internal/metrics"
	"github.com/aira-xamk/airadash/internal/models"
)

// WeatherAxis picks which monthly weather average a fire correlation
// chart uses for its X axis.
type WeatherAxis int

const (
	AxisPrecip WeatherAxis = iota
	AxisAvgTemp
	AxisMaxTemp
	AxisMinTemp
	AxisSnowDepth
)

func (a WeatherAxis) String() string {
	switch a {
	case AxisPrecip:
		return "precipitation"
	case AxisAvgTemp:
		return "avg-temp"
	case AxisMaxTemp:
		return "max-temp"
	case AxisMinTemp:
		return "min-temp"
	case AxisSnowDepth:
		return "snow-depth"
	default:
		return "unknown"
	}
}

// ParseWeatherAxis maps a user-supplied label to a WeatherAxis.
func ParseWeatherAxis(label string) (WeatherAxis, error) {
	switch label {
	case "precipitation":
		return AxisPrecip, nil
	case "avg-temp":
		return AxisAvgTemp, nil
	case "max-temp":
		return AxisMaxTemp, nil
	case "min-temp":
		return AxisMinTemp, nil
	case "snow-depth":
		return AxisSnowDepth, nil
	default:
		return 0, &ValidationError{Field: "axis", Message: "unknown weather axis " + label}
	}
}

// FireMonth is one month's fire-event count joined with that month's
// weather averages. HasWeather is false when no weather rows fell in the
// month; such months stay in the table but are dropped from scatter
// series.
type FireMonth struct {
	Month      time.Time
	FireCount  int64
	AvgTemp    float64
	AvgPrecip  float64
	AvgMaxTemp float64
	AvgMinTemp float64
	AvgSnow    float64
	HasWeather bool
}

// AxisValue returns the month's value on the given axis, and whether
// weather data was available for it.
func (m FireMonth) AxisValue(axis WeatherAxis) (float64, bool) {
	if !m.HasWeather {
		return 0, false
	}
	switch axis {
	case AxisAvgTemp:
		return m.AvgTemp, true
	case AxisMaxTemp:
		return m.AvgMaxTemp, true
	case AxisMinTemp:
		return m.AvgMinTemp, true
	case AxisSnowDepth:
		return m.AvgSnow, true
	default:
		return m.AvgPrecip, true
	}
}

// FireWeatherResult is the tagged output of CorrelateFireWeather.
type FireWeatherResult struct {
	Status Status
	Months []FireMonth
}

// CorrelateFireWeather buckets fire events and daily weather rows into
// months and joins the two by month, oldest first. An empty event set is
// StatusNoData (the caller selected fire types that never occur, or the
// store degraded to empty rows).
func CorrelateFireWeather(events []models.EventRecord, weather []models.WeatherDay, loc *time.Location) FireWeatherResult {
	res := correlateFireWeather(events, weather, loc)
	metrics.AnalysesTotal.WithLabelValues("fire_weather", res.Status.String()).Inc()
	return res
}

type weatherSums struct {
	temp, precip, maxTemp, minTemp, snow      float64
	nTemp, nPrecip, nMaxTemp, nMinTemp, nSnow int
}

func correlateFireWeather(events []models.EventRecord, weather []models.WeatherDay, loc *time.Location) FireWeatherResult {
	if len(events) == 0 {
		return FireWeatherResult{Status: StatusNoData}
	}

	countByMonth := make(map[time.Time]int64)
	for _, e := range events {
		countByMonth[Bucket(e.Timestamp, Month, loc)]++
	}

	sumsByMonth := make(map[time.Time]*weatherSums)
	for _, w := range weather {
		month := Bucket(w.Date, Month, loc)
		sums := sumsByMonth[month]
		if sums == nil {
			sums = &weatherSums{}
			sumsByMonth[month] = sums
		}
		if w.AvgTemp.Valid {
			sums.temp += w.AvgTemp.Float64
			sums.nTemp++
		}
		if w.Precip.Valid {
			sums.precip += w.Precip.Float64
			sums.nPrecip++
		}
		if w.MaxTemp.Valid {
			sums.maxTemp += w.MaxTemp.Float64
			sums.nMaxTemp++
		}
		if w.MinTemp.Valid {
			sums.minTemp += w.MinTemp.Float64
			sums.nMinTemp++
		}
		if w.SnowDepth.Valid {
			sums.snow += w.SnowDepth.Float64
			sums.nSnow++
		}
	}

	months := make([]FireMonth, 0, len(countByMonth))
	for month, count := range countByMonth {
		fm := FireMonth{Month: month, FireCount: count}
		if sums, ok := sumsByMonth[month]; ok {
			fm.HasWeather = true
			fm.AvgTemp = mean(sums.temp, sums.nTemp)
			fm.AvgPrecip = mean(sums.precip, sums.nPrecip)
			fm.AvgMaxTemp = mean(sums.maxTemp, sums.nMaxTemp)
			fm.AvgMinTemp = mean(sums.minTemp, sums.nMinTemp)
			fm.AvgSnow = mean(sums.snow, sums.nSnow)
		}
		months = append(months, fm)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month.Before(months[j].Month) })

	return FireWeatherResult{Status: StatusOK, Months: months}
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}
