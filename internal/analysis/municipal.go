package analysis

import (
	"sort"

	"github.com/aira-xamk/airadash/internal/metrics"
	"github.com/aira-xamk/airadash/internal/models"
)

// topMunicipalities is how many regions each event type's ranking keeps.
const topMunicipalities = 10

// PopulationYear is the fixed reference year for incident-rate
// normalization. Mixing population years across regions would distort the
// rates, so every caller uses this one.
const PopulationYear = 2024

// MergedRow joins one municipality's incident count for one event type
// with that municipality's population.
type MergedRow struct {
	Municipality  string
	EventType     string
	IncidentCount int64
	Population    int64
}

// MunicipalityRate is one ranked row of the per-1000-inhabitants analysis.
type MunicipalityRate struct {
	Municipality  string
	EventType     string
	IncidentCount int64
	Population    int64
	// Rate is incidents per 1000 inhabitants, rounded to 2 decimals.
	Rate float64
	// Rank runs 1..10 within the event type, best rate first.
	Rank int
}

// MunicipalResult is the tagged output of TopMunicipalityRates.
type MunicipalResult struct {
	Status Status
	// Rows holds the concatenated per-type top-10 tables, in the caller's
	// selection order.
	Rows []MunicipalityRate
	// EventTypes echoes the selection, for chart grouping.
	EventTypes []string
}

// MergeIncidents inner-joins incident counts with population rows by
// municipality. Municipalities missing from either side are dropped.
func MergeIncidents(incidents []models.IncidentCount, population []models.PopulationCount) []MergedRow {
	popByMunicipality := make(map[string]int64, len(population))
	for _, p := range population {
		popByMunicipality[p.Municipality] = p.Population
	}

	var merged []MergedRow
	for _, inc := range incidents {
		pop, ok := popByMunicipality[inc.Municipality]
		if !ok || pop <= 0 {
			continue
		}
		merged = append(merged, MergedRow{
			Municipality:  inc.Municipality,
			EventType:     inc.EventType,
			IncidentCount: inc.Count,
			Population:    pop,
		})
	}
	return merged
}

// TopMunicipalityRates ranks municipalities by incidents per 1000
// inhabitants for each selected event type and keeps the top 10 per type.
// Ties keep the original row order. A selected type with no merged rows
// contributes nothing; an empty selection is a user error, not a query.
func TopMunicipalityRates(merged []MergedRow, selected []string) MunicipalResult {
	res := topMunicipalityRates(merged, selected)
	metrics.AnalysesTotal.WithLabelValues("municipalities", res.Status.String()).Inc()
	return res
}

func topMunicipalityRates(merged []MergedRow, selected []string) MunicipalResult {
	if len(selected) == 0 {
		return MunicipalResult{Status: StatusSelectionRequired}
	}

	var rows []MunicipalityRate
	for _, eventType := range selected {
		var candidates []MunicipalityRate
		for _, m := range merged {
			if m.EventType != eventType {
				continue
			}
			candidates = append(candidates, MunicipalityRate{
				Municipality:  m.Municipality,
				EventType:     m.EventType,
				IncidentCount: m.IncidentCount,
				Population:    m.Population,
				Rate:          round2(float64(m.IncidentCount) / float64(m.Population) * 1000),
			})
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Rate > candidates[j].Rate
		})
		if len(candidates) > topMunicipalities {
			candidates = candidates[:topMunicipalities]
		}
		for i := range candidates {
			candidates[i].Rank = i + 1
		}
		rows = append(rows, candidates...)
	}

	if len(rows) == 0 {
		return MunicipalResult{Status: StatusNoData, EventTypes: selected}
	}
	return MunicipalResult{Status: StatusOK, Rows: rows, EventTypes: selected}
}
