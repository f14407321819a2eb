package dataset

import "github.com/saferoutes/engine/internal/geo"

// #region table

// Table is a read-only collection of weighted sample points.
type Table []Record

// CountWithin returns how many records fall within radiusKm of p.
func (t Table) CountWithin(p geo.Point, radiusKm float64) int {
	count := 0
	for _, r := range t {
		if geo.Haversine(p, r.Point) <= radiusKm {
			count++
		}
	}
	return count
}

// MeanWeightWithin averages the Weight of records within radiusKm of p.
// Returns fallback when no record is in range.
func (t Table) MeanWeightWithin(p geo.Point, radiusKm, fallback float64) float64 {
	var sum float64
	count := 0
	for _, r := range t {
		if geo.Haversine(p, r.Point) <= radiusKm {
			sum += r.Weight
			count++
		}
	}
	if count == 0 {
		return fallback
	}
	return sum / float64(count)
}

// #endregion table

// #region population-table

// PopulationTable is a read-only collection of population samples.
type PopulationTable []PopulationRecord

// Nearby summarizes population samples within radiusKm of p: mean density
// scaled to 0-10, mean traffic scaled to 0-10, and whether the majority of
// nearby samples sit on a main road. Falls back to neutral 5.0 scores and
// false when nothing is in range.
func (t PopulationTable) Nearby(p geo.Point, radiusKm float64) (density, traffic float64, isMainRoad bool) {
	var densSum, trafSum float64
	mainCount := 0
	count := 0
	for _, r := range t {
		if geo.Haversine(p, r.Point) <= radiusKm {
			densSum += r.Density
			trafSum += r.Traffic
			if r.IsMainRoad {
				mainCount++
			}
			count++
		}
	}
	if count == 0 {
		return 5.0, 5.0, false
	}
	density = densSum / float64(count) / 1000
	traffic = trafSum / float64(count) / 10
	isMainRoad = float64(mainCount)/float64(count) > 0.5
	return density, traffic, isMainRoad
}

// MeanDensityWithin averages the raw (unscaled) density of samples within
// radiusKm of p. Returns 0 when nothing is in range.
func (t PopulationTable) MeanDensityWithin(p geo.Point, radiusKm float64) float64 {
	var sum float64
	count := 0
	for _, r := range t {
		if geo.Haversine(p, r.Point) <= radiusKm {
			sum += r.Density
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// #endregion population-table

// #region classifier

// PopulationClassifier classifies points as main-road by majority vote of
// nearby population samples. Implements validator.RoadClassifier.
type PopulationClassifier struct {
	Table    PopulationTable
	RadiusKm float64
}

// IsMainRoad reports whether most population samples near p are on a main road.
func (c PopulationClassifier) IsMainRoad(p geo.Point) bool {
	_, _, isMain := c.Table.Nearby(p, c.RadiusKm)
	return isMain
}

// #endregion classifier
