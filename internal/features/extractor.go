package features

import (
	"fmt"
	"time"

	"github.com/saferoutes/engine/internal/dataset"
	"github.com/saferoutes/engine/internal/geo"
	"github.com/saferoutes/engine/internal/route"
)

// #region extractor

// Extractor converts a route plus the spatial datasets and a timestamp into
// aggregates and a fixed-schema feature vector.
type Extractor struct {
	config Config
}

// NewExtractor creates an extractor with the given configuration.
func NewExtractor(config Config) *Extractor {
	return &Extractor{config: config}
}

// #endregion extractor

// #region aggregate

// Aggregate runs the spatial joins for one candidate against all three
// datasets. Empty datasets produce zero counts and neutral fallback scores,
// never an error.
func (e *Extractor) Aggregate(points []geo.Point, ctx dataset.Context) Aggregates {
	sampled := geo.Sample(points, e.config.SamplePoints)
	if len(sampled) == 0 {
		return Aggregates{}
	}

	var agg Aggregates
	var totalCrime, totalLighting, totalPopulation, totalTraffic float64
	poorlyLit, isolated, mainRoad := 0, 0, 0

	for _, p := range sampled {
		crimeCount := ctx.Crime.CountWithin(p, e.config.CrimeRadiusKm)
		totalCrime += float64(crimeCount)
		if float64(crimeCount) > agg.MaxCrimeExposure {
			agg.MaxCrimeExposure = float64(crimeCount)
		}
		if crimeCount > e.config.HotspotCrimeCount {
			agg.HotspotCount++
		}

		totalLighting += ctx.Lighting.MeanWeightWithin(p, e.config.LightingRadiusKm, 5.0)
		if ctx.Lighting.CountWithin(p, e.config.LightingRadiusKm) < e.config.MinLightsPerSegment {
			poorlyLit++
		}

		density, traffic, isMain := ctx.Population.Nearby(p, e.config.PopulationRadiusKm)
		totalPopulation += density
		totalTraffic += traffic
		if isMain {
			mainRoad++
		}
		if ctx.Population.MeanDensityWithin(p, e.config.PopulationRadiusKm) < e.config.MinPopulation {
			isolated++
		}
	}

	n := float64(len(sampled))
	agg.SampledPoints = len(sampled)
	agg.CrimeDensity = totalCrime / n
	agg.HotspotPct = float64(agg.HotspotCount) / n * 100
	agg.LightingScore = totalLighting / n
	agg.PoorlyLitPct = float64(poorlyLit) / n * 100
	agg.PopulationScore = totalPopulation / n
	agg.TrafficScore = totalTraffic / n
	agg.IsolatedPct = float64(isolated) / n * 100
	agg.MainRoadPct = float64(mainRoad) / n * 100
	return agg
}

// #endregion aggregate

// #region extract

// Extract builds the fixed-schema feature vector for one candidate.
func (e *Extractor) Extract(cand route.Candidate, agg Aggregates, now time.Time) Vector {
	hour := now.Hour()
	isNight := hour < 6 || hour >= 22
	isWeekend := now.Weekday() == time.Saturday || now.Weekday() == time.Sunday
	isRushHour := (hour >= 7 && hour <= 10) || (hour >= 17 && hour <= 20)

	v := Vector{
		"distance_km":          cand.DistanceKm,
		"duration_min":         cand.DurationMin,
		"num_steps":            float64(len(cand.Steps)),
		"speed_kmh":            geo.SafeDiv(cand.DistanceKm, cand.DurationMin/60),
		"main_road_percentage": agg.MainRoadPct,

		"crime_density":            agg.CrimeDensity,
		"max_crime_exposure":       agg.MaxCrimeExposure,
		"crime_hotspot_percentage": agg.HotspotPct,
		"lighting_score":           agg.LightingScore,
		"poorly_lit_percentage":    agg.PoorlyLitPct,
		"population_score":         agg.PopulationScore,
		"traffic_score":            agg.TrafficScore,
		"isolated_percentage":      agg.IsolatedPct,

		"hour_of_day":  float64(hour),
		"day_of_week":  float64((int(now.Weekday()) + 6) % 7),
		"is_weekend":   boolFeature(isWeekend),
		"is_night":     boolFeature(isNight),
		"is_rush_hour": boolFeature(isRushHour),

		"crime_per_km":              geo.SafeDiv(agg.CrimeDensity, cand.DistanceKm),
		"lighting_per_km":           agg.LightingScore * cand.DistanceKm,
		"crime_to_lighting_ratio":   agg.CrimeDensity / (agg.LightingScore + 1),
		"crime_to_population_ratio": agg.CrimeDensity / (agg.PopulationScore + 1),
	}

	if isNight {
		v["night_crime_risk"] = agg.CrimeDensity * e.config.NightCrimeFactor
		v["night_lighting_deficit"] = e.config.LightingTarget - agg.LightingScore
	} else {
		v["night_crime_risk"] = 0
		v["night_lighting_deficit"] = 0
	}

	return v
}

// #endregion extract

// #region schema

// CheckSchema verifies the vector carries exactly the fixed key set.
func CheckSchema(v Vector) error {
	if len(v) != len(Names) {
		return fmt.Errorf("%w: got %d features, want %d", ErrSchemaMismatch, len(v), len(Names))
	}
	for _, name := range Names {
		if _, ok := v[name]; !ok {
			return fmt.Errorf("%w: missing feature %q", ErrSchemaMismatch, name)
		}
	}
	return nil
}

// Ordered flattens the vector into the given name order. Any missing name is
// a schema mismatch.
func (v Vector) Ordered(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		val, ok := v[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing feature %q", ErrSchemaMismatch, name)
		}
		out[i] = val
	}
	return out, nil
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// #endregion schema
