package features

import "errors"

// ErrSchemaMismatch indicates a produced feature vector disagrees with the
// expected fixed schema. This is a build/deployment inconsistency, not bad
// input data, and aborts scoring for the whole batch.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// #region config
// Config holds the spatial-join radii and segment thresholds for the
// scoring aggregates and the feature vector. The guardrail hotspot search
// runs its own wider join and does not read these radii.
type Config struct {
	CrimeRadiusKm       float64 // spatial-join radius for crime incidents
	LightingRadiusKm    float64 // spatial-join radius for lighting points
	PopulationRadiusKm  float64 // spatial-join radius for population samples
	HotspotCrimeCount   int     // per-point crime count above which a segment is a hotspot
	MinLightsPerSegment int     // nearby lights below this mark a segment poorly lit
	MinPopulation       float64 // nearby raw density below this marks a segment isolated
	SamplePoints        int     // max route points sampled per candidate
	NightCrimeFactor    float64 // multiplier for night-specific crime risk
	LightingTarget      float64 // full-lighting reference for the night deficit
}

// DefaultConfig returns the standard extraction thresholds.
func DefaultConfig() Config {
	return Config{
		CrimeRadiusKm:       0.35,
		LightingRadiusKm:    0.55,
		PopulationRadiusKm:  0.55,
		HotspotCrimeCount:   3,
		MinLightsPerSegment: 2,
		MinPopulation:       50,
		SamplePoints:        50,
		NightCrimeFactor:    1.5,
		LightingTarget:      10,
	}
}

// #endregion config

// #region aggregates
// Aggregates are the per-route spatial-join summaries. They feed the
// rule-based scorer, the guardrails, and the feature vector.
type Aggregates struct {
	CrimeDensity     float64 // mean nearby crime count per sampled point
	MaxCrimeExposure float64 // worst single-point crime count
	HotspotCount     int     // sampled points exceeding HotspotCrimeCount
	HotspotPct       float64 // HotspotCount as a percentage of sampled points
	LightingScore    float64 // mean nearby lighting score, 0-10
	PoorlyLitPct     float64 // percentage of sampled points below MinLightsPerSegment
	PopulationScore  float64 // mean nearby density, scaled 0-10
	TrafficScore     float64 // mean nearby traffic, scaled 0-10
	IsolatedPct      float64 // percentage of sampled points below MinPopulation
	MainRoadPct      float64 // percentage of sampled points on main roads
	SampledPoints    int
}

// #endregion aggregates

// #region vector
// Vector maps feature name to value. Every vector produced in one batch
// carries the identical key set in Names order, zeros included, so the
// ML scorer's fixed-arity contract holds even when a dataset is empty.
type Vector map[string]float64

// Names is the fixed feature schema, in model input order.
var Names = []string{
	"distance_km",
	"duration_min",
	"num_steps",
	"speed_kmh",
	"main_road_percentage",
	"crime_density",
	"max_crime_exposure",
	"crime_hotspot_percentage",
	"lighting_score",
	"poorly_lit_percentage",
	"population_score",
	"traffic_score",
	"isolated_percentage",
	"hour_of_day",
	"day_of_week",
	"is_weekend",
	"is_night",
	"is_rush_hour",
	"crime_per_km",
	"lighting_per_km",
	"crime_to_lighting_ratio",
	"crime_to_population_ratio",
	"night_crime_risk",
	"night_lighting_deficit",
}

// #endregion vector
