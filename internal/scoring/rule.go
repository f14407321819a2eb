package scoring

import (
	"math"

	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/geo"
	"github.com/saferoutes/engine/internal/route"
)

// Rule-based scoring policy constants. The crime penalty exponents shape how
// sharply exposure degrades the score; the paired multiplier weights are
// (preference enabled, preference disabled).
const (
	crimePenaltyCap    = 40.0
	crimeExponent      = 1.2
	crimeFactor        = 5.0
	maxCrimePenaltyCap = 40.0
	maxCrimeExponent   = 1.4
	maxCrimeFactor     = 7.0
	hotspotPenaltyCap  = 30.0
	hotspotFactor      = 0.5

	lightingBoostPreferred   = 2.5
	lightingBoostDefault     = 0.8
	populationBoostPreferred = 2.0
	populationBoostDefault   = 0.6
	trafficBoostPreferred    = 1.5
	trafficBoostDefault      = 0.4
	mainRoadBoostPreferred   = 2.5
	mainRoadBoostDefault     = 0.7
)

// #region rule-score

// RuleScore computes the rule-based 0-100 safety score for one candidate
// from its spatial aggregates. Crime exposure subtracts capped penalties
// from a 100 baseline; lighting, population, traffic and main-road coverage
// then scale the remainder up, more aggressively for dimensions the caller
// prefers.
func RuleScore(agg features.Aggregates, prefs route.Preferences) float64 {
	basePenalty := math.Min(crimePenaltyCap, math.Pow(agg.CrimeDensity, crimeExponent)*crimeFactor)
	maxPenalty := math.Min(maxCrimePenaltyCap, math.Pow(agg.MaxCrimeExposure, maxCrimeExponent)*maxCrimeFactor)
	hotspotPenalty := math.Min(hotspotPenaltyCap, agg.HotspotPct*hotspotFactor)

	base := math.Max(0, 100-basePenalty-maxPenalty-hotspotPenalty)

	lighting := 1.0 + (agg.LightingScore/10)*boost(prefs.PreferWellLit, lightingBoostPreferred, lightingBoostDefault)
	population := 1.0 + (agg.PopulationScore/10)*boost(prefs.PreferPopulated, populationBoostPreferred, populationBoostDefault)
	traffic := 1.0 + (agg.TrafficScore/10)*boost(prefs.PreferPopulated, trafficBoostPreferred, trafficBoostDefault)
	mainRoad := 1.0 + (agg.MainRoadPct/100)*boost(prefs.PreferMainRoads, mainRoadBoostPreferred, mainRoadBoostDefault)

	multiplier := (lighting + population + traffic + mainRoad) / 4
	return geo.ClampScore(base * multiplier)
}

func boost(preferred bool, on, off float64) float64 {
	if preferred {
		return on
	}
	return off
}

// #endregion rule-score
