package validator

import (
	"github.com/saferoutes/engine/internal/geo"
)

// #region validator

// Validator runs shape-quality checks on candidate routes before any scoring
// work is spent on them.
type Validator struct {
	config Config
}

// New creates a validator with the given configuration.
func New(config Config) *Validator {
	return &Validator{config: config}
}

// #endregion validator

// #region connectivity

// ValidateConnectivity reports whether every consecutive gap in the point
// sequence stays within MaxGapKm. Routing engines can return geometrically
// discontinuous polylines on degenerate inputs; those must never reach the
// user. Single-point and empty routes are invalid by definition.
func (v *Validator) ValidateConnectivity(points []geo.Point) bool {
	if len(points) < 2 {
		return false
	}
	for i := 0; i+1 < len(points); i++ {
		if geo.Haversine(points[i], points[i+1]) > v.config.MaxGapKm {
			return false
		}
	}
	return true
}

// #endregion connectivity

// #region coverage

// CheckMainRoadCoverage samples the route and classifies each sampled point
// via the supplied classifier. Returns whether coverage meets MinCoverage
// and the coverage percentage. Advisory only; never a hard rejection by
// itself.
func (v *Validator) CheckMainRoadCoverage(points []geo.Point, classify RoadClassifier) (bool, float64) {
	if len(points) < 2 || classify == nil {
		return false, 0
	}

	sampled := geo.Sample(points, v.config.CoverageSamples)
	mainCount := 0
	for _, p := range sampled {
		if classify.IsMainRoad(p) {
			mainCount++
		}
	}

	coverage := float64(mainCount) / float64(len(sampled))
	return coverage >= v.config.MinCoverage, coverage * 100
}

// #endregion coverage

// #region backtracking

// DetectBacktracking reports whether the route's shape is acceptable (true =
// keep). Rejects on excessive detour ratio, on too many sliding-window
// segments regressing away from the destination, and on excessive lateral
// deviation from the direct line. A shape-quality heuristic, not a safety
// one.
func (v *Validator) DetectBacktracking(points []geo.Point, start, end geo.Point) bool {
	if len(points) < 5 {
		return true
	}

	direct := geo.Haversine(start, end)
	if direct < v.config.MinDirectKm {
		return true
	}

	// Detour ratio check
	actual := geo.PathLength(points)
	if actual/direct > v.config.MaxDetourRatio {
		return false
	}

	// Sliding-window progress check: compare distance-to-destination before
	// and after each window.
	sampleSize := v.config.WindowSamples
	if len(points) < sampleSize {
		sampleSize = len(points)
	}
	step := len(points) / sampleSize
	if step < 1 {
		step = 1
	}

	backtracks := 0
	stagnant := 0
	windows := 0
	for i := 0; i+step < len(points); i += step {
		current := geo.Haversine(points[i], end)
		next := geo.Haversine(points[i+step], end)
		progress := current - next

		switch {
		case progress < 0:
			backtracks++
		case progress < v.config.StagnantKm:
			stagnant++
		}
		windows++
	}
	if windows > 0 {
		if float64(backtracks) > float64(windows)*v.config.MaxBacktrackShare {
			return false
		}
		if float64(backtracks+stagnant) > float64(windows)*v.config.MaxStagnantShare {
			return false
		}
	}

	// Lateral deviation check: a point far from both endpoints marks a detour.
	maxDeviation := 0.0
	for _, p := range geo.Sample(points, 10) {
		dStart := geo.Haversine(start, p)
		dEnd := geo.Haversine(p, end)
		if dStart > direct*0.7 && dEnd > direct*0.7 {
			dev := dStart
			if dEnd < dev {
				dev = dEnd
			}
			if dev > maxDeviation {
				maxDeviation = dev
			}
		}
	}
	return maxDeviation <= direct*v.config.MaxDeviationShare
}

// #endregion backtracking
