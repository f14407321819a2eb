package validator

import "github.com/saferoutes/engine/internal/geo"

// #region road-classifier
// RoadClassifier supplies the per-point main-road classification. The
// validator never computes this itself; implementations come from the
// population dataset or an OSM-backed classifier.
type RoadClassifier interface {
	IsMainRoad(p geo.Point) bool
}

// #endregion road-classifier

// #region config
// Config holds the shape-quality thresholds. The detour and regression
// shares are tuned heuristics, not derived values; treat them as policy.
type Config struct {
	MaxGapKm          float64 // connectivity: max gap between consecutive points
	MinCoverage       float64 // main-road: required fraction of sampled points
	CoverageSamples   int     // main-road: max points sampled per route
	MaxDetourRatio    float64 // backtracking: route length / direct distance cap
	MaxBacktrackShare float64 // backtracking: max fraction of regressing windows
	MaxStagnantShare  float64 // backtracking: max fraction of regressing + stagnant windows
	StagnantKm        float64 // backtracking: progress below this counts as stagnant
	MinDirectKm       float64 // backtracking: routes shorter than this always pass
	MaxDeviationShare float64 // backtracking: max lateral deviation / direct distance
	WindowSamples     int     // backtracking: sliding-window sample count
}

// DefaultConfig returns the standard shape-quality thresholds.
func DefaultConfig() Config {
	return Config{
		MaxGapKm:          0.5,
		MinCoverage:       0.4,
		CoverageSamples:   20,
		MaxDetourRatio:    1.3,
		MaxBacktrackShare: 0.2,
		MaxStagnantShare:  0.4,
		StagnantKm:        0.01,
		MinDirectKm:       0.1,
		MaxDeviationShare: 0.3,
		WindowSamples:     20,
	}
}

// #endregion config
