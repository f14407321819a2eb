package route

import (
	"github.com/saferoutes/engine/internal/geo"
)

// #region step
// Step is one turn-by-turn instruction attached to a candidate by the
// external routing engine. Carried through unchanged.
type Step struct {
	Number      int     `json:"number"`
	Instruction string  `json:"instruction"`
	DistanceM   float64 `json:"distance_m"`
	Maneuver    string  `json:"maneuver,omitempty"`
}

// #endregion step

// #region candidate
// Candidate is one possible route returned by the external routing engine.
// Points must have length >= 2; DistanceKm and DurationMin are non-negative.
// SafetyScore and Warnings are attached during pipeline processing and are
// meaningless before it.
type Candidate struct {
	Points      []geo.Point `json:"points"`
	Steps       []Step      `json:"steps,omitempty"`
	DistanceKm  float64     `json:"distance_km"`
	DurationMin float64     `json:"duration_min"`

	SafetyScore float64  `json:"safety_score"`
	Warnings    []string `json:"guardrail_warnings,omitempty"`
}

// #endregion candidate

// #region preferences
// Preferences are the caller's routing preferences for one request. Each
// enabled preference adds its additive bonus during composite scoring;
// PreferMainRoads additionally enables the advisory coverage filter.
type Preferences struct {
	PreferMainRoads bool `json:"prefer_main_roads"`
	PreferWellLit   bool `json:"prefer_well_lit"`
	PreferPopulated bool `json:"prefer_populated"`
}

// #endregion preferences

// #region breakdown
// Breakdown records how a final score was assembled, for diagnostics.
// RuleScore is the raw rule-based score before guardrail adjustments;
// AdjustedScore is the value the composite blend consumed.
type Breakdown struct {
	RuleScore       float64 `json:"rule_score"`
	AdjustedScore   float64 `json:"adjusted_score"`
	MLScore         float64 `json:"ml_score"`
	MLUsed          bool    `json:"ml_used"`
	PreferenceBonus float64 `json:"preference_bonus"`
	Composite       float64 `json:"composite_score"`
}

// #endregion breakdown
