package scoring

import (
	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/geo"
	"github.com/saferoutes/engine/internal/route"
)

// Blend and bonus policy constants. The 0.75/0.25 rule/ML split is fixed
// policy; when the ML score is unavailable the weighting reduces to 1.0/0.0.
const (
	ruleWeight = 0.75
	mlWeight   = 0.25

	mainRoadBonusWeight    = 0.35
	mainRoadExtraBonus     = 0.15
	mainRoadExtraThreshold = 70.0
	wellLitBonusWeight     = 0.15
	populatedBonusWeight   = 0.15
)

// #region composite

// Composite blends the guardrail-adjusted rule score, the ML score and the
// caller's preference bonuses into the final ranking score, clamped to
// [0, 100]. ruleScore is the raw rule-based score and is recorded in the
// breakdown untouched; the blend consumes adjustedScore.
func Composite(ruleScore, adjustedScore, mlScore float64, mlAvailable bool, agg features.Aggregates, prefs route.Preferences) (float64, route.Breakdown) {
	blended := adjustedScore
	if mlAvailable {
		blended = ruleWeight*adjustedScore + mlWeight*mlScore
	}

	// Bonuses accumulate in normalized [0, 1] units, then scale onto the
	// 0-100 blended score.
	bonus := 0.0
	if prefs.PreferMainRoads {
		bonus += (agg.MainRoadPct / 100) * mainRoadBonusWeight
		if agg.MainRoadPct > mainRoadExtraThreshold {
			bonus += mainRoadExtraBonus
		}
	}
	if prefs.PreferWellLit {
		bonus += (agg.LightingScore / 10) * wellLitBonusWeight
	}
	if prefs.PreferPopulated {
		bonus += (agg.PopulationScore / 10) * populatedBonusWeight
	}

	final := geo.ClampScore(blended + bonus*100)
	return final, route.Breakdown{
		RuleScore:       ruleScore,
		AdjustedScore:   adjustedScore,
		MLScore:         mlScore,
		MLUsed:          mlAvailable,
		PreferenceBonus: bonus * 100,
		Composite:       final,
	}
}

// #endregion composite
