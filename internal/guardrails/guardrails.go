package guardrails

import (
	"fmt"
	"time"

	"github.com/saferoutes/engine/internal/dataset"
	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/geo"
	"github.com/saferoutes/engine/internal/route"
)

// #region engine
// Engine evaluates hard safety rules against a scored candidate.
type Engine struct {
	config Config
}

// New creates a guardrail engine with the given configuration.
func New(config Config) *Engine {
	return &Engine{config: config}
}

// #endregion engine

// #region evaluate

// Evaluate runs the rules in fixed order against one candidate. The crime
// table is joined directly at CrimeSearchRadiusKm, independent of the
// narrower scoring-join radius behind the aggregates. A rejecting rule
// short-circuits the remaining rules, but every warning accumulated before
// the short-circuit stays on the verdict. A candidate with zero triggered
// rules keeps its rule-based score unchanged and an empty warnings
// sequence.
func (g *Engine) Evaluate(cand route.Candidate, ruleScore float64, now time.Time, agg features.Aggregates, crime dataset.Table) Verdict {
	adjusted := geo.ClampScore(ruleScore)
	var warnings []string
	var fired []RuleKind

	hour := now.Hour()
	isNight := hour < 6 || hour >= 22
	litPct := 100 - agg.PoorlyLitPct

	// 1. Crime hotspot: hard rejection.
	if g.config.CrimeRuleEnabled {
		worst := maxCrimeNearby(cand.Points, crime, g.config.CrimeSearchRadiusKm)
		if worst > g.config.MaxCrimeExposure {
			warnings = append(warnings, fmt.Sprintf(
				"route passes through a crime hotspot (%.0f crimes within %.1f km, max %.0f)",
				worst, g.config.CrimeSearchRadiusKm, g.config.MaxCrimeExposure))
			fired = append(fired, RuleCrimeHotspot)
			return Verdict{IsValid: false, AdjustedScore: adjusted, Warnings: warnings, Fired: fired}
		}
	}

	// 2. Lighting coverage: penalty scaled by the shortfall, or rejection
	// when configured.
	if g.config.LightingRuleEnabled && litPct < g.config.MinLitPct {
		warnings = append(warnings, fmt.Sprintf(
			"inadequate lighting: only %.1f%% of segments are lit (need %.0f%%)",
			litPct, g.config.MinLitPct))
		fired = append(fired, RuleLighting)
		if g.config.LightingRejects {
			return Verdict{IsValid: false, AdjustedScore: adjusted, Warnings: warnings, Fired: fired}
		}
		severity := (g.config.MinLitPct - litPct) / g.config.MinLitPct
		adjusted *= 1 - severity*g.config.MaxLightingPenalty
	}

	// 3. Night penalty: flat subtraction, offset by strong lighting or
	// population coverage. Never a rejection.
	if g.config.NightRuleEnabled && isNight {
		offset := agg.LightingScore >= g.config.NightLightingOffset ||
			agg.PopulationScore >= g.config.NightPopOffset
		if !offset {
			warnings = append(warnings, "night travel on a dimly lit, low-activity route")
			fired = append(fired, RuleNightPenalty)
			adjusted -= g.config.NightPenalty
		}
	}

	// 4. Isolation: warning only.
	if g.config.IsolationRuleEnabled && agg.IsolatedPct > g.config.MaxIsolatedPct {
		warnings = append(warnings, fmt.Sprintf(
			"route crosses isolated areas: %.1f%% of segments have low population",
			agg.IsolatedPct))
		fired = append(fired, RuleIsolation)
	}

	// 5. Time-based composite: combined night/lighting/isolation risk as one
	// bounded multiplicative adjustment.
	if g.config.TimeRuleEnabled {
		risk := 0.0
		if isNight {
			risk += g.config.NightRisk
		}
		if litPct < g.config.MinLitPct {
			risk += g.config.LowLightRisk
		}
		if agg.IsolatedPct > g.config.MaxIsolatedPct {
			risk += g.config.IsolationRisk
		}
		// A daytime departure whose duration runs into night hours still
		// carries part of the night risk.
		extendsIntoNight := false
		if !isNight {
			endHour := now.Add(time.Duration(cand.DurationMin * float64(time.Minute))).Hour()
			extendsIntoNight = endHour < 6 || endHour >= 22
			if extendsIntoNight {
				risk += g.config.NightRisk / 2
			}
		}
		if risk > 0 {
			if extendsIntoNight {
				warnings = append(warnings, "route duration extends into night hours")
			}
			warnings = append(warnings, fmt.Sprintf("combined time-of-day risk adjustment: -%.0f%%", risk*100))
			fired = append(fired, RuleTimeComposite)
			adjusted *= 1 - geo.Clamp(risk, 0, 1)
		}
	}

	return Verdict{
		IsValid:       true,
		AdjustedScore: geo.ClampScore(adjusted),
		Warnings:      warnings,
		Fired:         fired,
	}
}

// maxCrimeNearby returns the worst per-point crime count along the route at
// the given search radius.
func maxCrimeNearby(points []geo.Point, crime dataset.Table, radiusKm float64) float64 {
	worst := 0
	for _, p := range points {
		if n := crime.CountWithin(p, radiusKm); n > worst {
			worst = n
		}
	}
	return float64(worst)
}

// #endregion evaluate
