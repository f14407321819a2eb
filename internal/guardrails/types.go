package guardrails

// #region rule-kind
// RuleKind enumerates the guardrail rules.
type RuleKind string

const (
	RuleCrimeHotspot  RuleKind = "crime_hotspot"
	RuleLighting      RuleKind = "lighting"
	RuleNightPenalty  RuleKind = "night_penalty"
	RuleIsolation     RuleKind = "isolation"
	RuleTimeComposite RuleKind = "time_composite"
)

// #endregion rule-kind

// #region config
// Config holds the guardrail thresholds. Each rule is independently
// togglable; disabled rules never fire and never warn.
type Config struct {
	CrimeRuleEnabled     bool
	LightingRuleEnabled  bool
	NightRuleEnabled     bool
	IsolationRuleEnabled bool
	TimeRuleEnabled      bool

	MaxCrimeExposure    float64 // hard reject above this many crimes near one point
	CrimeSearchRadiusKm float64 // per-point crime search radius for the hotspot rule
	MinLitPct           float64 // lit coverage below this triggers the lighting rule
	MaxLightingPenalty  float64 // worst-case multiplicative lighting penalty
	LightingRejects     bool    // lighting rule rejects instead of penalizing
	NightPenalty        float64 // flat score subtraction at night
	NightLightingOffset float64 // lighting score at or above this offsets the night penalty
	NightPopOffset      float64 // population score at or above this offsets the night penalty
	MaxIsolatedPct      float64 // isolation warning threshold
	NightRisk           float64 // time-composite risk share for night travel
	LowLightRisk        float64 // time-composite risk share for poor lighting
	IsolationRisk       float64 // time-composite risk share for isolation
}

// DefaultConfig returns the standard guardrail thresholds.
func DefaultConfig() Config {
	return Config{
		CrimeRuleEnabled:     true,
		LightingRuleEnabled:  true,
		NightRuleEnabled:     true,
		IsolationRuleEnabled: true,
		TimeRuleEnabled:      true,

		MaxCrimeExposure:    20,
		CrimeSearchRadiusKm: 0.5,
		MinLitPct:           30,
		MaxLightingPenalty:  0.4,
		LightingRejects:     false,
		NightPenalty:        15,
		NightLightingOffset: 7,
		NightPopOffset:      6,
		MaxIsolatedPct:      40,
		NightRisk:           0.2,
		LowLightRisk:        0.15,
		IsolationRisk:       0.15,
	}
}

// #endregion config

// #region verdict
// Verdict is the outcome of one guardrail evaluation. Warnings is empty
// iff no rule fired, regardless of IsValid.
type Verdict struct {
	IsValid       bool
	AdjustedScore float64
	Warnings      []string
	Fired         []RuleKind
}

// #endregion verdict
