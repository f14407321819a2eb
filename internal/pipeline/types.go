package pipeline

import (
	"errors"
	"time"

	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/geo"
	"github.com/saferoutes/engine/internal/route"
)

// ErrOutOfBounds indicates the requested endpoints fall outside the loaded
// service area.
var ErrOutOfBounds = errors.New("coordinates outside service area")

// #region candidate-state
// CandidateState tracks one candidate through the pipeline, for logging.
type CandidateState string

const (
	StateGenerated         CandidateState = "generated"
	StateValidatedShape    CandidateState = "validated_shape"
	StateRejected          CandidateState = "rejected"
	StateFeatureExtracted  CandidateState = "feature_extracted"
	StateGuardrailRejected CandidateState = "guardrail_rejected"
	StateScored            CandidateState = "scored"
	StateRanked            CandidateState = "ranked"
	StateDropped           CandidateState = "dropped"
)

// #endregion candidate-state

// #region config
// Config holds the orchestration knobs.
type Config struct {
	TopK             int     // ranked routes returned per request
	MinCoveragePct   float64 // advisory main-road filter when the caller prefers main roads
	FilterByCoverage bool    // apply the advisory filter at all
	Concurrency      int     // candidate scoring fan-out width
}

// DefaultConfig returns the standard orchestration knobs.
func DefaultConfig() Config {
	return Config{
		TopK:             7,
		MinCoveragePct:   40,
		FilterByCoverage: true,
		Concurrency:      4,
	}
}

// #endregion config

// #region request
// Request is one optimize-route call.
type Request struct {
	Start       geo.Point
	End         geo.Point
	Candidates  []route.Candidate
	Now         time.Time
	Preferences route.Preferences
	Diagnostics bool // include per-candidate rejection reasons in the result
}

// #endregion request

// #region result
// RankedRoute is one returned candidate with its score breakdown.
type RankedRoute struct {
	route.Candidate
	ID          string          `json:"id"`
	Rank        int             `json:"rank"`
	Breakdown   route.Breakdown `json:"breakdown"`
	MainRoadPct float64         `json:"main_road_percentage"`
}

// Rejection is a per-candidate rejection diagnostic, populated only when
// the request sets Diagnostics.
type Rejection struct {
	Index  int            `json:"index"`
	Stage  CandidateState `json:"stage"`
	Reason string         `json:"reason"`
}

// Result is the outcome of one optimize-route call. An empty Routes slice
// with a Summary is a valid outcome, not an error.
type Result struct {
	Routes            []RankedRoute `json:"routes"`
	TotalAnalyzed     int           `json:"total_analyzed"`
	ShapeRejected     int           `json:"shape_rejected"`
	GuardrailRejected int           `json:"guardrail_rejected"`
	MLActive          bool          `json:"ml_active"`
	Summary           string        `json:"summary,omitempty"`
	Rejections        []Rejection   `json:"rejections,omitempty"`
}

// #endregion result

// #region collaborators
// SampleLogger receives a (features, rule-based score) sample for every
// candidate that survives guardrails, for future model training.
type SampleLogger interface {
	LogSample(vec features.Vector, label float64) error
}

// SnapshotKeeper retains route snapshots keyed by ID so later feedback can
// regenerate features for them.
type SnapshotKeeper interface {
	RememberRoute(id string, cand route.Candidate)
}

// #endregion collaborators
