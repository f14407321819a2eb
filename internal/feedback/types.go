package feedback

import (
	"time"

	"github.com/saferoutes/engine/internal/geo"
)

// #region record
// Record is one immutable user-feedback entry. Never mutated after creation.
type Record struct {
	ID           string
	RouteID      string
	Rating       int // 1-5 stars
	Comment      string
	UnsafePoints []geo.Point
	CreatedAt    time.Time
}

// #endregion record

// #region submission
// Submission is the caller-facing feedback payload.
type Submission struct {
	RouteID      string
	Rating       int
	Comment      string
	UnsafePoints []geo.Point
}

// Ack reports the outcome of one submission.
type Ack struct {
	RecordID         string
	FeedbackCount    int64
	TrainingLabeled  bool
	RetrainTriggered bool
}

// #endregion submission

// #region config
// Config holds the ingestion knobs.
type Config struct {
	RetrainEvery int64 // emit a retraining trigger every N feedback records
}

// DefaultConfig returns the standard ingestion knobs.
func DefaultConfig() Config {
	return Config{RetrainEvery: 50}
}

// #endregion config

// #region heatmap
// HeatmapPoint is one entry in the community unsafe-area heatmap export.
type HeatmapPoint struct {
	Point     geo.Point `json:"point"`
	Intensity float64   `json:"intensity"`
}

// #endregion heatmap
