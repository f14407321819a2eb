package mlscore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/geo"
)

// ErrUnavailable is the sentinel returned by Predict when no model is
// loaded. Not an error condition for the pipeline: the composite scorer
// falls back to 100% rule-based weighting.
var ErrUnavailable = errors.New("ml model unavailable")

// #region artifact
// Artifact is the trained regression model as written by the external
// training job: a linear scorer over the fixed feature schema.
type Artifact struct {
	FeatureNames []string  `json:"feature_names"`
	Weights      []float64 `json:"weights"`
	Intercept    float64   `json:"intercept"`
	NumSamples   int       `json:"num_samples"`
	TrainedAt    string    `json:"trained_at"`
	Accuracy     float64   `json:"accuracy"`
}

// #endregion artifact

// #region scorer
// Scorer is a stateless inference wrapper around the model artifact.
// Absence of the artifact is a valid, non-fatal state.
type Scorer struct {
	mu       sync.RWMutex
	path     string
	artifact *Artifact
}

// NewScorer creates a scorer and attempts an initial load. A missing or
// unreadable artifact leaves the scorer in the unavailable state.
func NewScorer(path string) *Scorer {
	s := &Scorer{path: path}
	if err := s.Reload(); err != nil {
		log.Printf("[ML] model not loaded (%v), rule-based scoring only", err)
	}
	return s
}

// Reload re-reads the artifact from disk. Called after the external
// retraining job finishes.
func (s *Scorer) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read model artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return fmt.Errorf("parse model artifact: %w", err)
	}
	if len(artifact.FeatureNames) == 0 || len(artifact.FeatureNames) != len(artifact.Weights) {
		return fmt.Errorf("model artifact has %d feature names and %d weights",
			len(artifact.FeatureNames), len(artifact.Weights))
	}

	s.mu.Lock()
	s.artifact = &artifact
	s.mu.Unlock()

	log.Printf("[ML] loaded model from %s (%d features, %d training samples)",
		s.path, len(artifact.FeatureNames), artifact.NumSamples)
	return nil
}

// Available reports whether a usable model is loaded. Consulted once per
// batch, not rechecked per candidate.
func (s *Scorer) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifact != nil
}

// #endregion scorer

// #region predict

// Predict maps a feature vector to a 0-100 safety score. Returns
// ErrUnavailable when no model is loaded; a vector that disagrees with the
// model's feature schema is a deployment inconsistency and returns a schema
// mismatch error.
func (s *Scorer) Predict(v features.Vector) (float64, error) {
	s.mu.RLock()
	artifact := s.artifact
	s.mu.RUnlock()

	if artifact == nil {
		return 0, ErrUnavailable
	}

	values, err := v.Ordered(artifact.FeatureNames)
	if err != nil {
		return 0, err
	}

	score := artifact.Intercept
	for i, w := range artifact.Weights {
		score += w * values[i]
	}
	return geo.ClampScore(score), nil
}

// FeatureImportance returns per-feature contribution magnitudes, normalized
// to sum to 1. For the info surface only; scoring never consults it.
func (s *Scorer) FeatureImportance() map[string]float64 {
	s.mu.RLock()
	artifact := s.artifact
	s.mu.RUnlock()

	if artifact == nil {
		return nil
	}

	var total float64
	for _, w := range artifact.Weights {
		if w < 0 {
			w = -w
		}
		total += w
	}
	out := make(map[string]float64, len(artifact.FeatureNames))
	for i, name := range artifact.FeatureNames {
		w := artifact.Weights[i]
		if w < 0 {
			w = -w
		}
		out[name] = geo.SafeDiv(w, total)
	}
	return out
}

// #endregion predict

// #region info

// Info summarizes model state for diagnostics.
type Info struct {
	Enabled      bool     `json:"ml_enabled"`
	Path         string   `json:"model_path"`
	FeatureNames []string `json:"feature_names,omitempty"`
	NumFeatures  int      `json:"num_features"`
	NumSamples   int      `json:"training_samples"`
	TrainedAt    string   `json:"trained_at,omitempty"`
	Accuracy     float64  `json:"model_accuracy,omitempty"`
}

// Info reports the current model status.
func (s *Scorer) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.artifact == nil {
		return Info{Enabled: false, Path: s.path}
	}
	return Info{
		Enabled:      true,
		Path:         s.path,
		FeatureNames: s.artifact.FeatureNames,
		NumFeatures:  len(s.artifact.FeatureNames),
		NumSamples:   s.artifact.NumSamples,
		TrainedAt:    s.artifact.TrainedAt,
		Accuracy:     s.artifact.Accuracy,
	}
}

// #endregion info
