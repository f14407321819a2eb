package mlscore

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/saferoutes/engine/internal/features"
)

func writeArtifact(t *testing.T, artifact Artifact) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	data, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal artifact: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestScorerUnavailableWithoutArtifact(t *testing.T) {
	s := NewScorer(filepath.Join(t.TempDir(), "missing.json"))

	if s.Available() {
		t.Fatal("expected unavailable scorer")
	}
	_, err := s.Predict(features.Vector{"a": 1})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if s.FeatureImportance() != nil {
		t.Fatal("expected nil importance without a model")
	}
	if info := s.Info(); info.Enabled {
		t.Fatal("expected disabled model info")
	}
}

func TestScorerPredictLinear(t *testing.T) {
	path := writeArtifact(t, Artifact{
		FeatureNames: []string{"crime_density", "lighting_score"},
		Weights:      []float64{-10, 5},
		Intercept:    60,
		NumSamples:   120,
	})
	s := NewScorer(path)

	if !s.Available() {
		t.Fatal("expected available scorer")
	}

	// 60 + (-10 * 2) + (5 * 8) = 80
	got, err := s.Predict(features.Vector{"crime_density": 2, "lighting_score": 8})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if math.Abs(got-80.0) > 1e-9 {
		t.Fatalf("expected 80, got %f", got)
	}
}

func TestScorerPredictClamps(t *testing.T) {
	path := writeArtifact(t, Artifact{
		FeatureNames: []string{"x"},
		Weights:      []float64{1000},
		Intercept:    0,
	})
	s := NewScorer(path)

	got, err := s.Predict(features.Vector{"x": 5})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != 100 {
		t.Fatalf("expected clamp at 100, got %f", got)
	}

	got, err = s.Predict(features.Vector{"x": -5})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected clamp at 0, got %f", got)
	}
}

func TestScorerPredictSchemaMismatch(t *testing.T) {
	path := writeArtifact(t, Artifact{
		FeatureNames: []string{"crime_density", "lighting_score"},
		Weights:      []float64{1, 1},
	})
	s := NewScorer(path)

	_, err := s.Predict(features.Vector{"crime_density": 2})
	if !errors.Is(err, features.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestReloadRejectsMalformedArtifact(t *testing.T) {
	path := writeArtifact(t, Artifact{
		FeatureNames: []string{"a", "b"},
		Weights:      []float64{1}, // arity mismatch
	})
	s := &Scorer{path: path}
	if err := s.Reload(); err == nil {
		t.Fatal("expected error for name/weight arity mismatch")
	}

	bad := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s = &Scorer{path: bad}
	if err := s.Reload(); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestFeatureImportanceNormalized(t *testing.T) {
	path := writeArtifact(t, Artifact{
		FeatureNames: []string{"a", "b", "c"},
		Weights:      []float64{-3, 1, 0},
	})
	s := NewScorer(path)

	imp := s.FeatureImportance()
	if math.Abs(imp["a"]-0.75) > 1e-9 || math.Abs(imp["b"]-0.25) > 1e-9 || imp["c"] != 0 {
		t.Fatalf("unexpected importance: %v", imp)
	}

	var total float64
	for _, v := range imp {
		total += v
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("expected importance to sum to 1, got %f", total)
	}
}

func TestInfoReflectsArtifact(t *testing.T) {
	path := writeArtifact(t, Artifact{
		FeatureNames: []string{"a", "b"},
		Weights:      []float64{1, 2},
		NumSamples:   250,
		TrainedAt:    "2025-03-01T00:00:00Z",
		Accuracy:     0.87,
	})
	s := NewScorer(path)

	info := s.Info()
	if !info.Enabled {
		t.Fatal("expected enabled info")
	}
	if info.NumFeatures != 2 || info.NumSamples != 250 {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Accuracy != 0.87 {
		t.Fatalf("expected accuracy 0.87, got %f", info.Accuracy)
	}
}
