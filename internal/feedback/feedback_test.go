package feedback

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/saferoutes/engine/internal/dataset"
	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/geo"
	"github.com/saferoutes/engine/internal/route"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeIngestor(t *testing.T, s *Store, config Config, onRetrain func(int64)) *Ingestor {
	t.Helper()
	ing, err := NewIngestor(s, features.NewExtractor(features.DefaultConfig()),
		dataset.Context{Bounds: dataset.BangaloreBounds()}, config, onRetrain)
	if err != nil {
		t.Fatalf("NewIngestor: %v", err)
	}
	return ing
}

func makeCandidate() route.Candidate {
	return route.Candidate{
		Points: []geo.Point{
			{Lat: 12.9500, Lon: 77.600},
			{Lat: 12.9520, Lon: 77.600},
			{Lat: 12.9540, Lon: 77.600},
		},
		DistanceKm:  0.5,
		DurationMin: 6,
	}
}

func TestAppendAndCountFeedback(t *testing.T) {
	s := tempStore(t)

	rec := Record{
		ID:      "fb-1",
		RouteID: "route-1",
		Rating:  4,
		Comment: "well lit the whole way",
		UnsafePoints: []geo.Point{
			{Lat: 12.9510, Lon: 77.601},
			{Lat: 12.9530, Lon: 77.601},
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.AppendFeedback(rec); err != nil {
		t.Fatalf("AppendFeedback: %v", err)
	}

	count, err := s.CountFeedback()
	if err != nil {
		t.Fatalf("CountFeedback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	heatmap, err := s.UnsafeHeatmap()
	if err != nil {
		t.Fatalf("UnsafeHeatmap: %v", err)
	}
	if len(heatmap) != 2 {
		t.Fatalf("expected 2 heatmap points, got %d", len(heatmap))
	}
	if heatmap[0].Intensity != 1.0 {
		t.Fatalf("expected intensity 1.0, got %f", heatmap[0].Intensity)
	}

	recent, err := s.RecentFeedback(10)
	if err != nil {
		t.Fatalf("RecentFeedback: %v", err)
	}
	if len(recent) != 1 || recent[0].Comment != "well lit the whole way" {
		t.Fatalf("unexpected recent records: %+v", recent)
	}
}

func TestTrainingRowsBySource(t *testing.T) {
	s := tempStore(t)
	vec := features.Vector{"distance_km": 1.0}

	if err := s.LogSample(vec, 80); err != nil {
		t.Fatalf("LogSample: %v", err)
	}
	if err := s.LogSample(vec, 70); err != nil {
		t.Fatalf("LogSample: %v", err)
	}
	if err := s.AppendLabeledRow(vec, 90); err != nil {
		t.Fatalf("AppendLabeledRow: %v", err)
	}

	counts, err := s.CountTrainingRows()
	if err != nil {
		t.Fatalf("CountTrainingRows: %v", err)
	}
	if counts["pipeline"] != 2 || counts["feedback"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := tempStore(t)
	cand := makeCandidate()

	if err := s.SaveSnapshot("route-1", cand); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	got, ok, err := s.GetSnapshot("route-1")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot found")
	}
	if len(got.Points) != 3 || got.DistanceKm != 0.5 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	if _, ok, err := s.GetSnapshot("unknown"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	// Re-saving the same ID overwrites, not errors
	cand.DistanceKm = 0.6
	if err := s.SaveSnapshot("route-1", cand); err != nil {
		t.Fatalf("SaveSnapshot overwrite: %v", err)
	}
	got, _, _ = s.GetSnapshot("route-1")
	if got.DistanceKm != 0.6 {
		t.Fatalf("expected overwritten snapshot, got %f", got.DistanceKm)
	}
}

func TestSubmitRejectsInvalidRating(t *testing.T) {
	ing := makeIngestor(t, tempStore(t), DefaultConfig(), nil)

	for _, rating := range []int{0, 6, -1} {
		if _, err := ing.Submit(Submission{RouteID: "r", Rating: rating}); err == nil {
			t.Fatalf("expected error for rating %d", rating)
		}
	}
	if ing.Count() != 0 {
		t.Fatalf("expected no records after invalid ratings, got %d", ing.Count())
	}
}

func TestSubmitHighRatingCreatesTrainingRow(t *testing.T) {
	s := tempStore(t)
	ing := makeIngestor(t, s, DefaultConfig(), nil)

	// Snapshot retained by the pipeline before feedback arrives
	ing.RememberRoute("route-1", makeCandidate())

	ack, err := ing.Submit(Submission{
		RouteID: "route-1",
		Rating:  5,
		UnsafePoints: []geo.Point{
			{Lat: 12.9510, Lon: 77.601},
			{Lat: 12.9530, Lon: 77.601},
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !ack.TrainingLabeled {
		t.Fatal("expected a labeled training row for rating 5")
	}
	if ack.FeedbackCount != 1 {
		t.Fatalf("expected count 1, got %d", ack.FeedbackCount)
	}

	counts, err := s.CountTrainingRows()
	if err != nil {
		t.Fatalf("CountTrainingRows: %v", err)
	}
	if counts["feedback"] != 1 {
		t.Fatalf("expected 1 feedback training row, got %d", counts["feedback"])
	}

	heatmap, err := s.UnsafeHeatmap()
	if err != nil {
		t.Fatalf("UnsafeHeatmap: %v", err)
	}
	if len(heatmap) != 2 {
		t.Fatalf("expected 2 unsafe points stored, got %d", len(heatmap))
	}
}

func TestSubmitLowRatingSkipsTrainingRow(t *testing.T) {
	s := tempStore(t)
	ing := makeIngestor(t, s, DefaultConfig(), nil)
	ing.RememberRoute("route-1", makeCandidate())

	ack, err := ing.Submit(Submission{RouteID: "route-1", Rating: 2})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ack.TrainingLabeled {
		t.Fatal("expected no training row for rating 2")
	}

	counts, err := s.CountTrainingRows()
	if err != nil {
		t.Fatalf("CountTrainingRows: %v", err)
	}
	if counts["feedback"] != 0 {
		t.Fatalf("expected no feedback training rows, got %d", counts["feedback"])
	}
}

func TestSubmitWithoutSnapshotStillRecords(t *testing.T) {
	s := tempStore(t)
	ing := makeIngestor(t, s, DefaultConfig(), nil)

	// No snapshot for this route: feedback lands, the training row is lost
	ack, err := ing.Submit(Submission{RouteID: "never-seen", Rating: 5})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if ack.TrainingLabeled {
		t.Fatal("expected no training row without a snapshot")
	}
	if ing.Count() != 1 {
		t.Fatalf("expected 1 record, got %d", ing.Count())
	}
}

func TestRetrainTriggerEveryN(t *testing.T) {
	s := tempStore(t)
	var triggers []int64
	ing := makeIngestor(t, s, Config{RetrainEvery: 3}, func(n int64) {
		triggers = append(triggers, n)
	})

	for i := 1; i <= 7; i++ {
		ack, err := ing.Submit(Submission{RouteID: "r", Rating: 3})
		if err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		wantTrigger := i%3 == 0
		if ack.RetrainTriggered != wantTrigger {
			t.Fatalf("submit %d: RetrainTriggered=%v, want %v", i, ack.RetrainTriggered, wantTrigger)
		}
	}

	if len(triggers) != 2 || triggers[0] != 3 || triggers[1] != 6 {
		t.Fatalf("unexpected trigger sequence: %v", triggers)
	}
}

func TestIngestorSeedsCountFromStore(t *testing.T) {
	s := tempStore(t)
	ing := makeIngestor(t, s, DefaultConfig(), nil)

	if _, err := ing.Submit(Submission{RouteID: "r", Rating: 3}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := ing.Submit(Submission{RouteID: "r", Rating: 4}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// A fresh ingestor over the same store resumes the count
	reopened := makeIngestor(t, s, DefaultConfig(), nil)
	if reopened.Count() != 2 {
		t.Fatalf("expected seeded count 2, got %d", reopened.Count())
	}
}
