package feedback

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/saferoutes/engine/internal/dataset"
	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/route"
	"github.com/saferoutes/engine/internal/scoring"
)

// #region ingestor

// Ingestor records user ratings and unsafe-segment reports, converts
// high-confidence samples into training rows, and emits a retraining
// trigger every Config.RetrainEvery records. The counter is owned here,
// not ambient state, so tests can construct isolated instances.
type Ingestor struct {
	store     *Store
	extractor *features.Extractor
	datasets  dataset.Context
	config    Config
	count     atomic.Int64
	onRetrain func(count int64)
}

// NewIngestor creates an ingestor. onRetrain may be nil; it is invoked
// synchronously each time the feedback count crosses a RetrainEvery
// multiple, and the actual retraining job is an external collaborator.
func NewIngestor(
	store *Store,
	extractor *features.Extractor,
	datasets dataset.Context,
	config Config,
	onRetrain func(count int64),
) (*Ingestor, error) {
	existing, err := store.CountFeedback()
	if err != nil {
		return nil, fmt.Errorf("seed feedback count: %w", err)
	}

	ing := &Ingestor{
		store:     store,
		extractor: extractor,
		datasets:  datasets,
		config:    config,
		onRetrain: onRetrain,
	}
	ing.count.Store(existing)
	return ing, nil
}

// Count returns the current feedback record count.
func (ing *Ingestor) Count() int64 {
	return ing.count.Load()
}

// #endregion ingestor

// #region submit

// Submit appends a feedback record. Ratings of 4 or more additionally
// regenerate the feature vector from the retained route snapshot and store
// it as a labeled training row; lower ratings store feedback only.
func (ing *Ingestor) Submit(sub Submission) (Ack, error) {
	if sub.Rating < 1 || sub.Rating > 5 {
		return Ack{}, fmt.Errorf("rating %d out of range [1, 5]", sub.Rating)
	}

	rec := Record{
		ID:           uuid.New().String(),
		RouteID:      sub.RouteID,
		Rating:       sub.Rating,
		Comment:      sub.Comment,
		UnsafePoints: sub.UnsafePoints,
		CreatedAt:    time.Now().UTC(),
	}
	if err := ing.store.AppendFeedback(rec); err != nil {
		return Ack{}, fmt.Errorf("append feedback: %w", err)
	}

	ack := Ack{RecordID: rec.ID}

	if sub.Rating >= 4 {
		labeled, err := ing.labelFromSnapshot(sub, rec.CreatedAt)
		if err != nil {
			// Feedback itself is recorded; a missing snapshot only costs the
			// training row.
			log.Printf("[FEED] no training row for route %s: %v", sub.RouteID, err)
		}
		ack.TrainingLabeled = labeled
	}

	n := ing.count.Add(1)
	ack.FeedbackCount = n
	if ing.config.RetrainEvery > 0 && n%ing.config.RetrainEvery == 0 {
		ack.RetrainTriggered = true
		log.Printf("[FEED] feedback count %d, emitting retraining trigger", n)
		if ing.onRetrain != nil {
			ing.onRetrain(n)
		}
	}

	log.Printf("[FEED] recorded rating=%d route=%s unsafe_points=%d (total %d)",
		sub.Rating, sub.RouteID, len(sub.UnsafePoints), n)
	return ack, nil
}

// labelFromSnapshot regenerates features for the rated route and stores a
// labeled training row weighted by the rating.
func (ing *Ingestor) labelFromSnapshot(sub Submission, now time.Time) (bool, error) {
	cand, ok, err := ing.store.GetSnapshot(sub.RouteID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("no snapshot retained for route %s", sub.RouteID)
	}

	agg := ing.extractor.Aggregate(cand.Points, ing.datasets)
	vec := ing.extractor.Extract(cand, agg, now)
	label := scoring.RuleScore(agg, route.Preferences{}) * float64(sub.Rating) / 5.0

	if err := ing.store.AppendLabeledRow(vec, label); err != nil {
		return false, err
	}
	return true, nil
}

// #endregion submit

// #region snapshot-keeper

// RememberRoute retains a route snapshot for later feedback. Implements
// pipeline.SnapshotKeeper; storage errors are logged, not surfaced, since
// snapshot loss only degrades future training data.
func (ing *Ingestor) RememberRoute(id string, cand route.Candidate) {
	if err := ing.store.SaveSnapshot(id, cand); err != nil {
		log.Printf("[FEED] failed to retain snapshot %s: %v", id, err)
	}
}

// #endregion snapshot-keeper
