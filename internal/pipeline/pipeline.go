package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/saferoutes/engine/internal/dataset"
	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/guardrails"
	"github.com/saferoutes/engine/internal/mlscore"
	"github.com/saferoutes/engine/internal/route"
	"github.com/saferoutes/engine/internal/scoring"
	"github.com/saferoutes/engine/internal/validator"
)

// #region engine

// Engine sequences shape validation, feature extraction, guardrails,
// scoring and ranking for a batch of candidate routes.
type Engine struct {
	config     Config
	datasets   dataset.Context
	validator  *validator.Validator
	extractor  *features.Extractor
	guardrails *guardrails.Engine
	scorer     *mlscore.Scorer
	classifier validator.RoadClassifier
	samples    SampleLogger
	snapshots  SnapshotKeeper
}

// New creates a fully wired engine. samples and snapshots may be nil, in
// which case training-sample logging and snapshot retention are skipped.
func New(
	config Config,
	datasets dataset.Context,
	v *validator.Validator,
	extractor *features.Extractor,
	g *guardrails.Engine,
	scorer *mlscore.Scorer,
	classifier validator.RoadClassifier,
	samples SampleLogger,
	snapshots SnapshotKeeper,
) *Engine {
	return &Engine{
		config:     config,
		datasets:   datasets,
		validator:  v,
		extractor:  extractor,
		guardrails: g,
		scorer:     scorer,
		classifier: classifier,
		samples:    samples,
		snapshots:  snapshots,
	}
}

// #endregion engine

// #region scored-candidate

// scoredCandidate carries one candidate's intermediate pipeline results.
type scoredCandidate struct {
	index       int
	cand        route.Candidate
	hash        string
	state       CandidateState
	reason      string
	agg         features.Aggregates
	vector      features.Vector
	verdict     guardrails.Verdict
	ruleScore   float64
	breakdown   route.Breakdown
	composite   float64
	mainRoadPct float64
}

// #endregion scored-candidate

// #region optimize

// Optimize runs the full pipeline over a batch of candidates and returns at
// most TopK ranked routes. Per-candidate shape and guardrail failures are
// silent drops; only a feature-schema inconsistency fails the whole batch.
func (e *Engine) Optimize(ctx context.Context, req Request) (Result, error) {
	if !e.datasets.Bounds.Contains(req.Start) || !e.datasets.Bounds.Contains(req.End) {
		return Result{}, ErrOutOfBounds
	}

	result := Result{TotalAnalyzed: len(req.Candidates)}
	var rejections []Rejection

	// Stage 1: shape validation and geometry dedup. Cheap rejection first,
	// before any scoring work.
	seen := make(map[string]struct{})
	var survivors []*scoredCandidate
	for i := range req.Candidates {
		cand := req.Candidates[i]
		if !e.validator.ValidateConnectivity(cand.Points) {
			result.ShapeRejected++
			rejections = append(rejections, Rejection{Index: i, Stage: StateRejected, Reason: "disconnected segments"})
			log.Printf("[PIPE] candidate %d: %s (disconnected segments)", i, StateRejected)
			continue
		}
		if !e.validator.DetectBacktracking(cand.Points, req.Start, req.End) {
			result.ShapeRejected++
			rejections = append(rejections, Rejection{Index: i, Stage: StateRejected, Reason: "detour or backtracking"})
			log.Printf("[PIPE] candidate %d: %s (detour or backtracking)", i, StateRejected)
			continue
		}

		hash := cand.Hash()
		if _, dup := seen[hash]; dup {
			result.ShapeRejected++
			rejections = append(rejections, Rejection{Index: i, Stage: StateRejected, Reason: "duplicate geometry"})
			continue
		}
		seen[hash] = struct{}{}

		survivors = append(survivors, &scoredCandidate{
			index: i,
			cand:  cand,
			hash:  hash,
			state: StateValidatedShape,
		})
	}

	// ML availability is consulted once per batch, not per candidate.
	mlAvailable := e.scorer.Available()
	result.MLActive = mlAvailable

	// Stage 2: aggregate, score and guardrail each surviving candidate.
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(e.config.Concurrency)
	for _, sc := range survivors {
		sc := sc
		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return e.scoreCandidate(sc, req, mlAvailable)
		})
	}
	if err := grp.Wait(); err != nil {
		return Result{}, fmt.Errorf("score batch: %w", err)
	}

	// Stage 3: collect guardrail survivors, apply the advisory coverage
	// filter, and log training samples.
	var validated []*scoredCandidate
	for _, sc := range survivors {
		if sc.state == StateGuardrailRejected {
			result.GuardrailRejected++
			rejections = append(rejections, Rejection{Index: sc.index, Stage: sc.state, Reason: sc.reason})
			log.Printf("[PIPE] candidate %d: %s (%s)", sc.index, sc.state, sc.reason)
			continue
		}
		if sc.state == StateRejected {
			result.ShapeRejected++
			rejections = append(rejections, Rejection{Index: sc.index, Stage: sc.state, Reason: sc.reason})
			continue
		}

		if e.samples != nil {
			if err := e.samples.LogSample(sc.vector, sc.ruleScore); err != nil {
				log.Printf("[PIPE] failed to log training sample: %v", err)
			}
		}
		validated = append(validated, sc)
	}

	// Stage 4: rank by composite score and keep the top K.
	sort.SliceStable(validated, func(i, j int) bool {
		return validated[i].composite > validated[j].composite
	})

	k := e.config.TopK
	if len(validated) < k {
		k = len(validated)
	}
	for rank, sc := range validated {
		if rank >= k {
			sc.state = StateDropped
			continue
		}
		sc.state = StateRanked
		sc.cand.SafetyScore = sc.verdict.AdjustedScore
		sc.cand.Warnings = sc.verdict.Warnings
		result.Routes = append(result.Routes, RankedRoute{
			Candidate:   sc.cand,
			ID:          sc.hash,
			Rank:        rank + 1,
			Breakdown:   sc.breakdown,
			MainRoadPct: sc.mainRoadPct,
		})
		if e.snapshots != nil {
			e.snapshots.RememberRoute(sc.hash, sc.cand)
		}
	}

	if len(result.Routes) == 0 {
		result.Summary = "all candidates failed shape or safety validation"
	}
	if req.Diagnostics {
		result.Rejections = rejections
	}

	log.Printf("[PIPE] optimize: %d analyzed, %d shape-rejected, %d guardrail-rejected, %d ranked, ml=%v",
		result.TotalAnalyzed, result.ShapeRejected, result.GuardrailRejected, len(result.Routes), mlAvailable)
	return result, nil
}

// #endregion optimize

// #region score-candidate

// scoreCandidate runs stages 2-4 of the state machine for one candidate:
// feature extraction, ML scoring, guardrails, and the composite blend.
// Only a schema mismatch returns an error.
func (e *Engine) scoreCandidate(sc *scoredCandidate, req Request, mlAvailable bool) error {
	sc.agg = e.extractor.Aggregate(sc.cand.Points, e.datasets)
	sc.vector = e.extractor.Extract(sc.cand, sc.agg, req.Now)
	sc.state = StateFeatureExtracted

	if err := features.CheckSchema(sc.vector); err != nil {
		return err
	}

	// Advisory main-road filter: applies only when the caller asked for
	// main roads, and uses the external classifier when wired.
	sc.mainRoadPct = sc.agg.MainRoadPct
	if e.classifier != nil {
		_, pct := e.validator.CheckMainRoadCoverage(sc.cand.Points, e.classifier)
		sc.mainRoadPct = pct
	}
	if e.config.FilterByCoverage && req.Preferences.PreferMainRoads && sc.mainRoadPct < e.config.MinCoveragePct {
		sc.state = StateRejected
		sc.reason = fmt.Sprintf("main-road coverage %.0f%% below %.0f%%", sc.mainRoadPct, e.config.MinCoveragePct)
		return nil
	}

	sc.ruleScore = scoring.RuleScore(sc.agg, req.Preferences)

	mlScore := 0.0
	mlUsed := false
	if mlAvailable {
		score, err := e.scorer.Predict(sc.vector)
		switch {
		case err == nil:
			mlScore, mlUsed = score, true
		case errors.Is(err, features.ErrSchemaMismatch):
			return err
		default:
			// Model unloaded mid-batch; degrade to rule-based for this
			// candidate.
			log.Printf("[PIPE] ml prediction unavailable: %v", err)
		}
	}

	sc.verdict = e.guardrails.Evaluate(sc.cand, sc.ruleScore, req.Now, sc.agg, e.datasets.Crime)
	if !sc.verdict.IsValid {
		sc.state = StateGuardrailRejected
		sc.reason = firstWarning(sc.verdict.Warnings)
		return nil
	}

	sc.composite, sc.breakdown = scoring.Composite(sc.ruleScore, sc.verdict.AdjustedScore, mlScore, mlUsed, sc.agg, req.Preferences)
	sc.state = StateScored
	return nil
}

func firstWarning(warnings []string) string {
	if len(warnings) == 0 {
		return "guardrail rejection"
	}
	return warnings[0]
}

// #endregion score-candidate
