package replay

import (
	"context"
	"fmt"

	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/guardrails"
	"github.com/saferoutes/engine/internal/mlscore"
	"github.com/saferoutes/engine/internal/pipeline"
	"github.com/saferoutes/engine/internal/validator"
)

// #region result

// Mismatch is one candidate whose replayed outcome disagrees with the
// fixture's expectation.
type Mismatch struct {
	Index int
	Want  string
	Got   string
}

// Result captures one replay run.
type Result struct {
	Pipeline   pipeline.Result
	Outcomes   map[int]string // candidate index -> outcome label
	Mismatches []Mismatch
}

// #endregion result

// #region run

// Run replays a fixture through a freshly built pipeline and compares the
// per-candidate outcomes against the fixture's expectations. Operates
// entirely in-memory; TopK is widened to the candidate count so ranking
// overflow never masks an outcome.
func Run(ctx context.Context, f Fixture) (Result, error) {
	req, err := f.Request()
	if err != nil {
		return Result{}, err
	}

	config := pipeline.DefaultConfig()
	config.TopK = len(f.Candidates)

	scorer := mlscore.NewScorer(f.ModelPath)

	engine := pipeline.New(
		config,
		f.Context(),
		validator.New(validator.DefaultConfig()),
		features.NewExtractor(features.DefaultConfig()),
		guardrails.New(guardrails.DefaultConfig()),
		scorer,
		nil, nil, nil,
	)

	result, err := engine.Optimize(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("replay optimize: %w", err)
	}

	outcomes := make(map[int]string, len(f.Candidates))
	for i := range f.Candidates {
		outcomes[i] = OutcomeRanked
	}
	for _, rej := range result.Rejections {
		switch rej.Stage {
		case pipeline.StateGuardrailRejected:
			outcomes[rej.Index] = OutcomeGuardrailRejected
		default:
			outcomes[rej.Index] = OutcomeShapeRejected
		}
	}

	var mismatches []Mismatch
	for _, want := range f.Expected {
		got, ok := outcomes[want.Index]
		if !ok {
			got = "missing"
		}
		if got != want.Outcome {
			mismatches = append(mismatches, Mismatch{Index: want.Index, Want: want.Outcome, Got: got})
		}
	}

	return Result{Pipeline: result, Outcomes: outcomes, Mismatches: mismatches}, nil
}

// #endregion run
