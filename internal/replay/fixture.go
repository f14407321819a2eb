package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/saferoutes/engine/internal/dataset"
	"github.com/saferoutes/engine/internal/geo"
	"github.com/saferoutes/engine/internal/pipeline"
	"github.com/saferoutes/engine/internal/route"
)

// #region fixture-types

// Fixture is a self-contained scoring scenario: a request, the spatial
// datasets it runs against, and the expected per-candidate outcomes. Used to
// pin pipeline behavior across threshold and model changes.
type Fixture struct {
	Description string            `json:"description"`
	Start       geo.Point         `json:"start"`
	End         geo.Point         `json:"end"`
	Now         string            `json:"now"` // RFC3339
	Preferences route.Preferences `json:"preferences"`
	Candidates  []route.Candidate `json:"candidates"`

	Crime      []WeightedPoint    `json:"crime"`
	Lighting   []WeightedPoint    `json:"lighting"`
	Population []PopulationSample `json:"population"`

	// ModelPath optionally points at a model artifact; empty replays
	// rule-based only.
	ModelPath string `json:"model_path,omitempty"`

	Expected []ExpectedOutcome `json:"expected_outcomes"`
}

// WeightedPoint mirrors dataset.Record with JSON tags.
type WeightedPoint struct {
	Lat    float64 `json:"latitude"`
	Lon    float64 `json:"longitude"`
	Weight float64 `json:"weight"`
}

// PopulationSample mirrors dataset.PopulationRecord with JSON tags.
type PopulationSample struct {
	Lat      float64 `json:"latitude"`
	Lon      float64 `json:"longitude"`
	Density  float64 `json:"population_density"`
	Traffic  float64 `json:"traffic_level"`
	MainRoad bool    `json:"is_main_road"`
}

// ExpectedOutcome is the expected fate of one candidate by input index.
type ExpectedOutcome struct {
	Index   int    `json:"index"`
	Outcome string `json:"outcome"` // "ranked" | "shape_rejected" | "guardrail_rejected"
}

// Outcome labels.
const (
	OutcomeRanked            = "ranked"
	OutcomeShapeRejected     = "shape_rejected"
	OutcomeGuardrailRejected = "guardrail_rejected"
)

// #endregion fixture-types

// #region load

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	return f, nil
}

// Context materializes the fixture's inline datasets.
func (f Fixture) Context() dataset.Context {
	crime := make(dataset.Table, len(f.Crime))
	for i, r := range f.Crime {
		crime[i] = dataset.Record{Point: geo.Point{Lat: r.Lat, Lon: r.Lon}, Weight: r.Weight}
	}
	lighting := make(dataset.Table, len(f.Lighting))
	for i, r := range f.Lighting {
		lighting[i] = dataset.Record{Point: geo.Point{Lat: r.Lat, Lon: r.Lon}, Weight: r.Weight}
	}
	population := make(dataset.PopulationTable, len(f.Population))
	for i, r := range f.Population {
		population[i] = dataset.PopulationRecord{
			Point:      geo.Point{Lat: r.Lat, Lon: r.Lon},
			Density:    r.Density,
			Traffic:    r.Traffic,
			IsMainRoad: r.MainRoad,
		}
	}
	return dataset.Context{
		Crime:      crime,
		Lighting:   lighting,
		Population: population,
		Bounds:     dataset.BangaloreBounds(),
	}
}

// Request builds the optimize request, with diagnostics always on so
// outcomes can be attributed per candidate.
func (f Fixture) Request() (pipeline.Request, error) {
	now, err := time.Parse(time.RFC3339, f.Now)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("parse fixture timestamp %q: %w", f.Now, err)
	}
	return pipeline.Request{
		Start:       f.Start,
		End:         f.End,
		Candidates:  f.Candidates,
		Now:         now,
		Preferences: f.Preferences,
		Diagnostics: true,
	}, nil
}

// #endregion load
