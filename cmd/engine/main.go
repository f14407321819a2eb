package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/saferoutes/engine/internal/dataset"
	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/feedback"
	"github.com/saferoutes/engine/internal/geo"
	"github.com/saferoutes/engine/internal/guardrails"
	"github.com/saferoutes/engine/internal/mainroad"
	"github.com/saferoutes/engine/internal/mlscore"
	"github.com/saferoutes/engine/internal/pipeline"
	"github.com/saferoutes/engine/internal/route"
	"github.com/saferoutes/engine/internal/validator"
)

// #region request-file

// requestFile is the on-disk shape of one optimize call: the start/end
// pair plus the candidate routes fetched from the external routing engine.
type requestFile struct {
	Start       geo.Point         `json:"start"`
	End         geo.Point         `json:"end"`
	Candidates  []route.Candidate `json:"candidates"`
	Preferences route.Preferences `json:"preferences"`
}

// #endregion request-file

// #region main

func main() {
	requestPath := flag.String("request", "", "path to request JSON (start, end, candidates, preferences)")
	diagnostics := flag.Bool("diagnostics", false, "include per-candidate rejection reasons")
	jsonOut := flag.Bool("json", false, "output the full result as JSON instead of a table")
	flag.Parse()

	if *requestPath == "" {
		fmt.Fprintln(os.Stderr, "usage: engine --request path/to/request.json [--diagnostics] [--json]")
		os.Exit(2)
	}

	dataDir := envOr("SAFEROUTES_DATA", "data")
	modelPath := envOr("SAFEROUTES_MODEL", "model.json")
	dbPath := envOr("SAFEROUTES_DB", "saferoutes.db")
	postgresDSN := os.Getenv("SAFEROUTES_POSTGRES")
	overpassURL := os.Getenv("SAFEROUTES_OVERPASS")

	datasets, err := loadDatasets(dataDir, postgresDSN)
	if err != nil {
		log.Fatalf("failed to load safety datasets: %v", err)
	}

	store, err := feedback.NewStore(dbPath)
	if err != nil {
		log.Fatalf("failed to open feedback store: %v", err)
	}
	defer store.Close()

	scorer := mlscore.NewScorer(modelPath)
	extractor := features.NewExtractor(features.DefaultConfig())

	classifier := buildClassifier(overpassURL, datasets)

	ingestor, err := feedback.NewIngestor(store, extractor, datasets, feedback.DefaultConfig(), func(count int64) {
		log.Printf("retraining trigger at %d feedback records; reloading model", count)
		if err := scorer.Reload(); err != nil {
			log.Printf("model reload skipped: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("failed to init feedback ingestor: %v", err)
	}

	engine := pipeline.New(
		pipeline.DefaultConfig(),
		datasets,
		validator.New(validator.DefaultConfig()),
		extractor,
		guardrails.New(guardrails.DefaultConfig()),
		scorer,
		classifier,
		store,
		ingestor,
	)

	req, err := readRequest(*requestPath)
	if err != nil {
		log.Fatalf("failed to read request: %v", err)
	}
	req.Diagnostics = *diagnostics

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := engine.Optimize(ctx, req)
	if err != nil {
		log.Fatalf("optimize failed: %v", err)
	}

	if *jsonOut {
		if err := printJSON(result); err != nil {
			log.Fatalf("output error: %v", err)
		}
		return
	}
	printResult(result)
}

// #endregion main

// #region wiring

func loadDatasets(dataDir, postgresDSN string) (dataset.Context, error) {
	if postgresDSN != "" {
		repo, err := dataset.NewPostgresRepository(postgresDSN)
		if err != nil {
			return dataset.Context{}, err
		}
		defer repo.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		return repo.LoadContext(ctx, dataset.BangaloreBounds())
	}
	return dataset.LoadContextCSV(dataDir)
}

// buildClassifier prefers live OSM arterial-way geometry; without an
// Overpass endpoint it falls back to main-road flags in the population
// dataset.
func buildClassifier(overpassURL string, datasets dataset.Context) validator.RoadClassifier {
	if overpassURL != "" {
		classifier, err := mainroad.NewOverpassClassifier(overpassURL, datasets.Bounds, 0.05, 90*time.Second)
		if err != nil {
			log.Printf("overpass classifier unavailable (%v), using population dataset", err)
		} else {
			return classifier
		}
	}
	return dataset.PopulationClassifier{Table: datasets.Population, RadiusKm: 0.55}
}

func readRequest(path string) (pipeline.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("read request file: %w", err)
	}
	var rf requestFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return pipeline.Request{}, fmt.Errorf("parse request file: %w", err)
	}
	return pipeline.Request{
		Start:       rf.Start,
		End:         rf.End,
		Candidates:  rf.Candidates,
		Now:         time.Now(),
		Preferences: rf.Preferences,
	}, nil
}

// #endregion wiring

// #region output

func printResult(result pipeline.Result) {
	fmt.Printf("Analyzed %d candidates (%d shape-rejected, %d guardrail-rejected, ml=%v)\n\n",
		result.TotalAnalyzed, result.ShapeRejected, result.GuardrailRejected, result.MLActive)

	if len(result.Routes) == 0 {
		fmt.Println(result.Summary)
		return
	}

	fmt.Printf("%-4s  %-10s  %8s  %8s  %7s  %7s  %7s  %8s\n",
		"Rank", "Route", "Dist km", "Dur min", "Rule", "ML", "Final", "MainRd%")
	for _, r := range result.Routes {
		mlCol := "—"
		if r.Breakdown.MLUsed {
			mlCol = fmt.Sprintf("%.1f", r.Breakdown.MLScore)
		}
		fmt.Printf("%-4d  %-10s  %8.2f  %8.1f  %7.1f  %7s  %7.1f  %8.1f\n",
			r.Rank, shortID(r.ID), r.DistanceKm, r.DurationMin,
			r.Breakdown.RuleScore, mlCol, r.Breakdown.Composite, r.MainRoadPct)
		for _, w := range r.Warnings {
			fmt.Printf("      ! %s\n", w)
		}
	}

	if len(result.Rejections) > 0 {
		fmt.Printf("\nRejections:\n")
		for _, rej := range result.Rejections {
			fmt.Printf("  candidate %d [%s]: %s\n", rej.Index, rej.Stage, rej.Reason)
		}
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
