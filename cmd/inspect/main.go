package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/saferoutes/engine/internal/feedback"
	"github.com/saferoutes/engine/internal/mlscore"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to saferoutes.db")
	last := flag.Int("last", 20, "show N most recent feedback records")
	modelPath := flag.String("model", "", "also show model artifact info")
	heatmap := flag.Bool("heatmap", false, "dump the unsafe-area heatmap as JSON")
	jsonOut := flag.Bool("json", false, "output as JSON instead of a table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/saferoutes.db [--last N] [--model path] [--heatmap] [--json]")
		os.Exit(2)
	}

	store, err := feedback.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *heatmap {
		if err := runHeatmapMode(store); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runSummaryMode(store, *last, *modelPath, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region summary-mode

type summaryOutput struct {
	FeedbackCount int64            `json:"feedback_count"`
	TrainingRows  map[string]int64 `json:"training_rows"`
	Recent        []feedbackRow    `json:"recent"`
	Model         *mlscore.Info    `json:"model,omitempty"`
}

type feedbackRow struct {
	ID        string `json:"id"`
	RouteID   string `json:"route_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
}

func runSummaryMode(store *feedback.Store, last int, modelPath string, jsonOut bool) error {
	count, err := store.CountFeedback()
	if err != nil {
		return err
	}
	training, err := store.CountTrainingRows()
	if err != nil {
		return err
	}
	recent, err := store.RecentFeedback(last)
	if err != nil {
		return err
	}

	out := summaryOutput{
		FeedbackCount: count,
		TrainingRows:  training,
		Recent:        make([]feedbackRow, len(recent)),
	}
	for i, rec := range recent {
		out.Recent[i] = feedbackRow{
			ID:        rec.ID,
			RouteID:   rec.RouteID,
			Rating:    rec.Rating,
			Comment:   rec.Comment,
			CreatedAt: rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}
	if modelPath != "" {
		info := mlscore.NewScorer(modelPath).Info()
		out.Model = &info
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Feedback records: %d\n", out.FeedbackCount)
	fmt.Printf("Training rows:    pipeline=%d feedback=%d\n",
		out.TrainingRows["pipeline"], out.TrainingRows["feedback"])

	if out.Model != nil {
		fmt.Printf("\nModel:\n")
		fmt.Printf("  Enabled:    %v\n", out.Model.Enabled)
		if out.Model.Enabled {
			fmt.Printf("  Features:   %d\n", out.Model.NumFeatures)
			fmt.Printf("  Samples:    %d\n", out.Model.NumSamples)
			fmt.Printf("  Trained:    %s\n", out.Model.TrainedAt)
			fmt.Printf("  Accuracy:   %.3f\n", out.Model.Accuracy)
		}
	}

	if len(out.Recent) == 0 {
		fmt.Fprintln(os.Stderr, "\nno feedback records found")
		return nil
	}

	fmt.Printf("\n%-10s  %-10s  %6s  %-20s  %s\n", "ID", "Route", "Rating", "Time", "Comment")
	for _, r := range out.Recent {
		fmt.Printf("%-10s  %-10s  %6d  %-20s  %s\n",
			shortID(r.ID), shortID(r.RouteID), r.Rating, r.CreatedAt, r.Comment)
	}
	return nil
}

// #endregion summary-mode

// #region heatmap-mode

func runHeatmapMode(store *feedback.Store) error {
	points, err := store.UnsafeHeatmap()
	if err != nil {
		return err
	}
	return printJSON(points)
}

// #endregion heatmap-mode

// #region output

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
