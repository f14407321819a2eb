package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/saferoutes/engine/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, err := replay.Run(ctx, fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Fixture: %s\n", fixture.Description)
	fmt.Printf("Candidates: %d | ranked: %d | shape-rejected: %d | guardrail-rejected: %d\n\n",
		result.Pipeline.TotalAnalyzed, len(result.Pipeline.Routes),
		result.Pipeline.ShapeRejected, result.Pipeline.GuardrailRejected)

	fmt.Printf("%-10s  %s\n", "Candidate", "Outcome")
	for i := 0; i < result.Pipeline.TotalAnalyzed; i++ {
		fmt.Printf("%-10d  %s\n", i, result.Outcomes[i])
	}

	if len(result.Mismatches) == 0 {
		fmt.Printf("\nAll %d expectations matched.\n", len(fixture.Expected))
		return
	}

	fmt.Printf("\nMismatches:\n")
	for _, m := range result.Mismatches {
		fmt.Printf("  candidate %d: want %s, got %s\n", m.Index, m.Want, m.Got)
	}
	os.Exit(1)
}

// #endregion main
