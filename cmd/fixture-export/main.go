package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/saferoutes/engine/internal/feedback"
	"github.com/saferoutes/engine/internal/replay"
	"github.com/saferoutes/engine/internal/route"
)

// #region main

// fixture-export turns retained route snapshots from a live feedback
// database into a replay fixture skeleton, so production geometry can be
// pinned as a regression scenario. Expected outcomes default to "ranked" and
// are meant to be hand-adjusted after a first replay run.
func main() {
	dbPath := flag.String("db", "", "path to saferoutes.db")
	out := flag.String("out", "fixture.json", "output fixture path")
	limit := flag.Int("limit", 5, "export N most recent snapshots")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/saferoutes.db [--out fixture.json] [--limit N]")
		os.Exit(2)
	}

	store, err := feedback.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	candidates, err := store.RecentSnapshots(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if len(candidates) == 0 {
		fmt.Fprintln(os.Stderr, "no route snapshots found")
		os.Exit(1)
	}

	fixture := buildFixture(candidates)
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal fixture: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write fixture: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exported %d candidates to %s\n", len(candidates), *out)
}

// #endregion main

// #region build

func buildFixture(candidates []route.Candidate) replay.Fixture {
	first := candidates[0]
	f := replay.Fixture{
		Description: fmt.Sprintf("exported %s from route snapshots", time.Now().UTC().Format("2006-01-02")),
		Start:       first.Points[0],
		End:         first.Points[len(first.Points)-1],
		Now:         time.Now().UTC().Format(time.RFC3339),
		Candidates:  candidates,
	}
	for i := range candidates {
		f.Expected = append(f.Expected, replay.ExpectedOutcome{
			Index:   i,
			Outcome: replay.OutcomeRanked,
		})
	}
	return f
}

// #endregion build
