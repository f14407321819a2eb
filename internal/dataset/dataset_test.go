package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/saferoutes/engine/internal/geo"
)

func TestCountWithin(t *testing.T) {
	center := geo.Point{Lat: 12.9716, Lon: 77.5946}
	table := Table{
		{Point: geo.Point{Lat: 12.9716, Lon: 77.5946}, Weight: 1}, // 0 km
		{Point: geo.Point{Lat: 12.9736, Lon: 77.5946}, Weight: 1}, // ~0.22 km
		{Point: geo.Point{Lat: 12.9916, Lon: 77.5946}, Weight: 1}, // ~2.2 km
	}

	if got := table.CountWithin(center, 0.5); got != 2 {
		t.Fatalf("expected 2 within 0.5 km, got %d", got)
	}
	if got := table.CountWithin(center, 5); got != 3 {
		t.Fatalf("expected 3 within 5 km, got %d", got)
	}
}

func TestMeanWeightWithinFallback(t *testing.T) {
	center := geo.Point{Lat: 12.9716, Lon: 77.5946}
	table := Table{
		{Point: center, Weight: 8},
		{Point: geo.Point{Lat: 12.9726, Lon: 77.5946}, Weight: 4},
	}

	if got := table.MeanWeightWithin(center, 0.5, 5.0); got != 6 {
		t.Fatalf("expected mean 6, got %f", got)
	}
	far := geo.Point{Lat: 13.10, Lon: 77.80}
	if got := table.MeanWeightWithin(far, 0.5, 5.0); got != 5.0 {
		t.Fatalf("expected fallback 5.0, got %f", got)
	}
}

func TestPopulationNearby(t *testing.T) {
	center := geo.Point{Lat: 12.9716, Lon: 77.5946}
	table := PopulationTable{
		{Point: center, Density: 3000, Traffic: 40, IsMainRoad: true},
		{Point: geo.Point{Lat: 12.9720, Lon: 77.5946}, Density: 5000, Traffic: 80, IsMainRoad: true},
		{Point: geo.Point{Lat: 12.9724, Lon: 77.5946}, Density: 1000, Traffic: 30, IsMainRoad: false},
	}

	density, traffic, isMain := table.Nearby(center, 0.5)
	if math.Abs(density-3.0) > 1e-9 { // mean 3000 / 1000
		t.Fatalf("expected density 3.0, got %f", density)
	}
	if math.Abs(traffic-5.0) > 1e-9 { // mean 50 / 10
		t.Fatalf("expected traffic 5.0, got %f", traffic)
	}
	if !isMain { // 2 of 3 on main road
		t.Fatal("expected main-road majority")
	}

	density, traffic, isMain = table.Nearby(geo.Point{Lat: 13.10, Lon: 77.80}, 0.5)
	if density != 5.0 || traffic != 5.0 || isMain {
		t.Fatalf("expected neutral fallback, got %f %f %v", density, traffic, isMain)
	}
}

func TestPopulationClassifier(t *testing.T) {
	table := PopulationTable{
		{Point: geo.Point{Lat: 12.9716, Lon: 77.5946}, IsMainRoad: true},
	}
	c := PopulationClassifier{Table: table, RadiusKm: 0.5}

	if !c.IsMainRoad(geo.Point{Lat: 12.9716, Lon: 77.5946}) {
		t.Fatal("expected main road near sample")
	}
	if c.IsMainRoad(geo.Point{Lat: 13.10, Lon: 77.80}) {
		t.Fatal("expected side road away from samples")
	}
}

func TestBoundsContains(t *testing.T) {
	b := BangaloreBounds()
	if !b.Contains(geo.Point{Lat: 12.9716, Lon: 77.5946}) {
		t.Fatal("expected central Bangalore inside bounds")
	}
	if b.Contains(geo.Point{Lat: 28.6139, Lon: 77.2090}) {
		t.Fatal("expected Delhi outside bounds")
	}
}

func TestLoadContextCSV(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	write("crimes.csv", "Latitude,Longitude\n12.9716,77.5946\n12.9720,77.5950\nbad,row\n")
	write("lighting.csv", "Latitude,Longitude,lighting_score\n12.9716,77.5946,8\n12.9720,77.5950,\n")
	write("population.csv", "Latitude,Longitude,population_density,traffic_level,is_main_road\n12.9716,77.5946,4000,60,1\n")

	ctx, err := LoadContextCSV(dir)
	if err != nil {
		t.Fatalf("LoadContextCSV: %v", err)
	}

	// Unparseable rows are skipped, not fatal
	if len(ctx.Crime) != 2 {
		t.Fatalf("expected 2 crime records, got %d", len(ctx.Crime))
	}
	if ctx.Crime[0].Weight != 1 {
		t.Fatalf("expected unit crime weight, got %f", ctx.Crime[0].Weight)
	}

	if len(ctx.Lighting) != 2 {
		t.Fatalf("expected 2 lighting points, got %d", len(ctx.Lighting))
	}
	if ctx.Lighting[0].Weight != 8 {
		t.Fatalf("expected lighting weight 8, got %f", ctx.Lighting[0].Weight)
	}
	// Empty score column falls back to neutral 5.0
	if ctx.Lighting[1].Weight != 5.0 {
		t.Fatalf("expected fallback lighting weight 5.0, got %f", ctx.Lighting[1].Weight)
	}

	if len(ctx.Population) != 1 {
		t.Fatalf("expected 1 population sample, got %d", len(ctx.Population))
	}
	if !ctx.Population[0].IsMainRoad {
		t.Fatal("expected main-road flag set")
	}
	if ctx.Bounds != BangaloreBounds() {
		t.Fatalf("expected default bounds, got %+v", ctx.Bounds)
	}
}

func TestLoadContextCSVMissingFile(t *testing.T) {
	if _, err := LoadContextCSV(t.TempDir()); err == nil {
		t.Fatal("expected error for missing files")
	}
}
