package validator

import (
	"math"
	"testing"

	"github.com/saferoutes/engine/internal/geo"
)

// northLine returns n points evenly spaced along a meridian from startLat
// to endLat. 0.001 degrees of latitude is ~111 m.
func northLine(startLat, endLat float64, n int) []geo.Point {
	points := make([]geo.Point, n)
	step := (endLat - startLat) / float64(n-1)
	for i := range points {
		points[i] = geo.Point{Lat: startLat + float64(i)*step, Lon: 77.60}
	}
	return points
}

type roadFunc func(p geo.Point) bool

func (f roadFunc) IsMainRoad(p geo.Point) bool { return f(p) }

func TestConnectivityPassesContiguousRoute(t *testing.T) {
	v := New(DefaultConfig())

	// Two points ~220 m apart, well under the 0.5 km gap limit
	points := []geo.Point{
		{Lat: 12.9716, Lon: 77.5946},
		{Lat: 12.9736, Lon: 77.5946},
	}
	if !v.ValidateConnectivity(points) {
		t.Fatal("expected contiguous route to pass")
	}
}

func TestConnectivityRejectsLargeGap(t *testing.T) {
	v := New(DefaultConfig())

	// Middle gap is ~1.1 km, over the 0.5 km limit
	points := []geo.Point{
		{Lat: 12.9700, Lon: 77.60},
		{Lat: 12.9710, Lon: 77.60},
		{Lat: 12.9810, Lon: 77.60},
	}
	if v.ValidateConnectivity(points) {
		t.Fatal("expected discontinuous route to fail")
	}
}

func TestConnectivityRejectsDegenerateRoutes(t *testing.T) {
	v := New(DefaultConfig())
	if v.ValidateConnectivity(nil) {
		t.Fatal("expected empty route to fail")
	}
	if v.ValidateConnectivity([]geo.Point{{Lat: 12.97, Lon: 77.59}}) {
		t.Fatal("expected single-point route to fail")
	}
}

func TestBacktrackingPassesStraightRoute(t *testing.T) {
	v := New(DefaultConfig())

	points := northLine(12.900, 12.945, 21) // ~5 km straight north
	if !v.DetectBacktracking(points, points[0], points[len(points)-1]) {
		t.Fatal("expected straight route to pass")
	}
}

func TestBacktrackingRejectsExcessiveDetour(t *testing.T) {
	v := New(DefaultConfig())

	start := geo.Point{Lat: 12.900, Lon: 77.60}
	end := geo.Point{Lat: 12.945, Lon: 77.60} // direct ~5 km

	// Overshoot north past the destination then come back: path ~10 km,
	// detour ratio ~2.0 against the 1.3 cap
	points := []geo.Point{
		{Lat: 12.9000, Lon: 77.60},
		{Lat: 12.9200, Lon: 77.60},
		{Lat: 12.9400, Lon: 77.60},
		{Lat: 12.9675, Lon: 77.60},
		{Lat: 12.9550, Lon: 77.60},
		{Lat: 12.9450, Lon: 77.60},
	}
	if v.DetectBacktracking(points, start, end) {
		t.Fatal("expected detour route to fail")
	}
}

func TestBacktrackingAutoPassesShortInputs(t *testing.T) {
	v := New(DefaultConfig())

	// Fewer than 5 points: too little shape information to judge
	points := []geo.Point{
		{Lat: 12.90, Lon: 77.60},
		{Lat: 12.99, Lon: 77.60},
		{Lat: 12.90, Lon: 77.60},
		{Lat: 12.99, Lon: 77.60},
	}
	if !v.DetectBacktracking(points, points[0], points[len(points)-1]) {
		t.Fatal("expected short input to auto-pass")
	}

	// Direct distance under MinDirectKm: loops are legitimate near-origin shapes
	tiny := northLine(12.9000, 12.9005, 8)
	if !v.DetectBacktracking(tiny, tiny[0], tiny[len(tiny)-1]) {
		t.Fatal("expected near-zero direct distance to auto-pass")
	}
}

func TestBacktrackingRejectsRegressingWindows(t *testing.T) {
	v := New(DefaultConfig())

	start := geo.Point{Lat: 12.900, Lon: 77.60}
	end := geo.Point{Lat: 12.945, Lon: 77.60}

	// Sawtooth: 3 of 9 windows move away from the destination. Total length
	// is ~5.7 km against 5 km direct, inside the 1.3 detour cap, so only
	// the window check can catch it.
	lats := []float64{12.9000, 12.9080, 12.9060, 12.9140, 12.9120, 12.9200,
		12.9180, 12.9270, 12.9360, 12.9450}
	points := make([]geo.Point, len(lats))
	for i, lat := range lats {
		points[i] = geo.Point{Lat: lat, Lon: 77.60}
	}

	direct := geo.Haversine(start, end)
	if ratio := geo.PathLength(points) / direct; ratio > v.config.MaxDetourRatio {
		t.Fatalf("test shape tripped the detour check instead (ratio %f)", ratio)
	}
	if v.DetectBacktracking(points, start, end) {
		t.Fatal("expected sawtooth route to fail")
	}
}

func TestMainRoadCoverage(t *testing.T) {
	v := New(DefaultConfig())
	points := northLine(12.900, 12.945, 21)

	allMain := roadFunc(func(geo.Point) bool { return true })
	ok, pct := v.CheckMainRoadCoverage(points, allMain)
	if !ok {
		t.Fatal("expected full coverage to pass")
	}
	if math.Abs(pct-100) > 1e-9 {
		t.Fatalf("expected 100%% coverage, got %f", pct)
	}

	noMain := roadFunc(func(geo.Point) bool { return false })
	ok, pct = v.CheckMainRoadCoverage(points, noMain)
	if ok || pct != 0 {
		t.Fatalf("expected zero coverage to fail, got ok=%v pct=%f", ok, pct)
	}

	// Points south of 12.92 are main road: 10 of 21 samples, ~47.6%,
	// above the 40% threshold
	southMain := roadFunc(func(p geo.Point) bool { return p.Lat < 12.9224 })
	ok, pct = v.CheckMainRoadCoverage(points, southMain)
	if !ok {
		t.Fatalf("expected partial coverage above threshold to pass, got %f%%", pct)
	}

	if ok, _ := v.CheckMainRoadCoverage(points, nil); ok {
		t.Fatal("expected nil classifier to report no coverage")
	}
}
