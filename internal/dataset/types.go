package dataset

import "github.com/saferoutes/engine/internal/geo"

// #region record
// Record is one weighted sample point in a spatial dataset.
// Weight carries the dataset's intensity column: 1 per crime incident,
// the 0-10 lighting score for lighting points.
type Record struct {
	Point  geo.Point
	Weight float64
}

// #endregion record

// #region population-record
// PopulationRecord is one population sample. Density is in persons per unit
// area (scaled to 0-10 by the aggregators), Traffic is a 0-10 level, and
// IsMainRoad marks samples taken on arterial roads.
type PopulationRecord struct {
	Point      geo.Point
	Density    float64
	Traffic    float64
	IsMainRoad bool
}

// #endregion population-record

// #region bounds
// Bounds is the service area; requests outside it are refused upstream.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether p falls inside the bounds.
func (b Bounds) Contains(p geo.Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// BangaloreBounds returns the default service area.
func BangaloreBounds() Bounds {
	return Bounds{
		MinLat: 12.704192, MaxLat: 13.173706,
		MinLon: 77.269876, MaxLon: 77.850066,
	}
}

// #endregion bounds

// #region context
// Context bundles the three spatial datasets consulted during scoring.
// Loaded once at process start and never mutated afterwards; safe for
// concurrent readers.
type Context struct {
	Crime      Table
	Lighting   Table
	Population PopulationTable
	Bounds     Bounds
}

// #endregion context
