// Package mainroad classifies route points as main-road using OpenStreetMap
// arterial-way geometry. It is an alternative to the population-dataset
// classifier for deployments without main-road flags in their population
// samples.
package mainroad

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/serjvanilla/go-overpass"

	"github.com/saferoutes/engine/internal/dataset"
	"github.com/saferoutes/engine/internal/geo"
)

// #region classifier

// Classifier answers main-road queries against a set of arterial-way node
// points, fetched once at startup. Implements validator.RoadClassifier.
type Classifier struct {
	points   []geo.Point
	radiusKm float64
}

// NewFromPoints builds a classifier from pre-fetched way geometry.
func NewFromPoints(points []geo.Point, radiusKm float64) *Classifier {
	return &Classifier{points: points, radiusKm: radiusKm}
}

// IsMainRoad reports whether any arterial-way node lies within the
// classifier radius of p.
func (c *Classifier) IsMainRoad(p geo.Point) bool {
	for _, wp := range c.points {
		if geo.Haversine(p, wp) <= c.radiusKm {
			return true
		}
	}
	return false
}

// #endregion classifier

// #region overpass

// NewOverpassClassifier fetches primary/secondary/trunk way geometry for
// the service area from an Overpass endpoint. Long-running; call once at
// process start.
func NewOverpassClassifier(endpoint string, bounds dataset.Bounds, radiusKm float64, timeout time.Duration) (*Classifier, error) {
	httpClient := &http.Client{Timeout: timeout}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)

	query := fmt.Sprintf(`
		[out:json];
		(
			way["highway"~"primary|secondary|trunk"](%f,%f,%f,%f);
		);
		out body;
		>;
		out skel qt;
	`, bounds.MinLat, bounds.MinLon, bounds.MaxLat, bounds.MaxLon)

	result, err := client.Query(query)
	if err != nil {
		return nil, fmt.Errorf("overpass main-road query: %w", err)
	}

	var points []geo.Point
	for _, way := range result.Ways {
		for _, node := range way.Nodes {
			points = append(points, geo.Point{Lat: node.Lat, Lon: node.Lon})
		}
	}

	log.Printf("[ROAD] loaded %d arterial way points from overpass", len(points))
	return NewFromPoints(points, radiusKm), nil
}

// #endregion overpass
