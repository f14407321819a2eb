package dataset

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/saferoutes/engine/internal/geo"
)

// #region postgres-repo

// PostgresRepository loads the spatial datasets from Postgres tables instead
// of CSV files. Used by deployments that keep the city datasets in a shared
// database; the in-memory Context it produces is identical either way.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository connects to Postgres with the given connection string.
func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresRepository{db: db}, nil
}

// Close closes the underlying connection pool.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// #endregion postgres-repo

// #region postgres-load

type crimeRow struct {
	Latitude  float64 `db:"latitude"`
	Longitude float64 `db:"longitude"`
}

type lightingRow struct {
	Latitude      float64 `db:"latitude"`
	Longitude     float64 `db:"longitude"`
	LightingScore float64 `db:"lighting_score"`
}

type populationRow struct {
	Latitude          float64 `db:"latitude"`
	Longitude         float64 `db:"longitude"`
	PopulationDensity float64 `db:"population_density"`
	TrafficLevel      float64 `db:"traffic_level"`
	IsMainRoad        bool    `db:"is_main_road"`
}

// LoadContext reads all three datasets for the given bounds.
func (r *PostgresRepository) LoadContext(ctx context.Context, bounds Bounds) (Context, error) {
	var crimes []crimeRow
	err := r.db.SelectContext(ctx, &crimes,
		`SELECT latitude, longitude FROM crime_incidents
		 WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4`,
		bounds.MinLat, bounds.MaxLat, bounds.MinLon, bounds.MaxLon)
	if err != nil {
		return Context{}, fmt.Errorf("query crime_incidents: %w", err)
	}

	var lights []lightingRow
	err = r.db.SelectContext(ctx, &lights,
		`SELECT latitude, longitude, lighting_score FROM lighting_points
		 WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4`,
		bounds.MinLat, bounds.MaxLat, bounds.MinLon, bounds.MaxLon)
	if err != nil {
		return Context{}, fmt.Errorf("query lighting_points: %w", err)
	}

	var pops []populationRow
	err = r.db.SelectContext(ctx, &pops,
		`SELECT latitude, longitude, population_density, traffic_level, is_main_road
		 FROM population_samples
		 WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4`,
		bounds.MinLat, bounds.MaxLat, bounds.MinLon, bounds.MaxLon)
	if err != nil {
		return Context{}, fmt.Errorf("query population_samples: %w", err)
	}

	out := Context{
		Crime:      make(Table, len(crimes)),
		Lighting:   make(Table, len(lights)),
		Population: make(PopulationTable, len(pops)),
		Bounds:     bounds,
	}
	for i, c := range crimes {
		out.Crime[i] = Record{Point: geo.Point{Lat: c.Latitude, Lon: c.Longitude}, Weight: 1}
	}
	for i, l := range lights {
		out.Lighting[i] = Record{Point: geo.Point{Lat: l.Latitude, Lon: l.Longitude}, Weight: l.LightingScore}
	}
	for i, p := range pops {
		out.Population[i] = PopulationRecord{
			Point:      geo.Point{Lat: p.Latitude, Lon: p.Longitude},
			Density:    p.PopulationDensity,
			Traffic:    p.TrafficLevel,
			IsMainRoad: p.IsMainRoad,
		}
	}

	log.Printf("[DATA] loaded %d crime, %d lighting, %d population rows from postgres",
		len(out.Crime), len(out.Lighting), len(out.Population))
	return out, nil
}

// #endregion postgres-load
