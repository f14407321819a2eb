package feedback

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/saferoutes/engine/internal/features"
	"github.com/saferoutes/engine/internal/geo"
	"github.com/saferoutes/engine/internal/route"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS feedback (
	id          TEXT PRIMARY KEY,
	route_id    TEXT NOT NULL,
	rating      INTEGER NOT NULL,
	comment     TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS unsafe_points (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	feedback_id TEXT NOT NULL,
	latitude    REAL NOT NULL,
	longitude   REAL NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (feedback_id) REFERENCES feedback(id)
);

CREATE TABLE IF NOT EXISTS training_rows (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	features_json TEXT NOT NULL,
	label         REAL NOT NULL,
	source        TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS route_snapshots (
	route_id       TEXT PRIMARY KEY,
	candidate_json TEXT NOT NULL,
	created_at     TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct
// Store is the append-only feedback and training-sample log in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for inspection tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region append-feedback

// AppendFeedback inserts a feedback record with its unsafe points in one
// transaction.
func (s *Store) AppendFeedback(rec Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	created := rec.CreatedAt.UTC().Format(time.RFC3339Nano)
	_, err = tx.Exec(
		`INSERT INTO feedback (id, route_id, rating, comment, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.RouteID, rec.Rating, nullIfEmpty(rec.Comment), created,
	)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}

	for _, p := range rec.UnsafePoints {
		_, err = tx.Exec(
			`INSERT INTO unsafe_points (feedback_id, latitude, longitude, created_at)
			 VALUES (?, ?, ?, ?)`,
			rec.ID, p.Lat, p.Lon, created,
		)
		if err != nil {
			return fmt.Errorf("insert unsafe point: %w", err)
		}
	}

	return tx.Commit()
}

// CountFeedback returns the total number of feedback records.
func (s *Store) CountFeedback() (int64, error) {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM feedback`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count feedback: %w", err)
	}
	return count, nil
}

// RecentFeedback returns the most recent feedback records, newest first,
// without their unsafe points. For inspection tooling.
func (s *Store) RecentFeedback(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, route_id, rating, COALESCE(comment, ''), created_at
		 FROM feedback ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var created string
		if err := rows.Scan(&rec.ID, &rec.RouteID, &rec.Rating, &rec.Comment, &created); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion append-feedback

// #region training-rows

// LogSample appends a (features, label) training row from the scoring
// pipeline. Implements pipeline.SampleLogger.
func (s *Store) LogSample(vec features.Vector, label float64) error {
	return s.appendTrainingRow(vec, label, "pipeline")
}

// AppendLabeledRow appends a training row derived from high-confidence user
// feedback.
func (s *Store) AppendLabeledRow(vec features.Vector, label float64) error {
	return s.appendTrainingRow(vec, label, "feedback")
}

func (s *Store) appendTrainingRow(vec features.Vector, label float64, source string) error {
	featJSON, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO training_rows (features_json, label, source, created_at)
		 VALUES (?, ?, ?, ?)`,
		string(featJSON), label, source, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert training row: %w", err)
	}
	return nil
}

// CountTrainingRows returns training rows grouped by source.
func (s *Store) CountTrainingRows() (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT source, COUNT(*) FROM training_rows GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("count training rows: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out[source] = count
	}
	return out, rows.Err()
}

// #endregion training-rows

// #region snapshots

// SaveSnapshot retains a route snapshot keyed by route ID so feedback
// submitted later can regenerate its features.
func (s *Store) SaveSnapshot(routeID string, cand route.Candidate) error {
	candJSON, err := json.Marshal(cand)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO route_snapshots (route_id, candidate_json, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(route_id) DO UPDATE SET candidate_json = excluded.candidate_json`,
		routeID, string(candJSON), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves a retained route snapshot. The bool reports whether
// the route ID was known.
func (s *Store) GetSnapshot(routeID string) (route.Candidate, bool, error) {
	var candJSON string
	err := s.db.QueryRow(
		`SELECT candidate_json FROM route_snapshots WHERE route_id = ?`, routeID,
	).Scan(&candJSON)
	if err == sql.ErrNoRows {
		return route.Candidate{}, false, nil
	}
	if err != nil {
		return route.Candidate{}, false, fmt.Errorf("get snapshot %s: %w", routeID, err)
	}

	var cand route.Candidate
	if err := json.Unmarshal([]byte(candJSON), &cand); err != nil {
		return route.Candidate{}, false, fmt.Errorf("unmarshal snapshot %s: %w", routeID, err)
	}
	return cand, true, nil
}

// RecentSnapshots returns the most recently retained route snapshots,
// newest first. For fixture-export tooling.
func (s *Store) RecentSnapshots(limit int) ([]route.Candidate, error) {
	rows, err := s.db.Query(
		`SELECT candidate_json FROM route_snapshots ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []route.Candidate
	for rows.Next() {
		var candJSON string
		if err := rows.Scan(&candJSON); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var cand route.Candidate
		if err := json.Unmarshal([]byte(candJSON), &cand); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		out = append(out, cand)
	}
	return out, rows.Err()
}

// #endregion snapshots

// #region heatmap

// UnsafeHeatmap exports all reported unsafe points with equal intensity,
// for the community heatmap surface. Read-only; the scoring pipeline never
// consumes it.
func (s *Store) UnsafeHeatmap() ([]HeatmapPoint, error) {
	rows, err := s.db.Query(`SELECT latitude, longitude FROM unsafe_points ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query unsafe points: %w", err)
	}
	defer rows.Close()

	var points []HeatmapPoint
	for rows.Next() {
		var lat, lon float64
		if err := rows.Scan(&lat, &lon); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		points = append(points, HeatmapPoint{
			Point:     geo.Point{Lat: lat, Lon: lon},
			Intensity: 1.0,
		})
	}
	return points, rows.Err()
}

// #endregion heatmap

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
