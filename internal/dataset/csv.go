package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/saferoutes/engine/internal/geo"
)

// #region csv-loaders

// LoadCrimeCSV reads crime incidents from a CSV with Latitude/Longitude
// columns. Each incident has weight 1.
func LoadCrimeCSV(path string) (Table, error) {
	rows, cols, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load crime csv: %w", err)
	}

	table := make(Table, 0, len(rows))
	for _, row := range rows {
		p, ok := pointFromRow(row, cols)
		if !ok {
			continue
		}
		table = append(table, Record{Point: p, Weight: 1})
	}
	log.Printf("[DATA] loaded %d crime records from %s", len(table), path)
	return table, nil
}

// LoadLightingCSV reads lighting points from a CSV with Latitude/Longitude
// and an optional lighting_score column (default 5.0).
func LoadLightingCSV(path string) (Table, error) {
	rows, cols, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load lighting csv: %w", err)
	}

	table := make(Table, 0, len(rows))
	for _, row := range rows {
		p, ok := pointFromRow(row, cols)
		if !ok {
			continue
		}
		table = append(table, Record{
			Point:  p,
			Weight: floatColumn(row, cols, "lighting_score", 5.0),
		})
	}
	log.Printf("[DATA] loaded %d lighting points from %s", len(table), path)
	return table, nil
}

// LoadPopulationCSV reads population samples from a CSV with
// Latitude/Longitude, population_density, traffic_level and is_main_road
// columns.
func LoadPopulationCSV(path string) (PopulationTable, error) {
	rows, cols, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load population csv: %w", err)
	}

	table := make(PopulationTable, 0, len(rows))
	for _, row := range rows {
		p, ok := pointFromRow(row, cols)
		if !ok {
			continue
		}
		table = append(table, PopulationRecord{
			Point:      p,
			Density:    floatColumn(row, cols, "population_density", 0),
			Traffic:    floatColumn(row, cols, "traffic_level", 0),
			IsMainRoad: floatColumn(row, cols, "is_main_road", 0) > 0.5,
		})
	}
	log.Printf("[DATA] loaded %d population samples from %s", len(table), path)
	return table, nil
}

// LoadContextCSV loads all three datasets from one directory using the
// standard file names.
func LoadContextCSV(dir string) (Context, error) {
	crime, err := LoadCrimeCSV(dir + "/crimes.csv")
	if err != nil {
		return Context{}, err
	}
	lighting, err := LoadLightingCSV(dir + "/lighting.csv")
	if err != nil {
		return Context{}, err
	}
	population, err := LoadPopulationCSV(dir + "/population.csv")
	if err != nil {
		return Context{}, err
	}
	return Context{
		Crime:      crime,
		Lighting:   lighting,
		Population: population,
		Bounds:     BangaloreBounds(),
	}, nil
}

// #endregion csv-loaders

// #region csv-helpers

// readCSV parses a headered CSV into rows plus a lowercased column index.
func readCSV(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, cols, nil
}

func pointFromRow(row []string, cols map[string]int) (geo.Point, bool) {
	lat, ok1 := parseColumn(row, cols, "latitude")
	lon, ok2 := parseColumn(row, cols, "longitude")
	if !ok1 || !ok2 {
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lon: lon}, true
}

func parseColumn(row []string, cols map[string]int, name string) (float64, bool) {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func floatColumn(row []string, cols map[string]int, name string, fallback float64) float64 {
	v, ok := parseColumn(row, cols, name)
	if !ok {
		return fallback
	}
	return v
}

// #endregion csv-helpers
