package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for great-circle math.
const EarthRadiusKm = 6371.0

// #region distance

// Haversine computes the great-circle distance between two points in km.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lon1 := a.Lon * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lon2 := b.Lon * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Asin(math.Sqrt(h))

	return EarthRadiusKm * c
}

// PathLength sums the consecutive great-circle gaps along a point sequence.
// Returns 0 for fewer than two points.
func PathLength(points []Point) float64 {
	var total float64
	for i := 0; i+1 < len(points); i++ {
		total += Haversine(points[i], points[i+1])
	}
	return total
}

// #endregion distance

// #region sampling

// Sample returns an evenly strided subset of the sequence, always
// including the first point. The stride is len/max rounded down, so the
// result can run past max by up to max-1 points when len is not an exact
// multiple. max <= 0 returns the full sequence.
func Sample(points []Point, max int) []Point {
	if max <= 0 || len(points) <= max {
		return points
	}
	step := len(points) / max
	if step < 1 {
		step = 1
	}
	sampled := make([]Point, 0, max)
	for i := 0; i < len(points); i += step {
		sampled = append(sampled, points[i])
	}
	return sampled
}

// #endregion sampling
