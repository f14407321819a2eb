package geo

// #region point
// Point is a WGS84 coordinate pair in degrees. Immutable value.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// #endregion point
