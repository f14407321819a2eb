package geo

// #region numeric

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampScore restricts a safety score to [0, 100].
func ClampScore(v float64) float64 {
	return Clamp(v, 0, 100)
}

// SafeDiv divides num by den, returning 0 when den is 0.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// #endregion numeric
