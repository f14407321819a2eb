package route

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// #region hash

// Hash fingerprints a candidate's geometry from five sampled points so that
// near-identical alternatives from the routing engine dedup to one entry.
// Returns "" for sequences shorter than two points.
func (c Candidate) Hash() string {
	n := len(c.Points)
	if n < 2 {
		return ""
	}

	indices := []int{0, n / 4, n / 2, 3 * n / 4, n - 1}
	var sb strings.Builder
	for _, i := range indices {
		if i >= n {
			continue
		}
		fmt.Fprintf(&sb, "%.4f,%.4f", c.Points[i].Lat, c.Points[i].Lon)
	}

	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// #endregion hash
