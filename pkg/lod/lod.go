// Package lod buckets distances into discrete detail levels. Pure
// functions, no state; the renderer and culler consume the result.
package lod

// Level returns the index of the first threshold the distance does not
// exceed. Distances beyond every threshold clamp to the last (coarsest)
// level. Thresholds must be ascending (config validation enforces this).
func Level(distance float64, thresholds []float64) int {
	if len(thresholds) == 0 {
		return 0
	}
	for i, limit := range thresholds {
		if distance <= limit {
			return i
		}
	}
	return len(thresholds) - 1
}
