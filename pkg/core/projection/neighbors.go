package projection

import (
	"github.com/sanonone/kektorspace/pkg/core/distance"
)

// FindNeighbors scans every candidate against every primary vector and
// returns, per candidate index, the minimum cosine distance observed, keeping
// only distances <= radius.
//
// A candidate that is literally the same vector as a primary (same backing
// array) is skipped so that searching a set against itself does not report
// self-matches. The scan is exhaustive, O(len(primary)·len(all)); primary sets
// are expected to be small.
func FindNeighbors(primary, all [][]float32, radius float64) map[int]float64 {
	out := make(map[int]float64)
	if len(primary) == 0 || len(all) == 0 || radius < 0 {
		return out
	}
	for ci, cand := range all {
		for _, pv := range primary {
			if sameVector(pv, cand) {
				continue
			}
			d := distance.CosineDistance(pv, cand)
			if d > radius {
				continue
			}
			if prev, ok := out[ci]; !ok || d < prev {
				out[ci] = d
			}
		}
	}
	return out
}

func sameVector(a, b []float32) bool {
	return len(a) > 0 && len(a) == len(b) && &a[0] == &b[0]
}
