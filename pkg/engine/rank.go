package engine

import (
	"sort"

	"github.com/sanonone/kektorspace/pkg/core/types"
)

// RankWeights orders weights by weight descending, then label ascending,
// drops entries below minWeight and keeps at most maxCount of them. A
// maxCount of zero or less keeps all.
func RankWeights(weights map[string]float32, maxCount int, minWeight float32) []types.LabelWeight {
	out := make([]types.LabelWeight, 0, len(weights))
	for l, w := range weights {
		if w < minWeight {
			continue
		}
		out = append(out, types.LabelWeight{Label: l, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Label < out[j].Label
	})
	if maxCount > 0 && len(out) > maxCount {
		out = out[:maxCount]
	}
	return out
}
