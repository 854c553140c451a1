package selection

import (
	"cogentcore.org/core/math32"

	"github.com/sanonone/kektorspace/pkg/core/types"
)

// Picker performs the exact ray-object intersection test against rendered
// geometry. It returns the arena index of the nearest item hit by ray.
type Picker interface {
	Pick(ray math32.Ray, items []types.Item) (int, bool)
}

// BoxPicker treats every item as an axis-aligned cube of edge Size centered on
// its position and returns the item whose box the ray enters first.
type BoxPicker struct {
	Size float32
}

// Pick implements Picker.
func (bp BoxPicker) Pick(ray math32.Ray, items []types.Item) (int, bool) {
	h := bp.Size / 2
	if h <= 0 {
		return -1, false
	}
	best, bestDist := -1, float32(0)
	for _, it := range items {
		p := it.Position
		box := math32.B3(p.X-h, p.Y-h, p.Z-h, p.X+h, p.Y+h, p.Z+h)
		pt, has := ray.IntersectBox(box)
		if !has {
			continue
		}
		d := pt.DistanceTo(ray.Origin)
		if best < 0 || d < bestDist {
			best, bestDist = it.Index, d
		}
	}
	return best, best >= 0
}
