// Package spatial implements a uniform 3D grid that buckets items by cell and
// answers radius queries without scanning the full item set.
//
// The grid is rebuild-only: Build discards all prior state, and individual
// items are never inserted or removed. A query visits only the cells that
// intersect the axis-aligned box [p-r, p+r] and then filters candidates by
// exact Euclidean distance, so its cost tracks the number of items near the
// query point rather than the total.
package spatial

import (
	"math"
	"sort"

	"cogentcore.org/core/math32"

	"github.com/sanonone/kektorspace/pkg/core/types"
)

// CellSize is the edge length of one grid cell in world units. It is chosen
// relative to the expected click and proximity radii.
const CellSize float32 = 5.0

// CellKey identifies a grid cell by integer coordinates.
type CellKey struct {
	X, Y, Z int
}

// KeyOf returns the cell containing p.
func KeyOf(p math32.Vector3) CellKey {
	return CellKey{X: cellCoord(p.X), Y: cellCoord(p.Y), Z: cellCoord(p.Z)}
}

func cellCoord(v float32) int {
	return int(math32.Floor(v / CellSize))
}

// Grid is the spatial index. The zero value is an empty grid ready for Build.
type Grid struct {
	cells     map[CellKey][]int
	positions []math32.Vector3
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{cells: make(map[CellKey][]int)}
}

// Build replaces the grid contents with items, bucketing each by the cell of
// its position. Query results refer to items by their arena Index.
func (g *Grid) Build(items []types.Item) {
	g.cells = make(map[CellKey][]int, len(items)/2+1)
	g.positions = make([]math32.Vector3, 0, len(items))
	for _, it := range items {
		for len(g.positions) <= it.Index {
			g.positions = append(g.positions, math32.Vector3{})
		}
		g.positions[it.Index] = it.Position
		k := KeyOf(it.Position)
		g.cells[k] = append(g.cells[k], it.Index)
	}
}

// Clear empties the grid without rebuilding.
func (g *Grid) Clear() {
	g.cells = make(map[CellKey][]int)
	g.positions = nil
}

// Len returns the number of indexed items.
func (g *Grid) Len() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}

// Query returns every item whose distance to p is strictly less than radius,
// sorted by distance ascending (ties by index).
func (g *Grid) Query(p math32.Vector3, radius float32) []types.Hit {
	if radius <= 0 || len(g.cells) == 0 || math32.IsNaN(radius) {
		return nil
	}
	// Cell bounds of the query box, kept as floats (rounded the same way as
	// KeyOf) so huge or infinite radii never overflow an int.
	var lo, hi [3]float64
	for a, c := range [3]float32{p.X, p.Y, p.Z} {
		lo[a] = float64(math32.Floor((c - radius) / CellSize))
		hi[a] = float64(math32.Floor((c + radius) / CellSize))
	}

	var hits []types.Hit
	visit := func(idxs []int) {
		for _, idx := range idxs {
			d := g.positions[idx].DistanceTo(p)
			if d < radius {
				hits = append(hits, types.Hit{Index: idx, Distance: d})
			}
		}
	}

	// A box wider than the populated area would visit mostly empty cells;
	// walking the occupied cells instead is equivalent and cheaper. The span
	// is +Inf for unbounded boxes.
	span := (hi[0] - lo[0] + 1) * (hi[1] - lo[1] + 1) * (hi[2] - lo[2] + 1)
	if !(span <= float64(len(g.cells))) || !representable(lo) || !representable(hi) {
		for k, idxs := range g.cells {
			if inBox(k, lo, hi) {
				visit(idxs)
			}
		}
	} else {
		for x := int(lo[0]); x <= int(hi[0]); x++ {
			for y := int(lo[1]); y <= int(hi[1]); y++ {
				for z := int(lo[2]); z <= int(hi[2]); z++ {
					visit(g.cells[CellKey{x, y, z}])
				}
			}
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Index < hits[j].Index
	})
	return hits
}

// maxCellCoord bounds cell coordinates that convert to int exactly.
const maxCellCoord = 1 << 53

func representable(c [3]float64) bool {
	for _, v := range c {
		if !(math.Abs(v) <= maxCellCoord) {
			return false
		}
	}
	return true
}

func inBox(k CellKey, lo, hi [3]float64) bool {
	x, y, z := float64(k.X), float64(k.Y), float64(k.Z)
	return x >= lo[0] && x <= hi[0] && y >= lo[1] && y <= hi[1] && z >= lo[2] && z <= hi[2]
}
