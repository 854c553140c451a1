package selection

import (
	"cogentcore.org/core/math32"
)

// Source is one selection signal: a set of primary items and a weight per
// label in [0,1].
type Source struct {
	Primary []int
	Weights map[string]float32
}

// Has reports whether idx is a primary item of the source.
func (s *Source) Has(idx int) bool {
	if s == nil {
		return false
	}
	for _, p := range s.Primary {
		if p == idx {
			return true
		}
	}
	return false
}

// Manual is the click-driven selection. Clicked is the directly hit item, or
// -1 when the click ray hit empty space. Vectors holds the primary items'
// embeddings in Primary order so neighbors can be recomputed without the
// arena; Neighbors maps candidate index to its minimum cosine distance.
type Manual struct {
	Source
	Clicked   int
	Vectors   [][]float32
	Neighbors map[int]float64
}

// Falloff is the linear weight of an item at distance d from a query point or
// ray: 1 at the query, 0 at the radius boundary and beyond.
func Falloff(d, radius float32) float32 {
	if radius <= 0 || math32.IsNaN(d) {
		return 0
	}
	return math32.Clamp(1-math32.Min(d, radius)/radius, 0, 1)
}

// neighborWeight applies the same falloff in cosine-distance units.
func neighborWeight(d, radius float64) float32 {
	if radius <= 0 {
		if d <= 0 {
			return 1
		}
		return 0
	}
	return Falloff(float32(d), float32(radius))
}

// normalizeRay returns ray with a unit direction, or false for a zero direction.
func normalizeRay(ray math32.Ray) (math32.Ray, bool) {
	l := ray.Dir.Length()
	if l == 0 || math32.IsNaN(l) {
		return ray, false
	}
	ray.Dir = ray.Dir.MulScalar(1 / l)
	return ray, true
}

// distanceToRay returns the distance from p to the half-line ray (unit
// direction). Points behind the origin measure to the origin.
func distanceToRay(ray math32.Ray, p math32.Vector3) float32 {
	v := p.Sub(ray.Origin)
	t := v.Dot(ray.Dir)
	if t <= 0 {
		return v.Length()
	}
	return ray.Origin.Add(ray.Dir.MulScalar(t)).DistanceTo(p)
}
