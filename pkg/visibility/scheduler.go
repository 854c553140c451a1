// Package visibility decides which text labels are shown on a frame.
//
// Non-highlighted items must lie inside the camera frustum and inside a
// forward cone anchored at the viewpoint, and must not be occluded; the
// nearest MaxInView of them (by camera distance) are shown. Highlighted items
// skip the frustum and cone tests and the budget but are still hidden when
// occluded. Each run is applied to the previous run as a full diff.
package visibility

import (
	"cogentcore.org/core/math32"
	"github.com/tidwall/btree"
)

// Frustum is the camera view volume, supplied by the renderer.
type Frustum interface {
	ContainsPoint(point math32.Vector3) bool
}

// Occluder blocks labels behind it. Occlusion returns the distance from
// ray.Origin to the first intersection along ray, if any.
type Occluder interface {
	Occlusion(ray math32.Ray) (float32, bool)
}

// BoxOccluder is an axis-aligned box occluder.
type BoxOccluder math32.Box3

// Occlusion implements Occluder.
func (b BoxOccluder) Occlusion(ray math32.Ray) (float32, bool) {
	pt, ok := ray.IntersectBox(math32.Box3(b))
	if !ok {
		return 0, false
	}
	return pt.DistanceTo(ray.Origin), true
}

// Cone is the forward viewing cone. An item at projected distance t along the
// heading is inside when 0 < t <= MaxDistance and its distance from the
// heading axis is at most BaseRadius + Slope*t.
type Cone struct {
	MaxDistance float32 `yaml:"max_distance"`
	BaseRadius  float32 `yaml:"base_radius"`
	Slope       float32 `yaml:"slope"`
}

// Contains reports whether p lies in the cone anchored at origin along the
// unit vector heading.
func (c Cone) Contains(origin, heading, p math32.Vector3) bool {
	v := p.Sub(origin)
	t := v.Dot(heading)
	if t <= 0 || t > c.MaxDistance {
		return false
	}
	radial := v.Sub(heading.MulScalar(t)).Length()
	return radial <= c.BaseRadius+c.Slope*t
}

// Config holds the scheduler parameters.
type Config struct {
	MaxInView int
	Cone      Cone
	// Epsilon is the slack below the item distance an occluder hit must
	// clear, so an item's own surface never hides its label.
	Epsilon float32
}

// DefaultConfig returns the standard scheduler parameters.
func DefaultConfig() Config {
	return Config{
		MaxInView: 40,
		Cone:      Cone{MaxDistance: 120, BaseRadius: 2, Slope: 0.5},
		Epsilon:   0.05,
	}
}

// Frame is the per-run input.
type Frame struct {
	Positions []math32.Vector3
	// Camera is the eye position used for frustum, occlusion and ranking.
	Camera math32.Vector3
	// Viewpoint and Heading anchor the forward cone (the pilot's pose, which
	// may differ from the camera).
	Viewpoint math32.Vector3
	Heading   math32.Vector3
	Frustum   Frustum
	Occluders []Occluder
	// Highlighted items bypass the frustum, cone and budget.
	Highlighted []int
}

// Diff is the visibility change produced by one run.
type Diff struct {
	Shown  []int
	Hidden []int
}

// Empty reports whether the run changed nothing.
func (d Diff) Empty() bool {
	return len(d.Shown) == 0 && len(d.Hidden) == 0
}

// Scheduler holds the visible set between runs.
type Scheduler struct {
	cfg     Config
	visible *bitSet
	shown   []int
}

// NewScheduler returns a scheduler with nothing visible.
func NewScheduler(cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg, visible: newBitSet(0)}
}

// Config returns the scheduler parameters.
func (s *Scheduler) Config() Config { return s.cfg }

// SetConfig replaces the parameters; they apply from the next run.
func (s *Scheduler) SetConfig(cfg Config) { s.cfg = cfg }

// Visible returns the visible arena indices in ascending order.
func (s *Scheduler) Visible() []int {
	return append([]int(nil), s.shown...)
}

// IsVisible reports whether item idx is currently visible.
func (s *Scheduler) IsVisible(idx int) bool { return s.visible.has(idx) }

// Reset forgets the visible set without producing a diff. Used when the item
// set is replaced, since old indices no longer name the same items.
func (s *Scheduler) Reset() {
	s.visible = newBitSet(0)
	s.shown = nil
}

type ranked struct {
	dist float32
	idx  int
}

func rankedLess(a, b ranked) bool {
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.idx < b.idx
}

// Run computes the new visible set for f and returns the diff against the
// previous run.
func (s *Scheduler) Run(f Frame) Diff {
	n := len(f.Positions)
	next := newBitSet(n)

	highlighted := newBitSet(n)
	for _, idx := range f.Highlighted {
		if idx < 0 || idx >= n {
			continue
		}
		highlighted.add(idx)
		if !s.occluded(f, f.Positions[idx]) {
			next.add(idx)
		}
	}

	heading := f.Heading
	if l := heading.Length(); l > 0 {
		heading = heading.MulScalar(1 / l)
	}

	// Bounded ordered set of the nearest candidates; the farthest is evicted
	// once the budget is exceeded.
	nearest := btree.NewBTreeG[ranked](rankedLess)
	if s.cfg.MaxInView > 0 {
		for idx, p := range f.Positions {
			if highlighted.has(idx) {
				continue
			}
			if f.Frustum != nil && !f.Frustum.ContainsPoint(p) {
				continue
			}
			if !s.cfg.Cone.Contains(f.Viewpoint, heading, p) {
				continue
			}
			d := p.DistanceTo(f.Camera)
			if nearest.Len() >= s.cfg.MaxInView {
				if far, ok := nearest.Max(); ok && !rankedLess(ranked{d, idx}, far) {
					continue
				}
			}
			if s.occluded(f, p) {
				continue
			}
			nearest.Set(ranked{d, idx})
			if nearest.Len() > s.cfg.MaxInView {
				nearest.PopMax()
			}
		}
	}
	nearest.Scan(func(r ranked) bool {
		next.add(r.idx)
		return true
	})

	var diff Diff
	for _, idx := range s.shown {
		if !next.has(idx) {
			diff.Hidden = append(diff.Hidden, idx)
		}
	}
	shown := make([]int, 0, len(s.shown))
	for idx := 0; idx < n; idx++ {
		if !next.has(idx) {
			continue
		}
		shown = append(shown, idx)
		if !s.visible.has(idx) {
			diff.Shown = append(diff.Shown, idx)
		}
	}

	s.visible = next
	s.shown = shown
	return diff
}

// occluded casts a ray from the camera to p and reports whether any occluder
// is hit more than Epsilon before p.
func (s *Scheduler) occluded(f Frame, p math32.Vector3) bool {
	if len(f.Occluders) == 0 {
		return false
	}
	dir := p.Sub(f.Camera)
	dist := dir.Length()
	if dist == 0 {
		return false
	}
	ray := math32.Ray{Origin: f.Camera, Dir: dir.MulScalar(1 / dist)}
	for _, o := range f.Occluders {
		if hit, ok := o.Occlusion(ray); ok && hit < dist-s.cfg.Epsilon {
			return true
		}
	}
	return false
}
