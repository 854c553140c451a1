// Package selection fuses camera proximity, manual clicks and
// high-dimensional neighbor similarity into one per-label weight map, and
// classifies selected items for highlighting.
//
// A Selector is bound to one projection generation at a time (Bind). Every
// query made before the first Bind, or against an empty item set, returns an
// empty result.
package selection

import (
	"log/slog"

	"cogentcore.org/core/math32"

	"github.com/sanonone/kektorspace/pkg/core/projection"
	"github.com/sanonone/kektorspace/pkg/core/spatial"
	"github.com/sanonone/kektorspace/pkg/core/types"
)

// Config holds the runtime-tunable selection parameters.
type Config struct {
	// ClickRadius is the world-space distance from the search ray within
	// which items join a manual selection.
	ClickRadius float32
	// ProximityRadius is the world-space distance from the viewpoint within
	// which items join the proximity selection.
	ProximityRadius float32
	// NeighborRadius is the maximum cosine distance, in [0,2], for derived
	// neighbors.
	NeighborRadius float64
	// IncludeNeighbors enables high-dimensional neighbor search for manual
	// selections.
	IncludeNeighbors bool
}

// DefaultConfig returns the standard selection parameters.
func DefaultConfig() Config {
	return Config{
		ClickRadius:      1.0,
		ProximityRadius:  8.0,
		NeighborRadius:   0.25,
		IncludeNeighbors: true,
	}
}

// Selector owns the selection state of one visualization.
type Selector struct {
	cfg    Config
	picker Picker

	items []types.Item
	grid  *spatial.Grid

	proximity *Source
	manual    *Manual

	styles      []Style
	highlighted []int
}

// New returns a selector with no item set bound. A nil picker defaults to a
// BoxPicker with unit-sized markers.
func New(cfg Config, picker Picker) *Selector {
	if picker == nil {
		picker = BoxPicker{Size: 1}
	}
	return &Selector{cfg: cfg, picker: picker}
}

// Config returns the current parameters.
func (s *Selector) Config() Config { return s.cfg }

// SetConfig replaces the parameters. Radii take effect on the next query;
// neighbor parameters take effect on RecalculateNeighbors.
func (s *Selector) SetConfig(cfg Config) { s.cfg = cfg }

// Bind attaches a freshly projected item set and its spatial index, dropping
// all selection and highlight state of the previous generation.
func (s *Selector) Bind(items []types.Item, grid *spatial.Grid) {
	s.items = items
	s.grid = grid
	s.proximity = nil
	s.manual = nil
	s.styles = make([]Style, len(items))
	s.highlighted = nil
}

// Items returns the bound arena.
func (s *Selector) Items() []types.Item { return s.items }

// Proximity returns the current proximity selection, or nil.
func (s *Selector) Proximity() *Source { return s.proximity }

// Manual returns the current manual selection, or nil.
func (s *Selector) Manual() *Manual { return s.manual }

// UpdateProximity recomputes the proximity selection from scratch around pos.
func (s *Selector) UpdateProximity(pos math32.Vector3) {
	src := &Source{Weights: make(map[string]float32)}
	if s.grid != nil && len(s.items) > 0 {
		for _, h := range s.grid.Query(pos, s.cfg.ProximityRadius) {
			src.Primary = append(src.Primary, h.Index)
			src.Weights[s.items[h.Index].Label] = Falloff(h.Distance, s.cfg.ProximityRadius)
		}
	}
	s.proximity = src
}

// SelectByClick resolves a click. If ray hits an item directly, the search
// ray runs from origin through that item; otherwise ray itself is the search
// ray. Items within ClickRadius of the search ray become the manual
// selection. When none qualify the manual selection is cleared.
func (s *Selector) SelectByClick(ray math32.Ray, origin math32.Vector3) {
	if len(s.items) == 0 {
		s.manual = nil
		return
	}

	clicked := -1
	search := ray
	if idx, ok := s.picker.Pick(ray, s.items); ok {
		clicked = idx
		search = math32.Ray{Origin: origin, Dir: s.items[idx].Position.Sub(origin)}
		if search.Dir.Length() == 0 {
			search.Dir = ray.Dir
		}
	}
	search, ok := normalizeRay(search)
	if !ok {
		s.manual = nil
		return
	}

	m := &Manual{
		Source:  Source{Weights: make(map[string]float32)},
		Clicked: clicked,
	}
	for _, it := range s.items {
		d := distanceToRay(search, it.Position)
		if it.Index == clicked {
			// The search ray passes through the clicked item by construction.
			d = 0
		} else if d >= s.cfg.ClickRadius {
			continue
		}
		m.Primary = append(m.Primary, it.Index)
		m.Vectors = append(m.Vectors, it.Vector)
		m.Weights[it.Label] = Falloff(d, s.cfg.ClickRadius)
	}

	if len(m.Primary) == 0 {
		slog.Debug("[Selection] Click selected nothing, clearing manual selection")
		s.manual = nil
		return
	}
	m.Neighbors = s.neighborsFor(m.Vectors)
	s.manual = m
	slog.Debug("[Selection] Manual selection", "primary", len(m.Primary), "clicked", clicked, "neighbors", len(m.Neighbors))
}

// RecalculateNeighbors refreshes the derived neighbor map of the current
// manual selection after a neighbor parameter change.
func (s *Selector) RecalculateNeighbors() {
	if s.manual == nil {
		return
	}
	s.manual.Neighbors = s.neighborsFor(s.manual.Vectors)
}

func (s *Selector) neighborsFor(primary [][]float32) map[int]float64 {
	if !s.cfg.IncludeNeighbors {
		return map[int]float64{}
	}
	all := make([][]float32, len(s.items))
	for i, it := range s.items {
		all[i] = it.Vector
	}
	return projection.FindNeighbors(primary, all, s.cfg.NeighborRadius)
}

// CombinedWeights returns, per label, the maximum of the proximity, manual and
// neighbor weights. Neighbor weights only fill labels that no primary set
// mentions; a label that no source mentions is absent.
func (s *Selector) CombinedWeights() map[string]float32 {
	out := make(map[string]float32)
	if s.proximity != nil {
		for l, w := range s.proximity.Weights {
			out[l] = w
		}
	}
	if s.manual != nil {
		for l, w := range s.manual.Weights {
			if prev, ok := out[l]; !ok || w > prev {
				out[l] = w
			}
		}
		if s.cfg.IncludeNeighbors {
			for idx, d := range s.manual.Neighbors {
				if idx < 0 || idx >= len(s.items) {
					continue
				}
				l := s.items[idx].Label
				// Key presence, not magnitude, blocks the fill.
				if _, ok := out[l]; ok {
					continue
				}
				out[l] = neighborWeight(d, s.cfg.NeighborRadius)
			}
		}
	}
	return out
}
