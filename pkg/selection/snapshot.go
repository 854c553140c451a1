package selection

import (
	"log/slog"

	"cogentcore.org/core/math32"
)

// Snapshot is a manual selection expressed by labels only, so it survives the
// destruction of the item set it was taken from.
type Snapshot struct {
	Primary []string           `json:"primary"`
	Clicked string             `json:"clicked,omitempty"`
	Weights map[string]float32 `json:"weights"`
}

// Preserve captures the manual selection, or returns nil when there is none.
func (s *Selector) Preserve() *Snapshot {
	m := s.manual
	if m == nil {
		return nil
	}
	snap := &Snapshot{
		Primary: make([]string, 0, len(m.Primary)),
		Weights: make(map[string]float32, len(m.Weights)),
	}
	for _, idx := range m.Primary {
		snap.Primary = append(snap.Primary, s.items[idx].Label)
	}
	for l, w := range m.Weights {
		snap.Weights[l] = w
	}
	if m.Clicked >= 0 {
		snap.Clicked = s.items[m.Clicked].Label
	}
	return snap
}

// Restore rebuilds the manual selection from snap against the bound item set,
// matching by label. Labels missing from the current set, or without a
// usable weight in snap, are dropped; if none remain the manual selection is
// cleared. Weights are clamped to [0,1]. It returns the number of restored
// primary items.
func (s *Selector) Restore(snap *Snapshot) int {
	s.manual = nil
	if snap == nil || len(s.items) == 0 {
		return 0
	}

	byLabel := make(map[string]int, len(s.items))
	for _, it := range s.items {
		byLabel[it.Label] = it.Index
	}

	m := &Manual{
		Source:  Source{Weights: make(map[string]float32)},
		Clicked: -1,
	}
	for _, l := range snap.Primary {
		idx, ok := byLabel[l]
		if !ok {
			continue
		}
		if _, dup := m.Weights[l]; dup {
			continue
		}
		w, ok := snap.Weights[l]
		if !ok || math32.IsNaN(w) {
			slog.Warn("[Selection] Restore skipped label without weight", "label", l)
			continue
		}
		m.Primary = append(m.Primary, idx)
		m.Vectors = append(m.Vectors, s.items[idx].Vector)
		m.Weights[l] = math32.Clamp(w, 0, 1)
		if l == snap.Clicked {
			m.Clicked = idx
		}
	}

	if dropped := len(snap.Primary) - len(m.Primary); dropped > 0 {
		slog.Debug("[Selection] Restore dropped labels absent from the new projection", "dropped", dropped)
	}
	if len(m.Primary) == 0 {
		return 0
	}
	m.Neighbors = s.neighborsFor(m.Vectors)
	s.manual = m
	return len(m.Primary)
}
