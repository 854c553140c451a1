package selection

import (
	"image/color"
)

// Kind is the highlight classification of an item.
type Kind uint8

const (
	KindNone Kind = iota
	KindProximity
	KindSelected
	KindClicked
	KindNeighbor
)

func (k Kind) String() string {
	switch k {
	case KindProximity:
		return "proximity"
	case KindSelected:
		return "selected"
	case KindClicked:
		return "clicked"
	case KindNeighbor:
		return "neighbor"
	}
	return "none"
}

// neighborDim scales the intensity of pure neighbor highlights.
const neighborDim = 0.5

// Style is the marker styling of one item.
type Style struct {
	Kind      Kind
	Intensity float32
}

// Palette maps each kind to its full-intensity color. KindNone is the
// neutral default every highlight blends from.
type Palette map[Kind]color.RGBA

// DefaultPalette returns the standard marker colors.
func DefaultPalette() Palette {
	return Palette{
		KindNone:      {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
		KindProximity: {R: 0x33, G: 0x99, B: 0xff, A: 0xff},
		KindSelected:  {R: 0xff, G: 0xaa, B: 0x00, A: 0xff},
		KindClicked:   {R: 0xff, G: 0x33, B: 0x33, A: 0xff},
		KindNeighbor:  {R: 0x99, G: 0x66, B: 0xcc, A: 0xff},
	}
}

// Color blends from the palette's default color toward the kind's color by
// the style's intensity.
func (s Style) Color(p Palette) color.RGBA {
	base := p[KindNone]
	if s.Kind == KindNone {
		return base
	}
	target := p[s.Kind]
	t := s.Intensity
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	lerp := func(a, b uint8) uint8 {
		return uint8(float32(a) + (float32(b)-float32(a))*t + 0.5)
	}
	return color.RGBA{
		R: lerp(base.R, target.R),
		G: lerp(base.G, target.G),
		B: lerp(base.B, target.B),
		A: lerp(base.A, target.A),
	}
}

// Styled pairs an arena index with its style.
type Styled struct {
	Index int
	Style Style
}

// ResetHighlights returns every previously highlighted item to the default
// style and empties the highlighted list.
func (s *Selector) ResetHighlights() {
	for _, idx := range s.highlighted {
		if idx >= 0 && idx < len(s.styles) {
			s.styles[idx] = Style{}
		}
	}
	s.highlighted = s.highlighted[:0]
}

// HighlightSelection resets all highlights and classifies every item that is
// primary in either source or a derived neighbor. One classification applies
// per item:
//
//   - in both sources, proximity stronger: proximity, by proximity weight
//   - in both sources, manual stronger or equal: clicked or selected, by
//     manual weight
//   - manual only: clicked or selected
//   - proximity only: proximity
//   - neighbor only: neighbor, dimmed, while neighbors are included
//
// The returned slice is ordered by arena index.
func (s *Selector) HighlightSelection() []Styled {
	s.ResetHighlights()
	if len(s.items) == 0 {
		return nil
	}

	prox := map[int]float32{}
	if s.proximity != nil {
		for _, idx := range s.proximity.Primary {
			prox[idx] = s.proximity.Weights[s.items[idx].Label]
		}
	}
	man := map[int]float32{}
	clicked := -1
	if s.manual != nil {
		clicked = s.manual.Clicked
		for _, idx := range s.manual.Primary {
			man[idx] = s.manual.Weights[s.items[idx].Label]
		}
	}

	manualKind := func(idx int) Kind {
		if idx == clicked {
			return KindClicked
		}
		return KindSelected
	}

	var out []Styled
	for idx := range s.items {
		pw, inProx := prox[idx]
		mw, inMan := man[idx]
		var st Style
		switch {
		case inProx && inMan:
			if pw > mw {
				st = Style{Kind: KindProximity, Intensity: pw}
			} else {
				st = Style{Kind: manualKind(idx), Intensity: mw}
			}
		case inMan:
			st = Style{Kind: manualKind(idx), Intensity: mw}
		case inProx:
			st = Style{Kind: KindProximity, Intensity: pw}
		default:
			if s.manual == nil || !s.cfg.IncludeNeighbors {
				continue
			}
			d, ok := s.manual.Neighbors[idx]
			if !ok {
				continue
			}
			st = Style{Kind: KindNeighbor, Intensity: neighborWeight(d, s.cfg.NeighborRadius) * neighborDim}
		}
		s.styles[idx] = st
		s.highlighted = append(s.highlighted, idx)
		out = append(out, Styled{Index: idx, Style: st})
	}
	return out
}

// Highlighted returns a copy of the currently highlighted arena indices.
func (s *Selector) Highlighted() []int {
	return append([]int(nil), s.highlighted...)
}

// StyleOf returns the current style of item idx.
func (s *Selector) StyleOf(idx int) Style {
	if idx < 0 || idx >= len(s.styles) {
		return Style{}
	}
	return s.styles[idx]
}
