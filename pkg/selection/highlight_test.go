package selection

import (
	"testing"

	"cogentcore.org/core/math32"
)

func TestHighlightClassification(t *testing.T) {
	items := neighborItems()
	items[1].Position = math32.Vec3(3, 0, 0)
	cfg := DefaultConfig()
	cfg.ClickRadius = 1
	cfg.ProximityRadius = 4
	cfg.NeighborRadius = 0.5
	cfg.IncludeNeighbors = true
	s := newBound(cfg, items)

	s.UpdateProximity(math32.Vec3(2, 0, 0))
	s.SelectByClick(downRay(0, 0, 10), math32.Vec3(0, 0, 10))
	got := map[int]Style{}
	for _, st := range s.HighlightSelection() {
		got[st.Index] = st.Style
	}

	// jazz: manual 1 vs proximity 0.5 -> clicked.
	if got[0].Kind != KindClicked || got[0].Intensity != 1 {
		t.Errorf("jazz = %+v, want clicked at 1", got[0])
	}
	// bebop: proximity only (its neighbor status does not matter).
	if got[1].Kind != KindProximity || !approx(got[1].Intensity, 0.75) {
		t.Errorf("bebop = %+v, want proximity at 0.75", got[1])
	}
	// swing: pure neighbor, dimmed.
	if got[3].Kind != KindNeighbor || got[3].Intensity <= 0 || got[3].Intensity > neighborDim {
		t.Errorf("swing = %+v, want dimmed neighbor", got[3])
	}
	if _, ok := got[2]; ok {
		t.Errorf("metal should not be highlighted")
	}
	if s.StyleOf(3).Kind != KindNeighbor {
		t.Errorf("style array not updated")
	}
}

func TestHighlightProximityStronger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClickRadius = 4
	cfg.ProximityRadius = 4
	cfg.IncludeNeighbors = false
	s := newBound(cfg, scenarioItems())

	s.UpdateProximity(math32.Vec3(3, 0, 0)) // rock at the viewpoint: 1.0
	s.SelectByClick(downRay(0, 0, 10), math32.Vec3(0, 0, 10))
	// Manual: jazz clicked (1.0), rock at 3 from the ray (0.25).
	for _, st := range s.HighlightSelection() {
		if st.Index == 1 && (st.Style.Kind != KindProximity || st.Style.Intensity != 1) {
			t.Errorf("rock = %+v, want proximity at 1", st.Style)
		}
	}
}

func TestHighlightTieFavorsManual(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClickRadius = 1
	cfg.ProximityRadius = 4
	cfg.IncludeNeighbors = false
	s := newBound(cfg, scenarioItems())

	s.UpdateProximity(math32.Vec3(3, 0, 0)) // rock proximity 1.0
	s.SelectByClick(downRay(3, 0, 10), math32.Vec3(3, 0, 10))
	for _, st := range s.HighlightSelection() {
		if st.Index == 1 && st.Style.Kind != KindClicked {
			t.Errorf("tie resolved to %v, want clicked", st.Style.Kind)
		}
	}
}

func TestResetHighlightsIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProximityRadius = 4
	s := newBound(cfg, scenarioItems())
	s.UpdateProximity(math32.Vec3(0, 0, 0))
	if len(s.HighlightSelection()) != 2 {
		t.Fatalf("expected both items highlighted")
	}

	s.ResetHighlights()
	s.ResetHighlights()
	if len(s.Highlighted()) != 0 {
		t.Errorf("highlighted = %v, want empty", s.Highlighted())
	}
	for i := range s.Items() {
		if s.StyleOf(i) != (Style{}) {
			t.Errorf("item %d not reset: %+v", i, s.StyleOf(i))
		}
	}
}

func TestHighlightDropsStale(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ProximityRadius = 2
	s := newBound(cfg, scenarioItems())

	s.UpdateProximity(math32.Vec3(3, 0, 0))
	s.HighlightSelection()
	if s.StyleOf(1).Kind != KindProximity {
		t.Fatalf("rock not highlighted")
	}
	s.UpdateProximity(math32.Vec3(0, 0, 0))
	s.HighlightSelection()
	if s.StyleOf(1).Kind != KindNone {
		t.Errorf("stale highlight on rock: %+v", s.StyleOf(1))
	}
	if s.StyleOf(0).Kind != KindProximity {
		t.Errorf("jazz not highlighted: %+v", s.StyleOf(0))
	}
}

func TestStyleColor(t *testing.T) {
	p := DefaultPalette()
	if c := (Style{}).Color(p); c != p[KindNone] {
		t.Errorf("none = %v, want default", c)
	}
	if c := (Style{Kind: KindClicked, Intensity: 1}).Color(p); c != p[KindClicked] {
		t.Errorf("full clicked = %v, want %v", c, p[KindClicked])
	}
	if c := (Style{Kind: KindClicked, Intensity: 0}).Color(p); c != p[KindNone] {
		t.Errorf("zero intensity = %v, want default", c)
	}
	if KindNeighbor.String() != "neighbor" {
		t.Errorf("String() = %q", KindNeighbor.String())
	}
}

func TestHighlightNeighborsFollowToggle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClickRadius = 1
	cfg.NeighborRadius = 0.5
	cfg.IncludeNeighbors = true
	s := newBound(cfg, neighborItems())
	s.SelectByClick(downRay(0, 0, 10), math32.Vec3(0, 0, 10))
	if s.StyleOf(1).Kind != KindNone {
		t.Fatal("styles should start neutral")
	}
	s.HighlightSelection()
	if s.StyleOf(1).Kind != KindNeighbor {
		t.Fatalf("bebop = %+v, want neighbor", s.StyleOf(1))
	}

	// Switched off without recalculating: styles and weights must agree.
	cfg.IncludeNeighbors = false
	s.SetConfig(cfg)
	weights := s.CombinedWeights()
	for _, st := range s.HighlightSelection() {
		if st.Style.Kind == KindNeighbor {
			t.Errorf("item %d styled as neighbor while neighbors are off", st.Index)
		}
		if _, ok := weights[s.Items()[st.Index].Label]; !ok {
			t.Errorf("item %d highlighted without a weight", st.Index)
		}
	}
}
