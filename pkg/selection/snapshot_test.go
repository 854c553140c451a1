package selection

import (
	"encoding/json"
	"math"
	"sort"
	"testing"

	"cogentcore.org/core/math32"

	"github.com/sanonone/kektorspace/pkg/core/spatial"
	"github.com/sanonone/kektorspace/pkg/core/types"
)

func TestPreserveRestoreRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClickRadius = 2
	cfg.IncludeNeighbors = false
	items := []types.Item{
		{Index: 0, Label: "jazz", Position: math32.Vec3(0, 0, 0), Vector: []float32{1, 0}},
		{Index: 1, Label: "rock", Position: math32.Vec3(1, 0, 0), Vector: []float32{0, 1}},
		{Index: 2, Label: "funk", Position: math32.Vec3(-1, 0, 0), Vector: []float32{1, 1}},
	}
	s := newBound(cfg, items)
	s.SelectByClick(downRay(0, 0, 10), math32.Vec3(0, 0, 10))
	snap := s.Preserve()
	if snap == nil || len(snap.Primary) != 3 || snap.Clicked != "jazz" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}

	// New generation: funk dropped, order and positions changed.
	next := []types.Item{
		{Index: 0, Label: "rock", Position: math32.Vec3(9, 9, 9), Vector: []float32{0, 1}},
		{Index: 1, Label: "soul", Position: math32.Vec3(8, 8, 8), Vector: []float32{1, 0}},
		{Index: 2, Label: "jazz", Position: math32.Vec3(7, 7, 7), Vector: []float32{1, 0}},
	}
	g := spatial.NewGrid()
	g.Build(next)
	s.Bind(next, g)
	if s.Manual() != nil {
		t.Fatal("Bind must drop the previous manual selection")
	}

	if n := s.Restore(&decoded); n != 2 {
		t.Fatalf("restored %d, want 2", n)
	}
	m := s.Manual()
	var labels []string
	for _, idx := range m.Primary {
		labels = append(labels, next[idx].Label)
	}
	sort.Strings(labels)
	if len(labels) != 2 || labels[0] != "jazz" || labels[1] != "rock" {
		t.Errorf("restored labels %v, want [jazz rock]", labels)
	}
	if m.Clicked != 2 {
		t.Errorf("clicked = %d, want 2 (jazz)", m.Clicked)
	}
	if !m.Has(m.Clicked) {
		t.Error("clicked not in primary")
	}
	if w := s.CombinedWeights(); w["jazz"] != 1 || w["rock"] != snap.Weights["rock"] {
		t.Errorf("weights not restored: %v", w)
	}
	if _, ok := s.CombinedWeights()["funk"]; ok {
		t.Error("dropped label resurfaced")
	}
}

func TestRestoreNothingMatches(t *testing.T) {
	s := newBound(DefaultConfig(), scenarioItems())
	if n := s.Restore(&Snapshot{Primary: []string{"opera"}, Clicked: "opera"}); n != 0 {
		t.Errorf("restored %d, want 0", n)
	}
	if s.Manual() != nil {
		t.Error("manual selection should be nil")
	}
	if n := s.Restore(nil); n != 0 || s.Manual() != nil {
		t.Error("nil snapshot should clear")
	}
}

func TestRestoreClickedDropped(t *testing.T) {
	s := newBound(DefaultConfig(), scenarioItems())
	n := s.Restore(&Snapshot{Primary: []string{"opera", "rock"}, Clicked: "opera", Weights: map[string]float32{"rock": 0.4}})
	if n != 1 {
		t.Fatalf("restored %d, want 1", n)
	}
	if s.Manual().Clicked != -1 {
		t.Errorf("clicked = %d, want -1", s.Manual().Clicked)
	}
}

func TestRestoreSanitizesWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeNeighbors = false
	s := newBound(cfg, scenarioItems())

	n := s.Restore(&Snapshot{
		Primary: []string{"rock", "jazz"},
		Weights: map[string]float32{"rock": 5, "jazz": -2},
	})
	if n != 2 {
		t.Fatalf("restored %d, want 2", n)
	}
	w := s.CombinedWeights()
	if w["rock"] != 1 || w["jazz"] != 0 {
		t.Errorf("weights not clamped to [0,1]: %v", w)
	}

	t.Run("MissingWeight", func(t *testing.T) {
		n := s.Restore(&Snapshot{
			Primary: []string{"rock", "jazz"},
			Weights: map[string]float32{"rock": 0.3, "jazz": float32(math.NaN())},
		})
		if n != 1 {
			t.Fatalf("restored %d, want 1", n)
		}
		if _, ok := s.CombinedWeights()["jazz"]; ok {
			t.Error("label without a usable weight should be dropped")
		}
	})
}
