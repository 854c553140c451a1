package projection

import (
	"fmt"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

// clusteredPool builds two well-separated groups of vectors.
func clusteredPool(n, dims int, seed int64) []Entry {
	rng := rand.New(rand.NewSource(seed))
	pool := make([]Entry, n)
	for i := range pool {
		v := make([]float32, dims)
		for j := range v {
			v[j] = float32(rng.NormFloat64() * 0.05)
		}
		if i%2 == 0 {
			v[0] += 1
		} else {
			v[1] += 1
		}
		pool[i] = Entry{Label: fmt.Sprintf("item_%03d", i), Vector: v}
	}
	return pool
}

func TestProjectCountsAndScale(t *testing.T) {
	pool := clusteredPool(40, 8, 1)
	params := DefaultParams()
	params.Seed = 11
	params.Epochs = 50

	res := Project(Request{Pool: pool, PointCount: 25, Params: params})
	if len(res.Items) != 25 || len(res.Labels) != 25 {
		t.Fatalf("got %d items / %d labels, want 25", len(res.Items), len(res.Labels))
	}
	for i, it := range res.Items {
		if it.Index != i {
			t.Errorf("item %d has index %d", i, it.Index)
		}
		if it.Label != res.Labels[i] {
			t.Errorf("item %d label %q != %q", i, it.Label, res.Labels[i])
		}
		for _, c := range []float32{it.Position.X, it.Position.Y, it.Position.Z} {
			if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
				t.Fatalf("item %d has non-finite position %v", i, it.Position)
			}
		}
	}
}

func TestProjectDeterministic(t *testing.T) {
	pool := clusteredPool(30, 6, 2)
	for _, m := range []Method{UMAP, PCA} {
		params := DefaultParams()
		params.Method = m
		params.Seed = 5
		params.Epochs = 30
		a := Project(Request{Pool: pool, PointCount: 20, Params: params})
		b := Project(Request{Pool: pool, PointCount: 20, Params: params})
		if !reflect.DeepEqual(a.Labels, b.Labels) {
			t.Fatalf("%s: labels differ", m)
		}
		for i := range a.Items {
			if a.Items[i].Position != b.Items[i].Position {
				t.Fatalf("%s: item %d moved: %v vs %v", m, i, a.Items[i].Position, b.Items[i].Position)
			}
		}
	}
}

func TestProjectReusesPrevious(t *testing.T) {
	pool := clusteredPool(30, 6, 3)
	params := DefaultParams()
	params.Method = PCA
	first := Project(Request{Pool: pool, PointCount: 10, Params: params})

	params.Seed = 999
	second := Project(Request{Pool: pool, PointCount: 10, Previous: first.Labels, Params: params})
	if !reflect.DeepEqual(first.Labels, second.Labels) {
		t.Errorf("re-render changed labels: %v vs %v", first.Labels, second.Labels)
	}
}

func TestProjectPCASeparatesClusters(t *testing.T) {
	pool := clusteredPool(40, 8, 4)
	params := DefaultParams()
	params.Method = PCA
	res := Project(Request{Pool: pool, PointCount: 40, Params: params})

	var intra, inter float64
	var nIntra, nInter int
	for i := range res.Items {
		for j := i + 1; j < len(res.Items); j++ {
			d := float64(res.Items[i].Position.DistanceTo(res.Items[j].Position))
			same := (labelNum(res.Items[i].Label) % 2) == (labelNum(res.Items[j].Label) % 2)
			if same {
				intra += d
				nIntra++
			} else {
				inter += d
				nInter++
			}
		}
	}
	if intra/float64(nIntra) >= inter/float64(nInter) {
		t.Errorf("clusters not separated: intra %.3f, inter %.3f", intra/float64(nIntra), inter/float64(nInter))
	}
}

func labelNum(l string) int {
	var n int
	fmt.Sscanf(l, "item_%d", &n)
	return n
}

func TestProjectRandomizeEmbeddings(t *testing.T) {
	pool := clusteredPool(10, 4, 5)
	params := DefaultParams()
	params.Method = PCA
	params.Seed = 1
	res := Project(Request{Pool: pool, PointCount: 10, Params: params, RandomizeEmbeddings: true})

	byLabel := map[string][]float32{}
	for _, e := range pool {
		byLabel[e.Label] = e.Vector
	}
	for _, it := range res.Items {
		if len(it.Vector) != 4 {
			t.Fatalf("random vector has %d dims, want 4", len(it.Vector))
		}
		if reflect.DeepEqual(it.Vector, byLabel[it.Label]) {
			t.Errorf("item %s kept its real vector", it.Label)
		}
		for _, v := range it.Vector {
			if v < -1 || v >= 1 {
				t.Fatalf("random component %v outside [-1,1)", v)
			}
		}
	}
}

func TestProjectDegenerate(t *testing.T) {
	if res := Project(Request{PointCount: 5, Params: DefaultParams()}); len(res.Items) != 0 {
		t.Errorf("empty pool gave %d items", len(res.Items))
	}

	// Two-dimensional vectors fall back to their raw components.
	pool := []Entry{{"a", []float32{1, 2}}, {"b", []float32{3, 4}}}
	res := Project(Request{Pool: pool, PointCount: 2, Params: DefaultParams()})
	if len(res.Items) != 2 {
		t.Fatalf("got %d items", len(res.Items))
	}
	for _, it := range res.Items {
		want := pool[0].Vector
		if it.Label == "b" {
			want = pool[1].Vector
		}
		if it.Position.X != want[0]*WorldScale || it.Position.Y != want[1]*WorldScale || it.Position.Z != 0 {
			t.Errorf("%s at %v, want scaled %v", it.Label, it.Position, want)
		}
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	bad := DefaultParams()
	bad.NNeighbors = 1
	if bad.Validate() == nil {
		t.Error("expected error for n_neighbors=1")
	}
	bad = DefaultParams()
	bad.Method = "tsne"
	if bad.Validate() == nil {
		t.Error("expected error for unknown method")
	}
	bad = DefaultParams()
	bad.MinDist = 5
	if bad.Validate() == nil {
		t.Error("expected error for min_dist > spread")
	}
}
