// Package projection reduces high-dimensional embeddings to 3D world
// coordinates and answers cosine-distance neighbor queries in the original
// space.
//
// A projection build takes a pool of (label, vector) entries, chooses which
// labels to display (see SelectLabels), optionally substitutes random vectors,
// and runs UMAP or PCA to produce one Item per chosen label. All randomness is
// drawn from a single generator seeded by Params.Seed, so a build is fully
// reproducible.
package projection

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"cogentcore.org/core/math32"

	"github.com/sanonone/kektorspace/pkg/core/distance"
	"github.com/sanonone/kektorspace/pkg/core/types"
)

const (
	// Components is the dimensionality of the projected space.
	Components = 3
	// WorldScale spreads projected coordinates into world space.
	WorldScale = 10
)

// Method selects the dimensionality reduction algorithm.
type Method string

const (
	UMAP Method = "umap"
	PCA  Method = "pca"
)

// Params are the dimensionality reduction tuning knobs.
type Params struct {
	Method             Method                  `yaml:"method"`
	NNeighbors         int                     `yaml:"n_neighbors"`
	MinDist            float64                 `yaml:"min_dist"`
	Spread             float64                 `yaml:"spread"`
	Epochs             int                     `yaml:"epochs"`
	LearningRate       float64                 `yaml:"learning_rate"`
	NegativeSampleRate float64                 `yaml:"negative_sample_rate"`
	Metric             distance.DistanceMetric `yaml:"metric"`
	// Seed drives label shuffling, random vectors and the layout. Zero means
	// "derive from the current day" and is resolved by the caller.
	Seed int64 `yaml:"seed"`
}

// DefaultParams returns the standard UMAP settings.
func DefaultParams() Params {
	return Params{
		Method:             UMAP,
		NNeighbors:         15,
		MinDist:            0.1,
		Spread:             1.0,
		Epochs:             200,
		LearningRate:       1.0,
		NegativeSampleRate: 5.0,
		Metric:             distance.Cosine,
	}
}

// Validate reports parameters the algorithms cannot work with.
func (p Params) Validate() error {
	switch p.Method {
	case UMAP, PCA, "":
	default:
		return fmt.Errorf("unknown projection method '%s'", p.Method)
	}
	if p.Method != PCA {
		if p.NNeighbors < 2 {
			return fmt.Errorf("n_neighbors must be at least 2, got %d", p.NNeighbors)
		}
		if p.Spread <= 0 {
			return fmt.Errorf("spread must be positive, got %v", p.Spread)
		}
		if p.MinDist < 0 || p.MinDist > p.Spread {
			return fmt.Errorf("min_dist must be in [0, spread], got %v", p.MinDist)
		}
	}
	if _, err := distance.GetFloat32Func(p.Metric); p.Metric != "" && err != nil {
		return err
	}
	return nil
}

// Entry is one cached embedding.
type Entry struct {
	Label  string
	Vector []float32
}

// Request describes one projection build.
type Request struct {
	Pool       []Entry
	PointCount int
	// Previous is the label selection of the prior build, in preference order.
	Previous []string
	Params   Params
	// RandomizeEmbeddings replaces the real vectors with uniform random ones.
	// The random vectors are also the ones stored on the items, so neighbor
	// search stays consistent with the layout of the same build.
	RandomizeEmbeddings bool
}

// Result is the output of a build.
type Result struct {
	Items  []types.Item
	Labels []string
}

// Project runs one build. An empty pool or a non-positive point count yields
// an empty result.
func Project(req Request) Result {
	rng := NewRand(req.Params.Seed)

	byLabel := make(map[string][]float32, len(req.Pool))
	pool := make([]string, 0, len(req.Pool))
	for _, e := range req.Pool {
		if _, dup := byLabel[e.Label]; !dup {
			pool = append(pool, e.Label)
		}
		byLabel[e.Label] = e.Vector
	}
	sort.Strings(pool)

	labels := SelectLabels(pool, req.Previous, req.PointCount, rng)
	if len(labels) == 0 {
		return Result{Items: []types.Item{}, Labels: labels}
	}

	vectors := make([][]float32, len(labels))
	for i, l := range labels {
		vectors[i] = byLabel[l]
	}
	if req.RandomizeEmbeddings {
		vectors = randomVectors(vectors, rng)
	}

	coords := reduce(vectors, req.Params, rng)

	items := make([]types.Item, len(labels))
	for i, l := range labels {
		c := coords[i]
		items[i] = types.Item{
			Index:    i,
			Label:    l,
			Position: math32.Vec3(float32(c[0]*WorldScale), float32(c[1]*WorldScale), float32(c[2]*WorldScale)),
			Vector:   vectors[i],
		}
	}
	return Result{Items: items, Labels: labels}
}

func reduce(vectors [][]float32, p Params, rng *rand.Rand) [][]float64 {
	var coords [][]float64
	if uniformDims(vectors) >= Components && len(vectors) >= 2 {
		switch p.Method {
		case PCA:
			coords = runPCA(vectors, Components)
		default:
			coords = runUMAP(vectors, withDefaults(p), rng)
		}
	}
	if coords == nil || !finite(coords) {
		coords = fallbackProjection(vectors)
	}
	return coords
}

func finite(coords [][]float64) bool {
	for _, c := range coords {
		for _, v := range c {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func withDefaults(p Params) Params {
	d := DefaultParams()
	if p.NNeighbors <= 0 {
		p.NNeighbors = d.NNeighbors
	}
	if p.Spread <= 0 {
		p.Spread = d.Spread
	}
	if p.Epochs <= 0 {
		p.Epochs = d.Epochs
	}
	if p.LearningRate <= 0 {
		p.LearningRate = d.LearningRate
	}
	if p.NegativeSampleRate <= 0 {
		p.NegativeSampleRate = d.NegativeSampleRate
	}
	if p.Metric == "" {
		p.Metric = d.Metric
	}
	return p
}

// uniformDims returns the shared dimensionality, or -1 when vectors differ.
func uniformDims(vectors [][]float32) int {
	if len(vectors) == 0 {
		return 0
	}
	dim := len(vectors[0])
	for _, v := range vectors[1:] {
		if len(v) != dim {
			return -1
		}
	}
	return dim
}

// fallbackProjection uses the first three components of each vector directly.
func fallbackProjection(vectors [][]float32) [][]float64 {
	out := make([][]float64, len(vectors))
	for i, v := range vectors {
		c := make([]float64, Components)
		for j := 0; j < Components && j < len(v); j++ {
			c[j] = float64(v[j])
		}
		out[i] = c
	}
	return out
}
