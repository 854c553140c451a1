package projection

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/sanonone/kektorspace/pkg/core/distance"
)

// UMAP works in four steps:
//
//  1. build a k-nearest-neighbor graph in the high-dimensional space
//  2. turn neighbor distances into fuzzy membership strengths
//  3. initialize the low-dimensional layout (spectral, else random)
//  4. refine the layout with SGD and negative sampling
//
// Reference: McInnes, Healy & Melville (2018), https://arxiv.org/abs/1802.03426

const (
	// Spectral init factorizes an n×n Laplacian; outside this range random
	// init is used instead.
	spectralMinPoints = 50
	spectralMaxPoints = 1500
)

// cooMatrix is a sparse matrix in coordinate format.
type cooMatrix struct {
	rows []int
	cols []int
	data []float64
	n    int
}

type knnGraph struct {
	indices [][]int
	dists   [][]float64
}

func runUMAP(vectors [][]float32, p Params, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	k := p.NNeighbors
	if k >= n {
		k = n - 1
	}
	if k < 2 {
		return nil
	}

	knn, err := computeKNN(vectors, k, p.Metric)
	if err != nil {
		slog.Warn("[Projection] UMAP neighbor graph failed, using fallback layout", "error", err)
		return nil
	}
	sigmas, rhos := smoothKNNDist(knn.dists, float64(k))
	graph := fuzzySimplicialSet(knn, sigmas, rhos, n)
	a, b := findABParams(p.Spread, p.MinDist)

	embedding := initializeEmbedding(graph, n, Components, rng)
	return optimizeLayout(embedding, graph, a, b, p.Epochs, p.LearningRate, p.NegativeSampleRate, rng)
}

// computeKNN is an exhaustive O(n²) neighbor search, split across CPUs by row.
// It fails on the first pair the metric cannot compare.
func computeKNN(vectors [][]float32, k int, metric distance.DistanceMetric) (knnGraph, error) {
	n := len(vectors)
	distFn, err := distance.GetFloat32Func(metric)
	if err != nil {
		distFn, _ = distance.GetFloat32Func(distance.Cosine)
		metric = distance.Cosine
	}
	squared := metric == distance.Euclidean

	g := knnGraph{indices: make([][]int, n), dists: make([][]float64, n)}

	type distIdx struct {
		dist float64
		idx  int
	}

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			row := make([]distIdx, 0, n-1)
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				d, err := distFn(vectors[i], vectors[j])
				if err != nil {
					return fmt.Errorf("distance between %d and %d: %w", i, j, err)
				}
				if squared {
					d = math.Sqrt(d)
				}
				row = append(row, distIdx{d, j})
			}
			sort.Slice(row, func(a, b int) bool {
				if row[a].dist != row[b].dist {
					return row[a].dist < row[b].dist
				}
				return row[a].idx < row[b].idx
			})
			idx := make([]int, k)
			dst := make([]float64, k)
			for j := 0; j < k; j++ {
				idx[j] = row[j].idx
				dst[j] = row[j].dist
			}
			g.indices[i] = idx
			g.dists[i] = dst
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return knnGraph{}, err
	}
	return g, nil
}

// smoothKNNDist finds, per point, rho (distance to the nearest neighbor) and
// sigma such that the memberships sum to log2(k).
func smoothKNNDist(distances [][]float64, k float64) (sigmas, rhos []float64) {
	const (
		nIter            = 64
		smoothKTolerance = 1e-5
		minKDistScale    = 1e-3
	)

	n := len(distances)
	sigmas = make([]float64, n)
	rhos = make([]float64, n)
	target := math.Log2(k)

	for i, dists := range distances {
		for _, d := range dists {
			if d > 0 && !math.IsInf(d, 1) {
				rhos[i] = d
				break
			}
		}

		lo, hi, mid := 0.0, math.Inf(1), 1.0
		for iter := 0; iter < nIter; iter++ {
			psum := 0.0
			for _, d := range dists {
				if r := d - rhos[i]; r > 0 {
					psum += math.Exp(-r / mid)
				} else {
					psum += 1.0
				}
			}
			if math.Abs(psum-target) < smoothKTolerance {
				break
			}
			if psum > target {
				hi = mid
				mid = (lo + hi) / 2
			} else {
				lo = mid
				if math.IsInf(hi, 1) {
					mid *= 2
				} else {
					mid = (lo + hi) / 2
				}
			}
		}

		sigmas[i] = mid
		if minSigma := minKDistScale * finiteMean(dists); sigmas[i] < minSigma {
			sigmas[i] = minSigma
		}
	}
	return sigmas, rhos
}

// fuzzySimplicialSet builds the symmetric membership graph using the fuzzy
// union a + b - a*b of each edge and its transpose.
func fuzzySimplicialSet(knn knnGraph, sigmas, rhos []float64, n int) cooMatrix {
	type edge struct{ r, c int }
	directed := make(map[edge]float64, n*len(knn.indices[0]))
	for i := range knn.indices {
		for j, nb := range knn.indices[i] {
			d := knn.dists[i][j]
			val := 1.0
			if d-rhos[i] > 0 && sigmas[i] > 0 {
				val = math.Exp(-(d - rhos[i]) / sigmas[i])
			}
			directed[edge{i, nb}] = val
		}
	}

	union := make(map[edge]float64, len(directed)*2)
	for e, v := range directed {
		vt := directed[edge{e.c, e.r}]
		if u := v + vt - v*vt; u > 0 {
			union[e] = u
			union[edge{e.c, e.r}] = u
		}
	}

	edges := make([]edge, 0, len(union))
	for e := range union {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].r != edges[j].r {
			return edges[i].r < edges[j].r
		}
		return edges[i].c < edges[j].c
	})

	g := cooMatrix{
		rows: make([]int, len(edges)),
		cols: make([]int, len(edges)),
		data: make([]float64, len(edges)),
		n:    n,
	}
	for i, e := range edges {
		g.rows[i], g.cols[i], g.data[i] = e.r, e.c, union[e]
	}
	return g
}

// findABParams fits f(x) = 1 / (1 + a*x^(2b)) to the target membership curve
// defined by spread and minDist, by grid search.
func findABParams(spread, minDist float64) (a, b float64) {
	const nPoints = 300
	xv := make([]float64, nPoints)
	yv := make([]float64, nPoints)
	for i := range xv {
		xv[i] = float64(i) / float64(nPoints-1) * spread * 3
		if xv[i] < minDist {
			yv[i] = 1.0
		} else {
			yv[i] = math.Exp(-(xv[i] - minDist) / spread)
		}
	}

	bestA, bestB := 1.0, 1.0
	bestErr := math.Inf(1)
	for aTest := 0.1; aTest <= 10.0; aTest += 0.1 {
		for bTest := 0.1; bTest <= 2.0; bTest += 0.05 {
			sum := 0.0
			for i := range xv {
				diff := 1.0/(1.0+aTest*math.Pow(xv[i], 2*bTest)) - yv[i]
				sum += diff * diff
			}
			if sum < bestErr {
				bestErr, bestA, bestB = sum, aTest, bTest
			}
		}
	}
	return bestA, bestB
}

func initializeEmbedding(graph cooMatrix, n, dims int, rng *rand.Rand) [][]float64 {
	if emb := spectralLayout(graph, n, dims); emb != nil {
		for i := range emb {
			for j := range emb[i] {
				emb[i][j] += (rng.Float64() - 0.5) * 0.0001
			}
		}
		return emb
	}

	emb := make([][]float64, n)
	for i := range emb {
		emb[i] = make([]float64, dims)
		for j := range emb[i] {
			emb[i][j] = (rng.Float64() - 0.5) * 10
		}
	}
	return emb
}

// spectralLayout uses the eigenvectors of the normalized graph Laplacian
// L = I - D^(-1/2) A D^(-1/2) with the smallest non-trivial eigenvalues.
func spectralLayout(graph cooMatrix, n, dims int) [][]float64 {
	if n < spectralMinPoints || n > spectralMaxPoints {
		return nil
	}

	degrees := make([]float64, n)
	for i, r := range graph.rows {
		degrees[r] += graph.data[i]
	}

	lap := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		lap.SetSym(i, i, 1)
	}
	for i, r := range graph.rows {
		c := graph.cols[i]
		if r == c || degrees[r] == 0 || degrees[c] == 0 {
			continue
		}
		lap.SetSym(r, c, -graph.data[i]/math.Sqrt(degrees[r]*degrees[c]))
	}

	var eig mat.EigenSym
	if !eig.Factorize(lap, true) {
		return nil
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues come back in ascending order; column 0 is the trivial one.
	emb := make([][]float64, n)
	for i := range emb {
		emb[i] = make([]float64, dims)
		for j := 0; j < dims && j+1 < n; j++ {
			emb[i][j] = vectors.At(i, j+1)
		}
	}

	for d := 0; d < dims; d++ {
		minVal, maxVal := math.Inf(1), math.Inf(-1)
		for i := range emb {
			minVal = math.Min(minVal, emb[i][d])
			maxVal = math.Max(maxVal, emb[i][d])
		}
		if scale := maxVal - minVal; scale > 0 {
			for i := range emb {
				emb[i][d] = (emb[i][d]-minVal)/scale*10 - 5
			}
		}
	}
	return emb
}

func optimizeLayout(embedding [][]float64, graph cooMatrix, a, b float64, nEpochs int, initialAlpha, negativeSampleRate float64, rng *rand.Rand) [][]float64 {
	n := len(embedding)
	nEdges := len(graph.rows)
	if nEdges == 0 || n < 2 || nEpochs <= 0 {
		return embedding
	}

	maxWeight := 0.0
	for _, w := range graph.data {
		maxWeight = math.Max(maxWeight, w)
	}
	if maxWeight == 0 {
		maxWeight = 1
	}

	// Stronger edges are sampled more often.
	epochsPerSample := make([]float64, nEdges)
	for i, w := range graph.data {
		if w > 0 {
			epochsPerSample[i] = math.Max(1, maxWeight/w)
		} else {
			epochsPerSample[i] = float64(nEpochs) + 1
		}
	}
	nextSample := append([]float64(nil), epochsPerSample...)

	nNeg := int(negativeSampleRate)
	if nNeg < 1 {
		nNeg = 1
	}

	for epoch := 0; epoch < nEpochs; epoch++ {
		alpha := math.Max(initialAlpha*(1.0-float64(epoch)/float64(nEpochs)), 0.0001)

		for i := 0; i < nEdges; i++ {
			if nextSample[i] > float64(epoch) {
				continue
			}
			j, k := graph.rows[i], graph.cols[i]
			current, other := embedding[j], embedding[k]

			if distSq := squaredEuclidean(current, other); distSq > 0 {
				coeff := -2.0 * a * b * math.Pow(distSq, b-1.0)
				coeff /= a*math.Pow(distSq, b) + 1.0
				for d := range current {
					current[d] += clip(coeff*(current[d]-other[d])) * alpha
				}
			}

			for s := 0; s < nNeg; s++ {
				neg := rng.Intn(n)
				if neg == j {
					continue
				}
				negPoint := embedding[neg]
				distSq := squaredEuclidean(current, negPoint)
				if distSq <= 0.001 {
					continue
				}
				coeff := 2.0 * b / ((0.001 + distSq) * (a*math.Pow(distSq, b) + 1))
				for d := range current {
					current[d] += clip(coeff*(current[d]-negPoint[d])) * alpha
				}
			}

			nextSample[i] += epochsPerSample[i]
		}
	}
	return embedding
}

func squaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// clip bounds a gradient step to [-4, 4].
func clip(v float64) float64 {
	return math.Max(-4, math.Min(4, v))
}

func finiteMean(vals []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range vals {
		if !math.IsInf(v, 0) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
