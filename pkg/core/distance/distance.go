// Package distance provides functions for calculating vector distances between
// high-dimensional embeddings.
//
// Cosine distance is defined as 1 - (A·B)/(|A||B|). A zero-magnitude input
// yields the maximal dissimilarity of 1 instead of a division by zero, and the
// result is clamped to [0, 2] so that rounding never escapes the metric's range.
//
// The package dispatches at init time to the fastest implementation available:
// Gonum (BLAS with internal SIMD) for long vectors, pure Go for short ones.
package distance

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/blas/gonum"
)

// DistanceMetric defines the type of distance calculation to perform.
type DistanceMetric string

const (
	// Euclidean represents the squared Euclidean distance metric.
	Euclidean DistanceMetric = "euclidean"
	// Cosine represents the cosine distance metric (1 - cosine similarity).
	Cosine DistanceMetric = "cosine"
)

// ErrDimensionMismatch is returned when two vectors have different lengths.
var ErrDimensionMismatch = errors.New("vectors must have the same length")

// DistanceFuncF32 computes a distance between two float32 vectors.
type DistanceFuncF32 func(v1, v2 []float32) (float64, error)

// gonumThreshold is the vector length from which the BLAS path beats the
// float64 accumulation loop.
const gonumThreshold = 64

var gonumEngine = gonum.Implementation{}

func init() {
	slog.Debug("[Distance] compute engine",
		"cpu", cpuid.CPU.BrandName,
		"avx2", cpuid.CPU.Has(cpuid.AVX2),
		"fma3", cpuid.CPU.Has(cpuid.FMA3),
		"cosine", "gonum/blas above 64 dims, pure go below",
	)
}

// --- REFERENCE IMPLEMENTATIONS (PURE GO) ---

// squaredEuclideanGo is the pure Go implementation for squared Euclidean distance.
func squaredEuclideanGo(v1, v2 []float32) (float64, error) {
	if len(v1) != len(v2) {
		return 0, ErrDimensionMismatch
	}
	var sum float64
	for i := range v1 {
		diff := float64(v1[i]) - float64(v2[i])
		sum += diff * diff
	}
	return sum, nil
}

// cosineGo accumulates in float64; used for short vectors and as the
// reference in tests.
func cosineGo(v1, v2 []float32) (float64, error) {
	if len(v1) != len(v2) {
		return 0, ErrDimensionMismatch
	}
	var dot, n1, n2 float64
	for i := range v1 {
		a, b := float64(v1[i]), float64(v2[i])
		dot += a * b
		n1 += a * a
		n2 += b * b
	}
	return cosineFromParts(dot, math.Sqrt(n1), math.Sqrt(n2)), nil
}

// --- Gonum-based Implementations ---

// cosineGonum uses the Gonum BLAS kernels for the dot product and the norms.
func cosineGonum(v1, v2 []float32) (float64, error) {
	n := len(v1)
	if n != len(v2) {
		return 0, ErrDimensionMismatch
	}
	if n < gonumThreshold {
		return cosineGo(v1, v2)
	}
	dot := gonumEngine.Sdot(n, v1, 1, v2, 1)
	n1 := gonumEngine.Snrm2(n, v1, 1)
	n2 := gonumEngine.Snrm2(n, v2, 1)
	return cosineFromParts(float64(dot), float64(n1), float64(n2)), nil
}

func cosineFromParts(dot, n1, n2 float64) float64 {
	if n1 == 0 || n2 == 0 {
		return 1
	}
	d := 1 - dot/(n1*n2)
	switch {
	case d < 0:
		return 0
	case d > 2:
		return 2
	}
	return d
}

// float32Funcs maps a distance metric to its corresponding float32 implementation.
var float32Funcs = map[DistanceMetric]DistanceFuncF32{
	Euclidean: squaredEuclideanGo,
	Cosine:    cosineGonum,
}

// GetFloat32Func returns the distance function for a given metric.
// It returns an error if the metric is not supported.
func GetFloat32Func(metric DistanceMetric) (DistanceFuncF32, error) {
	fn, ok := float32Funcs[metric]
	if !ok {
		return nil, fmt.Errorf("metric '%s' not supported for float32 precision", metric)
	}
	return fn, nil
}

// CosineDistance returns the cosine distance between v1 and v2.
// Vectors of different length are treated as maximally dissimilar (1).
func CosineDistance(v1, v2 []float32) float64 {
	d, err := cosineGonum(v1, v2)
	if err != nil {
		return 1
	}
	return d
}
