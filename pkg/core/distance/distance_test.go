package distance

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
)

// Helper per il confronto con tolleranza
func floatsAreEqual(a, b float64) bool {
	const tolerance = 1e-6
	return math.Abs(a-b) < tolerance
}

func generateVectors(rng *rand.Rand, dims int) ([]float32, []float32) {
	v1 := make([]float32, dims)
	v2 := make([]float32, dims)
	for i := 0; i < dims; i++ {
		v1[i] = rng.Float32()*2 - 1
		v2[i] = rng.Float32()*2 - 1
	}
	return v1, v2
}

func TestImplementations(t *testing.T) {
	t.Run("EuclideanF32", func(t *testing.T) {
		fn, _ := GetFloat32Func(Euclidean)
		v1, v2 := []float32{1, 2}, []float32{3, 4}
		expected := 8.0 // (3-1)^2 + (4-2)^2 = 4 + 4 = 8
		dist, _ := fn(v1, v2)
		if !floatsAreEqual(dist, expected) {
			t.Errorf("got %f, want %f", dist, expected)
		}
	})

	t.Run("CosineIdentical", func(t *testing.T) {
		for _, dims := range []int{3, 128} {
			v1, _ := generateVectors(rand.New(rand.NewSource(1)), dims)
			v2 := append([]float32{}, v1...)
			if d := CosineDistance(v1, v2); d > 1e-5 {
				t.Errorf("dims=%d: got %.15f, want 0", dims, d)
			}
		}
	})

	t.Run("CosineOpposite", func(t *testing.T) {
		if d := CosineDistance([]float32{1, 0}, []float32{-1, 0}); !floatsAreEqual(d, 2) {
			t.Errorf("got %f, want 2", d)
		}
	})

	t.Run("CosineOrthogonal", func(t *testing.T) {
		if d := CosineDistance([]float32{1, 0, 0}, []float32{0, 5, 0}); !floatsAreEqual(d, 1) {
			t.Errorf("got %f, want 1", d)
		}
	})

	t.Run("CosineZeroMagnitude", func(t *testing.T) {
		zero := []float32{0, 0, 0}
		if d := CosineDistance(zero, []float32{1, 2, 3}); d != 1 {
			t.Errorf("zero first: got %f, want exactly 1", d)
		}
		if d := CosineDistance([]float32{1, 2, 3}, zero); d != 1 {
			t.Errorf("zero second: got %f, want exactly 1", d)
		}
		if d := CosineDistance(zero, zero); d != 1 {
			t.Errorf("both zero: got %f, want exactly 1", d)
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		fn, _ := GetFloat32Func(Cosine)
		if _, err := fn([]float32{1}, []float32{1, 2}); err != ErrDimensionMismatch {
			t.Errorf("got err %v, want ErrDimensionMismatch", err)
		}
		if d := CosineDistance([]float32{1}, []float32{1, 2}); d != 1 {
			t.Errorf("got %f, want 1", d)
		}
	})

	t.Run("UnknownMetric", func(t *testing.T) {
		if _, err := GetFloat32Func("manhattan"); err == nil {
			t.Error("expected error for unsupported metric")
		}
	})
}

func TestCosineProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, dims := range []int{2, 16, 64, 300, 1536} {
		for i := 0; i < 50; i++ {
			v1, v2 := generateVectors(rng, dims)
			ab := CosineDistance(v1, v2)
			ba := CosineDistance(v2, v1)
			if ab != ba {
				t.Fatalf("dims=%d: not symmetric: %v vs %v", dims, ab, ba)
			}
			if ab < 0 || ab > 2 {
				t.Fatalf("dims=%d: out of bounds: %v", dims, ab)
			}
			ref, _ := cosineGo(v1, v2)
			if math.Abs(ab-ref) > 1e-4 {
				t.Fatalf("dims=%d: gonum %v differs from reference %v", dims, ab, ref)
			}
		}
	}
}

func BenchmarkCosine(b *testing.B) {
	rng := rand.New(rand.NewSource(7))
	for _, d := range []int{64, 384, 768, 1536} {
		v1, v2 := generateVectors(rng, d)
		b.Run(fmt.Sprintf("Gonum_%dD", d), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				cosineGonum(v1, v2)
			}
		})
		b.Run(fmt.Sprintf("PureGo_%dD", d), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				cosineGo(v1, v2)
			}
		})
	}
}
