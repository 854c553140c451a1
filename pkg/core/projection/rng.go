package projection

import (
	"math/rand"
	"time"
)

// NewRand returns the seeded generator used for every random decision of a
// projection build. The same seed always yields the same sequence.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// DaySeed derives a seed from the local calendar date (yyyymmdd), so visuals
// are stable within a day.
func DaySeed(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y*10000 + int(m)*100 + d)
}

// shuffle performs a Fisher-Yates shuffle of labels in place, drawing from rng.
func shuffle(labels []string, rng *rand.Rand) {
	for i := len(labels) - 1; i > 0; i-- {
		j := int(rng.Float64() * float64(i+1))
		labels[i], labels[j] = labels[j], labels[i]
	}
}

// randomVectors replaces every vector with a uniform random one in [-1,1)
// per dimension, preserving each vector's dimensionality.
func randomVectors(vectors [][]float32, rng *rand.Rand) [][]float32 {
	out := make([][]float32, len(vectors))
	for i, v := range vectors {
		r := make([]float32, len(v))
		for j := range r {
			r[j] = float32(rng.Float64()*2 - 1)
		}
		out[i] = r
	}
	return out
}
