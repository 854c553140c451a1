package projection

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// runPCA projects mean-centered vectors onto their top principal components.
// It returns nil when the factorization fails or there are fewer dimensions
// than components.
func runPCA(vectors [][]float32, dims int) [][]float64 {
	n := len(vectors)
	dim := len(vectors[0])
	if dim < dims || n < 2 {
		return nil
	}

	data := make([]float64, n*dim)
	for i, v := range vectors {
		for j, val := range v {
			data[i*dim+j] = float64(val)
		}
	}
	x := mat.NewDense(n, dim, data)

	for j := 0; j < dim; j++ {
		m := stat.Mean(mat.Col(nil, j, x), nil)
		for i := 0; i < n; i++ {
			x.Set(i, j, x.At(i, j)-m)
		}
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil
	}
	var v mat.Dense
	svd.VTo(&v)

	// With a thin SVD of an n×dim matrix, V is dim×min(n,dim).
	_, vc := v.Dims()
	pc := mat.NewDense(dim, dims, nil)
	for i := 0; i < dim; i++ {
		for c := 0; c < dims && c < vc; c++ {
			pc.Set(i, c, v.At(i, c))
		}
	}

	var projected mat.Dense
	projected.Mul(x, pc)

	out := make([][]float64, n)
	for i := range out {
		out[i] = mat.Row(nil, i, &projected)
	}
	return out
}
