// Package dct implements the orthonormal type-II discrete cosine transform and
// its inverse (type III).
//
// With orthonormal scaling the transform matrix is orthogonal: Inverse(Forward(x))
// reproduces x, energy is preserved, and changing coefficient k by d changes the
// time-domain block by d*Basis(n, k).
package dct

import (
	"math"
	"sync"
)

// basisTable holds the scaled cosine rows for one transform size.
// Rows are computed on first use and never modified afterwards.
type basisTable struct {
	n    int
	rows [][]float64
}

var (
	tablesMu sync.Mutex
	tables   = map[int]*basisTable{}
)

func tableFor(n int) *basisTable {
	tablesMu.Lock()
	defer tablesMu.Unlock()
	if t, ok := tables[n]; ok {
		return t
	}
	t := &basisTable{n: n, rows: make([][]float64, n)}
	tables[n] = t
	return t
}

func (t *basisTable) row(k int) []float64 {
	tablesMu.Lock()
	defer tablesMu.Unlock()
	if r := t.rows[k]; r != nil {
		return r
	}

	scale := math.Sqrt(2 / float64(t.n))
	if k == 0 {
		scale = math.Sqrt(1 / float64(t.n))
	}
	r := make([]float64, t.n)
	for i := range r {
		r[i] = scale * math.Cos(math.Pi*float64(k)*float64(2*i+1)/float64(2*t.n))
	}
	t.rows[k] = r
	return r
}

// Basis returns the k-th orthonormal basis vector of length n.
// The returned slice is shared and must not be modified.
func Basis(n, k int) []float64 {
	if n <= 0 || k < 0 || k >= n {
		panic("dct: basis index out of range")
	}
	return tableFor(n).row(k)
}

// Coefficient computes only coefficient k of Forward(src).
func Coefficient(src []float64, k int) float64 {
	return dot(src, Basis(len(src), k))
}

// Forward writes the orthonormal DCT-II of src into dst and returns it.
// dst is allocated when it is nil or too short; it must not alias src.
func Forward(dst, src []float64) []float64 {
	n := len(src)
	dst = ensure(dst, n)
	t := tableFor(n)
	for k := 0; k < n; k++ {
		dst[k] = dot(src, t.row(k))
	}
	return dst
}

// Inverse writes the orthonormal DCT-III of src into dst and returns it.
// dst is allocated when it is nil or too short; it must not alias src.
func Inverse(dst, src []float64) []float64 {
	n := len(src)
	dst = ensure(dst, n)
	clear(dst)
	t := tableFor(n)
	for k, c := range src {
		if c == 0 {
			continue
		}
		for i, b := range t.row(k) {
			dst[i] += c * b
		}
	}
	return dst
}

func ensure(dst []float64, n int) []float64 {
	if cap(dst) < n {
		return make([]float64, n)
	}
	return dst[:n]
}

func dot(a, b []float64) float64 {
	var sum float64
	for i, v := range a {
		sum += v * b[i]
	}
	return sum
}
