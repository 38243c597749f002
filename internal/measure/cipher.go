package measure

import (
	"math"
	"math/bits"
)

// Avalanche returns the percentage of bits that differ between a and b over
// the shorter of the two. Empty input yields 0.
func Avalanche(a, b []byte) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	diff := 0
	for i := 0; i < n; i++ {
		diff += bits.OnesCount8(a[i] ^ b[i])
	}
	return 100 * float64(diff) / float64(8*n)
}

// Entropy returns the Shannon entropy of data in bits per byte.
func Entropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	total := float64(len(data))
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		h -= p * math.Log2(p)
	}
	return h
}
