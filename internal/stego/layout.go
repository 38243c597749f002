package stego

// Layout is the block grid shared by the embedder, the extractor and the
// capacity check.
type Layout struct {
	BlockSize int
}

// Blocks is the number of full blocks in total samples. It is also the
// capacity in bits.
func (l Layout) Blocks(total int) int {
	if l.BlockSize <= 0 || total <= 0 {
		return 0
	}
	return total / l.BlockSize
}

// Span returns the sample range [start, end) of block i.
func (l Layout) Span(i int) (start, end int) {
	start = i * l.BlockSize
	return start, start + l.BlockSize
}

// Block returns the samples of block i as a sub-slice of samples.
func (l Layout) Block(samples []float64, i int) []float64 {
	start, end := l.Span(i)
	return samples[start:end:end]
}
