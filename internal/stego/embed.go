package stego

import (
	"github.com/glizzus/sound-cipher/internal/dct"
	"github.com/glizzus/sound-cipher/internal/frame"
)

// Capacity returns how many bits fit in total samples under p.
func Capacity(total int, p Params) int {
	return p.Layout().Blocks(total)
}

// Embed returns a copy of samples with bits written into consecutive blocks.
// Nothing is modified when the bits do not fit; the error is then a
// *CapacityError matching ErrInsufficientCapacity.
func Embed(samples []float64, bits []uint8, p Params) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	layout := p.Layout()
	if available := layout.Blocks(len(samples)); len(bits) > available {
		return nil, &CapacityError{Required: len(bits), Available: available}
	}

	out := make([]float64, len(samples))
	copy(out, samples)

	// Raising one coefficient of an orthonormal transform and inverting is the
	// same as adding the scaled basis vector to the block.
	basis := dct.Basis(p.BlockSize, p.Coeff)
	forEachBlock(len(bits), func(i int) {
		delta := -p.Alpha
		if bits[i] != 0 {
			delta = p.Alpha
		}
		block := layout.Block(out, i)
		for j, b := range basis {
			block[j] += delta * b
		}
	})
	return out, nil
}

// Hide frames payload and embeds it.
func Hide(samples []float64, payload []byte, p Params) ([]float64, error) {
	return Embed(samples, frame.Build(payload), p)
}
