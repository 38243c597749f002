package stego

import (
	"github.com/glizzus/sound-cipher/internal/dct"
	"github.com/glizzus/sound-cipher/internal/frame"
)

// Decide maps a coefficient to a bit. Zero counts as non-negative.
func Decide(coefficient float64) uint8 {
	if coefficient >= 0 {
		return 1
	}
	return 0
}

// ExtractBits reads one bit from every full block of samples. Only a prefix of
// the result was embedded; the frame header says how long it is.
func ExtractBits(samples []float64, p Params) ([]uint8, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	layout := p.Layout()
	bits := make([]uint8, layout.Blocks(len(samples)))

	basis := dct.Basis(p.BlockSize, p.Coeff)
	forEachBlock(len(bits), func(i int) {
		block := layout.Block(samples, i)
		var c float64
		for j, b := range basis {
			c += block[j] * b
		}
		bits[i] = Decide(c)
	})
	return bits, nil
}

// Extract recovers the framed payload from samples.
func Extract(samples []float64, p Params) ([]byte, error) {
	bits, err := ExtractBits(samples, p)
	if err != nil {
		return nil, err
	}
	return frame.Parse(bits)
}
