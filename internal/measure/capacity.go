package measure

import (
	"github.com/glizzus/sound-cipher/internal/frame"
	"github.com/glizzus/sound-cipher/internal/stego"
)

// CapacityReport describes how much a signal can carry with a given block size.
type CapacityReport struct {
	Samples int
	Blocks  int
	// Bits is one per full block.
	Bits int
	// PayloadBytes is what remains for ciphertext after the 4-byte length header.
	PayloadBytes int
}

// Capacity reports the embedding capacity of totalSamples samples, counted on
// the same block layout the embedder uses.
func Capacity(totalSamples, blockSize int) CapacityReport {
	layout := stego.Layout{BlockSize: blockSize}
	r := CapacityReport{
		Samples: totalSamples,
		Blocks:  layout.Blocks(totalSamples),
	}
	r.Bits = r.Blocks
	r.PayloadBytes = max((r.Bits-frame.HeaderBits)/8, 0)
	return r
}

// Fits reports whether a payload of n bytes can be framed into the signal.
func (r CapacityReport) Fits(n int) bool {
	return n <= r.PayloadBytes
}
