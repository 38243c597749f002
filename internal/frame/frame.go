// Package frame serializes ciphertext into the bitstream carried by the audio.
//
// A frame is [uint32 BE length][payload], expanded to one element per bit,
// most significant bit first. Bit values are stored as 0 or 1 in a []uint8.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderBits is the size of the length prefix in bits.
const HeaderBits = 32

var (
	ErrTruncatedHeader  = errors.New("bitstream too short for frame header")
	ErrTruncatedPayload = errors.New("bitstream too short for frame payload")
)

// Bits returns the bitstream length of a frame carrying n payload bytes.
func Bits(n int) int {
	return 8 * (4 + n)
}

// Build returns the bitstream for payload.
func Build(payload []byte) []uint8 {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	bits := make([]uint8, 0, Bits(len(payload)))
	bits = appendBits(bits, header[:])
	bits = appendBits(bits, payload)
	return bits
}

func appendBits(dst []uint8, data []byte) []uint8 {
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			dst = append(dst, (b>>shift)&1)
		}
	}
	return dst
}

// Parse reads a frame from the front of bits and returns its payload.
// Bits after the frame are ignored. The length header is only checked against
// the number of bits available.
func Parse(bits []uint8) ([]byte, error) {
	if len(bits) < HeaderBits {
		return nil, fmt.Errorf("%w: have %d bits, need %d", ErrTruncatedHeader, len(bits), HeaderBits)
	}

	length := binary.BigEndian.Uint32(packBytes(bits[:HeaderBits]))
	need := uint64(HeaderBits) + 8*uint64(length)
	if uint64(len(bits)) < need {
		return nil, fmt.Errorf("%w: header declares %d bytes, have %d bits, need %d", ErrTruncatedPayload, length, len(bits), need)
	}

	return packBytes(bits[HeaderBits:need]), nil
}

// packBytes folds bits into bytes. len(bits) must be a multiple of 8.
func packBytes(bits []uint8) []byte {
	out := make([]byte, len(bits)/8)
	for i := range out {
		var b byte
		for _, bit := range bits[i*8 : i*8+8] {
			b <<= 1
			if bit != 0 {
				b |= 1
			}
		}
		out[i] = b
	}
	return out
}
