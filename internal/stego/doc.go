// Package stego hides a frame bitstream in audio samples and recovers it.
//
// Samples are cut into non-overlapping blocks of Params.BlockSize starting at
// offset 0; a trailing partial block is never used. Bit i lives in block i:
// coefficient Params.Coeff of the block's orthonormal DCT is raised by
// Params.Alpha for a 1 and lowered by Params.Alpha for a 0. Decoding reads the
// sign of the same coefficient, with a coefficient of exactly zero read as 1.
//
// The embedding is additive and does not look at the original coefficient, so
// a block whose coefficient already exceeds Alpha in magnitude can decode to
// the wrong bit. There is no error correction and no integrity check beyond
// the frame's length header.
package stego
