// Package measure computes the figures used to judge a stego run: distortion
// between cover and stego audio, and the statistical quality of ciphertext.
package measure
