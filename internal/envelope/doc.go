// Package envelope produces and opens the RSA payload that gets hidden in audio.
//
// Keys cross the package boundary as PEM bytes only; they are parsed into
// crypto/rsa handles inside each call. Encryption is RSA-OAEP with SHA-256, so
// every ciphertext is exactly one modulus long (256 bytes for a 2048-bit key)
// regardless of the plaintext length.
package envelope
