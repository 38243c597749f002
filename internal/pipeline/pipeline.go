// Package pipeline sequences the envelope and the stego codec.
//
// Seal runs the encrypt path: plaintext, RSA-OAEP ciphertext, frame, embedded
// audio. Open runs the decrypt path in reverse. Both take the same Options so
// the block grid cannot drift between the two sides.
package pipeline

import (
	"fmt"

	"github.com/glizzus/sound-cipher/internal/audio"
	"github.com/glizzus/sound-cipher/internal/envelope"
	"github.com/glizzus/sound-cipher/internal/frame"
	"github.com/glizzus/sound-cipher/internal/stego"
)

type Options struct {
	Params stego.Params
	// MaxMessageBytes is enforced before encryption; zero disables the check.
	MaxMessageBytes int
}

func DefaultOptions() Options {
	return Options{
		Params:          stego.DefaultParams(),
		MaxMessageBytes: envelope.MaxMessageBytes,
	}
}

// Seal encrypts plaintext for publicPEM and embeds it into cover.
func Seal(plaintext string, publicPEM []byte, cover audio.Signal, opts Options) (audio.Signal, error) {
	if err := envelope.CheckMessage(plaintext, opts.MaxMessageBytes); err != nil {
		return audio.Signal{}, err
	}
	ciphertext, err := envelope.Encrypt(plaintext, publicPEM)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("failed to encrypt message: %w", err)
	}
	return SealCiphertext(ciphertext, cover, opts)
}

// SealCiphertext embeds an already encrypted payload into cover.
func SealCiphertext(ciphertext []byte, cover audio.Signal, opts Options) (audio.Signal, error) {
	samples, err := stego.Hide(cover.Samples, ciphertext, opts.Params)
	if err != nil {
		return audio.Signal{}, fmt.Errorf("failed to embed ciphertext: %w", err)
	}
	return audio.Signal{Samples: samples, SampleRate: cover.SampleRate}, nil
}

// Open extracts the ciphertext from signal and decrypts it with privatePEM.
func Open(signal audio.Signal, privatePEM []byte, opts Options) (string, error) {
	ciphertext, err := stego.Extract(signal.Samples, opts.Params)
	if err != nil {
		return "", fmt.Errorf("failed to extract ciphertext: %w", err)
	}
	plaintext, err := envelope.Decrypt(ciphertext, privatePEM)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt message: %w", err)
	}
	return plaintext, nil
}

// CapacityReport compares what a cover offers with what a key needs.
type CapacityReport struct {
	AvailableBits  int
	RequiredBits   int
	CiphertextSize int
}

func (r CapacityReport) Fits() bool {
	return r.RequiredBits <= r.AvailableBits
}

// Capacity reports whether a ciphertext for publicPEM fits in cover.
func Capacity(cover audio.Signal, publicPEM []byte, opts Options) (CapacityReport, error) {
	size, err := envelope.CiphertextSize(publicPEM)
	if err != nil {
		return CapacityReport{}, err
	}
	return CapacityReport{
		AvailableBits:  stego.Capacity(len(cover.Samples), opts.Params),
		RequiredBits:   frame.Bits(size),
		CiphertextSize: size,
	}, nil
}
