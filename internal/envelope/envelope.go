package envelope

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"unicode/utf8"
)

// MaxMessageBytes bounds plaintexts for 2048-bit keys. It equals the SHA-256
// OAEP capacity of a 256-byte modulus.
const MaxMessageBytes = 190

// CheckMessage reports ErrMessageTooLong when the UTF-8 encoding of plaintext
// is longer than limit bytes. A limit of zero or less disables the check.
func CheckMessage(plaintext string, limit int) error {
	if limit > 0 && len(plaintext) > limit {
		return fmt.Errorf("%w: %d bytes, maximum is %d", ErrMessageTooLong, len(plaintext), limit)
	}
	return nil
}

// Encrypt encrypts plaintext with RSA-OAEP (SHA-256) under the PEM public key.
func Encrypt(plaintext string, publicPEM []byte) ([]byte, error) {
	key, err := parsePublicKey(publicPEM)
	if err != nil {
		return nil, err
	}
	if err := CheckMessage(plaintext, oaepCapacity(key)); err != nil {
		return nil, err
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, key, []byte(plaintext), nil)
	if err != nil {
		if err == rsa.ErrMessageTooLong {
			return nil, fmt.Errorf("%w: %v", ErrMessageTooLong, err)
		}
		return nil, fmt.Errorf("failed to encrypt message: %w", err)
	}
	return ciphertext, nil
}

// Decrypt reverses Encrypt with the PEM private key.
func Decrypt(ciphertext []byte, privatePEM []byte) (string, error) {
	key, err := parsePrivateKey(privatePEM)
	if err != nil {
		return "", err
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, key, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	if !utf8.Valid(plaintext) {
		return "", ErrInvalidEncoding
	}
	return string(plaintext), nil
}
