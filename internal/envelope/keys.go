package envelope

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
)

// DefaultKeyBits is the modulus size used when none is configured.
const DefaultKeyBits = 2048

const (
	pemPublicKey     = "PUBLIC KEY"
	pemRSAPublicKey  = "RSA PUBLIC KEY"
	pemPrivateKey    = "PRIVATE KEY"
	pemRSAPrivateKey = "RSA PRIVATE KEY"
)

// GenerateKeys creates a new RSA key pair and returns it PEM encoded.
// The public key is PKIX ("PUBLIC KEY"), the private key PKCS#1 ("RSA PRIVATE KEY").
func GenerateKeys(bits int) (publicPEM, privatePEM []byte, err error) {
	if bits < 1024 {
		return nil, nil, fmt.Errorf("%w: key size %d is below 1024 bits", ErrInvalidKey, bits)
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate rsa key: %w", err)
	}

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: pemPublicKey, Bytes: der})
	privatePEM = pem.EncodeToMemory(&pem.Block{
		Type:  pemRSAPrivateKey,
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return publicPEM, privatePEM, nil
}

func parsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}

	switch block.Type {
	case pemPublicKey:
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: public key is %T, not RSA", ErrInvalidKey, key)
		}
		return rsaKey, nil
	case pemRSAPublicKey:
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return key, nil
	case pemPrivateKey, pemRSAPrivateKey:
		// A private key file carries the public half as well.
		key, err := parsePrivateKey(data)
		if err != nil {
			return nil, err
		}
		return &key.PublicKey, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidKey, block.Type)
	}
}

func parsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrInvalidKey)
	}

	switch block.Type {
	case pemRSAPrivateKey:
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return key, nil
	case pemPrivateKey:
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private key is %T, not RSA", ErrInvalidKey, key)
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidKey, block.Type)
	}
}

// Fingerprint returns the hex SHA-256 of the key's PKIX encoding.
// It accepts either half of a pair and yields the same value for both.
func Fingerprint(keyPEM []byte) (string, error) {
	key, err := parsePublicKey(keyPEM)
	if err != nil {
		return "", err
	}
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:]), nil
}

// CiphertextSize is the length in bytes of every ciphertext produced for this key.
func CiphertextSize(publicPEM []byte) (int, error) {
	key, err := parsePublicKey(publicPEM)
	if err != nil {
		return 0, err
	}
	return key.Size(), nil
}

// Capacity is the largest plaintext, in bytes, OAEP accepts for this key.
func Capacity(publicPEM []byte) (int, error) {
	key, err := parsePublicKey(publicPEM)
	if err != nil {
		return 0, err
	}
	return oaepCapacity(key), nil
}

func oaepCapacity(key *rsa.PublicKey) int {
	return key.Size() - 2*sha256.Size - 2
}
