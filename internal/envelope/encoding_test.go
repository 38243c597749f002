package envelope

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
)

func TestDecryptRejectsInvalidUTF8(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, DefaultKeyBits)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  pemPrivateKey,
		Bytes: mustPKCS8(t, key),
	})

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, &key.PublicKey, []byte{0xff, 0xfe, 0xfd}, nil)
	if err != nil {
		t.Fatalf("failed to encrypt raw bytes: %v", err)
	}

	_, err = Decrypt(ciphertext, privatePEM)
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("Decrypt() error = %v, want ErrInvalidEncoding", err)
	}
}

func mustPKCS8(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("failed to marshal PKCS#8 key: %v", err)
	}
	return der
}
