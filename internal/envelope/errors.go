package envelope

import "errors"

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrMessageTooLong   = errors.New("message too long")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInvalidEncoding  = errors.New("decrypted message is not valid UTF-8")
)
