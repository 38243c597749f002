package generator

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator is an interface that defines a method to generate a new value of type T.
// This can be used to generate unique identifiers, lazily iterate, etc.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator is a generator that produces UUIDv4 strings.
// Artefact IDs come from here.
type UUIDV4Generator struct{}

func (g *UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = &UUIDV4Generator{}

// SequenceGenerator yields "<prefix>-1", "<prefix>-2", ... and is safe for
// concurrent use. Tests use it for predictable IDs.
type SequenceGenerator struct {
	Prefix string

	mu sync.Mutex
	n  int
}

func (g *SequenceGenerator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.Prefix, g.n), nil
}

var _ Generator[string] = &SequenceGenerator{}

// CoverKey is the blob key of the uploaded cover for an artefact.
func CoverKey(id string) string {
	return "covers/" + id
}

// StegoKey is the blob key of the embedded WAV for an artefact.
func StegoKey(id string) string {
	return "stego/" + id + ".wav"
}
