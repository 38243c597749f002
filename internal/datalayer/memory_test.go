package datalayer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/glizzus/sound-cipher/internal/datalayer"
	"github.com/google/go-cmp/cmp"
)

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := datalayer.NewMemoryStorage()

	if err := s.Put(ctx, "covers/a", strings.NewReader("abc"), datalayer.PutOptions{Size: 3}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(ctx, "stego/a.wav", strings.NewReader("xyz"), datalayer.PutOptions{}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "covers/a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("Get() = %q, want %q", got, "abc")
	}

	// Mutating a returned slice must not change the stored object.
	got[0] = 'z'
	again, _ := s.Get(ctx, "covers/a")
	if string(again) != "abc" {
		t.Errorf("stored object changed to %q", again)
	}

	if diff := cmp.Diff([]string{"covers/a", "stego/a.wav"}, s.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	if err := s.Delete(ctx, "covers/a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "covers/a"); !errors.Is(err, datalayer.ErrBlobNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrBlobNotFound", err)
	}
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}
