package audio

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

// Decode sniffs the container and decodes r as WAV or Ogg Opus.
func Decode(r io.Reader) (*Clip, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio header: %w", err)
	}

	switch {
	case bytes.Equal(magic, []byte("RIFF")):
		return DecodeWAV(br)
	case bytes.Equal(magic, []byte("OggS")):
		return DecodeOggOpus(br)
	default:
		return nil, fmt.Errorf("%w: unrecognised container %q", ErrUnsupportedFormat, magic)
	}
}

// Load decodes r and down-mixes it to mono.
func Load(r io.Reader, mode DownmixMode) (Signal, error) {
	clip, err := Decode(r)
	if err != nil {
		return Signal{}, err
	}
	return clip.Downmix(mode)
}

// ReadFile loads the audio file at path as a mono Signal.
func ReadFile(path string, mode DownmixMode) (Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signal{}, err
	}
	defer f.Close()

	s, err := Load(f, mode)
	if err != nil {
		return Signal{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return s, nil
}

// WriteFile writes s to path as a float WAV.
func WriteFile(path string, s Signal, bits int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return EncodeWAV(f, s, bits)
}
