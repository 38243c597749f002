package main

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/urfave/cli/v2"
)

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"sound-cipher"}, args...))
	return out.String(), err
}

func TestLocalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STEGO_KEY_DIR", filepath.Join(dir, "keys"))
	t.Setenv("STEGO_BLOCK_SIZE", "64")

	cover := filepath.Join(dir, "cover.wav")
	stegoPath := filepath.Join(dir, "stego.wav")

	if _, err := run(t, "keygen"); err != nil {
		t.Fatalf("keygen: %v", err)
	}
	if _, err := run(t, "keygen"); err == nil {
		t.Error("second keygen without --force should fail")
	}
	if _, err := run(t, "generate", "--seconds", "3", "--out", cover); err != nil {
		t.Fatalf("generate: %v", err)
	}

	out, err := run(t, "capacity", "--in", cover, "--public-key", filepath.Join(dir, "keys", "public.pem"))
	if err != nil {
		t.Fatalf("capacity: %v", err)
	}
	if !strings.Contains(out, "fits:         true") {
		t.Errorf("capacity output missing fit line:\n%s", out)
	}

	if _, err := run(t, "embed", "--in", cover, "--out", stegoPath, "--message", "Halo, ini pesan rahasia!"); err != nil {
		t.Fatalf("embed: %v", err)
	}
	out, err = run(t, "extract", "--in", stegoPath)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got := strings.TrimSpace(out); got != "Halo, ini pesan rahasia!" {
		t.Errorf("extract printed %q", got)
	}

	out, err = run(t, "measure", "distortion", "--original", cover, "--stego", stegoPath)
	if err != nil {
		t.Fatalf("measure distortion: %v", err)
	}
	if !strings.Contains(out, "SNR:") || !strings.Contains(out, "PSNR:") {
		t.Errorf("unexpected distortion output:\n%s", out)
	}
}

func TestEmbedRejectsLongMessage(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STEGO_KEY_DIR", filepath.Join(dir, "keys"))
	t.Setenv("STEGO_BLOCK_SIZE", "64")
	cover := filepath.Join(dir, "cover.wav")

	if _, err := run(t, "generate", "--seconds", "3", "--out", cover); err != nil {
		t.Fatal(err)
	}
	_, err := run(t, "embed", "--in", cover, "--out", filepath.Join(dir, "s.wav"), "--message", strings.Repeat("ü", 96))
	if err == nil || !strings.Contains(err.Error(), "Message too long") {
		t.Errorf("embed error = %v, want message too long", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "s.wav")); !os.IsNotExist(statErr) {
		t.Error("stego file written for rejected message")
	}
}

func TestMeasureCipher(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STEGO_KEY_DIR", dir)
	if _, err := run(t, "keygen", "--bits", "1024"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "measure", "cipher", "--public-key", filepath.Join(dir, "public.pem"), "--message", "hello")
	if err != nil {
		t.Fatalf("measure cipher: %v", err)
	}
	if !strings.Contains(out, "Avalanche:") || !strings.Contains(out, "Entropy:") {
		t.Errorf("unexpected cipher output:\n%s", out)
	}
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		name    string
		input   *bufio.Reader
		want    string
		wantErr bool
	}{
		{name: "line", input: bufio.NewReader(strings.NewReader("rahasia\r\nignored")), want: "rahasia"},
		{name: "no trailing newline", input: bufio.NewReader(strings.NewReader("rahasia")), want: "rahasia"},
		{name: "empty input", input: bufio.NewReader(strings.NewReader("")), want: ""},
		{name: "read error", input: bufio.NewReader(iotest.ErrReader(errors.New("tty gone"))), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved := stdinReader
			stdinReader = tt.input
			t.Cleanup(func() { stdinReader = saved })

			got, err := prompt("Message")
			if (err != nil) != tt.wantErr {
				t.Fatalf("prompt() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("prompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmbedFailsOnUnreadableStdin(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STEGO_KEY_DIR", filepath.Join(dir, "keys"))
	t.Setenv("STEGO_BLOCK_SIZE", "64")
	cover := filepath.Join(dir, "cover.wav")
	if _, err := run(t, "generate", "--seconds", "3", "--out", cover); err != nil {
		t.Fatalf("generate: %v", err)
	}

	saved := stdinReader
	stdinReader = bufio.NewReader(iotest.ErrReader(errors.New("tty gone")))
	t.Cleanup(func() { stdinReader = saved })

	out := filepath.Join(dir, "stego.wav")
	if _, err := run(t, "embed", "--in", cover, "--out", out); err == nil {
		t.Fatal("embed with unreadable stdin should fail")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("stego file written despite failed prompt: %v", err)
	}
}
