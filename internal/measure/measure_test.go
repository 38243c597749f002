package measure_test

import (
	"errors"
	"math"
	"testing"

	"github.com/glizzus/sound-cipher/internal/frame"
	"github.com/glizzus/sound-cipher/internal/measure"
	"github.com/glizzus/sound-cipher/internal/stego"
	"github.com/google/go-cmp/cmp"
)

func TestSNR(t *testing.T) {
	tests := []struct {
		name     string
		original []float64
		stego    []float64
		want     float64
	}{
		{name: "identical", original: []float64{1, -1, 0.5}, stego: []float64{1, -1, 0.5}, want: math.Inf(1)},
		{name: "ten percent error", original: []float64{1, 1}, stego: []float64{1.1, 0.9}, want: 20},
		{name: "silent original", original: []float64{0, 0}, stego: []float64{0.1, 0}, want: math.Inf(-1)},
		{name: "uses overlap only", original: []float64{1, 1, 5}, stego: []float64{1.1, 0.9}, want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := measure.SNR(tt.original, tt.stego)
			if !closeDB(got, tt.want) {
				t.Errorf("SNR() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPSNR(t *testing.T) {
	// peak 1, MSE 0.01 -> 20 dB
	got := measure.PSNR([]float64{-1, 0.5}, []float64{-0.9, 0.6})
	if !closeDB(got, 20) {
		t.Errorf("PSNR() = %v, want 20", got)
	}
	if got := measure.PSNR(nil, nil); !math.IsInf(got, 1) {
		t.Errorf("PSNR(empty) = %v, want +Inf", got)
	}
}

func TestAvalanche(t *testing.T) {
	tests := []struct {
		name string
		a, b []byte
		want float64
	}{
		{name: "equal", a: []byte{0xAA, 0x55}, b: []byte{0xAA, 0x55}, want: 0},
		{name: "inverted", a: []byte{0x00}, b: []byte{0xFF}, want: 100},
		{name: "half", a: []byte{0x0F, 0x00}, b: []byte{0x00, 0x0F}, want: 50},
		{name: "shorter wins", a: []byte{0x01}, b: []byte{0x00, 0xFF}, want: 12.5},
		{name: "empty", a: nil, b: []byte{1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := measure.Avalanche(tt.a, tt.b); got != tt.want {
				t.Errorf("Avalanche() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntropy(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}

	tests := []struct {
		name string
		data []byte
		want float64
	}{
		{name: "empty", data: nil, want: 0},
		{name: "constant", data: []byte{7, 7, 7, 7}, want: 0},
		{name: "two symbols", data: []byte{0, 1, 0, 1}, want: 1},
		{name: "uniform", data: all, want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := measure.Entropy(tt.data); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Entropy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCapacity(t *testing.T) {
	got := measure.Capacity(2080*1024+5, 1024)
	want := measure.CapacityReport{
		Samples:      2080*1024 + 5,
		Blocks:       2080,
		Bits:         2080,
		PayloadBytes: 256,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Capacity() mismatch (-want +got):\n%s", diff)
	}
	if !got.Fits(256) || got.Fits(257) {
		t.Errorf("Fits() disagrees with PayloadBytes %d", got.PayloadBytes)
	}

	if empty := measure.Capacity(100, 1024); empty.Bits != 0 || empty.PayloadBytes != 0 {
		t.Errorf("Capacity(100, 1024) = %+v, want zero capacity", empty)
	}
}

func TestCapacityMatchesEmbedder(t *testing.T) {
	p := stego.Params{BlockSize: 64, Coeff: 3, Alpha: 5.0}
	for _, total := range []int{0, 63, 64, 65, 64 * frame.Bits(1), 64*frame.Bits(1) - 1} {
		report := measure.Capacity(total, p.BlockSize)
		if want := stego.Capacity(total, p); report.Bits != want {
			t.Errorf("Capacity(%d).Bits = %d, stego.Capacity = %d", total, report.Bits, want)
		}

		// A payload reported as fitting must embed, and one byte more must not.
		samples := make([]float64, total)
		if report.PayloadBytes > 0 {
			if _, err := stego.Hide(samples, make([]byte, report.PayloadBytes), p); err != nil {
				t.Errorf("Hide(%d bytes) into %d samples error = %v", report.PayloadBytes, total, err)
			}
		}
		if _, err := stego.Hide(samples, make([]byte, report.PayloadBytes+1), p); !errors.Is(err, stego.ErrInsufficientCapacity) {
			t.Errorf("Hide(%d bytes) into %d samples error = %v, want ErrInsufficientCapacity", report.PayloadBytes+1, total, err)
		}
	}
}

func closeDB(got, want float64) bool {
	if math.IsInf(want, 0) {
		return got == want
	}
	return math.Abs(got-want) < 1e-9
}
