// Package testsignal generates deterministic synthetic audio for tests and
// for producing cover files.
package testsignal

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	VariantMultiTone   = "multitone"
	VariantAMMultisine = "am_multisine"
	VariantChirp       = "chirp"
	VariantNoise       = "noise"
	VariantSilence     = "silence"
)

var variants = []string{
	VariantMultiTone,
	VariantAMMultisine,
	VariantChirp,
	VariantNoise,
	VariantSilence,
}

// Variants lists the names accepted by Generate.
func Variants() []string {
	out := make([]string, len(variants))
	copy(out, variants)
	return out
}

// Generate returns samples mono samples of the named variant.
func Generate(variant string, sampleRate, samples int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if samples <= 0 {
		return nil, fmt.Errorf("invalid sample count: %d", samples)
	}

	switch variant {
	case VariantMultiTone:
		return MultiTone(sampleRate, samples, []float64{440, 1000, 2000}, 0.3), nil
	case VariantAMMultisine:
		return AMMultisine(sampleRate, samples), nil
	case VariantChirp:
		return Chirp(sampleRate, samples, 200, 8000, 0.5), nil
	case VariantNoise:
		return Noise(samples, 0.1, 1), nil
	case VariantSilence:
		return make([]float64, samples), nil
	default:
		return nil, fmt.Errorf("unknown signal variant %q", variant)
	}
}

// MultiTone sums equal-amplitude sines.
func MultiTone(sampleRate, samples int, freqs []float64, amp float64) []float64 {
	out := make([]float64, samples)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		var v float64
		for _, f := range freqs {
			v += amp * math.Sin(2*math.Pi*f*t)
		}
		out[i] = v
	}
	return out
}

// AMMultisine is three amplitude-modulated carriers.
func AMMultisine(sampleRate, samples int) []float64 {
	freqs := []float64{440, 1000, 2000}
	modFreqs := []float64{1.3, 2.7, 0.9}
	const amp = 0.25

	out := make([]float64, samples)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		var v float64
		for fi, f := range freqs {
			env := 0.5 + 0.5*math.Sin(2*math.Pi*modFreqs[fi]*t)
			v += amp * env * math.Sin(2*math.Pi*f*t)
		}
		out[i] = v
	}
	return out
}

// Chirp sweeps linearly from f0 to f1 Hz over the whole signal.
func Chirp(sampleRate, samples int, f0, f1, amp float64) []float64 {
	out := make([]float64, samples)
	duration := float64(samples) / float64(sampleRate)
	k := (f1 - f0) / duration
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = amp * math.Sin(2*math.Pi*(f0*t+0.5*k*t*t))
	}
	return out
}

// Noise is uniform white noise in [-amp, amp] from a fixed seed.
func Noise(samples int, amp float64, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]float64, samples)
	for i := range out {
		out[i] = amp * (2*rng.Float64() - 1)
	}
	return out
}

// Interleave repeats a mono signal across channels, scaling channel c by gains[c].
func Interleave(mono []float64, gains ...float64) []float64 {
	out := make([]float64, len(mono)*len(gains))
	for i, v := range mono {
		for c, g := range gains {
			out[i*len(gains)+c] = v * g
		}
	}
	return out
}
