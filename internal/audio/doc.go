// Package audio reads cover audio and writes stego audio.
//
// Covers may be RIFF/WAVE (integer PCM or IEEE float) or Ogg Opus. They are
// decoded to interleaved float64 samples in [-1, 1] and reduced to a single
// channel before any embedding. Stego output is always a mono IEEE float WAV so
// that re-reading it yields the exact samples the embedder produced.
package audio
