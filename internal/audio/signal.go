package audio

import "fmt"

// Signal is a mono sample sequence.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration in seconds.
func (s Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Clip is decoded audio with interleaved channels.
type Clip struct {
	Samples    []float64
	Channels   int
	SampleRate int
}

// Frames is the number of samples per channel.
func (c *Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// DownmixMode selects how a multi-channel clip becomes mono. The same mode
// must be used when embedding and extracting.
type DownmixMode string

const (
	DownmixAverage DownmixMode = "average"
	DownmixFirst   DownmixMode = "first"
)

func ParseDownmixMode(s string) (DownmixMode, error) {
	switch DownmixMode(s) {
	case DownmixAverage, "":
		return DownmixAverage, nil
	case DownmixFirst:
		return DownmixFirst, nil
	default:
		return "", fmt.Errorf("unknown downmix mode %q", s)
	}
}

// Downmix returns the clip as a mono Signal. Mono clips are copied as is.
func (c *Clip) Downmix(mode DownmixMode) (Signal, error) {
	if c.Channels <= 0 {
		return Signal{}, fmt.Errorf("invalid channel count %d", c.Channels)
	}
	frames := c.Frames()
	out := make([]float64, frames)

	switch {
	case c.Channels == 1:
		copy(out, c.Samples[:frames])
	case mode == DownmixFirst:
		for i := range out {
			out[i] = c.Samples[i*c.Channels]
		}
	case mode == DownmixAverage || mode == "":
		for i := range out {
			var sum float64
			for _, v := range c.Samples[i*c.Channels : (i+1)*c.Channels] {
				sum += v
			}
			out[i] = sum / float64(c.Channels)
		}
	default:
		return Signal{}, fmt.Errorf("unknown downmix mode %q", mode)
	}

	return Signal{Samples: out, SampleRate: c.SampleRate}, nil
}
