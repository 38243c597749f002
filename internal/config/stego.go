package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/glizzus/sound-cipher/internal/audio"
	"github.com/glizzus/sound-cipher/internal/pipeline"
	"github.com/glizzus/sound-cipher/internal/stego"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// StegoConfig is the codec configuration. Sender and receiver must agree on
// BlockSize, DCTCoeff, Alpha and Downmix; a YAML profile is the usual way to
// share them.
type StegoConfig struct {
	BlockSize       int     `env:"STEGO_BLOCK_SIZE, default=1024" yaml:"block_size"`
	DCTCoeff        int     `env:"STEGO_DCT_COEFF, default=3" yaml:"dct_coeff"`
	Alpha           float64 `env:"STEGO_ALPHA, default=5.0" yaml:"alpha"`
	KeyBits         int     `env:"STEGO_KEY_BITS, default=2048" yaml:"key_bits"`
	MaxMessageBytes int     `env:"STEGO_MAX_MESSAGE_BYTES, default=190" yaml:"max_message_bytes"`
	CoverWAVBits    int     `env:"STEGO_COVER_WAV_BITS, default=64" yaml:"cover_wav_bits"`
	Downmix         string  `env:"STEGO_DOWNMIX, default=average" yaml:"downmix"`
	Profile         string  `env:"STEGO_PROFILE" yaml:"-"`
}

// NewStegoConfigFromEnv reads the STEGO_* variables and, when STEGO_PROFILE
// names a file, overlays that profile.
func NewStegoConfigFromEnv() (*StegoConfig, error) {
	var cfg StegoConfig
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return nil, err
	}
	if cfg.Profile != "" {
		if err := cfg.ApplyProfile(cfg.Profile); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyProfile overwrites the fields present in the YAML file at path.
// Unknown keys are rejected so a typo cannot silently fall back to a default.
func (c *StegoConfig) ApplyProfile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open stego profile: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode stego profile %s: %w", path, err)
	}
	c.Profile = path
	return nil
}

func (c *StegoConfig) Validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	if _, err := audio.ParseDownmixMode(c.Downmix); err != nil {
		return err
	}
	if c.CoverWAVBits != 32 && c.CoverWAVBits != 64 {
		return fmt.Errorf("STEGO_COVER_WAV_BITS must be 32 or 64, got %d", c.CoverWAVBits)
	}
	if c.KeyBits < 1024 {
		return fmt.Errorf("STEGO_KEY_BITS must be at least 1024, got %d", c.KeyBits)
	}
	return nil
}

func (c *StegoConfig) Params() (stego.Params, error) {
	p := stego.Params{
		BlockSize: c.BlockSize,
		Coeff:     c.DCTCoeff,
		Alpha:     c.Alpha,
	}
	if err := p.Validate(); err != nil {
		return stego.Params{}, err
	}
	return p, nil
}

func (c *StegoConfig) PipelineOptions() (pipeline.Options, error) {
	p, err := c.Params()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{Params: p, MaxMessageBytes: c.MaxMessageBytes}, nil
}

// DownmixMode returns the validated channel reduction mode.
func (c *StegoConfig) DownmixMode() audio.DownmixMode {
	mode, err := audio.ParseDownmixMode(c.Downmix)
	if err != nil {
		return audio.DownmixAverage
	}
	return mode
}
