package stego

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultBlockSize = 1024
	DefaultCoeff     = 3
	DefaultAlpha     = 5.0
)

var ErrInvalidParams = errors.New("invalid stego parameters")

// Params must be identical on the embedding and extracting side.
type Params struct {
	BlockSize int
	Coeff     int
	Alpha     float64
}

func DefaultParams() Params {
	return Params{
		BlockSize: DefaultBlockSize,
		Coeff:     DefaultCoeff,
		Alpha:     DefaultAlpha,
	}
}

func (p Params) Validate() error {
	var errs []error
	if p.BlockSize < 1 {
		errs = append(errs, fmt.Errorf("block size must be positive, got %d", p.BlockSize))
	}
	if p.Coeff < 0 || p.Coeff >= p.BlockSize {
		errs = append(errs, fmt.Errorf("coefficient index %d outside block of %d", p.Coeff, p.BlockSize))
	}
	if math.IsNaN(p.Alpha) || math.IsInf(p.Alpha, 0) || p.Alpha <= 0 {
		errs = append(errs, fmt.Errorf("alpha must be a positive finite number, got %v", p.Alpha))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidParams, errors.Join(errs...))
	}
	return nil
}

func (p Params) Layout() Layout {
	return Layout{BlockSize: p.BlockSize}
}
