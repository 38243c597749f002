package stego

import (
	"errors"
	"fmt"
)

var ErrInsufficientCapacity = errors.New("insufficient embedding capacity")

// CapacityError reports a bitstream that does not fit in the available blocks.
type CapacityError struct {
	Required  int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("audio too short: maximum capacity %d bits, required %d bits", e.Available, e.Required)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}

var _ error = (*CapacityError)(nil)
