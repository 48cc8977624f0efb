package util

import (
	"fmt"
)

// Ema is an exponential moving average over a scalar series of samples.
type Ema struct {
	// weight of a new sample, in (0, 1]
	alpha float64

	value       float64
	initialized bool
}

// NewEma creates an exponential moving average filter.
// alpha must be within (0, 1], where 1 disables smoothing entirely.
func NewEma(alpha float64) (*Ema, error) {
	if !IsFinite(alpha) || alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("%w: alpha must be within (0, 1], got %v", ErrInvalidParameter, alpha)
	}
	return &Ema{alpha: alpha}, nil
}

// Update feeds a new sample into the filter and returns the smoothed value.
// The first sample after creation (or Reset) is returned as is.
// Non-finite samples are ignored and the current value is returned.
func (e *Ema) Update(sample float64) float64 {
	if !IsFinite(sample) {
		return e.value
	}
	if !e.initialized {
		e.value = sample
		e.initialized = true
		return e.value
	}
	e.value = e.alpha*sample + (1-e.alpha)*e.value
	return e.value
}

// Value returns the current smoothed value and whether any sample has been seen yet
func (e *Ema) Value() (float64, bool) {
	return e.value, e.initialized
}

func (e *Ema) Alpha() float64 {
	return e.alpha
}

// Reset forgets the smoothed value, alpha is kept
func (e *Ema) Reset() {
	e.value = 0
	e.initialized = false
}
