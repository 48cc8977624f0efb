package control_loop

import "time"

type ControlLoop interface {
	// Cycle advances the control loop and returns the next output
	Cycle(target float64, measured float64, now time.Time) float64

	// Reset forgets all accumulated state
	Reset()
}
