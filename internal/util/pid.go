package util

import (
	"fmt"
	"math"
	"time"
)

type PidLoop struct {
	// Proportional Constant
	p float64
	// Integral Constant
	i float64
	// Derivative Constant
	d float64
	// target value
	setPoint float64
	// Minimum output value
	outMin float64
	// Maximum output value
	outMax float64
	// bound of the integral accumulator, in both directions
	windupGuard float64
	// minimum time between two computations, 0 recomputes on every call
	sampleTime time.Duration

	// error of the previous computation
	lastError float64
	// integral from previous loop + error, i.e. integral error
	integral float64
	// last execution time of the loop
	lastTime time.Time
	// last output value
	lastOutput float64
}

type PidOption func(loop *PidLoop)

// WithWindupGuard limits the integral accumulator to [-guard, +guard]
func WithWindupGuard(guard float64) PidOption {
	return func(loop *PidLoop) {
		if guard > 0 {
			loop.windupGuard = guard
		}
	}
}

// WithSampleTime only recomputes the output once at least sampleTime has passed since the last computation
func WithSampleTime(sampleTime time.Duration) PidOption {
	return func(loop *PidLoop) {
		if sampleTime > 0 {
			loop.sampleTime = sampleTime
		}
	}
}

// WithSetPoint sets the initial target value
func WithSetPoint(setPoint float64) PidOption {
	return func(loop *PidLoop) {
		loop.setPoint = setPoint
	}
}

func NewPidLoop(p, i, d, min, max float64, options ...PidOption) (*PidLoop, error) {
	if !IsFinite(p) || !IsFinite(i) || !IsFinite(d) {
		return nil, fmt.Errorf("%w: PID gains must be finite (p=%v, i=%v, d=%v)", ErrInvalidParameter, p, i, d)
	}
	if math.IsNaN(min) || math.IsNaN(max) || min >= max {
		return nil, fmt.Errorf("%w: output limits must satisfy min < max (min=%v, max=%v)", ErrInvalidParameter, min, max)
	}

	loop := &PidLoop{
		p:           p,
		i:           i,
		d:           d,
		outMin:      min,
		outMax:      max,
		windupGuard: math.Inf(1),
	}
	for _, option := range options {
		option(loop)
	}
	if !IsFinite(loop.setPoint) {
		return nil, fmt.Errorf("%w: setpoint must be finite, got %v", ErrInvalidParameter, loop.setPoint)
	}
	return loop, nil
}

// Update advances the pid loop with a new measurement taken at the given time
// and returns the new (clamped) output.
// If no time has passed since the last computation (or less than the configured sample time),
// the previous output is returned unchanged.
func (p *PidLoop) Update(measured float64, now time.Time) float64 {
	if !IsFinite(measured) {
		return p.lastOutput
	}

	err := p.setPoint - measured

	if p.lastTime.IsZero() {
		// no delta time available yet, only the proportional term applies
		p.lastTime = now
		p.lastError = err
		p.lastOutput = Coerce(p.p*err, p.outMin, p.outMax)
		return p.lastOutput
	}

	dt := now.Sub(p.lastTime).Seconds()
	if dt <= 0 {
		return p.lastOutput
	}
	if p.sampleTime > 0 && dt < p.sampleTime.Seconds() {
		return p.lastOutput
	}

	// --- P Term ---
	proportionalTerm := p.p * err

	// --- I Term (with anti-windup) ---
	p.integral = Coerce(p.integral+err*dt, -p.windupGuard, p.windupGuard)
	integralTerm := p.i * p.integral

	// --- D Term (on error) ---
	derivativeTerm := p.d * (err - p.lastError) / dt

	output := Coerce(proportionalTerm+integralTerm+derivativeTerm, p.outMin, p.outMax)
	if !IsFinite(output) {
		return p.lastOutput
	}

	p.lastTime = now
	p.lastError = err
	p.lastOutput = output

	return output
}

// Loop sets the target and advances the pid loop using the current time
func (p *PidLoop) Loop(target float64, measured float64) float64 {
	p.SetSetPoint(target)
	return p.Update(measured, time.Now())
}

// SetSetPoint changes the target value without resetting the integral term
func (p *PidLoop) SetSetPoint(setPoint float64) {
	if !IsFinite(setPoint) {
		return
	}
	p.setPoint = setPoint
}

func (p *PidLoop) SetPoint() float64 {
	return p.setPoint
}

// SetGains changes the pid constants without resetting the integral term
func (p *PidLoop) SetGains(kp, ki, kd float64) error {
	if !IsFinite(kp) || !IsFinite(ki) || !IsFinite(kd) {
		return fmt.Errorf("%w: PID gains must be finite (p=%v, i=%v, d=%v)", ErrInvalidParameter, kp, ki, kd)
	}
	p.p = kp
	p.i = ki
	p.d = kd
	return nil
}

func (p *PidLoop) Gains() (kp, ki, kd float64) {
	return p.p, p.i, p.d
}

func (p *PidLoop) Limits() (min, max float64) {
	return p.outMin, p.outMax
}

func (p *PidLoop) Integral() float64 {
	return p.integral
}

func (p *PidLoop) LastOutput() float64 {
	return p.lastOutput
}

// Reset clears the accumulated state, gains and setpoint are kept
func (p *PidLoop) Reset() {
	p.integral = 0
	p.lastError = 0
	p.lastTime = time.Time{}
	p.lastOutput = 0
}
