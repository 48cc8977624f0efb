package util

import (
	"time"

	"github.com/brewgpio/brewgpio/internal/ui"
)

// RateIntegrator accumulates a per-minute rate (e.g. a flow rate in L/min)
// into a cumulative total (e.g. a volume in L) using the wall clock time between samples.
type RateIntegrator struct {
	total    float64
	lastTime time.Time

	// number of samples with a timestamp before the previous one
	anomalies int
}

func NewRateIntegrator(now time.Time) *RateIntegrator {
	return &RateIntegrator{
		lastTime: now,
	}
}

// Integrate adds ratePerMinute * elapsed seconds / 60 to the total and returns the new total.
// A timestamp before the previous sample is treated as zero elapsed time,
// non-finite rates do not change the total.
func (r *RateIntegrator) Integrate(ratePerMinute float64, now time.Time) float64 {
	if now.Before(r.lastTime) {
		r.anomalies++
		ui.Warning("Rate integrator received a sample from the past (%v < %v), ignoring elapsed time", now, r.lastTime)
		return r.total
	}

	elapsed := now.Sub(r.lastTime).Seconds()
	r.lastTime = now

	if !IsFinite(ratePerMinute) {
		r.anomalies++
		ui.Warning("Rate integrator received a non-finite rate: %v", ratePerMinute)
		return r.total
	}

	r.total += ratePerMinute * elapsed / 60
	return r.total
}

func (r *RateIntegrator) Total() float64 {
	return r.total
}

func (r *RateIntegrator) LastTime() time.Time {
	return r.lastTime
}

// Anomalies returns the number of out-of-order or non-finite samples seen so far
func (r *RateIntegrator) Anomalies() int {
	return r.anomalies
}

// Reset zeroes the total and re-anchors the clock at now
func (r *RateIntegrator) Reset(now time.Time) {
	r.total = 0
	r.lastTime = now
}
