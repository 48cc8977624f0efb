package control_loop

import (
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

type PidControlLoopDefaults struct {
	P float64
	I float64
	D float64
}

var (
	DefaultPidConfig = PidControlLoopDefaults{
		P: 2,
		I: 5,
		D: 1,
	}
)

// PidControlLoop is a PidLoop based control loop implementation.
// The target of each cycle becomes the setpoint of the underlying PidLoop.
type PidControlLoop struct {
	name    string
	pidLoop *util.PidLoop
}

// NewPidControlLoop creates a PidControlLoop with an output range of [min, max].
// Gains that are all zero are replaced with DefaultPidConfig.
func NewPidControlLoop(name string, config configuration.PidConfig, min float64, max float64) (*PidControlLoop, error) {
	p, i, d := config.P, config.I, config.D
	if p == 0 && i == 0 && d == 0 {
		p, i, d = DefaultPidConfig.P, DefaultPidConfig.I, DefaultPidConfig.D
	}

	pidLoop, err := util.NewPidLoop(p, i, d, min, max,
		util.WithWindupGuard(config.WindupGuard),
		util.WithSampleTime(config.SampleTime),
	)
	if err != nil {
		return nil, util.NewConfigurationError(name, err)
	}

	return &PidControlLoop{
		name:    name,
		pidLoop: pidLoop,
	}, nil
}

func (l *PidControlLoop) Cycle(target float64, measured float64, now time.Time) float64 {
	l.pidLoop.SetSetPoint(target)
	result := l.pidLoop.Update(measured, now)

	ui.Debug("PidControlLoop %s: target: %.4f, measured: %.4f, result: %.4f", l.name, target, measured, result)

	return result
}

func (l *PidControlLoop) Reset() {
	l.pidLoop.Reset()
}

func (l *PidControlLoop) SetPoint() float64 {
	return l.pidLoop.SetPoint()
}

func (l *PidControlLoop) SetGains(p, i, d float64) error {
	return l.pidLoop.SetGains(p, i, d)
}

func (l *PidControlLoop) Gains() (p, i, d float64) {
	return l.pidLoop.Gains()
}

func (l *PidControlLoop) LastOutput() float64 {
	return l.pidLoop.LastOutput()
}
