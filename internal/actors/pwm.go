package actors

import (
	"context"
	"fmt"
	"time"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/control_loop"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

const rampInterval = 100 * time.Millisecond

// PwmActor drives a PWM pin, e.g. a heating element via SSR or a DC pump
type PwmActor struct {
	base
	board board.Board

	// nil applies changes immediately
	ramp    *control_loop.DirectControlLoop
	applied float64
}

func NewPwmActor(config configuration.ActorConfig, env Environment) (*PwmActor, error) {
	if env.Board == nil {
		return nil, util.NewConfigurationError("actor "+config.ID, fmt.Errorf("no board available"))
	}
	pwmConfig := config.Pwm
	actor := &PwmActor{
		base:  base{Config: config, levels: newLevels(pwmConfig.MaxOutput)},
		board: env.Board,
	}
	if err := actor.levels.setPower(pwmConfig.InitialPower); err != nil {
		return nil, util.NewConfigurationError("actor "+config.ID, err)
	}
	if pwmConfig.Ramp > 0 {
		ramp := pwmConfig.Ramp
		actor.ramp = control_loop.NewDirectControlLoop(&ramp)
	}
	return actor, nil
}

func (actor *PwmActor) Start(ctx context.Context) error {
	if err := actor.board.SetPinModeAnalogOutput(actor.Config.Pwm.Pin); err != nil {
		return util.NewConfigurationError("actor "+actor.GetId(), err)
	}
	return actor.Off()
}

// Run moves the applied output towards the target output, if a ramp is configured
func (actor *PwmActor) Run(ctx context.Context) error {
	if actor.ramp == nil {
		return waitForDone(ctx)
	}

	tick := time.NewTicker(rampInterval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tick.C:
			if err := actor.Step(now); err != nil {
				ui.Warning("Actor %s: %v", actor.GetId(), err)
			}
		}
	}
}

// Step advances the ramp towards the target output
func (actor *PwmActor) Step(now time.Time) error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if actor.ramp == nil || !actor.levels.state {
		return nil
	}
	next := actor.ramp.Cycle(float64(actor.levels.output), actor.applied, now)
	return actor.write(next)
}

// apply writes the target output, or leaves it to the ramp
func (actor *PwmActor) apply() error {
	if actor.ramp != nil {
		return nil
	}
	return actor.write(float64(actor.levels.output))
}

func (actor *PwmActor) write(output float64) error {
	if err := actor.board.AnalogWrite(actor.Config.Pwm.Pin, int(output+0.5)); err != nil {
		return err
	}
	actor.applied = output
	return nil
}

func (actor *PwmActor) On() error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.apply(); err != nil {
		return err
	}
	actor.levels.state = true
	ui.Info("Actor %s: on (power %d%%, output %d)", actor.GetId(), actor.levels.power, actor.levels.output)
	return nil
}

func (actor *PwmActor) Off() error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.write(0); err != nil {
		return err
	}
	if actor.ramp != nil {
		actor.ramp.Reset()
	}
	actor.levels.state = false
	ui.Info("Actor %s: off", actor.GetId())
	return nil
}

func (actor *PwmActor) SetPower(percent float64) error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.levels.setPower(percent); err != nil {
		return err
	}
	if !actor.levels.state {
		return nil
	}
	return actor.apply()
}

func (actor *PwmActor) SetOutput(raw float64) error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.levels.setOutput(raw); err != nil {
		return err
	}
	if !actor.levels.state {
		return nil
	}
	return actor.apply()
}

// GetAppliedOutput returns the output currently written to the pin
func (actor *PwmActor) GetAppliedOutput() float64 {
	actor.mu.RLock()
	defer actor.mu.RUnlock()
	return actor.applied
}
