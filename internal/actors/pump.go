package actors

import (
	"context"
	"fmt"
	"time"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/control_loop"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

const DefaultPumpSampleTime = 1 * time.Second

// PumpActor drives a pump on a PWM pin, optionally powered through a relay.
// While a target flow rate is set, the output is controlled by a PID loop
// using the flow rate published by the configured flow sensor.
type PumpActor struct {
	base
	board board.Board
	flows *sensors.FlowRegistry

	loop       *control_loop.PidControlLoop
	sampleTime time.Duration

	automatic   bool
	targetFlow  float64
	lastFlow    float64
	missingFlow bool
}

func NewPumpActor(config configuration.ActorConfig, env Environment) (*PumpActor, error) {
	if env.Board == nil {
		return nil, util.NewConfigurationError("actor "+config.ID, fmt.Errorf("no board available"))
	}
	pumpConfig := config.Pump

	actor := &PumpActor{
		base:       base{Config: config, levels: newLevels(pumpConfig.MaxOutput)},
		board:      env.Board,
		sampleTime: pumpConfig.Pid.SampleTime,
	}
	if actor.sampleTime <= 0 {
		actor.sampleTime = DefaultPumpSampleTime
	}

	if len(pumpConfig.FlowSensor) > 0 {
		if env.Sensors == nil {
			return nil, util.NewConfigurationError("actor "+config.ID, fmt.Errorf("no sensor registry available"))
		}
		actor.flows = env.Sensors.Flows()
	}

	// the loop is cycled once per sample time, so it does not gate on its own
	pidConfig := pumpConfig.Pid
	pidConfig.SampleTime = 0
	loop, err := control_loop.NewPidControlLoop("actor "+config.ID, pidConfig, 0, float64(actor.levels.maxOutput))
	if err != nil {
		return nil, err
	}
	actor.loop = loop

	var initErr error
	if pumpConfig.Addressing == configuration.PumpAddressingRaw {
		initErr = actor.levels.setOutput(pumpConfig.InitialPower)
	} else {
		initErr = actor.levels.setPower(pumpConfig.InitialPower)
	}
	if initErr != nil {
		return nil, util.NewConfigurationError("actor "+config.ID, initErr)
	}

	if pumpConfig.TargetFlow > 0 && actor.flows != nil {
		actor.automatic = true
		actor.targetFlow = pumpConfig.TargetFlow
	}
	return actor, nil
}

func (actor *PumpActor) Start(ctx context.Context) error {
	pumpConfig := actor.Config.Pump
	if err := actor.board.SetPinModeAnalogOutput(pumpConfig.Pin); err != nil {
		return util.NewConfigurationError("actor "+actor.GetId(), err)
	}
	if pumpConfig.RelayPin != nil {
		if err := actor.board.SetPinModeDigitalOutput(*pumpConfig.RelayPin); err != nil {
			return util.NewConfigurationError("actor "+actor.GetId(), err)
		}
	}
	return actor.Off()
}

// Run adjusts the pump output once per sample time while the pump is on and a target flow rate is set
func (actor *PumpActor) Run(ctx context.Context) error {
	tick := time.NewTicker(actor.sampleTime)
	defer tick.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-tick.C:
			err := actor.Adjust(now)
			if err != nil {
				if !failing {
					ui.Warning("Actor %s: %v", actor.GetId(), err)
				}
				failing = true
				continue
			}
			failing = false
		}
	}
}

// Adjust runs a single PID cycle, using the latest flow rate as process variable.
// If no flow rate is available, the output is kept.
func (actor *PumpActor) Adjust(now time.Time) error {
	actor.mu.Lock()
	defer actor.mu.Unlock()

	if !actor.levels.state || !actor.automatic {
		return nil
	}

	flowSensor := actor.Config.Pump.FlowSensor
	rate, ok := actor.flows.Rate(flowSensor)
	if !ok {
		if !actor.missingFlow {
			ui.Warning("Actor %s: no flow rate available from sensor '%s'", actor.GetId(), flowSensor)
		}
		actor.missingFlow = true
		return nil
	}
	actor.missingFlow = false
	actor.lastFlow = rate

	output := actor.loop.Cycle(actor.targetFlow, rate, now)
	previous := actor.levels
	if err := actor.levels.setOutput(output); err != nil {
		return err
	}
	if err := actor.writeOutput(); err != nil {
		actor.levels = previous
		return err
	}
	ui.Debug("Actor %s: flow %.2f L/min, target %.2f L/min, output %d", actor.GetId(), rate, actor.targetFlow, actor.levels.output)
	return nil
}

func (actor *PumpActor) writeOutput() error {
	return actor.board.AnalogWrite(actor.Config.Pump.Pin, actor.levels.output)
}

func (actor *PumpActor) writeRelay(on bool) error {
	relayPin := actor.Config.Pump.RelayPin
	if relayPin == nil {
		return nil
	}
	value := 0
	if on {
		value = 1
	}
	return actor.board.DigitalWrite(*relayPin, value)
}

func (actor *PumpActor) On() error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.writeRelay(true); err != nil {
		return err
	}
	if err := actor.writeOutput(); err != nil {
		return err
	}
	actor.levels.state = true
	ui.Info("Actor %s: on (power %d%%, output %d)", actor.GetId(), actor.levels.power, actor.levels.output)
	return nil
}

func (actor *PumpActor) Off() error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.board.AnalogWrite(actor.Config.Pump.Pin, 0); err != nil {
		return err
	}
	if err := actor.writeRelay(false); err != nil {
		return err
	}
	actor.levels.state = false
	actor.loop.Reset()
	ui.Info("Actor %s: off", actor.GetId())
	return nil
}

// SetPower switches the pump to manual control with the given power in percent
func (actor *PumpActor) SetPower(percent float64) error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.levels.setPower(percent); err != nil {
		return err
	}
	actor.automatic = false
	if !actor.levels.state {
		return nil
	}
	return actor.writeOutput()
}

// SetOutput switches the pump to manual control with the given raw output
func (actor *PumpActor) SetOutput(raw float64) error {
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if err := actor.levels.setOutput(raw); err != nil {
		return err
	}
	actor.automatic = false
	if !actor.levels.state {
		return nil
	}
	return actor.writeOutput()
}

// Drive sets the level of the pump, interpreted according to the configured addressing
func (actor *PumpActor) Drive(value float64) error {
	if actor.Config.Pump.Addressing == configuration.PumpAddressingRaw {
		return actor.SetOutput(value)
	}
	return actor.SetPower(value)
}

// SetFlowRate sets the target flow rate in L/min and enables automatic control.
// A target of 0 disables automatic control, the current output is kept.
func (actor *PumpActor) SetFlowRate(target float64) error {
	if !util.IsFinite(target) || target < 0 {
		return fmt.Errorf("%w: flow rate must be a non-negative number, got %v", util.ErrInvalidParameter, target)
	}
	actor.mu.Lock()
	defer actor.mu.Unlock()
	if target > 0 && actor.flows == nil {
		return fmt.Errorf("actor %s: no flow sensor configured", actor.GetId())
	}
	actor.targetFlow = target
	actor.automatic = target > 0
	ui.Info("Actor %s: target flow rate set to %.2f L/min", actor.GetId(), target)
	return nil
}

// GetTargetFlow returns the target flow rate in L/min, 0 if automatic control is disabled
func (actor *PumpActor) GetTargetFlow() float64 {
	actor.mu.RLock()
	defer actor.mu.RUnlock()
	if !actor.automatic {
		return 0
	}
	return actor.targetFlow
}

// GetFlowRate returns the flow rate in L/min used in the last PID cycle
func (actor *PumpActor) GetFlowRate() float64 {
	actor.mu.RLock()
	defer actor.mu.RUnlock()
	return actor.lastFlow
}

func (actor *PumpActor) IsAutomatic() bool {
	actor.mu.RLock()
	defer actor.mu.RUnlock()
	return actor.automatic
}
