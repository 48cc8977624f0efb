package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/brewgpio/brewgpio/internal/actors"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/control_loop"
	"github.com/brewgpio/brewgpio/internal/persistence"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/ui"
)

const (
	DefaultCoolSetPoint         = 18.0
	DefaultCoolMinFlowThreshold = 1.0
	DefaultCoolMinFlowPower     = 20.0
	DefaultCoolInterval         = 100 * time.Millisecond
)

// CoolStep controls the pump of a counterflow chiller, based on the temperature
// differential between the wort input and output sensors
type CoolStep struct {
	progress

	Config configuration.StepConfig
	env    Environment
}

// CoolReading holds the values a single control cycle of a CoolStep is based on
type CoolReading struct {
	InputTemperature  *float64
	OutputTemperature float64
	// L/min
	Flow   float64
	Volume *float64
}

// Differential returns input - output temperature, 0 without an input temperature
func (r CoolReading) Differential() float64 {
	if r.InputTemperature == nil {
		return 0
	}
	return *r.InputTemperature - r.OutputTemperature
}

func (step *CoolStep) GetId() string {
	return step.Config.ID
}

func (step *CoolStep) GetType() string {
	return TypeCool
}

func (step *CoolStep) GetConfig() configuration.StepConfig {
	return step.Config
}

// coolController decides the pump level of a single cycle
type coolController struct {
	loop             *control_loop.PidControlLoop
	setPoint         float64
	minFlowThreshold float64
	minFlowPower     float64
}

func newCoolController(id string, coolConfig *configuration.CoolStepConfig, maxOutput int) (*coolController, error) {
	loop, err := control_loop.NewPidControlLoop("step "+id, coolConfig.Pid, 0, float64(maxOutput))
	if err != nil {
		return nil, err
	}
	controller := &coolController{
		loop:             loop,
		setPoint:         coolConfig.SetPoint,
		minFlowThreshold: coolConfig.MinFlowThreshold,
		minFlowPower:     coolConfig.MinFlowPower,
	}
	if controller.setPoint == 0 {
		controller.setPoint = DefaultCoolSetPoint
	}
	if controller.minFlowThreshold <= 0 {
		controller.minFlowThreshold = DefaultCoolMinFlowThreshold
	}
	if controller.minFlowPower <= 0 {
		controller.minFlowPower = DefaultCoolMinFlowPower
	}
	return controller, nil
}

// apply runs a PID cycle and drives the pump. While the differential is negative and the flow is
// below the threshold, the pump is forced to the minimum flow power instead of the PID output.
func (c *coolController) apply(pump actors.Actor, reading CoolReading, now time.Time) (pidOutput float64, forced bool, err error) {
	diff := reading.Differential()
	pidOutput = c.loop.Cycle(c.setPoint, diff, now)

	if diff < 0 && reading.Flow < c.minFlowThreshold {
		return pidOutput, true, pump.SetPower(c.minFlowPower)
	}
	return pidOutput, false, pump.SetOutput(pidOutput)
}

type coolCollaborators struct {
	input  sensors.Sensor
	output sensors.Sensor
	flow   sensors.Sensor
	volume sensors.Sensor
	pump   actors.Actor
}

// lookup resolves all collaborators, returning a message for the operator if a required one is missing
func (step *CoolStep) lookup() (coolCollaborators, string) {
	coolConfig := step.Config.Cool
	var c coolCollaborators
	var ok bool

	if len(coolConfig.InputSensor) > 0 {
		if c.input, ok = step.env.Sensors.Get(coolConfig.InputSensor); !ok {
			ui.Warning("Step %s: input sensor %s not found, using a differential of 0", step.GetId(), coolConfig.InputSensor)
		}
	}
	if c.output, ok = step.env.Sensors.Get(coolConfig.OutputSensor); !ok {
		return c, fmt.Sprintf("Sensor %s not found.", coolConfig.OutputSensor)
	}
	if c.flow, ok = step.env.Sensors.Get(coolConfig.FlowSensor); !ok {
		return c, fmt.Sprintf("Sensor %s not found.", coolConfig.FlowSensor)
	}
	if len(coolConfig.VolumeSensor) > 0 {
		if c.volume, ok = step.env.Sensors.Get(coolConfig.VolumeSensor); !ok {
			ui.Warning("Step %s: volume sensor %s not found", step.GetId(), coolConfig.VolumeSensor)
		}
	}
	if c.pump, ok = step.env.Actors.Get(coolConfig.Pump); !ok {
		return c, fmt.Sprintf("Actor %s not found.", coolConfig.Pump)
	}
	return c, ""
}

func (step *CoolStep) read(c coolCollaborators) (CoolReading, error) {
	var reading CoolReading
	var err error

	reading.OutputTemperature, err = c.output.GetValue()
	if err != nil {
		return reading, err
	}
	if c.input != nil {
		input, err := c.input.GetValue()
		if err != nil {
			return reading, err
		}
		reading.InputTemperature = &input
	}
	if rate, ok := step.env.Sensors.Flows().Rate(c.flow.GetId()); ok {
		reading.Flow = rate
	} else if reading.Flow, err = c.flow.GetValue(); err != nil {
		return reading, err
	}
	if c.volume != nil {
		volume, err := c.volume.GetValue()
		if err == nil {
			reading.Volume = &volume
		}
	}
	return reading, nil
}

func (step *CoolStep) Run(ctx context.Context) persistence.StepResult {
	coolConfig := step.Config.Cool
	result := persistence.StepResult{
		StepId: step.GetId(),
		Type:   step.GetType(),
		Start:  time.Now(),
	}
	if coolConfig.TargetTemperature != nil {
		result.Target = *coolConfig.TargetTemperature
	}

	c, missing := step.lookup()
	if len(missing) > 0 {
		step.env.Notifier.Notify(ui.NotificationError, step.GetId(), missing)
		return finish(result, persistence.StepStatusFailed, missing)
	}
	if c.volume != nil {
		result.Unit = c.volume.GetUnit()
	}

	controller, err := newCoolController(step.GetId(), coolConfig, c.pump.GetMaxOutput())
	if err != nil {
		step.env.Notifier.Notify(ui.NotificationError, step.GetId(), err.Error())
		return finish(result, persistence.StepStatusFailed, err.Error())
	}

	if err := c.pump.On(); err != nil {
		message := fmt.Sprintf("Unable to switch on pump %s: %v", c.pump.GetId(), err)
		step.env.Notifier.Notify(ui.NotificationError, step.GetId(), message)
		return finish(result, persistence.StepStatusFailed, message)
	}
	step.env.Notifier.Notify(ui.NotificationInfo, step.GetId(), "Cooling started.")

	interval := coolConfig.Interval
	if interval <= 0 {
		interval = DefaultCoolInterval
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	failing := false
	for {
		select {
		case <-ctx.Done():
			switchOff(step.GetId(), c.pump)
			return finish(result, persistence.StepStatusCancelled, "")
		case now := <-tick.C:
			reading, err := step.read(c)
			if err != nil {
				if !failing {
					ui.Warning("Step %s: %v", step.GetId(), err)
				}
				failing = true
				continue
			}
			if reading.Volume != nil {
				result.Transferred = *reading.Volume
			}

			if coolConfig.TargetTemperature != nil && reading.OutputTemperature <= *coolConfig.TargetTemperature {
				switchOff(step.GetId(), c.pump)
				message := fmt.Sprintf("Cooling finished. Output temperature: %.1f", reading.OutputTemperature)
				if reading.Volume != nil {
					message += fmt.Sprintf(", transferred %.2f %s", *reading.Volume, result.Unit)
				}
				message += "."
				step.env.Notifier.Notify(ui.NotificationSuccess, step.GetId(), message)
				step.setSummary("")
				return finish(result, persistence.StepStatusDone, message)
			}

			pidOutput, forced, err := controller.apply(c.pump, reading, now)
			if err != nil {
				if !failing {
					ui.Warning("Step %s: %v", step.GetId(), err)
				}
				failing = true
				continue
			}
			failing = false

			step.setSummary("Output: %.1f, Diff: %.1f, Flow: %.2f, Pump: %d%%", reading.OutputTemperature, reading.Differential(), reading.Flow, c.pump.GetPower())
			ui.Debug("Step %s: output temp %.2f, diff %.2f, flow %.2f, PID output %.2f, forced %v, pump power %d%%",
				step.GetId(), reading.OutputTemperature, reading.Differential(), reading.Flow, pidOutput, forced, c.pump.GetPower())
		}
	}
}
