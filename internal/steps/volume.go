package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/persistence"
	"github.com/brewgpio/brewgpio/internal/ui"
)

const (
	DefaultVolumePollingRate = 200 * time.Millisecond
	DefaultVolumeSettleTime  = 1 * time.Second
)

// VolumeStep runs an actor (e.g. a pump or valve) until a volume sensor reaches the target volume
type VolumeStep struct {
	progress

	Config configuration.StepConfig
	env    Environment
}

func (step *VolumeStep) GetId() string {
	return step.Config.ID
}

func (step *VolumeStep) GetType() string {
	return TypeVolume
}

func (step *VolumeStep) GetConfig() configuration.StepConfig {
	return step.Config
}

func (step *VolumeStep) Run(ctx context.Context) persistence.StepResult {
	volumeConfig := step.Config.Volume
	result := persistence.StepResult{
		StepId: step.GetId(),
		Type:   step.GetType(),
		Start:  time.Now(),
		Target: volumeConfig.Target,
	}

	sensor, ok := step.env.Sensors.Get(volumeConfig.Sensor)
	if !ok {
		message := fmt.Sprintf("Sensor %s not found.", volumeConfig.Sensor)
		step.env.Notifier.Notify(ui.NotificationError, step.GetId(), message)
		return finish(result, persistence.StepStatusFailed, message)
	}
	result.Unit = sensor.GetUnit()

	actor, ok := step.env.Actors.Get(volumeConfig.Actor)
	if !ok {
		message := fmt.Sprintf("Actor %s not found.", volumeConfig.Actor)
		step.env.Notifier.Notify(ui.NotificationError, step.GetId(), message)
		return finish(result, persistence.StepStatusFailed, message)
	}

	sensor.Reset(time.Now())
	if err := actor.On(); err != nil {
		message := fmt.Sprintf("Unable to switch on actor %s: %v", actor.GetId(), err)
		step.env.Notifier.Notify(ui.NotificationError, step.GetId(), message)
		return finish(result, persistence.StepStatusFailed, message)
	}

	pollingRate := volumeConfig.PollingRate
	if pollingRate <= 0 {
		pollingRate = DefaultVolumePollingRate
	}
	settleTime := volumeConfig.SettleTime
	if settleTime <= 0 {
		settleTime = DefaultVolumeSettleTime
	}

	tick := time.NewTicker(pollingRate)
	defer tick.Stop()

	var settleUntil time.Time
	for {
		select {
		case <-ctx.Done():
			switchOff(step.GetId(), actor)
			result.Transferred, _ = sensor.GetValue()
			return finish(result, persistence.StepStatusCancelled, "")
		case now := <-tick.C:
			current, err := sensor.GetValue()
			if err != nil {
				ui.Warning("Step %s: unable to read sensor %s: %v", step.GetId(), sensor.GetId(), err)
				continue
			}
			result.Transferred = current
			step.setSummary("Volume: %.2f / %.2f %s", current, volumeConfig.Target, result.Unit)

			if settleUntil.IsZero() && current >= volumeConfig.Target {
				ui.Info("Step %s: target volume reached, stopping in %v", step.GetId(), settleTime)
				settleUntil = now.Add(settleTime)
			}
			if settleUntil.IsZero() || now.Before(settleUntil) {
				continue
			}

			message := fmt.Sprintf("Step finished. Transferred %.2f %s.", current, result.Unit)
			step.env.Notifier.Notify(ui.NotificationSuccess, step.GetId(), message)
			if volumeConfig.ResetSensor.Get() {
				sensor.Reset(now)
			}
			switchOff(step.GetId(), actor)
			step.setSummary("")
			return finish(result, persistence.StepStatusDone, message)
		}
	}
}
