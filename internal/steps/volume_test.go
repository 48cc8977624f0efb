package steps

import (
	"context"
	"testing"
	"time"

	"github.com/brewgpio/brewgpio/internal/actors"
	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/persistence"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type volumeFixture struct {
	board    *board.SimulatedBoard
	sensor   *fakeSensor
	valve    actors.Actor
	notifier *recordingNotifier
	env      Environment
}

func createVolumeFixture(t *testing.T) volumeFixture {
	b := board.NewSimulatedBoard(board.Uno, false)
	sensorRegistry := sensors.NewRegistry()
	sensor := &fakeSensor{id: "volume", unit: "L"}
	sensorRegistry.Register(sensor)

	actorRegistry := actors.NewRegistry()
	valve, err := actors.NewActor(configuration.ActorConfig{
		ID:   "valve",
		Gpio: &configuration.GpioActorConfig{Pin: 8},
	}, actors.Environment{Board: b})
	require.NoError(t, err)
	require.NoError(t, valve.Start(context.Background()))
	actorRegistry.Register(valve)

	notifier := &recordingNotifier{}
	return volumeFixture{
		board:    b,
		sensor:   sensor,
		valve:    valve,
		notifier: notifier,
		env: Environment{
			Sensors:  sensorRegistry,
			Actors:   actorRegistry,
			Notifier: notifier,
		},
	}
}

func createVolumeStep(t *testing.T, env Environment, volumeConfig configuration.VolumeStepConfig) Step {
	if volumeConfig.PollingRate == 0 {
		volumeConfig.PollingRate = 2 * time.Millisecond
	}
	if volumeConfig.SettleTime == 0 {
		volumeConfig.SettleTime = 5 * time.Millisecond
	}
	step, err := NewStep(configuration.StepConfig{ID: "transfer", Volume: &volumeConfig}, env)
	require.NoError(t, err)
	return step
}

func TestVolumeStep_FinishesAtTarget(t *testing.T) {
	// GIVEN
	fixture := createVolumeFixture(t)
	fixture.sensor.set(20.5)
	step := createVolumeStep(t, fixture.env, configuration.VolumeStepConfig{
		Target: 20,
		Actor:  "valve",
		Sensor: "volume",
	})

	// WHEN
	result := step.Run(context.Background())

	// THEN
	assert.Equal(t, persistence.StepStatusDone, result.Status)
	assert.Equal(t, "transfer", result.StepId)
	assert.Equal(t, TypeVolume, result.Type)
	assert.Equal(t, 20.5, result.Transferred)
	assert.Equal(t, 20.0, result.Target)
	assert.Equal(t, "L", result.Unit)
	assert.False(t, result.End.Before(result.Start))

	assert.Equal(t, notification{
		level: ui.NotificationSuccess,
		title: "transfer",
		text:  "Step finished. Transferred 20.50 L.",
	}, fixture.notifier.last())
	assert.Equal(t, 2, fixture.sensor.resetCount())
	assert.False(t, fixture.valve.GetState())
	level, _ := fixture.board.DigitalOutput(8)
	assert.Equal(t, 0, level)
}

func TestVolumeStep_WithoutSensorReset(t *testing.T) {
	// GIVEN
	fixture := createVolumeFixture(t)
	fixture.sensor.set(5)
	step := createVolumeStep(t, fixture.env, configuration.VolumeStepConfig{
		Target:      5,
		Actor:       "valve",
		Sensor:      "volume",
		ResetSensor: configuration.NewDefaultTrueBool(false),
	})

	// WHEN
	result := step.Run(context.Background())

	// THEN
	assert.Equal(t, persistence.StepStatusDone, result.Status)
	assert.Equal(t, 1, fixture.sensor.resetCount())
}

func TestVolumeStep_ActorRunsUntilTarget(t *testing.T) {
	// GIVEN
	fixture := createVolumeFixture(t)
	step := createVolumeStep(t, fixture.env, configuration.VolumeStepConfig{
		Target: 10,
		Actor:  "valve",
		Sensor: "volume",
	})
	done := make(chan persistence.StepResult)

	// WHEN
	go func() {
		done <- step.Run(context.Background())
	}()

	// THEN
	assert.Eventually(t, func() bool {
		return fixture.valve.GetState()
	}, time.Second, time.Millisecond)

	// WHEN
	fixture.sensor.set(10.2)

	// THEN
	select {
	case result := <-done:
		assert.Equal(t, persistence.StepStatusDone, result.Status)
		assert.Equal(t, 10.2, result.Transferred)
	case <-time.After(2 * time.Second):
		t.Fatal("step did not finish")
	}
	assert.False(t, fixture.valve.GetState())
}

func TestVolumeStep_MissingSensor(t *testing.T) {
	// GIVEN
	fixture := createVolumeFixture(t)
	step := createVolumeStep(t, fixture.env, configuration.VolumeStepConfig{
		Target: 20,
		Actor:  "valve",
		Sensor: "missing",
	})

	// WHEN
	result := step.Run(context.Background())

	// THEN
	assert.Equal(t, persistence.StepStatusFailed, result.Status)
	assert.Equal(t, "Sensor missing not found.", result.Message)
	assert.Equal(t, notification{
		level: ui.NotificationError,
		title: "transfer",
		text:  "Sensor missing not found.",
	}, fixture.notifier.last())
	assert.False(t, fixture.valve.GetState())
}

func TestVolumeStep_MissingActor(t *testing.T) {
	// GIVEN
	fixture := createVolumeFixture(t)
	step := createVolumeStep(t, fixture.env, configuration.VolumeStepConfig{
		Target: 20,
		Actor:  "pump",
		Sensor: "volume",
	})

	// WHEN
	result := step.Run(context.Background())

	// THEN
	assert.Equal(t, persistence.StepStatusFailed, result.Status)
	assert.Equal(t, "Actor pump not found.", fixture.notifier.last().text)
	assert.Equal(t, 0, fixture.sensor.resetCount())
}

func TestVolumeStep_Cancel(t *testing.T) {
	// GIVEN
	fixture := createVolumeFixture(t)
	fixture.sensor.set(3)
	step := createVolumeStep(t, fixture.env, configuration.VolumeStepConfig{
		Target: 20,
		Actor:  "valve",
		Sensor: "volume",
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan persistence.StepResult)
	go func() {
		done <- step.Run(ctx)
	}()
	assert.Eventually(t, func() bool {
		return fixture.valve.GetState()
	}, time.Second, time.Millisecond)

	// WHEN
	cancel()

	// THEN
	select {
	case result := <-done:
		assert.Equal(t, persistence.StepStatusCancelled, result.Status)
		assert.Equal(t, 3.0, result.Transferred)
	case <-time.After(2 * time.Second):
		t.Fatal("step did not stop")
	}
	assert.False(t, fixture.valve.GetState())
	assert.Empty(t, fixture.notifier.all())
}
