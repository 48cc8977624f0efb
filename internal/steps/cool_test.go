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

var coolEpoch = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type coolFixture struct {
	board    *board.SimulatedBoard
	input    *fakeSensor
	output   *fakeSensor
	flow     *fakeSensor
	volume   *fakeSensor
	pump     *actors.PumpActor
	notifier *recordingNotifier
	env      Environment
}

func createCoolFixture(t *testing.T) coolFixture {
	b := board.NewSimulatedBoard(board.Uno, false)
	sensorRegistry := sensors.NewRegistry()
	input := &fakeSensor{id: "wort_in"}
	output := &fakeSensor{id: "wort_out"}
	flow := &fakeSensor{id: "flow", unit: "L/min"}
	volume := &fakeSensor{id: "volume", unit: "L"}
	for _, sensor := range []sensors.Sensor{input, output, flow, volume} {
		sensorRegistry.Register(sensor)
	}

	pump, err := actors.NewPumpActor(configuration.ActorConfig{
		ID:   "pump",
		Pump: &configuration.PumpActorConfig{Pin: 9},
	}, actors.Environment{Board: b, Sensors: sensorRegistry})
	require.NoError(t, err)
	require.NoError(t, pump.Start(context.Background()))
	actorRegistry := actors.NewRegistry()
	actorRegistry.Register(pump)

	notifier := &recordingNotifier{}
	return coolFixture{
		board:    b,
		input:    input,
		output:   output,
		flow:     flow,
		volume:   volume,
		pump:     pump,
		notifier: notifier,
		env: Environment{
			Sensors:  sensorRegistry,
			Actors:   actorRegistry,
			Notifier: notifier,
		},
	}
}

func createCoolConfig() *configuration.CoolStepConfig {
	return &configuration.CoolStepConfig{
		Pid:          configuration.PidConfig{P: 10},
		InputSensor:  "wort_in",
		OutputSensor: "wort_out",
		FlowSensor:   "flow",
		VolumeSensor: "volume",
		Pump:         "pump",
		Interval:     2 * time.Millisecond,
	}
}

func floatPtr(value float64) *float64 {
	return &value
}

func TestCoolController_Defaults(t *testing.T) {
	// WHEN
	controller, err := newCoolController("chill", &configuration.CoolStepConfig{}, 255)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, DefaultCoolSetPoint, controller.setPoint)
	assert.Equal(t, DefaultCoolMinFlowThreshold, controller.minFlowThreshold)
	assert.Equal(t, DefaultCoolMinFlowPower, controller.minFlowPower)
	p, i, d := controller.loop.Gains()
	assert.Equal(t, []float64{2, 5, 1}, []float64{p, i, d})
}

func TestCoolController_ForcesMinimumFlowPower(t *testing.T) {
	// GIVEN
	fixture := createCoolFixture(t)
	require.NoError(t, fixture.pump.On())
	controller, err := newCoolController("chill", createCoolConfig(), fixture.pump.GetMaxOutput())
	require.NoError(t, err)

	// WHEN
	pidOutput, forced, err := controller.apply(fixture.pump, CoolReading{
		InputTemperature:  floatPtr(20),
		OutputTemperature: 25,
		Flow:              0.5,
	}, coolEpoch)

	// THEN
	assert.NoError(t, err)
	assert.True(t, forced)
	assert.Equal(t, 230.0, pidOutput)
	assert.Equal(t, 20, fixture.pump.GetPower())
	output, _ := fixture.board.AnalogOutput(9)
	assert.Equal(t, 51, output)
}

func TestCoolController_AppliesPidOutput(t *testing.T) {
	// GIVEN
	fixture := createCoolFixture(t)
	require.NoError(t, fixture.pump.On())
	controller, err := newCoolController("chill", createCoolConfig(), fixture.pump.GetMaxOutput())
	require.NoError(t, err)

	// WHEN
	pidOutput, forced, err := controller.apply(fixture.pump, CoolReading{
		InputTemperature:  floatPtr(20),
		OutputTemperature: 25,
		Flow:              2,
	}, coolEpoch)

	// THEN
	assert.NoError(t, err)
	assert.False(t, forced)
	assert.Equal(t, 230.0, pidOutput)
	output, _ := fixture.board.AnalogOutput(9)
	assert.Equal(t, 230, output)

	// WHEN
	pidOutput, forced, err = controller.apply(fixture.pump, CoolReading{
		OutputTemperature: 25,
		Flow:              0,
	}, coolEpoch.Add(time.Second))

	// THEN
	assert.NoError(t, err)
	assert.False(t, forced)
	assert.Equal(t, 180.0, pidOutput)
	output, _ = fixture.board.AnalogOutput(9)
	assert.Equal(t, 180, output)
}

func TestCoolReading_Differential(t *testing.T) {
	// GIVEN
	withInput := CoolReading{InputTemperature: floatPtr(60), OutputTemperature: 22}
	withoutInput := CoolReading{OutputTemperature: 22}

	// THEN
	assert.Equal(t, 38.0, withInput.Differential())
	assert.Equal(t, 0.0, withoutInput.Differential())
}

func TestCoolStep_FinishesAtTargetTemperature(t *testing.T) {
	// GIVEN
	fixture := createCoolFixture(t)
	fixture.input.set(60)
	fixture.output.set(19.5)
	fixture.volume.set(18.25)
	coolConfig := createCoolConfig()
	coolConfig.TargetTemperature = floatPtr(20)
	step, err := NewStep(configuration.StepConfig{ID: "chill", Cool: coolConfig}, fixture.env)
	require.NoError(t, err)

	// WHEN
	result := step.Run(context.Background())

	// THEN
	assert.Equal(t, persistence.StepStatusDone, result.Status)
	assert.Equal(t, TypeCool, result.Type)
	assert.Equal(t, 20.0, result.Target)
	assert.Equal(t, 18.25, result.Transferred)
	assert.Equal(t, "L", result.Unit)
	assert.Equal(t, notification{
		level: ui.NotificationSuccess,
		title: "chill",
		text:  "Cooling finished. Output temperature: 19.5, transferred 18.25 L.",
	}, fixture.notifier.last())
	assert.False(t, fixture.pump.GetState())
}

func TestCoolStep_DrivesPumpUntilCancelled(t *testing.T) {
	// GIVEN
	fixture := createCoolFixture(t)
	fixture.input.set(60)
	fixture.output.set(30)
	fixture.flow.set(5)
	step, err := NewStep(configuration.StepConfig{ID: "chill", Cool: createCoolConfig()}, fixture.env)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan persistence.StepResult)
	go func() {
		done <- step.Run(ctx)
	}()

	// THEN
	assert.Eventually(t, func() bool {
		return fixture.pump.GetState() && len(step.GetSummary()) > 0
	}, time.Second, time.Millisecond)

	// WHEN
	cancel()

	// THEN
	select {
	case result := <-done:
		assert.Equal(t, persistence.StepStatusCancelled, result.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("step did not stop")
	}
	assert.False(t, fixture.pump.GetState())
	assert.Equal(t, "Cooling started.", fixture.notifier.last().text)
}

func TestCoolStep_MissingOutputSensor(t *testing.T) {
	// GIVEN
	fixture := createCoolFixture(t)
	coolConfig := createCoolConfig()
	coolConfig.OutputSensor = "missing"
	step, err := NewStep(configuration.StepConfig{ID: "chill", Cool: coolConfig}, fixture.env)
	require.NoError(t, err)

	// WHEN
	result := step.Run(context.Background())

	// THEN
	assert.Equal(t, persistence.StepStatusFailed, result.Status)
	assert.Equal(t, notification{
		level: ui.NotificationError,
		title: "chill",
		text:  "Sensor missing not found.",
	}, fixture.notifier.last())
	assert.False(t, fixture.pump.GetState())
}

func TestNewStep_UnknownType(t *testing.T) {
	// WHEN
	_, err := NewStep(configuration.StepConfig{ID: "boil"}, Environment{})

	// THEN
	assert.EqualError(t, err, "no matching step type for step: boil")
}
