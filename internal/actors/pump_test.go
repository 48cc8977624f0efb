package actors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPumpActor(t *testing.T, b *board.SimulatedBoard, registry *sensors.Registry, pumpConfig configuration.PumpActorConfig) *PumpActor {
	actor, err := NewPumpActor(configuration.ActorConfig{ID: "pump", Pump: &pumpConfig}, Environment{Board: b, Sensors: registry})
	require.NoError(t, err)
	require.NoError(t, actor.Start(context.Background()))
	return actor
}

func intPtr(value int) *int {
	return &value
}

func TestPumpActor_RelayFollowsState(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	actor := createPumpActor(t, b, sensors.NewRegistry(), configuration.PumpActorConfig{
		Pin:          9,
		RelayPin:     intPtr(7),
		InitialPower: 50,
	})
	relay, _ := b.DigitalOutput(7)
	assert.Equal(t, 0, relay)

	// WHEN
	err := actor.On()

	// THEN
	assert.NoError(t, err)
	relay, _ = b.DigitalOutput(7)
	assert.Equal(t, 1, relay)
	output, _ := b.AnalogOutput(9)
	assert.Equal(t, 128, output)

	// WHEN
	err = actor.Off()

	// THEN
	assert.NoError(t, err)
	relay, _ = b.DigitalOutput(7)
	assert.Equal(t, 0, relay)
	output, _ = b.AnalogOutput(9)
	assert.Equal(t, 0, output)
	assert.Equal(t, 50, actor.GetPower())
}

func TestPumpActor_RawAddressing(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	actor := createPumpActor(t, b, sensors.NewRegistry(), configuration.PumpActorConfig{
		Pin:          9,
		Addressing:   configuration.PumpAddressingRaw,
		InitialPower: 51,
	})
	assert.Equal(t, 20, actor.GetPower())
	require.NoError(t, actor.On())

	// WHEN
	err := actor.Drive(200)

	// THEN
	assert.NoError(t, err)
	output, _ := b.AnalogOutput(9)
	assert.Equal(t, 200, output)
	assert.Equal(t, 78, actor.GetPower())
}

func TestPumpActor_PercentAddressing(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	actor := createPumpActor(t, b, sensors.NewRegistry(), configuration.PumpActorConfig{Pin: 9})
	require.NoError(t, actor.On())

	// WHEN
	err := actor.Drive(20)

	// THEN
	assert.NoError(t, err)
	output, _ := b.AnalogOutput(9)
	assert.Equal(t, 51, output)
}

func TestPumpActor_AdjustFollowsFlowRate(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	registry := sensors.NewRegistry()
	actor := createPumpActor(t, b, registry, configuration.PumpActorConfig{
		Pin:        9,
		FlowSensor: "flow",
		TargetFlow: 8,
		Pid:        configuration.PidConfig{P: 10},
	})
	require.NoError(t, actor.On())
	registry.Flows().Publish("flow", 5)

	// WHEN
	err := actor.Adjust(actorEpoch)

	// THEN
	assert.NoError(t, err)
	output, _ := b.AnalogOutput(9)
	assert.Equal(t, 30, output)
	assert.Equal(t, 30, actor.GetOutput())
	assert.Equal(t, 12, actor.GetPower())
	assert.Equal(t, 5.0, actor.GetFlowRate())

	// WHEN
	registry.Flows().Publish("flow", 6)
	err = actor.Adjust(actorEpoch.Add(time.Second))

	// THEN
	assert.NoError(t, err)
	output, _ = b.AnalogOutput(9)
	assert.Equal(t, 20, output)
}

func TestPumpActor_AdjustIsIdleWhileOff(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	registry := sensors.NewRegistry()
	actor := createPumpActor(t, b, registry, configuration.PumpActorConfig{
		Pin:        9,
		FlowSensor: "flow",
		TargetFlow: 8,
	})
	registry.Flows().Publish("flow", 0)

	// WHEN
	err := actor.Adjust(actorEpoch)

	// THEN
	assert.NoError(t, err)
	output, _ := b.AnalogOutput(9)
	assert.Equal(t, 0, output)
}

func TestPumpActor_AdjustWithoutFlowRateKeepsOutput(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	actor := createPumpActor(t, b, sensors.NewRegistry(), configuration.PumpActorConfig{
		Pin:          9,
		FlowSensor:   "flow",
		TargetFlow:   8,
		InitialPower: 10,
	})
	require.NoError(t, actor.On())

	// WHEN
	err := actor.Adjust(actorEpoch)

	// THEN
	assert.NoError(t, err)
	output, _ := b.AnalogOutput(9)
	assert.Equal(t, 26, output)
}

func TestPumpActor_ManualPowerDisablesAutomaticControl(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	registry := sensors.NewRegistry()
	actor := createPumpActor(t, b, registry, configuration.PumpActorConfig{
		Pin:        9,
		FlowSensor: "flow",
		TargetFlow: 8,
	})
	require.NoError(t, actor.On())
	assert.True(t, actor.IsAutomatic())
	assert.Equal(t, 8.0, actor.GetTargetFlow())

	// WHEN
	err := actor.SetPower(60)
	registry.Flows().Publish("flow", 1)
	adjustErr := actor.Adjust(actorEpoch)

	// THEN
	assert.NoError(t, err)
	assert.NoError(t, adjustErr)
	assert.False(t, actor.IsAutomatic())
	assert.Equal(t, 0.0, actor.GetTargetFlow())
	output, _ := b.AnalogOutput(9)
	assert.Equal(t, 153, output)

	// WHEN
	err = actor.SetFlowRate(4)

	// THEN
	assert.NoError(t, err)
	assert.True(t, actor.IsAutomatic())
	assert.Equal(t, 4.0, actor.GetTargetFlow())
}

func TestPumpActor_SetFlowRateWithoutFlowSensor(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	actor := createPumpActor(t, b, nil, configuration.PumpActorConfig{Pin: 9})

	// WHEN
	err := actor.SetFlowRate(4)
	invalidErr := actor.SetFlowRate(-1)

	// THEN
	assert.EqualError(t, err, "actor pump: no flow sensor configured")
	assert.ErrorIs(t, invalidErr, util.ErrInvalidParameter)
}

func TestPumpActor_WriteErrorKeepsOutput(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	registry := sensors.NewRegistry()
	actor := createPumpActor(t, b, registry, configuration.PumpActorConfig{
		Pin:          9,
		FlowSensor:   "flow",
		TargetFlow:   8,
		InitialPower: 10,
		Pid:          configuration.PidConfig{P: 10},
	})
	require.NoError(t, actor.On())
	registry.Flows().Publish("flow", 5)
	b.SetWriteError(errors.New("serial port closed"))

	// WHEN
	err := actor.Adjust(actorEpoch)

	// THEN
	assert.True(t, util.IsTransient(err))
	assert.Equal(t, 26, actor.GetOutput())
}

func TestPumpActor_RunStopsOnCancel(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	actor := createPumpActor(t, b, nil, configuration.PumpActorConfig{Pin: 9, Pid: configuration.PidConfig{SampleTime: 10 * time.Millisecond}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)

	// WHEN
	go func() {
		done <- actor.Run(ctx)
	}()
	cancel()

	// THEN
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("pump loop did not stop")
	}
}
