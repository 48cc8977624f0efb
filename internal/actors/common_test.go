package actors

import (
	"math"
	"testing"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/util"
	"github.com/stretchr/testify/assert"
)

func TestLevels_SetPower(t *testing.T) {
	tests := []struct {
		name           string
		maxOutput      int
		power          float64
		expectedPower  int
		expectedOutput int
	}{
		{name: "half", maxOutput: 255, power: 50, expectedPower: 50, expectedOutput: 128},
		{name: "full", maxOutput: 255, power: 100, expectedPower: 100, expectedOutput: 255},
		{name: "clamped above", maxOutput: 255, power: 150, expectedPower: 100, expectedOutput: 255},
		{name: "clamped below", maxOutput: 255, power: -3, expectedPower: 0, expectedOutput: 0},
		{name: "rounded", maxOutput: 100, power: 33.4, expectedPower: 33, expectedOutput: 33},
		{name: "default max output", maxOutput: 0, power: 20, expectedPower: 20, expectedOutput: 51},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN
			l := newLevels(tt.maxOutput)

			// WHEN
			err := l.setPower(tt.power)

			// THEN
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedPower, l.power)
			assert.Equal(t, tt.expectedOutput, l.output)
		})
	}
}

func TestLevels_SetOutput(t *testing.T) {
	// GIVEN
	l := newLevels(255)

	// WHEN
	err := l.setOutput(100)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 100, l.output)
	assert.Equal(t, 39, l.power)

	// WHEN
	err = l.setOutput(300)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 255, l.output)
	assert.Equal(t, 100, l.power)
}

func TestLevels_RejectsNonFinite(t *testing.T) {
	// GIVEN
	l := newLevels(255)
	_ = l.setPower(40)

	// WHEN
	err := l.setOutput(math.NaN())

	// THEN
	assert.ErrorIs(t, err, util.ErrInvalidParameter)
	assert.Equal(t, 40, l.power)
	assert.Equal(t, 102, l.output)
}

func TestNewActor_UnknownType(t *testing.T) {
	// WHEN
	_, err := NewActor(configuration.ActorConfig{ID: "nothing"}, Environment{})

	// THEN
	assert.EqualError(t, err, "no matching actor type for actor: nothing")
}

func TestRegistry_AllIsSortedById(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	registry := NewRegistry()
	for _, id := range []string{"valve", "heater", "pump"} {
		actor, err := NewActor(configuration.ActorConfig{ID: id, Gpio: &configuration.GpioActorConfig{Pin: 8}}, Environment{Board: b})
		assert.NoError(t, err)
		registry.Register(actor)
	}

	// WHEN
	result := registry.All()

	// THEN
	var ids []string
	for _, actor := range result {
		ids = append(ids, actor.GetId())
	}
	assert.Equal(t, []string{"heater", "pump", "valve"}, ids)
	_, ok := registry.Get("pump")
	assert.True(t, ok)
}
