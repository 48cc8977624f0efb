package control_loop

import (
	"testing"
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidControlLoop_DefaultGains(t *testing.T) {
	// WHEN
	loop, err := NewPidControlLoop("pump", configuration.PidConfig{}, 0, 255)

	// THEN
	require.NoError(t, err)
	p, i, d := loop.Gains()
	assert.Equal(t, 2.0, p)
	assert.Equal(t, 5.0, i)
	assert.Equal(t, 1.0, d)
}

func TestPidControlLoop_TargetBecomesSetPoint(t *testing.T) {
	// GIVEN
	loop, err := NewPidControlLoop("pump", configuration.PidConfig{P: 10}, 0, 255)
	require.NoError(t, err)

	// WHEN
	result := loop.Cycle(8, 5, loopEpoch)

	// THEN
	assert.Equal(t, 8.0, loop.SetPoint())
	assert.Equal(t, 30.0, result)
	assert.Equal(t, 30.0, loop.LastOutput())
}

func TestPidControlLoop_OutputIsClamped(t *testing.T) {
	// GIVEN
	loop, err := NewPidControlLoop("pump", configuration.PidConfig{P: 100, I: 1}, 0, 255)
	require.NoError(t, err)
	loop.Cycle(10, 0, loopEpoch)

	// WHEN
	result := loop.Cycle(10, 0, loopEpoch.Add(time.Second))

	// THEN
	assert.Equal(t, 255.0, result)

	// WHEN
	result = loop.Cycle(0, 20, loopEpoch.Add(2*time.Second))

	// THEN
	assert.Equal(t, 0.0, result)
}

func TestPidControlLoop_InvalidLimits(t *testing.T) {
	// WHEN
	_, err := NewPidControlLoop("pump", configuration.PidConfig{P: 1}, 255, 0)

	// THEN
	assert.ErrorContains(t, err, "pump: invalid configuration")
}
