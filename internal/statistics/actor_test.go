package statistics

import (
	"context"
	"strings"
	"testing"

	"github.com/brewgpio/brewgpio/internal/actors"
	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorCollector_Collect(t *testing.T) {
	// GIVEN
	b := board.NewSimulatedBoard(board.Uno, false)
	registry := actors.NewRegistry()
	valve, err := actors.NewActor(configuration.ActorConfig{
		ID:   "valve",
		Gpio: &configuration.GpioActorConfig{Pin: 8},
	}, actors.Environment{Board: b})
	require.NoError(t, err)
	require.NoError(t, valve.Start(context.Background()))
	require.NoError(t, valve.On())
	registry.Register(valve)

	pump, err := actors.NewActor(configuration.ActorConfig{
		ID:   "pump",
		Pump: &configuration.PumpActorConfig{Pin: 9, InitialPower: 50},
	}, actors.Environment{Board: b})
	require.NoError(t, err)
	require.NoError(t, pump.Start(context.Background()))
	registry.Register(pump)

	collector := NewActorCollector(registry)

	// THEN
	assert.Equal(t, 8, testutil.CollectAndCount(collector))
	expected := `
# HELP brewgpio_actor_power Power level of the actor in percent
# TYPE brewgpio_actor_power gauge
brewgpio_actor_power{id="pump"} 50
brewgpio_actor_power{id="valve"} 100
`
	assert.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected), "brewgpio_actor_power"))
}
