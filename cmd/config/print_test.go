package config

import (
	"testing"
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalYaml(t *testing.T) {
	// GIVEN
	config := configuration.Configuration{
		DbPath: "/tmp/brewgpio.db",
		Board: configuration.BoardConfig{
			Port:  "/dev/ttyACM0",
			Model: "uno",
		},
		Actors: []configuration.ActorConfig{
			{ID: "valve", Gpio: &configuration.GpioActorConfig{Pin: 8}},
		},
		SensorPollingRate: time.Second,
	}

	// WHEN
	out, err := marshalYaml(config)

	// THEN
	require.NoError(t, err)
	assert.Contains(t, out, "dbPath: /tmp/brewgpio.db\n")
	assert.Contains(t, out, "model: uno\n")
	assert.Contains(t, out, "- gpio:\n")
	assert.Contains(t, out, "id: valve\n")
	assert.NotContains(t, out, "pump:")
}
