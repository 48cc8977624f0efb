package statistics

import (
	"strings"
	"testing"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/sensors"
	"github.com/brewgpio/brewgpio/internal/util"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticStats map[string]util.WindowStats

func (s staticStats) GetSensorStats(sensorId string) (util.WindowStats, bool) {
	stats, ok := s[sensorId]
	return stats, ok
}

func createSensorRegistry(t *testing.T) *sensors.Registry {
	b := board.NewSimulatedBoard(board.Uno, false)
	registry := sensors.NewRegistry()
	sensor, err := sensors.NewSensor(configuration.SensorConfig{
		ID: "volume",
		Volume: &configuration.VolumeSensorConfig{
			Sensor: "flow",
		},
	}, sensors.Environment{Board: b, Registry: registry})
	require.NoError(t, err)
	registry.Register(sensor)
	return registry
}

func TestSensorCollector_Collect(t *testing.T) {
	// GIVEN
	registry := createSensorRegistry(t)
	registry.Flows().Publish("flow", 3.5)
	collector := NewSensorCollector(registry, staticStats{
		"volume": {Avg: 12.5, Min: 10, Max: 15},
	})

	// THEN
	assert.Equal(t, 3, testutil.CollectAndCount(collector))
	expected := `
# HELP brewgpio_sensor_value_avg Average of the recently polled values of the sensor
# TYPE brewgpio_sensor_value_avg gauge
brewgpio_sensor_value_avg{id="volume",unit="L"} 12.5
# HELP brewgpio_sensor_flow_rate Latest flow rate in L/min published by a flow sensor
# TYPE brewgpio_sensor_flow_rate gauge
brewgpio_sensor_flow_rate{id="flow"} 3.5
`
	assert.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"brewgpio_sensor_value_avg", "brewgpio_sensor_flow_rate"))
}

func TestSensorCollector_CollectWithoutStats(t *testing.T) {
	// GIVEN
	registry := createSensorRegistry(t)
	collector := NewSensorCollector(registry, nil)

	// THEN
	assert.Equal(t, 1, testutil.CollectAndCount(collector))
	assert.Equal(t, 0, testutil.CollectAndCount(collector, "brewgpio_sensor_value_avg"))
}
