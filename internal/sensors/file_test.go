package sensors

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSensor_ReadsScaledValue(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), "temp_input")
	require.NoError(t, os.WriteFile(path, []byte("18500\n"), 0o644))
	sensor := &FileSensor{Config: configuration.SensorConfig{
		ID:   "wort_out",
		File: &configuration.FileSensorConfig{Path: path, Scale: 0.001},
	}}

	// WHEN
	err := sensor.Start(context.Background())

	// THEN
	assert.NoError(t, err)
	value, _ := sensor.GetValue()
	assert.InDelta(t, 18.5, value, 0.000001)
}

func TestFileSensor_MissingFileKeepsValue(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), "temp_input")
	require.NoError(t, os.WriteFile(path, []byte("21"), 0o644))
	sensor := &FileSensor{Config: configuration.SensorConfig{
		ID:   "wort_out",
		File: &configuration.FileSensorConfig{Path: path},
	}}
	_, err := sensor.Poll(time.Now())
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	// WHEN
	value, err := sensor.Poll(time.Now())

	// THEN
	assert.Error(t, err)
	assert.Equal(t, 21.0, value)
}

func TestNewSensor_UnknownType(t *testing.T) {
	// WHEN
	_, err := NewSensor(configuration.SensorConfig{ID: "nothing"}, Environment{})

	// THEN
	assert.EqualError(t, err, "no matching sensor type for sensor: nothing")
}
