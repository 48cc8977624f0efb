package sensors

import (
	"context"
	"sync"
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

// FileSensor reads a single number from a file, e.g. a 1-wire thermometer
type FileSensor struct {
	Config configuration.SensorConfig `json:"configuration"`

	mu    sync.RWMutex
	value float64
}

func (sensor *FileSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *FileSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor *FileSensor) Start(ctx context.Context) error {
	_, err := sensor.Poll(time.Now())
	return err
}

func (sensor *FileSensor) Poll(now time.Time) (float64, error) {
	filePath, err := util.ExpandPath(sensor.Config.File.Path)
	if err != nil {
		return sensor.GetValue()
	}

	value, err := util.ReadFloatFromFile(filePath)
	if err != nil {
		ui.Warning("Unable to read value from file sensor: %s", filePath)
		previous, _ := sensor.GetValue()
		return previous, err
	}

	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	sensor.value = value * scaleOrDefault(sensor.Config.File.Scale)
	return sensor.value, nil
}

func (sensor *FileSensor) GetValue() (float64, error) {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	return sensor.value, nil
}

func (sensor *FileSensor) GetUnit() string {
	return ""
}

func (sensor *FileSensor) Reset(now time.Time) {}
