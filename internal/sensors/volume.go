package sensors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/units"
	"github.com/brewgpio/brewgpio/internal/util"
)

// VolumeSensor integrates the flow rate of another sensor into a volume
type VolumeSensor struct {
	Config configuration.SensorConfig

	registry   *Registry
	flowUnit   units.Unit
	volumeUnit units.Unit

	mu            sync.RWMutex
	pipeline      *Pipeline
	value         float64
	missingSource bool
}

func NewVolumeSensor(config configuration.SensorConfig, env Environment) (*VolumeSensor, error) {
	if env.Registry == nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, fmt.Errorf("no sensor registry available"))
	}
	volumeConfig := config.Volume
	sensor := &VolumeSensor{
		Config:     config,
		registry:   env.Registry,
		flowUnit:   unitOrDefault(volumeConfig.FlowUnit, env.DefaultUnit),
		volumeUnit: unitOrDefault(volumeConfig.VolumeUnit, env.DefaultUnit),
	}

	pipeline, err := NewPipeline(PipelineOptions{
		FloorAtZero: true,
		Alpha:       alphaOrDefault(volumeConfig.Alpha),
		Mode:        DisplayTotal,
		BaseUnit:    units.Liter,
		DisplayUnit: sensor.volumeUnit,
		Decimals:    displayDecimals,
	}, time.Now())
	if err != nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, err)
	}
	if _, err := units.Convert(0, sensor.flowUnit, units.Liter); err != nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, err)
	}
	sensor.pipeline = pipeline
	return sensor, nil
}

func (sensor *VolumeSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *VolumeSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor *VolumeSensor) Start(ctx context.Context) error {
	sensor.Reset(time.Now())
	return nil
}

// sourceRate returns the flow rate of the source sensor in L/min
func (sensor *VolumeSensor) sourceRate() (float64, bool, error) {
	sourceId := sensor.Config.Volume.Sensor
	if rate, ok := sensor.registry.Flows().Rate(sourceId); ok {
		return rate, true, nil
	}

	source, ok := sensor.registry.Get(sourceId)
	if !ok {
		return 0, false, nil
	}
	value, err := source.GetValue()
	if err != nil {
		return 0, true, err
	}
	rate, err := units.Convert(value, sensor.flowUnit, units.Liter)
	return rate, true, err
}

func (sensor *VolumeSensor) Poll(now time.Time) (float64, error) {
	rate, found, err := sensor.sourceRate()

	sensor.mu.Lock()
	defer sensor.mu.Unlock()

	if !found {
		if !sensor.missingSource {
			ui.Warning("Sensor %s: source sensor '%s' not found, volume is not updated", sensor.GetId(), sensor.Config.Volume.Sensor)
		}
		sensor.missingSource = true
		return sensor.value, nil
	}
	sensor.missingSource = false
	if err != nil {
		return sensor.value, fmt.Errorf("sensor %s: %w", sensor.GetId(), err)
	}

	value, err := sensor.pipeline.Process(rate, now)
	if err != nil {
		return sensor.value, fmt.Errorf("sensor %s: %w", sensor.GetId(), err)
	}
	sensor.value = value
	return sensor.value, nil
}

func (sensor *VolumeSensor) GetValue() (float64, error) {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	return sensor.value, nil
}

func (sensor *VolumeSensor) GetUnit() string {
	return sensor.volumeUnit.String()
}

func (sensor *VolumeSensor) Reset(now time.Time) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	sensor.pipeline.Reset(now)
	sensor.value = 0
}

// GetTotalVolume returns the integrated volume in L
func (sensor *VolumeSensor) GetTotalVolume() float64 {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	return sensor.pipeline.Total()
}
