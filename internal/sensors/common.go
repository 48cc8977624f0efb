package sensors

import (
	"context"
	"fmt"
	"time"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/units"
)

const (
	defaultAlpha             = 0.2
	defaultReportingInterval = 100 * time.Millisecond
	displayDecimals          = 2
)

type Sensor interface {
	GetId() string

	GetConfig() configuration.SensorConfig

	// Start prepares the sensor for polling, e.g. configures board pins
	Start(ctx context.Context) error

	// Poll advances the sensor at the given time and returns its current display value.
	// On error, the previous value is kept.
	Poll(now time.Time) (float64, error)

	// GetValue returns the current display value of this sensor
	GetValue() (float64, error)

	// GetUnit returns the unit of the display value, if any
	GetUnit() string

	// Reset clears accumulated state, e.g. an integrated volume
	Reset(now time.Time)
}

// Environment holds the collaborators sensors are created with
type Environment struct {
	Board             board.Board
	Registry          *Registry
	ReportingInterval time.Duration
	// Volume unit used if a sensor does not configure one
	DefaultUnit units.Unit
	// Directory calibration files are stored in if a sensor does not configure a path
	CalibrationDir string
}

func NewSensor(config configuration.SensorConfig, env Environment) (Sensor, error) {
	if env.ReportingInterval <= 0 {
		env.ReportingInterval = defaultReportingInterval
	}
	if len(env.DefaultUnit) <= 0 {
		env.DefaultUnit = units.Liter
	}

	if config.Flow != nil {
		return NewFlowSensor(config, env)
	}

	if config.Volume != nil {
		return NewVolumeSensor(config, env)
	}

	if config.Pressure != nil {
		return NewPressureSensor(config, env)
	}

	if config.File != nil {
		return &FileSensor{
			Config: config,
		}, nil
	}

	if config.Cmd != nil {
		return &CmdSensor{
			Config: config,
		}, nil
	}

	return nil, fmt.Errorf("no matching sensor type for sensor: %s", config.ID)
}

func alphaOrDefault(alpha float64) float64 {
	if alpha <= 0 {
		return defaultAlpha
	}
	return alpha
}

func unitOrDefault(unit units.Unit, fallback units.Unit) units.Unit {
	if len(unit) <= 0 {
		return fallback
	}
	return unit
}

func scaleOrDefault(scale float64) float64 {
	if scale == 0 {
		return 1
	}
	return scale
}
