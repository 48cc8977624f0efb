package sensors

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/calibration"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/units"
	"github.com/brewgpio/brewgpio/internal/util"
)

const (
	gravity                 = 9.807
	defaultReferenceVoltage = 5.0
	// readings below this level (0.49 in) are treated as an empty kettle
	minimumLevelCm = 0.49 * 2.54
)

// PressureSensor converts the voltage of an analog pressure transducer mounted at the bottom of a kettle
// into a pressure, the liquid level above the sensor, or the liquid volume in the kettle.
type PressureSensor struct {
	Config configuration.SensorConfig

	board             board.Board
	reportingInterval time.Duration

	// volts to kPa
	curve            *calibration.Curve
	referenceVoltage float64
	sensorHeightCm   float64
	kettleDiameterCm float64
	pressureUnit     units.Unit
	lengthUnit       units.Unit
	volumeUnit       units.Unit

	mu         sync.RWMutex
	ema        *util.Ema
	adc        int
	hasReading bool
	reading    PressureReading
	value      float64
}

// PressureReading holds all quantities derived from a single ADC reading, in base units
type PressureReading struct {
	Digits  int     `json:"digits"`
	Voltage float64 `json:"voltage"`
	// kPa
	Pressure float64 `json:"pressure"`
	// cm
	Level float64 `json:"level"`
	// L
	Volume float64 `json:"volume"`
}

func NewPressureSensor(config configuration.SensorConfig, env Environment) (*PressureSensor, error) {
	if env.Board == nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, fmt.Errorf("no board available"))
	}
	pressureConfig := config.Pressure

	pressureUnit := unitOrDefault(pressureConfig.PressureUnit, units.KiloPascal)
	lengthUnit := unitOrDefault(pressureConfig.LengthUnit, units.Inch)
	volumeUnit := unitOrDefault(pressureConfig.VolumeUnit, env.DefaultUnit)

	pressureLow, err := units.Convert(pressureConfig.PressureLow, pressureUnit, units.KiloPascal)
	if err != nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, err)
	}
	pressureHigh, err := units.Convert(pressureConfig.PressureHigh, pressureUnit, units.KiloPascal)
	if err != nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, err)
	}
	curve, err := calibration.NewLinearCurve(pressureConfig.VoltLow, pressureLow, pressureConfig.VoltHigh, pressureHigh)
	if err != nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, err)
	}

	sensorHeight, err := units.Convert(pressureConfig.SensorHeight, lengthUnit, units.Centimeter)
	if err != nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, err)
	}
	kettleDiameter, err := units.Convert(pressureConfig.KettleDiameter, lengthUnit, units.Centimeter)
	if err != nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, err)
	}
	if _, err := units.Convert(0, units.Liter, volumeUnit); err != nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, err)
	}

	referenceVoltage := pressureConfig.ReferenceVoltage
	if referenceVoltage <= 0 {
		referenceVoltage = defaultReferenceVoltage
	}

	sensor := &PressureSensor{
		Config:            config,
		board:             env.Board,
		reportingInterval: env.ReportingInterval,
		curve:             curve,
		referenceVoltage:  referenceVoltage,
		sensorHeightCm:    sensorHeight,
		kettleDiameterCm:  kettleDiameter,
		pressureUnit:      pressureUnit,
		lengthUnit:        lengthUnit,
		volumeUnit:        volumeUnit,
	}
	if pressureConfig.Alpha > 0 {
		sensor.ema, err = util.NewEma(pressureConfig.Alpha)
		if err != nil {
			return nil, util.NewConfigurationError("sensor "+config.ID, err)
		}
	}
	return sensor, nil
}

func (sensor *PressureSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *PressureSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor *PressureSensor) Start(ctx context.Context) error {
	pin := sensor.Config.Pressure.Pin
	if err := sensor.board.SetPinModeAnalogInput(pin, sensor.reportingInterval, sensor.onAnalogReport); err != nil {
		return util.NewConfigurationError("sensor "+sensor.GetId(), err)
	}
	return sensor.board.EnableAnalogReporting(pin)
}

func (sensor *PressureSensor) onAnalogReport(report board.AnalogReport) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	sensor.adc = report.Value
	sensor.hasReading = true
}

// Convert derives all quantities from a single ADC reading
func (sensor *PressureSensor) Convert(digits int) PressureReading {
	voltage := float64(digits) * sensor.referenceVoltage / board.AdcResolution
	return sensor.convertVoltage(digits, voltage)
}

func (sensor *PressureSensor) convertVoltage(digits int, voltage float64) PressureReading {
	pressure := sensor.curve.Evaluate(voltage)

	level := pressure * 100 / gravity
	if level > minimumLevelCm {
		level += sensor.sensorHeightCm
	}

	radius := sensor.kettleDiameterCm / 2
	volume := math.Pi * radius * radius * level / 1000

	return PressureReading{
		Digits:   digits,
		Voltage:  voltage,
		Pressure: pressure,
		Level:    level,
		Volume:   volume,
	}
}

func (sensor *PressureSensor) Poll(now time.Time) (float64, error) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()

	if !sensor.hasReading {
		return sensor.value, nil
	}

	voltage := float64(sensor.adc) * sensor.referenceVoltage / board.AdcResolution
	if sensor.ema != nil {
		voltage = sensor.ema.Update(voltage)
	}
	reading := sensor.convertVoltage(sensor.adc, voltage)

	value, err := sensor.display(reading)
	if err != nil {
		return sensor.value, fmt.Errorf("sensor %s: %w", sensor.GetId(), err)
	}
	if !util.IsFinite(value) {
		return sensor.value, fmt.Errorf("sensor %s: %w", sensor.GetId(), &util.NumericDomainError{Quantity: "pressure sensor value", Value: value})
	}

	sensor.reading = reading
	sensor.value = util.RoundTo(value, displayDecimals)
	return sensor.value, nil
}

func (sensor *PressureSensor) display(reading PressureReading) (float64, error) {
	switch sensor.Config.Pressure.Mode {
	case configuration.PressureSensorModeDigits:
		return float64(reading.Digits), nil
	case configuration.PressureSensorModeVoltage:
		return reading.Voltage, nil
	case configuration.PressureSensorModePressure:
		return units.Convert(reading.Pressure, units.KiloPascal, sensor.pressureUnit)
	case configuration.PressureSensorModeVolume:
		return units.Convert(reading.Volume, units.Liter, sensor.volumeUnit)
	default:
		return units.Convert(reading.Level, units.Centimeter, sensor.lengthUnit)
	}
}

func (sensor *PressureSensor) GetValue() (float64, error) {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	return sensor.value, nil
}

func (sensor *PressureSensor) GetReading() PressureReading {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	return sensor.reading
}

func (sensor *PressureSensor) GetUnit() string {
	switch sensor.Config.Pressure.Mode {
	case configuration.PressureSensorModeDigits:
		return "adc"
	case configuration.PressureSensorModeVoltage:
		return "V"
	case configuration.PressureSensorModePressure:
		return sensor.pressureUnit.String()
	case configuration.PressureSensorModeVolume:
		return sensor.volumeUnit.String()
	default:
		return sensor.lengthUnit.String()
	}
}

// Reset clears the smoothing state
func (sensor *PressureSensor) Reset(now time.Time) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	if sensor.ema != nil {
		sensor.ema.Reset()
	}
}
