package sensors

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/brewgpio/brewgpio/internal/board"
	"github.com/brewgpio/brewgpio/internal/calibration"
	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/units"
	"github.com/brewgpio/brewgpio/internal/util"
)

const DefaultCalibrationDir = "~/.config/brewgpio/calibration"

// FlowSensor reads a flow meter on an analog input and converts its ADC readings
// to a flow rate (L/min) using a polynomial calibration.
// The smoothed flow rate is published to the flow registry on every poll.
type FlowSensor struct {
	Config configuration.SensorConfig

	board             board.Board
	flows             *FlowRegistry
	reportingInterval time.Duration
	calibrationPath   string
	unit              units.Unit

	mu          sync.RWMutex
	calibration *calibration.Calibration
	pipeline    *Pipeline
	adc         int
	hasReading  bool
	value       float64
	random      *rand.Rand
}

func NewFlowSensor(config configuration.SensorConfig, env Environment) (*FlowSensor, error) {
	flowConfig := config.Flow
	if !flowConfig.Simulate && env.Board == nil {
		return nil, util.NewConfigurationError("sensor "+config.ID, fmt.Errorf("no board available"))
	}

	calibrationPath := CalibrationPath(config, env.CalibrationDir)

	var flows *FlowRegistry
	if env.Registry != nil {
		flows = env.Registry.Flows()
	}

	return &FlowSensor{
		Config:            config,
		board:             env.Board,
		flows:             flows,
		reportingInterval: env.ReportingInterval,
		calibrationPath:   calibrationPath,
		unit:              unitOrDefault(flowConfig.Unit, env.DefaultUnit),
	}, nil
}

// CalibrationPath returns the calibration file of a flow sensor, dir is used if the sensor does not configure a file
func CalibrationPath(config configuration.SensorConfig, dir string) string {
	if len(config.Flow.CalibrationFile) > 0 {
		return config.Flow.CalibrationFile
	}
	if len(dir) <= 0 {
		dir = DefaultCalibrationDir
	}
	return filepath.Join(dir, config.ID+".json")
}

func (sensor *FlowSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor *FlowSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

// Start loads (or creates) the calibration file and enables analog reporting of the sensor pin
func (sensor *FlowSensor) Start(ctx context.Context) error {
	if err := sensor.LoadCalibration(time.Now()); err != nil {
		return err
	}

	if sensor.Config.Flow.Simulate {
		sensor.mu.Lock()
		sensor.random = rand.New(rand.NewSource(time.Now().UnixNano()))
		sensor.mu.Unlock()
		return nil
	}

	pin := sensor.Config.Flow.Pin
	if err := sensor.board.SetPinModeAnalogInput(pin, sensor.reportingInterval, sensor.onAnalogReport); err != nil {
		return util.NewConfigurationError("sensor "+sensor.GetId(), err)
	}
	return sensor.board.EnableAnalogReporting(pin)
}

// LoadCalibration (re)builds the calibration and the pipeline from the calibration file
func (sensor *FlowSensor) LoadCalibration(now time.Time) error {
	file, err := calibration.LoadOrCreate(sensor.calibrationPath)
	if err != nil {
		return util.NewConfigurationError("sensor "+sensor.GetId(), err)
	}
	degree := sensor.Config.Flow.Degree
	if degree <= 0 {
		degree = calibration.DefaultDegree
	}
	cal, err := file.Build(degree)
	if err != nil {
		return util.NewConfigurationError("sensor "+sensor.GetId(), err)
	}
	return sensor.SetCalibration(cal, now)
}

// SetCalibration replaces the calibration, which resets smoothing and integration state
func (sensor *FlowSensor) SetCalibration(cal *calibration.Calibration, now time.Time) error {
	pipeline, err := NewPipeline(PipelineOptions{
		Evaluator:   cal,
		FloorAtZero: true,
		Alpha:       alphaOrDefault(sensor.Config.Flow.Alpha),
		Mode:        flowDisplayMode(sensor.Config.Flow.Mode),
		BaseUnit:    units.Liter,
		DisplayUnit: sensor.unit,
		Decimals:    displayDecimals,
	}, now)
	if err != nil {
		return util.NewConfigurationError("sensor "+sensor.GetId(), err)
	}

	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	sensor.calibration = cal
	sensor.pipeline = pipeline
	sensor.value = 0
	return nil
}

func flowDisplayMode(mode configuration.FlowSensorMode) DisplayMode {
	switch mode {
	case configuration.FlowSensorModeAdc:
		return DisplayRaw
	case configuration.FlowSensorModeVolume:
		return DisplayTotal
	default:
		return DisplayRate
	}
}

func (sensor *FlowSensor) onAnalogReport(report board.AnalogReport) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	sensor.adc = report.Value
	sensor.hasReading = true
}

func (sensor *FlowSensor) Poll(now time.Time) (float64, error) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()

	if sensor.pipeline == nil {
		return 0, fmt.Errorf("sensor %s: not started", sensor.GetId())
	}

	if sensor.random != nil {
		sensor.adc = sensor.random.Intn(board.AdcResolution + 1)
		sensor.hasReading = true
	}
	if !sensor.hasReading {
		// nothing reported by the board yet
		return sensor.value, nil
	}

	value, err := sensor.pipeline.Process(float64(sensor.adc), now)
	if err != nil {
		return sensor.value, fmt.Errorf("sensor %s: %w", sensor.GetId(), err)
	}
	sensor.value = value

	if sensor.flows != nil {
		sensor.flows.Publish(sensor.GetId(), sensor.pipeline.Rate())
	}
	return sensor.value, nil
}

func (sensor *FlowSensor) GetValue() (float64, error) {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	return sensor.value, nil
}

func (sensor *FlowSensor) GetUnit() string {
	switch flowDisplayMode(sensor.Config.Flow.Mode) {
	case DisplayRaw:
		return "adc"
	case DisplayTotal:
		return sensor.unit.String()
	default:
		return sensor.unit.String() + "/min"
	}
}

// Reset clears the integrated volume and the smoothing state
func (sensor *FlowSensor) Reset(now time.Time) {
	sensor.mu.Lock()
	defer sensor.mu.Unlock()
	if sensor.pipeline == nil {
		return
	}
	sensor.pipeline.Reset(now)
	sensor.value = sensor.pipeline.Value()
	if sensor.flows != nil {
		sensor.flows.Publish(sensor.GetId(), 0)
	}
}

// GetCalibration returns the active calibration, nil before Start
func (sensor *FlowSensor) GetCalibration() *calibration.Calibration {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	return sensor.calibration
}

// GetFlowRate returns the smoothed flow rate in L/min
func (sensor *FlowSensor) GetFlowRate() float64 {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	if sensor.pipeline == nil {
		return 0
	}
	return sensor.pipeline.Rate()
}

// GetTotalVolume returns the volume in L that passed the sensor since the last reset
func (sensor *FlowSensor) GetTotalVolume() float64 {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	if sensor.pipeline == nil {
		return 0
	}
	return sensor.pipeline.Total()
}

// GetRaw returns the last ADC reading
func (sensor *FlowSensor) GetRaw() (int, bool) {
	sensor.mu.RLock()
	defer sensor.mu.RUnlock()
	return sensor.adc, sensor.hasReading
}

func (sensor *FlowSensor) CalibrationPath() string {
	return sensor.calibrationPath
}
