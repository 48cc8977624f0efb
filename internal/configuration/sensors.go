package configuration

import (
	"github.com/brewgpio/brewgpio/internal/units"
)

type SensorConfig struct {
	ID       string                `json:"id"`
	Flow     *FlowSensorConfig     `json:"flow,omitempty"`
	Volume   *VolumeSensorConfig   `json:"volume,omitempty"`
	Pressure *PressureSensorConfig `json:"pressure,omitempty"`
	File     *FileSensorConfig     `json:"file,omitempty"`
	Cmd      *CmdSensorConfig      `json:"cmd,omitempty"`
}

type FlowSensorMode string

const (
	FlowSensorModeAdc    FlowSensorMode = "adc"
	FlowSensorModeFlow   FlowSensorMode = "flow"
	FlowSensorModeVolume FlowSensorMode = "volume"
)

type FlowSensorConfig struct {
	// Analog input pin
	Pin int `json:"pin"`
	// One of: adc | flow | volume
	Mode FlowSensorMode `json:"mode"`
	// EMA smoothing factor in (0, 1], 0 means default (0.2)
	Alpha float64 `json:"alpha"`
	// Display unit of the volume, flow rates are shown as <unit>/min
	Unit units.Unit `json:"unit"`
	// JSON file with zero_offset, adc_values and flow_rates
	CalibrationFile string `json:"calibrationFile"`
	// Degree of the calibration polynomial, 0 means default (2)
	Degree int `json:"degree"`
	// Report random 10-bit ADC values instead of reading the pin
	Simulate bool `json:"simulate"`
}

type VolumeSensorConfig struct {
	// Id of the flow sensor to integrate
	Sensor string `json:"sensor"`
	// Volume unit of the flow rate reported by the source sensor (per minute)
	FlowUnit units.Unit `json:"flowUnit"`
	// Display unit of the volume
	VolumeUnit units.Unit `json:"volumeUnit"`
	Alpha      float64    `json:"alpha"`
}

type PressureSensorMode string

const (
	PressureSensorModeVoltage  PressureSensorMode = "voltage"
	PressureSensorModeDigits   PressureSensorMode = "digits"
	PressureSensorModePressure PressureSensorMode = "pressure"
	PressureSensorModeLevel    PressureSensorMode = "level"
	PressureSensorModeVolume   PressureSensorMode = "volume"
)

type PressureSensorConfig struct {
	Pin  int                `json:"pin"`
	Mode PressureSensorMode `json:"mode"`

	// Sensor voltage at pressureLow / pressureHigh
	VoltLow  float64 `json:"voltLow"`
	VoltHigh float64 `json:"voltHigh"`
	// Pressure at voltLow / voltHigh, in pressureUnit
	PressureLow  float64 `json:"pressureLow"`
	PressureHigh float64 `json:"pressureHigh"`
	// Reference voltage of the ADC, 0 means default (5V)
	ReferenceVoltage float64 `json:"referenceVoltage"`

	// Distance of the sensor from the bottom of the kettle, in lengthUnit
	SensorHeight float64 `json:"sensorHeight"`
	// Diameter of the kettle, in lengthUnit
	KettleDiameter float64 `json:"kettleDiameter"`

	PressureUnit units.Unit `json:"pressureUnit"`
	LengthUnit   units.Unit `json:"lengthUnit"`
	VolumeUnit   units.Unit `json:"volumeUnit"`

	// EMA smoothing factor, 0 disables smoothing
	Alpha float64 `json:"alpha"`
}

type FileSensorConfig struct {
	Path string `json:"path"`
	// Factor the file content is multiplied with, 0 means 1
	Scale float64 `json:"scale"`
}

type CmdSensorConfig struct {
	Exec  string   `json:"exec"`
	Args  []string `json:"args"`
	Scale float64  `json:"scale"`
}
