package configuration

import "time"

type StepConfig struct {
	ID     string            `json:"id"`
	Volume *VolumeStepConfig `json:"volume,omitempty"`
	Cool   *CoolStepConfig   `json:"cool,omitempty"`
}

type VolumeStepConfig struct {
	// Volume to transfer, in the unit of the sensor
	Target float64 `json:"target"`
	// Actor switching the media flow on and off
	Actor string `json:"actor"`
	// Volume sensor measuring the transferred volume
	Sensor string `json:"sensor"`
	// Reset the sensor after the transfer finished
	ResetSensor DefaultTrueBool `json:"resetSensor"`
	// Time the actor keeps running after the target has been reached, 0 means default (1s)
	SettleTime time.Duration `json:"settleTime"`
	// 0 means default (200ms)
	PollingRate time.Duration `json:"pollingRate"`
}

type CoolStepConfig struct {
	// Setpoint of the temperature differential between wort input and output, 0 means default (18)
	SetPoint float64   `json:"setPoint"`
	Pid      PidConfig `json:"pid"`

	// Optional, without it the differential is 0
	InputSensor  string `json:"inputSensor"`
	OutputSensor string `json:"outputSensor"`
	FlowSensor   string `json:"flowSensor"`
	// Optional, only reported
	VolumeSensor string `json:"volumeSensor"`
	Pump         string `json:"pump"`

	// Flow rate (L/min) below which the pump is forced to minFlowPower while the differential is negative,
	// 0 means default (1 L/min)
	MinFlowThreshold float64 `json:"minFlowThreshold"`
	// 0 means default (20%)
	MinFlowPower float64 `json:"minFlowPower"`

	// The step finishes once the output temperature is at or below this value
	TargetTemperature *float64 `json:"targetTemperature,omitempty"`

	// 0 means default (100ms)
	Interval time.Duration `json:"interval"`
}
