package configuration

import "time"

type BoardConfig struct {
	// Serial port the Arduino is connected to
	Port string `json:"port"`
	// One of: uno | nano | mega
	Model string `json:"model"`
	// Use an in-memory board instead of real hardware
	Simulate bool `json:"simulate"`
	// Interval in which analog inputs are reported
	ReportingInterval time.Duration `json:"reportingInterval"`
}
