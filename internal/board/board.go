package board

import (
	"time"
)

type ReportType int

const (
	ReportTypeAnalog ReportType = iota + 1
	ReportTypeDigital
)

// AnalogReport is delivered to the callback of an analog input pin on every reporting interval
type AnalogReport struct {
	Type      ReportType
	Pin       int
	Value     int
	Timestamp time.Time
}

type AnalogCallback func(report AnalogReport)

// Board is the hardware transport to a microcontroller
type Board interface {
	// Connect opens the connection to the board
	Connect() error

	// Model returns the pin layout of the board
	Model() Model

	SetPinModeAnalogInput(pin int, interval time.Duration, callback AnalogCallback) error
	SetPinModeAnalogOutput(pin int) error
	SetPinModeDigitalOutput(pin int) error

	// AnalogWrite writes a PWM duty cycle (0-255) to the given pin
	AnalogWrite(pin int, value int) error
	// DigitalWrite writes a digital level (0 or 1) to the given pin
	DigitalWrite(pin int, value int) error

	EnableAnalogReporting(pin int) error
	DisableAnalogReporting(pin int) error

	// Close stops all analog reporting and disconnects from the board
	Close() error
}
