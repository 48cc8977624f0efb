package board

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

// AdcResolution is the maximum value of the 10-bit analog inputs
const AdcResolution = 1023

// SimulatedBoard is an in-memory board. Written values are recorded,
// analog inputs report injected values or, with noise enabled, random 10-bit readings.
type SimulatedBoard struct {
	model Model
	noise bool

	mu           sync.Mutex
	modes        map[int]pinMode
	analogInputs map[int]int
	analogOut    map[int]int
	digitalOut   map[int]int
	writeErr     error
	random       *rand.Rand

	reporter *analogReporter
}

func NewSimulatedBoard(model Model, noise bool) *SimulatedBoard {
	b := &SimulatedBoard{
		model:        model,
		noise:        noise,
		modes:        map[int]pinMode{},
		analogInputs: map[int]int{},
		analogOut:    map[int]int{},
		digitalOut:   map[int]int{},
		random:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	b.reporter = newAnalogReporter(b.readAnalogInput)
	return b
}

func (b *SimulatedBoard) Connect() error {
	ui.Info("Using simulated %s board", b.model.Name)
	return nil
}

func (b *SimulatedBoard) Model() Model {
	return b.model
}

func (b *SimulatedBoard) SetPinModeAnalogInput(pin int, interval time.Duration, callback AnalogCallback) error {
	if !b.model.IsAnalogPin(pin) {
		return fmt.Errorf("pin A%d is not an analog input on %s boards", pin, b.model.Name)
	}
	if interval <= 0 {
		return fmt.Errorf("%w: reporting interval must be positive, got %v", util.ErrInvalidParameter, interval)
	}
	b.mu.Lock()
	b.modes[pin] = pinModeAnalogInput
	b.mu.Unlock()
	b.reporter.register(pin, interval, callback)
	return nil
}

func (b *SimulatedBoard) SetPinModeAnalogOutput(pin int) error {
	if !b.model.IsPwmPin(pin) {
		return fmt.Errorf("pin %d is not a PWM pin on %s boards", pin, b.model.Name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes[pin] = pinModeAnalogOutput
	return nil
}

func (b *SimulatedBoard) SetPinModeDigitalOutput(pin int) error {
	if !b.model.IsDigitalPin(pin) {
		return fmt.Errorf("pin %d is not a digital pin on %s boards", pin, b.model.Name)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes[pin] = pinModeDigitalOutput
	return nil
}

func (b *SimulatedBoard) AnalogWrite(pin int, value int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.modes[pin] != pinModeAnalogOutput {
		return fmt.Errorf("pin %d has not been configured for this operation", pin)
	}
	if b.writeErr != nil {
		return util.NewTransientHardwareError("analog write", pin, b.writeErr)
	}
	b.analogOut[pin] = util.CoerceInt(value, 0, 255)
	return nil
}

func (b *SimulatedBoard) DigitalWrite(pin int, value int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.modes[pin] != pinModeDigitalOutput {
		return fmt.Errorf("pin %d has not been configured for this operation", pin)
	}
	if b.writeErr != nil {
		return util.NewTransientHardwareError("digital write", pin, b.writeErr)
	}
	if value != 0 {
		value = 1
	}
	b.digitalOut[pin] = value
	return nil
}

func (b *SimulatedBoard) EnableAnalogReporting(pin int) error {
	return b.reporter.enable(pin)
}

func (b *SimulatedBoard) DisableAnalogReporting(pin int) error {
	return b.reporter.disable(pin)
}

func (b *SimulatedBoard) Close() error {
	b.reporter.stopAll()
	return nil
}

// SetAnalogInput sets the value reported by an analog input pin
func (b *SimulatedBoard) SetAnalogInput(pin int, value int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.analogInputs[pin] = util.CoerceInt(value, 0, AdcResolution)
}

// Emit delivers the current value of an analog input pin to its callback immediately.
// Returns false if reporting is not enabled for the pin.
func (b *SimulatedBoard) Emit(pin int) bool {
	callback, ok := b.reporter.callback(pin)
	if !ok {
		return false
	}
	value, _ := b.readAnalogInput(pin)
	callback(AnalogReport{
		Type:      ReportTypeAnalog,
		Pin:       pin,
		Value:     value,
		Timestamp: time.Now(),
	})
	return true
}

// SetWriteError makes all subsequent writes fail with err, nil restores normal operation
func (b *SimulatedBoard) SetWriteError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeErr = err
}

// AnalogOutput returns the last value written to a PWM pin
func (b *SimulatedBoard) AnalogOutput(pin int) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	value, ok := b.analogOut[pin]
	return value, ok
}

// DigitalOutput returns the last level written to a digital pin
func (b *SimulatedBoard) DigitalOutput(pin int) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	value, ok := b.digitalOut[pin]
	return value, ok
}

func (b *SimulatedBoard) ReportingEnabled(pin int) bool {
	return b.reporter.enabled(pin)
}

func (b *SimulatedBoard) readAnalogInput(pin int) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.noise {
		return b.random.Intn(AdcResolution + 1), nil
	}
	return b.analogInputs[pin], nil
}
