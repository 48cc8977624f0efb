package board

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
	"gobot.io/x/gobot/platforms/firmata"
)

// firmataConnection is the subset of the gobot firmata adaptor used by FirmataBoard
type firmataConnection interface {
	Connect() error
	Finalize() error
	AnalogRead(pin string) (int, error)
	PwmWrite(pin string, level byte) error
	DigitalWrite(pin string, level byte) error
}

type pinMode int

const (
	pinModeAnalogInput pinMode = iota + 1
	pinModeAnalogOutput
	pinModeDigitalOutput
)

// FirmataBoard talks to an Arduino running the StandardFirmata sketch over a serial port
type FirmataBoard struct {
	port  string
	model Model
	conn  firmataConnection

	mu       sync.Mutex
	modes    map[int]pinMode
	reporter *analogReporter
}

func NewFirmataBoard(port string, model Model) *FirmataBoard {
	return newFirmataBoard(port, model, firmata.NewAdaptor(port))
}

func newFirmataBoard(port string, model Model, conn firmataConnection) *FirmataBoard {
	b := &FirmataBoard{
		port:  port,
		model: model,
		conn:  conn,
		modes: map[int]pinMode{},
	}
	b.reporter = newAnalogReporter(b.analogRead)
	return b
}

func (b *FirmataBoard) Connect() error {
	if err := b.conn.Connect(); err != nil {
		return fmt.Errorf("cannot connect to %s board on %s: %w", b.model.Name, b.port, err)
	}
	ui.Info("Connected to %s board on port: %s", b.model.Name, b.port)
	return nil
}

func (b *FirmataBoard) Model() Model {
	return b.model
}

func (b *FirmataBoard) SetPinModeAnalogInput(pin int, interval time.Duration, callback AnalogCallback) error {
	if !b.model.IsAnalogPin(pin) {
		return fmt.Errorf("pin A%d is not an analog input on %s boards", pin, b.model.Name)
	}
	if interval <= 0 {
		return fmt.Errorf("%w: reporting interval must be positive, got %v", util.ErrInvalidParameter, interval)
	}
	b.setMode(pin, pinModeAnalogInput)
	b.reporter.register(pin, interval, callback)
	return nil
}

func (b *FirmataBoard) SetPinModeAnalogOutput(pin int) error {
	if !b.model.IsPwmPin(pin) {
		return fmt.Errorf("pin %d is not a PWM pin on %s boards", pin, b.model.Name)
	}
	b.setMode(pin, pinModeAnalogOutput)
	return nil
}

func (b *FirmataBoard) SetPinModeDigitalOutput(pin int) error {
	if !b.model.IsDigitalPin(pin) {
		return fmt.Errorf("pin %d is not a digital pin on %s boards", pin, b.model.Name)
	}
	b.setMode(pin, pinModeDigitalOutput)
	return nil
}

func (b *FirmataBoard) AnalogWrite(pin int, value int) error {
	if err := b.requireMode(pin, pinModeAnalogOutput); err != nil {
		return err
	}
	level := byte(util.CoerceInt(value, 0, 255))
	if err := b.conn.PwmWrite(strconv.Itoa(pin), level); err != nil {
		return util.NewTransientHardwareError("analog write", pin, err)
	}
	return nil
}

func (b *FirmataBoard) DigitalWrite(pin int, value int) error {
	if err := b.requireMode(pin, pinModeDigitalOutput); err != nil {
		return err
	}
	level := byte(0)
	if value != 0 {
		level = 1
	}
	if err := b.conn.DigitalWrite(strconv.Itoa(pin), level); err != nil {
		return util.NewTransientHardwareError("digital write", pin, err)
	}
	return nil
}

func (b *FirmataBoard) EnableAnalogReporting(pin int) error {
	return b.reporter.enable(pin)
}

func (b *FirmataBoard) DisableAnalogReporting(pin int) error {
	return b.reporter.disable(pin)
}

func (b *FirmataBoard) Close() error {
	b.reporter.stopAll()
	return b.conn.Finalize()
}

func (b *FirmataBoard) analogRead(pin int) (int, error) {
	return b.conn.AnalogRead(strconv.Itoa(pin))
}

func (b *FirmataBoard) setMode(pin int, mode pinMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modes[pin] = mode
}

func (b *FirmataBoard) requireMode(pin int, mode pinMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.modes[pin] != mode {
		return fmt.Errorf("pin %d has not been configured for this operation", pin)
	}
	return nil
}
