package util

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is returned when a numeric parameter is outside of its allowed domain
var ErrInvalidParameter = errors.New("invalid parameter")

// ConfigurationError signals a malformed or inconsistent configuration.
// It is never recoverable at runtime and should abort the construction of the affected component.
type ConfigurationError struct {
	Component string
	Err       error
}

func NewConfigurationError(component string, err error) *ConfigurationError {
	return &ConfigurationError{Component: component, Err: err}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid configuration: %v", e.Component, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// TransientHardwareError signals a single failed read or write on the hardware transport.
// Control loops log it and continue with the previous value.
type TransientHardwareError struct {
	Operation string
	Pin       int
	Err       error
}

func NewTransientHardwareError(operation string, pin int, err error) *TransientHardwareError {
	return &TransientHardwareError{Operation: operation, Pin: pin, Err: err}
}

func (e *TransientHardwareError) Error() string {
	return fmt.Sprintf("%s on pin %d failed: %v", e.Operation, e.Pin, e.Err)
}

func (e *TransientHardwareError) Unwrap() error {
	return e.Err
}

// NumericDomainError signals a value that would propagate NaN or Inf into state or display values.
type NumericDomainError struct {
	Quantity string
	Value    float64
}

func (e *NumericDomainError) Error() string {
	return fmt.Sprintf("%s is not a finite number: %v", e.Quantity, e.Value)
}

// IsTransient reports whether err is (or wraps) a TransientHardwareError
func IsTransient(err error) bool {
	var hwErr *TransientHardwareError
	return errors.As(err, &hwErr)
}
