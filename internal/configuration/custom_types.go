package configuration

import (
	"reflect"
	"strconv"

	"github.com/brewgpio/brewgpio/internal/units"
	"github.com/mitchellh/mapstructure"
)

// Optional is a generic container for optional configuration values.
type Optional[T any] struct {
	// Value holds the actual as unmarshalled.
	Value T
	// Present indicates if the value was present in the configuration.
	Present bool
	// RuntimeOverride indicates if the value was overridden at runtime.
	RuntimeOverride bool
}

func (o *Optional[T]) Get() T {
	return o.Value
}

// SetOverride sets the value and marks it as overridden at runtime.
func (o *Optional[T]) SetOverride(value T) {
	o.RuntimeOverride = true
	o.Value = value
}

// DefaultTrueBool is a boolean type that defaults to true if not present and not overridden.
type DefaultTrueBool struct {
	Optional[bool]
}

// NewDefaultTrueBool creates a DefaultTrueBool that is present with the given value
func NewDefaultTrueBool(value bool) DefaultTrueBool {
	return DefaultTrueBool{Optional: Optional[bool]{Value: value, Present: true}}
}

// Get returns the boolean value, defaulting to true if not present and not overridden.
func (b *DefaultTrueBool) Get() bool {
	if !b.Present && !b.RuntimeOverride {
		return true
	}
	return b.Value
}

// DefaultTrueBoolHookFunc returns a mapstructure decode hook function for DefaultTrueBool.
// Besides booleans it accepts the strings "yes" and "no".
func DefaultTrueBoolHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{}) (interface{}, error) {

		// Only target our specific named type
		if t != reflect.TypeOf(DefaultTrueBool{}) {
			return data, nil
		}

		var val bool
		switch v := data.(type) {
		case bool:
			val = v
		case string:
			switch v {
			case "yes", "Yes":
				val = true
			case "no", "No":
				val = false
			default:
				parsed, err := strconv.ParseBool(v)
				if err != nil {
					return data, nil
				}
				val = parsed
			}
		default:
			return data, nil
		}

		return NewDefaultTrueBool(val), nil
	}
}

// UnitHookFunc returns a mapstructure decode hook that resolves unit names and aliases
// (e.g. "Liters", "Gallons") to a units.Unit.
func UnitHookFunc() mapstructure.DecodeHookFuncType {
	unitType := reflect.TypeOf(units.Unit(""))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{}) (interface{}, error) {
		if t != unitType {
			return data, nil
		}
		name, ok := data.(string)
		if !ok || len(name) <= 0 {
			return data, nil
		}
		return units.ParseUnit(name)
	}
}
