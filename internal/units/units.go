package units

import (
	"errors"
	"fmt"
	"strings"
)

type Unit string

const (
	Liter      Unit = "L"
	GallonUS   Unit = "gal(us)"
	GallonUK   Unit = "gal(uk)"
	Quart      Unit = "qt"
	KiloPascal Unit = "kPa"
	PSI        Unit = "PSI"
	Centimeter Unit = "cm"
	Inch       Unit = "in"
)

type Dimension string

const (
	Volume   Dimension = "volume"
	Pressure Dimension = "pressure"
	Length   Dimension = "length"
)

var ErrUnsupportedUnit = errors.New("unsupported unit")

type unitInfo struct {
	dimension Dimension
	// amount of this unit that equals one base unit of its dimension (L, kPa, cm)
	perBase float64
}

var knownUnits = map[Unit]unitInfo{
	Liter:      {dimension: Volume, perBase: 1},
	GallonUS:   {dimension: Volume, perBase: 0.264172052},
	GallonUK:   {dimension: Volume, perBase: 0.219969157},
	Quart:      {dimension: Volume, perBase: 1.056688},
	KiloPascal: {dimension: Pressure, perBase: 1},
	PSI:        {dimension: Pressure, perBase: 0.145},
	Centimeter: {dimension: Length, perBase: 1},
	Inch:       {dimension: Length, perBase: 1 / 2.54},
}

var aliases = map[string]Unit{
	"l":         Liter,
	"liter":     Liter,
	"liters":    Liter,
	"litre":     Liter,
	"litres":    Liter,
	"gal":       GallonUS,
	"gallon":    GallonUS,
	"gallons":   GallonUS,
	"gal(us)":   GallonUS,
	"us-gallon": GallonUS,
	"gal(uk)":   GallonUK,
	"uk-gallon": GallonUK,
	"qt":        Quart,
	"quart":     Quart,
	"quarts":    Quart,
	"kpa":       KiloPascal,
	"psi":       PSI,
	"cm":        Centimeter,
	"in":        Inch,
	"inch":      Inch,
	"inches":    Inch,
}

// All returns every supported unit
func All() []Unit {
	return []Unit{Liter, GallonUS, GallonUK, Quart, KiloPascal, PSI, Centimeter, Inch}
}

// ParseUnit resolves a unit name, including common aliases like "Liters" or "Gallons"
func ParseUnit(name string) (Unit, error) {
	if _, ok := knownUnits[Unit(name)]; ok {
		return Unit(name), nil
	}
	if unit, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return unit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedUnit, name)
}

func (u Unit) String() string {
	return string(u)
}

// Valid is true for all units Convert can handle
func (u Unit) Valid() bool {
	_, ok := knownUnits[u]
	return ok
}

// Dimension returns the physical dimension of the unit, or an empty string for unknown units
func (u Unit) Dimension() Dimension {
	return knownUnits[u].dimension
}

// Convert converts value from one unit into another unit of the same dimension
func Convert(value float64, from Unit, to Unit) (float64, error) {
	fromInfo, ok := knownUnits[from]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedUnit, from)
	}
	toInfo, ok := knownUnits[to]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedUnit, to)
	}
	if fromInfo.dimension != toInfo.dimension {
		return 0, fmt.Errorf("%w: cannot convert %s (%s) to %s (%s)", ErrUnsupportedUnit, from, fromInfo.dimension, to, toInfo.dimension)
	}
	if from == to {
		return value, nil
	}
	return value / fromInfo.perBase * toInfo.perBase, nil
}
