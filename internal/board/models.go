package board

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Model describes the pins available on a board
type Model struct {
	Name        string
	DigitalPins []int
	PwmPins     []int
	AnalogPins  []int
}

var (
	Uno = Model{
		Name:        "uno",
		DigitalPins: pinRange(0, 13),
		PwmPins:     []int{3, 5, 6, 9, 10, 11},
		AnalogPins:  pinRange(0, 5),
	}
	Nano = Model{
		Name:        "nano",
		DigitalPins: pinRange(0, 13),
		PwmPins:     []int{3, 5, 6, 9, 10, 11},
		AnalogPins:  pinRange(0, 7),
	}
	Mega = Model{
		Name:        "mega",
		DigitalPins: pinRange(0, 53),
		PwmPins:     append(pinRange(2, 13), 44, 45, 46),
		AnalogPins:  pinRange(0, 15),
	}
)

var models = []Model{Uno, Nano, Mega}

// ModelNames returns the names of all supported board models
func ModelNames() []string {
	var result []string
	for _, model := range models {
		result = append(result, model.Name)
	}
	return result
}

// ModelByName finds a board model by its (case-insensitive) name
func ModelByName(name string) (Model, error) {
	for _, model := range models {
		if strings.EqualFold(model.Name, name) {
			return model, nil
		}
	}
	return Model{}, fmt.Errorf("unknown board model '%s', use one of: %s", name, strings.Join(ModelNames(), " | "))
}

func (m Model) IsDigitalPin(pin int) bool {
	return slices.Contains(m.DigitalPins, pin)
}

func (m Model) IsPwmPin(pin int) bool {
	return slices.Contains(m.PwmPins, pin)
}

func (m Model) IsAnalogPin(pin int) bool {
	return slices.Contains(m.AnalogPins, pin)
}

func pinRange(from, to int) []int {
	var result []int
	for pin := from; pin <= to; pin++ {
		result = append(result, pin)
	}
	return result
}
