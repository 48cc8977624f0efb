package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/brewgpio/brewgpio/internal/ui"
	"github.com/brewgpio/brewgpio/internal/util"
)

const DefaultDegree = 2

// File is the on-disk format of a flow sensor calibration
type File struct {
	ZeroOffset float64   `json:"zero_offset"`
	AdcValues  []float64 `json:"adc_values"`
	FlowRates  []float64 `json:"flow_rates"`
}

// DefaultFile returns the calibration that is written when no calibration file exists yet
func DefaultFile() File {
	return File{
		ZeroOffset: 0,
		AdcValues:  []float64{0, 210, 500, 770, 1000},
		FlowRates:  []float64{0, 5.20, 11.25, 17.05, 22.0},
	}
}

// Load reads a calibration file from path
func Load(path string) (*File, error) {
	path, err := util.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file File
	if err = json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("malformed calibration file %s: %w", path, err)
	}
	if err = file.Validate(); err != nil {
		return nil, fmt.Errorf("invalid calibration file %s: %w", path, err)
	}
	return &file, nil
}

// LoadOrCreate reads the calibration file at path, writing the default calibration first if it does not exist
func LoadOrCreate(path string) (*File, error) {
	expanded, err := util.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	_, err = os.Stat(expanded)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Calibration file %s not found, writing default calibration", expanded)
		defaults := DefaultFile()
		if err = Save(expanded, defaults); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return Load(expanded)
}

// Save writes the calibration file atomically
func Save(path string, file File) error {
	if err := file.Validate(); err != nil {
		return err
	}
	path, err := util.ExpandPath(path)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(path, data)
}

func (f File) Validate() error {
	if len(f.AdcValues) != len(f.FlowRates) {
		return fmt.Errorf("adc_values (%d) and flow_rates (%d) must have the same length", len(f.AdcValues), len(f.FlowRates))
	}
	if !util.IsFinite(f.ZeroOffset) {
		return fmt.Errorf("zero_offset must be a finite number")
	}
	return nil
}

func (f File) Points() []Point {
	result := make([]Point, len(f.AdcValues))
	for i := range f.AdcValues {
		result[i] = Point{X: f.AdcValues[i], Y: f.FlowRates[i]}
	}
	return result
}

// Build fits a curve of the given degree to the calibration points
func (f File) Build(degree int) (*Calibration, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	curve, err := Fit(f.Points(), degree)
	if err != nil {
		return nil, err
	}
	return &Calibration{
		ZeroOffset: f.ZeroOffset,
		Curve:      curve,
	}, nil
}
