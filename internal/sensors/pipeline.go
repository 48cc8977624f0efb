package sensors

import (
	"time"

	"github.com/brewgpio/brewgpio/internal/units"
	"github.com/brewgpio/brewgpio/internal/util"
)

type DisplayMode int

const (
	// DisplayRaw surfaces the unprocessed reading
	DisplayRaw DisplayMode = iota
	// DisplayRate surfaces the smoothed rate, per minute
	DisplayRate
	// DisplayTotal surfaces the integrated rate
	DisplayTotal
)

// Evaluator maps a raw reading to a physical value
type Evaluator interface {
	Evaluate(raw float64) float64
}

type identity struct{}

func (identity) Evaluate(raw float64) float64 {
	return raw
}

type PipelineOptions struct {
	// nil passes raw values through
	Evaluator Evaluator
	// Clamp calibrated values at zero, for quantities that cannot be negative
	FloorAtZero bool
	Alpha       float64
	Mode        DisplayMode
	// Unit of the calibrated value (per minute for rates), empty disables unit conversion
	BaseUnit    units.Unit
	DisplayUnit units.Unit
	Decimals    int
}

// Pipeline turns raw readings into display values:
// raw -> calibration -> floor at zero -> smoothing -> integration -> unit conversion -> rounding.
// It is not safe for concurrent use.
type Pipeline struct {
	options    PipelineOptions
	evaluator  Evaluator
	ema        *util.Ema
	integrator *util.RateIntegrator

	raw   float64
	rate  float64
	value float64
}

func NewPipeline(options PipelineOptions, now time.Time) (*Pipeline, error) {
	ema, err := util.NewEma(options.Alpha)
	if err != nil {
		return nil, err
	}
	if len(options.BaseUnit) > 0 || len(options.DisplayUnit) > 0 {
		// fail fast on unsupported unit combinations
		if _, err := units.Convert(0, options.BaseUnit, options.DisplayUnit); err != nil {
			return nil, err
		}
	}
	evaluator := options.Evaluator
	if evaluator == nil {
		evaluator = identity{}
	}
	return &Pipeline{
		options:    options,
		evaluator:  evaluator,
		ema:        ema,
		integrator: util.NewRateIntegrator(now),
	}, nil
}

// Process feeds a raw reading taken at now through the pipeline and returns the new display value.
// Non-finite readings or calibrated values are rejected with a NumericDomainError
// and leave the pipeline state unchanged.
func (p *Pipeline) Process(raw float64, now time.Time) (float64, error) {
	if !util.IsFinite(raw) {
		return p.value, &util.NumericDomainError{Quantity: "raw reading", Value: raw}
	}

	calibrated := p.evaluator.Evaluate(raw)
	if !util.IsFinite(calibrated) {
		return p.value, &util.NumericDomainError{Quantity: "calibrated value", Value: calibrated}
	}
	if p.options.FloorAtZero && calibrated < 0 {
		calibrated = 0
	}

	p.raw = raw
	p.rate = p.ema.Update(calibrated)
	total := p.integrator.Integrate(p.rate, now)

	var value float64
	var err error
	switch p.options.Mode {
	case DisplayRaw:
		value = raw
	case DisplayRate:
		value, err = p.convert(p.rate)
	case DisplayTotal:
		value, err = p.convert(total)
	}
	if err != nil {
		return p.value, err
	}

	p.value = util.RoundTo(value, p.options.Decimals)
	return p.value, nil
}

func (p *Pipeline) convert(value float64) (float64, error) {
	if len(p.options.BaseUnit) <= 0 {
		return value, nil
	}
	return units.Convert(value, p.options.BaseUnit, p.options.DisplayUnit)
}

// Reset clears the smoothing and integration state, the calibration is kept
func (p *Pipeline) Reset(now time.Time) {
	p.ema.Reset()
	p.integrator.Reset(now)
	p.rate = 0
	if p.options.Mode != DisplayRaw {
		p.value = 0
	}
}

// Rate returns the smoothed calibrated value, in the base unit
func (p *Pipeline) Rate() float64 {
	return p.rate
}

// Total returns the integrated value, in the base unit
func (p *Pipeline) Total() float64 {
	return p.integrator.Total()
}

// Raw returns the last accepted raw reading
func (p *Pipeline) Raw() float64 {
	return p.raw
}

// Value returns the last display value
func (p *Pipeline) Value() float64 {
	return p.value
}

func (p *Pipeline) Mode() DisplayMode {
	return p.options.Mode
}
