package calibration

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/brewgpio/brewgpio/internal/util"
)

var (
	ErrInsufficientSamples = errors.New("insufficient calibration samples")
	ErrUndefinedSlope      = errors.New("undefined slope: x values of both endpoints are equal")
)

type Point struct {
	X float64
	Y float64
}

// Curve is an immutable polynomial mapping from a raw reading to a physical value.
// Evaluation outside of the sampled range extrapolates the polynomial,
// which is not guaranteed to be accurate.
type Curve struct {
	// polynomial coefficients in ascending order, in terms of t = (x - shift) / scale
	coefficients []float64
	shift        float64
	scale        float64
}

// NewLinearCurve creates a line through (xLow, yLow) and (xHigh, yHigh)
func NewLinearCurve(xLow, yLow, xHigh, yHigh float64) (*Curve, error) {
	if !util.IsFinite(xLow) || !util.IsFinite(yLow) || !util.IsFinite(xHigh) || !util.IsFinite(yHigh) {
		return nil, fmt.Errorf("%w: endpoints must be finite", util.ErrInvalidParameter)
	}
	if xHigh == xLow {
		return nil, ErrUndefinedSlope
	}
	slope := (yHigh - yLow) / (xHigh - xLow)
	intercept := yLow - slope*xLow
	return &Curve{
		coefficients: []float64{intercept, slope},
		shift:        0,
		scale:        1,
	}, nil
}

// Fit computes the least squares polynomial of the given degree through samples.
// At least degree+1 distinct x values are required.
func Fit(samples []Point, degree int) (*Curve, error) {
	if degree < 0 {
		return nil, fmt.Errorf("%w: degree must not be negative, got %d", util.ErrInvalidParameter, degree)
	}

	distinct := map[float64]bool{}
	minX, maxX := math.Inf(1), math.Inf(-1)
	sumX := 0.0
	for _, sample := range samples {
		if !util.IsFinite(sample.X) || !util.IsFinite(sample.Y) {
			return nil, fmt.Errorf("%w: sample (%v, %v) is not finite", util.ErrInvalidParameter, sample.X, sample.Y)
		}
		distinct[sample.X] = true
		minX = math.Min(minX, sample.X)
		maxX = math.Max(maxX, sample.X)
		sumX += sample.X
	}
	if len(distinct) < degree+1 {
		return nil, fmt.Errorf("%w: degree %d needs %d distinct x values, got %d", ErrInsufficientSamples, degree, degree+1, len(distinct))
	}

	// normalize x to roughly [-1, 1] to keep the normal equations well conditioned
	shift := sumX / float64(len(samples))
	scale := math.Max(maxX-shift, shift-minX)
	if scale == 0 {
		scale = 1
	}

	size := degree + 1
	matrix := make([][]float64, size)
	for row := range matrix {
		matrix[row] = make([]float64, size+1)
	}
	for _, sample := range samples {
		t := (sample.X - shift) / scale
		powers := make([]float64, 2*degree+1)
		powers[0] = 1
		for i := 1; i < len(powers); i++ {
			powers[i] = powers[i-1] * t
		}
		for row := 0; row < size; row++ {
			for col := 0; col < size; col++ {
				matrix[row][col] += powers[row+col]
			}
			matrix[row][size] += sample.Y * powers[row]
		}
	}

	coefficients, err := solve(matrix)
	if err != nil {
		return nil, err
	}

	return &Curve{
		coefficients: coefficients,
		shift:        shift,
		scale:        scale,
	}, nil
}

// solve runs a gaussian elimination with partial pivoting on the given augmented matrix
func solve(matrix [][]float64) ([]float64, error) {
	size := len(matrix)
	for col := 0; col < size; col++ {
		pivot := col
		for row := col + 1; row < size; row++ {
			if math.Abs(matrix[row][col]) > math.Abs(matrix[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(matrix[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("%w: samples do not determine a unique curve", ErrInsufficientSamples)
		}
		matrix[col], matrix[pivot] = matrix[pivot], matrix[col]

		for row := col + 1; row < size; row++ {
			factor := matrix[row][col] / matrix[col][col]
			for k := col; k <= size; k++ {
				matrix[row][k] -= factor * matrix[col][k]
			}
		}
	}

	result := make([]float64, size)
	for row := size - 1; row >= 0; row-- {
		sum := matrix[row][size]
		for k := row + 1; k < size; k++ {
			sum -= matrix[row][k] * result[k]
		}
		result[row] = sum / matrix[row][row]
	}
	return result, nil
}

// Evaluate computes the curve value at x
func (c *Curve) Evaluate(x float64) float64 {
	t := (x - c.shift) / c.scale
	result := 0.0
	for i := len(c.coefficients) - 1; i >= 0; i-- {
		result = result*t + c.coefficients[i]
	}
	return result
}

func (c *Curve) Degree() int {
	return len(c.coefficients) - 1
}

// Coefficients returns the polynomial coefficients in terms of x, in ascending order
// (constant term first).
func (c *Curve) Coefficients() []float64 {
	n := len(c.coefficients)
	result := make([]float64, n)
	// expand sum_k a_k * ((x - shift) / scale)^k using the binomial theorem
	for k, a := range c.coefficients {
		factor := a / math.Pow(c.scale, float64(k))
		for j := 0; j <= k; j++ {
			result[j] += factor * binomial(k, j) * math.Pow(-c.shift, float64(k-j))
		}
	}
	return result
}

func binomial(n, k int) float64 {
	result := 1.0
	for i := 1; i <= k; i++ {
		result = result * float64(n-k+i) / float64(i)
	}
	return result
}

func (c *Curve) String() string {
	coefficients := c.Coefficients()
	var terms []string
	for power := len(coefficients) - 1; power >= 0; power-- {
		switch power {
		case 0:
			terms = append(terms, fmt.Sprintf("%.6g", coefficients[power]))
		case 1:
			terms = append(terms, fmt.Sprintf("%.6g*x", coefficients[power]))
		default:
			terms = append(terms, fmt.Sprintf("%.6g*x^%d", coefficients[power], power))
		}
	}
	return "y = " + strings.Join(terms, " + ")
}

// Calibration combines a curve with the zero offset that is subtracted from raw readings
type Calibration struct {
	ZeroOffset float64
	Curve      *Curve
}

// Evaluate applies the zero offset correction and evaluates the curve
func (c Calibration) Evaluate(raw float64) float64 {
	return c.Curve.Evaluate(raw - c.ZeroOffset)
}
