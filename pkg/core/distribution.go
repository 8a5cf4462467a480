package core

import (
	"math"
	"sort"
)

// OneMinusEpsilon is the largest double below 1
const OneMinusEpsilon = 0x1.fffffffffffffp-1

// Distribution1D samples proportionally to a piecewise-constant function
// over [0,1)
type Distribution1D struct {
	function []float64
	cdf      []float64
	integral float64
}

// NewDistribution1D builds the CDF of a piecewise-constant function. A zero
// function degenerates to the uniform distribution with integral 1.
func NewDistribution1D(function []float64) *Distribution1D {
	n := len(function)
	d := &Distribution1D{
		function: append([]float64(nil), function...),
		cdf:      make([]float64, n+1),
	}

	for i := 1; i <= n; i++ {
		d.cdf[i] = d.cdf[i-1] + d.function[i-1]
	}

	d.integral = d.cdf[n] / float64(n)
	if d.integral != 0 {
		for i := 1; i <= n; i++ {
			d.cdf[i] /= float64(n) * d.integral
		}
	} else {
		d.integral = 1.0
		for i := 1; i <= n; i++ {
			d.function[i-1] = 1.0
			d.cdf[i] = float64(i) / float64(n)
		}
	}

	return d
}

// Integral returns the average value of the function over [0,1), or 1 for
// a zero function
func (d *Distribution1D) Integral() float64 {
	return d.integral
}

// Count returns the number of function bins
func (d *Distribution1D) Count() int {
	return len(d.function)
}

// upperBound returns the first CDF index whose value exceeds u
func (d *Distribution1D) upperBound(u float64) int {
	upper := sort.SearchFloat64s(d.cdf, u)
	for upper < len(d.cdf) && d.cdf[upper] <= u {
		upper++
	}
	return upper
}

// SampleContinuous maps a uniform u to (x, pdf, bin index) by inverting the CDF
func (d *Distribution1D) SampleContinuous(u float64) (x float64, pdf float64, index int) {
	u = math.Min(math.Max(u, 0), OneMinusEpsilon)
	upper := d.upperBound(u)
	lower := upper - 1

	du := (u - d.cdf[lower]) / (d.cdf[upper] - d.cdf[lower])
	return (float64(lower) + du) / float64(len(d.function)),
		d.function[lower] / d.integral,
		lower
}

// PdfContinuous returns the pdf and bin index at x
func (d *Distribution1D) PdfContinuous(x float64) (float64, int) {
	index := int(x * float64(len(d.function)))
	index = min(max(index, 0), len(d.function)-1)
	return d.function[index] / d.integral, index
}

// SampleDiscrete maps a uniform u to a bin index and its discrete probability
func (d *Distribution1D) SampleDiscrete(u float64) (index int, pdf float64) {
	u = math.Min(math.Max(u, 0), OneMinusEpsilon)
	lower := d.upperBound(u) - 1
	return lower, d.function[lower] / (d.integral * float64(len(d.function)))
}

// PdfDiscrete returns the discrete probability of a bin
func (d *Distribution1D) PdfDiscrete(index int) float64 {
	return d.function[index] / (d.integral * float64(len(d.function)))
}

// Distribution2D samples a piecewise-constant function over [0,1)² as a
// marginal distribution over rows and a conditional distribution per row
type Distribution2D struct {
	conditional []*Distribution1D
	marginal    *Distribution1D
}

// NewDistribution2D builds the row conditionals and the marginal over row
// integrals
func NewDistribution2D(function [][]float64) *Distribution2D {
	d := &Distribution2D{conditional: make([]*Distribution1D, len(function))}

	marginalFunc := make([]float64, len(function))
	for i, row := range function {
		d.conditional[i] = NewDistribution1D(row)

		// The row's own average, so an all-zero row keeps zero marginal
		// weight instead of the conditional's uniform-fallback integral
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		marginalFunc[i] = sum / float64(len(row))
	}
	d.marginal = NewDistribution1D(marginalFunc)

	return d
}

// SampleContinuous maps a uniform sample to (xy, pdf)
func (d *Distribution2D) SampleContinuous(u Vec2) (Vec2, float64) {
	y, pdfY, row := d.marginal.SampleContinuous(u.Y)
	x, pdfX, _ := d.conditional[row].SampleContinuous(u.X)
	return Vec2{x, y}, pdfX * pdfY
}

// PdfContinuous returns the pdf at a point in [0,1)²
func (d *Distribution2D) PdfContinuous(xy Vec2) float64 {
	pdfY, row := d.marginal.PdfContinuous(xy.Y)
	pdfX, _ := d.conditional[row].PdfContinuous(xy.X)
	return pdfX * pdfY
}
