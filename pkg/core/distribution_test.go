package core

import (
	"math"
	"testing"
)

func TestDistribution1DSampleContinuous(t *testing.T) {
	d := NewDistribution1D([]float64{1, 2, 4, 1})

	// Integral is the average of the function values
	expected := (1.0 + 2.0 + 4.0 + 1.0) / 4.0
	if math.Abs(d.Integral()-expected) > 1e-12 {
		t.Errorf("Integral incorrect: got %f, expected %f", d.Integral(), expected)
	}

	// Samples must land in the bin whose pdf they report
	for _, u := range []float64{0.0, 0.1, 0.25, 0.5, 0.75, 0.99} {
		x, pdf, index := d.SampleContinuous(u)
		if x < 0 || x >= 1 {
			t.Errorf("SampleContinuous(%f) out of range: x=%f", u, x)
		}
		gotIndex := int(x * 4)
		if gotIndex != index {
			t.Errorf("SampleContinuous(%f): x=%f lands in bin %d, reported %d", u, x, gotIndex, index)
		}
		expectedPdf := []float64{1, 2, 4, 1}[index] / d.Integral()
		if math.Abs(pdf-expectedPdf) > 1e-12 {
			t.Errorf("SampleContinuous(%f): pdf=%f, expected %f", u, pdf, expectedPdf)
		}
	}
}

func TestDistribution1DInverseCDFRoundTrip(t *testing.T) {
	d := NewDistribution1D([]float64{0.5, 3, 1, 2, 0.25})
	binWidth := 1.0 / 5.0

	// sample_continuous(CDF(x)).x ~ x within one bin width
	random := NewPCG32(7, 0)
	for i := 0; i < 1000; i++ {
		u := random.Float64()
		x, _, _ := d.SampleContinuous(u)

		// Reconstruct the CDF value of x and invert again
		pdf, index := d.PdfContinuous(x)
		if pdf <= 0 {
			t.Fatalf("PdfContinuous(%f) = %f, expected positive", x, pdf)
		}
		n := float64(d.Count())
		cdfX := d.cdf[index] + (x*n-float64(index))*(d.cdf[index+1]-d.cdf[index])
		x2, _, index2 := d.SampleContinuous(cdfX)
		if index != index2 || math.Abs(x-x2) > binWidth {
			t.Errorf("round trip moved x: %f -> %f (bins %d, %d)", x, x2, index, index2)
		}
	}
}

func TestDistribution1DZeroFunction(t *testing.T) {
	d := NewDistribution1D([]float64{0, 0, 0})

	if d.Integral() != 1.0 {
		t.Errorf("zero function integral: got %f, expected 1", d.Integral())
	}

	// Degenerates to the uniform distribution
	x, pdf, _ := d.SampleContinuous(0.5)
	if math.Abs(x-0.5) > 1e-12 {
		t.Errorf("zero function should sample uniformly: got x=%f", x)
	}
	if math.Abs(pdf-1.0) > 1e-12 {
		t.Errorf("zero function pdf: got %f, expected 1", pdf)
	}
}

func TestDistribution1DSampleDiscrete(t *testing.T) {
	d := NewDistribution1D([]float64{1, 3})

	index, pdf := d.SampleDiscrete(0.1)
	if index != 0 {
		t.Errorf("SampleDiscrete(0.1): got index %d, expected 0", index)
	}
	if math.Abs(pdf-0.25) > 1e-12 {
		t.Errorf("SampleDiscrete(0.1): pdf=%f, expected 0.25", pdf)
	}

	index, pdf = d.SampleDiscrete(0.9)
	if index != 1 {
		t.Errorf("SampleDiscrete(0.9): got index %d, expected 1", index)
	}
	if math.Abs(pdf-0.75) > 1e-12 {
		t.Errorf("SampleDiscrete(0.9): pdf=%f, expected 0.75", pdf)
	}

	if math.Abs(d.PdfDiscrete(0)+d.PdfDiscrete(1)-1.0) > 1e-12 {
		t.Error("discrete pdfs should sum to 1")
	}
}

func TestDistribution1DLeadingZeros(t *testing.T) {
	d := NewDistribution1D([]float64{0, 0, 1, 1})

	// u=0 must skip the zero-probability bins
	x, pdf, index := d.SampleContinuous(0)
	if index < 2 {
		t.Errorf("SampleContinuous(0) landed in zero bin %d", index)
	}
	if pdf <= 0 {
		t.Errorf("SampleContinuous(0) pdf=%f, expected positive", pdf)
	}
	if x < 0.5 {
		t.Errorf("SampleContinuous(0) x=%f, expected >= 0.5", x)
	}
}

func TestDistribution2DConditional(t *testing.T) {
	// Bottom row carries all the weight
	d := NewDistribution2D([][]float64{
		{1, 1},
		{0, 0},
	})

	xy, pdf := d.SampleContinuous(Vec2{0.5, 0.5})
	if xy.Y >= 0.5 {
		t.Errorf("all weight in row 0, sampled y=%f", xy.Y)
	}
	if math.Abs(pdf-2.0) > 1e-12 {
		t.Errorf("pdf should be 2 (half the domain): got %f", pdf)
	}

	// pdf(x,y) = pdf_row(y) * pdf_col|row(x)
	if got := d.PdfContinuous(Vec2{0.25, 0.25}); math.Abs(got-2.0) > 1e-12 {
		t.Errorf("PdfContinuous: got %f, expected 2", got)
	}
}

func TestDistribution2DMarginalWeighting(t *testing.T) {
	d := NewDistribution2D([][]float64{
		{1, 0},
		{0, 3},
	})

	// Row 1 has three times the integral of row 0
	countRow1 := 0
	random := NewPCG32(11, 3)
	const n = 20000
	for i := 0; i < n; i++ {
		xy, _ := d.SampleContinuous(Vec2{random.Float64(), random.Float64()})
		if xy.Y >= 0.5 {
			countRow1++
		}
	}
	frac := float64(countRow1) / n
	if math.Abs(frac-0.75) > 0.02 {
		t.Errorf("row 1 fraction: got %f, expected 0.75", frac)
	}
}
