package core

import (
	"math"
	"testing"
)

func TestSampleDiskConcentric(t *testing.T) {
	random := NewPCG32(3, 0)
	for i := 0; i < 1000; i++ {
		d := SampleDiskConcentric(Vec2{random.Float64(), random.Float64()})
		if d.X*d.X+d.Y*d.Y > 1.0+1e-12 {
			t.Fatalf("disk sample outside unit disk: %v", d)
		}
	}

	// Center maps to center
	if d := SampleDiskConcentric(Vec2{0.5, 0.5}); d.X != 0 || d.Y != 0 {
		t.Errorf("center sample: got %v, expected origin", d)
	}
}

func TestSampleHemisphereCosine(t *testing.T) {
	random := NewPCG32(3, 1)
	sum := 0.0
	const n = 100000
	for i := 0; i < n; i++ {
		w := SampleHemisphereCosine(Vec2{random.Float64(), random.Float64()})
		if w.Y < 0 {
			t.Fatalf("hemisphere sample below horizon: %v", w)
		}
		if math.Abs(w.Length()-1) > 1e-9 {
			t.Fatalf("hemisphere sample not unit: %v", w)
		}
		sum += w.Y
	}
	// Cosine-weighted samples have E[cos] = 2/3
	estimate := sum / n
	if math.Abs(estimate-2.0/3.0) > 0.005 {
		t.Errorf("mean cosine: got %f, expected %f", estimate, 2.0/3.0)
	}
}

func TestSampleSphereUniform(t *testing.T) {
	random := NewPCG32(3, 2)
	var mean Vec3
	const n = 100000
	for i := 0; i < n; i++ {
		w := SampleSphereUniform(Vec2{random.Float64(), random.Float64()})
		if math.Abs(w.Length()-1) > 1e-9 {
			t.Fatalf("sphere sample not unit: %v", w)
		}
		mean = mean.Add(w)
	}
	mean = mean.Divide(n)
	if mean.Length() > 0.01 {
		t.Errorf("sphere samples not centered: mean %v", mean)
	}
}

func TestSampleTriangleUniform(t *testing.T) {
	random := NewPCG32(3, 3)
	for i := 0; i < 1000; i++ {
		b := SampleTriangleUniform(Vec2{random.Float64(), random.Float64()})
		if b.X < 0 || b.Y < 0 || b.X+b.Y > 1.0+1e-12 {
			t.Fatalf("barycentric sample outside triangle: %v", b)
		}
	}
}

func TestPowerHeuristic(t *testing.T) {
	// Equal pdfs share the weight equally
	if w := PowerHeuristic(1, 1); math.Abs(w-0.5) > 1e-12 {
		t.Errorf("equal pdfs: got %f, expected 0.5", w)
	}

	// Dominant primary takes almost all the weight
	if w := PowerHeuristic(100, 1); w < 0.99 {
		t.Errorf("dominant primary: got %f, expected > 0.99", w)
	}

	// Complementary weights sum to one
	a := PowerHeuristic(2, 3)
	b := PowerHeuristic(3, 2)
	if math.Abs(a+b-1) > 1e-12 {
		t.Errorf("weights should sum to 1: %f + %f", a, b)
	}
}

func TestPCG32Deterministic(t *testing.T) {
	a := NewPCG32(1234, 5)
	b := NewPCG32(1234, 5)
	for i := 0; i < 100; i++ {
		if a.Uint32() != b.Uint32() {
			t.Fatal("identical seeds should produce identical sequences")
		}
	}

	// Different streams diverge
	c := NewPCG32(1234, 6)
	same := 0
	for i := 0; i < 100; i++ {
		if b.Uint32() == c.Uint32() {
			same++
		}
	}
	if same > 5 {
		t.Errorf("streams 5 and 6 agree on %d of 100 draws", same)
	}
}

func TestPCG32Float64Range(t *testing.T) {
	p := NewPCG32(99, 0)
	for i := 0; i < 10000; i++ {
		f := p.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %f", f)
		}
	}
}

func TestPCG32UintN(t *testing.T) {
	p := NewPCG32(7, 0)
	counts := make([]int, 5)
	for i := 0; i < 10000; i++ {
		counts[p.UintN(5)]++
	}
	for i, c := range counts {
		if c < 1600 || c > 2400 {
			t.Errorf("UintN(5) bucket %d has %d of 10000 draws", i, c)
		}
	}
}
