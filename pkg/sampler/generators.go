// Package sampler provides the per-pixel sample streams: random and
// stratified 1D/2D generators and the multiplexing samplers that route
// named streams to an integrator.
package sampler

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// float32OneMinusEpsilon is the largest float below 1
const float32OneMinusEpsilon = 0x1.fffffep-1

// Generator1D produces scalar samples for one stream of one pixel
type Generator1D interface {
	// RoundUpSampleCount returns the smallest realisable count >= n
	RoundUpSampleCount(n int) int
	// Begin materialises sample storage for a pixel in the pixel arena
	Begin(sampleCount, dimensionCount int, a *arena.Arena)
	// NextSample advances to the next sample index
	NextSample()
	// Get serves the next dimension of the current sample
	Get() float64
}

// Generator2D produces 2D samples for one stream of one pixel
type Generator2D interface {
	RoundUpSampleCount(n int) int
	Begin(sampleCount, dimensionCount int, a *arena.Arena)
	NextSample()
	Get() core.Vec2
}

// Random1D serves independent uniform scalars
type Random1D struct {
	random *core.PCG32
}

// NewRandom1D creates a random scalar generator for a (seed, stream) pair
func NewRandom1D(seed, stream uint64) *Random1D {
	return &Random1D{random: core.NewPCG32(seed, stream)}
}

// RoundUpSampleCount implements Generator1D
func (g *Random1D) RoundUpSampleCount(n int) int { return n }

// Begin implements Generator1D
func (g *Random1D) Begin(sampleCount, dimensionCount int, a *arena.Arena) {}

// NextSample implements Generator1D
func (g *Random1D) NextSample() {}

// Get implements Generator1D
func (g *Random1D) Get() float64 { return g.random.Float64() }

// Random2D serves independent uniform 2D samples
type Random2D struct {
	random *core.PCG32
}

// NewRandom2D creates a random 2D generator for a (seed, stream) pair
func NewRandom2D(seed, stream uint64) *Random2D {
	return &Random2D{random: core.NewPCG32(seed, stream)}
}

// RoundUpSampleCount implements Generator2D
func (g *Random2D) RoundUpSampleCount(n int) int { return n }

// Begin implements Generator2D
func (g *Random2D) Begin(sampleCount, dimensionCount int, a *arena.Arena) {}

// NextSample implements Generator2D
func (g *Random2D) NextSample() {}

// Get implements Generator2D
func (g *Random2D) Get() core.Vec2 {
	return core.Vec2{X: g.random.Float64(), Y: g.random.Float64()}
}

// Stratified1D jitters one sample into each of N strata per dimension and
// shuffles every dimension column independently
type Stratified1D struct {
	jitter bool
	random *core.PCG32

	data           []float32
	sampleCount    int
	sampleIndex    int
	dimensionIndex int
}

// NewStratified1D creates a stratified scalar generator
func NewStratified1D(jitter bool, seed, stream uint64) *Stratified1D {
	return &Stratified1D{jitter: jitter, random: core.NewPCG32(seed, stream)}
}

// RoundUpSampleCount implements Generator1D: any count works
func (g *Stratified1D) RoundUpSampleCount(n int) int { return n }

// Begin implements Generator1D
func (g *Stratified1D) Begin(sampleCount, dimensionCount int, a *arena.Arena) {
	g.data = arena.MakeSlice[float32](a, sampleCount*dimensionCount)
	g.sampleCount = sampleCount
	g.sampleIndex = 0
	g.dimensionIndex = 0

	for dim := 0; dim < dimensionCount; dim++ {
		column := g.data[sampleCount*dim : sampleCount*(dim+1)]

		for k := 0; k < sampleCount; k++ {
			delta := float32(0.5)
			if g.jitter {
				delta = g.random.Float32()
			}
			column[k] = min((float32(k)+delta)/float32(sampleCount), float32OneMinusEpsilon)
		}

		// Fisher-Yates shuffle of the column
		for k := sampleCount - 1; k >= 1; k-- {
			l := int(g.random.UintN(uint32(k + 1)))
			column[k], column[l] = column[l], column[k]
		}
	}
}

// NextSample implements Generator1D
func (g *Stratified1D) NextSample() {
	g.sampleIndex++
	g.dimensionIndex = 0
}

// Get implements Generator1D
func (g *Stratified1D) Get() float64 {
	sample := g.data[g.sampleIndex+g.dimensionIndex*g.sampleCount]
	g.dimensionIndex++
	return float64(sample)
}

// Stratified2D jitters one sample into each cell of a sqrt(N) x sqrt(N)
// grid per dimension. Sample counts round up to the next perfect square.
type Stratified2D struct {
	jitter bool
	random *core.PCG32

	data           []core.Vec2f
	sampleCount    int
	sampleIndex    int
	dimensionIndex int
}

// NewStratified2D creates a stratified 2D generator
func NewStratified2D(jitter bool, seed, stream uint64) *Stratified2D {
	return &Stratified2D{jitter: jitter, random: core.NewPCG32(seed, stream)}
}

// RoundUpSampleCount implements Generator2D: the next perfect square
func (g *Stratified2D) RoundUpSampleCount(n int) int {
	root := int(math.Ceil(math.Sqrt(float64(n))))
	for root*root < n {
		root++
	}
	return root * root
}

// Begin implements Generator2D. The caller guarantees sampleCount is a
// perfect square (the renderer runs RoundUpSampleCount first).
func (g *Stratified2D) Begin(sampleCount, dimensionCount int, a *arena.Arena) {
	g.data = arena.MakeSlice[core.Vec2f](a, sampleCount*dimensionCount)
	g.sampleCount = sampleCount
	g.sampleIndex = 0
	g.dimensionIndex = 0

	sqrtCount := int(math.Sqrt(float64(sampleCount)))

	for dim := 0; dim < dimensionCount; dim++ {
		column := g.data[sampleCount*dim : sampleCount*(dim+1)]

		i := 0
		for y := 0; y < sqrtCount; y++ {
			for x := 0; x < sqrtCount; x++ {
				deltaX, deltaY := float32(0.5), float32(0.5)
				if g.jitter {
					deltaX = g.random.Float32()
					deltaY = g.random.Float32()
				}
				column[i] = core.Vec2f{
					X: min((float32(x)+deltaX)/float32(sqrtCount), float32OneMinusEpsilon),
					Y: min((float32(y)+deltaY)/float32(sqrtCount), float32OneMinusEpsilon),
				}
				i++
			}
		}

		for k := sampleCount - 1; k >= 1; k-- {
			l := int(g.random.UintN(uint32(k + 1)))
			column[k], column[l] = column[l], column[k]
		}
	}
}

// NextSample implements Generator2D
func (g *Stratified2D) NextSample() {
	g.sampleIndex++
	g.dimensionIndex = 0
}

// Get implements Generator2D
func (g *Stratified2D) Get() core.Vec2 {
	sample := g.data[g.sampleIndex+g.dimensionIndex*g.sampleCount]
	g.dimensionIndex++
	return sample.Vec2()
}
