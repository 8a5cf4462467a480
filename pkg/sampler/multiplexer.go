package sampler

import (
	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// Multiplexer1D routes an integrator's named scalar streams to their
// generators. It implements core.Sampler1D.
type Multiplexer1D struct {
	streams []stream1D
}

type stream1D struct {
	description core.SampleStream1D
	generator   Generator1D
}

// AddStream registers a stream in declaration order
func (m *Multiplexer1D) AddStream(description core.SampleStream1D, generator Generator1D) {
	m.streams = append(m.streams, stream1D{description: description, generator: generator})
}

// RoundUpSampleCount chains the round-up rule across every stream
func (m *Multiplexer1D) RoundUpSampleCount(sampleCount int) int {
	for _, s := range m.streams {
		sampleCount = s.generator.RoundUpSampleCount(sampleCount)
	}
	return sampleCount
}

// Begin starts a pixel: every stream materialises its samples
func (m *Multiplexer1D) Begin(sampleCount int, a *arena.Arena) {
	for _, s := range m.streams {
		s.generator.Begin(sampleCount, s.description.DimensionCount, a)
	}
}

// NextSample advances every stream to the next sample
func (m *Multiplexer1D) NextSample() {
	for _, s := range m.streams {
		s.generator.NextSample()
	}
}

// Get implements core.Sampler1D
func (m *Multiplexer1D) Get(stream int) float64 {
	return m.streams[stream].generator.Get()
}

// Multiplexer2D routes an integrator's named 2D streams. Streams declared
// as measurement-direction streams map samples into normalised film
// coordinates of the current pixel. It implements core.Sampler2D.
type Multiplexer2D struct {
	width, height  int
	pixelX, pixelY int
	streams        []stream2D
}

type stream2D struct {
	description core.SampleStream2D
	generator   Generator2D
}

// NewMultiplexer2D creates a 2D multiplexer for a film resolution
func NewMultiplexer2D(width, height int) *Multiplexer2D {
	return &Multiplexer2D{width: width, height: height}
}

// AddStream registers a stream in declaration order
func (m *Multiplexer2D) AddStream(description core.SampleStream2D, generator Generator2D) {
	m.streams = append(m.streams, stream2D{description: description, generator: generator})
}

// RoundUpSampleCount chains the round-up rule across every stream
func (m *Multiplexer2D) RoundUpSampleCount(sampleCount int) int {
	for _, s := range m.streams {
		sampleCount = s.generator.RoundUpSampleCount(sampleCount)
	}
	return sampleCount
}

// Begin starts a pixel at (x, y)
func (m *Multiplexer2D) Begin(x, y, sampleCount int, a *arena.Arena) {
	m.pixelX, m.pixelY = x, y
	for _, s := range m.streams {
		s.generator.Begin(sampleCount, s.description.DimensionCount, a)
	}
}

// NextSample advances every stream to the next sample
func (m *Multiplexer2D) NextSample() {
	for _, s := range m.streams {
		s.generator.NextSample()
	}
}

// Get implements core.Sampler2D
func (m *Multiplexer2D) Get(stream int) core.Vec2 {
	s := &m.streams[stream]
	sample := s.generator.Get()
	if s.description.Usage != core.SampleStream2DUsageMeasurementDirection {
		return sample
	}
	return core.Vec2{
		X: (float64(m.pixelX) + sample.X) / float64(m.width),
		Y: (float64(m.pixelY) + sample.Y) / float64(m.height),
	}
}
