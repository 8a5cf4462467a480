package renderer

import (
	"encoding/binary"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
	"github.com/lumen-render/go-lumen/pkg/sampler"
)

const (
	tileSize        = 32
	defaultPageSize = 1 << 20
)

// SamplerKind selects the per-tile sample generators
type SamplerKind int

const (
	// SamplerStratified uses stratified, shuffled streams
	SamplerStratified SamplerKind = iota
	// SamplerRandom uses independent uniform streams
	SamplerRandom
)

// Options configures a renderer
type Options struct {
	Width, Height int
	WorkerCount   int
	Seed          uint64
	Sampler       SamplerKind
	Jitter        bool
}

// tile is one 32x32 block of the image plane with its own sample streams
type tile struct {
	x0, y0, x1, y1 int

	sampler1D *sampler.Multiplexer1D
	sampler2D *sampler.Multiplexer2D
}

// Renderer drives an integrator over the image plane: one render target and
// camera per worker, tiles dispensed through an atomic counter, per-tile
// deterministic stream seeding.
type Renderer struct {
	integrator core.Integrator
	scene      core.Scene
	options    Options
	log        *zap.SugaredLogger

	renderTargets []*RenderTarget
	cameras       []*PerspectiveCamera
	tiles         []tile
}

// New creates a renderer. Tile stream seeds derive from the tile index and
// the integrator's stream layout, so identical (resolution, integrator,
// seed) configurations reproduce identical sample streams.
func New(options Options, cameraTransform core.Transform, fov float64, integratorInst core.Integrator, sceneInst core.Scene, log *zap.SugaredLogger) *Renderer {
	if options.WorkerCount <= 0 {
		options.WorkerCount = 1
	}

	r := &Renderer{
		integrator: integratorInst,
		scene:      sceneInst,
		options:    options,
		log:        log,
	}

	for i := 0; i < options.WorkerCount; i++ {
		target := NewRenderTarget(options.Width, options.Height)
		r.renderTargets = append(r.renderTargets, target)
		r.cameras = append(r.cameras, NewPerspectiveCamera(target, cameraTransform, fov))
	}

	streams1D := integratorInst.SampleStreams1D()
	streams2D := integratorInst.SampleStreams2D()
	streamCount := uint64(len(streams1D) + len(streams2D))

	tileCountX := (options.Width + tileSize - 1) / tileSize
	tileCountY := (options.Height + tileSize - 1) / tileSize

	for ty := 0; ty < tileCountY; ty++ {
		for tx := 0; tx < tileCountX; tx++ {
			t := tile{
				x0:        tx * tileSize,
				y0:        ty * tileSize,
				x1:        min((tx+1)*tileSize, options.Width),
				y1:        min((ty+1)*tileSize, options.Height),
				sampler1D: &sampler.Multiplexer1D{},
				sampler2D: sampler.NewMultiplexer2D(options.Width, options.Height),
			}

			streamIndex := uint64(len(r.tiles)) * streamCount
			for _, description := range streams1D {
				t.sampler1D.AddStream(description, r.newGenerator1D(streamIndex))
				streamIndex++
			}
			for _, description := range streams2D {
				t.sampler2D.AddStream(description, r.newGenerator2D(streamIndex))
				streamIndex++
			}

			r.tiles = append(r.tiles, t)
		}
	}

	return r
}

func (r *Renderer) newGenerator1D(stream uint64) sampler.Generator1D {
	if r.options.Sampler == SamplerRandom {
		return sampler.NewRandom1D(r.options.Seed, stream)
	}
	return sampler.NewStratified1D(r.options.Jitter, r.options.Seed, stream)
}

func (r *Renderer) newGenerator2D(stream uint64) sampler.Generator2D {
	if r.options.Sampler == SamplerRandom {
		return sampler.NewRandom2D(r.options.Seed, stream)
	}
	return sampler.NewStratified2D(r.options.Jitter, r.options.Seed, stream)
}

// RunStats summarises a completed render
type RunStats struct {
	Tiles           int
	SamplesPerPixel int
	TotalSamples    uint64
	Elapsed         time.Duration
}

// Run renders sampleCount samples per pixel across the worker pool,
// blocking until every tile completes
func (r *Renderer) Run(sampleCount int) RunStats {
	var nextTile atomic.Int64
	var tilesDone atomic.Int64
	start := time.Now()

	var wg sync.WaitGroup
	for worker := 0; worker < r.options.WorkerCount; worker++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			r.workerLoop(index, sampleCount, &nextTile, &tilesDone)
		}(worker)
	}

	// Progress loop: poll the tile counter once per second
	if r.log != nil {
		for {
			done := tilesDone.Load()
			elapsed := time.Since(start).Round(time.Second)
			r.log.Infof("[%6.2f%%] [%d/%d tiles] [%s]",
				float64(done)/float64(len(r.tiles))*100.0, done, len(r.tiles), elapsed)
			if int(done) == len(r.tiles) {
				break
			}
			time.Sleep(time.Second)
		}
	}

	wg.Wait()

	stats := RunStats{
		Tiles:           len(r.tiles),
		SamplesPerPixel: sampleCount,
		Elapsed:         time.Since(start),
	}
	for _, target := range r.renderTargets {
		stats.TotalSamples += target.SampleCount()
	}
	return stats
}

func (r *Renderer) workerLoop(workerIndex, sampleCount int, nextTile, tilesDone *atomic.Int64) {
	camera := r.cameras[workerIndex]
	pixelArena := arena.New(defaultPageSize)
	sampleArena := arena.New(defaultPageSize)

	for {
		tileIndex := int(nextTile.Add(1)) - 1
		if tileIndex >= len(r.tiles) {
			break
		}
		t := &r.tiles[tileIndex]

		for y := t.y0; y < t.y1; y++ {
			for x := t.x0; x < t.x1; x++ {
				// Every stream must realise the same sample count
				n := t.sampler1D.RoundUpSampleCount(sampleCount)
				n = t.sampler2D.RoundUpSampleCount(n)

				t.sampler1D.Begin(n, pixelArena)
				t.sampler2D.Begin(x, y, n, pixelArena)

				for k := 0; k < n; k++ {
					r.integrator.RunOnce(camera, r.scene, t.sampler1D, t.sampler2D, sampleArena)
					t.sampler1D.NextSample()
					t.sampler2D.NextSample()
					sampleArena.Clear()
				}

				pixelArena.Clear()
			}
		}

		tilesDone.Add(1)
	}
}

// Pixel returns the final estimate of a pixel: the sum over all worker
// targets divided by the total sample count
func (r *Renderer) Pixel(x, y int) core.Vec3 {
	var sum core.Vec3
	var samples uint64
	for _, target := range r.renderTargets {
		sum = sum.Add(target.PixelSum(x, y))
		samples += target.SampleCount()
	}
	if samples == 0 {
		return core.Vec3{}
	}
	return sum.Divide(float64(samples))
}

// Export writes the image as raw float32 RGB triples, rows bottom-to-top,
// no header
func (r *Renderer) Export(w io.Writer) error {
	buffer := make([]float32, 0, r.options.Width*3)
	for y := r.options.Height - 1; y >= 0; y-- {
		buffer = buffer[:0]
		for x := 0; x < r.options.Width; x++ {
			c := r.Pixel(x, y)
			buffer = append(buffer, float32(c.X), float32(c.Y), float32(c.Z))
		}
		if err := binary.Write(w, binary.LittleEndian, buffer); err != nil {
			return errors.Wrap(err, "writing raw scanline")
		}
	}
	return nil
}

// ExportFile writes <name>.raw next to the caller
func (r *Renderer) ExportFile(name string) error {
	f, err := os.Create(name + ".raw")
	if err != nil {
		return errors.Wrapf(err, "creating %s.raw", name)
	}
	defer f.Close()

	if err := r.Export(f); err != nil {
		return err
	}
	return errors.Wrapf(f.Sync(), "flushing %s.raw", name)
}
