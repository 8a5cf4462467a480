package renderer

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// cameraSampleData is the measurement payload a camera point carries so
// AddSample can recover the pixel it belongs to
type cameraSampleData struct {
	samplePlanePosition core.Vec3
}

// PerspectiveCamera is the pinhole sensor measurement. The sample plane
// sits at unit distance along the local +Z axis; film positions arrive as
// normalised coordinates in [0,1)².
type PerspectiveCamera struct {
	renderTarget *RenderTarget
	transform    core.Transform

	pixelSize       float64
	samplePlaneSize core.Vec2
}

// NewPerspectiveCamera creates a camera writing into a render target.
// fov is the vertical field of view in radians.
func NewPerspectiveCamera(renderTarget *RenderTarget, transform core.Transform, fov float64) *PerspectiveCamera {
	c := &PerspectiveCamera{renderTarget: renderTarget, transform: transform}
	c.pixelSize = 2.0 * math.Tan(fov/2.0) / float64(renderTarget.Height())
	c.samplePlaneSize = core.Vec2{
		X: float64(renderTarget.Width()) * c.pixelSize,
		Y: float64(renderTarget.Height()) * c.pixelSize,
	}
	return c
}

func (c *PerspectiveCamera) sensorPoint(a *arena.Arena) *core.SurfacePoint {
	p := arena.Make[core.SurfacePoint](a)
	p.Position = c.transform.TransformPoint(core.Vec3{})
	p.Normal = c.transform.TransformVector(core.Vec3{Z: 1})
	p.Measurement = c
	return p
}

// SamplePAndWi implements core.Measurement: the aperture point plus a film
// direction through the normalised film position uDirection
func (c *PerspectiveCamera) SamplePAndWi(uPoint, uDirection core.Vec2, a *arena.Arena) (core.MeasurementSamplePWi, bool) {
	p := c.sensorPoint(a)

	samplePlanePosition := core.Vec3{
		X: (uDirection.X - 0.5) * c.samplePlaneSize.X,
		Y: (uDirection.Y - 0.5) * c.samplePlaneSize.Y,
		Z: 1.0,
	}
	wi := samplePlanePosition.Normalize()
	cos := wi.Z
	cos2 := cos * cos

	importance := 1.0 / (c.pixelSize * c.pixelSize * cos2 * cos2)

	data := arena.Make[cameraSampleData](a)
	data.samplePlanePosition = samplePlanePosition
	p.MeasurementData = data

	return core.MeasurementSamplePWi{
		P:     p,
		PdfP:  1.0,
		Wi:    c.transform.TransformVector(wi),
		PdfWi: 1.0 / (c.samplePlaneSize.X * c.samplePlaneSize.Y * cos2 * cos),
		Wo:    core.Vec3{X: importance, Y: importance, Z: importance},
	}, true
}

// samplePLocal resolves a local view direction to a sensor point, failing
// when the direction misses the sample plane
func (c *PerspectiveCamera) samplePLocal(wi core.Vec3, a *arena.Arena) (core.MeasurementSampleP, bool) {
	if wi.Z <= 0 {
		return core.MeasurementSampleP{}, false
	}

	t := 1.0 / wi.Z
	samplePlanePosition := wi.Multiply(t)
	if samplePlanePosition.X < -c.samplePlaneSize.X/2 || samplePlanePosition.X > c.samplePlaneSize.X/2 ||
		samplePlanePosition.Y < -c.samplePlaneSize.Y/2 || samplePlanePosition.Y > c.samplePlaneSize.Y/2 {
		return core.MeasurementSampleP{}, false
	}

	p := c.sensorPoint(a)

	cos := wi.Z
	cos2 := cos * cos
	importance := 1.0 / (c.pixelSize * c.pixelSize * cos2 * cos2)

	data := arena.Make[cameraSampleData](a)
	data.samplePlanePosition = samplePlanePosition
	p.MeasurementData = data

	return core.MeasurementSampleP{
		P:    p,
		PdfP: 1.0,
		Wo:   core.Vec3{X: importance, Y: importance, Z: importance},
	}, true
}

// SamplePFromPoint implements core.Measurement
func (c *PerspectiveCamera) SamplePFromPoint(view *core.SurfacePoint, uPoint core.Vec2, a *arena.Arena) (core.MeasurementSampleP, bool) {
	wi := c.transform.InverseTransformPoint(view.Position).Normalize()
	return c.samplePLocal(wi, a)
}

// SamplePFromDirection implements core.Measurement
func (c *PerspectiveCamera) SamplePFromDirection(wi core.Vec3, uPoint core.Vec2, a *arena.Arena) (core.MeasurementSampleP, bool) {
	return c.samplePLocal(c.transform.InverseTransformVector(wi), a)
}

// PdfWi implements core.Measurement: the direction density of SamplePAndWi
func (c *PerspectiveCamera) PdfWi(p *core.SurfacePoint, wi core.Vec3) float64 {
	local := c.transform.InverseTransformVector(wi)
	if local.Z <= 0 {
		return 0
	}
	samplePlanePosition := local.Multiply(1.0 / local.Z)
	if samplePlanePosition.X < -c.samplePlaneSize.X/2 || samplePlanePosition.X > c.samplePlaneSize.X/2 ||
		samplePlanePosition.Y < -c.samplePlaneSize.Y/2 || samplePlanePosition.Y > c.samplePlaneSize.Y/2 {
		return 0
	}
	cos := local.Z
	return 1.0 / (c.samplePlaneSize.X * c.samplePlaneSize.Y * cos * cos * cos)
}

// AddSample implements core.Measurement: recover the pixel from the sample
// plane payload and accumulate
func (c *PerspectiveCamera) AddSample(p *core.SurfacePoint, li core.Vec3) {
	if p.Measurement != core.Measurement(c) {
		return
	}
	data := p.MeasurementData.(*cameraSampleData)

	width := c.renderTarget.Width()
	height := c.renderTarget.Height()
	x := int((data.samplePlanePosition.X/c.samplePlaneSize.X + 0.5) * float64(width))
	y := int((data.samplePlanePosition.Y/c.samplePlaneSize.Y + 0.5) * float64(height))
	x = min(max(x, 0), width-1)
	y = min(max(y, 0), height-1)

	c.renderTarget.AddSample(x, y, li)
}

// AddSampleCount implements core.Measurement
func (c *PerspectiveCamera) AddSampleCount(n int) {
	c.renderTarget.AddSampleCount(n)
}
