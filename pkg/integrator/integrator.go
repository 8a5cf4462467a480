// Package integrator implements the path-space estimators: forward
// eye-to-light walking with multiple importance sampling, backward
// light-to-eye connection, and bidirectional path tracing, together with the
// nested-dielectric helper every surface step goes through.
package integrator

import (
	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// helperCapacity bounds the number of simultaneously entered dielectrics
const helperCapacity = 10

// Helper resolves surface hits into physically consistent medium
// transitions. It keeps a priority stack of the dielectrics the ray is
// currently inside, with a virtual outside entry of priority 0 and index 1.
type Helper struct {
	scene core.Scene
	arena *arena.Arena

	outside core.SurfacePoint
	stack   [helperCapacity + 1]*core.SurfacePoint
	size    int
}

// NewHelper creates a helper for one integrator sample. It is stack-local
// to the RunOnce call and never shared.
func NewHelper(scene core.Scene, a *arena.Arena) *Helper {
	h := &Helper{scene: scene, arena: a}
	h.outside.IOR = 1.0
	h.outside.Priority = 0
	h.outside.Medium = core.Vacuum{}
	h.stack[0] = &h.outside
	h.size = 1
	return h
}

// Depth returns the number of stack entries including the outside entry
func (h *Helper) Depth() int {
	return h.size
}

func (h *Helper) top() *core.SurfacePoint {
	top := h.stack[0]
	for i := 1; i < h.size; i++ {
		if h.stack[i].Priority > top.Priority {
			top = h.stack[i]
		}
	}
	return top
}

// Raycast traces from p along w, skipping interfaces dominated by a
// higher-priority medium, and returns the next interesting hit with the
// refraction indices above and below it plus the transmittance accumulated
// along the traversed segments. ok=false means the ray escaped the scene.
func (h *Helper) Raycast(p *core.SurfacePoint, w core.Vec3) (hit *core.SurfacePoint, etaA, etaB float64, transmittance core.Vec3, ok bool) {
	transmittance = core.Vec3{X: 1, Y: 1, Z: 1}

	for {
		if p.IOR != 0 {
			entering := w.Dot(p.Normal) <= 0
			if entering {
				// Slot 0 holds the outside entry
				if h.size == helperCapacity+1 {
					panic("integrator: nested dielectric priority stack overflow; scene nests more than 10 refractive volumes")
				}
				h.stack[h.size] = p
				h.size++
			}
		}

		p1, found := h.scene.Raycast(p, w, h.arena)
		if !found {
			return nil, 0, 0, transmittance, false
		}

		top := h.top()
		medium := top.Medium
		if medium != nil {
			transmittance = transmittance.MultiplyVec(medium.Transmittance(p.Position, p1.Position))
		}

		if p1.IOR == 0 {
			return p1, top.IOR, top.IOR, transmittance, true
		}

		entering := w.Dot(p1.Normal) <= 0
		if entering {
			// A dominating outer volume hides this interface
			if p1.Priority <= top.Priority {
				p = p1
				continue
			}
			return p1, top.IOR, p1.IOR, transmittance, true
		}

		// Leaving: pop the entry of this surface
		index := -1
		for i := 1; i < h.size; i++ {
			if h.stack[i].Surface == p1.Surface {
				index = i
				break
			}
		}
		if index == -1 {
			// Left a volume the ray never entered; treat as escape
			return nil, 0, 0, transmittance, false
		}
		h.stack[index] = h.stack[h.size-1]
		h.size--

		newTop := h.top()
		if newTop.Priority == top.Priority {
			// The dominating medium is unchanged; keep going
			p = p1
			continue
		}
		return p1, newTop.IOR, top.IOR, transmittance, true
	}
}
