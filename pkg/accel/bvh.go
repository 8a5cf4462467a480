package accel

import (
	"sort"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

const (
	bucketCount   = 12
	traversalCost = 0.125
	maxStackDepth = 64
)

// node is a 32-byte BVH record. Leaves store (first primitive, count),
// interiors store (second child, split axis); the first child of an
// interior node sits at index+1 in the DFS pre-order layout.
type node struct {
	bounds                 core.Bounds3f
	firstPrimOrSecondChild uint32
	primCountOrSplitAxis   uint16
	interior               uint16
}

func leafNode(bounds core.Bounds3f, firstPrimitive uint32, primitiveCount uint16) node {
	return node{bounds: bounds, firstPrimOrSecondChild: firstPrimitive, primCountOrSplitAxis: primitiveCount}
}

func interiorNode(bounds core.Bounds3f, secondChild uint32, splitAxis uint16) node {
	return node{bounds: bounds, firstPrimOrSecondChild: secondChild, primCountOrSplitAxis: splitAxis, interior: 1}
}

// BVH is a surface-area-heuristic bounding volume hierarchy built with
// binned splits, laid out in DFS pre-order and traversed with an explicit
// stack
type BVH struct {
	primitives []Primitive
	nodes      []node
}

type primitiveInfo struct {
	index    uint32
	bounds   core.Bounds3
	centroid core.Vec3
}

// NewBVH builds a BVH over the primitive set
func NewBVH(primitives []Primitive) Structure {
	bvh := &BVH{}
	if len(primitives) == 0 {
		bvh.nodes = []node{leafNode(core.Bounds3fFrom(core.EmptyBounds3()), 0, 0)}
		return bvh
	}

	infos := make([]primitiveInfo, len(primitives))
	for i, p := range primitives {
		bounds := p.Surface.PrimitiveBounds(p.Index)
		infos[i] = primitiveInfo{index: uint32(i), bounds: bounds, centroid: bounds.Centroid()}
	}

	ordered := make([]Primitive, 0, len(primitives))
	bvh.build(primitives, infos, 0, uint32(len(primitives)), &ordered)
	bvh.primitives = ordered
	return bvh
}

func (b *BVH) build(primitives []Primitive, infos []primitiveInfo, begin, end uint32, ordered *[]Primitive) uint32 {
	nodeBounds := infos[begin].bounds
	for i := begin + 1; i < end; i++ {
		nodeBounds = nodeBounds.Union(infos[i].bounds)
	}

	if end-begin == 1 {
		return b.buildLeaf(primitives, infos, begin, end, nodeBounds, ordered)
	}
	return b.buildInterior(primitives, infos, begin, end, nodeBounds, ordered)
}

func (b *BVH) buildLeaf(primitives []Primitive, infos []primitiveInfo, begin, end uint32, bounds core.Bounds3, ordered *[]Primitive) uint32 {
	firstPrimitive := uint32(len(*ordered))
	for i := begin; i < end; i++ {
		*ordered = append(*ordered, primitives[infos[i].index])
	}

	index := uint32(len(b.nodes))
	b.nodes = append(b.nodes, leafNode(core.Bounds3fFrom(bounds), firstPrimitive, uint16(end-begin)))
	return index
}

func (b *BVH) buildInterior(primitives []Primitive, infos []primitiveInfo, begin, end uint32, bounds core.Bounds3, ordered *[]Primitive) uint32 {
	centroidBounds := core.NewBounds3FromPoint(infos[begin].centroid)
	for i := begin + 1; i < end; i++ {
		centroidBounds = centroidBounds.UnionPoint(infos[i].centroid)
	}

	splitAxis := centroidBounds.MaximumExtent()
	extent := centroidBounds.Diagonal().Axis(splitAxis)
	if extent == 0 {
		return b.buildLeaf(primitives, infos, begin, end, bounds, ordered)
	}

	count := end - begin
	var middle uint32

	if count <= 4 {
		// Median split on the axis
		middle = begin + count/2
		span := infos[begin:end]
		sort.Slice(span, func(i, j int) bool {
			return span[i].centroid.Axis(splitAxis) < span[j].centroid.Axis(splitAxis)
		})
	} else {
		type bucketInfo struct {
			count  uint32
			bounds core.Bounds3
		}
		var buckets [bucketCount]bucketInfo
		for i := range buckets {
			buckets[i].bounds = core.EmptyBounds3()
		}

		bucketOf := func(info *primitiveInfo) int {
			offset := (info.centroid.Axis(splitAxis) - centroidBounds.Min.Axis(splitAxis)) / extent
			return min(int(offset*bucketCount), bucketCount-1)
		}

		for i := begin; i < end; i++ {
			bucket := bucketOf(&infos[i])
			buckets[bucket].count++
			buckets[bucket].bounds = buckets[bucket].bounds.Union(infos[i].bounds)
		}

		// SAH cost of the 11 candidate splits
		var costs [bucketCount - 1]float64
		for i := 0; i < bucketCount-1; i++ {
			b0 := bucketInfo{bounds: core.EmptyBounds3()}
			b1 := bucketInfo{bounds: core.EmptyBounds3()}
			for j := 0; j <= i; j++ {
				b0.bounds = b0.bounds.Union(buckets[j].bounds)
				b0.count += buckets[j].count
			}
			for j := i + 1; j < bucketCount; j++ {
				b1.bounds = b1.bounds.Union(buckets[j].bounds)
				b1.count += buckets[j].count
			}
			costs[i] = traversalCost +
				(float64(b0.count)*b0.bounds.SurfaceArea()+float64(b1.count)*b1.bounds.SurfaceArea())/
					bounds.SurfaceArea()
		}

		minCost := costs[0]
		minCostBucket := 0
		for i := 1; i < bucketCount-1; i++ {
			if costs[i] < minCost {
				minCost = costs[i]
				minCostBucket = i
			}
		}

		leafCost := float64(count)
		if minCost >= leafCost {
			return b.buildLeaf(primitives, infos, begin, end, bounds, ordered)
		}

		// Partition in place around the winning bucket
		left := begin
		right := end
		for left < right {
			if bucketOf(&infos[left]) <= minCostBucket {
				left++
			} else {
				right--
				infos[left], infos[right] = infos[right], infos[left]
			}
		}
		middle = left
		if middle == begin || middle == end {
			return b.buildLeaf(primitives, infos, begin, end, bounds, ordered)
		}
	}

	// Emit a placeholder, recurse in DFS pre-order, then patch in the
	// right-child index
	index := uint32(len(b.nodes))
	b.nodes = append(b.nodes, node{})
	b.build(primitives, infos, begin, middle, ordered)
	secondChild := b.build(primitives, infos, middle, end, ordered)
	b.nodes[index] = interiorNode(core.Bounds3fFrom(bounds), secondChild, uint16(splitAxis))
	return index
}

// Bounds implements Structure
func (b *BVH) Bounds() core.Bounds3 {
	return b.nodes[0].bounds.Bounds3()
}

// RaycastSurfacePoint implements Structure
func (b *BVH) RaycastSurfacePoint(ray core.Ray, tMax float64, a *arena.Arena) (*core.SurfacePoint, Primitive, bool) {
	if len(b.primitives) == 0 {
		return nil, Primitive{}, false
	}

	invDir := core.Vec3{X: 1 / ray.Direction.X, Y: 1 / ray.Direction.Y, Z: 1 / ray.Direction.Z}
	dirIsNeg := [3]bool{invDir.X < 0, invDir.Y < 0, invDir.Z < 0}

	var hit *core.SurfacePoint
	var hitPrimitive Primitive

	var stack [maxStackDepth]uint32
	stack[0] = 0
	stackSize := 1

	for stackSize > 0 {
		stackSize--
		nodeIndex := stack[stackSize]
		n := &b.nodes[nodeIndex]

		if !n.bounds.Bounds3().RaycastP(ray, tMax, invDir, dirIsNeg) {
			continue
		}

		if n.interior == 0 {
			first := n.firstPrimOrSecondChild
			for i := first; i < first+uint32(n.primCountOrSplitAxis); i++ {
				primitive := b.primitives[i]
				if t, p, ok := primitive.Surface.RaycastSurfacePoint(primitive.Index, ray, tMax, a); ok {
					tMax = t
					hit = p
					hitPrimitive = primitive
				}
			}
		} else {
			// Push far child first so the near child pops next
			if dirIsNeg[n.primCountOrSplitAxis] {
				stack[stackSize] = nodeIndex + 1
				stack[stackSize+1] = n.firstPrimOrSecondChild
			} else {
				stack[stackSize] = n.firstPrimOrSecondChild
				stack[stackSize+1] = nodeIndex + 1
			}
			stackSize += 2
		}
	}

	return hit, hitPrimitive, hit != nil
}

// Raycast implements Structure
func (b *BVH) Raycast(ray core.Ray, tMax float64) bool {
	if len(b.primitives) == 0 {
		return false
	}

	invDir := core.Vec3{X: 1 / ray.Direction.X, Y: 1 / ray.Direction.Y, Z: 1 / ray.Direction.Z}
	dirIsNeg := [3]bool{invDir.X < 0, invDir.Y < 0, invDir.Z < 0}

	var stack [maxStackDepth]uint32
	stack[0] = 0
	stackSize := 1

	for stackSize > 0 {
		stackSize--
		nodeIndex := stack[stackSize]
		n := &b.nodes[nodeIndex]

		if !n.bounds.Bounds3().RaycastP(ray, tMax, invDir, dirIsNeg) {
			continue
		}

		if n.interior == 0 {
			first := n.firstPrimOrSecondChild
			for i := first; i < first+uint32(n.primCountOrSplitAxis); i++ {
				primitive := b.primitives[i]
				if _, ok := primitive.Surface.Raycast(primitive.Index, ray, tMax); ok {
					return true
				}
			}
		} else {
			if dirIsNeg[n.primCountOrSplitAxis] {
				stack[stackSize] = nodeIndex + 1
				stack[stackSize+1] = n.firstPrimOrSecondChild
			} else {
				stack[stackSize] = n.firstPrimOrSecondChild
				stack[stackSize+1] = nodeIndex + 1
			}
			stackSize += 2
		}
	}

	return false
}
