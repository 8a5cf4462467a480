package geometry

import (
	"github.com/pkg/errors"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// Mesh is the typed buffer set a triangle mesh surface consumes: interleaved
// float3 positions, optional float3 normals, optional float2 uvs and uint32
// triangle indices
type Mesh struct {
	Positions []core.Vec3f
	Normals   []core.Vec3f
	UVs       []core.Vec2f
	Indices   []uint32
}

// NewMesh validates and wraps mesh buffers. Normals and uvs may be nil;
// when present they must match the vertex count.
func NewMesh(positions []core.Vec3f, normals []core.Vec3f, uvs []core.Vec2f, indices []uint32) (*Mesh, error) {
	vertexCount := len(positions)
	if vertexCount == 0 {
		return nil, errors.New("mesh has no vertices")
	}
	if normals != nil && len(normals) != vertexCount {
		return nil, errors.Errorf("mesh normal count %d does not match vertex count %d", len(normals), vertexCount)
	}
	if uvs != nil && len(uvs) != vertexCount {
		return nil, errors.Errorf("mesh uv count %d does not match vertex count %d", len(uvs), vertexCount)
	}
	if len(indices) == 0 || len(indices)%3 != 0 {
		return nil, errors.Errorf("mesh index count %d is not a positive multiple of 3", len(indices))
	}
	for _, index := range indices {
		if int(index) >= vertexCount {
			return nil, errors.Errorf("mesh index %d out of range (vertex count %d)", index, vertexCount)
		}
	}
	return &Mesh{Positions: positions, Normals: normals, UVs: uvs, Indices: indices}, nil
}

// TriangleCount returns the number of triangles
func (m *Mesh) TriangleCount() uint32 {
	return uint32(len(m.Indices) / 3)
}
