package loaders

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lumen-render/go-lumen/pkg/core"
	"github.com/lumen-render/go-lumen/pkg/geometry"
)

// plyProperty is one property declaration of a PLY element
type plyProperty struct {
	name     string
	dataType string
	isList   bool
	listType string
}

// plyHeader is the parsed PLY header
type plyHeader struct {
	format      string
	vertexCount int
	faceCount   int
	vertexProps []plyProperty
	faceProps   []plyProperty
}

// LoadPLY reads a PLY mesh (ascii or binary_little_endian) into typed mesh
// buffers. Positions are required; normals and texture coordinates are
// picked up when present. Faces with more than three vertices are fanned
// into triangles.
func LoadPLY(filename string) (*geometry.Mesh, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening PLY %s", filename)
	}
	defer f.Close()
	return ReadPLY(f)
}

// ReadPLY parses a PLY stream
func ReadPLY(r io.Reader) (*geometry.Mesh, error) {
	reader := bufio.NewReader(r)

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, err
	}

	switch header.format {
	case "ascii":
		return readPLYAscii(reader, header)
	case "binary_little_endian":
		return readPLYBinary(reader, header)
	default:
		return nil, errors.Errorf("unsupported PLY format %q", header.format)
	}
}

func parsePLYHeader(reader *bufio.Reader) (*plyHeader, error) {
	magic, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, errors.New("not a PLY file: missing magic")
	}

	header := &plyHeader{}
	currentElement := ""

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "reading PLY header")
		}
		line = strings.TrimSpace(line)
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "comment", "obj_info":
		case "format":
			if len(parts) < 2 {
				return nil, errors.New("malformed PLY format line")
			}
			header.format = parts[1]
		case "element":
			if len(parts) < 3 {
				return nil, errors.New("malformed PLY element line")
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, errors.Wrapf(err, "parsing element count %q", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.vertexCount = count
			case "face":
				header.faceCount = count
			}
		case "property":
			if len(parts) < 3 {
				return nil, errors.New("malformed PLY property line")
			}
			var prop plyProperty
			if parts[1] == "list" {
				if len(parts) < 5 {
					return nil, errors.New("malformed PLY list property")
				}
				prop = plyProperty{name: parts[4], dataType: parts[3], isList: true, listType: parts[2]}
			} else {
				prop = plyProperty{name: parts[2], dataType: parts[1]}
			}
			switch currentElement {
			case "vertex":
				header.vertexProps = append(header.vertexProps, prop)
			case "face":
				header.faceProps = append(header.faceProps, prop)
			}
		}
	}

	if header.vertexCount == 0 {
		return nil, errors.New("PLY file has no vertices")
	}
	return header, nil
}

// propertyIndices locates the named properties in a property list
func propertyIndices(props []plyProperty, names ...string) []int {
	indices := make([]int, len(names))
	for i, name := range names {
		indices[i] = -1
		for j, p := range props {
			if p.name == name {
				indices[i] = j
				break
			}
		}
	}
	return indices
}

func buildMesh(header *plyHeader, vertexData [][]float64, faces []uint32) (*geometry.Mesh, error) {
	position := propertyIndices(header.vertexProps, "x", "y", "z")
	normal := propertyIndices(header.vertexProps, "nx", "ny", "nz")
	uv := propertyIndices(header.vertexProps, "u", "v")
	if uv[0] == -1 {
		uv = propertyIndices(header.vertexProps, "s", "t")
	}

	if position[0] == -1 || position[1] == -1 || position[2] == -1 {
		return nil, errors.New("PLY vertices have no x/y/z positions")
	}

	positions := make([]core.Vec3f, header.vertexCount)
	var normals []core.Vec3f
	var uvs []core.Vec2f
	if normal[0] != -1 && normal[1] != -1 && normal[2] != -1 {
		normals = make([]core.Vec3f, header.vertexCount)
	}
	if uv[0] != -1 && uv[1] != -1 {
		uvs = make([]core.Vec2f, header.vertexCount)
	}

	for i, values := range vertexData {
		positions[i] = core.Vec3f{
			X: float32(values[position[0]]),
			Y: float32(values[position[1]]),
			Z: float32(values[position[2]]),
		}
		if normals != nil {
			normals[i] = core.Vec3f{
				X: float32(values[normal[0]]),
				Y: float32(values[normal[1]]),
				Z: float32(values[normal[2]]),
			}
		}
		if uvs != nil {
			uvs[i] = core.Vec2f{X: float32(values[uv[0]]), Y: float32(values[uv[1]])}
		}
	}

	return geometry.NewMesh(positions, normals, uvs, faces)
}

func readPLYAscii(reader *bufio.Reader, header *plyHeader) (*geometry.Mesh, error) {
	vertexData := make([][]float64, header.vertexCount)
	for i := 0; i < header.vertexCount; i++ {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "reading vertex %d", i)
		}
		fields := strings.Fields(line)
		if len(fields) < len(header.vertexProps) {
			return nil, errors.Errorf("vertex %d has %d values, header declares %d", i, len(fields), len(header.vertexProps))
		}
		values := make([]float64, len(header.vertexProps))
		for j := range values {
			values[j], err = strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing vertex %d value %q", i, fields[j])
			}
		}
		vertexData[i] = values
	}

	var faces []uint32
	for i := 0; i < header.faceCount; i++ {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errors.Wrapf(err, "reading face %d", i)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil, errors.Errorf("face %d is empty", i)
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil || len(fields) < count+1 {
			return nil, errors.Errorf("malformed face %d: %q", i, strings.TrimSpace(line))
		}
		indices := make([]uint32, count)
		for j := 0; j < count; j++ {
			v, err := strconv.Atoi(fields[j+1])
			if err != nil {
				return nil, errors.Wrapf(err, "parsing face %d index %q", i, fields[j+1])
			}
			indices[j] = uint32(v)
		}
		faces = appendTriangulated(faces, indices)
	}

	return buildMesh(header, vertexData, faces)
}

func readPLYBinary(reader *bufio.Reader, header *plyHeader) (*geometry.Mesh, error) {
	vertexData := make([][]float64, header.vertexCount)
	for i := 0; i < header.vertexCount; i++ {
		values := make([]float64, len(header.vertexProps))
		for j, prop := range header.vertexProps {
			v, err := readPLYScalar(reader, prop.dataType)
			if err != nil {
				return nil, errors.Wrapf(err, "reading vertex %d property %s", i, prop.name)
			}
			values[j] = v
		}
		vertexData[i] = values
	}

	var faces []uint32
	for i := 0; i < header.faceCount; i++ {
		for _, prop := range header.faceProps {
			if !prop.isList {
				if _, err := readPLYScalar(reader, prop.dataType); err != nil {
					return nil, errors.Wrapf(err, "reading face %d property %s", i, prop.name)
				}
				continue
			}

			countValue, err := readPLYScalar(reader, prop.listType)
			if err != nil {
				return nil, errors.Wrapf(err, "reading face %d index count", i)
			}
			count := int(countValue)
			indices := make([]uint32, count)
			for j := 0; j < count; j++ {
				v, err := readPLYScalar(reader, prop.dataType)
				if err != nil {
					return nil, errors.Wrapf(err, "reading face %d index %d", i, j)
				}
				indices[j] = uint32(v)
			}
			if prop.name == "vertex_indices" || prop.name == "vertex_index" {
				faces = appendTriangulated(faces, indices)
			}
		}
	}

	return buildMesh(header, vertexData, faces)
}

// appendTriangulated fans a polygon into triangles
func appendTriangulated(faces []uint32, indices []uint32) []uint32 {
	for j := 2; j < len(indices); j++ {
		faces = append(faces, indices[0], indices[j-1], indices[j])
	}
	return faces
}

// readPLYScalar reads one little-endian scalar of a PLY data type
func readPLYScalar(reader *bufio.Reader, dataType string) (float64, error) {
	switch dataType {
	case "char", "int8":
		var v int8
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "uchar", "uint8":
		var v uint8
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "short", "int16":
		var v int16
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "ushort", "uint16":
		var v uint16
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "int", "int32":
		var v int32
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "uint", "uint32":
		var v uint32
		err := binary.Read(reader, binary.LittleEndian, &v)
		return float64(v), err
	case "float", "float32":
		var v uint32
		if err := binary.Read(reader, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return float64(math.Float32frombits(v)), nil
	case "double", "float64":
		var v uint64
		if err := binary.Read(reader, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return math.Float64frombits(v), nil
	default:
		return 0, errors.Errorf("unsupported PLY data type %q", dataType)
	}
}
