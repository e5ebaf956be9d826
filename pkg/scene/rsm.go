package scene

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/Faultbox/pivot-painter/pkg/formats"
	"github.com/Faultbox/pivot-painter/pkg/math"
)

// DefaultUVLayer is the layer name RSM texture coordinates import into.
const DefaultUVLayer = "UVMap"

// FromRSM builds a scene from a parsed RSM model. Each node becomes a MESH
// object whose vertices carry the node's offset and mesh matrix, and whose
// local transform is the node's position, axis-angle rotation and scale.
func FromRSM(model *formats.RSM) (*Scene, error) {
	s := New()
	for i := range model.Nodes {
		if err := s.Add(objectFromNode(&model.Nodes[i])); err != nil {
			return nil, err
		}
	}

	for i, n := range model.Nodes {
		if n.Parent == "" || n.Parent == n.Name {
			continue
		}
		parent := s.Object(n.Parent)
		if parent == nil {
			continue
		}
		child := s.Objects[i]
		if child.IsAncestorOf(parent) {
			return nil, fmt.Errorf("%w: %q", ErrParentCycle, n.Name)
		}
		// Node transforms are already parent-relative.
		child.Parent = parent
		parent.Children = append(parent.Children, child)
	}
	return s, nil
}

func objectFromNode(n *formats.RSMNode) *Object {
	vertexMatrix := math.Translate(n.Offset[0], n.Offset[1], n.Offset[2]).Mul(math.FromMat3x3(n.Mesh))

	vertices := make([]math.Vec3, len(n.Vertices))
	for i, v := range n.Vertices {
		vertices[i] = vertexMatrix.TransformPoint(math.V3FromArray(v))
	}

	faces := make([]Face, 0, len(n.Faces))
	uvs := make([]math.Vec2, 0, 3*len(n.Faces))
	for _, f := range n.Faces {
		faces = append(faces, Face{int(f.Vertices[0]), int(f.Vertices[1]), int(f.Vertices[2])})
		for _, ti := range f.TexCoords {
			var uv math.Vec2
			if int(ti) < len(n.TexCoords) {
				uv = math.Vec2{X: n.TexCoords[ti][0], Y: n.TexCoords[ti][1]}
			}
			uvs = append(uvs, uv)
		}
	}

	o := NewMesh(n.Name, vertices, faces)
	o.Location = math.V3FromArray(n.Position)
	o.Scale = math.V3FromArray(n.Scale)

	axis := math.V3FromArray(n.RotAxis)
	if n.RotAngle != 0 && axis.Length() > 1e-6 {
		o.Rotation = math.QuatFromAxisAngle(axis.Normalize(), n.RotAngle)
	}
	if math32.Abs(o.Scale.X*o.Scale.Y*o.Scale.Z) < 1e-12 {
		o.Scale = math.Vec3{X: 1, Y: 1, Z: 1}
	}

	if len(faces) > 0 {
		o.UVLayers = append(o.UVLayers, &UVLayer{Name: DefaultUVLayer, UVs: uvs})
	}
	return o
}

// LoadRSM parses an RSM file into a scene.
func LoadRSM(path string) (*Scene, error) {
	model, err := formats.ParseRSMFile(path)
	if err != nil {
		return nil, err
	}
	return FromRSM(model)
}

// FileSource reads named files, such as a GRF archive.
type FileSource interface {
	Read(name string) ([]byte, error)
}

// LoadRSMFrom imports the RSM model stored under name in src.
func LoadRSMFrom(src FileSource, name string) (*Scene, error) {
	data, err := src.Read(name)
	if err != nil {
		return nil, err
	}
	model, err := formats.ParseRSM(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return FromRSM(model)
}
