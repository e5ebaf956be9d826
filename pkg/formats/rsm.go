package formats

import (
	"errors"
	"fmt"
	"os"
)

// RSM errors.
var (
	ErrInvalidRSMMagic       = errors.New("invalid RSM magic: expected 'GRSM'")
	ErrUnsupportedRSMVersion = errors.New("unsupported RSM version")
	ErrTruncatedRSMData      = errors.New("truncated RSM data")
	ErrInvalidCount          = errors.New("invalid RSM element count")
)

const (
	nameLength    = 40
	maxNodes      = 10000
	maxTextures   = 1000
	maxElements   = 100000
	maxKeyframes  = 10000
	rsmHeaderSize = 6
)

// RSMVersion is the RSM file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

// String returns "Major.Minor".
func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// RSMFace is a triangle of a node mesh.
type RSMFace struct {
	Vertices  [3]uint16
	TexCoords [3]uint16
	TextureID uint16
	TwoSided  bool
}

// RSMNode is one mesh node of a model. Offset and Mesh transform the node's
// vertices only; Position, RotAxis/RotAngle and Scale form the transform its
// children inherit.
type RSMNode struct {
	Name   string
	Parent string

	Mesh     [9]float32 // column-major 3x3
	Offset   [3]float32
	Position [3]float32
	RotAngle float32
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords [][2]float32
	Faces     []RSMFace

	Keyframes int
}

// RSM is a parsed model.
type RSM struct {
	Version  RSMVersion
	Textures []string
	RootNode string
	Nodes    []RSMNode
}

// ParseRSM parses RSM data. Animation keyframes and volume boxes are
// skipped; only their count is kept.
func ParseRSM(data []byte) (*RSM, error) {
	if len(data) < rsmHeaderSize {
		return nil, ErrTruncatedRSMData
	}
	if string(data[:4]) != "GRSM" {
		return nil, ErrInvalidRSMMagic
	}

	r := newBinReader(data[4:])
	model := &RSM{Version: RSMVersion{Major: r.uint8(), Minor: r.uint8()}}
	if model.Version.Major < 1 || model.Version.Major > 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, model.Version)
	}

	r.int32() // animation length
	r.int32() // shading
	if model.Version.AtLeast(1, 4) {
		r.uint8() // alpha
	}
	r.skip(16)

	textures := r.count(maxTextures)
	model.Textures = make([]string, textures)
	for i := range model.Textures {
		model.Textures[i] = r.string(nameLength)
	}
	model.RootNode = r.string(nameLength)

	nodes := r.count(maxNodes)
	if r.err != nil {
		return nil, r.err
	}
	model.Nodes = make([]RSMNode, nodes)
	for i := range model.Nodes {
		readNode(r, model.Version, &model.Nodes[i])
		if r.err != nil {
			return nil, fmt.Errorf("parsing node %d: %w", i, r.err)
		}
	}
	return model, nil
}

func readNode(r *binReader, version RSMVersion, node *RSMNode) {
	node.Name = r.string(nameLength)
	node.Parent = r.string(nameLength)

	r.skip(int64(r.count(maxTextures)) * 4)

	r.read(&node.Mesh)
	node.Offset = r.vec3()
	node.Position = r.vec3()
	node.RotAngle = r.float32()
	node.RotAxis = r.vec3()
	node.Scale = r.vec3()

	node.Vertices = make([][3]float32, r.count(maxElements))
	for i := range node.Vertices {
		node.Vertices[i] = r.vec3()
	}

	node.TexCoords = make([][2]float32, r.count(maxElements))
	for i := range node.TexCoords {
		if version.AtLeast(1, 2) {
			r.skip(4) // vertex color
		}
		r.read(&node.TexCoords[i])
	}

	node.Faces = make([]RSMFace, r.count(maxElements))
	for i := range node.Faces {
		f := &node.Faces[i]
		r.read(&f.Vertices)
		r.read(&f.TexCoords)
		r.read(&f.TextureID)
		r.skip(2)
		f.TwoSided = r.int32() != 0
		if version.AtLeast(1, 2) {
			r.int32() // smoothing group
		}
	}

	if !version.AtLeast(1, 5) {
		n := r.count(maxKeyframes)
		r.skip(int64(n) * 16)
		node.Keyframes += n
	}
	n := r.count(maxKeyframes)
	r.skip(int64(n) * 20)
	node.Keyframes += n
	if version.AtLeast(1, 5) {
		n := r.count(maxKeyframes)
		r.skip(int64(n) * 16)
		node.Keyframes += n
	}
}

// ParseRSMFile parses an RSM file from disk.
func ParseRSMFile(path string) (*RSM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading RSM file: %w", err)
	}
	return ParseRSM(data)
}

// Node returns the node with the given name, or nil.
func (m *RSM) Node(name string) *RSMNode {
	for i := range m.Nodes {
		if m.Nodes[i].Name == name {
			return &m.Nodes[i]
		}
	}
	return nil
}

// Children returns the nodes whose parent is name.
func (m *RSM) Children(name string) []*RSMNode {
	var children []*RSMNode
	for i := range m.Nodes {
		if m.Nodes[i].Parent == name && m.Nodes[i].Name != name {
			children = append(children, &m.Nodes[i])
		}
	}
	return children
}

// VertexCount returns the total vertex count.
func (m *RSM) VertexCount() int {
	total := 0
	for _, n := range m.Nodes {
		total += len(n.Vertices)
	}
	return total
}
