package scene

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/pivot-painter/pkg/math"
)

// ErrUnknownParent is returned when a scene file names a missing parent.
var ErrUnknownParent = errors.New("scene: unknown parent")

// fileScene is the YAML layout of a scene file.
type fileScene struct {
	Units   Units        `yaml:"units"`
	Objects []fileObject `yaml:"objects"`
}

type fileObject struct {
	Name          string         `yaml:"name"`
	Type          ObjectType     `yaml:"type,omitempty"`
	Parent        string         `yaml:"parent,omitempty"`
	Location      [3]float32     `yaml:"location,flow"`
	Rotation      [4]float32     `yaml:"rotation,flow"` // x, y, z, w
	Scale         *[3]float32    `yaml:"scale,omitempty,flow"`
	ParentInverse *[16]float32   `yaml:"parent_inverse,omitempty,flow"`
	Vertices      [][3]float32   `yaml:"vertices,omitempty,flow"`
	Faces         [][]int        `yaml:"faces,omitempty,flow"`
	Tags          map[string]int `yaml:"tags,omitempty"`
	UVLayers      []fileUVLayer  `yaml:"uv_layers,omitempty"`
}

type fileUVLayer struct {
	Name string       `yaml:"name"`
	UVs  [][2]float32 `yaml:"uvs,flow"`
}

// Read decodes a YAML scene. Parents may be listed after their children.
// Missing units default to metric, a zero rotation to the identity.
func Read(r io.Reader) (*Scene, error) {
	var doc fileScene
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}

	s := New()
	if doc.Units.System != "" {
		s.Units = doc.Units
	}

	for _, fo := range doc.Objects {
		if err := s.Add(fo.object()); err != nil {
			return nil, err
		}
	}

	for i, fo := range doc.Objects {
		if fo.Parent == "" {
			continue
		}
		parent := s.Object(fo.Parent)
		if parent == nil {
			return nil, fmt.Errorf("%w: %q (parent of %q)", ErrUnknownParent, fo.Parent, fo.Name)
		}
		child := s.Objects[i]
		if parent == child || child.IsAncestorOf(parent) {
			return nil, fmt.Errorf("%w: %q", ErrParentCycle, fo.Name)
		}
		child.Parent = parent
		parent.Children = append(parent.Children, child)
	}
	return s, nil
}

func (fo fileObject) object() *Object {
	typ := fo.Type
	if typ == "" {
		typ = TypeMesh
	}
	o := NewObject(fo.Name, typ)
	o.Location = math.V3FromArray(fo.Location)
	if fo.Rotation != [4]float32{} {
		o.Rotation = math.Quat{X: fo.Rotation[0], Y: fo.Rotation[1], Z: fo.Rotation[2], W: fo.Rotation[3]}.Normalize()
	}
	if fo.Scale != nil {
		o.Scale = math.V3FromArray(*fo.Scale)
	}
	if fo.ParentInverse != nil {
		o.ParentInverse = math.Mat4(*fo.ParentInverse)
	}

	o.Vertices = make([]math.Vec3, len(fo.Vertices))
	for i, v := range fo.Vertices {
		o.Vertices[i] = math.V3FromArray(v)
	}
	o.Faces = make([]Face, len(fo.Faces))
	for i, f := range fo.Faces {
		o.Faces[i] = Face(f)
	}
	for k, v := range fo.Tags {
		o.SetTag(k, v)
	}
	for _, l := range fo.UVLayers {
		layer := &UVLayer{Name: l.Name, UVs: make([]math.Vec2, len(l.UVs))}
		for i, uv := range l.UVs {
			layer.UVs[i] = math.Vec2{X: uv[0], Y: uv[1]}
		}
		o.UVLayers = append(o.UVLayers, layer)
	}
	return o
}

// Write encodes the scene as YAML.
func (s *Scene) Write(w io.Writer) error {
	doc := fileScene{Units: s.Units}
	for _, o := range s.Objects {
		doc.Objects = append(doc.Objects, fileObjectFrom(o))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encoding scene: %w", err)
	}
	return enc.Close()
}

func fileObjectFrom(o *Object) fileObject {
	fo := fileObject{
		Name:     o.Name,
		Type:     o.Type,
		Location: o.Location.Array(),
		Rotation: [4]float32{o.Rotation.X, o.Rotation.Y, o.Rotation.Z, o.Rotation.W},
	}
	if o.Parent != nil {
		fo.Parent = o.Parent.Name
	}
	if o.Scale != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		s := o.Scale.Array()
		fo.Scale = &s
	}
	if o.ParentInverse != math.Identity() {
		pi := [16]float32(o.ParentInverse)
		fo.ParentInverse = &pi
	}
	for _, v := range o.Vertices {
		fo.Vertices = append(fo.Vertices, v.Array())
	}
	for _, f := range o.Faces {
		fo.Faces = append(fo.Faces, []int(f))
	}
	if len(o.Tags) > 0 {
		fo.Tags = o.Tags
	}
	for _, l := range o.UVLayers {
		fl := fileUVLayer{Name: l.Name, UVs: make([][2]float32, len(l.UVs))}
		for i, uv := range l.UVs {
			fl.UVs[i] = [2]float32{uv.X, uv.Y}
		}
		fo.UVLayers = append(fo.UVLayers, fl)
	}
	return fo
}

// Load reads a scene file. Files ending in .rsm are imported as RSM models.
func Load(path string) (*Scene, error) {
	if filepath.Ext(path) == ".rsm" {
		return LoadRSM(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scene: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// SaveTo writes the scene as YAML, creating parent directories.
func (s *Scene) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
