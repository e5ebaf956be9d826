// Package scene is the host model the engine works on: mesh instances with
// world transforms, parent links, integer tags and UV layers.
package scene

import (
	"github.com/Faultbox/pivot-painter/pkg/math"
)

// ObjectType distinguishes geometry-carrying objects from empties.
type ObjectType string

const (
	TypeMesh  ObjectType = "MESH"
	TypeEmpty ObjectType = "EMPTY"
)

// SelectionOrderTag is the integer tag read by the selection order packer.
const SelectionOrderTag = "SelectionOrder"

// Face is a polygon given as indices into Object.Vertices.
type Face []int

// UVLayer holds one UV per face corner (loop), in face order.
type UVLayer struct {
	Name string
	UVs  []math.Vec2
}

// Object is a mesh instance.
//
// The world matrix is parentWorld * ParentInverse * Compose(Location,
// Rotation, Scale). Vertices are in object space.
type Object struct {
	Name string
	Type ObjectType

	Location      math.Vec3
	Rotation      math.Quat
	Scale         math.Vec3
	ParentInverse math.Mat4

	Parent   *Object
	Children []*Object

	Vertices []math.Vec3
	Faces    []Face

	Tags     map[string]int
	UVLayers []*UVLayer
}

// NewObject returns an object with an identity transform.
func NewObject(name string, typ ObjectType) *Object {
	return &Object{
		Name:          name,
		Type:          typ,
		Rotation:      math.QuatIdentity(),
		Scale:         math.Vec3{X: 1, Y: 1, Z: 1},
		ParentInverse: math.Identity(),
		Tags:          make(map[string]int),
	}
}

// NewMesh returns a mesh object owning the given geometry.
func NewMesh(name string, vertices []math.Vec3, faces []Face) *Object {
	o := NewObject(name, TypeMesh)
	o.Vertices = vertices
	o.Faces = faces
	return o
}

// IsMesh reports whether the object carries geometry.
func (o *Object) IsMesh() bool {
	return o.Type == TypeMesh
}

// LocalMatrix returns Compose(Location, Rotation, Scale).
func (o *Object) LocalMatrix() math.Mat4 {
	return math.Compose(o.Location, o.Rotation, o.Scale)
}

// WorldMatrix returns the object-to-world transform. A parent cycle is cut
// at the first repeated object.
func (o *Object) WorldMatrix() math.Mat4 {
	visited := make(map[*Object]bool)
	return o.worldMatrix(visited)
}

func (o *Object) worldMatrix(visited map[*Object]bool) math.Mat4 {
	if visited[o] {
		return math.Identity()
	}
	visited[o] = true

	local := o.ParentInverse.Mul(o.LocalMatrix())
	if o.Parent == nil {
		return local
	}
	return o.Parent.worldMatrix(visited).Mul(local)
}

// WorldLocation returns the translation of the world matrix.
func (o *Object) WorldLocation() math.Vec3 {
	return o.WorldMatrix().Translation()
}

// WorldRotation returns the rotation of the world matrix.
func (o *Object) WorldRotation() math.Quat {
	return math.QuatFromMat4(o.WorldMatrix())
}

// WorldScale returns the per-axis scale of the world matrix.
func (o *Object) WorldScale() math.Vec3 {
	return o.WorldMatrix().ScaleFactors()
}

// WorldVertices returns every vertex transformed to world space.
func (o *Object) WorldVertices() []math.Vec3 {
	m := o.WorldMatrix()
	out := make([]math.Vec3, len(o.Vertices))
	for i, v := range o.Vertices {
		out[i] = m.TransformPoint(v)
	}
	return out
}

// Triangles fans every face into triangles of vertex indices.
func (o *Object) Triangles() [][3]int {
	tris, _ := o.triangulate()
	return tris
}

// triangulate fans faces into triangles and records the source face of each.
func (o *Object) triangulate() (tris [][3]int, faceOf []int) {
	for fi, f := range o.Faces {
		for i := 1; i+1 < len(f); i++ {
			tris = append(tris, [3]int{f[0], f[i], f[i+1]})
			faceOf = append(faceOf, fi)
		}
	}
	return tris, faceOf
}

// FaceCenters returns the mean vertex of each face, in object space.
func (o *Object) FaceCenters() []math.Vec3 {
	centers := make([]math.Vec3, 0, len(o.Faces))
	pts := make([]math.Vec3, 0, 4)
	for _, f := range o.Faces {
		pts = pts[:0]
		for _, vi := range f {
			pts = append(pts, o.Vertices[vi])
		}
		centers = append(centers, math.Mean(pts))
	}
	return centers
}

// LoopCount returns the number of face corners.
func (o *Object) LoopCount() int {
	n := 0
	for _, f := range o.Faces {
		n += len(f)
	}
	return n
}

// LoopVertices returns the vertex index of every face corner in loop order.
func (o *Object) LoopVertices() []int {
	loops := make([]int, 0, o.LoopCount())
	for _, f := range o.Faces {
		loops = append(loops, f...)
	}
	return loops
}

// UVLayer returns the named layer, or nil.
func (o *Object) UVLayer(name string) *UVLayer {
	for _, l := range o.UVLayers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// EnsureUVLayer returns the named layer, creating it sized to the loop count.
func (o *Object) EnsureUVLayer(name string) *UVLayer {
	if l := o.UVLayer(name); l != nil {
		if len(l.UVs) != o.LoopCount() {
			l.UVs = make([]math.Vec2, o.LoopCount())
		}
		return l
	}
	l := &UVLayer{Name: name, UVs: make([]math.Vec2, o.LoopCount())}
	o.UVLayers = append(o.UVLayers, l)
	return l
}

// Tag returns an integer tag and whether it is set.
func (o *Object) Tag(name string) (int, bool) {
	v, ok := o.Tags[name]
	return v, ok
}

// SetTag sets an integer tag.
func (o *Object) SetTag(name string, value int) {
	if o.Tags == nil {
		o.Tags = make(map[string]int)
	}
	o.Tags[name] = value
}

// BoundBox returns the eight object-space bounding corners. Corner 0 is the
// minimum and corner 6 the maximum:
//
//	0 (-,-,-)  1 (-,-,+)  2 (-,+,+)  3 (-,+,-)
//	4 (+,-,-)  5 (+,-,+)  6 (+,+,+)  7 (+,+,-)
func (o *Object) BoundBox() [8]math.Vec3 {
	lo, hi := o.localBounds()
	return [8]math.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
	}
}

func (o *Object) localBounds() (lo, hi math.Vec3) {
	if len(o.Vertices) == 0 {
		return math.Vec3{}, math.Vec3{}
	}
	lo, hi = o.Vertices[0], o.Vertices[0]
	for _, v := range o.Vertices[1:] {
		lo = lo.Min(v)
		hi = hi.Max(v)
	}
	return lo, hi
}

// BoundCenter returns the object-space center of the bounding box.
func (o *Object) BoundCenter() math.Vec3 {
	lo, hi := o.localBounds()
	return lo.Add(hi).Scale(0.5)
}

// Dimensions returns the bounding box size multiplied by the world scale.
func (o *Object) Dimensions() math.Vec3 {
	lo, hi := o.localBounds()
	return hi.Sub(lo).Mul(o.WorldScale())
}

// Root returns the topmost ancestor, or o itself.
func (o *Object) Root() *Object {
	root := o
	visited := map[*Object]bool{o: true}
	for root.Parent != nil && !visited[root.Parent] {
		root = root.Parent
		visited[root] = true
	}
	return root
}

// AncestorCount returns the number of ancestors of any type.
func (o *Object) AncestorCount() int {
	n := 0
	visited := map[*Object]bool{o: true}
	for p := o.Parent; p != nil && !visited[p]; p = p.Parent {
		visited[p] = true
		n++
	}
	return n
}

// MeshDepth returns the number of consecutive MESH ancestors above o.
func (o *Object) MeshDepth() int {
	n := 0
	visited := map[*Object]bool{o: true}
	for p := o.Parent; p != nil && p.IsMesh() && !visited[p]; p = p.Parent {
		visited[p] = true
		n++
	}
	return n
}

// IsAncestorOf reports whether o is above other in the hierarchy.
func (o *Object) IsAncestorOf(other *Object) bool {
	visited := make(map[*Object]bool)
	for p := other.Parent; p != nil && !visited[p]; p = p.Parent {
		if p == o {
			return true
		}
		visited[p] = true
	}
	return false
}
