package scene

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/pivot-painter/pkg/formats"
	"github.com/Faultbox/pivot-painter/pkg/math"
)

const tol = 1e-4

func cube(name string, center math.Vec3, half float32) *Object {
	var verts []math.Vec3
	for _, x := range []float32{-half, half} {
		for _, y := range []float32{-half, half} {
			for _, z := range []float32{-half, half} {
				verts = append(verts, center.Add(math.V3(x, y, z)))
			}
		}
	}
	faces := []Face{
		{0, 1, 3, 2}, {4, 6, 7, 5}, {0, 4, 5, 1},
		{2, 3, 7, 6}, {0, 2, 6, 4}, {1, 5, 7, 3},
	}
	return NewMesh(name, verts, faces)
}

func assertVec(t *testing.T, want, got math.Vec3) {
	t.Helper()
	assert.True(t, want.NearlyEqual(got, tol), "want %v, got %v", want, got)
}

func TestWorldMatrixChain(t *testing.T) {
	root := cube("root", math.Vec3{}, 1)
	root.Location = math.V3(1, 0, 0)
	child := cube("child", math.Vec3{}, 1)
	child.Location = math.V3(0, 2, 0)
	child.Parent = root
	root.Children = append(root.Children, child)

	assertVec(t, math.V3(1, 2, 0), child.WorldLocation())

	root.Rotation = math.QuatFromAxisAngle(math.V3(0, 0, 1), 3.14159265/2)
	assertVec(t, math.V3(-1, 0, 0), child.WorldLocation())
}

func TestWorldMatrixCycleTerminates(t *testing.T) {
	a := NewObject("a", TypeEmpty)
	b := NewObject("b", TypeEmpty)
	a.Parent, b.Parent = b, a
	_ = a.WorldMatrix()
	assert.Same(t, b, a.Root())
	assert.Equal(t, 1, a.AncestorCount())
}

func TestSetParentKeepsWorld(t *testing.T) {
	root := cube("root", math.Vec3{}, 1)
	root.Location = math.V3(5, 0, 0)
	root.Scale = math.V3(2, 2, 2)
	child := cube("child", math.Vec3{}, 0.5)
	child.Location = math.V3(1, 1, 1)

	before := child.WorldVertices()
	require.NoError(t, child.SetParent(root))
	assert.Same(t, root, child.Parent)
	assert.Len(t, root.Children, 1)

	after := child.WorldVertices()
	for i := range before {
		assertVec(t, before[i], after[i])
	}

	require.NoError(t, child.SetParent(nil))
	assert.Empty(t, root.Children)
	assertVec(t, math.V3(1, 1, 1), child.WorldLocation())
}

func TestSetParentRejectsCycle(t *testing.T) {
	a := cube("a", math.Vec3{}, 1)
	b := cube("b", math.Vec3{}, 1)
	require.NoError(t, b.SetParent(a))
	assert.ErrorIs(t, a.SetParent(b), ErrParentCycle)
	assert.ErrorIs(t, a.SetParent(a), ErrParentCycle)
}

func TestSetOriginKeepsGeometryAndChildren(t *testing.T) {
	root := cube("root", math.V3(3, 0, 0), 1)
	child := cube("child", math.V3(3, 0, 2), 0.5)
	require.NoError(t, child.SetParent(root))

	rootBefore := root.WorldVertices()
	childBefore := child.WorldVertices()

	root.SetOriginKeepGeometry(math.V3(3, 0, -1))

	assertVec(t, math.V3(3, 0, -1), root.WorldLocation())
	for i, v := range root.WorldVertices() {
		assertVec(t, rootBefore[i], v)
	}
	for i, v := range child.WorldVertices() {
		assertVec(t, childBefore[i], v)
	}
}

func TestSetRotationKeepsGeometry(t *testing.T) {
	o := cube("o", math.V3(1, 2, 3), 1)
	o.Scale = math.V3(1, 2, 1)
	before := o.WorldVertices()

	q := math.QuatFromAxisAngle(math.V3(0, 1, 0), 0.7)
	o.SetRotationKeepGeometry(q)

	assert.InDelta(t, 1, float64(o.WorldRotation().Dot(q)), tol)
	for i, v := range o.WorldVertices() {
		assertVec(t, before[i], v)
	}
}

func TestBoundBoxOrder(t *testing.T) {
	o := cube("o", math.V3(1, 1, 1), 1)
	bb := o.BoundBox()

	assertVec(t, math.V3(0, 0, 0), bb[0])
	assertVec(t, math.V3(0, 0, 2), bb[1])
	assertVec(t, math.V3(0, 2, 2), bb[2])
	assertVec(t, math.V3(2, 2, 2), bb[6])
	assertVec(t, math.V3(2, 2, 0), bb[7])
	assertVec(t, math.V3(1, 1, 1), o.BoundCenter())
}

func TestDimensionsIncludeScale(t *testing.T) {
	o := cube("o", math.Vec3{}, 1)
	o.Scale = math.V3(1, 3, 0.5)
	assertVec(t, math.V3(2, 6, 1), o.Dimensions())
}

func TestDepthCounts(t *testing.T) {
	empty := NewObject("empty", TypeEmpty)
	a := cube("a", math.Vec3{}, 1)
	b := cube("b", math.Vec3{}, 1)
	require.NoError(t, a.SetParent(empty))
	require.NoError(t, b.SetParent(a))

	assert.Equal(t, 2, b.AncestorCount())
	assert.Equal(t, 1, b.MeshDepth())
	assert.Equal(t, 0, a.MeshDepth())
	assert.Same(t, empty, b.Root())
}

func TestLevels(t *testing.T) {
	root := cube("root", math.Vec3{}, 1)
	a := cube("a", math.Vec3{}, 1)
	b := cube("b", math.Vec3{}, 1)
	c := cube("c", math.Vec3{}, 1)
	require.NoError(t, a.SetParent(root))
	require.NoError(t, b.SetParent(root))
	require.NoError(t, c.SetParent(a))

	levels := Levels([]*Object{c, b, root, a})
	require.Equal(t, 3, levels.Depth())
	assert.Equal(t, []*Object{root}, levels[0])
	assert.Equal(t, []*Object{b, a}, levels[1])
	assert.Equal(t, []*Object{c}, levels[2])
	assert.Equal(t, 4, levels.Len())
}

func TestSelection(t *testing.T) {
	a := cube("a", math.Vec3{}, 1)
	b := cube("b", math.Vec3{}, 1)

	sel, err := NewSelection([]*Object{b, a})
	require.NoError(t, err)
	i, ok := sel.IndexOf(a)
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, []string{"b", "a"}, sel.Names())

	_, err = NewSelection([]*Object{a, b, a})
	assert.ErrorIs(t, err, ErrDuplicateObject)
	_, err = NewSelection([]*Object{nil})
	assert.ErrorIs(t, err, ErrNilObject)
}

func TestAssignSelectionOrder(t *testing.T) {
	objs := []*Object{cube("a", math.Vec3{}, 1), cube("b", math.Vec3{}, 1), cube("c", math.Vec3{}, 1)}

	tests := []struct {
		name  string
		start int
		same  bool
		want  []int
	}{
		{"counting", 1, false, []int{1, 2, 3}},
		{"offset", 5, false, []int{5, 6, 7}},
		{"same number", 2, true, []int{2, 2, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, AssignSelectionOrder(objs, tt.start, tt.same))
			for i, o := range objs {
				got, ok := o.Tag(SelectionOrderTag)
				assert.True(t, ok)
				assert.Equal(t, tt.want[i], got)
			}
		})
	}

	assert.ErrorIs(t, AssignSelectionOrder(objs, 0, false), ErrInvalidStart)

	ClearSelectionOrder(objs[:1])
	assert.Equal(t, []*Object{objs[0]}, MissingTag(objs, SelectionOrderTag))
}

func TestSceneAddDuplicate(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(cube("a", math.Vec3{}, 1)))
	err := s.Add(cube("a", math.Vec3{}, 1))
	assert.True(t, errors.Is(err, ErrDuplicateObject))

	_, err = s.Lookup([]string{"a", "missing"})
	assert.ErrorIs(t, err, ErrUnknownObject)
}

func TestReadScene(t *testing.T) {
	src := `
units: {system: METRIC, scale_length: 1}
objects:
  - name: branch
    parent: trunk
    location: [0, 0, 2]
    rotation: [0, 0, 0, 1]
    vertices: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
    faces: [[0, 1, 2]]
    tags: {SelectionOrder: 2}
  - name: trunk
    location: [1, 0, 0]
    scale: [1, 1, 1]
    vertices: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
    faces: [[0, 1, 2]]
`
	s, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, s.Objects, 2)

	branch := s.Object("branch")
	assert.Same(t, s.Object("trunk"), branch.Parent)
	assert.Equal(t, TypeMesh, branch.Type)
	assertVec(t, math.V3(1, 0, 2), branch.WorldLocation())
	order, _ := branch.Tag(SelectionOrderTag)
	assert.Equal(t, 2, order)
	assert.True(t, s.Units.IsMetric())
}

func TestReadSceneErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown parent", "objects:\n  - {name: a, parent: b}\n", ErrUnknownParent},
		{"cycle", "objects:\n  - {name: a, parent: b}\n  - {name: b, parent: a}\n", ErrParentCycle},
		{"duplicate", "objects:\n  - {name: a}\n  - {name: a}\n", ErrDuplicateObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.src))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestWriteKeepsWorldTransforms(t *testing.T) {
	s := New()
	root := cube("root", math.Vec3{}, 1)
	root.Location = math.V3(2, 0, 0)
	child := cube("child", math.V3(0, 0, 3), 0.5)
	require.NoError(t, s.Add(root, child))
	require.NoError(t, child.SetParent(root))
	child.EnsureUVLayer("UVMap").UVs[0] = math.Vec2{X: 0.25, Y: 0.75}

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))

	back, err := Read(&buf)
	require.NoError(t, err)
	got := back.Object("child")
	require.NotNil(t, got)
	for i, v := range got.WorldVertices() {
		assertVec(t, child.WorldVertices()[i], v)
	}
	assert.Equal(t, float32(0.75), got.UVLayer("UVMap").UVs[0].Y)
}

func TestFromRSM(t *testing.T) {
	model := &formats.RSM{Nodes: []formats.RSMNode{
		{
			Name:     "root",
			Mesh:     [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
			Offset:   [3]float32{0, 1, 0},
			Position: [3]float32{10, 0, 0},
			Scale:    [3]float32{1, 1, 1},
			Vertices: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
			Faces:    []formats.RSMFace{{Vertices: [3]uint16{0, 1, 2}}},
		},
		{
			Name:     "arm",
			Parent:   "root",
			Mesh:     [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
			Position: [3]float32{0, 0, 5},
			Vertices: [][3]float32{{0, 0, 0}},
		},
	}}

	s, err := FromRSM(model)
	require.NoError(t, err)

	root := s.Object("root")
	assertVec(t, math.V3(0, 1, 0), root.Vertices[0])
	assertVec(t, math.V3(10, 1, 0), root.WorldVertices()[0])
	require.NotNil(t, root.UVLayer(DefaultUVLayer))
	assert.Len(t, root.UVLayer(DefaultUVLayer).UVs, 3)

	arm := s.Object("arm")
	assert.Same(t, root, arm.Parent)
	assertVec(t, math.V3(10, 0, 5), arm.WorldLocation())
	assertVec(t, math.V3(1, 1, 1), arm.Scale)
}

type mapSource map[string][]byte

func (m mapSource) Read(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func TestLoadRSMFromErrors(t *testing.T) {
	src := mapSource{"data/model/bad.rsm": []byte("GRSM")}

	_, err := LoadRSMFrom(src, "data/model/missing.rsm")
	assert.EqualError(t, err, "not found")

	_, err = LoadRSMFrom(src, "data/model/bad.rsm")
	assert.ErrorIs(t, err, formats.ErrTruncatedRSMData)
	assert.Contains(t, err.Error(), "data/model/bad.rsm")
}
