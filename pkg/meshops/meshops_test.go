package meshops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/pivot-painter/pkg/math"
	"github.com/Faultbox/pivot-painter/pkg/scene"
)

// quads returns one square face per offset, each with its own vertices.
func quads(name string, offsets ...float32) *scene.Object {
	var (
		verts []math.Vec3
		faces []scene.Face
	)
	for _, x := range offsets {
		base := len(verts)
		verts = append(verts,
			math.V3(x, 0, 0), math.V3(x+1, 0, 0), math.V3(x+1, 1, 0), math.V3(x, 1, 0))
		faces = append(faces, scene.Face{base, base + 1, base + 2, base + 3})
	}
	return scene.NewMesh(name, verts, faces)
}

func TestSplitLooseParts(t *testing.T) {
	parent := quads("parent", 10)
	o := quads("leaves", 0, 3)
	// A second face sharing an edge with the first keeps them together.
	o.Vertices = append(o.Vertices, math.V3(0, 2, 0), math.V3(1, 2, 0))
	o.Faces = append(o.Faces, scene.Face{3, 2, 9, 8})
	o.Location = math.V3(0, 0, 5)
	o.SetTag(scene.SelectionOrderTag, 4)
	layer := o.EnsureUVLayer("UVMap")
	for i := range layer.UVs {
		layer.UVs[i] = math.Vec2{X: float32(i)}
	}
	require.NoError(t, o.SetParent(parent))

	parts := Split(o)
	require.Len(t, parts, 2)

	first, second := parts[0], parts[1]
	assert.Equal(t, "leaves.001", first.Name)
	assert.Equal(t, "leaves.002", second.Name)
	assert.Len(t, first.Vertices, 6)
	assert.Len(t, first.Faces, 2)
	assert.Len(t, second.Vertices, 4)
	assert.Equal(t, []scene.Face{{0, 1, 2, 3}}, second.Faces)

	// Face order is kept, so the parts carry loops 0-3 and 8-11, and 4-7.
	uvs := first.UVLayer("UVMap").UVs
	require.Len(t, uvs, 8)
	assert.Equal(t, float32(8), uvs[4].X)
	assert.Equal(t, float32(4), second.UVLayer("UVMap").UVs[0].X)

	for _, p := range parts {
		assert.Same(t, parent, p.Parent)
		assert.True(t, p.WorldMatrix().NearlyEqual(o.WorldMatrix(), 1e-6))
		v, ok := p.Tag(scene.SelectionOrderTag)
		assert.True(t, ok)
		assert.Equal(t, 4, v)
	}
	assert.Len(t, parent.Children, 3)
}

func TestSplitSinglePart(t *testing.T) {
	parts := Split(quads("one", 0))
	require.Len(t, parts, 1)
	assert.Len(t, parts[0].Vertices, 4)
}

func uvSource(name string, offset float32) *scene.Object {
	o := quads(name, offset)
	layer := o.EnsureUVLayer("UVMap")
	for i := range layer.UVs {
		layer.UVs[i] = math.Vec2{X: offset, Y: float32(i)}
	}
	return o
}

func TestCopyUVs(t *testing.T) {
	a, b := uvSource("a", 0), uvSource("b", 3)
	target := quads("target", 0, 3)

	result, err := CopyUVs([]*scene.Object{a, b}, target, CopyOptions{Layer: "UVMap", Precision: 4})
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, 8, result.Matched)

	uvs := target.UVLayer("UVMap").UVs
	assert.Equal(t, math.Vec2{X: 0, Y: 2}, uvs[2])
	assert.Equal(t, math.Vec2{X: 3, Y: 1}, uvs[5])
}

func TestCopyUVsUsesWorldPositions(t *testing.T) {
	src := uvSource("src", 0)
	src.Location = math.V3(0, 0, 1)
	target := quads("target", 0)
	target.Vertices = []math.Vec3{
		math.V3(0, 0, 0.5), math.V3(1, 0, 0.5), math.V3(1, 1, 0.5), math.V3(0, 1, 0.5),
	}
	target.Location = math.V3(0, 0, 0.5)

	result, err := CopyUVs([]*scene.Object{src}, target, CopyOptions{Layer: "UVMap", Precision: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, result.Matched)
}

func TestCopyUVsRetry(t *testing.T) {
	src := uvSource("src", 0)
	target := quads("target", 0)
	// 0.004 off on one corner: misses at 3 decimals, matches at 0.01.
	target.Vertices[1] = math.V3(1.004, 0, 0)

	tests := []struct {
		name      string
		retry     bool
		unmatched int
		retried   int
	}{
		{"report only", false, 1, 0},
		{"coarsen", true, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CopyUVs([]*scene.Object{src}, target,
				CopyOptions{Layer: "UVMap", Precision: 3, Retry: tt.retry})
			require.NoError(t, err)
			assert.Equal(t, 3, result.Matched)
			assert.Equal(t, tt.retried, result.Retried)
			assert.Equal(t, tt.unmatched, result.Unmatched)
		})
	}
	assert.Equal(t, math.Vec2{Y: 1}, target.UVLayer("UVMap").UVs[1])
}

func TestCopyUVsErrors(t *testing.T) {
	src := uvSource("src", 0)
	target := quads("target", 0)

	_, err := CopyUVs([]*scene.Object{src}, target, CopyOptions{Layer: "UVMap", Precision: 0})
	assert.ErrorIs(t, err, ErrInvalidPrecision)

	_, err = CopyUVs([]*scene.Object{src}, target, CopyOptions{Layer: "Other", Precision: 3})
	assert.ErrorIs(t, err, ErrMissingUVLayer)

	empty := scene.NewObject("empty", scene.TypeEmpty)
	_, err = CopyUVs([]*scene.Object{src}, empty, CopyOptions{Layer: "UVMap", Precision: 3})
	assert.ErrorIs(t, err, ErrNotMesh)
}
