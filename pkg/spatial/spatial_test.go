package spatial

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/pivot-painter/pkg/math"
)

const eps = 1e-4

func tri(a, b, c math.Vec3) Triangle {
	return Triangle{a, b, c}
}

// grid returns a flat n x n quad grid in the z=height plane starting at origin.
func grid(origin math.Vec3, n int, step float32) []Triangle {
	var tris []Triangle
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p := origin.Add(math.V3(float32(i)*step, float32(j)*step, 0))
			px := p.Add(math.V3(step, 0, 0))
			py := p.Add(math.V3(0, step, 0))
			pxy := p.Add(math.V3(step, step, 0))
			tris = append(tris, tri(p, px, pxy), tri(p, pxy, py))
		}
	}
	return tris
}

func TestAABB(t *testing.T) {
	b := EmptyAABB()
	assert.True(t, b.IsEmpty())

	b = b.Extend(math.V3(1, 2, 3)).Extend(math.V3(-1, 0, 5))
	assert.False(t, b.IsEmpty())
	assert.Equal(t, math.V3(-1, 0, 3), b.Min)
	assert.Equal(t, math.V3(1, 2, 5), b.Max)
	assert.Equal(t, 2, NewAABB(math.V3(0, 0, 0), math.V3(1, 1, 4)).LongestAxis())

	other := NewAABB(math.V3(1, 2, 5), math.V3(3, 3, 6))
	assert.True(t, b.Overlaps(other), "touching boxes overlap")
	assert.False(t, b.Overlaps(NewAABB(math.V3(1.1, 0, 0), math.V3(2, 1, 1))))

	assert.Equal(t, float32(0), b.DistanceSq(math.V3(0, 1, 4)))
	assert.InDelta(t, 4, b.DistanceSq(math.V3(3, 1, 4)), eps)
}

func TestTrianglesOverlap(t *testing.T) {
	base := tri(math.V3(0, 0, 0), math.V3(2, 0, 0), math.V3(0, 2, 0))

	tests := []struct {
		name  string
		other Triangle
		want  bool
	}{
		{"piercing", tri(math.V3(0.5, 0.5, -1), math.V3(0.5, 0.5, 1), math.V3(0.6, 0.4, 1)), true},
		{"coplanar overlapping", tri(math.V3(0.5, 0.5, 0), math.V3(3, 0.5, 0), math.V3(0.5, 3, 0)), true},
		{"shared edge", tri(math.V3(0, 0, 0), math.V3(2, 0, 0), math.V3(0, -2, 0)), true},
		{"above", tri(math.V3(0, 0, 1), math.V3(2, 0, 1), math.V3(0, 2, 1)), false},
		{"coplanar apart", tri(math.V3(3, 3, 0), math.V3(4, 3, 0), math.V3(3, 4, 0)), false},
		{"within epsilon", tri(math.V3(0, 0, eps/2), math.V3(2, 0, eps/2), math.V3(0, 2, eps/2)), true},
		{"across the hypotenuse", tri(math.V3(1.5, 1.5, -1), math.V3(1.5, 1.5, 1), math.V3(3, 3, 0)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrianglesOverlap(base, tt.other, eps))
			assert.Equal(t, tt.want, TrianglesOverlap(tt.other, base, eps))
		})
	}
}

func TestClosestPointOnTriangle(t *testing.T) {
	tr := tri(math.V3(0, 0, 0), math.V3(1, 0, 0), math.V3(0, 1, 0))

	tests := []struct {
		name string
		p    math.Vec3
		want math.Vec3
	}{
		{"above face", math.V3(0.2, 0.2, 5), math.V3(0.2, 0.2, 0)},
		{"vertex a", math.V3(-1, -1, 0), math.V3(0, 0, 0)},
		{"vertex b", math.V3(2, -1, 0), math.V3(1, 0, 0)},
		{"vertex c", math.V3(-1, 3, 1), math.V3(0, 1, 0)},
		{"edge ab", math.V3(0.5, -1, 0), math.V3(0.5, 0, 0)},
		{"edge bc", math.V3(1, 1, 0), math.V3(0.5, 0.5, 0)},
		{"edge ca", math.V3(-1, 0.5, 2), math.V3(0, 0.5, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.ClosestPoint(tt.p)
			assert.True(t, tt.want.NearlyEqual(got, eps), "want %v, got %v", tt.want, got)
		})
	}
}

func TestBVHClosestPointMatchesBruteForce(t *testing.T) {
	tris := grid(math.V3(0, 0, 0), 12, 0.5)
	bvh := NewBVH(tris)
	require.Equal(t, len(tris), bvh.Len())

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		p := math.V3(rng.Float32()*8-1, rng.Float32()*8-1, rng.Float32()*4-2)

		want := float32(1e30)
		for _, tr := range tris {
			if d := tr.ClosestPoint(p).Distance(p); d < want {
				want = d
			}
		}

		_, idx, got, ok := bvh.ClosestPoint(p)
		require.True(t, ok)
		assert.InDelta(t, want, got, eps)
		assert.InDelta(t, want, bvh.Triangle(idx).ClosestPoint(p).Distance(p), eps)
	}
}

func TestBVHEmpty(t *testing.T) {
	bvh := NewBVH(nil)
	_, _, _, ok := bvh.ClosestPoint(math.Vec3{})
	assert.False(t, ok)
	assert.True(t, bvh.Bounds().IsEmpty())
	assert.False(t, bvh.Overlaps(NewBVH(grid(math.Vec3{}, 1, 1)), eps))
}

func TestBVHOverlap(t *testing.T) {
	floor := NewBVH(grid(math.V3(0, 0, 0), 8, 1))

	// A vertical wall standing on the floor.
	wall := NewBVH([]Triangle{
		tri(math.V3(3.5, 3.5, 0), math.V3(4.5, 3.5, 0), math.V3(4.5, 3.5, 2)),
		tri(math.V3(3.5, 3.5, 0), math.V3(4.5, 3.5, 2), math.V3(3.5, 3.5, 2)),
	})
	floating := NewBVH(grid(math.V3(0, 0, 1), 8, 1))

	assert.True(t, floor.Overlaps(wall, eps))
	assert.True(t, wall.Overlaps(floor, eps))
	assert.False(t, floor.Overlaps(floating, eps))
	assert.True(t, wall.Overlaps(floating, eps))

	pairs := wall.OverlapPairs(floor, eps)
	require.NotEmpty(t, pairs)
	for _, p := range pairs {
		assert.True(t, TrianglesOverlap(wall.Triangle(p[0]), floor.Triangle(p[1]), eps))
	}
}

func TestKDTree(t *testing.T) {
	points := []math.Vec3{
		math.V3(0, 0, 0),
		math.V3(10, 0, 0),
		math.V3(0, 10, 0),
		math.V3(5, 5, 5),
		math.V3(-3, 0, 1),
	}
	tree := NewKDTree(points)
	assert.Equal(t, 5, tree.Len())

	tests := []struct {
		q    math.Vec3
		want int
	}{
		{math.V3(1, 1, 0), 0},
		{math.V3(9, 1, 0), 1},
		{math.V3(4, 6, 4), 3},
		{math.V3(-5, 0, 0), 4},
	}
	for _, tt := range tests {
		i, d, ok := tree.Nearest(tt.q)
		require.True(t, ok)
		assert.Equal(t, tt.want, i)
		assert.InDelta(t, points[tt.want].Distance(tt.q), d, eps)
	}

	within := tree.Within(math.V3(0, 0, 0), 4)
	assert.ElementsMatch(t, []int{0, 4}, within)

	_, _, ok := NewKDTree(nil).Nearest(math.Vec3{})
	assert.False(t, ok)
}

func TestKDTreeMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	points := make([]math.Vec3, 500)
	for i := range points {
		points[i] = math.V3(rng.Float32()*10, rng.Float32()*10, rng.Float32()*10)
	}
	tree := NewKDTree(points)

	for i := 0; i < 100; i++ {
		q := math.V3(rng.Float32()*12-1, rng.Float32()*12-1, rng.Float32()*12-1)
		best := float32(1e30)
		for _, p := range points {
			if d := p.Distance(q); d < best {
				best = d
			}
		}
		_, d, ok := tree.Nearest(q)
		require.True(t, ok)
		assert.InDelta(t, best, d, 1e-3)
	}
}
