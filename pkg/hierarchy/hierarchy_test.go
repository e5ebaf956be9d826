package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/pivot-painter/pkg/math"
	"github.com/Faultbox/pivot-painter/pkg/scene"
)

func cube(name string, center math.Vec3, half float32) *scene.Object {
	var verts []math.Vec3
	for _, x := range []float32{-half, half} {
		for _, y := range []float32{-half, half} {
			for _, z := range []float32{-half, half} {
				verts = append(verts, center.Add(math.V3(x, y, z)))
			}
		}
	}
	faces := []scene.Face{
		{0, 1, 3, 2}, {4, 6, 7, 5}, {0, 4, 5, 1},
		{2, 3, 7, 6}, {0, 2, 6, 4}, {1, 5, 7, 3},
	}
	return scene.NewMesh(name, verts, faces)
}

// chain returns n cubes along X where each overlaps only its neighbours.
func chain(n int) []*scene.Object {
	objs := make([]*scene.Object, n)
	for i := range objs {
		objs[i] = cube(fmt.Sprintf("c%d", i), math.V3(float32(i)*1.5, 0, 0), 1)
	}
	return objs
}

func TestGraphEdges(t *testing.T) {
	g := NewGraph(chain(4))
	g.AddEdge(0, 2)
	g.AddEdge(2, 0)
	g.AddEdge(0, 1)
	g.AddEdge(3, 3)

	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []int{1, 2}, g.Neighbors(0))

	g.RemoveEdge(2, 0)
	assert.False(t, g.HasEdge(0, 2))
	assert.Equal(t, []int{1}, g.Neighbors(0))
	assert.Equal(t, []int{1, 2}, g.Touching(0))
	assert.Empty(t, g.Neighbors(3))
}

func TestBuildGraph(t *testing.T) {
	objs := chain(4)
	objs = append(objs, cube("far", math.V3(100, 0, 0), 1))

	g, err := BuildGraph(context.Background(), objs, 1e-4, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, []int{0, 2}, g.Neighbors(1))
	assert.Empty(t, g.Neighbors(4))
}

func TestBuildGraphCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildGraph(ctx, chain(3), 1e-4, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInferChain(t *testing.T) {
	objs := chain(4)

	res, err := Infer(context.Background(), objs[:1], objs[1:], DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Depth())
	require.Len(t, res.Assignments, 3)
	for i, a := range res.Assignments {
		assert.Same(t, objs[i+1], a.Child)
		assert.Same(t, objs[i], a.Parent)
	}
	assert.Empty(t, res.Unassigned)
	assert.Empty(t, res.Ambiguities)

	// Nothing changes before Apply.
	assert.Nil(t, objs[1].Parent)
	before := objs[3].WorldVertices()
	require.NoError(t, res.Apply())
	assert.Same(t, objs[2], objs[3].Parent)
	assert.Equal(t, 3, objs[3].AncestorCount())
	for i, v := range objs[3].WorldVertices() {
		assert.True(t, before[i].NearlyEqual(v, 1e-4))
	}
}

func TestInferDepthExceeded(t *testing.T) {
	objs := chain(5)

	res, err := Infer(context.Background(), objs[:1], objs[1:], DefaultOptions())

	var depthErr *DepthExceededError
	require.True(t, errors.As(err, &depthErr), "got %v", err)
	assert.Equal(t, 5, depthErr.Depth)
	assert.Equal(t, DefaultMaxDepth, depthErr.Max)
	assert.ErrorIs(t, err, ErrDepthLimit)

	require.NotNil(t, res, "over-deep result is still returned")
	assert.Equal(t, 5, res.Depth())
}

func TestInferStarAndLeftovers(t *testing.T) {
	root := cube("root", math.V3(0, 0, 0), 2)
	a := cube("a", math.V3(2, 0, 0), 0.5)
	b := cube("b", math.V3(-2, 0, 0), 0.5)
	c := cube("c", math.V3(0, 2, 0), 0.5)
	far := cube("far", math.V3(50, 0, 0), 0.5)

	res, err := Infer(context.Background(), []*scene.Object{root}, []*scene.Object{root, a, b, c, far}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Depth())
	require.Len(t, res.Assignments, 3)
	for _, as := range res.Assignments {
		assert.Same(t, root, as.Parent)
	}
	assert.Equal(t, []*scene.Object{far}, res.Unassigned)
}

func TestInferAmbiguity(t *testing.T) {
	left := cube("left", math.V3(-1.5, 0, 0), 1)
	right := cube("right", math.V3(1.5, 0, 0), 1)
	bridge := cube("bridge", math.V3(0, 0, 0), 1)

	res, err := Infer(context.Background(), []*scene.Object{left, right}, []*scene.Object{bridge}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Assignments, 1)
	assert.Same(t, left, res.Assignments[0].Parent)
	require.Len(t, res.Ambiguities, 1)
	assert.Same(t, bridge, res.Ambiguities[0].Child)
	assert.Equal(t, []*scene.Object{right}, res.Ambiguities[0].Candidates)
}

func TestInferInputErrors(t *testing.T) {
	objs := chain(2)
	empty := scene.NewObject("empty", scene.TypeEmpty)

	tests := []struct {
		name   string
		bases  []*scene.Object
		leaves []*scene.Object
		want   error
	}{
		{"no bases", nil, objs, ErrNoBases},
		{"only bases", objs, objs, ErrNoLeaves},
		{"empty base", []*scene.Object{empty}, objs, ErrNotMesh},
		{"repeated base", []*scene.Object{objs[0], objs[0]}, objs[1:], ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Infer(context.Background(), tt.bases, tt.leaves, DefaultOptions())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// bfsDistances computes reference distances from nodes [0, nBases).
func bfsDistances(g *Graph, nBases int) []int {
	dist := make([]int, len(g.Objects()))
	for i := range dist {
		dist[i] = -1
	}
	queue := make([]int, 0, len(dist))
	for i := 0; i < nBases; i++ {
		dist[i] = 0
		queue = append(queue, i)
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, m := range g.Touching(n) {
			if dist[m] < 0 {
				dist[m] = dist[n] + 1
				queue = append(queue, m)
			}
		}
	}
	return dist
}

func TestLayerDepthEqualsBFSDistance(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.IntN(40)
		objs := make([]*scene.Object, n)
		for i := range objs {
			objs[i] = scene.NewObject(fmt.Sprintf("o%d", i), scene.TypeMesh)
		}
		g := NewGraph(objs)
		edges := rng.IntN(2 * n)
		for e := 0; e < edges; e++ {
			g.AddEdge(rng.IntN(n), rng.IntN(n))
		}
		nBases := 1 + rng.IntN(2)
		want := bfsDistances(g, nBases)

		res := Layer(g, nBases)

		got := make(map[*scene.Object]int)
		for depth, layer := range res.Layers {
			for _, o := range layer {
				got[o] = depth
			}
		}
		for i, o := range objs {
			if want[i] < 0 {
				assert.Contains(t, res.Unassigned, o)
				continue
			}
			assert.Equal(t, want[i], got[o], "trial %d object %d", trial, i)
		}
		assert.Zero(t, g.EdgeCount()-countUnreachableEdges(g, want), "trial %d", trial)
	}
}

// countUnreachableEdges counts live edges whose endpoints were never placed.
func countUnreachableEdges(g *Graph, dist []int) int {
	n := 0
	for i := range g.Objects() {
		for _, j := range g.Neighbors(i) {
			if i < j && dist[i] < 0 {
				n++
			}
		}
	}
	return n
}

func TestNearestBase(t *testing.T) {
	left := cube("left", math.V3(-10, 0, 0), 1)
	right := cube("right", math.V3(10, 0, 0), 1)
	a := cube("a", math.V3(-5, 0, 0), 0.5)
	b := cube("b", math.V3(7, 3, 0), 0.5)
	empty := scene.NewMesh("nothing", nil, nil)

	res, err := NearestBase(context.Background(), []*scene.Object{left, right}, []*scene.Object{a, b, empty}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Assignments, 2)
	assert.Same(t, left, res.Assignments[0].Parent)
	assert.Same(t, right, res.Assignments[1].Parent)
	assert.Equal(t, []*scene.Object{empty}, res.Unassigned)
	assert.Equal(t, 2, res.Depth())
}

func TestCheckDepth(t *testing.T) {
	assert.NoError(t, CheckDepth(4, 4))
	assert.NoError(t, CheckDepth(9, 0))
	assert.EqualError(t, CheckDepth(5, 4), "hierarchy depth 5 exceeds the limit of 4 levels")
}

func TestInferCountsBaseAncestors(t *testing.T) {
	top := cube("top", math.V3(0, 0, 50), 1)
	objs := chain(4)
	require.NoError(t, objs[0].SetParent(top))

	res, err := Infer(context.Background(), objs[:1], objs[1:], DefaultOptions())

	var depthErr *DepthExceededError
	require.True(t, errors.As(err, &depthErr), "got %v", err)
	assert.Equal(t, 5, depthErr.Depth)
	require.NotNil(t, res)
	assert.Equal(t, 4, res.Depth())
	assert.Equal(t, 5, res.SceneDepth())
	assert.Nil(t, objs[1].Parent, "nothing is applied")

	res, err = NearestBase(context.Background(), objs[:1], objs[1:2], DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3, res.SceneDepth())
}

func TestInferSkipsAncestorsOfBases(t *testing.T) {
	objs := chain(3)
	require.NoError(t, objs[1].SetParent(objs[0]))

	res, err := Infer(context.Background(), objs[1:2], []*scene.Object{objs[0], objs[2]}, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Assignments, 1)
	assert.Same(t, objs[2], res.Assignments[0].Child)
	assert.Empty(t, res.Unassigned)
	require.NoError(t, res.Apply())
	assert.Nil(t, objs[0].Parent)
}
