// Package hierarchy infers parent/child links between static meshes from
// their spatial overlap.
package hierarchy

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/pivot-painter/pkg/scene"
	"github.com/Faultbox/pivot-painter/pkg/spatial"
)

// Graph is an undirected overlap graph. Node i is Objects()[i]. Edges can be
// removed while the original adjacency stays readable through Touching.
type Graph struct {
	objects []*scene.Object
	adj     [][]int
	alive   map[edge]struct{}
}

type edge struct{ a, b int }

func newEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// NewGraph returns a graph with no edges.
func NewGraph(objects []*scene.Object) *Graph {
	return &Graph{
		objects: objects,
		adj:     make([][]int, len(objects)),
		alive:   make(map[edge]struct{}),
	}
}

// AddEdge links nodes a and b. Self loops and repeats are ignored.
func (g *Graph) AddEdge(a, b int) {
	if a == b {
		return
	}
	e := newEdge(a, b)
	if _, ok := g.alive[e]; ok {
		return
	}
	g.alive[e] = struct{}{}
	g.adj[a] = insertSorted(g.adj[a], b)
	g.adj[b] = insertSorted(g.adj[b], a)
}

func insertSorted(s []int, v int) []int {
	i, found := slices.BinarySearch(s, v)
	if found {
		return s
	}
	return slices.Insert(s, i, v)
}

// RemoveEdge drops the edge between a and b.
func (g *Graph) RemoveEdge(a, b int) {
	delete(g.alive, newEdge(a, b))
}

// HasEdge reports whether a and b are still linked.
func (g *Graph) HasEdge(a, b int) bool {
	_, ok := g.alive[newEdge(a, b)]
	return ok
}

// Neighbors returns the nodes still linked to i, in ascending order.
func (g *Graph) Neighbors(i int) []int {
	var out []int
	for _, j := range g.adj[i] {
		if g.HasEdge(i, j) {
			out = append(out, j)
		}
	}
	return out
}

// Touching returns every node that overlapped i when the graph was built,
// ignoring removals.
func (g *Graph) Touching(i int) []int {
	return g.adj[i]
}

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int {
	return len(g.alive)
}

// Objects returns the graph nodes.
func (g *Graph) Objects() []*scene.Object {
	return g.objects
}

func workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// BuildGraph builds one world-space BVH per object and links every pair of
// objects whose surfaces overlap within eps. BVH construction and pair tests
// run on up to workerCount goroutines; objects are only read.
func BuildGraph(ctx context.Context, objects []*scene.Object, eps float32, workerCount int) (*Graph, error) {
	bvhs := make([]*spatial.BVH, len(objects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(workerCount))
	for i, o := range objects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bvhs[i], _ = o.WorldBVH()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := broadPhase(bvhs, eps)
	hits := make([][]int, len(objects))

	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers(workerCount))
	for i, others := range candidates {
		g.Go(func() error {
			for _, j := range others {
				if err := gctx.Err(); err != nil {
					return err
				}
				if bvhs[i].Overlaps(bvhs[j], eps) {
					hits[i] = append(hits[i], j)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	graph := NewGraph(objects)
	for i, js := range hits {
		for _, j := range js {
			graph.AddEdge(i, j)
		}
	}
	return graph, nil
}

// broadPhase returns, for each i, the j > i whose padded bounds overlap,
// using a sweep along X.
func broadPhase(bvhs []*spatial.BVH, eps float32) [][]int {
	bounds := make([]spatial.AABB, len(bvhs))
	order := make([]int, 0, len(bvhs))
	for i, b := range bvhs {
		bounds[i] = b.Bounds().Grow(eps)
		if !bounds[i].IsEmpty() {
			order = append(order, i)
		}
	}
	slices.SortFunc(order, func(a, b int) int {
		switch {
		case bounds[a].Min.X < bounds[b].Min.X:
			return -1
		case bounds[a].Min.X > bounds[b].Min.X:
			return 1
		default:
			return a - b
		}
	})

	out := make([][]int, len(bvhs))
	for k, i := range order {
		for _, j := range order[k+1:] {
			if bounds[j].Min.X > bounds[i].Max.X {
				break
			}
			if !bounds[i].Overlaps(bounds[j]) {
				continue
			}
			lo, hi := min(i, j), max(i, j)
			out[lo] = append(out[lo], hi)
		}
	}
	return out
}
