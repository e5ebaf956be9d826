package hierarchy

import (
	"context"
	"fmt"

	"github.com/Faultbox/pivot-painter/pkg/scene"
)

// Options configures inference.
type Options struct {
	// Epsilon is the overlap tolerance in scene units.
	Epsilon float32
	// MaxDepth is the level limit; 0 disables the check.
	MaxDepth int
	// Workers bounds parallel BVH work; 0 uses GOMAXPROCS.
	Workers int
}

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{
		Epsilon:  1e-4,
		MaxDepth: DefaultMaxDepth,
	}
}

// Assignment is a proposed parent link.
type Assignment struct {
	Child  *scene.Object
	Parent *scene.Object
}

// Ambiguity records a child that also touched other objects placed no deeper
// than its chosen parent. The first placed object in iteration order won.
type Ambiguity struct {
	Child      *scene.Object
	Parent     *scene.Object
	Candidates []*scene.Object
}

// Result is the outcome of an inference run. Nothing in the scene is changed
// until Apply is called.
type Result struct {
	Assignments []Assignment
	// Layers holds level 0 (the bases) and every level below it.
	Layers [][]*scene.Object
	// Unassigned lists leaves no base reaches.
	Unassigned  []*scene.Object
	Ambiguities []Ambiguity
}

// Depth returns the number of levels.
func (r *Result) Depth() int {
	return len(r.Layers)
}

// SceneDepth returns the number of levels the scene would have under the
// bases once the result is applied, counting the ancestors the bases
// already have.
func (r *Result) SceneDepth() int {
	if len(r.Layers) == 0 {
		return 0
	}
	levels := make(map[*scene.Object]int, len(r.Layers[0])+len(r.Assignments))
	deepest := 0
	for _, b := range r.Layers[0] {
		levels[b] = b.AncestorCount() + 1
		deepest = max(deepest, levels[b])
	}
	// Assignments are in layer order, so a parent is always seen first.
	for _, a := range r.Assignments {
		levels[a.Child] = levels[a.Parent] + 1
		deepest = max(deepest, levels[a.Child])
	}
	return deepest
}

// Apply links every assigned child to its parent, keeping world transforms.
func (r *Result) Apply() error {
	for _, a := range r.Assignments {
		if err := a.Child.SetParent(a.Parent); err != nil {
			return fmt.Errorf("parenting %q to %q: %w", a.Child.Name, a.Parent.Name, err)
		}
	}
	return nil
}

// candidates checks the inputs and returns bases followed by leaves, with
// bases removed from the leaves.
func candidates(bases, leaves []*scene.Object) ([]*scene.Object, error) {
	if len(bases) == 0 {
		return nil, ErrNoBases
	}

	seen := make(map[*scene.Object]bool, len(bases)+len(leaves))
	all := make([]*scene.Object, 0, len(bases)+len(leaves))
	for _, b := range bases {
		if !b.IsMesh() {
			return nil, fmt.Errorf("%w: %q", ErrNotMesh, b.Name)
		}
		if seen[b] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, b.Name)
		}
		seen[b] = true
		all = append(all, b)
	}
	for _, l := range leaves {
		if seen[l] || !l.IsMesh() || ancestorOfAny(l, bases) {
			continue
		}
		seen[l] = true
		all = append(all, l)
	}
	if len(all) == len(bases) {
		return nil, ErrNoLeaves
	}
	return all, nil
}

// ancestorOfAny reports whether o is above one of the bases.
func ancestorOfAny(o *scene.Object, bases []*scene.Object) bool {
	for _, b := range bases {
		if o.IsAncestorOf(b) {
			return true
		}
	}
	return false
}

// Infer builds a forest under the bases by breadth-first layering over the
// overlap graph. Each leaf becomes the child of the first already placed
// object that reaches it; every resolved edge is removed so no link is made
// twice. Leaves above a base are left out. A result whose SceneDepth exceeds
// opts.MaxDepth is returned together with a DepthExceededError.
func Infer(ctx context.Context, bases, leaves []*scene.Object, opts Options) (*Result, error) {
	all, err := candidates(bases, leaves)
	if err != nil {
		return nil, err
	}

	g, err := BuildGraph(ctx, all, opts.Epsilon, opts.Workers)
	if err != nil {
		return nil, err
	}

	res := Layer(g, len(bases))
	return res, CheckDepth(res.SceneDepth(), opts.MaxDepth)
}

// Layer runs the breadth-first layering on a built graph whose first nBases
// nodes are the bases. The graph is consumed.
func Layer(g *Graph, nBases int) *Result {
	objects := g.Objects()
	level := make([]int, len(objects))
	parent := make([]int, len(objects))
	for i := range level {
		level[i], parent[i] = -1, -1
	}

	current := make([]int, nBases)
	for i := range current {
		current[i] = i
		level[i] = 0
	}

	res := &Result{}
	for depth := 0; len(current) > 0; depth++ {
		layer := make([]*scene.Object, len(current))
		for k, i := range current {
			layer[k] = objects[i]
		}
		res.Layers = append(res.Layers, layer)

		var next []int
		for _, p := range current {
			for _, n := range g.Neighbors(p) {
				g.RemoveEdge(p, n)
				if level[n] >= 0 {
					continue
				}
				level[n] = depth + 1
				parent[n] = p
				next = append(next, n)
				res.Assignments = append(res.Assignments, Assignment{Child: objects[n], Parent: objects[p]})
			}
		}
		current = next
	}

	for i := nBases; i < len(objects); i++ {
		if level[i] < 0 {
			res.Unassigned = append(res.Unassigned, objects[i])
			continue
		}
		var others []*scene.Object
		for _, m := range g.Touching(i) {
			if m != parent[i] && level[m] >= 0 && level[m] < level[i] {
				others = append(others, objects[m])
			}
		}
		if len(others) > 0 {
			res.Ambiguities = append(res.Ambiguities, Ambiguity{
				Child:      objects[i],
				Parent:     objects[parent[i]],
				Candidates: others,
			})
		}
	}
	return res
}
