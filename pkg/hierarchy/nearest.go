package hierarchy

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/pivot-painter/pkg/math"
	"github.com/Faultbox/pivot-painter/pkg/scene"
	"github.com/Faultbox/pivot-painter/pkg/spatial"
)

// NearestBase assigns every leaf to the base mesh holding the vertex nearest
// to any of the leaf's vertices. It ignores overlap entirely, so every leaf
// with geometry gets a parent. Ties go to the earlier base.
func NearestBase(ctx context.Context, bases, leaves []*scene.Object, opts Options) (*Result, error) {
	all, err := candidates(bases, leaves)
	if err != nil {
		return nil, err
	}
	leaves = all[len(bases):]

	trees := make([]*spatial.KDTree, len(bases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers(opts.Workers))
	for i, b := range bases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			trees[i] = spatial.NewKDTree(b.WorldVertices())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	choice := make([]int, len(leaves))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers(opts.Workers))
	for li, leaf := range leaves {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			choice[li] = nearestTree(trees, leaf.WorldVertices())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Layers: [][]*scene.Object{bases}}
	var children []*scene.Object
	for li, leaf := range leaves {
		if choice[li] < 0 {
			res.Unassigned = append(res.Unassigned, leaf)
			continue
		}
		children = append(children, leaf)
		res.Assignments = append(res.Assignments, Assignment{Child: leaf, Parent: bases[choice[li]]})
	}
	if len(children) > 0 {
		res.Layers = append(res.Layers, children)
	}
	return res, CheckDepth(res.SceneDepth(), opts.MaxDepth)
}

// nearestTree returns the tree with the smallest distance to any point, or
// -1 when there are no points or no indexed vertices.
func nearestTree(trees []*spatial.KDTree, points []math.Vec3) int {
	best, bestDist := -1, float32(0)
	for ti, t := range trees {
		for _, p := range points {
			_, d, ok := t.Nearest(p)
			if !ok {
				break
			}
			if best < 0 || d < bestDist {
				best, bestDist = ti, d
			}
		}
	}
	return best
}
