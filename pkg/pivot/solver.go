package pivot

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/pivot-painter/pkg/hierarchy"
	"github.com/Faultbox/pivot-painter/pkg/math"
	"github.com/Faultbox/pivot-painter/pkg/scene"
	"github.com/Faultbox/pivot-painter/pkg/spatial"
)

// Warning is a non-fatal finding about one object.
type Warning struct {
	Object  *scene.Object
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Object.Name, w.Message)
}

// Solution is the computed frame of one object, in world space.
type Solution struct {
	Object *scene.Object
	Pivot  math.Vec3
	// Rotation is the world rotation written to the object; valid when
	// Rotated is set.
	Rotation math.Quat
	Rotated  bool
	// Source names how the pivot was found.
	Source string
}

// Report summarizes a Solve run.
type Report struct {
	Levels    int
	Solutions []Solution
	Warnings  []Warning
}

// Solver computes and bakes pivots and rotations.
type Solver struct {
	opts Options
}

// NewSolver validates opts and returns a solver.
func NewSolver(opts Options) (*Solver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Solver{opts: opts}, nil
}

// Solve processes the MESH objects among objects, strictly root to leaf.
// Every object of a level is computed in parallel against the committed
// state of the levels above, then all of that level is committed before the
// next level is read. The depth limit is checked before anything changes.
func (s *Solver) Solve(ctx context.Context, objects []*scene.Object) (*Report, error) {
	var meshes []*scene.Object
	for _, o := range objects {
		if o.IsMesh() {
			meshes = append(meshes, o)
		}
	}
	levels := scene.Levels(meshes)
	if err := hierarchy.CheckDepth(levels.Depth(), s.opts.MaxDepth); err != nil {
		return nil, err
	}

	report := &Report{Levels: levels.Depth()}
	for _, level := range levels {
		if len(level) == 0 {
			continue
		}
		solutions, warnings, err := s.readLevel(ctx, level)
		if err != nil {
			return report, err
		}
		for _, sol := range solutions {
			commit(sol)
		}
		report.Solutions = append(report.Solutions, solutions...)
		report.Warnings = append(report.Warnings, warnings...)
	}
	return report, nil
}

func commit(sol Solution) {
	sol.Object.SetOriginKeepGeometry(sol.Pivot)
	if sol.Rotated {
		sol.Object.SetRotationKeepGeometry(sol.Rotation)
	}
}

// readLevel computes every solution of one level without writing.
func (s *Solver) readLevel(ctx context.Context, level []*scene.Object) ([]Solution, []Warning, error) {
	limit := s.opts.Workers
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	parents, err := s.parentSurfaces(ctx, level, limit)
	if err != nil {
		return nil, nil, err
	}

	solutions := make([]Solution, len(level))
	warnings := make([][]Warning, len(level))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, o := range level {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			solutions[i], warnings[i] = s.solve(o, parents[o.Parent])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var flat []Warning
	for _, w := range warnings {
		flat = append(flat, w...)
	}
	return solutions, flat, nil
}

// surface is a parent mesh prepared for queries.
type surface struct {
	bvh *spatial.BVH
}

// parentSurfaces builds one BVH per distinct mesh parent of the level.
func (s *Solver) parentSurfaces(ctx context.Context, level []*scene.Object, limit int) (map[*scene.Object]*surface, error) {
	surfaces := make(map[*scene.Object]*surface)
	var parents []*scene.Object
	for _, o := range level {
		if p := o.Parent; p != nil && p.IsMesh() && s.opts.Pivot.Enabled {
			if _, ok := surfaces[p]; !ok {
				surfaces[p] = nil
				parents = append(parents, p)
			}
		}
	}

	built := make([]*surface, len(parents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range parents {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bvh, _ := p.WorldBVH()
			built[i] = &surface{bvh: bvh}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, p := range parents {
		surfaces[p] = built[i]
	}
	return surfaces, nil
}

// solve computes one object's solution. parent is nil for objects without a
// mesh parent.
func (s *Solver) solve(o *scene.Object, parent *surface) (Solution, []Warning) {
	sol := Solution{Object: o}
	var warnings []Warning

	switch {
	case !s.opts.Pivot.Enabled:
		sol.Pivot, sol.Source = o.WorldLocation(), "unchanged"
	case parent != nil:
		sol.Pivot, sol.Source = s.parentPivot(o, parent)
	default:
		sol.Pivot, sol.Source = s.parentlessPivot(o)
	}

	if s.opts.Rotation.Enabled {
		q, ok, w := s.rotation(o, sol.Pivot)
		sol.Rotation, sol.Rotated = q, ok
		warnings = append(warnings, w...)
	}
	return sol, warnings
}

// parentPivot finds where o meets its parent.
func (s *Solver) parentPivot(o *scene.Object, parent *surface) (math.Vec3, string) {
	opts := s.opts.Pivot
	world := o.WorldMatrix()

	if opts.ItemType == ItemOverlap {
		bvh, faceOf := o.WorldBVH()
		pairs := bvh.OverlapPairs(parent.bvh, opts.Epsilon)
		if len(pairs) > 0 {
			centers := o.FaceCenters()
			var sum math.Vec3
			for _, p := range pairs {
				sum = sum.Add(world.TransformPoint(centers[faceOf[p[0]]]))
			}
			return sum.Scale(1 / float32(len(pairs))), "overlap"
		}
	}

	local := o.Vertices
	source := "vertex"
	if opts.ItemType == ItemFace {
		local, source = o.FaceCenters(), "face"
	}
	if len(local) == 0 || parent.bvh.Len() == 0 {
		return world.Translation(), "unchanged"
	}

	items := make([]math.Vec3, len(local))
	dists := make([]float32, len(local))
	for i, p := range local {
		items[i] = world.TransformPoint(p)
		_, _, dists[i], _ = parent.bvh.ClosestPoint(items[i])
	}

	lo, _ := minMax(dists)
	if opts.Calculation == Closest {
		for i, d := range dists {
			if d == lo {
				return items[i], source
			}
		}
	}
	return meanOf(items, Band(dists, lo, opts.MaxDistance)), source
}

// parentlessPivot places the pivot of a root object.
func (s *Solver) parentlessPivot(o *scene.Object) (math.Vec3, string) {
	opts := s.opts.Pivot
	if opts.Parentless == ParentlessOrigin {
		return math.Vec3{}, "origin"
	}

	verts := o.WorldVertices()
	if len(verts) == 0 {
		return o.WorldLocation(), "unchanged"
	}

	axis, negative, _ := opts.Axis.index()
	values := make([]float32, len(verts))
	for i, v := range verts {
		values[i] = v.Axis(axis)
	}
	lo, hi := minMax(values)
	extreme := hi
	if negative {
		extreme = lo
	}
	return meanOf(verts, Band(values, extreme, opts.MaxAxisDifference)), string(opts.Axis)
}

// rotation returns the world rotation whose +X points from pivot to the mean
// of the furthest samples.
func (s *Solver) rotation(o *scene.Object, pivot math.Vec3) (math.Quat, bool, []Warning) {
	opts := s.opts.Rotation
	world := o.WorldMatrix()
	var warnings []Warning

	var samples []math.Vec3
	if opts.ItemType == ItemBoundBox {
		switch {
		case !math.QuatFromMat4(world).IsIdentity(1e-5):
			warnings = append(warnings, Warning{Object: o, Message: "bounding box axis estimated on a rotated object"})
		case o.BoundCenter().NearlyEqual(math.Vec3{}, 1e-5):
			warnings = append(warnings, Warning{Object: o, Message: "bounding box is centered on the origin; the origin may not have been placed"})
		}
		for _, c := range o.BoundBox() {
			samples = append(samples, world.TransformPoint(c))
		}
	} else {
		samples = o.WorldVertices()
	}
	if len(samples) == 0 {
		return math.Quat{}, false, warnings
	}

	dists := make([]float32, len(samples))
	for i, p := range samples {
		dists[i] = p.Distance(pivot)
	}
	_, hi := minMax(dists)
	tip := meanOf(samples, Band(dists, hi, opts.MaxDistance))

	dir := tip.Sub(pivot)
	if dir.Length() < 1e-6 {
		warnings = append(warnings, Warning{Object: o, Message: "furthest points average onto the pivot; rotation left unchanged"})
		return math.Quat{}, false, warnings
	}
	return math.QuatTrackX(dir), true, warnings
}
