package meshops

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/pivot-painter/pkg/math"
	"github.com/Faultbox/pivot-painter/pkg/scene"
	"github.com/Faultbox/pivot-painter/pkg/spatial"
)

// Errors returned by CopyUVs.
var (
	ErrNotMesh          = errors.New("meshops: object is not a mesh")
	ErrMissingUVLayer   = errors.New("meshops: source has no such UV layer")
	ErrInvalidPrecision = errors.New("meshops: precision must be between 1 and 9")
)

// CopyOptions configures CopyUVs.
type CopyOptions struct {
	// Layer is the UV layer read from the sources and written on the target.
	Layer string `yaml:"layer"`
	// Precision is the number of decimals positions are rounded to before
	// they are compared.
	Precision int `yaml:"precision"`
	// Retry matches leftover loops again at 10^-(Precision-1),
	// 10^-(Precision-2), ... down to 0.1.
	Retry bool `yaml:"retry"`
}

// CopyResult counts the target loops by outcome.
type CopyResult struct {
	Matched   int
	Retried   int
	Unmatched int
}

// OK reports whether every loop received a UV.
func (r CopyResult) OK() bool {
	return r.Unmatched == 0
}

type positionKey [3]int64

// CopyUVs writes onto every face corner of target the UV of the source face
// corner at the same world position. Unmatched corners keep their UV.
func CopyUVs(sources []*scene.Object, target *scene.Object, opts CopyOptions) (CopyResult, error) {
	if opts.Precision < 1 || opts.Precision > 9 {
		return CopyResult{}, fmt.Errorf("%w: %d", ErrInvalidPrecision, opts.Precision)
	}
	if !target.IsMesh() {
		return CopyResult{}, fmt.Errorf("%w: %q", ErrNotMesh, target.Name)
	}

	scale := gomath.Pow10(opts.Precision)
	key := func(v math.Vec3) positionKey {
		return positionKey{
			int64(gomath.Round(float64(v.X) * scale)),
			int64(gomath.Round(float64(v.Y) * scale)),
			int64(gomath.Round(float64(v.Z) * scale)),
		}
	}

	// Later corners at the same position overwrite earlier ones.
	lookup := make(map[positionKey]int)
	var (
		points []math.Vec3
		uvs    []math.Vec2
	)
	for _, src := range sources {
		if !src.IsMesh() {
			return CopyResult{}, fmt.Errorf("%w: %q", ErrNotMesh, src.Name)
		}
		layer := src.UVLayer(opts.Layer)
		if layer == nil {
			return CopyResult{}, fmt.Errorf("%w: %q on %q", ErrMissingUVLayer, opts.Layer, src.Name)
		}
		world := src.WorldVertices()
		for loop, v := range src.LoopVertices() {
			if loop >= len(layer.UVs) {
				break
			}
			k := key(world[v])
			if i, ok := lookup[k]; ok {
				uvs[i] = layer.UVs[loop]
				continue
			}
			lookup[k] = len(points)
			points = append(points, world[v])
			uvs = append(uvs, layer.UVs[loop])
		}
	}

	var result CopyResult
	out := target.EnsureUVLayer(opts.Layer)
	world := target.WorldVertices()
	var pending []int
	positions := make([]math.Vec3, 0, target.LoopCount())
	for loop, v := range target.LoopVertices() {
		positions = append(positions, world[v])
		if i, ok := lookup[key(world[v])]; ok {
			out.UVs[loop] = uvs[i]
			result.Matched++
			continue
		}
		pending = append(pending, loop)
	}

	if opts.Retry && len(pending) > 0 && len(points) > 0 {
		tree := spatial.NewKDTree(points)
		for decimals := opts.Precision - 1; decimals >= 1 && len(pending) > 0; decimals-- {
			tol := float32(gomath.Pow10(-decimals))
			var left []int
			for _, loop := range pending {
				if src, ok := nearWithin(tree, points, positions[loop], tol); ok {
					out.UVs[loop] = uvs[src]
					result.Retried++
					continue
				}
				left = append(left, loop)
			}
			pending = left
		}
	}
	result.Unmatched = len(pending)
	return result, nil
}

// nearWithin returns the nearest indexed point whose coordinates all lie
// within tol of q.
func nearWithin(tree *spatial.KDTree, points []math.Vec3, q math.Vec3, tol float32) (int, bool) {
	for _, i := range tree.Within(q, tol*float32(gomath.Sqrt(3))) {
		if points[i].NearlyEqual(q, tol) {
			return i, true
		}
	}
	return 0, false
}
