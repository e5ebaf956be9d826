package packing

import (
	"github.com/Faultbox/pivot-painter/pkg/bitpack"
	"github.com/Faultbox/pivot-painter/pkg/math"
	"github.com/Faultbox/pivot-painter/pkg/scene"
)

// parentIndex stores the selection index of the parent, or of the object
// itself when the parent is not selected. Integer identity does not survive
// 8-bit quantization, so it is HDR only.
type parentIndex struct{}

func (parentIndex) Channels() int { return 1 }
func (parentIndex) Supports(hdr bool) bool { return hdr }

func (parentIndex) Process(env *Env, o *scene.Object) []float32 {
	i, _ := env.Selection.IndexOf(o)
	if o.Parent != nil {
		if p, ok := env.Selection.IndexOf(o.Parent); ok {
			i = p
		}
	}
	return []float32{bitpack.MustEncode(i)}
}

// depth is the number of MESH ancestors.
type depth struct{}

func (depth) Channels() int { return 1 }
func (depth) Supports(hdr bool) bool { return supportBoth.Supports(hdr) }

func (depth) Process(_ *Env, o *scene.Object) []float32 {
	return []float32{float32(o.MeshDepth())}
}

// normalizedDepth divides depth by the deepest object of the selection.
type normalizedDepth struct{ depth }

func (normalizedDepth) Normalize(_ *Env, values [][]float32) {
	var deepest float32
	for _, v := range values {
		deepest = max(deepest, v[0])
	}
	if deepest == 0 {
		return
	}
	for _, v := range values {
		v[0] /= deepest
	}
}

// random draws one value in [0, 1) per object.
type random struct{}

func (random) Channels() int { return 1 }
func (random) Supports(hdr bool) bool { return supportBoth.Supports(hdr) }

func (random) Process(env *Env, _ *scene.Object) []float32 {
	return []float32{env.Rand.Float32()}
}

// diameter is the length of the bounding box diagonal, corner 0 to corner 6.
type diameter struct {
	scaled bool
}

func (diameter) Channels() int { return 1 }
func (diameter) Supports(hdr bool) bool { return supportBoth.Supports(hdr) }

func (d diameter) Process(env *Env, o *scene.Object) []float32 {
	box := o.BoundBox()
	scale := math.V3(1, 1, 1)
	if d.scaled {
		scale = o.WorldScale()
	}
	diagonal := box[0].Mul(scale).Distance(box[6].Mul(scale))
	return []float32{length(env, diagonal)}
}

// selectionOrder stores the SelectionOrder tag. Validation guarantees every
// object carries it.
type selectionOrder struct{}

func (selectionOrder) Channels() int { return 1 }
func (selectionOrder) Supports(hdr bool) bool { return hdr }

func (selectionOrder) Process(_ *Env, o *scene.Object) []float32 {
	order, _ := o.Tag(scene.SelectionOrderTag)
	return []float32{bitpack.MustEncode(order)}
}

// extent is the object dimension along one local axis.
type extent struct {
	axis int
}

func (extent) Channels() int { return 1 }
func (extent) Supports(hdr bool) bool { return supportBoth.Supports(hdr) }

func (e extent) Process(env *Env, o *scene.Object) []float32 {
	return []float32{length(env, o.Dimensions().Axis(e.axis))}
}

// constant fills its channels with zero.
type constant struct {
	channels int
}

func (c constant) Channels() int { return c.channels }
func (constant) Supports(bool) bool { return true }
func (c constant) Process(*Env, *scene.Object) []float32 {
	return make([]float32, c.channels)
}
