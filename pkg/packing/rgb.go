package packing

import (
	"github.com/Faultbox/pivot-painter/pkg/math"
	"github.com/Faultbox/pivot-painter/pkg/scene"
)

// pivotPoint is the world-space origin of the object.
type pivotPoint struct{}

func (pivotPoint) Channels() int { return 3 }
func (pivotPoint) Supports(hdr bool) bool { return hdr }

func (pivotPoint) Process(_ *Env, o *scene.Object) []float32 {
	l := Location(o.WorldLocation())
	return l[:]
}

// relativePivot is the origin relative to the parent's origin. Objects
// without a parent report their world origin.
type relativePivot struct{}

func (relativePivot) Channels() int { return 3 }
func (relativePivot) Supports(hdr bool) bool { return hdr }

func (relativePivot) Process(_ *Env, o *scene.Object) []float32 {
	p := o.WorldLocation()
	if o.Parent != nil {
		p = p.Sub(o.Parent.WorldLocation())
	}
	l := Location(p)
	return l[:]
}

// originPosition is the world-space center of the bounding box.
type originPosition struct{}

func (originPosition) Channels() int { return 3 }
func (originPosition) Supports(hdr bool) bool { return hdr }

func (originPosition) Process(_ *Env, o *scene.Object) []float32 {
	center := o.BoundCenter().Mul(o.WorldScale())
	center = o.WorldRotation().Rotate(center).Add(o.WorldLocation())
	l := Location(center)
	return l[:]
}

// originExtents is the object dimensions on every local axis.
type originExtents struct{}

func (originExtents) Channels() int { return 3 }
func (originExtents) Supports(hdr bool) bool { return supportBoth.Supports(hdr) }

func (originExtents) Process(env *Env, o *scene.Object) []float32 {
	d := o.Dimensions()
	return []float32{length(env, d.X), length(env, d.Y), length(env, d.Z)}
}

// axis is one local axis of the object in world space.
type axis struct {
	local math.Vec3
}

func (axis) Channels() int { return 3 }
func (axis) Supports(hdr bool) bool { return supportBoth.Supports(hdr) }

func (a axis) Process(env *Env, o *scene.Object) []float32 {
	d := Direction(o.WorldRotation().Rotate(a.local).Normalize())
	if !env.HDR {
		for i := range d {
			d[i] = Compact(d[i])
		}
	}
	return d[:]
}

// quaternion is the world rotation as RGBA.
type quaternion struct{}

func (quaternion) Channels() int { return 4 }
func (quaternion) Supports(hdr bool) bool { return supportBoth.Supports(hdr) }

func (quaternion) Process(env *Env, o *scene.Object) []float32 {
	q := Rotation(o.WorldRotation())
	if !env.HDR {
		for i := range q {
			q[i] = Compact(q[i])
		}
	}
	return q[:]
}

// composite fills one channel from each single-channel part.
type composite struct {
	parts []Packer
}

func newComposite(parts ...Packer) *composite {
	return &composite{parts: parts}
}

func (c *composite) Channels() int { return len(c.parts) }

func (c *composite) Supports(hdr bool) bool {
	for _, p := range c.parts {
		if !p.Supports(hdr) {
			return false
		}
	}
	return true
}

func (c *composite) Process(env *Env, o *scene.Object) []float32 {
	out := make([]float32, 0, len(c.parts))
	for _, p := range c.parts {
		out = append(out, p.Process(env, o)...)
	}
	return out
}

func (c *composite) needsNormalize() bool {
	for _, p := range c.parts {
		if needsNormalize(p) {
			return true
		}
	}
	return false
}

// Normalize hands each part its own channel.
func (c *composite) Normalize(env *Env, values [][]float32) {
	for ch, p := range c.parts {
		n, ok := p.(Normalizer)
		if !ok {
			continue
		}
		column := make([][]float32, len(values))
		for i, v := range values {
			column[i] = v[ch : ch+1]
		}
		n.Normalize(env, column)
	}
}
