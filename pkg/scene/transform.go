package scene

import (
	"errors"

	"github.com/Faultbox/pivot-painter/pkg/math"
)

// ErrParentCycle is returned when a parent assignment would create a loop.
var ErrParentCycle = errors.New("scene: parent assignment creates a cycle")

// setWorldMatrix makes m the object's world matrix without touching children
// or geometry. m must be a translation-rotation-scale matrix without shear.
func (o *Object) setWorldMatrix(m math.Mat4) {
	if o.Parent != nil {
		o.ParentInverse = o.Parent.WorldMatrix().Inverse()
	} else {
		o.ParentInverse = math.Identity()
	}
	o.Location = m.Translation()
	o.Rotation = math.QuatFromMat4(m)
	o.Scale = m.ScaleFactors()
}

// SetParent links o under parent keeping o's world transform. A nil parent
// clears the link.
func (o *Object) SetParent(parent *Object) error {
	if parent == o || (parent != nil && o.IsAncestorOf(parent)) {
		return ErrParentCycle
	}

	world := o.WorldMatrix()
	o.detach()
	o.Parent = parent
	if parent != nil {
		parent.Children = append(parent.Children, o)
	}
	o.setWorldMatrix(world)
	return nil
}

func (o *Object) detach() {
	if o.Parent == nil {
		return
	}
	siblings := o.Parent.Children
	for i, c := range siblings {
		if c == o {
			o.Parent.Children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	o.Parent = nil
}

// SetWorldMatrixKeepGeometry moves the object frame to m while leaving every
// vertex and every child where it is in world space.
func (o *Object) SetWorldMatrixKeepGeometry(m math.Mat4) {
	old := o.WorldMatrix()
	delta := m.Inverse().Mul(old)

	for i, v := range o.Vertices {
		o.Vertices[i] = delta.TransformPoint(v)
	}
	for _, c := range o.Children {
		c.ParentInverse = delta.Mul(c.ParentInverse)
	}
	o.setWorldMatrix(m)
}

// SetOriginKeepGeometry moves the object origin to a world-space point.
func (o *Object) SetOriginKeepGeometry(origin math.Vec3) {
	w := o.WorldMatrix()
	o.SetWorldMatrixKeepGeometry(math.Compose(origin, math.QuatFromMat4(w), w.ScaleFactors()))
}

// SetRotationKeepGeometry sets the world rotation of the object frame.
func (o *Object) SetRotationKeepGeometry(rotation math.Quat) {
	w := o.WorldMatrix()
	o.SetWorldMatrixKeepGeometry(math.Compose(w.Translation(), rotation.Normalize(), w.ScaleFactors()))
}

// ApplyScale bakes the world scale into the vertices, leaving a unit scale.
func (o *Object) ApplyScale() {
	w := o.WorldMatrix()
	o.SetWorldMatrixKeepGeometry(math.Compose(w.Translation(), math.QuatFromMat4(w), math.Vec3{X: 1, Y: 1, Z: 1}))
}
