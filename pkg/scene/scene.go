package scene

import (
	"errors"
	"fmt"
	"slices"
)

// Scene errors.
var (
	ErrDuplicateObject = errors.New("scene: duplicate object")
	ErrUnknownObject   = errors.New("scene: unknown object")
	ErrNilObject       = errors.New("scene: nil object")
)

// Units describes the length unit system of a scene.
type Units struct {
	System      string  `yaml:"system"`
	ScaleLength float32 `yaml:"scale_length"`
}

// MetricUnits is the only unit setup the attribute conversions assume.
var MetricUnits = Units{System: "METRIC", ScaleLength: 1}

// IsMetric reports whether u is metric at scale 1.
func (u Units) IsMetric() bool {
	return u.System == MetricUnits.System && u.ScaleLength == MetricUnits.ScaleLength
}

// Scene owns a set of uniquely named objects.
type Scene struct {
	Units   Units
	Objects []*Object

	byName map[string]*Object
}

// New returns an empty metric scene.
func New() *Scene {
	return &Scene{
		Units:  MetricUnits,
		byName: make(map[string]*Object),
	}
}

// Add inserts objects. Names must be unique within the scene.
func (s *Scene) Add(objects ...*Object) error {
	if s.byName == nil {
		s.byName = make(map[string]*Object)
	}
	for _, o := range objects {
		if o == nil {
			return ErrNilObject
		}
		if _, ok := s.byName[o.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateObject, o.Name)
		}
		s.byName[o.Name] = o
		s.Objects = append(s.Objects, o)
	}
	return nil
}

// Object returns the object with the given name, or nil.
func (s *Scene) Object(name string) *Object {
	return s.byName[name]
}

// Lookup resolves names to objects, preserving order.
func (s *Scene) Lookup(names []string) ([]*Object, error) {
	out := make([]*Object, 0, len(names))
	for _, n := range names {
		o := s.Object(n)
		if o == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownObject, n)
		}
		out = append(out, o)
	}
	return out, nil
}

// Meshes returns every MESH object in scene order.
func (s *Scene) Meshes() []*Object {
	var out []*Object
	for _, o := range s.Objects {
		if o.IsMesh() {
			out = append(out, o)
		}
	}
	return out
}

// Roots returns every object without a parent, in scene order.
func (s *Scene) Roots() []*Object {
	var out []*Object
	for _, o := range s.Objects {
		if o.Parent == nil {
			out = append(out, o)
		}
	}
	return out
}

// Remove deletes o from the scene. Its children keep their world transform
// and become roots.
func (s *Scene) Remove(o *Object) error {
	if s.byName[o.Name] != o {
		return fmt.Errorf("%w: %q", ErrUnknownObject, o.Name)
	}
	for _, c := range slices.Clone(o.Children) {
		if err := c.SetParent(nil); err != nil {
			return err
		}
	}
	o.detach()
	delete(s.byName, o.Name)
	s.Objects = slices.DeleteFunc(s.Objects, func(x *Object) bool { return x == o })
	return nil
}

// UniqueName returns base, or base with the first free ".NNN" suffix.
func (s *Scene) UniqueName(base string) string {
	if s.byName[base] == nil {
		return base
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s.%03d", base, i)
		if s.byName[name] == nil {
			return name
		}
	}
}
