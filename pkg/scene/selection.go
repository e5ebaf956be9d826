package scene

import "fmt"

// Selection is an ordered, duplicate-free list of objects. The position of an
// object is its texel index.
type Selection struct {
	objects []*Object
	index   map[*Object]int
}

// NewSelection builds a selection, rejecting nil and repeated objects.
func NewSelection(objects []*Object) (*Selection, error) {
	s := &Selection{
		objects: make([]*Object, 0, len(objects)),
		index:   make(map[*Object]int, len(objects)),
	}
	for _, o := range objects {
		if o == nil {
			return nil, ErrNilObject
		}
		if _, ok := s.index[o]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateObject, o.Name)
		}
		s.index[o] = len(s.objects)
		s.objects = append(s.objects, o)
	}
	return s, nil
}

// Len returns the number of objects.
func (s *Selection) Len() int {
	return len(s.objects)
}

// At returns the object at index i.
func (s *Selection) At(i int) *Object {
	return s.objects[i]
}

// Objects returns the objects in selection order. The slice must not be
// modified.
func (s *Selection) Objects() []*Object {
	return s.objects
}

// IndexOf returns the index of o and whether it is selected.
func (s *Selection) IndexOf(o *Object) (int, bool) {
	i, ok := s.index[o]
	return i, ok
}

// Contains reports whether o is selected.
func (s *Selection) Contains(o *Object) bool {
	_, ok := s.index[o]
	return ok
}

// Names returns object names in selection order.
func (s *Selection) Names() []string {
	names := make([]string, len(s.objects))
	for i, o := range s.objects {
		names[i] = o.Name
	}
	return names
}
