package scene

import (
	"errors"
	"fmt"
)

// ErrInvalidStart is returned for a selection order start below 1.
var ErrInvalidStart = errors.New("scene: selection order must start at 1 or above")

// AssignSelectionOrder writes the SelectionOrder tag onto objects in the
// given order, counting up from start. With sameNumber every object gets
// start.
func AssignSelectionOrder(objects []*Object, start int, sameNumber bool) error {
	if start < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidStart, start)
	}
	n := start
	for _, o := range objects {
		o.SetTag(SelectionOrderTag, n)
		if !sameNumber {
			n++
		}
	}
	return nil
}

// ClearSelectionOrder removes the SelectionOrder tag.
func ClearSelectionOrder(objects []*Object) {
	for _, o := range objects {
		delete(o.Tags, SelectionOrderTag)
	}
}

// MissingTag returns the objects that lack the named tag.
func MissingTag(objects []*Object, tag string) []*Object {
	var missing []*Object
	for _, o := range objects {
		if _, ok := o.Tag(tag); !ok {
			missing = append(missing, o)
		}
	}
	return missing
}
