// Package pivot moves each object's origin onto the point where it meets its
// parent and turns its local +X axis toward its furthest extent, level by
// level from the roots down.
package pivot

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/pivot-painter/pkg/hierarchy"
)

// ErrInvalidOptions is wrapped by every option validation error.
var ErrInvalidOptions = errors.New("pivot: invalid options")

// ItemType selects which samples of an object are tested.
type ItemType string

const (
	ItemOverlap  ItemType = "overlap"
	ItemVertex   ItemType = "vertex"
	ItemFace     ItemType = "face"
	ItemBoundBox ItemType = "bound_box"
)

// Calculation selects how samples become a pivot.
type Calculation string

const (
	// Closest uses the single sample nearest to the parent.
	Closest Calculation = "closest"
	// Mean averages every sample within MaxDistance of the nearest one.
	Mean Calculation = "mean"
)

// ParentlessMode selects the pivot of objects without a mesh parent.
type ParentlessMode string

const (
	ParentlessOrigin ParentlessMode = "origin"
	ParentlessAxis   ParentlessMode = "axis"
)

// Axis is a signed world axis.
type Axis string

const (
	AxisXPos Axis = "x_pos"
	AxisXNeg Axis = "x_neg"
	AxisYPos Axis = "y_pos"
	AxisYNeg Axis = "y_neg"
	AxisZPos Axis = "z_pos"
	AxisZNeg Axis = "z_neg"
)

// index returns the component index and whether the axis is negative.
func (a Axis) index() (int, bool, bool) {
	switch a {
	case AxisXPos:
		return 0, false, true
	case AxisXNeg:
		return 0, true, true
	case AxisYPos:
		return 1, false, true
	case AxisYNeg:
		return 1, true, true
	case AxisZPos:
		return 2, false, true
	case AxisZNeg:
		return 2, true, true
	}
	return 0, false, false
}

// PivotOptions configures pivot placement.
type PivotOptions struct {
	Enabled     bool           `yaml:"enabled"`
	ItemType    ItemType       `yaml:"item_type"`
	Calculation Calculation    `yaml:"calculation"`
	MaxDistance float32        `yaml:"max_distance"`
	Parentless  ParentlessMode `yaml:"parentless"`
	Axis        Axis           `yaml:"axis"`
	// MaxAxisDifference is the band around the extreme vertex in axis mode.
	MaxAxisDifference float32 `yaml:"max_axis_difference"`
	// Epsilon is the overlap tolerance in overlap mode.
	Epsilon float32 `yaml:"epsilon"`
}

// RotationOptions configures axis alignment.
type RotationOptions struct {
	Enabled     bool     `yaml:"enabled"`
	ItemType    ItemType `yaml:"item_type"`
	MaxDistance float32  `yaml:"max_distance"`
}

// Options configures a Solver.
type Options struct {
	Pivot    PivotOptions    `yaml:"pivot"`
	Rotation RotationOptions `yaml:"rotation"`
	// MaxDepth is the level limit; 0 disables the check.
	MaxDepth int `yaml:"max_depth"`
	// Workers bounds the parallel read phase; 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// DefaultOptions returns the standard settings.
func DefaultOptions() Options {
	return Options{
		Pivot: PivotOptions{
			Enabled:           true,
			ItemType:          ItemOverlap,
			Calculation:       Mean,
			MaxDistance:       0.01,
			Parentless:        ParentlessOrigin,
			Axis:              AxisZNeg,
			MaxAxisDifference: 0.01,
			Epsilon:           1e-4,
		},
		Rotation: RotationOptions{
			Enabled:     true,
			ItemType:    ItemVertex,
			MaxDistance: 0.01,
		},
		MaxDepth: hierarchy.DefaultMaxDepth,
	}
}

// Validate reports every invalid field at once.
func (o Options) Validate() error {
	var err error
	invalid := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidOptions}, args...)...))
	}

	switch o.Pivot.ItemType {
	case ItemOverlap, ItemVertex, ItemFace:
	default:
		invalid("pivot item type %q", o.Pivot.ItemType)
	}
	switch o.Pivot.Calculation {
	case Closest, Mean:
	default:
		invalid("pivot calculation %q", o.Pivot.Calculation)
	}
	switch o.Pivot.Parentless {
	case ParentlessOrigin:
	case ParentlessAxis:
		if _, _, ok := o.Pivot.Axis.index(); !ok {
			invalid("parentless axis %q", o.Pivot.Axis)
		}
	default:
		invalid("parentless mode %q", o.Pivot.Parentless)
	}
	if o.Pivot.MaxDistance < 0 || o.Pivot.MaxAxisDifference < 0 || o.Pivot.Epsilon < 0 {
		invalid("negative pivot tolerance")
	}

	switch o.Rotation.ItemType {
	case ItemVertex, ItemBoundBox:
	default:
		invalid("rotation item type %q", o.Rotation.ItemType)
	}
	if o.Rotation.MaxDistance < 0 {
		invalid("negative rotation tolerance")
	}
	return err
}
