package packing

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"github.com/Faultbox/pivot-painter/pkg/bitpack"
	"github.com/Faultbox/pivot-painter/pkg/layout"
	"github.com/Faultbox/pivot-painter/pkg/math"
	"github.com/Faultbox/pivot-painter/pkg/scene"
)

var (
	// ErrConfiguration wraps every invalid texture or scene setting.
	ErrConfiguration = errors.New("packing: invalid configuration")
	// ErrEmptySelection is returned when there is nothing to pack.
	ErrEmptySelection = errors.New("packing: empty selection")
	// ErrNoTextures is returned when no texture is configured.
	ErrNoTextures = errors.New("packing: no textures configured")
)

// maxListed is the number of object names MissingAttributeError spells out.
const maxListed = 3

// MissingAttributeError lists the objects lacking a required tag.
type MissingAttributeError struct {
	Attribute string
	Objects   []string
}

func (e *MissingAttributeError) Error() string {
	if len(e.Objects) <= maxListed {
		return fmt.Sprintf("packing: objects [%s] missing %q property", strings.Join(e.Objects, ", "), e.Attribute)
	}
	return fmt.Sprintf("packing: objects [%s] and %d more missing %q property",
		strings.Join(e.Objects[:maxListed], ", "), len(e.Objects)-maxListed, e.Attribute)
}

// TextureSpec selects the channel contents of one texture.
type TextureSpec struct {
	RGB   string `yaml:"rgb"`
	Alpha string `yaml:"alpha"`
	HDR   bool   `yaml:"hdr"`
}

// Skipped reports whether the texture has nothing to store.
func (t TextureSpec) Skipped() bool {
	return t.RGB == None && t.Alpha == None
}

// options resolves both keys. The alpha option is the zero Option for RGBA
// assignments.
func (t TextureSpec) options() (rgb, alpha Option, err error) {
	rgb, ok := RGBOption(t.RGB)
	if !ok {
		err = multierr.Append(err, fmt.Errorf("%w: unknown rgb option %q", ErrConfiguration, t.RGB))
	}
	if rgb.RGBA {
		return rgb, Option{}, err
	}
	alpha, ok = AlphaOption(t.Alpha)
	if !ok {
		err = multierr.Append(err, fmt.Errorf("%w: unknown alpha option %q", ErrConfiguration, t.Alpha))
	}
	return rgb, alpha, err
}

// Warning is a non-fatal finding about one object.
type Warning struct {
	Object  *scene.Object
	Option  string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s (%s): %s", w.Object.Name, w.Option, w.Message)
}

// Validate checks a packing run before anything is computed or mutated.
// Independent problems are combined; a missing tag is reported as a
// *MissingAttributeError.
func Validate(sel *scene.Selection, units scene.Units, specs []TextureSpec) ([]Warning, error) {
	var err error
	if !units.IsMetric() {
		err = fmt.Errorf("%w: scene units must be METRIC with scale 1.0, got %s with scale %g",
			ErrConfiguration, units.System, units.ScaleLength)
	}
	warnings, texErr := checkTextures(sel, specs)
	return warnings, multierr.Append(err, texErr)
}

func checkTextures(sel *scene.Selection, specs []TextureSpec) ([]Warning, error) {
	if sel == nil || sel.Len() == 0 {
		return nil, ErrEmptySelection
	}
	if len(specs) == 0 {
		return nil, ErrNoTextures
	}

	var err error
	if n := sel.Len(); n > layout.MaxSide*layout.MaxSide {
		err = multierr.Append(err, fmt.Errorf("%w: %d objects exceed the %dx%d texture limit",
			ErrConfiguration, n, layout.MaxSide, layout.MaxSide))
	}

	var (
		warnings       []Warning
		needsOrder     bool
		needsIndex     bool
		boxCenterTests []string
	)
	for i, spec := range specs {
		if spec.Skipped() {
			continue
		}
		rgb, alpha, optErr := spec.options()
		if optErr != nil {
			err = multierr.Append(err, fmt.Errorf("texture %d: %w", i+1, optErr))
			continue
		}

		used := []Option{rgb}
		if !rgb.RGBA {
			used = append(used, alpha)
		}
		for _, opt := range used {
			if !opt.Packer.Supports(spec.HDR) {
				err = multierr.Append(err, fmt.Errorf("%w: texture %d: %q does not support %s output",
					ErrConfiguration, i+1, opt.Key, format(spec.HDR)))
			}
			needsOrder = needsOrder || opt.TestSelectionOrder
			needsIndex = needsIndex || opt.Key == "index"
			if opt.TestBoundBoxCenter && !slices.Contains(boxCenterTests, opt.Key) {
				boxCenterTests = append(boxCenterTests, opt.Key)
			}
		}
	}

	if needsIndex && sel.Len()-1 > bitpack.MaxIndex {
		err = multierr.Append(err, fmt.Errorf("%w: %d objects exceed the parent index limit %d",
			ErrConfiguration, sel.Len(), bitpack.MaxIndex+1))
	}
	if needsOrder {
		err = multierr.Append(err, checkSelectionOrder(sel.Objects()))
	}

	for _, key := range boxCenterTests {
		warnings = append(warnings, boundBoxWarnings(sel.Objects(), key)...)
	}
	return warnings, err
}

func format(hdr bool) string {
	if hdr {
		return "HDR"
	}
	return "LDR"
}

func checkSelectionOrder(objects []*scene.Object) error {
	if missing := scene.MissingTag(objects, scene.SelectionOrderTag); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, o := range missing {
			names[i] = o.Name
		}
		return &MissingAttributeError{Attribute: scene.SelectionOrderTag, Objects: names}
	}

	var err error
	for _, o := range objects {
		order, _ := o.Tag(scene.SelectionOrderTag)
		if _, encErr := bitpack.Encode(order); encErr != nil {
			err = multierr.Append(err, fmt.Errorf("%w: %s: %w", ErrConfiguration, o.Name, encErr))
		}
	}
	return err
}

// boundBoxWarnings flags objects whose bounding box may not describe their
// local axes: rotated objects and objects whose box is centered on the
// origin.
func boundBoxWarnings(objects []*scene.Object, key string) []Warning {
	var warnings []Warning
	for _, o := range objects {
		switch {
		case !o.WorldRotation().IsIdentity(1e-5):
			warnings = append(warnings, Warning{Object: o, Option: key, Message: "object is rotated; its extents follow the unrotated bounding box"})
		case o.BoundCenter().NearlyEqual(math.Vec3{}, 1e-5):
			warnings = append(warnings, Warning{Object: o, Option: key, Message: "bounding box is centered on the origin; the pivot may not have been placed"})
		}
	}
	return warnings
}
