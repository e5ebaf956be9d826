package packing

import (
	"slices"

	"github.com/Faultbox/pivot-painter/pkg/math"
)

// None is the key of the zero-filled option in both tables.
const None = "none"

// Option is one selectable texture channel assignment.
type Option struct {
	Key         string
	Name        string
	Description string
	// Suffix is appended to the texture name.
	Suffix string
	// RGBA options fill all four channels and ignore the alpha option.
	RGBA bool
	// TestSelectionOrder requires every object to carry the SelectionOrder tag.
	TestSelectionOrder bool
	// TestBoundBoxCenter warns for objects whose local axes may not follow
	// their geometry.
	TestBoundBoxCenter bool

	Packer Packer
}

var (
	alphaOptions = []Option{
		{Key: "index", Name: "Parent Index (Int as float)", Description: "The index of the parent of each part.",
			Suffix: "Index", Packer: parentIndex{}},
		{Key: "steps", Name: "Number of Steps From Root", Description: "The level in the hierarchy.",
			Suffix: "Steps", Packer: depth{}},
		{Key: "random", Name: "Random 0-1 Value Per Element", Description: "A random number per object.",
			Suffix: "Random", Packer: random{}},
		{Key: "diameter", Name: "Bounding Box Diameter", Description: "The length of the bounding box diagonal before scale.",
			Suffix: "Diameter", Packer: diameter{}},
		{Key: "selection_order", Name: "Selection Order (Int as float)", Description: "The SelectionOrder tag of each object.",
			Suffix: "SelectionOrder", Packer: selectionOrder{}, TestSelectionOrder: true},
		{Key: "hierarchy", Name: "Normalized 0-1 Hierarchy Position", Description: "Hierarchy level divided by the deepest level.",
			Suffix: "Hierarchy", Packer: normalizedDepth{}},
		{Key: "x_extent", Name: "Object X Extent", Description: "The X dimension of each object.",
			Suffix: "XWidth", Packer: extent{axis: 0}, TestBoundBoxCenter: true},
		{Key: "y_extent", Name: "Object Y Extent", Description: "The Y dimension of each object.",
			Suffix: "YDepth", Packer: extent{axis: 1}},
		{Key: "z_extent", Name: "Object Z Extent", Description: "The Z dimension of each object.",
			Suffix: "ZHeight", Packer: extent{axis: 2}},
		{Key: "diameter_scaled", Name: "Scaled Bounding Box Diameter", Description: "The length of the bounding box diagonal with scale.",
			Suffix: "DiameterScaled", Packer: diameter{scaled: true}},
		{Key: None, Name: "None", Description: "Alpha is 0.",
			Suffix: "None", Packer: constant{channels: 1}},
	}

	rgbOptions = []Option{
		{Key: "pivot_point", Name: "Pivot Point", Description: "The origin of each object.",
			Suffix: "PivotPoint", Packer: pivotPoint{}},
		{Key: "parent_relative_pivot_point", Name: "Parent Relative Pivot Point", Description: "The origin relative to the parent origin.",
			Suffix: "RelativePivot", Packer: relativePivot{}},
		{Key: "origin_position", Name: "Origin Position", Description: "The bounding box center of each object.",
			Suffix: "OriginPosition", Packer: originPosition{}},
		{Key: "origin_extents", Name: "Origin Extents", Description: "The dimensions of each object.",
			Suffix: "OriginExtents", Packer: originExtents{}},
		{Key: "x_axis", Name: "X Axis", Description: "The X axis from rotation.",
			Suffix: "XAxis", Packer: axis{local: math.V3(1, 0, 0)}, TestBoundBoxCenter: true},
		{Key: "y_axis", Name: "Y Axis", Description: "The Y axis from rotation.",
			Suffix: "YAxis", Packer: axis{local: math.V3(0, 1, 0)}},
		{Key: "z_axis", Name: "Z Axis", Description: "The Z axis from rotation.",
			Suffix: "ZAxis", Packer: axis{local: math.V3(0, 0, 1)}},
		{Key: "hierarchy_random_diameter", Name: "Hierarchy 0-1, Random 0-1, BBox Diameter",
			Description: "Normalized hierarchy level in red, a random number in green, scaled diameter in blue.",
			Suffix:      "HierarchyRandomDiameter",
			Packer:      newComposite(normalizedDepth{}, random{}, diameter{scaled: true})},
		{Key: None, Name: "None", Description: "RGB is 0.",
			Suffix: "None", Packer: constant{channels: 3}},
		{Key: "quaternion", Name: "Quaternion Rotation", Description: "The world rotation as a quaternion.",
			Suffix: "Quaternion", Packer: quaternion{}, RGBA: true},
	}
)

func find(options []Option, key string) (Option, bool) {
	i := slices.IndexFunc(options, func(o Option) bool { return o.Key == key })
	if i < 0 {
		return Option{}, false
	}
	return options[i], true
}

// AlphaOption returns the alpha option registered under key.
func AlphaOption(key string) (Option, bool) {
	return find(alphaOptions, key)
}

// RGBOption returns the RGB or RGBA option registered under key.
func RGBOption(key string) (Option, bool) {
	return find(rgbOptions, key)
}

// AlphaOptions lists the alpha options in display order.
func AlphaOptions() []Option {
	return slices.Clone(alphaOptions)
}

// RGBOptions lists the RGB and RGBA options in display order.
func RGBOptions() []Option {
	return slices.Clone(rgbOptions)
}
