package packing

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/pivot-painter/pkg/math"
)

// unitScale converts scene meters to target-engine centimeters.
const unitScale = 100

// Location converts a scene position to target-engine space: centimeters
// with the Y axis inverted.
func Location(v math.Vec3) [3]float32 {
	return [3]float32{v.X * unitScale, -v.Y * unitScale, v.Z * unitScale}
}

// Direction converts a scene direction to target-engine space.
func Direction(v math.Vec3) [3]float32 {
	return [3]float32{v.X, -v.Y, v.Z}
}

// Rotation converts a scene rotation to a target-engine quaternion, returned
// as [w, x, y, z]. The Euler angles are remapped as (-y, -z, x).
func Rotation(q math.Quat) [4]float32 {
	e := q.EulerXYZ()
	r := math.QuatFromEulerXYZ(math.V3(-e.Y, -e.Z, e.X))
	return [4]float32{r.W, r.X, r.Y, r.Z}
}

// Compact maps a component from [-1, 1] into [0, 1].
func Compact(v float32) float32 {
	return (v + 1) / 2
}

// CompactLength maps a length in centimeters into LDR range: steps of 8,
// clamped to [1, 256], divided by 256.
func CompactLength(cm float32) float32 {
	return math32.Min(math32.Max(cm/8, 1), 256) / 256
}

// length scales a length in meters for output.
func length(env *Env, meters float32) float32 {
	cm := meters * unitScale
	if env.HDR {
		return cm
	}
	return CompactLength(cm)
}
