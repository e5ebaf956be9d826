package pivot

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/pivot-painter/pkg/math"
)

// Band returns the indices of values within tol of ref, boundary included.
func Band(values []float32, ref, tol float32) []int {
	var out []int
	for i, v := range values {
		if math32.Abs(v-ref) <= tol {
			out = append(out, i)
		}
	}
	return out
}

// minMax returns the smallest and largest value. values must not be empty.
func minMax(values []float32) (lo, hi float32) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math32.Min(lo, v)
		hi = math32.Max(hi, v)
	}
	return lo, hi
}

// meanOf averages points[i] for each index.
func meanOf(points []math.Vec3, indices []int) math.Vec3 {
	var sum math.Vec3
	for _, i := range indices {
		sum = sum.Add(points[i])
	}
	if len(indices) == 0 {
		return sum
	}
	return sum.Scale(1 / float32(len(indices)))
}
