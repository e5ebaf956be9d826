package scene

import (
	"github.com/Faultbox/pivot-painter/pkg/spatial"
)

// WorldBVH builds a BVH over the object's world-space triangles. The second
// result maps each BVH triangle to the face it was fanned from.
func (o *Object) WorldBVH() (*spatial.BVH, []int) {
	tris, faceOf := o.triangulate()
	return spatial.NewBVH(spatial.Triangles(o.WorldVertices(), tris)), faceOf
}
