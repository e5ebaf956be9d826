package spatial

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/pivot-painter/pkg/math"
)

// Triangle is three world-space corners.
type Triangle [3]math.Vec3

// Triangles gathers indexed triangles from a vertex list.
func Triangles(vertices []math.Vec3, indices [][3]int) []Triangle {
	tris := make([]Triangle, len(indices))
	for i, idx := range indices {
		tris[i] = Triangle{vertices[idx[0]], vertices[idx[1]], vertices[idx[2]]}
	}
	return tris
}

// Bounds returns the triangle's bounding box.
func (t Triangle) Bounds() AABB {
	return NewAABB(t[0], t[1]).Extend(t[2])
}

// Center returns the centroid.
func (t Triangle) Center() math.Vec3 {
	return t[0].Add(t[1]).Add(t[2]).Scale(1.0 / 3)
}

// Normal returns the unnormalized face normal.
func (t Triangle) Normal() math.Vec3 {
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
}

func (t Triangle) edges() [3]math.Vec3 {
	return [3]math.Vec3{t[1].Sub(t[0]), t[2].Sub(t[1]), t[0].Sub(t[2])}
}

func (t Triangle) project(axis math.Vec3) (lo, hi float32) {
	lo = t[0].Dot(axis)
	hi = lo
	for _, p := range t[1:] {
		d := p.Dot(axis)
		lo = math32.Min(lo, d)
		hi = math32.Max(hi, d)
	}
	return lo, hi
}

// TrianglesOverlap runs a separating axis test over both normals, the nine
// edge cross products and the six in-plane edge normals. Intervals closer
// than eps count as overlapping, so touching and near-touching surfaces
// overlap.
func TrianglesOverlap(a, b Triangle, eps float32) bool {
	na, nb := a.Normal(), b.Normal()
	ea, eb := a.edges(), b.edges()

	axes := make([]math.Vec3, 0, 17)
	axes = append(axes, na, nb)
	for _, x := range ea {
		for _, y := range eb {
			axes = append(axes, x.Cross(y))
		}
	}
	for _, e := range ea {
		axes = append(axes, na.Cross(e))
	}
	for _, e := range eb {
		axes = append(axes, nb.Cross(e))
	}

	for _, axis := range axes {
		l := axis.Length()
		if l < 1e-12 {
			continue
		}
		axis = axis.Scale(1 / l)
		aLo, aHi := a.project(axis)
		bLo, bHi := b.project(axis)
		if aHi+eps < bLo || bHi+eps < aLo {
			return false
		}
	}
	return true
}

// ClosestPoint returns the point of t nearest to p.
func (t Triangle) ClosestPoint(p math.Vec3) math.Vec3 {
	a, b, c := t[0], t[1], t[2]
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)

	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Scale(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Scale(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).Scale((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	denom := 1 / (va + vb + vc)
	v, w := vb*denom, vc*denom
	return a.Add(ab.Scale(v)).Add(ac.Scale(w))
}
