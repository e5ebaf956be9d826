package spatial

import (
	"cmp"
	gomath "math"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/Faultbox/pivot-painter/pkg/math"
)

// kdPoint is a point with its position in the source slice.
type kdPoint struct {
	r3.Vec
	index int
}

func (p kdPoint) axis(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return p.X
	case 1:
		return p.Y
	default:
		return p.Z
	}
}

// Compare implements kdtree.Comparable.
func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.axis(d) - c.(kdPoint).axis(d)
}

// Dims implements kdtree.Comparable.
func (p kdPoint) Dims() int { return 3 }

// Distance implements kdtree.Comparable. It is the squared distance, as the
// tree expects.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(p.Vec, c.(kdPoint).Vec))
}

// kdPoints implements kdtree.Interface.
type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p kdPoints) Len() int                      { return len(p) }
func (p kdPoints) Pivot(d kdtree.Dim) int        { return kdPlane{Dim: d, kdPoints: p}.Pivot() }
func (p kdPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// kdPlane sorts points along one dimension for median selection.
type kdPlane struct {
	kdtree.Dim
	kdPoints
}

func (p kdPlane) Less(i, j int) bool {
	return p.kdPoints[i].axis(p.Dim) < p.kdPoints[j].axis(p.Dim)
}
func (p kdPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.kdPoints = p.kdPoints[start:end]
	return p
}
func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}

// KDTree answers nearest-point queries over a fixed point set.
type KDTree struct {
	tree *kdtree.Tree
	n    int
}

// NewKDTree indexes points. The slice is copied.
func NewKDTree(points []math.Vec3) *KDTree {
	pts := make(kdPoints, len(points))
	for i, p := range points {
		pts[i] = kdPoint{Vec: toR3(p), index: i}
	}
	k := &KDTree{n: len(pts)}
	if len(pts) > 0 {
		k.tree = kdtree.New(pts, false)
	}
	return k
}

// Len returns the number of indexed points.
func (k *KDTree) Len() int {
	return k.n
}

// Nearest returns the index of the point closest to q and its distance.
// ok is false for an empty tree.
func (k *KDTree) Nearest(q math.Vec3) (index int, dist float32, ok bool) {
	if k.tree == nil {
		return -1, 0, false
	}
	c, d2 := k.tree.Nearest(kdPoint{Vec: toR3(q)})
	p, found := c.(kdPoint)
	if !found {
		return -1, 0, false
	}
	return p.index, float32(gomath.Sqrt(d2)), true
}

// Within returns the indices of all points within radius of q, nearest
// first.
func (k *KDTree) Within(q math.Vec3, radius float32) []int {
	if k.tree == nil {
		return nil
	}
	r := float64(radius)
	keep := kdtree.NewDistKeeper(r * r)
	k.tree.NearestSet(keep, kdPoint{Vec: toR3(q)})

	heap := slices.Clone(keep.Heap)
	slices.SortFunc(heap, func(a, b kdtree.ComparableDist) int { return cmp.Compare(a.Dist, b.Dist) })
	out := make([]int, 0, len(heap))
	for _, c := range heap {
		if p, ok := c.Comparable.(kdPoint); ok {
			out = append(out, p.index)
		}
	}
	return out
}

func toR3(v math.Vec3) r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}
