package spatial

import (
	"slices"

	"github.com/chewxy/math32"

	"github.com/Faultbox/pivot-painter/pkg/math"
)

const leafSize = 4

// bvhNode is a flat BVH node. Leaves have count > 0 and cover
// order[start:start+count]; inner nodes have children left and left+1.
type bvhNode struct {
	bounds AABB
	left   int32
	start  int32
	count  int32
}

// BVH is a bounding volume hierarchy over one mesh's triangles.
// It is immutable after construction and safe for concurrent queries.
type BVH struct {
	tris  []Triangle
	order []int32
	nodes []bvhNode
}

// NewBVH builds a BVH by median split on the longest centroid axis.
func NewBVH(tris []Triangle) *BVH {
	b := &BVH{
		tris:  tris,
		order: make([]int32, len(tris)),
	}
	for i := range b.order {
		b.order[i] = int32(i)
	}
	if len(tris) == 0 {
		return b
	}

	centers := make([]math.Vec3, len(tris))
	for i, t := range tris {
		centers[i] = t.Center()
	}

	b.nodes = make([]bvhNode, 1, 2*len(tris)/leafSize+1)
	b.build(0, 0, int32(len(tris)), centers)
	return b
}

func (b *BVH) build(node, start, end int32, centers []math.Vec3) {
	bounds := EmptyAABB()
	centerBounds := EmptyAABB()
	for _, ti := range b.order[start:end] {
		bounds = bounds.Union(b.tris[ti].Bounds())
		centerBounds = centerBounds.Extend(centers[ti])
	}
	b.nodes[node].bounds = bounds

	if end-start <= leafSize {
		b.nodes[node].start = start
		b.nodes[node].count = end - start
		return
	}

	axis := centerBounds.LongestAxis()
	span := b.order[start:end]
	slices.SortFunc(span, func(i, j int32) int {
		ci, cj := centers[i].Axis(axis), centers[j].Axis(axis)
		switch {
		case ci < cj:
			return -1
		case ci > cj:
			return 1
		default:
			return int(i - j)
		}
	})
	mid := start + (end-start)/2

	left := int32(len(b.nodes))
	b.nodes = append(b.nodes, bvhNode{}, bvhNode{})
	b.nodes[node].left = left
	b.build(left, start, mid, centers)
	b.build(left+1, mid, end, centers)
}

// Len returns the triangle count.
func (b *BVH) Len() int {
	return len(b.tris)
}

// Triangle returns triangle i in input order.
func (b *BVH) Triangle(i int) Triangle {
	return b.tris[i]
}

// Bounds returns the bounds of all triangles, or an empty box.
func (b *BVH) Bounds() AABB {
	if len(b.nodes) == 0 {
		return EmptyAABB()
	}
	return b.nodes[0].bounds
}

func (n *bvhNode) leaf() bool {
	return n.count > 0
}

// Overlaps reports whether any triangle of b overlaps any triangle of other
// within eps.
func (b *BVH) Overlaps(other *BVH, eps float32) bool {
	found := false
	b.visitPairs(other, eps, func(i, j int) bool {
		found = true
		return false
	})
	return found
}

// OverlapPairs returns every overlapping (b triangle, other triangle) pair.
func (b *BVH) OverlapPairs(other *BVH, eps float32) [][2]int {
	var pairs [][2]int
	b.visitPairs(other, eps, func(i, j int) bool {
		pairs = append(pairs, [2]int{i, j})
		return true
	})
	return pairs
}

// visitPairs walks both trees together and calls fn for each overlapping
// triangle pair until fn returns false.
func (b *BVH) visitPairs(other *BVH, eps float32, fn func(i, j int) bool) {
	if len(b.nodes) == 0 || len(other.nodes) == 0 {
		return
	}

	stack := [][2]int32{{0, 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		na, nb := &b.nodes[top[0]], &other.nodes[top[1]]
		if !na.bounds.Grow(eps).Overlaps(nb.bounds) {
			continue
		}

		switch {
		case na.leaf() && nb.leaf():
			for _, i := range b.order[na.start : na.start+na.count] {
				for _, j := range other.order[nb.start : nb.start+nb.count] {
					if TrianglesOverlap(b.tris[i], other.tris[j], eps) {
						if !fn(int(i), int(j)) {
							return
						}
					}
				}
			}
		case nb.leaf() || (!na.leaf() && volume(na.bounds) >= volume(nb.bounds)):
			stack = append(stack, [2]int32{na.left, top[1]}, [2]int32{na.left + 1, top[1]})
		default:
			stack = append(stack, [2]int32{top[0], nb.left}, [2]int32{top[0], nb.left + 1})
		}
	}
}

func volume(b AABB) float32 {
	s := b.Size()
	return s.X * s.Y * s.Z
}

// ClosestPoint returns the surface point nearest to p, the index of its
// triangle and the distance. ok is false for an empty BVH.
func (b *BVH) ClosestPoint(p math.Vec3) (point math.Vec3, tri int, dist float32, ok bool) {
	if len(b.nodes) == 0 {
		return math.Vec3{}, -1, 0, false
	}

	best := math32.Inf(1)
	stack := []int32{0}
	for len(stack) > 0 {
		ni := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &b.nodes[ni]
		if n.bounds.DistanceSq(p) > best {
			continue
		}
		if n.leaf() {
			for _, ti := range b.order[n.start : n.start+n.count] {
				q := b.tris[ti].ClosestPoint(p)
				if d := q.Sub(p).LengthSq(); d < best {
					best, point, tri = d, q, int(ti)
				}
			}
			continue
		}

		// Visit the nearer child first.
		l, r := n.left, n.left+1
		if b.nodes[l].bounds.DistanceSq(p) < b.nodes[r].bounds.DistanceSq(p) {
			l, r = r, l
		}
		stack = append(stack, l, r)
	}
	return point, tri, math32.Sqrt(best), true
}
