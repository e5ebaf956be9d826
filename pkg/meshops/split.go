// Package meshops holds the mesh edits that prepare imported geometry for
// painting: splitting into loose parts and transferring UVs between meshes.
package meshops

import (
	"fmt"

	"github.com/Faultbox/pivot-painter/pkg/math"
	"github.com/Faultbox/pivot-painter/pkg/scene"
)

// components labels every vertex with the smallest vertex index of its
// connected component. Vertices are connected when they share a face.
func components(vertexCount int, faces []scene.Face) []int {
	parent := make([]int, vertexCount)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, f := range faces {
		for _, v := range f[1:] {
			a, b := find(f[0]), find(v)
			if a == b {
				continue
			}
			if a < b {
				parent[b] = a
			} else {
				parent[a] = b
			}
		}
	}

	labels := make([]int, vertexCount)
	for i := range labels {
		labels[i] = find(i)
	}
	return labels
}

// Split separates a mesh into its loose parts. Each part is a new object
// named <name>.001, <name>.002, ... with the transform, parent, tags and UV
// layers of o; parts are ordered by their lowest original vertex index.
// A mesh with a single part yields one copy.
func Split(o *scene.Object) []*scene.Object {
	labels := components(len(o.Vertices), o.Faces)

	partOf := make(map[int]int)
	var parts []*scene.Object
	remap := make([]int, len(o.Vertices))
	for v, label := range labels {
		p, ok := partOf[label]
		if !ok {
			p = len(parts)
			partOf[label] = p
			parts = append(parts, newPart(o, fmt.Sprintf("%s.%03d", o.Name, p+1)))
		}
		remap[v] = len(parts[p].Vertices)
		parts[p].Vertices = append(parts[p].Vertices, o.Vertices[v])
	}

	loop := 0
	for _, f := range o.Faces {
		part := parts[partOf[labels[f[0]]]]
		face := make(scene.Face, len(f))
		for i, v := range f {
			face[i] = remap[v]
		}
		part.Faces = append(part.Faces, face)
		for li, layer := range o.UVLayers {
			part.UVLayers[li].UVs = append(part.UVLayers[li].UVs, loopUVs(layer, loop, len(f))...)
		}
		loop += len(f)
	}
	return parts
}

func newPart(o *scene.Object, name string) *scene.Object {
	part := scene.NewMesh(name, nil, nil)
	part.Location = o.Location
	part.Rotation = o.Rotation
	part.Scale = o.Scale
	part.ParentInverse = o.ParentInverse
	if o.Parent != nil {
		part.Parent = o.Parent
		o.Parent.Children = append(o.Parent.Children, part)
	}
	for k, v := range o.Tags {
		part.SetTag(k, v)
	}
	for _, l := range o.UVLayers {
		part.UVLayers = append(part.UVLayers, &scene.UVLayer{Name: l.Name})
	}
	return part
}

// loopUVs returns n UVs starting at loop, padding layers that are too short.
func loopUVs(layer *scene.UVLayer, loop, n int) []math.Vec2 {
	out := make([]math.Vec2, n)
	if loop < len(layer.UVs) {
		copy(out, layer.UVs[loop:])
	}
	return out
}
