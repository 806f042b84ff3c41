// Package widebvh regroups a binary BVH into a wider layout (4 or 8
// children per node) by inlining children from multiple binary levels
// into one node, the way a wide-BVH build step flattens a binary tree
// for fewer, more work-efficient traversal steps.
package widebvh

import (
	"github.com/lbvhgo/lbvh/internal/finalize"
	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

// Node is one node of the regrouped tree. Internal nodes list up to
// Width child indices into the same slice a Regroup call returns;
// leaves carry the same [LeafOffset, LeafOffset+LeafCount) primitive
// range the binary tree's leaves did.
type Node struct {
	Box                   vecmath.Box
	IsLeaf                bool
	Children              []int32
	LeafOffset, LeafCount uint32
}

// Regroup4 collapses the binary tree rooted at root into 4-wide nodes.
func Regroup4(nodes []finalize.Node, boxes []vecmath.Box, root int32) []Node {
	return regroup(nodes, boxes, root, 4)
}

// Regroup8 collapses the binary tree rooted at root into 8-wide nodes.
func Regroup8(nodes []finalize.Node, boxes []vecmath.Box, root int32) []Node {
	return regroup(nodes, boxes, root, 8)
}

type entry struct {
	binaryIdx     int32
	box           vecmath.Box
	isLeaf        bool
	offset, count uint32
}

func toEntry(nodes []finalize.Node, boxes []vecmath.Box, idx int32) entry {
	n := nodes[idx]
	if n.IsLeaf() {
		offset, count := n.LeafRange()
		return entry{binaryIdx: idx, box: boxes[idx], isLeaf: true, offset: offset, count: count}
	}
	return entry{binaryIdx: idx, box: boxes[idx]}
}

// extentMeasure is a cheap, dimension-generic stand-in for surface
// area: the sum of pairwise axis-size products. It only needs to rank
// boxes relative to each other, not report a physical quantity.
func extentMeasure(b vecmath.Box) float64 {
	size := b.Size()
	var total float64
	for i := 0; i < len(size); i++ {
		for j := i + 1; j < len(size); j++ {
			total += size[i] * size[j]
		}
	}
	return total
}

func regroup(nodes []finalize.Node, boxes []vecmath.Box, root int32, width int) []Node {
	out := make([]Node, 0, len(nodes))
	var build func(idx int32) int32
	build = func(idx int32) int32 {
		n := nodes[idx]
		if n.IsLeaf() {
			offset, count := n.LeafRange()
			out = append(out, Node{Box: boxes[idx], IsLeaf: true, LeafOffset: offset, LeafCount: count})
			return int32(len(out) - 1)
		}

		entries := []entry{{binaryIdx: idx, box: boxes[idx]}}
		for len(entries) < width {
			best := -1
			var bestMeasure float64
			for i, e := range entries {
				if e.isLeaf {
					continue
				}
				m := extentMeasure(e.box)
				if best == -1 || m > bestMeasure {
					best, bestMeasure = i, m
				}
			}
			if best == -1 {
				break
			}
			opened := entries[best]
			bn := nodes[opened.binaryIdx]
			left := toEntry(nodes, boxes, opened.binaryIdx+1)
			right := toEntry(nodes, boxes, int32(bn.RightChild()))
			entries = append(entries[:best], append([]entry{left, right}, entries[best+1:]...)...)
		}

		myOut := len(out)
		out = append(out, Node{Box: boxes[idx]})
		children := make([]int32, 0, len(entries))
		for _, e := range entries {
			if e.isLeaf {
				out = append(out, Node{Box: e.box, IsLeaf: true, LeafOffset: e.offset, LeafCount: e.count})
				children = append(children, int32(len(out)-1))
				continue
			}
			children = append(children, build(e.binaryIdx))
		}
		out[myOut].Children = children
		return int32(myOut)
	}
	build(root)
	return out
}
