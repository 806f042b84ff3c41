// Package refit fills in the bounding box of every node in a
// finalized tree with a single bottom-up pass. Because finalize
// numbers nodes depth-first, every child always has a larger index
// than its parent, so a single decreasing scan over node indices is a
// valid topological order: by the time a node is visited, both of its
// children (if any) already have their final box.
package refit

import (
	"github.com/lbvhgo/lbvh/internal/finalize"
	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

// Fill computes Box for every node in nodes, given the per-node packed
// metadata, the leaf-ordered primitive indices, and the per-primitive
// boxes indexed by original primitive ID.
func Fill(nodes []finalize.Node, orderedPrimIDs []int32, primBoxes []vecmath.Box, dim int) []vecmath.Box {
	boxes := make([]vecmath.Box, len(nodes))
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		if n.IsLeaf() {
			offset, count := n.LeafRange()
			box := vecmath.EmptyBox(dim)
			for _, primID := range orderedPrimIDs[offset : offset+count] {
				box = box.Union(primBoxes[primID])
			}
			boxes[i] = box
			continue
		}
		left := i + 1
		right := int(n.RightChild())
		boxes[i] = boxes[left].Union(boxes[right])
	}
	return boxes
}
