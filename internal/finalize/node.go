// Package finalize converts the breadth-first expander's temporary
// node array into the packed, depth-first-ordered layout the rest of
// the builder (refit, wide-BVH regroup, and any consumer) reads:
// every node's left child is implicit at index+1, every leaf packs
// its primitive offset and count into a single 32-bit word, and
// primitive indices are reordered to match each leaf's contiguous
// slice.
package finalize

import (
	"fmt"
	"math/bits"
)

// Node is one entry of the finalized node array. It carries no
// bounding box; pkg/refit computes one per node in a separate slice.
//
// countBits records how Meta's 31 non-flag bits are split between a
// leaf's primitive offset and its primitive count, for this build.
// The split isn't a fixed constant: a degenerate key range (see
// internal/bfs's "no split exists" leaf rule) can force a single leaf
// to hold as many primitives as the entire build, so the count field
// has to be sized to the dataset rather than to a small constant that
// would panic on any build larger than it.
type Node struct {
	Meta      uint32
	countBits uint8
}

const leafFlag = uint32(1) << 31

// encoder picks the offset/count bit split for one build of
// primitiveCount primitives and packs/unpacks leaf Meta words
// accordingly.
type encoder struct {
	countBits uint8
	countMask uint32
	offsetMax uint32
}

// newEncoder sizes the offset/count split for a build of primitiveCount
// primitives. It errors rather than panics if primitiveCount doesn't
// fit the 31 bits available after the leaf flag.
func newEncoder(primitiveCount int) (encoder, error) {
	if primitiveCount <= 0 {
		return encoder{countBits: 1, countMask: 1, offsetMax: 0}, nil
	}

	// countBits must represent values up to primitiveCount inclusive,
	// since a single leaf may hold every primitive in the build.
	countBits := bits.Len(uint(primitiveCount))
	if countBits < 1 {
		countBits = 1
	}
	if countBits > 31 {
		return encoder{}, fmt.Errorf("finalize: %d primitives require more bits than a packed node can hold", primitiveCount)
	}

	offsetBits := 31 - countBits
	offsetMax := uint32(1)<<uint(offsetBits) - 1
	if uint64(offsetMax) < uint64(primitiveCount-1) {
		return encoder{}, fmt.Errorf("finalize: %d primitives cannot be packed into a single node word (offset/count split too narrow)", primitiveCount)
	}

	return encoder{
		countBits: uint8(countBits),
		countMask: uint32(1)<<uint(countBits) - 1,
		offsetMax: offsetMax,
	}, nil
}

func (e encoder) packLeaf(offset, count uint32) (Node, error) {
	if offset > e.offsetMax {
		return Node{}, fmt.Errorf("finalize: leaf primitive offset %d exceeds packed node capacity", offset)
	}
	if count > e.countMask {
		return Node{}, fmt.Errorf("finalize: leaf primitive count %d exceeds packed node capacity", count)
	}
	meta := leafFlag | (offset << e.countBits) | count
	return Node{Meta: meta, countBits: e.countBits}, nil
}

func (e encoder) packInternal(rightChild uint32) (Node, error) {
	if rightChild&leafFlag != 0 {
		return Node{}, fmt.Errorf("finalize: right-child index %d exceeds packed node capacity", rightChild)
	}
	return Node{Meta: rightChild, countBits: e.countBits}, nil
}

// IsLeaf reports whether n is a leaf node.
func (n Node) IsLeaf() bool { return n.Meta&leafFlag != 0 }

// LeafRange returns the [offset, offset+count) primitive range a leaf
// covers. Only meaningful when IsLeaf() is true.
func (n Node) LeafRange() (offset, count uint32) {
	return (n.Meta &^ leafFlag) >> n.countBits, n.Meta & (uint32(1)<<n.countBits - 1)
}

// RightChild returns the index of the internal node's right child;
// its left child is always at the node's own index + 1. Only
// meaningful when IsLeaf() is false.
func (n Node) RightChild() uint32 { return n.Meta &^ leafFlag }
