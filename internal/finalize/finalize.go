package finalize

import "github.com/lbvhgo/lbvh/internal/bfs"

// Finalize walks the expander's node tree depth-first from root and
// emits a packed Node array where a node's left child is always at
// index+1 and a node's own index is always smaller than either
// child's — the ordering pkg/refit's single reverse scan depends on.
// primIDs is the compacted primitive-index array the key producer and
// sorter built; the returned slice reorders it to match each leaf's
// contiguous [offset, offset+count) range. primitiveCount is the
// total number of primitives across the whole build (not just this
// range) and sizes the packed node format's offset/count split — a
// degenerate key range can force a single leaf to hold as many
// primitives as the entire build, so the format is sized to that
// worst case rather than to the configured leaf threshold.
func Finalize(nodes []bfs.TempNode, root int32, primIDs []int32, primitiveCount int) ([]Node, []int32, error) {
	enc, err := newEncoder(primitiveCount)
	if err != nil {
		return nil, nil, err
	}

	out := make([]Node, 0, len(nodes))
	ordered := make([]int32, 0, len(primIDs))
	if _, err := emit(nodes, root, primIDs, enc, &out, &ordered); err != nil {
		return nil, nil, err
	}
	return out, ordered, nil
}

func emit(nodes []bfs.TempNode, idx int32, primIDs []int32, enc encoder, out *[]Node, ordered *[]int32) (int, error) {
	n := nodes[idx]
	myOut := len(*out)
	*out = append(*out, Node{})

	switch n.Kind {
	case bfs.KindLeaf:
		offset := len(*ordered)
		count := n.Hi - n.Lo
		*ordered = append(*ordered, primIDs[n.Lo:n.Hi]...)
		packed, err := enc.packLeaf(uint32(offset), uint32(count))
		if err != nil {
			return 0, err
		}
		(*out)[myOut] = packed
	case bfs.KindInternal:
		if _, err := emit(nodes, n.Left, primIDs, enc, out, ordered); err != nil {
			return 0, err
		}
		rightIdx, err := emit(nodes, n.Right, primIDs, enc, out, ordered)
		if err != nil {
			return 0, err
		}
		packed, err := enc.packInternal(uint32(rightIdx))
		if err != nil {
			return 0, err
		}
		(*out)[myOut] = packed
	default:
		panic("finalize: node left in open state")
	}
	return myOut, nil
}
