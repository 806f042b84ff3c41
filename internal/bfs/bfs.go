// Package bfs implements the breadth-first device-side tree
// expander: starting from a single root spanning the whole sorted key
// range, each round splits every still-open node in the current
// frontier at its longest-common-prefix break point, allocating the
// two child slots it needs from a shared node array and handing the
// next round its own frontier of newly opened nodes.
package bfs

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lbvhgo/lbvh/pkg/bvhconfig"
	"github.com/lbvhgo/lbvh/pkg/device"
)

// Kind distinguishes the three states a TempNode can be in.
type Kind int

const (
	// KindOpen nodes still need a split decision; Lo/Hi is their
	// primitive range and Left/Right are not yet meaningful.
	KindOpen Kind = iota
	// KindLeaf nodes are finished: Lo/Hi is their primitive range.
	KindLeaf
	// KindInternal nodes are finished: Left/Right index their
	// children in the same node array.
	KindInternal
)

// TempNode is the tagged union the expander works over: a node is
// either still open (holding a primitive range awaiting a split
// decision) or finished, as a leaf or as an internal node with two
// children.
type TempNode struct {
	Kind        Kind
	Lo, Hi      int
	Left, Right int32
}

// Builder runs the breadth-first expansion for one set of tuning
// parameters.
type Builder struct {
	cfg bvhconfig.Config
}

// NewBuilder resolves cfg's defaults and returns a Builder.
func NewBuilder(cfg bvhconfig.Config) *Builder {
	return &Builder{cfg: cfg.Resolved()}
}

// Expand builds the full node array for the given sorted keys. Node 0
// is always the root. The returned slice is sized exactly to the
// number of nodes actually used.
func (b *Builder) Expand(ctx context.Context, stream *device.Stream, keys []uint64, blockWidth int) ([]TempNode, error) {
	n := len(keys)
	if n == 0 {
		return nil, nil
	}
	if n <= b.cfg.LeafThreshold {
		return []TempNode{{Kind: KindLeaf, Lo: 0, Hi: n}}, nil
	}

	maxNodes := 2*n - 1
	nodes := make([]TempNode, maxNodes)
	nodes[0] = TempNode{Kind: KindOpen, Lo: 0, Hi: n}

	var nodeCount atomic.Int64
	nodeCount.Store(1)

	frontier := []int32{0}
	for len(frontier) > 0 {
		var mu sync.Mutex
		var next []int32

		stream.Launch(ctx, len(frontier), blockWidth, func(_ int, lo, hi int) {
			type split struct {
				idx                              int32
				parentLo, parentHi               int
				leftLo, leftHi, rightLo, rightHi int
			}
			var splits []split

			for _, fidx := range frontier[lo:hi] {
				node := nodes[fidx]
				if node.Hi-node.Lo <= b.cfg.LeafThreshold || keys[node.Lo] == keys[node.Hi-1] {
					nodes[fidx] = TempNode{Kind: KindLeaf, Lo: node.Lo, Hi: node.Hi}
					continue
				}
				at := findSplit(keys, node.Lo, node.Hi)
				splits = append(splits, split{
					idx: fidx, parentLo: node.Lo, parentHi: node.Hi,
					leftLo: node.Lo, leftHi: at + 1,
					rightLo: at + 1, rightHi: node.Hi,
				})
			}
			if len(splits) == 0 {
				return
			}

			needed := int64(len(splits) * 2)
			base := nodeCount.Add(needed) - needed
			localNext := make([]int32, 0, len(splits)*2)
			for i, s := range splits {
				leftIdx := int32(base + int64(i*2))
				rightIdx := int32(base + int64(i*2) + 1)
				nodes[leftIdx] = TempNode{Kind: KindOpen, Lo: s.leftLo, Hi: s.leftHi}
				nodes[rightIdx] = TempNode{Kind: KindOpen, Lo: s.rightLo, Hi: s.rightHi}
				nodes[s.idx] = TempNode{Kind: KindInternal, Lo: s.parentLo, Hi: s.parentHi, Left: leftIdx, Right: rightIdx}
				localNext = append(localNext, leftIdx, rightIdx)
			}

			mu.Lock()
			next = append(next, localNext...)
			mu.Unlock()
		})

		if err := stream.Sync(ctx); err != nil {
			return nil, err
		}
		frontier = next
	}

	return nodes[:nodeCount.Load()], nil
}
