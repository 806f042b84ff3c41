// Package keyproducer implements the device-side compaction kernel:
// for every primitive box, if it is non-empty and free of NaN, derive
// its centroid, quantize and encode a Morton key, and atomically claim
// a compacted output slot — so empty or degenerate primitives leave no
// gap for the sorter to deal with.
package keyproducer

import (
	"context"
	"sync/atomic"

	"github.com/lbvhgo/lbvh/pkg/device"
	"github.com/lbvhgo/lbvh/pkg/morton"
	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

// Pair is one compacted (key, primitive index) entry.
type Pair struct {
	Key    uint64
	PrimID int32
}

// Produce launches a block-parallel pass over boxes, writing one Pair
// per non-empty, non-NaN box into out at an atomically claimed slot.
// out must have length at least len(boxes). It returns the number of
// pairs actually written; the rest of out is left untouched.
func Produce(ctx context.Context, stream *device.Stream, params morton.Params, boxes []vecmath.Box, out []Pair, blockWidth int) (int, error) {
	var count atomic.Int64
	stream.Launch(ctx, len(boxes), blockWidth, func(_ int, lo, hi int) {
		for i := lo; i < hi; i++ {
			b := boxes[i]
			if b.Empty() || b.HasNaN() {
				continue
			}
			key := params.Encode(b.Center())
			slot := count.Add(1) - 1
			out[slot] = Pair{Key: key, PrimID: int32(i)}
		}
	})
	if err := stream.Sync(ctx); err != nil {
		return 0, err
	}
	return int(count.Load()), nil
}
