// Package bvh wires the quantizer, key producer, sorter, breadth-first
// expander, finalizer, and refit pass into a single Build call.
package bvh

import (
	"context"

	"github.com/lbvhgo/lbvh/internal/bfs"
	"github.com/lbvhgo/lbvh/internal/buildstate"
	"github.com/lbvhgo/lbvh/internal/finalize"
	"github.com/lbvhgo/lbvh/internal/keyproducer"
	"github.com/lbvhgo/lbvh/internal/sorter"
	"github.com/lbvhgo/lbvh/pkg/bvhconfig"
	"github.com/lbvhgo/lbvh/pkg/device"
	"github.com/lbvhgo/lbvh/pkg/errors"
	"github.com/lbvhgo/lbvh/pkg/morton"
	"github.com/lbvhgo/lbvh/pkg/refit"
	"github.com/lbvhgo/lbvh/pkg/utils"
	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

// Node is one entry of the finalized, refit binary tree: a leaf's or
// internal node's packed metadata plus its bounding box.
type Node struct {
	finalize.Node
	Box vecmath.Box
}

// BVH is the built tree: Nodes[0] is the root, and Nodes has no
// entries at all if the scene had no non-empty primitives (there is
// no empty root leaf in that case). PrimIDs is reordered so every
// leaf's [offset, offset+count) range is contiguous within it.
type BVH struct {
	Dim     int
	Nodes   []Node
	PrimIDs []int32
}

// Options configures one Build call beyond the tuning surface in
// bvhconfig.Config.
type Options struct {
	Config     bvhconfig.Config
	BlockWidth int
	Sorter     sorter.PairSorter

	// Mem supplies the scratch buffers Build allocates for centroid
	// coordinates, sorted keys, and primitive indices. Nil defaults to
	// a fresh device.PoolResource sized to len(boxes); pass a shared
	// PoolResource across builds to reuse its pooled slices, or an
	// ArenaResource for a dataset too large to keep on the Go heap.
	Mem device.MemoryResource

	// Timer, if set, records a phase for each build stage (centroid
	// bounds, key production, sort, BFS expand, finalize, refit). Pass
	// utils.NewTimer(...) to collect a per-build summary; nil disables
	// timing entirely.
	Timer *utils.Timer
	// Logger, if set, receives info and debug progress lines with
	// input/output sizes. Nil disables logging.
	Logger utils.Logger
}

const defaultBlockWidth = 256

func widthFor(dim int) (morton.Width, error) {
	switch dim {
	case 2:
		return morton.Width2, nil
	case 3:
		return morton.Width3, nil
	case 4:
		return morton.Width4, nil
	default:
		return morton.Width{}, errors.New(errors.CodeUnsupportedDim, "bvh: unsupported dimensionality")
	}
}

// Build constructs a BVH over boxes. boxes with Empty() or HasNaN()
// true are excluded from the tree entirely; if every box is excluded,
// Build returns an empty BVH and no error.
func Build(ctx context.Context, stream *device.Stream, boxes []vecmath.Box, opts Options) (*BVH, error) {
	if len(boxes) == 0 {
		return &BVH{}, nil
	}
	dim := boxes[0].Dim()
	width, err := widthFor(dim)
	if err != nil {
		return nil, err
	}

	timer := opts.Timer
	if timer == nil {
		timer = utils.NullTimer
	}
	logger := opts.Logger
	if logger == nil {
		logger = &utils.NullLogger{}
	}

	mem := opts.Mem
	if mem == nil {
		mem = device.NewPoolResource(len(boxes))
	}

	// Vec is just []float64 (see pkg/vecmath), so a flat MemoryResource
	// buffer can back every center as a sub-slice without a copy.
	flatCenters := mem.AllocateFloat64(dim * len(boxes))
	defer mem.FreeFloat64(flatCenters)
	centers := make([]vecmath.Vec, 0, len(boxes))
	for _, b := range boxes {
		if b.Empty() || b.HasNaN() {
			continue
		}
		dst := vecmath.Vec(flatCenters[len(centers)*dim : (len(centers)+1)*dim])
		b.CenterInto(dst)
		centers = append(centers, dst)
	}
	if len(centers) == 0 {
		logger.Info("bvh: all %d boxes were empty or NaN, returning empty tree", len(boxes))
		return &BVH{Dim: dim}, nil
	}

	blockWidth := opts.BlockWidth
	if blockWidth <= 0 {
		blockWidth = defaultBlockWidth
	}

	boundsPhase := timer.Start("centroid-bounds")
	acc := buildstate.NewAccumulator(dim)
	acc.Fill(ctx, stream, centers, blockWidth)
	centroidBounds, err := acc.Finish(ctx, stream)
	boundsPhase.Stop()
	if err != nil {
		return nil, errors.Wrap(errors.CodeDeviceSyncError, "bvh: centroid bounds reduction failed", err)
	}

	params := morton.NewParams(width, centroidBounds)

	keyPhase := timer.Start("key-production")
	pairs := make([]keyproducer.Pair, len(boxes))
	count, err := keyproducer.Produce(ctx, stream, params, boxes, pairs, blockWidth)
	keyPhase.Stop()
	if err != nil {
		return nil, errors.Wrap(errors.CodeDeviceSyncError, "bvh: key production failed", err)
	}
	pairs = pairs[:count]
	logger.Debug("bvh: compacted %d of %d boxes into sortable pairs", count, len(boxes))

	ps := opts.Sorter
	if ps == nil {
		ps = sorter.RadixSorter{}
	}
	sortPhase := timer.Start("sort")
	ps.Sort(pairs)
	sortPhase.Stop()

	// pairs stays a plain slice: MemoryResource's Allocate* methods are
	// enumerated per scalar element type (see pkg/device), and Pair is
	// a struct, not one of them. keys and primIDs split back out into
	// the two scalar types the rest of the build needs, so those live
	// in mem-backed buffers for the remainder of Build.
	keys := mem.AllocateUint64(len(pairs))
	defer mem.FreeUint64(keys)
	primIDs := mem.AllocateInt32(len(pairs))
	defer mem.FreeInt32(primIDs)
	for i, p := range pairs {
		keys[i] = p.Key
		primIDs[i] = p.PrimID
	}

	bfsPhase := timer.Start("bfs-expand")
	builder := bfs.NewBuilder(opts.Config)
	tempNodes, err := builder.Expand(ctx, stream, keys, blockWidth)
	bfsPhase.Stop()
	if err != nil {
		return nil, errors.Wrap(errors.CodeBuildError, "bvh: tree expansion failed", err)
	}

	finalizePhase := timer.Start("finalize")
	finalNodes, orderedPrimIDs, err := finalize.Finalize(tempNodes, 0, primIDs, len(primIDs))
	finalizePhase.Stop()
	if err != nil {
		return nil, errors.Wrap(errors.CodeBuildError, "bvh: node finalization failed", err)
	}

	refitPhase := timer.Start("refit")
	fittedBoxes := refit.Fill(finalNodes, orderedPrimIDs, boxes, dim)
	refitPhase.Stop()

	nodes := make([]Node, len(finalNodes))
	for i, n := range finalNodes {
		nodes[i] = Node{Node: n, Box: fittedBoxes[i]}
	}

	logger.Info("bvh: built %d nodes over %d primitives", len(nodes), count)
	return &BVH{Dim: dim, Nodes: nodes, PrimIDs: orderedPrimIDs}, nil
}
