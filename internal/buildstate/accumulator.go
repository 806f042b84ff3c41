// Package buildstate holds the device-resident reduction that turns
// per-primitive centroids into the single centroid-bounds box the
// Morton quantizer needs before any key can be produced.
package buildstate

import (
	"context"
	"math"

	"github.com/lbvhgo/lbvh/pkg/device"
	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

// Accumulator reduces per-primitive centroids into a single global
// centroid-bounds box. Each block first folds its own range into a
// block-local min/max, then performs exactly one atomic update per
// axis into the shared global bounds, keeping contention to one CAS
// loop per block per axis instead of one per primitive.
type Accumulator struct {
	dim   int
	lower []orderedFloat
	upper []orderedFloat
}

// NewAccumulator allocates an accumulator for the given dimensionality
// and resets it to the empty-box identity.
func NewAccumulator(dim int) *Accumulator {
	a := &Accumulator{
		dim:   dim,
		lower: make([]orderedFloat, dim),
		upper: make([]orderedFloat, dim),
	}
	a.Clear()
	return a
}

// Clear resets the accumulator to +Inf/-Inf per axis, the identity
// element for Union.
func (a *Accumulator) Clear() {
	for i := 0; i < a.dim; i++ {
		a.lower[i].store(math.Inf(1))
		a.upper[i].store(math.Inf(-1))
	}
}

// Fill launches a block-parallel reduction over centers, which must
// already have empty primitives excluded. It returns once the launch
// is queued; call Finish to wait for it.
func (a *Accumulator) Fill(ctx context.Context, stream *device.Stream, centers []vecmath.Vec, blockWidth int) {
	stream.Launch(ctx, len(centers), blockWidth, func(_ int, lo, hi int) {
		if hi <= lo {
			return
		}
		localLower := make([]float64, a.dim)
		localUpper := make([]float64, a.dim)
		for i := range localLower {
			localLower[i] = math.Inf(1)
			localUpper[i] = math.Inf(-1)
		}
		for _, c := range centers[lo:hi] {
			for i := 0; i < a.dim; i++ {
				if c[i] < localLower[i] {
					localLower[i] = c[i]
				}
				if c[i] > localUpper[i] {
					localUpper[i] = c[i]
				}
			}
		}
		for i := 0; i < a.dim; i++ {
			a.lower[i].atomicMin(localLower[i])
			a.upper[i].atomicMax(localUpper[i])
		}
	})
}

// Finish waits for every Fill launch submitted to stream so far and
// returns the accumulated centroid bounds.
func (a *Accumulator) Finish(ctx context.Context, stream *device.Stream) (vecmath.Box, error) {
	if err := stream.Sync(ctx); err != nil {
		return vecmath.Box{}, err
	}
	return a.HostMirror(), nil
}

// HostMirror reads the accumulator's current state without waiting on
// any launch still in flight.
func (a *Accumulator) HostMirror() vecmath.Box {
	lower := make(vecmath.Vec, a.dim)
	upper := make(vecmath.Vec, a.dim)
	for i := 0; i < a.dim; i++ {
		lower[i] = a.lower[i].load()
		upper[i] = a.upper[i].load()
	}
	return vecmath.Box{Lower: lower, Upper: upper}
}
