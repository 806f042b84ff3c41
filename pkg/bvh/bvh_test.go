package bvh

import (
	"context"
	"testing"

	"github.com/lbvhgo/lbvh/pkg/device"
	"github.com/lbvhgo/lbvh/pkg/parallel"
	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

func newTestStream() *device.Stream {
	return device.NewStream(parallel.DefaultPoolConfig().WithWorkers(2))
}

func box3(lx, ly, lz, ux, uy, uz float64) vecmath.Box {
	return vecmath.NewBox(vecmath.Vec{lx, ly, lz}, vecmath.Vec{ux, uy, uz})
}

// coveredPrimIDs walks every leaf in a built BVH and returns the set
// of distinct primitive IDs seen.
func coveredPrimIDs(b *BVH) map[int32]bool {
	seen := make(map[int32]bool)
	for _, n := range b.Nodes {
		if !n.IsLeaf() {
			continue
		}
		offset, count := n.LeafRange()
		for _, id := range b.PrimIDs[offset : offset+count] {
			seen[id] = true
		}
	}
	return seen
}

func TestBuildSingleton(t *testing.T) {
	stream := newTestStream()
	defer stream.Close()
	boxes := []vecmath.Box{box3(0, 0, 0, 1, 1, 1)}

	got, err := Build(context.Background(), stream, boxes, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(got.Nodes) != 1 || !got.Nodes[0].IsLeaf() {
		t.Fatalf("expected single leaf node, got %+v", got.Nodes)
	}
	offset, count := got.Nodes[0].LeafRange()
	if count != 1 {
		t.Fatalf("leaf count = %d, want 1", count)
	}
	if got.PrimIDs[offset] != 0 {
		t.Fatalf("leaf primitive id = %d, want 0", got.PrimIDs[offset])
	}
}

func TestBuildTwoWellSeparatedPoints(t *testing.T) {
	stream := newTestStream()
	defer stream.Close()
	boxes := []vecmath.Box{
		box3(0, 0, 0, 0, 0, 0),
		box3(100, 100, 100, 100, 100, 100),
	}

	got, err := Build(context.Background(), stream, boxes, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(got.Nodes) != 3 {
		t.Fatalf("expected root + two leaves (3 nodes) for two primitives at the default leaf threshold of 1: got %d nodes", len(got.Nodes))
	}
	seen := coveredPrimIDs(got)
	if !seen[0] || !seen[1] {
		t.Fatalf("not all primitives covered: %+v", seen)
	}
	root := got.Nodes[0].Box
	if root.Lower[0] != 0 || root.Upper[0] != 100 {
		t.Fatalf("root box = %+v, want to span both points", root)
	}
}

func TestBuildEmptyBoxesFilteredOut(t *testing.T) {
	stream := newTestStream()
	defer stream.Close()
	boxes := []vecmath.Box{
		box3(0, 0, 0, 1, 1, 1),
		vecmath.EmptyBox(3),
		box3(5, 5, 5, 6, 6, 6),
	}

	got, err := Build(context.Background(), stream, boxes, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	seen := coveredPrimIDs(got)
	if seen[1] {
		t.Fatalf("empty box's primitive id should never appear in a leaf: %+v", seen)
	}
	if !seen[0] || !seen[2] {
		t.Fatalf("non-empty primitives missing: %+v", seen)
	}
}

func TestBuildAllBoxesEmptyReturnsEmptyTree(t *testing.T) {
	stream := newTestStream()
	defer stream.Close()
	boxes := []vecmath.Box{vecmath.EmptyBox(3), vecmath.EmptyBox(3)}

	got, err := Build(context.Background(), stream, boxes, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(got.Nodes) != 0 {
		t.Fatalf("expected no nodes when every box is empty, got %d", len(got.Nodes))
	}
	if got.Dim != 3 {
		t.Fatalf("Dim = %d, want 3", got.Dim)
	}
}

func TestBuildAllIdenticalCenters(t *testing.T) {
	stream := newTestStream()
	defer stream.Close()
	boxes := make([]vecmath.Box, 8)
	for i := range boxes {
		boxes[i] = box3(1, 1, 1, 1, 1, 1)
	}

	got, err := Build(context.Background(), stream, boxes, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	seen := coveredPrimIDs(got)
	if len(seen) != 8 {
		t.Fatalf("expected all 8 identical-center primitives covered exactly once, got %d", len(seen))
	}
	if len(got.Nodes) != 1 || !got.Nodes[0].IsLeaf() {
		t.Fatalf("a degenerate range (all keys equal) must terminate as a single leaf regardless of size, got %d nodes: %+v", len(got.Nodes), got.Nodes)
	}
	if _, count := got.Nodes[0].LeafRange(); count != 8 {
		t.Fatalf("root leaf count = %d, want 8", count)
	}
}

func TestBuildRegularGrid(t *testing.T) {
	stream := newTestStream()
	defer stream.Close()

	var boxes []vecmath.Box
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			for z := 0; z < 4; z++ {
				fx, fy, fz := float64(x), float64(y), float64(z)
				boxes = append(boxes, box3(fx, fy, fz, fx+1, fy+1, fz+1))
			}
		}
	}

	got, err := Build(context.Background(), stream, boxes, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	seen := coveredPrimIDs(got)
	if len(seen) != 64 {
		t.Fatalf("expected all 64 grid primitives covered exactly once, got %d", len(seen))
	}
	root := got.Nodes[0].Box
	if root.Lower[0] != 0 || root.Upper[0] != 4 {
		t.Fatalf("root box x-range = [%v,%v], want [0,4]", root.Lower[0], root.Upper[0])
	}
}

func TestBuildDegenerateZAxis(t *testing.T) {
	stream := newTestStream()
	defer stream.Close()

	var boxes []vecmath.Box
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			fx, fy := float64(x), float64(y)
			boxes = append(boxes, box3(fx, fy, 0, fx+1, fy+1, 0))
		}
	}

	got, err := Build(context.Background(), stream, boxes, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	seen := coveredPrimIDs(got)
	if len(seen) != 16 {
		t.Fatalf("expected all 16 primitives covered exactly once, got %d", len(seen))
	}
	root := got.Nodes[0].Box
	if root.Lower[2] != 0 || root.Upper[2] != 0 {
		t.Fatalf("root box z-range = [%v,%v], want collapsed to [0,0]", root.Lower[2], root.Upper[2])
	}
}

// countingMemoryResource wraps a PoolResource and counts calls, so a
// test can confirm Build actually sources its scratch buffers from an
// injected device.MemoryResource rather than silently falling back to
// plain make().
type countingMemoryResource struct {
	*device.PoolResource
	allocs int
}

func (c *countingMemoryResource) AllocateUint64(n int) []uint64 {
	c.allocs++
	return c.PoolResource.AllocateUint64(n)
}

func (c *countingMemoryResource) AllocateInt32(n int) []int32 {
	c.allocs++
	return c.PoolResource.AllocateInt32(n)
}

func (c *countingMemoryResource) AllocateFloat64(n int) []float64 {
	c.allocs++
	return c.PoolResource.AllocateFloat64(n)
}

func TestBuildUsesInjectedMemoryResource(t *testing.T) {
	stream := newTestStream()
	defer stream.Close()
	boxes := []vecmath.Box{
		box3(0, 0, 0, 1, 1, 1),
		box3(5, 5, 5, 6, 6, 6),
		box3(9, 9, 9, 10, 10, 10),
	}

	mem := &countingMemoryResource{PoolResource: device.NewPoolResource(len(boxes))}
	got, err := Build(context.Background(), stream, boxes, Options{Mem: mem})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if mem.allocs == 0 {
		t.Fatal("Build never called the injected MemoryResource's Allocate* methods")
	}
	seen := coveredPrimIDs(got)
	if len(seen) != 3 {
		t.Fatalf("expected all 3 primitives covered, got %d", len(seen))
	}
}

func TestBuildUnsupportedDimensionality(t *testing.T) {
	stream := newTestStream()
	defer stream.Close()
	boxes := []vecmath.Box{vecmath.NewBox(vecmath.Vec{0}, vecmath.Vec{1})}

	_, err := Build(context.Background(), stream, boxes, Options{})
	if err == nil {
		t.Fatal("expected error for unsupported 1D dimensionality")
	}
}
