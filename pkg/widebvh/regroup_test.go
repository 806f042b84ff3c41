package widebvh

import (
	"testing"

	"github.com/lbvhgo/lbvh/internal/bfs"
	"github.com/lbvhgo/lbvh/internal/finalize"
	"github.com/lbvhgo/lbvh/pkg/refit"
	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

// buildChain builds a right-leaning binary chain of n leaves, each
// holding one primitive, so regroup has more than `width` entries to
// consider opening.
func buildChain(n int) ([]bfs.TempNode, []int32) {
	// n leaves need n-1 internal nodes in a right-leaning chain.
	nodes := make([]bfs.TempNode, 0, 2*n-1)
	primIDs := make([]int32, n)
	for i := range primIDs {
		primIDs[i] = int32(i)
	}

	// Build top-down, recording TempNodes as we go; we build the tree
	// structurally: root -> leaf[0], subroot(1..n-1); iterate.
	var build func(lo, hi int) int32
	build = func(lo, hi int) int32 {
		if hi-lo == 1 {
			nodes = append(nodes, bfs.TempNode{Kind: bfs.KindLeaf, Lo: lo, Hi: hi})
			return int32(len(nodes) - 1)
		}
		idx := int32(len(nodes))
		nodes = append(nodes, bfs.TempNode{}) // placeholder
		left := build(lo, lo+1)
		right := build(lo+1, hi)
		nodes[idx] = bfs.TempNode{Kind: bfs.KindInternal, Lo: lo, Hi: hi, Left: left, Right: right}
		return idx
	}
	build(0, n)
	return nodes, primIDs
}

func boxForPrim(i int) vecmath.Box {
	lo := float64(i)
	return vecmath.NewBox(vecmath.Vec{lo, lo}, vecmath.Vec{lo + 1, lo + 1})
}

func TestRegroup4ChildCountCapped(t *testing.T) {
	n := 6
	tempNodes, primIDs := buildChain(n)
	finalNodes, ordered, err := finalize.Finalize(tempNodes, 0, primIDs, len(primIDs))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	primBoxes := make([]vecmath.Box, n)
	for i := range primBoxes {
		primBoxes[i] = boxForPrim(i)
	}
	boxes := refit.Fill(finalNodes, ordered, primBoxes, 2)

	wide := Regroup4(finalNodes, boxes, 0)
	for i, node := range wide {
		if node.IsLeaf {
			continue
		}
		if len(node.Children) > 4 {
			t.Fatalf("node %d has %d children, want <= 4", i, len(node.Children))
		}
		if len(node.Children) < 2 {
			t.Fatalf("node %d has %d children, want >= 2", i, len(node.Children))
		}
	}
}

func TestRegroup8AllowsWiderNodes(t *testing.T) {
	n := 10
	tempNodes, primIDs := buildChain(n)
	finalNodes, ordered, err := finalize.Finalize(tempNodes, 0, primIDs, len(primIDs))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	primBoxes := make([]vecmath.Box, n)
	for i := range primBoxes {
		primBoxes[i] = boxForPrim(i)
	}
	boxes := refit.Fill(finalNodes, ordered, primBoxes, 2)

	wide := Regroup8(finalNodes, boxes, 0)
	root := wide[0]
	if root.IsLeaf {
		t.Fatal("expected root to be internal for a 10-leaf chain")
	}
	if len(root.Children) > 8 {
		t.Fatalf("root has %d children, want <= 8", len(root.Children))
	}
}

func TestRegroupPreservesAllLeaves(t *testing.T) {
	n := 5
	tempNodes, primIDs := buildChain(n)
	finalNodes, ordered, err := finalize.Finalize(tempNodes, 0, primIDs, len(primIDs))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	primBoxes := make([]vecmath.Box, n)
	for i := range primBoxes {
		primBoxes[i] = boxForPrim(i)
	}
	boxes := refit.Fill(finalNodes, ordered, primBoxes, 2)

	wide := Regroup4(finalNodes, boxes, 0)
	total := 0
	for _, node := range wide {
		if node.IsLeaf {
			total += int(node.LeafCount)
		}
	}
	if total != n {
		t.Fatalf("regrouped tree covers %d primitives, want %d", total, n)
	}
}

func TestRegroupSingleLeafRoot(t *testing.T) {
	nodes := []bfs.TempNode{{Kind: bfs.KindLeaf, Lo: 0, Hi: 1}}
	finalNodes, ordered, err := finalize.Finalize(nodes, 0, []int32{0}, 1)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	primBoxes := []vecmath.Box{boxForPrim(0)}
	boxes := refit.Fill(finalNodes, ordered, primBoxes, 2)

	wide := Regroup4(finalNodes, boxes, 0)
	if len(wide) != 1 || !wide[0].IsLeaf {
		t.Fatalf("expected single leaf node, got %+v", wide)
	}
}
