package sorter

import (
	"sort"

	"github.com/lbvhgo/lbvh/internal/keyproducer"
)

// StdSorter is the trivial correct reference sorter, backed by the
// standard library's introsort. Useful as a baseline to check
// RadixSorter against, or when a dataset is too small for radix
// overhead to pay off.
type StdSorter struct{}

func (StdSorter) Sort(pairs []keyproducer.Pair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
}
