// Package sorter provides the builder's sort-by-key collaborator: any
// type that can put a slice of (key, primID) pairs into ascending key
// order may be plugged in in place of the built-in radix sorter.
package sorter

import "github.com/lbvhgo/lbvh/internal/keyproducer"

// PairSorter sorts pairs ascending by Key in place. Pairs that share
// a key may land in either relative order — the build's correctness
// depends only on key ordering, never on primID tie-break order.
type PairSorter interface {
	Sort(pairs []keyproducer.Pair)
}
