package sorter

import "github.com/lbvhgo/lbvh/internal/keyproducer"

// RadixSorter is an LSD radix sort over the 64-bit key, 11 bits per
// pass (six passes cover all 64 bits). Each pass is a stable counting
// sort, so the composition of all six passes is a stable full sort.
type RadixSorter struct{}

const (
	radixBitsPerPass = 11
	radixBuckets     = 1 << radixBitsPerPass
	radixMask        = uint64(radixBuckets - 1)
)

func (RadixSorter) Sort(pairs []keyproducer.Pair) {
	n := len(pairs)
	if n < 2 {
		return
	}

	buf := make([]keyproducer.Pair, n)
	src, dst := pairs, buf
	passes := 0

	for shift := uint(0); shift < 64; shift += radixBitsPerPass {
		var count [radixBuckets + 1]int
		for _, p := range src {
			count[((p.Key>>shift)&radixMask)+1]++
		}
		for i := 1; i <= radixBuckets; i++ {
			count[i] += count[i-1]
		}
		for _, p := range src {
			b := (p.Key >> shift) & radixMask
			dst[count[b]] = p
			count[b]++
		}
		src, dst = dst, src
		passes++
	}

	if passes%2 != 0 {
		copy(pairs, src)
	}
}
