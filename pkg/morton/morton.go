// Package morton implements the fixed-point quantizer and the Morton
// (Z-order) key encoder, parameterized by the dimension-specific
// per-axis bit width (21 bits for 3D, 32 for 2D, 16 for 4D).
package morton

import (
	"math"

	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

// Width describes the per-axis quantization grid for one
// dimensionality: BitsPerAxis determines both the quantized range
// [0, 2^BitsPerAxis) and, for 3D, the bit-interleave stage table used
// by Interleave3.
type Width struct {
	Dims        int
	BitsPerAxis uint
}

var (
	// Width2 is the 2D instantiation: 32 bits/axis packed into a
	// 64-bit key.
	Width2 = Width{Dims: 2, BitsPerAxis: 32}
	// Width3 is the primary 3D instantiation: 21 bits/axis packed
	// into the low 63 bits of a 64-bit key.
	Width3 = Width{Dims: 3, BitsPerAxis: 21}
	// Width4 is the 4D instantiation: 16 bits/axis.
	Width4 = Width{Dims: 4, BitsPerAxis: 16}
)

// maxQuantized is the inclusive-exclusive clamp upper bound for a
// given bit width: 2^bits - 1.
func maxQuantized(bits uint) uint64 {
	return (uint64(1) << bits) - 1
}

// Params is the bias/scale pair derived from the centroid bounds:
// bias is the centroid-bounds lower corner, scale maps the
// centroid-bounds size onto the quantization grid with a 1e-20 floor
// to keep scale finite when an axis has collapsed to zero extent.
type Params struct {
	Width Width
	Bias  vecmath.Vec
	Scale vecmath.Vec
}

// floorEpsilon is the minimum per-axis centroid-bounds extent; below
// it scale would be infinite, so it is floored instead.
const floorEpsilon = 1e-20

// NewParams derives quantizer parameters from the accumulated
// centroid bounds of all non-empty primitives.
func NewParams(width Width, centroidBounds vecmath.Box) Params {
	bias := centroidBounds.Lower.Clone()
	size := centroidBounds.Size()
	scale := make(vecmath.Vec, width.Dims)
	grid := float64(uint64(1) << width.BitsPerAxis)
	for i := 0; i < width.Dims; i++ {
		extent := size[i]
		if extent < floorEpsilon {
			extent = floorEpsilon
		}
		scale[i] = grid / extent
	}
	return Params{Width: width, Bias: bias, Scale: scale}
}

// Quantize maps a centroid p onto the integer lattice: per axis,
// clamp(floor((p-bias)*scale), 0, 2^bits-1). The clamp's upper bound
// guards the upper-corner primitive, whose quantized value would
// otherwise land exactly on 2^bits.
func (pm Params) Quantize(p vecmath.Vec) []uint64 {
	q := make([]uint64, pm.Width.Dims)
	top := maxQuantized(pm.Width.BitsPerAxis)
	for i := 0; i < pm.Width.Dims; i++ {
		v := math.Floor((p[i] - pm.Bias[i]) * pm.Scale[i])
		switch {
		case v < 0:
			q[i] = 0
		case v >= float64(top)+1:
			q[i] = top
		default:
			u := uint64(v)
			if u > top {
				u = top
			}
			q[i] = u
		}
	}
	return q
}

// Encode quantizes p and interleaves the result into a single Morton
// key using the dimension's bit width.
func (pm Params) Encode(p vecmath.Vec) uint64 {
	q := pm.Quantize(p)
	switch pm.Width.Dims {
	case 2:
		return Interleave2(uint32(q[0]), uint32(q[1]))
	case 3:
		return Interleave3(uint32(q[0]), uint32(q[1]), uint32(q[2]))
	case 4:
		return Interleave4(uint16(q[0]), uint16(q[1]), uint16(q[2]), uint16(q[3]))
	default:
		panic("morton: unsupported dimensionality")
	}
}
