// Package vecmath provides the small vector/AABB arithmetic helpers the
// BVH builder treats as an external collaborator: construction,
// union, and centroid/size queries over D-dimensional axis-aligned
// bounding boxes. The same Box type serves the 2D, 3D, and 4D
// instantiations; dimensionality is a runtime field rather than a
// compile-time array length, since Go generics cannot parameterize an
// array length on a type parameter.
package vecmath

import "math"

// Vec is a point or direction of a fixed dimensionality.
type Vec []float64

// Clone returns an independent copy of v.
func (v Vec) Clone() Vec {
	out := make(Vec, len(v))
	copy(out, v)
	return out
}

// Box is an axis-aligned bounding box: a (Lower, Upper) pair of
// same-length points. The zero Box is not meaningful; use EmptyBox.
type Box struct {
	Lower Vec
	Upper Vec
}

// EmptyBox returns a D-dimensional box that is empty in every axis,
// suitable as the identity element for Union.
func EmptyBox(d int) Box {
	lower := make(Vec, d)
	upper := make(Vec, d)
	for i := 0; i < d; i++ {
		lower[i] = math.Inf(1)
		upper[i] = math.Inf(-1)
	}
	return Box{Lower: lower, Upper: upper}
}

// NewBox builds a Box from explicit corners. Panics if the corners
// have mismatched lengths.
func NewBox(lower, upper Vec) Box {
	if len(lower) != len(upper) {
		panic("vecmath: mismatched box dimensionality")
	}
	return Box{Lower: lower.Clone(), Upper: upper.Clone()}
}

// Dim returns the box's dimensionality.
func (b Box) Dim() int { return len(b.Lower) }

// Empty reports whether any axis has Lower > Upper.
func (b Box) Empty() bool {
	for i := range b.Lower {
		if b.Lower[i] > b.Upper[i] {
			return true
		}
	}
	return false
}

// HasNaN reports whether any coordinate is NaN. A primitive whose box
// contains NaN must be treated as empty so the key producer compacts
// it out.
func (b Box) HasNaN() bool {
	for i := range b.Lower {
		if math.IsNaN(b.Lower[i]) || math.IsNaN(b.Upper[i]) {
			return true
		}
	}
	return false
}

// Center returns 0.5*(Lower+Upper), the point used to derive a
// primitive's Morton key.
func (b Box) Center() Vec {
	c := make(Vec, len(b.Lower))
	b.CenterInto(c)
	return c
}

// CenterInto writes 0.5*(Lower+Upper) into dst, which must have length
// b.Dim(). It lets a caller source the destination from a shared
// buffer (e.g. a device.MemoryResource allocation) instead of letting
// Center allocate one per call.
func (b Box) CenterInto(dst Vec) {
	for i := range dst {
		dst[i] = 0.5 * (b.Lower[i] + b.Upper[i])
	}
}

// Size returns Upper-Lower per axis.
func (b Box) Size() Vec {
	s := make(Vec, len(b.Lower))
	for i := range s {
		s[i] = b.Upper[i] - b.Lower[i]
	}
	return s
}

// Union returns the smallest box containing both b and other. Union
// with an empty operand is the identity (the non-empty side wins),
// matching the accumulator semantics in buildstate: empty primitives
// never contribute to the centroid bounds.
func (b Box) Union(other Box) Box {
	if other.Empty() {
		return b
	}
	if b.Empty() {
		return other
	}
	out := Box{Lower: make(Vec, len(b.Lower)), Upper: make(Vec, len(b.Upper))}
	for i := range out.Lower {
		out.Lower[i] = math.Min(b.Lower[i], other.Lower[i])
		out.Upper[i] = math.Max(b.Upper[i], other.Upper[i])
	}
	return out
}

// GrowPoint returns the smallest box containing both b and p.
func (b Box) GrowPoint(p Vec) Box {
	if b.Empty() {
		return Box{Lower: p.Clone(), Upper: p.Clone()}
	}
	out := Box{Lower: make(Vec, len(b.Lower)), Upper: make(Vec, len(b.Upper))}
	for i := range out.Lower {
		out.Lower[i] = math.Min(b.Lower[i], p[i])
		out.Upper[i] = math.Max(b.Upper[i], p[i])
	}
	return out
}
