package device

import (
	"fmt"
	"os"
	"syscall"

	"github.com/lbvhgo/lbvh/pkg/collections"
)

// MemoryResource is a stream-ordered allocator: buffers returned by
// Allocate* become valid after the Stream that requested them has
// reached that point in its submission order, and must be returned to
// the same resource via Free* once the build no longer needs them. Go
// generics cannot parameterize an interface method, so the element
// types the builder actually needs are enumerated explicitly.
type MemoryResource interface {
	AllocateUint64(n int) []uint64
	FreeUint64(buf []uint64)
	AllocateInt32(n int) []int32
	FreeInt32(buf []int32)
	AllocateFloat64(n int) []float64
	FreeFloat64(buf []float64)
}

// PoolResource services allocations from sync.Pool-backed slice pools,
// one per element type, so repeated builds against the same resource
// reuse scratch buffers instead of going back to the allocator.
type PoolResource struct {
	u64 *collections.SlicePool[uint64]
	i32 *collections.SlicePool[int32]
	f64 *collections.SlicePool[float64]
}

// NewPoolResource creates a PoolResource whose pools are seeded with
// initialCap as their starting slice capacity.
func NewPoolResource(initialCap int) *PoolResource {
	return &PoolResource{
		u64: collections.NewSlicePool[uint64](initialCap),
		i32: collections.NewSlicePool[int32](initialCap),
		f64: collections.NewSlicePool[float64](initialCap),
	}
}

func (p *PoolResource) AllocateUint64(n int) []uint64 {
	s := p.u64.Get()
	*s = grow(*s, n)
	return *s
}

func (p *PoolResource) FreeUint64(buf []uint64) { p.u64.Put(&buf) }

func (p *PoolResource) AllocateInt32(n int) []int32 {
	s := p.i32.Get()
	*s = grow(*s, n)
	return *s
}

func (p *PoolResource) FreeInt32(buf []int32) { p.i32.Put(&buf) }

func (p *PoolResource) AllocateFloat64(n int) []float64 {
	s := p.f64.Get()
	*s = grow(*s, n)
	return *s
}

func (p *PoolResource) FreeFloat64(buf []float64) { p.f64.Put(&buf) }

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		s = make([]T, n)
	}
	return s[:n]
}

// ArenaResource allocates its buffers from a single memory-mapped
// anonymous region instead of the Go heap, for datasets too large to
// keep resident via ordinary allocation. It never frees back to the OS
// until Close; Free* is a no-op bookkeeping call.
type ArenaResource struct {
	data []byte
	off  int
}

// NewArenaResource mmaps size bytes of anonymous, read/write memory.
func NewArenaResource(size int) (*ArenaResource, error) {
	pageSize := os.Getpagesize()
	size = ((size + pageSize - 1) / pageSize) * pageSize
	if size == 0 {
		size = pageSize
	}
	data, err := syscall.Mmap(-1, 0, size,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_ANON|syscall.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("device: mmap arena: %w", err)
	}
	return &ArenaResource{data: data}, nil
}

func (a *ArenaResource) AllocateUint64(n int) []uint64 {
	buf := a.take(n * 8)
	return asSlice[uint64](buf, n)
}

func (a *ArenaResource) FreeUint64([]uint64) {}

func (a *ArenaResource) AllocateInt32(n int) []int32 {
	buf := a.take(n * 4)
	return asSlice[int32](buf, n)
}

func (a *ArenaResource) FreeInt32([]int32) {}

func (a *ArenaResource) AllocateFloat64(n int) []float64 {
	buf := a.take(n * 8)
	return asSlice[float64](buf, n)
}

func (a *ArenaResource) FreeFloat64([]float64) {}

func (a *ArenaResource) take(nbytes int) []byte {
	if a.off+nbytes > len(a.data) {
		panic("device: arena exhausted")
	}
	buf := a.data[a.off : a.off+nbytes]
	a.off += nbytes
	return buf
}

// Close unmaps the arena's backing memory. All slices it handed out
// become invalid.
func (a *ArenaResource) Close() error {
	return syscall.Munmap(a.data)
}
