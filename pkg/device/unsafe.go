package device

import "unsafe"

// asSlice reinterprets the first n*sizeof(T) bytes of buf as a []T,
// mirroring how a CUDA allocation's raw bytes are cast to a typed
// device pointer.
func asSlice[T any](buf []byte, n int) []T {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), n)
}
