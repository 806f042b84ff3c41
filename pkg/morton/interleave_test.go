package morton

import "testing"

func TestInterleave3RoundTrip(t *testing.T) {
	cases := []struct{ x, y, z uint32 }{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{0x1fffff, 0x1fffff, 0x1fffff},
		{0x155555, 0x2aaaaa, 0x0f0f0f},
	}
	for _, c := range cases {
		key := Interleave3(c.x, c.y, c.z)
		gx, gy, gz := Deinterleave3(key)
		if gx != c.x || gy != c.y || gz != c.z {
			t.Errorf("Interleave3(%d,%d,%d) round-trip got (%d,%d,%d)", c.x, c.y, c.z, gx, gy, gz)
		}
	}
}

func TestInterleave3BitPlacement(t *testing.T) {
	// bit i of x should land at bit 3i of the key.
	if got := Interleave3(1, 0, 0); got != 1 {
		t.Errorf("x bit0 -> key bit0, got %#x", got)
	}
	if got := Interleave3(2, 0, 0); got != 1<<3 {
		t.Errorf("x bit1 -> key bit3, got %#x", got)
	}
	if got := Interleave3(0, 1, 0); got != 1<<1 {
		t.Errorf("y bit0 -> key bit1, got %#x", got)
	}
	if got := Interleave3(0, 0, 1); got != 1<<2 {
		t.Errorf("z bit0 -> key bit2, got %#x", got)
	}
}

func TestInterleave3Monotonic(t *testing.T) {
	// Incrementing z (the most significant axis in the lane
	// ordering) while holding x, y fixed must not decrease the key.
	var prev uint64
	for z := uint32(0); z < 64; z++ {
		key := Interleave3(5, 9, z)
		if z > 0 && key <= prev {
			t.Fatalf("key did not increase with z: z=%d key=%#x prev=%#x", z, key, prev)
		}
		prev = key
	}
}

func TestInterleave2RoundTrip(t *testing.T) {
	cases := []struct{ x, y uint32 }{
		{0, 0}, {1, 0}, {0, 1}, {0xffffffff, 0xffffffff}, {0x12345678, 0x87654321},
	}
	for _, c := range cases {
		key := Interleave2(c.x, c.y)
		gx, gy := Deinterleave2(key)
		if gx != c.x || gy != c.y {
			t.Errorf("Interleave2(%d,%d) round-trip got (%d,%d)", c.x, c.y, gx, gy)
		}
	}
}

func TestInterleave4RoundTrip(t *testing.T) {
	cases := []struct{ x, y, z, w uint16 }{
		{0, 0, 0, 0}, {1, 0, 0, 0}, {0xffff, 0xffff, 0xffff, 0xffff}, {0x1234, 0x5678, 0x9abc, 0xdef0},
	}
	for _, c := range cases {
		key := Interleave4(c.x, c.y, c.z, c.w)
		gx, gy, gz, gw := Deinterleave4(key)
		if gx != c.x || gy != c.y || gz != c.z || gw != c.w {
			t.Errorf("Interleave4(%d,%d,%d,%d) round-trip got (%d,%d,%d,%d)", c.x, c.y, c.z, c.w, gx, gy, gz, gw)
		}
	}
}
