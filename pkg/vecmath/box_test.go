package vecmath

import (
	"math"
	"testing"
)

func TestEmptyBox(t *testing.T) {
	b := EmptyBox(3)
	if !b.Empty() {
		t.Fatal("EmptyBox should be empty")
	}
}

func TestUnionWithEmptyIsIdentity(t *testing.T) {
	b := NewBox(Vec{0, 0, 0}, Vec{1, 1, 1})
	got := b.Union(EmptyBox(3))
	for i := 0; i < 3; i++ {
		if got.Lower[i] != b.Lower[i] || got.Upper[i] != b.Upper[i] {
			t.Fatalf("union with empty box changed bounds: got %+v", got)
		}
	}
}

func TestUnionGrows(t *testing.T) {
	a := NewBox(Vec{0, 0}, Vec{1, 1})
	b := NewBox(Vec{-1, 2}, Vec{0.5, 3})
	u := a.Union(b)
	want := Box{Lower: Vec{-1, 0}, Upper: Vec{1, 3}}
	for i := 0; i < 2; i++ {
		if u.Lower[i] != want.Lower[i] || u.Upper[i] != want.Upper[i] {
			t.Fatalf("Union = %+v, want %+v", u, want)
		}
	}
}

func TestCenterAndSize(t *testing.T) {
	b := NewBox(Vec{0, 0}, Vec{2, 4})
	c := b.Center()
	if c[0] != 1 || c[1] != 2 {
		t.Fatalf("Center = %v, want [1 2]", c)
	}
	s := b.Size()
	if s[0] != 2 || s[1] != 4 {
		t.Fatalf("Size = %v, want [2 4]", s)
	}
}

func TestHasNaN(t *testing.T) {
	b := NewBox(Vec{0, math.NaN()}, Vec{1, 1})
	if !b.HasNaN() {
		t.Fatal("expected HasNaN to be true")
	}
	ok := NewBox(Vec{0, 0}, Vec{1, 1})
	if ok.HasNaN() {
		t.Fatal("expected HasNaN to be false")
	}
}

func TestGrowPoint(t *testing.T) {
	b := EmptyBox(2)
	b = b.GrowPoint(Vec{3, -1})
	b = b.GrowPoint(Vec{1, 5})
	if b.Lower[0] != 1 || b.Lower[1] != -1 || b.Upper[0] != 3 || b.Upper[1] != 5 {
		t.Fatalf("GrowPoint produced %+v", b)
	}
}
