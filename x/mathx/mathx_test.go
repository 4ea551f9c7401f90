package mathx

import "testing"

func TestClampInt32(t *testing.T) {
	cases := []struct{ v, lo, hi, want int32 }{
		{-5, 0, 10, 0},
		{5, 0, 10, 5},
		{15, 0, 10, 10},
		{5, 10, 0, 5}, // swapped bounds
		{-2147483648, 0, 419430400, 0},
		{2147483647, 0, 419430400, 419430400},
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Fatalf("Clamp(%d,%d,%d) = %d, want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestCeilAndRoundDiv(t *testing.T) {
	if got := CeilDiv[uint32](112800, 1000); got != 113 {
		t.Fatalf("CeilDiv = %d, want 113", got)
	}
	if got := CeilDiv[uint32](113000, 1000); got != 113 {
		t.Fatalf("CeilDiv exact = %d, want 113", got)
	}
	if got := CeilDiv[uint32](1, 0); got != 0 {
		t.Fatalf("CeilDiv by zero = %d, want 0", got)
	}
	if got := RoundDiv[uint32](25767233, 256); got != 100653 {
		t.Fatalf("RoundDiv = %d, want 100653", got)
	}
	if got := RoundDiv[uint32](384, 256); got != 2 {
		t.Fatalf("RoundDiv half = %d, want 2", got)
	}
}

func TestBetween(t *testing.T) {
	if !Between(5, 10, 0) || Between(11, 0, 10) || !Between[uint8](1, 1, 5) {
		t.Fatal("Between")
	}
}
