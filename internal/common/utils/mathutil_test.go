package utils

import "testing"

func TestClampInt(t *testing.T) {
	if got := ClampInt(5, 2, 8); got != 5 {
		t.Fatalf("in range: got=%d want=5", got)
	}
	if got := ClampInt(1, 2, 8); got != 2 {
		t.Fatalf("below: got=%d want=2", got)
	}
	if got := ClampInt(9, 2, 8); got != 8 {
		t.Fatalf("above: got=%d want=8", got)
	}
	if got := ClampInt(5, 8, 2); got != 5 {
		t.Fatalf("swapped bounds: got=%d want=5", got)
	}
}

func TestMinInt(t *testing.T) {
	if got := MinInt(3, 1, 2); got != 1 {
		t.Fatalf("got=%d want=1", got)
	}
	if got := MinInt(4); got != 4 {
		t.Fatalf("single: got=%d want=4", got)
	}
	if got := MinInt(); got != 0 {
		t.Fatalf("empty: got=%d want=0", got)
	}
}
