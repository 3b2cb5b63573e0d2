package gen

import "testing"

func TestFloorDivMod(t *testing.T) {
	if got := FloorDiv(-1, 16); got != -1 {
		t.Fatalf("FloorDiv(-1,16)=%d", got)
	}
	if got := Mod(-1, 16); got != 15 {
		t.Fatalf("Mod(-1,16)=%d", got)
	}
	if got := FloorDiv(17, 16); got != 1 {
		t.Fatalf("FloorDiv(17,16)=%d", got)
	}
}

func TestSurfaceYWithinBounds(t *testing.T) {
	for x := -20; x < 20; x++ {
		y := SurfaceY(42, x, -x, 32)
		if y < 2 || y > 30 {
			t.Fatalf("surface out of range at x=%d: %d", x, y)
		}
	}
}

func TestInVeinDeterministic(t *testing.T) {
	hits := 0
	for x := 0; x < 32; x++ {
		for y := 0; y < 16; y++ {
			a := InVein(9, x, y, 3, 8, 2, 500)
			if a != InVein(9, x, y, 3, 8, 2, 500) {
				t.Fatalf("InVein not deterministic at (%d,%d)", x, y)
			}
			if a {
				hits++
			}
		}
	}
	if hits == 0 {
		t.Fatalf("expected some vein blocks at 50%% cell probability")
	}
	if InVein(9, 0, 0, 0, 8, 2, 0) {
		t.Fatalf("zero probability must never place a vein")
	}
}
