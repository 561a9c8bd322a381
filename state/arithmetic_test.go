package state

import "testing"

func TestAddScaled(t *testing.T) {
	y := []Real{1, 2, 3}
	dy := []Real{1, 1, 1}
	got := AddScaled(y, Real(2), dy)
	want := []Real{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AddScaled[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAddSub(t *testing.T) {
	a := []Real{5, 6}
	b := []Real{2, 3}
	sum := Add(a, b)
	if sum[0] != 7 || sum[1] != 9 {
		t.Fatalf("Add = %v", sum)
	}
	diff := Sub(a, b)
	if diff[0] != 3 || diff[1] != 3 {
		t.Fatalf("Sub = %v", diff)
	}
}

func TestScale(t *testing.T) {
	got := Scale(Real(-2), []Real{1, -1, 2})
	want := []Real{-2, 2, -4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Scale[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMaxAbsReal(t *testing.T) {
	if got := MaxAbsReal([]Real{-3, 1, 2}); got != 3 {
		t.Fatalf("MaxAbsReal = %v, want 3", got)
	}
	if got := MaxAbsReal[Real](nil); got != 0 {
		t.Fatalf("MaxAbsReal(nil) = %v, want 0", got)
	}
}

func TestMismatchedLengthsPanic(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on mismatched lengths")
		}
	}()
	Add([]Real{1}, []Real{1, 2})
}
