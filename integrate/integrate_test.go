package integrate

import (
	"math"
	"testing"

	"github.com/stellarbin/lcmodel/ellipse"
)

func TestPartialAreaMatchesLensFormula(t *testing.T) {
	e1 := ellipse.NewCircle(1, 0, 0)
	e2 := ellipse.NewCircle(1, 1, 0)

	unit := func(u, v float64, pars interface{}) float64 { return 1 }
	res, err := Partial(e1, e2, unit, nil, 32, 8, 24, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Lens area of two unit circles one radius apart.
	want := 2*math.Acos(0.5) - 0.5*math.Sqrt(3)
	if math.Abs(res.Area-want) > 0.05 {
		t.Errorf("lens area = %g want ~%g", res.Area, want)
	}
}

func TestPartialFluxOfUnitFunctionEqualsArea(t *testing.T) {
	e1 := ellipse.NewCircle(1, 0, 0)
	e2 := ellipse.NewCircle(0.8, 0.9, 0.1)

	unit := func(u, v float64, pars interface{}) float64 { return 1 }
	res, err := Partial(e1, e2, unit, nil, 32, 8, 24, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(res.Flux-res.Area) > 1e-9 {
		t.Errorf("flux of the unit function should equal area, got flux=%g area=%g", res.Flux, res.Area)
	}
}

func TestPartialRejectsNonTwoIntersection(t *testing.T) {
	e1 := ellipse.NewCircle(1, 0, 0)
	e2 := ellipse.NewCircle(1, 10, 0) // disjoint
	unit := func(u, v float64, pars interface{}) float64 { return 1 }
	_, err := Partial(e1, e2, unit, nil, 16, 4, 16, nil)
	if err == nil {
		t.Error("expected an error for disjoint ellipses")
	}
}

func TestNodeCountScalesWithChordLength(t *testing.T) {
	if got := nodeCount(32, 2.0, 1.0); got != 32 {
		t.Errorf("full chord should use full node count, got %d", got)
	}
	if got := nodeCount(32, 0.1, 1.0); got >= 32 {
		t.Errorf("short chord should reduce node count, got %d", got)
	}
	if got := nodeCount(32, 0.0001, 1.0); got < 4 {
		t.Errorf("node count should never fall below the floor, got %d", got)
	}
}

func TestChordGLimitBoundsUnitCircle(t *testing.T) {
	e := ellipse.NewCircle(1, 0, 0)
	lo := chordGLimit(e, BranchLower)
	hi := chordGLimit(e, BranchUpper)
	if math.Abs(lo(0)+1) > 1e-9 || math.Abs(hi(0)-1) > 1e-9 {
		t.Errorf("at f=0 expected g in [-1,1], got lo=%g hi=%g", lo(0), hi(0))
	}
}
