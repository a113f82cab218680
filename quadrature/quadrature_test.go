package quadrature

import (
	"math"
	"testing"
)

func TestEllGaussIntegratesUnitFunctionToArea(t *testing.T) {
	f := func(s, t float64, pars interface{}) float64 { return 1 }
	area := EllGauss(2, 1, 24, f, nil, nil)
	want := math.Pi * 2 * 1
	if math.Abs(area-want) > 1e-3*want {
		t.Errorf("EllGauss(unit) = %g want ~%g", area, want)
	}
}

func TestEllGaussIntegratesLinearRamp(t *testing.T) {
	// Integral of (1+s) over a centred disc of radius 1 is just the area,
	// since the s-term is odd and vanishes.
	f := func(s, t float64, pars interface{}) float64 { return 1 + s }
	got := EllGauss(1, 1, 24, f, nil, nil)
	want := math.Pi
	if math.Abs(got-want) > 1e-2 {
		t.Errorf("EllGauss(1+s) = %g want ~%g", got, want)
	}
}

func TestGauss2DIntegratesUnitSquareArea(t *testing.T) {
	f := func(x, y float64, pars interface{}) float64 { return 1 }
	area := Gauss2D(16, f, 0, 2, func(float64) float64 { return 0 }, func(float64) float64 { return 3 }, nil, 8, 8, nil)
	if math.Abs(area-6) > 1e-6 {
		t.Errorf("Gauss2D(unit square) = %g want 6", area)
	}
}

func TestGauss2DCurvilinearTriangleArea(t *testing.T) {
	// Triangle with base [0,2] on x and height y in [0, x]: area = 2.
	f := func(x, y float64, pars interface{}) float64 { return 1 }
	area := Gauss2D(24, f, 0, 2, func(float64) float64 { return 0 }, func(x float64) float64 { return x }, nil, 8, 16, nil)
	if math.Abs(area-2) > 1e-6 {
		t.Errorf("Gauss2D(triangle) = %g want 2", area)
	}
}

func TestGauss2DEmptyRangeIsZero(t *testing.T) {
	f := func(x, y float64, pars interface{}) float64 { return 1 }
	area := Gauss2D(8, f, 1, 1, func(float64) float64 { return 0 }, func(float64) float64 { return 1 }, nil, 4, 4, nil)
	if area != 0 {
		t.Errorf("zero-width range should integrate to 0, got %g", area)
	}
}

func TestNodesAndWeightsCached(t *testing.T) {
	x1, w1 := nodesAndWeights(10)
	x2, w2 := nodesAndWeights(10)
	if len(x1) != 10 || len(w1) != 10 {
		t.Fatalf("expected 10 nodes, got %d/%d", len(x1), len(w1))
	}
	for i := range x1 {
		if x1[i] != x2[i] || w1[i] != w2[i] {
			t.Errorf("cached nodes/weights should be identical across calls")
		}
	}
}
