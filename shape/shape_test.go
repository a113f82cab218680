package shape

import (
	"math"
	"testing"
)

func TestSphereIsUndistorted(t *testing.T) {
	axes, err := Shape(Sphere, Params{FracRadius: 0.15})
	if err != nil {
		t.Fatal(err)
	}
	if axes.A != 0.15 || axes.B != 0.15 || axes.C != 0.15 || axes.D != 0 {
		t.Errorf("sphere should be undistorted, got %+v", axes)
	}
}

func TestRocheVolumeConservesVolume(t *testing.T) {
	cases := []Params{
		{FracRadius: 0.1, Separation: 1, RotFactor: 1, MassRatio: 1},
		{FracRadius: 0.2, Separation: 1, RotFactor: 1.5, MassRatio: 0.5},
		{FracRadius: 0.05, Separation: 1, RotFactor: 1, MassRatio: 2},
	}
	for _, p := range cases {
		axes, err := Shape(RocheVolume, p)
		if err != nil {
			t.Fatalf("params %+v: %v", p, err)
		}
		vol := axes.A * axes.B * axes.C
		target := p.FracRadius * p.FracRadius * p.FracRadius
		if math.Abs(vol-target) > 1e-6*target {
			t.Errorf("params %+v: volume %g want %g", p, vol, target)
		}
	}
}

func TestLoveRejectsOutOfRangeHF(t *testing.T) {
	_, err := Shape(Love, Params{FracRadius: 0.1, HF: 3.0})
	if err == nil {
		t.Error("expected error for h_f=3.0")
	}
	_, err = Shape(Love, Params{FracRadius: 0.1, HF: -0.1})
	if err == nil {
		t.Error("expected error for h_f=-0.1")
	}
}

func TestLoveAcceptsInRangeHF(t *testing.T) {
	axes, err := Shape(Love, Params{FracRadius: 0.1, RotFactor: 1, HF: 1.5})
	if err != nil {
		t.Fatal(err)
	}
	vol := axes.A * axes.B * axes.C
	target := 0.1 * 0.1 * 0.1
	if math.Abs(vol-target) > 1e-6*target {
		t.Errorf("volume %g want %g", vol, target)
	}
}

func TestPolytropeConservesVolume(t *testing.T) {
	axes, err := Shape(Polytrope, Params{FracRadius: 0.12, RotFactor: 1.2, MassRatio: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	vol := axes.A * axes.B * axes.C
	target := 0.12 * 0.12 * 0.12
	if math.Abs(vol-target) > 1e-6*target {
		t.Errorf("volume %g want %g", vol, target)
	}
}
