package brightness

import (
	"math"
	"testing"

	"github.com/stellarbin/lcmodel/ellipse"
	"github.com/stellarbin/lcmodel/shape"
)

func sphereParams() *Params {
	return &Params{
		Scale: 1.0,
		Axes:  shape.Axes{A: 1, B: 1, C: 1},
		Law:   LimbLinear,
		Coeff: [4]float64{0.6, 0, 0, 0},
	}
}

func TestEvaluateAtDiscCentreIsBrightest(t *testing.T) {
	p := sphereParams()
	centre, err := Evaluate(0, 0, p)
	if err != nil {
		t.Fatal(err)
	}
	limb, err := Evaluate(0.999, 0, p)
	if err != nil {
		t.Fatal(err)
	}
	if centre <= limb {
		t.Errorf("centre brightness %g should exceed near-limb brightness %g", centre, limb)
	}
}

func TestLimbDarkeningLinearMatchesClosedForm(t *testing.T) {
	p := sphereParams()
	b, err := Evaluate(0, 0, p)
	if err != nil {
		t.Fatal(err)
	}
	// mu=1 at disc centre for a sphere: 1 - u*(1-mu) = 1.
	if math.Abs(b-1.0) > 1e-9 {
		t.Errorf("centre brightness = %g want 1.0", b)
	}
}

func TestTabulatedLimbLawMatchesLinearLaw(t *testing.T) {
	// S6 (spec.md §8): a uniform 101-point mu-grid for u=1 linear law
	// should match the parametric linear law to 1e-5.
	const n = 101
	grid := make([]float64, n)
	for i := range grid {
		mu := float64(i) / float64(n-1)
		grid[i] = 1 - 1.0*(1-mu) // u=1 linear law
	}

	tabulated := sphereParams()
	tabulated.Law = LimbTable
	tabulated.MuGrid = grid

	linear := sphereParams()
	linear.Law = LimbLinear
	linear.Coeff = [4]float64{1.0, 0, 0, 0}

	for _, st := range []struct{ s, t float64 }{
		{0, 0}, {0.3, 0.2}, {0.7, 0.1}, {0.9, 0},
	} {
		a, err := Evaluate(st.s, st.t, tabulated)
		if err != nil {
			t.Fatal(err)
		}
		b, err := Evaluate(st.s, st.t, linear)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(a-b) > 1e-5 {
			t.Errorf("s=%g t=%g: tabulated=%g linear=%g", st.s, st.t, a, b)
		}
	}
}

func TestHeatingDisabledWhenH1NonPositive(t *testing.T) {
	p := sphereParams()
	p.HeatingH1 = 0
	p.HeatingF0 = 10
	p.HeatingH0 = 5
	p.Sep = 1
	b, err := Evaluate(0, 0, p)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := Evaluate(0, 0, sphereParams())
	if math.Abs(b-want) > 1e-9 {
		t.Errorf("heating should be a no-op when H1<=0, got %g want %g", b, want)
	}
}

func TestRVFlagScalesByLineOfSightVelocity(t *testing.T) {
	p := sphereParams()
	p.RVFlag = true
	p.VSinI = 50
	b, err := Evaluate(0.5, 0, p)
	if err != nil {
		t.Fatal(err)
	}
	plain, err := Evaluate(0.5, 0, sphereParams())
	if err != nil {
		t.Fatal(err)
	}
	if b == plain {
		t.Errorf("RV-weighted brightness should differ from plain brightness off-centre")
	}
}

func TestRegionTransformIsApplied(t *testing.T) {
	p := sphereParams()
	p.RegionTransform = &ellipse.Affine2{M: [2][2]float64{{1, 0}, {0, 1}}, T: [2]float64{0.2, 0}}
	direct, err := Evaluate(0.2, 0, sphereParams())
	if err != nil {
		t.Fatal(err)
	}
	transformed, err := Evaluate(0, 0, p)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(direct-transformed) > 1e-9 {
		t.Errorf("transformed evaluate = %g want %g", transformed, direct)
	}
}

func TestMuClippedOutsideUnitDisc(t *testing.T) {
	p := sphereParams()
	b, err := Evaluate(1.5, 0, p)
	if err != nil {
		t.Fatal(err)
	}
	// Beyond the limb, w2 clips to 0 so mu=0: brightness should equal the
	// law evaluated at mu=0, not diverge or go negative.
	if b < 0 {
		t.Errorf("brightness outside the disc should not go negative, got %g", b)
	}
}
