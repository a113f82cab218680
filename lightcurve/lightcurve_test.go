package lightcurve

import (
	"bytes"
	"math"
	"testing"

	"github.com/stellarbin/lcmodel/brightness"
	"github.com/stellarbin/lcmodel/constants"
	"github.com/stellarbin/lcmodel/quadrature"
	"github.com/stellarbin/lcmodel/shape"
)

func baseParams() *BinaryParameters {
	return &BinaryParameters{
		T0: 0, P: 1,
		SurfaceBrightnessRatio: 0.5,
		R1:                     0.1, R2: 0.1,
		Inclination0: math.Pi / 2,
		MassRatio:    1,
		LimbCoeff1:   [4]float64{0, 0, 0, 0},
		LimbCoeff2:   [4]float64{0, 0, 0, 0},
		// H1 positive disables the simple-reflection branch; H0 defaults to
		// 0 so the heating model stays inert regardless, isolating the
		// eclipse/quadrature behaviour under test.
		H1_1: 1, H1_2: 1,
	}
}

func baseControl() *ControlIntegers {
	return &ControlIntegers{NGrid1: 24, NGrid2: 24}
}

func TestNormalizeProducesPositiveFnorm(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	norm, err := Normalize(bp, ci, nil)
	if err != nil {
		t.Fatal(err)
	}
	if norm.Fnorm <= 0 {
		t.Errorf("fnorm = %g, want positive", norm.Fnorm)
	}
	if norm.Anorm1 <= 0 || norm.Anorm2 <= 0 {
		t.Errorf("anorm1=%g anorm2=%g, want positive", norm.Anorm1, norm.Anorm2)
	}
}

func TestFluxEclipseFlagAtConjunction(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	norm, err := Normalize(bp, ci, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Flux(bp, ci, nil, nil, norm, bp.T0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Flags&FlagEclipse == 0 {
		t.Error("expected the eclipse bit at conjunction (t=T0)")
	}
	if res.Flags&FlagStar1Eclipsed == 0 {
		t.Errorf("expected star1_eclipsed at t=T0, flags=%v", res.Flags)
	}
}

func TestFluxNoEclipseAtQuadrature(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	norm, err := Normalize(bp, ci, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Flux(bp, ci, nil, nil, norm, bp.T0+bp.P/4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Flags&FlagEclipse != 0 {
		t.Errorf("did not expect the eclipse bit at quadrature, flags=%v", res.Flags)
	}
}

func TestFluxStar2EclipsedHalfPeriodLater(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	norm, err := Normalize(bp, ci, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Flux(bp, ci, nil, nil, norm, bp.T0+bp.P/2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Flags&FlagStar2Eclipsed == 0 {
		t.Errorf("expected star2_eclipsed half a period after conjunction, flags=%v", res.Flags)
	}
}

func TestFluxDipsDuringEclipse(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	norm, err := Normalize(bp, ci, nil)
	if err != nil {
		t.Fatal(err)
	}
	atEclipse, err := Flux(bp, ci, nil, nil, norm, bp.T0, nil)
	if err != nil {
		t.Fatal(err)
	}
	atQuadrature, err := Flux(bp, ci, nil, nil, norm, bp.T0+bp.P/4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if atEclipse.TotalFlux >= atQuadrature.TotalFlux {
		t.Errorf("flux at conjunction (%g) should be lower than at quadrature (%g)", atEclipse.TotalFlux, atQuadrature.TotalFlux)
	}
}

// Property 4 (spec.md §8): outside any eclipse, flux_3/(flux_1+flux_2+
// flux_3) equals l3 exactly, since flux_3 is derived from it. Checked at
// quadrature (t=T0+P/4), since this geometry is in eclipse at t=T0.
func TestThirdLightIdentity(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	bp.L3 = 0.2
	norm, err := Normalize(bp, ci, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Flux(bp, ci, nil, nil, norm, bp.T0+bp.P/4, nil)
	if err != nil {
		t.Fatal(err)
	}
	flux12 := res.Flux1 + res.Flux2
	got := (res.TotalFlux - flux12) / res.TotalFlux
	if math.Abs(got-bp.L3) > 1e-9 {
		t.Errorf("flux_3 fraction = %g want %g", got, bp.L3)
	}
}

func TestFluxBatchMatchesSequential(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	norm, err := Normalize(bp, ci, nil)
	if err != nil {
		t.Fatal(err)
	}
	times := []float64{0, 0.1, 0.25, 0.4, 0.5, 0.75}

	seq := make([]ObservationResult, len(times))
	for i, tt := range times {
		seq[i], err = Flux(bp, ci, nil, nil, norm, tt, nil)
		if err != nil {
			t.Fatal(err)
		}
	}

	batch, err := FluxBatch(bp, ci, nil, nil, norm, times, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range times {
		if math.Abs(seq[i].TotalFlux-batch[i].TotalFlux) > 1e-12 {
			t.Errorf("time %g: sequential=%g batch=%g", times[i], seq[i].TotalFlux, batch[i].TotalFlux)
		}
		if seq[i].Flags != batch[i].Flags {
			t.Errorf("time %g: flags differ between sequential and batch", times[i])
		}
	}
}

func TestRVOpposingSignsAtConjunction(t *testing.T) {
	bp := baseParams()
	bp.A = 1.0 // solar radii, enables velocity/light-time

	rv1, rv2, err := RV(bp, bp.T0)
	if err != nil {
		t.Fatal(err)
	}
	if rv1 <= 0 || rv2 >= 0 {
		t.Errorf("expected opposing-sign radial velocities at conjunction, got rv1=%g rv2=%g", rv1, rv2)
	}
	if math.Abs(math.Abs(rv1)-math.Abs(rv2)) > 0.01*math.Abs(rv1) {
		t.Errorf("equal-mass stars should show near-equal rv magnitudes, got rv1=%g rv2=%g", rv1, rv2)
	}
}

func TestRVZeroWhenSemiMajorAxisNonPositive(t *testing.T) {
	bp := baseParams() // A left at zero value
	rv1, rv2, err := RV(bp, bp.T0)
	if err != nil {
		t.Fatal(err)
	}
	if rv1 != 0 || rv2 != 0 {
		t.Errorf("a<=0 should disable velocity output, got rv1=%g rv2=%g", rv1, rv2)
	}
}

func TestRVBatchMatchesSequential(t *testing.T) {
	bp := baseParams()
	bp.A = 1.0
	times := []float64{0, 0.1, 0.3, 0.6}

	seq := make([][2]float64, len(times))
	for i, tt := range times {
		rv1, rv2, err := RV(bp, tt)
		if err != nil {
			t.Fatal(err)
		}
		seq[i] = [2]float64{rv1, rv2}
	}

	batch, err := RVBatch(bp, times, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range times {
		if seq[i] != batch[i] {
			t.Errorf("time %g: sequential=%v batch=%v", times[i], seq[i], batch[i])
		}
	}
}

func TestFluxWithSpotLowersFlux(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	norm, err := Normalize(bp, ci, nil)
	if err != nil {
		t.Fatal(err)
	}
	t1 := bp.T0 + bp.P/4
	plain, err := Flux(bp, ci, nil, nil, norm, t1, nil)
	if err != nil {
		t.Fatal(err)
	}
	spotted, err := Flux(bp, ci, []Spot{{LatDeg: 0, LonDeg: 0, GammaDeg: 10, Brightness: 0}}, nil, norm, t1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if spotted.TotalFlux >= plain.TotalFlux {
		t.Errorf("a dark sub-observer spot should lower total flux: plain=%g spotted=%g", plain.TotalFlux, spotted.TotalFlux)
	}
}

// A bright spot on the far (eclipsed) star at total eclipse must cancel
// between its unobstructed modulation (spotFlux) and its eclipsed
// modulation (spotEclFlux), leaving the eclipsed star's flux unaffected by
// the spot entirely. Before the sign fix (review comment 1) a bright spot
// (df>1) produced a visible, wrong, unclamped residual here instead.
func TestFluxSpotCancelsDuringTotalEclipse(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	norm, err := Normalize(bp, ci, nil)
	if err != nil {
		t.Fatal(err)
	}

	plain, err := Flux(bp, ci, nil, nil, norm, bp.T0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if plain.Flags&FlagEclipse == 0 || plain.Flags&FlagStar1Eclipsed == 0 {
		t.Fatalf("expected star1 eclipsed at t=T0, flags=%v", plain.Flags)
	}

	spotted, err := Flux(bp, ci, []Spot{{LatDeg: 0, LonDeg: 0, GammaDeg: 20, Brightness: 2}}, nil, norm, bp.T0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(spotted.TotalFlux-plain.TotalFlux) > 1e-6 {
		t.Errorf("a spot on the fully eclipsed star should not change total flux: plain=%g spotted=%g", plain.TotalFlux, spotted.TotalFlux)
	}
}

func TestFluxRocheLimitViolationSetsErrorFlag(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	bp.R1 = 0.5 // well past roche_L1(q=1,F=1)*(1-e) ~= 0.379
	norm := Normalization{Anorm1: 1, Anorm2: 1, Fnorm: 1}
	res, err := Flux(bp, ci, nil, nil, norm, bp.T0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Flags&FlagError == 0 {
		t.Errorf("a radius beyond the Roche limit should raise the error bit, got flags=%v", res.Flags)
	}
	if res.TotalFlux != constants.BadDble || res.Flux1 != constants.BadDble || res.RV1 != constants.BadDble {
		t.Errorf("a Roche-limit violation should fill every output with constants.BadDble, got %+v", res)
	}
}

func TestFluxInvalidLoveNumberSetsErrorFlag(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	ci.ShapeModel1 = shape.Love
	bp.HF1 = -1 // out of [0, 2.5]
	norm := Normalization{Anorm1: 1, Anorm2: 1, Fnorm: 1}
	res, err := Flux(bp, ci, nil, nil, norm, bp.T0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Flags&FlagError == 0 {
		t.Errorf("an out-of-range Love number should raise the error bit, got flags=%v", res.Flags)
	}
	if res.TotalFlux != constants.BadDble {
		t.Errorf("TotalFlux = %g, want constants.BadDble", res.TotalFlux)
	}
}

func TestThirdLightDilutesOnlyPinsFlux3DuringEclipse(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	bp.L3 = 0.2
	norm, err := Normalize(bp, ci, nil)
	if err != nil {
		t.Fatal(err)
	}

	bp.ThirdLightDilutesOnly = true
	pinned, err := Flux(bp, ci, nil, nil, norm, bp.T0, nil)
	if err != nil {
		t.Fatal(err)
	}

	bp.ThirdLightDilutesOnly = false
	recomputed, err := Flux(bp, ci, nil, nil, norm, bp.T0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if pinned.TotalFlux <= recomputed.TotalFlux {
		t.Errorf("pinning flux3 at its T0 value should leave more total flux during eclipse than recomputing it from the dimmed disc: pinned=%g recomputed=%g", pinned.TotalFlux, recomputed.TotalFlux)
	}
}

func TestEclipseMinimumTimeShiftZeroWhenSemiMajorAxisNonPositive(t *testing.T) {
	bp := baseParams() // A left at zero value
	primary, secondary, err := EclipseMinimumTimeShift(bp)
	if err != nil {
		t.Fatal(err)
	}
	if primary != 0 || secondary != 0 {
		t.Errorf("a<=0 should disable the light-time shift, got primary=%g secondary=%g", primary, secondary)
	}
}

func TestEclipseMinimumTimeShiftNonZeroWithLightTimeAndEccentricity(t *testing.T) {
	bp := baseParams()
	bp.A = 1.0
	bp.SqrtEcosOmega = math.Sqrt(0.3)
	primary, secondary, err := EclipseMinimumTimeShift(bp)
	if err != nil {
		t.Fatal(err)
	}
	if primary == 0 && secondary == 0 {
		t.Error("expected a nonzero light-time shift with a>0 and e>0")
	}
}

func TestFluxInvalidShapeModelReportsFailure(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	ci.ShapeModel1 = shape.Model(99)
	norm := Normalization{Anorm1: 1, Anorm2: 1, Fnorm: 1}
	res, err := Flux(bp, ci, nil, nil, norm, bp.T0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Flags&FlagFail == 0 {
		t.Errorf("an unknown shape model should raise the fail bit, got flags=%v", res.Flags)
	}
}

func TestSimpleReflectionDisabledByPositiveH1(t *testing.T) {
	bp := baseParams()
	geo := geometry{Theta1: 0.3, Theta2: 3.4, Inclination: math.Pi / 2}
	geo.State1.R, geo.State2.R = 1, 1
	refl1, refl2 := simpleReflection(bp, geo)
	if refl1 != 0 || refl2 != 0 {
		t.Errorf("H1>0 should disable simple reflection, got refl1=%g refl2=%g", refl1, refl2)
	}

	bp.H1_1, bp.H1_2 = 0, 0
	refl1, refl2 = simpleReflection(bp, geo)
	if refl1 == 0 || refl2 == 0 {
		t.Error("H1<=0 should enable simple reflection")
	}
}

func TestObservationResultColumns(t *testing.T) {
	res := ObservationResult{TotalFlux: 1, Flux1: 0.6, Flux2: 0.4, RV1: 10, RV2: -10, Flags: FlagEclipse}
	cols := res.Columns()
	want := [6]float64{1, 0.6, 0.4, 10, -10, float64(FlagEclipse)}
	if cols != want {
		t.Errorf("Columns() = %v, want %v", cols, want)
	}
}

func TestFluxVerboseWarnDiagnostic(t *testing.T) {
	bp, ci := baseParams(), baseControl()
	ci.ShapeModel1 = shape.Model(99)
	norm := Normalization{Anorm1: 1, Anorm2: 1, Fnorm: 1}

	var buf bytes.Buffer
	v := &quadrature.Verbose{W: &buf, Level: Warn}
	if _, err := Flux(bp, ci, nil, nil, norm, bp.T0, v); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("expected a diagnostic line at Warn level when the fail flag is set")
	}
}

var _ = brightness.Params{} // package referenced transitively through geometry; kept for clarity of intent in this test file
