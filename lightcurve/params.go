// Package lightcurve is the eclipse orchestrator / main loop: it propagates
// the orbit, rebuilds each star's triaxial shape, projects both stars onto
// the sky, classifies the eclipse, integrates flux (and radial velocity,
// if requested) over the visible/eclipsed regions, folds in spot
// modulation, applies simple reflection and Doppler boosting, and
// normalizes the result, exactly as spec.md §4.8 lists the twelve steps.
//
// It also exposes a radial-velocity-only fast path (§4.9) that bypasses all
// flux integration.
package lightcurve

import (
	"math"

	"github.com/stellarbin/lcmodel/brightness"
	"github.com/stellarbin/lcmodel/shape"
	"github.com/stellarbin/lcmodel/spot"
)

// BinaryParameters is the 39-scalar parameter block of spec.md §3, listed
// here in the same positional order the source documentation uses.
type BinaryParameters struct {
	T0 float64 // epoch
	P  float64 // anomalistic period

	SurfaceBrightnessRatio float64 // S2/S1

	R1 float64 // fractional radius, star 1 (units of a)
	R2 float64 // fractional radius, star 2

	Inclination0 float64 // i0, radians
	L3           float64 // third-light fraction

	A float64 // semi-major axis, solar radii; <=0 disables velocity/light-time

	SqrtEcosOmega float64 // sqrt(e)*cos(omega)
	SqrtEsinOmega float64 // sqrt(e)*sin(omega)

	MassRatio float64 // q = m2/m1

	LimbCoeff1 [4]float64
	LimbCoeff2 [4]float64

	GravityDarkeningBeta1 float64
	GravityDarkeningBeta2 float64

	DIDt     float64 // inclination drift
	DOmegaDt float64 // apsidal motion

	F1 float64 // star 1 asynchronous rotation factor
	F2 float64

	KBoost1 float64 // Doppler boosting factors
	KBoost2 float64

	H0_1 float64 // heating coefficients, star 1
	H1_1 float64 // <=0 disables heating (simple reflection used instead)
	UH1  float64

	H0_2 float64 // heating coefficients, star 2
	H1_2 float64
	UH2  float64

	Lambda1 float64 // spin-orbit misalignment angles
	Lambda2 float64

	VSinI1 float64 // projected equatorial rotation velocities
	VSinI2 float64

	HF1 float64 // fluid Love number, star 1
	// HF2 is the fluid Love number for star 2. The source documentation
	// marks both slot 38 and slot 39 as star 1's h_f; slot 39 is actually
	// read as star 2's, and that positional semantic is authoritative here
	// (spec.md §9 Open Questions) — this is reproduced, not corrected.
	HF2 float64

	// ThirdLightDilutesOnly mirrors ellc's ld_3 option (added, see
	// SPEC_FULL.md §4.8): when set, the third-light contribution used in
	// Flux is pinned to its t=T0 value (Normalization.Flux3) rather than
	// recomputed from the current, possibly-eclipsed flux1+flux2 — third
	// light comes from a source outside the modeled binary, so it should
	// not dim when the two stars eclipse each other. This excludes it from
	// the exact fnorm identity of testable property 4, which assumes flux_3
	// is always re-derived from the current flux1+flux2. Default false
	// preserves spec.md's exact property-4 semantics.
	ThirdLightDilutesOnly bool
}

// Eccentricity and argument of periastron, recovered from the
// (sqrt(e)*cos(omega), sqrt(e)*sin(omega)) pair BinaryParameters stores.
func (bp *BinaryParameters) eccentricity() (e, omega float64) {
	ce, se := bp.SqrtEcosOmega, bp.SqrtEsinOmega
	e = ce*ce + se*se
	if e == 0 {
		return 0, 0
	}
	omega = math.Atan2(se, ce)
	return e, omega
}

// ControlIntegers is the 10-integer control block of spec.md §3.
type ControlIntegers struct {
	NGrid1, NGrid2 int // quadrature grid sizes

	NSpot1, NSpot2 int // spot counts

	LimbLaw1, LimbLaw2 brightness.LimbLaw

	ShapeModel1, ShapeModel2 shape.Model

	FluxWeightedRV bool

	ExactGravityDarkening bool
}

// Spot re-exports spot.Spot at the lightcurve API boundary so callers never
// need to import the spot package directly for simple usage.
type Spot = spot.Spot

// ObservationResult is one row of the lc() output table of spec.md §6.
type ObservationResult struct {
	TotalFlux float64
	Flux1     float64
	Flux2     float64
	RV1       float64
	RV2       float64
	Flags     FlagWord
}

// Columns returns the result in the positional float64 layout spec.md §6
// describes for callers that want the original column order rather than
// named struct fields.
func (r ObservationResult) Columns() [6]float64 {
	return [6]float64{r.TotalFlux, r.Flux1, r.Flux2, r.RV1, r.RV2, float64(r.Flags)}
}

// FlagWord is the per-observation classification bit flag (spec.md §6,
// §9 Design Notes: "define as a strong bit-flag type with named constants,
// not raw integer arithmetic").
type FlagWord uint32

const (
	FlagEclipse        FlagWord = 1 << 0
	FlagStar1Eclipsed  FlagWord = 1 << 1
	FlagStar2Eclipsed  FlagWord = 1 << 2
	FlagTotal          FlagWord = 1 << 3
	FlagTransit        FlagWord = 1 << 4
	FlagDoublePartial  FlagWord = 1 << 5
	FlagWarnSpot1      FlagWord = 1 << 11
	FlagWarnSpot2      FlagWord = 1 << 12
	FlagFail           FlagWord = 1 << 14
	FlagWarning        FlagWord = 1 << 15
	FlagError          FlagWord = 1 << 16
)
