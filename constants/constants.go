// Package constants collects the physical and mathematical constants shared
// by the orbit, shape, ellipse, brightness, quadrature, spot, and lightcurve
// packages, so that every package reads them from one place instead of
// redefining them locally.
package constants

import "math"

const (
	// TwoPi is 2π, used throughout for angle wrapping.
	TwoPi = 2 * math.Pi

	// DegToRad converts degrees to radians.
	DegToRad = math.Pi / 180.0

	// RadToDeg converts radians to degrees.
	RadToDeg = 180.0 / math.Pi

	// SpeedOfLightKmS is the speed of light in km/s, used by the Doppler
	// boosting term (flux_k *= 1 - k_boost,k * rv_k / c).
	SpeedOfLightKmS = 299792.458

	// SolarRadiusKm is the IAU nominal solar radius in kilometers, used to
	// convert the semi-major axis a (solar radii) into light-travel time.
	SolarRadiusKm = 695700.0

	// LightTimeSecPerSolarRadius is the light-travel time across one solar
	// radius, in seconds. a_lite = a(R_sun) * LightTimeSecPerSolarRadius
	// gives the light time across the semi-major axis in seconds.
	LightTimeSecPerSolarRadius = SolarRadiusKm / (SpeedOfLightKmS)

	// SecondsPerDay converts days to seconds.
	SecondsPerDay = 86400.0

	// KeplerTolerance is the default convergence tolerance for the
	// eccentric-anomaly Newton-Raphson solver (spec.md §4.1: ~1e-12).
	KeplerTolerance = 1e-12

	// KeplerMaxIterations bounds the eccentric-anomaly solver; past this,
	// orbit.EccentricAnomaly reports a NumericFailure rather than looping
	// forever on a pathological (e, M) pair.
	KeplerMaxIterations = 100

	// ShapeVolumeTolerance is the relative tolerance on the volume-radius
	// invariant used by the star-shape kernel's root search (spec.md §4.2).
	ShapeVolumeTolerance = 1e-6

	// ShapeMaxIterations bounds the star-shape volume-conservation root
	// search.
	ShapeMaxIterations = 100

	// EclipseAreaTolerance (ecl_area_tol, spec.md §4.8 step 5 / §4.3
	// "Tolerance policy") is the relative-area threshold below which an
	// ellipse-ellipse overlap is reported as no_overlap. atol in spec.md's
	// ell_ell_overlap tolerance policy.
	EclipseAreaTolerance = 1e-5

	// LoveHFMin and LoveHFMax bound the fluid Love number h_f accepted by
	// the Love shape model (spec.md §4.2: h_f ∉ [0, 5/2] is a user error).
	LoveHFMin = 0.0
	LoveHFMax = 2.5

	// SpotLimbInstabilityThreshold (β_lim, spec.md §4.7 step 2) is the
	// latitude-on-disc threshold below which the spot-eclipse geometry is
	// evaluated twice (at ±β_lim) and interpolated, because the geometric
	// routines are unstable as β→0.
	SpotLimbInstabilityThreshold = 1e-2

	// BadDble is the sentinel value (spec.md §6 "bad_dble") written to any
	// output column of an observation that cannot be computed.
	BadDble = -1.0e30

	// NotSet is the sentinel value (spec.md §6 "not_set") used internally
	// for not-yet-computed radial velocities.
	NotSet = -1.0e29
)

// RocheL1 approximates the first Lagrangian point distance (in units of the
// separation a) for a mass ratio q = m2/m1 and asynchronous-rotation factor
// F, using the Eggleton (1983) approximation generalized for F != 1 the way
// ellc's documented Roche-limit check does: the classical Eggleton formula
// evaluated at the synchronous-equivalent mass ratio q' = q*F^2.
//
// This is the "roche_L1(q,F)" referenced by spec.md §3's radius invariant
// R <= roche_L1(q,F)*(1-e).
func RocheL1(q, f float64) float64 {
	qp := q * f * f
	if qp <= 0 {
		return 0
	}
	q23 := math.Cbrt(qp * qp)
	return 0.49 * q23 / (0.6*q23 + math.Log(1+math.Cbrt(qp)))
}
