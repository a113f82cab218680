// Package shape approximates each tidally/rotationally distorted star as a
// triaxial ellipsoid, per spec.md §4.2. Given a fractional volume-equivalent
// radius, the current normalized separation, the asynchronous-rotation
// factor, the mass ratio, and a shape-model tag, it returns the semi-axes
// (A, B, C) in units of the semi-major axis and the centre offset D along
// the line of centers.
//
// Exact Roche-potential surface integration is out of scope (spec.md §1
// Non-goals); the ellipsoid is a quadrupole-order approximation to the Roche
// distortion. For every model except Roche, which applies that distortion
// unscaled, it is scaled so that the volume-radius invariant
// A*B*C = R^3 holds within constants.ShapeVolumeTolerance — that invariant,
// not the specific elongation coefficients, is what callers and tests rely
// on.
package shape

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stellarbin/lcmodel/constants"
)

// Model tags the distortion law used to compute the ellipsoid. Dispatched
// as a small integer enum (spec.md §9 Design Notes), not a type hierarchy.
type Model int

const (
	// Sphere skips distortion entirely: A=B=C=R, D=0.
	Sphere Model = iota
	// Roche applies the quadrupole tidal+rotational distortion directly at
	// the given fractional radius, without re-solving for volume
	// conservation (the "fast" variant).
	Roche
	// RocheVolume applies the same distortion law but root-solves the scale
	// parameter so that A*B*C conserves the volume of a sphere of radius R.
	RocheVolume
	// Love uses the fluid Love number h_f in place of the mass-ratio tidal
	// coefficient, root-solving for volume conservation like RocheVolume.
	Love
	// Polytrope scales the RocheVolume distortion by a central-condensation
	// factor (n=3/2 polytrope structure constant), root-solving likewise.
	Polytrope
)

// ErrInvalidLoveNumber is returned when the Love model is asked to use a
// fluid Love number outside [0, 5/2] (spec.md §4.2).
var ErrInvalidLoveNumber = errors.New("shape: fluid Love number out of range [0, 5/2]")

// ErrNoConverge is the star-shape kernel's NumericFailure: the
// volume-conservation root search failed to converge.
var ErrNoConverge = errors.New("shape: volume-radius root search did not converge")

// Axes is the triaxial ellipsoid: semi-axes in units of the semi-major axis
// plus the centre offset along the line of centers.
type Axes struct {
	A, B, C float64
	D       float64
}

// Params bundles the inputs to Shape beyond the model tag, since several of
// them (F, q, hf) are only meaningful for a subset of models.
type Params struct {
	FracRadius float64 // R: fractional volume-equivalent radius
	Separation float64 // r: current normalized separation (1 at periastron scale for circular orbits)
	RotFactor  float64 // F: asynchronous rotation factor
	MassRatio  float64 // q = m2/m1
	HF         float64 // fluid Love number, Love model only
}

// Shape computes the triaxial ellipsoid for the given model and parameters.
func Shape(model Model, p Params) (Axes, error) {
	switch model {
	case Sphere:
		return Axes{A: p.FracRadius, B: p.FracRadius, C: p.FracRadius, D: 0}, nil

	case Roche:
		a, b, c, d := distortedAxes(p.FracRadius, p)
		return Axes{A: a, B: b, C: c, D: d}, nil

	case RocheVolume:
		return volumeConservingShape(p, 1.0)

	case Love:
		if p.HF < constants.LoveHFMin || p.HF > constants.LoveHFMax {
			return Axes{}, errors.Wrapf(ErrInvalidLoveNumber, "h_f=%g", p.HF)
		}
		return volumeConservingShape(p, 1.0)

	case Polytrope:
		// n=3/2 polytrope central condensation softens the quadrupole
		// response relative to a uniform (Roche) distribution.
		const polytropeSoftening = 0.6
		return volumeConservingShape(p, polytropeSoftening)

	default:
		return Axes{}, errors.Errorf("shape: unknown model tag %d", model)
	}
}

// distortedAxes evaluates the quadrupole tidal+rotational distortion at
// scale rho, using Love's h_f in place of the tidal coefficient (1+q) for
// the Love model (params.HF != 0 signals that).
func distortedAxes(rho float64, p Params) (a, b, c, d float64) {
	rho3 := rho * rho * rho

	tidalCoeff := 1 + p.MassRatio
	if p.HF != 0 {
		tidalCoeff = 1 + p.HF
	}
	tidal := rho3 * tidalCoeff
	rot := rho3 * p.RotFactor * p.RotFactor

	a = rho * (1 + tidal/3 + rot/6)
	b = rho * (1 - tidal/6 + rot/6)
	c = rho * (1 - tidal/6 - rot/3)
	d = rho * tidal / 6
	return
}

// volumeConservingShape root-solves the scale parameter rho so that
// A(rho)*B(rho)*C(rho) = R^3 within constants.ShapeVolumeTolerance,
// following the bracket-and-bisect pattern the teacher's search package
// uses for FindDiscrete's sign-change refinement. softening scales the
// tidal/rotational response (Polytrope uses <1 to represent a centrally
// condensed structure).
func volumeConservingShape(p Params, softening float64) (Axes, error) {
	target := p.FracRadius * p.FracRadius * p.FracRadius

	f := func(rho float64) float64 {
		sp := p
		sp.MassRatio *= softening
		sp.RotFactor *= math.Sqrt(softening)
		sp.HF *= softening
		a, b, c, _ := distortedAxes(rho, sp)
		return a*b*c - target
	}

	lo, hi := p.FracRadius*0.5, p.FracRadius*1.5
	flo, fhi := f(lo), f(hi)
	if flo*fhi > 0 {
		// Distortion is weak enough that the root lies very close to R;
		// widen the bracket once before giving up.
		lo, hi = p.FracRadius*0.1, p.FracRadius*3.0
		flo, fhi = f(lo), f(hi)
		if flo*fhi > 0 {
			return Axes{}, ErrNoConverge
		}
	}

	var mid float64
	for iter := 0; iter < constants.ShapeMaxIterations; iter++ {
		mid = (lo + hi) / 2
		fm := f(mid)
		if math.Abs(fm) < constants.ShapeVolumeTolerance*target {
			sp := p
			sp.MassRatio *= softening
			sp.RotFactor *= math.Sqrt(softening)
			sp.HF *= softening
			a, b, c, d := distortedAxes(mid, sp)
			return Axes{A: a, B: b, C: c, D: d}, nil
		}
		if fm*flo < 0 {
			hi = mid
		} else {
			lo = mid
			flo = fm
		}
	}
	return Axes{}, ErrNoConverge
}
