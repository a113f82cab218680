// Package brightness evaluates the local surface brightness of a projected
// stellar disc at a point (s,t) relative to the ellipse centre, combining
// limb darkening, gravity darkening, heating, and (optionally) the
// line-of-sight velocity needed for flux-weighted radial velocities.
//
// Evaluate is a pure function of its Params block, the way the teacher's
// magnitude package dispatches on a body-ID tag rather than holding any
// object state: every call is independent, so the quadrature engine can
// invoke it from however many goroutines it likes.
package brightness

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stellarbin/lcmodel/ellipse"
	"github.com/stellarbin/lcmodel/shape"
)

// LimbLaw tags the parametric limb-darkening model, or signals a tabulated
// mu-grid (spec.md §4.4 item 4: "a negative tag whose magnitude is the
// length of a tabulated mu-grid" is replaced here by an explicit variant,
// per §9 Design Notes).
type LimbLaw int

const (
	LimbLinear LimbLaw = iota
	LimbQuadratic
	LimbLogarithmic
	LimbSquareRoot
	LimbClaretFour
	LimbTable
)

// ErrBadMuGrid is returned when a LimbTable law is evaluated with too few
// grid points to interpolate.
var ErrBadMuGrid = errors.New("brightness: mu-grid needs at least 2 points")

// Params bundles every input Evaluate needs (spec.md §4.4 items 1-12).
// RegionTransform replaces the hidden coordinate-transform flag with an
// explicit nil-able field (§9 Design Notes): nil means "no transform",
// non-nil carries the affine map the partial integrators use to
// parameterize a curvilinear sub-region.
type Params struct {
	Scale float64 // surface brightness scale

	Axes   shape.Axes // ellipsoid semi-axes (A,B,C) and offset D, for surface normals
	Incl   float64      // inclination
	Phi    float64      // orientation angle
	Sep    float64      // current separation, units of semi-major axis

	Law   LimbLaw
	Coeff [4]float64 // parametric coefficients, law-dependent count
	MuGrid []float64 // tabulated intensities, MuGrid[0] at mu=0, MuGrid[len-1] at mu=1

	GravityDarkeningBeta float64
	GravityGradient      func(s, t float64) float64 // exact Roche |grad Phi|, nil => fast ellipsoid mode

	HeatingF0 float64 // companion flux
	HeatingH0 float64
	HeatingH1 float64 // <= 0 disables heating (simple reflection used externally)
	HeatingUH float64 // linear limb coefficient for the heated hemisphere
	CompanionRadius float64

	Lambda float64 // spin-orbit misalignment angle
	VSinI  float64 // equatorial rotation velocity, projected

	KBoost float64 // Doppler boosting factor

	RVFlag bool // if set, Evaluate returns B*v_LOS instead of B

	RegionTransform *ellipse.Affine2 // nil: (s,t) used directly as (f,g)
}

// Evaluate returns the local surface brightness (or B*v_LOS when
// p.RVFlag is set) at point (s,t). (s,t) are in the integration
// parameterization (f,g) when p.RegionTransform is non-nil, and are mapped
// to the ellipse-centred frame first.
func Evaluate(s, t float64, p *Params) (float64, error) {
	if p.RegionTransform != nil {
		s, t = p.RegionTransform.Apply(s, t)
	}

	mu, err := muFromPosition(s, t, p.Axes)
	if err != nil {
		return 0, err
	}
	if mu < 0 {
		mu = 0
	}
	if mu > 1 {
		mu = 1
	}

	ld, err := limbDarkening(mu, p)
	if err != nil {
		return 0, errors.Wrap(err, "brightness: limb darkening")
	}

	gd := gravityDarkening(s, t, mu, p)

	heat := heatingFactor(s, t, mu, p)

	b := p.Scale * ld * gd * heat

	if !p.RVFlag {
		return b, nil
	}

	vlos := lineOfSightVelocity(s, t, mu, p)
	return b * vlos, nil
}

// muFromPosition computes mu = cos(angle between the local surface normal
// and the line of sight) for a point (s,t) on the ellipsoid's projected
// disc, from the implicit normal direction of a triaxial ellipsoid
// x^2/A^2+y^2/B^2+z^2/C^2=1 viewed along z. At the visible surface,
// z = C*sqrt(1 - s^2/A^2 - t^2/B^2); mu is the z-component of the unit
// normal (grad of the ellipsoid's implicit function, normalized), which
// collapses to mu=z/C for a sphere (A=B=C).
func muFromPosition(s, t float64, ax shape.Axes) (float64, error) {
	if ax.A == 0 || ax.B == 0 || ax.C == 0 {
		return 0, errors.New("brightness: degenerate ellipsoid axes")
	}
	u := s / ax.A
	v := t / ax.B
	w2 := 1 - u*u - v*v
	if w2 < 0 {
		w2 = 0
	}
	w := math.Sqrt(w2)

	// Normal direction in (A,B,C)-scaled coordinates is (u/A, v/B, w/C);
	// mu is its z-component normalized to a unit vector.
	nx, ny, nz := u/ax.A, v/ax.B, w/ax.C
	norm := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if norm == 0 {
		return 0, nil
	}
	return nz / norm, nil
}

func limbDarkening(mu float64, p *Params) (float64, error) {
	if p.Law == LimbTable {
		return muGridInterp(mu, p.MuGrid)
	}
	c := p.Coeff
	switch p.Law {
	case LimbLinear:
		return 1 - c[0]*(1-mu), nil
	case LimbQuadratic:
		return 1 - c[0]*(1-mu) - c[1]*(1-mu)*(1-mu), nil
	case LimbLogarithmic:
		if mu <= 0 {
			return 1 - c[0]*(1-mu), nil
		}
		return 1 - c[0]*(1-mu) - c[1]*mu*math.Log(mu), nil
	case LimbSquareRoot:
		return 1 - c[0]*(1-mu) - c[1]*(1-math.Sqrt(mu)), nil
	case LimbClaretFour:
		sq := math.Sqrt(mu)
		v := 1.0
		v -= c[0] * (1 - sq)
		v -= c[1] * (1 - mu)
		v -= c[2] * (1 - sq*mu)
		v -= c[3] * (1 - mu*mu)
		return v, nil
	default:
		return 0, errors.Errorf("brightness: unknown limb-darkening law tag %d", p.Law)
	}
}

// muGridInterp linearly interpolates a tabulated mu-grid of specific
// intensities, grid[0] at mu=0 and grid[len-1] at mu=1 (spec.md §4.4 item 4
// and §8's S6 parity requirement against the linear law).
func muGridInterp(mu float64, grid []float64) (float64, error) {
	n := len(grid)
	if n < 2 {
		return 0, ErrBadMuGrid
	}
	pos := mu * float64(n-1)
	i := int(math.Floor(pos))
	if i < 0 {
		i = 0
	}
	if i >= n-1 {
		return grid[n-1], nil
	}
	frac := pos - float64(i)
	return grid[i]*(1-frac) + grid[i+1]*frac, nil
}

// gravityDarkening returns (local effective gravity)^beta, either via the
// exact Roche-potential gradient (when p.GravityGradient is set — shape's
// ExactGravityDarkening mode) or a fast closed-form ellipsoid approximation
// using the local radius of curvature as a gravity proxy.
func gravityDarkening(s, t, mu float64, p *Params) float64 {
	if p.GravityDarkeningBeta == 0 {
		return 1
	}
	if p.GravityGradient != nil {
		g := p.GravityGradient(s, t)
		if g <= 0 {
			return 1
		}
		return math.Pow(g, p.GravityDarkeningBeta)
	}

	// Fast mode: local curvature-based gravity proxy. At the sub-stellar
	// point mu=1 this is normalized to 1; near the limb (mu->0) the
	// ellipsoid's flattening raises the effective surface gravity.
	a, b, c := p.Axes.A, p.Axes.B, p.Axes.C
	if a == 0 || b == 0 || c == 0 {
		return 1
	}
	flatten := (a * b * c) / (a*a*b*b*mu*mu + (1-mu*mu)*c*c*c/(a+b+1e-30))
	g := math.Sqrt(math.Abs(flatten))
	return math.Pow(g, p.GravityDarkeningBeta)
}

// heatingFactor applies the reflection/heating brightening of the
// irradiated hemisphere. Disabled (returns 1) when p.HeatingH1 <= 0, per
// spec.md §4.4 item 7 ("simplified reflection used externally" in that
// case — lightcurve.Flux applies the scalar simple-reflection term
// instead).
func heatingFactor(s, t, mu float64, p *Params) float64 {
	if p.HeatingH1 <= 0 || p.Sep <= 0 {
		return 1
	}
	// Companion solid-angle proxy decreases with separation squared; the
	// irradiated flux contribution scales by mu (visibility of the
	// companion from this surface element) and the limb coefficient u_H.
	irradiance := p.HeatingF0 / (p.Sep * p.Sep)
	if irradiance <= 0 {
		return 1
	}
	limbTerm := 1 - p.HeatingUH*(1-mu)
	return 1 + p.HeatingH0*math.Pow(irradiance, p.HeatingH1)*limbTerm
}

// lineOfSightVelocity returns the local rotational line-of-sight velocity
// at (s,t), projected through the spin-orbit misalignment angle lambda,
// for flux-weighted radial velocity integration (spec.md §4.4 item 11).
func lineOfSightVelocity(s, t, mu float64, p *Params) float64 {
	if p.VSinI == 0 {
		return 0
	}
	// Rigid rotation about an axis tilted by lambda from the orbital
	// normal: the line-of-sight velocity at a surface point is
	// proportional to its displacement along the rotation's tangential
	// direction, here approximated by the s-coordinate rotated by lambda
	// (the standard Rossiter-McLaughlin projection).
	cosL, sinL := math.Cos(p.Lambda), math.Sin(p.Lambda)
	proj := s*cosL + t*sinL
	return p.VSinI * proj
}
