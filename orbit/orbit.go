// Package orbit implements Keplerian orbit propagation for the two stars of
// a binary system: mean-to-eccentric-to-true anomaly conversion, periastron
// time recovery from an eclipse epoch, and the light-travel-time correction
// each star's retarded time needs before its sky position is evaluated.
//
// All angles are radians unless a function name says otherwise. Time is a
// single continuous coordinate (e.g. BJD); orbit does not distinguish time
// scales.
package orbit

import (
	"math"

	"github.com/pkg/errors"

	"github.com/stellarbin/lcmodel/constants"
)

// ErrKeplerNoConverge is returned by EccentricAnomaly when Newton-Raphson
// fails to converge within constants.KeplerMaxIterations iterations. This is
// the orbit kernel's NumericFailure (spec.md §4.1).
var ErrKeplerNoConverge = errors.New("orbit: eccentric anomaly did not converge")

// State is the result of propagating the orbit to a given time: the
// normalized separation r (units of semi-major axis), the true anomaly, and
// its sine/cosine (kept alongside ν since most downstream consumers want the
// trig values directly, the way the teacher's kepler.Orbit.PositionAU avoids
// recomputing sincos).
type State struct {
	MeanAnomaly      float64
	EccentricAnomaly float64
	R                float64 // normalized separation, 1 - e*cos(E)
	Nu               float64 // true anomaly
	CosNu, SinNu     float64
}

// EccentricAnomaly solves Kepler's equation M = E - e*sin(E) for E given
// mean anomaly M (radians) and eccentricity e in [0, 1).
//
// Starting guess follows the teacher's kepler.Orbit.solveElliptic: E=M for
// e<=0.8, E=±π (sign of M) for e>0.8, which keeps Newton-Raphson from
// diverging as e→1. Converges when |ΔE| < constants.KeplerTolerance;
// ErrKeplerNoConverge past constants.KeplerMaxIterations iterations.
func EccentricAnomaly(m, e float64) (float64, error) {
	if e < 0 || e >= 1 {
		return 0, errors.Errorf("orbit: eccentricity %g out of range [0,1)", e)
	}

	m = math.Mod(m, constants.TwoPi)
	if m > math.Pi {
		m -= constants.TwoPi
	} else if m < -math.Pi {
		m += constants.TwoPi
	}

	ea := m
	if e > 0.8 {
		if m >= 0 {
			ea = math.Pi
		} else {
			ea = -math.Pi
		}
	}

	for iter := 0; iter < constants.KeplerMaxIterations; iter++ {
		sinE, cosE := math.Sincos(ea)
		f := ea - e*sinE - m
		fp := 1.0 - e*cosE
		dE := -f / fp
		ea += dE
		if math.Abs(dE) < constants.KeplerTolerance {
			return ea, nil
		}
	}
	return ea, errors.Wrapf(ErrKeplerNoConverge, "M=%g e=%g", m, e)
}

// TrueAnomaly converts eccentric anomaly ea to true anomaly ν given
// eccentricity e, following spec.md §4.1:
// ν = 2*atan(sqrt((1+e)/(1-e)) * tan(E/2)).
func TrueAnomaly(ea, e float64) float64 {
	return 2 * math.Atan(math.Sqrt((1+e)/(1-e))*math.Tan(ea/2))
}

// Propagate composes M = 2π*frac((t-Tperi)/P), the eccentric-anomaly solve,
// and r = 1 - e*cos(E), ν = TrueAnomaly(E,e). tPeri and p are in the same
// time unit as t (typically days).
func Propagate(t, tPeri, p, e float64) (State, error) {
	phase := (t - tPeri) / p
	phase -= math.Floor(phase)
	m := constants.TwoPi * phase

	ea, err := EccentricAnomaly(m, e)
	if err != nil {
		return State{}, err
	}

	cosE, sinE := math.Cos(ea), math.Sin(ea)
	r := 1 - e*cosE
	nu := TrueAnomaly(ea, e)
	cosNu, sinNu := math.Cos(nu), math.Sin(nu)

	return State{
		MeanAnomaly:      m,
		EccentricAnomaly: ea,
		R:                r,
		Nu:               nu,
		CosNu:            cosNu,
		SinNu:            sinNu,
	}, nil
}

// PeriastronTime returns the periastron time immediately preceding tEclipse,
// inverting the standard eclipse-condition equation: at eclipse the true
// longitude ν+ω places the star on the observer's line of sight, i.e.
// ν(tEclipse) + ω = π/2 (primary eclipse convention). For e=0 this has the
// closed form tPeri = tEclipse - P/4 (periastron a quarter-period before a
// circular-orbit conjunction); for e>0 the target true anomaly is converted
// to a mean anomaly in closed form through the eccentric anomaly, so no
// iteration is needed.
func PeriastronTime(tEclipse, e, omega, i, pSid float64) float64 {
	targetNu := math.Pi/2 - omega
	for targetNu < 0 {
		targetNu += constants.TwoPi
	}

	// Mean anomaly at the target true anomaly (inverse Kepler, closed form
	// via the eccentric anomaly of targetNu).
	ea := 2 * math.Atan(math.Sqrt((1-e)/(1+e))*math.Tan(targetNu/2))
	m := ea - e*math.Sin(ea)
	if m < 0 {
		m += constants.TwoPi
	}

	return tEclipse - (m/constants.TwoPi)*pSid
}

// LightTimeCorrection returns the one-time correction to T0 from the
// Borkovits et al. (2015) closed form, subtracted up front from the epoch
// before any per-observation retarded-time calculation. a is the semi-major
// axis in solar radii, e the eccentricity, omega1 the argument of periastron
// of star 1, i the inclination, q the mass ratio m2/m1. Returns 0 when
// a<=0 (light-time/velocity disabled, spec.md §3).
func LightTimeCorrection(a, e, omega1, i, q float64) float64 {
	if a <= 0 {
		return 0
	}
	// Borkovits+2015 eq. for the mean light-time offset of the barycentric
	// frame relative to the dynamical frame, to first order in e:
	// dT0 = (a_lite/c proxy) * sin(i) * e * cos(omega1) * q/(1+q), expressed
	// directly in the same time units as a_lite below.
	aLite := a * constants.LightTimeSecPerSolarRadius / constants.SecondsPerDay
	return aLite * math.Sin(i) * e * math.Cos(omega1) * q / (1 + q)
}

// RetardedTime returns the per-star, per-observation retarded time used to
// re-propagate that star's own sky position under the light-travel-time
// correction (spec.md §4.1): t_k = t + a_lite_k * w_k, where w_k is the
// star's sky-normal coordinate in units of the separation.
func RetardedTime(t, aLiteDays, w float64) float64 {
	return t + aLiteDays*w
}

// ArgumentOfPeriastron implements apsidal motion: ω1(t) = ω0 + (t-T0)*(dω/dt)/Psid.
func ArgumentOfPeriastron(t, t0, omega0, domegaDt, pSid float64) float64 {
	return omega0 + (t-t0)*domegaDt/pSid
}

// SiderealPeriod returns Psid = P*(1 - (dω/dt)/(2π)).
func SiderealPeriod(p, domegaDt float64) float64 {
	return p * (1 - domegaDt/constants.TwoPi)
}

// Inclination implements the linear inclination drift i(t) = i0 + (t-T0)*(di/dt).
func Inclination(t, t0, i0, didt float64) float64 {
	return i0 + (t-t0)*didt
}
