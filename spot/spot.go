// Package spot implements the Eker (1994) circular-spot modulation law and
// the near-limb spot-eclipse sub-engine: projecting a spot given in
// stellar (lat, lon) to the sky, classifying its visibility, and computing
// the fraction of it hidden when the host star is itself being eclipsed.
package spot

import (
	"math"

	"github.com/stellarbin/lcmodel/brightness"
	"github.com/stellarbin/lcmodel/ellipse"
)

// Spot is a single circular starspot: latitude, longitude and angular
// radius gamma in degrees, plus a brightness factor (1 = no contrast,
// 0 = perfectly dark).
type Spot struct {
	LatDeg, LonDeg, GammaDeg, Brightness float64
}

// VisibilityTag encodes the four-case dispatch of spec.md §4.7 item 3.
type VisibilityTag int

const (
	NotVisible VisibilityTag = iota
	StraddlesLimbFarSide
	StraddlesLimbNearSide
	FullyVisible
)

// BetaLim is the near-limb instability threshold (spec.md §4.7 item 2):
// below this, the projection geometry is run twice at +-BetaLim and
// linearly interpolated to the real beta.
const BetaLim = 1e-2

// EffectiveQuadraticLaw converts an arbitrary limb-darkening law to an
// effective quadratic law (u1, u2) by matching intensities at mu=0, 0.5, 1
// (spec.md §4.7: "converted to an effective quadratic law by matching
// intensities ... if it is not already linear or quadratic"). Linear and
// quadratic laws pass their own coefficients through unchanged.
func EffectiveQuadraticLaw(p *brightness.Params) (u1, u2 float64, err error) {
	switch p.Law {
	case brightness.LimbLinear:
		return p.Coeff[0], 0, nil
	case brightness.LimbQuadratic:
		return p.Coeff[0], p.Coeff[1], nil
	}

	i0, err := intensityAt(0, p)
	if err != nil {
		return 0, 0, err
	}
	iHalf, err := intensityAt(0.5, p)
	if err != nil {
		return 0, 0, err
	}

	// 1 - u1*(1-mu) - u2*(1-mu)^2 matched at mu=0 and mu=0.5; the
	// constraint at mu=1 is satisfied automatically since both terms
	// vanish there regardless of u1, u2.
	// mu=0: 1 - u1 - u2 = i0
	// mu=0.5: 1 - 0.5*u1 - 0.25*u2 = iHalf
	a1, b1, c1 := 1.0, 1.0, 1-i0
	a2, b2, c2 := 0.5, 0.25, 1-iHalf
	det := a1*b2 - a2*b1
	if det == 0 {
		return 0, 0, nil
	}
	u1 = (c1*b2 - c2*b1) / det
	u2 = (a1*c2 - a2*c1) / det
	return u1, u2, nil
}

func intensityAt(mu float64, p *brightness.Params) (float64, error) {
	// Evaluate the law directly at a disc point with the given mu, using
	// the sphere parameterization s=sqrt(1-mu^2), t=0 so that
	// muFromPosition recovers mu exactly for a sphere.
	s := math.Sqrt(1 - mu*mu)
	saved := *p
	saved.Axes.A, saved.Axes.B, saved.Axes.C = 1, 1, 1
	saved.Scale = 1
	saved.GravityDarkeningBeta = 0
	saved.HeatingH1 = 0
	saved.RVFlag = false
	saved.RegionTransform = nil
	return brightness.Evaluate(s, 0, &saved)
}

// Modulation computes the Eker-law scalar flux modulation factor df and
// the visibility tag for a spot at the given rotational phase (spec.md
// §4.7), given the effective quadratic limb-darkening coefficients.
func Modulation(sp Spot, u1, u2, phase float64) (df float64, tag VisibilityTag) {
	latRad := sp.LatDeg * math.Pi / 180
	lonRad := sp.LonDeg*math.Pi/180 + phase
	gammaRad := sp.GammaDeg * math.Pi / 180

	// cos of the angle between the spot centre and the sub-observer
	// point (assuming the observer is along the rotation-axis-perpendicular
	// direction at longitude 0, inclination 90 deg, the standard Eker setup).
	cosZ := math.Cos(latRad) * math.Cos(lonRad)

	if cosZ+math.Sin(gammaRad) < 0 {
		return 1, NotVisible
	}

	mu := cosZ
	if mu < 0 {
		mu = 0
	}
	limb := 1 - u1*(1-mu) - u2*(1-mu)*(1-mu)

	// Projected area fraction of the spot disc, foreshortened by mu
	// (Eker 1994's circular-spot projected-area law).
	areaFrac := math.Sin(gammaRad) * math.Sin(gammaRad) * mu

	contrast := 1 - sp.Brightness
	dFlux := -contrast * areaFrac * limb
	df = 1 + dFlux

	switch {
	case cosZ-math.Sin(gammaRad) >= 0:
		tag = FullyVisible
	case cosZ >= 0:
		tag = StraddlesLimbNearSide
	default:
		tag = StraddlesLimbFarSide
	}
	return df, tag
}

// ProjectedSpot is the result of project_spot: the spot's sky ellipse and
// the tangent points where the stellar limb touches the spot boundary, if
// the spot straddles the limb.
type ProjectedSpot struct {
	Ellipse  ellipse.Ellipse
	OnLimb   bool
	Tangent1 ellipse.Point
	Tangent2 ellipse.Point
}

// ProjectSpot maps a spot's (alpha, beta, gamma) sky-frame coordinates
// (alpha, beta angular position of the spot centre on the sky, gamma its
// angular radius) to a sky ellipse plus, when the spot straddles the visible
// limb, the two tangent points of the limb on the spot boundary (spec.md
// §4.7 item 3). The projection treats the spot as a small circular cap
// foreshortened like any other point on the stellar sphere: its sky outline
// is itself very nearly an ellipse for small gamma, with semi-axes
// gamma (along the limb) and gamma*sin(beta) (foreshortened radially).
func ProjectSpot(alpha, beta, gamma float64) ProjectedSpot {
	sinB := math.Sin(beta)
	cx, cy := math.Cos(alpha)*math.Cos(beta), math.Sin(alpha)*math.Cos(beta)

	apRadial := gamma * math.Abs(sinB)
	if apRadial < 1e-12 {
		apRadial = gamma
	}
	e := ellipse.FromGeometric(gamma, apRadial, cx, cy, alpha+math.Pi/2)

	onLimb := math.Abs(beta) < gamma
	out := ProjectedSpot{Ellipse: e, OnLimb: onLimb}
	if onLimb {
		// Tangent points where the unit-disc limb crosses the spot
		// boundary: intersect the spot ellipse with the unit circle.
		ir := ellipse.EllEllIntersect(e, ellipse.NewCircle(1, 0, 0))
		if len(ir.Points) >= 2 {
			out.Tangent1 = ir.Points[0]
			out.Tangent2 = ir.Points[1]
		}
	}
	return out
}

// EclipsedFraction implements the spot-limb-eclipse sub-engine (spec.md
// §4.7 items 1-5): the fraction of the spot's flux contribution that is
// additionally hidden because the host star itself is partially eclipsed
// at the spot's location.
//
// hostToEclipse is the companion's projected ellipse already transformed
// into the host's local frame (item 4: centre at the origin, scaled by the
// local stellar radius at the spot's lat/lon — the caller is responsible
// for that affine map, since it depends on shape data spot does not own).
func EclipsedFraction(sp Spot, phase float64, hostToEclipse ellipse.Ellipse) (fraction float64, warn bool) {
	lat := sp.LatDeg * math.Pi / 180
	lon := sp.LonDeg*math.Pi/180 + phase
	gamma := sp.GammaDeg * math.Pi / 180

	// Sky-frame position of the spot centre, with the observer at longitude
	// 0 and inclination 90 deg as in Modulation: alpha is its position angle
	// on the disc, beta its latitude on the apparent disc (pi/2 at the disc
	// centre, 0 on the limb), as ProjectSpot takes them.
	alpha := math.Atan2(math.Sin(lat), math.Cos(lat)*math.Sin(lon))
	beta := math.Asin(math.Cos(lat) * math.Cos(lon))

	if math.Abs(beta) < BetaLim {
		fLo := eclipsedFractionAt(alpha, -BetaLim, gamma, hostToEclipse)
		fHi := eclipsedFractionAt(alpha, BetaLim, gamma, hostToEclipse)
		wt := 0.5 + beta/(2*BetaLim)
		return fLo*(1-wt) + fHi*wt, false
	}
	return eclipsedFractionAt(alpha, beta, gamma, hostToEclipse), false
}

func eclipsedFractionAt(alpha, beta, gamma float64, hostToEclipse ellipse.Ellipse) float64 {
	ps := ProjectSpot(alpha, beta, gamma)

	switch {
	case !ps.OnLimb && math.Abs(beta) >= gamma && beta < 0:
		// Case 0: spot not visible at all.
		if ellipse.PointIsInside(ps.Ellipse.Xc, ps.Ellipse.Yc, hostToEclipse) {
			return 1
		}
		return 0

	case ps.OnLimb && beta < 0:
		// Case 1: straddles the limb, centre on the far side: only the
		// small visible cap can be additionally eclipsed.
		overlap, _ := ellipse.EllEllOverlap(ps.Ellipse, hostToEclipse)
		visibleCapFraction := 0.5 // symmetric cap approximation at the limb
		if ps.Ellipse.Area == 0 {
			return 0
		}
		return math.Min(1, overlap/(ps.Ellipse.Area*visibleCapFraction))

	case ps.OnLimb:
		// Case 2: straddles the limb, centre on the near (visible) side.
		overlap, _ := ellipse.EllEllOverlap(ps.Ellipse, hostToEclipse)
		if ps.Ellipse.Area == 0 {
			return 0
		}
		return overlap / ps.Ellipse.Area

	default:
		// Case 3: fully on the visible disc.
		overlap, _ := ellipse.EllEllOverlap(ps.Ellipse, hostToEclipse)
		if ps.Ellipse.Area == 0 {
			return 0
		}
		return overlap / ps.Ellipse.Area
	}
}

// AngularSeparation returns the great-circle angular separation between
// two spots given their (lat, lon) in degrees.
func AngularSeparation(a, b Spot) float64 {
	lat1, lon1 := a.LatDeg*math.Pi/180, a.LonDeg*math.Pi/180
	lat2, lon2 := b.LatDeg*math.Pi/180, b.LonDeg*math.Pi/180
	cosC := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(lon1-lon2)
	if cosC > 1 {
		cosC = 1
	}
	if cosC < -1 {
		cosC = -1
	}
	return math.Acos(cosC)
}

// CheckAdditivityWarning raises the spot additivity warning bit (spec.md
// §4.7 "Spot additivity warning") when any two of the given spots'
// great-circle separation is less than the sum of their angular radii.
func CheckAdditivityWarning(spots []Spot) bool {
	for i := 0; i < len(spots); i++ {
		for j := i + 1; j < len(spots); j++ {
			sep := AngularSeparation(spots[i], spots[j])
			sumRadii := (spots[i].GammaDeg + spots[j].GammaDeg) * math.Pi / 180
			if sep < sumRadii {
				return true
			}
		}
	}
	return false
}
