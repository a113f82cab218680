// Package ellipse implements the ellipse primitives of spec.md §4.3: a dual
// geometric/implicit-quadratic representation, affine transforms, line
// intersection, point containment, ellipse-ellipse intersection, and
// overlap area.
//
// Every Ellipse carries both representations in sync — mutators always
// regenerate one from the other, the way the teacher's kepler.Orbit keeps
// its precomputed rotation matrix in sync with its exported orbital
// elements by recomputing rather than patching in place.
package ellipse

import "math"

// Ellipse is the 14-field record of spec.md §3: the geometric form
// (Ap, Bp, Xc, Yc, Phi, Area) and the implicit quadratic form
// A*x^2 + B*x*y + C*y^2 + D*x + E*y + F = 0, kept coherent.
type Ellipse struct {
	Ap, Bp   float64 // semi-major, semi-minor axis
	Xc, Yc   float64 // centre
	Phi      float64 // rotation from the x-axis, radians
	Area     float64 // pi * Ap * Bp

	A, B, C, D, E, F float64 // implicit quadratic form coefficients
}

// FromGeometric builds an Ellipse from its geometric parameters, deriving
// the implicit quadratic form and the area. ap and bp must both be
// positive for a non-degenerate ellipse (Area > 0 iff ap,bp > 0, per
// spec.md §3's invariant).
func FromGeometric(ap, bp, xc, yc, phi float64) Ellipse {
	e := Ellipse{Ap: ap, Bp: bp, Xc: xc, Yc: yc, Phi: phi}
	e.Area = math.Pi * ap * bp
	e.regenerateQuadratic()
	return e
}

// regenerateQuadratic fills A..F from the geometric parameters. An ellipse
// centred at the origin with semi-axes (ap,bp) aligned to the axes is
// x^2/ap^2 + y^2/bp^2 = 1; rotating by phi and translating to (xc,yc) gives
// the coefficients below.
func (e *Ellipse) regenerateQuadratic() {
	cosP, sinP := math.Cos(e.Phi), math.Sin(e.Phi)
	invA2, invB2 := 1/(e.Ap*e.Ap), 1/(e.Bp*e.Bp)

	// Quadratic form of the unrotated, uncentred ellipse is
	// diag(invA2, invB2). Rotating by phi: M = R * diag * R^T.
	a := invA2*cosP*cosP + invB2*sinP*sinP
	b := 2 * cosP * sinP * (invA2 - invB2)
	c := invA2*sinP*sinP + invB2*cosP*cosP

	// Translate: substitute (x - xc, y - yc) for (x, y) in
	// a*x^2 + b*x*y + c*y^2 = 1.
	e.A = a
	e.B = b
	e.C = c
	e.D = -(2*a*e.Xc + b*e.Yc)
	e.E = -(b*e.Xc + 2*c*e.Yc)
	e.F = a*e.Xc*e.Xc + b*e.Xc*e.Yc + c*e.Yc*e.Yc - 1
}

// NewCircle returns the canonical circle ellipse (Phi=0), used directly for
// spherical stars where projection would be numerically degenerate
// (spec.md §4.3: "for spheres, skip projection").
func NewCircle(radius, xc, yc float64) Ellipse {
	return FromGeometric(radius, radius, xc, yc, 0)
}

// ProjectEllipsoid performs the orthographic projection of a triaxial
// ellipsoid with semi-axes (a,b,c) — a toward the companion, b perpendicular
// in the orbital plane, c polar — onto the sky plane, given the orbital
// phase angle phi (rotation of the line of centers about the pole) and the
// orbital inclination i (angle between the pole and the line of sight; i=90°
// is edge-on). Returns an Ellipse centred at the origin; the caller
// translates it to the star's apparent sky position with Move.
//
// For a sphere (a==b==c) this degenerates to a circle directly, since the
// general projection algebra below divides by quantities that vanish when
// all three axes are equal.
func ProjectEllipsoid(a, b, c, phi, inclination float64) Ellipse {
	if a == b && b == c {
		return NewCircle(a, 0, 0)
	}

	// Body-frame quadratic form: diag(1/a^2, 1/b^2, 1/c^2).
	m := [3][3]float64{
		{1 / (a * a), 0, 0},
		{0, 1 / (b * b), 0},
		{0, 0, 1 / (c * c)},
	}

	// R = Rx(i) * Rz(phi): phase rotation about the pole (body Z), then
	// inclination tilt about the resulting X axis, bringing the pole to
	// angle i from the line of sight (world/sky Z axis). Grounded on the
	// teacher's kepler.Orbit.init() rotation-matrix construction style
	// (explicit [3][3]float64, built by hand from sin/cos products).
	sinP, cosP := math.Sincos(phi)
	sinI, cosI := math.Sincos(inclination)

	rz := [3][3]float64{
		{cosP, -sinP, 0},
		{sinP, cosP, 0},
		{0, 0, 1},
	}
	rx := [3][3]float64{
		{1, 0, 0},
		{0, cosI, -sinI},
		{0, sinI, cosI},
	}
	r := matMul3(rx, rz)

	// World-frame quadratic form M' = R * M * R^T.
	mp := matMul3(matMul3(r, m), transpose3(r))

	// Eliminate the line-of-sight coordinate (world Z) by requiring the
	// quadratic-in-Z equation to have a double root (silhouette boundary):
	// its discriminant, divided through by 4, is the conic below.
	aq := mp[2][2]*mp[0][0] - mp[0][2]*mp[0][2]
	bq := 2 * (mp[2][2]*mp[0][1] - mp[0][2]*mp[1][2])
	cq := mp[2][2]*mp[1][1] - mp[1][2]*mp[1][2]
	fq := -mp[2][2]

	return fromCentredQuadratic(aq, bq, cq, fq)
}

// fromCentredQuadratic builds the geometric form of an origin-centred
// conic aq*x^2 + bq*x*y + cq*y^2 + fq = 0 via the standard 2x2 symmetric
// eigenvalue closed form.
func fromCentredQuadratic(aq, bq, cq, fq float64) Ellipse {
	avg := (aq + cq) / 2
	diff := (aq - cq) / 2
	radius := math.Hypot(diff, bq/2)
	lambda1 := avg + radius // smaller semi-axis direction's eigenvalue... see below
	lambda2 := avg - radius

	// 0.5*atan2(bq, aq-cq) is lambda1's eigenvector, the minor axis; the
	// major axis Ap lies a quarter turn from it. The arguments are negated
	// so that a circle (bq=0, aq=cq) keeps phi=0.
	phi := 0.5 * math.Atan2(-bq, cq-aq)

	// lambda*x^2 = -fq along each principal axis, so semi-axis =
	// sqrt(-fq/lambda). The larger eigenvalue gives the smaller axis.
	bp := math.Sqrt(-fq / lambda1)
	ap := math.Sqrt(-fq / lambda2)
	if ap < bp {
		ap, bp = bp, ap
		phi += math.Pi / 2
	}

	return FromGeometric(ap, bp, 0, 0, phi)
}

// Move translates the ellipse's centre to (xc,yc), regenerating the
// quadratic form (spec.md §4.3: move(x,y,E) -> E').
func (e Ellipse) Move(xc, yc float64) Ellipse {
	e.Xc, e.Yc = xc, yc
	e.regenerateQuadratic()
	return e
}

// Affine2 is a 2x3 affine transform x' = M*x + T, replacing the spec's bare
// "2x3 affine transform" with an explicit named type.
type Affine2 struct {
	M [2][2]float64
	T [2]float64
}

// IdentityAffine returns the identity transform.
func IdentityAffine() Affine2 {
	return Affine2{M: [2][2]float64{{1, 0}, {0, 1}}}
}

// Apply maps a point through the affine transform.
func (t Affine2) Apply(x, y float64) (float64, float64) {
	return t.M[0][0]*x + t.M[0][1]*y + t.T[0], t.M[1][0]*x + t.M[1][1]*y + t.T[1]
}

// Affine applies a 2x3 affine transform to the ellipse's centre and
// quadratic form (spec.md §4.3: affine(T,E) -> E'). General (non-similarity)
// transforms are supported: the implicit quadratic form is transformed by
// substitution, then re-derived into geometric parameters.
func (e Ellipse) Affine(t Affine2) Ellipse {
	minv, tinv, ok := invertAffine(t)
	if !ok {
		// Singular transform: nothing meaningful to return: collapse to a
		// degenerate point-ellipse rather than dividing by zero.
		return Ellipse{}
	}

	// Substitute x = Minv*x' + Tinv into A x^2+Bxy+Cy^2+Dx+Ey+F=0.
	m11, m12 := minv[0][0], minv[0][1]
	m21, m22 := minv[1][0], minv[1][1]
	tx, ty := tinv[0], tinv[1]

	// x = m11*x' + m12*y' + tx ; y = m21*x' + m22*y' + ty
	// Expand A*x^2 + B*x*y + C*y^2 + D*x + E*y + F in terms of (x', y').
	// x^2 terms:
	a2 := e.A*m11*m11 + e.B*m11*m21 + e.C*m21*m21
	b2 := 2*e.A*m11*m12 + e.B*(m11*m22+m12*m21) + 2*e.C*m21*m22
	c2 := e.A*m12*m12 + e.B*m12*m22 + e.C*m22*m22
	d2 := 2*e.A*m11*tx + e.B*(m11*ty+m21*tx) + 2*e.C*m21*ty + e.D*m11 + e.E*m21
	ee2 := 2*e.A*m12*tx + e.B*(m12*ty+m22*tx) + 2*e.C*m22*ty + e.D*m12 + e.E*m22
	f2 := e.A*tx*tx + e.B*tx*ty + e.C*ty*ty + e.D*tx + e.E*ty + e.F

	return fromGeneralQuadratic(a2, b2, c2, d2, ee2, f2)
}

// fromGeneralQuadratic converts an arbitrary (possibly off-centre) implicit
// quadratic form into geometric parameters: the centre is where the
// gradient of the quadratic form vanishes, then the centred form is reduced
// like fromCentredQuadratic.
func fromGeneralQuadratic(a, b, c, d, e, f float64) Ellipse {
	// Centre: solve [2a b; b 2c] * [xc;yc] = [-d;-e].
	det := 4*a*c - b*b
	if det == 0 {
		return Ellipse{}
	}
	xc := (-2*c*d + b*e) / det
	yc := (b*d - 2*a*e) / det

	fc := a*xc*xc + b*xc*yc + c*yc*yc + d*xc + e*yc + f

	out := fromCentredQuadratic(a, b, c, fc)
	return out.Move(xc, yc)
}

func invertAffine(t Affine2) (minv [2][2]float64, tinv [2]float64, ok bool) {
	det := t.M[0][0]*t.M[1][1] - t.M[0][1]*t.M[1][0]
	if det == 0 {
		return minv, tinv, false
	}
	minv[0][0] = t.M[1][1] / det
	minv[0][1] = -t.M[0][1] / det
	minv[1][0] = -t.M[1][0] / det
	minv[1][1] = t.M[0][0] / det
	tinv[0] = -(minv[0][0]*t.T[0] + minv[0][1]*t.T[1])
	tinv[1] = -(minv[1][0]*t.T[0] + minv[1][1]*t.T[1])
	return minv, tinv, true
}

// LineIntersect finds the parameter values t where the parametric line
// (x0+t*dx, y0+t*dy) crosses e, per spec.md §4.3. Returns ok=false (and
// sentinel-low values) when the roots are complex.
func LineIntersect(e Ellipse, x0, y0, dx, dy float64) (t1, t2 float64, ok bool) {
	// Substitute into A x^2+Bxy+Cy^2+Dx+Ey+F=0 and collect powers of t.
	a := e.A*dx*dx + e.B*dx*dy + e.C*dy*dy
	b := 2*e.A*x0*dx + e.B*(x0*dy+y0*dx) + 2*e.C*y0*dy + e.D*dx + e.E*dy
	c := e.A*x0*x0 + e.B*x0*y0 + e.C*y0*y0 + e.D*x0 + e.E*y0 + e.F

	if a == 0 {
		if b == 0 {
			return math.Inf(-1), math.Inf(-1), false
		}
		t := -c / b
		return t, t, true
	}

	disc := b*b - 4*a*c
	if disc < 0 {
		return math.Inf(-1), math.Inf(-1), false
	}
	sq := math.Sqrt(disc)
	t1 = (-b - sq) / (2 * a)
	t2 = (-b + sq) / (2 * a)
	return t1, t2, true
}

// PointIsInside reports whether p is inside e, by the sign of the implicit
// quadratic form (spec.md §4.3: point_is_inside(p,E)).
func PointIsInside(x, y float64, e Ellipse) bool {
	return e.A*x*x+e.B*x*y+e.C*y*y+e.D*x+e.E*y+e.F < 0
}

func matMul3(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += a[i][k] * b[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

func transpose3(a [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[j][i] = a[i][j]
		}
	}
	return out
}
