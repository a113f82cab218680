package ellipse

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Flags records the classification of an ell_ell_intersect or
// ell_ell_overlap call (spec.md §4.3).
type Flags uint32

const (
	FlagTwoIntersects Flags = 1 << iota
	FlagFourIntersects
	FlagOneInsideTwo
	FlagTwoInsideOne
	FlagIdentical
	FlagNoOverlap
	FlagWarnInaccurate
	FlagError
)

// Point is an intersection point in the shared (u,v) plane.
type Point struct{ U, V float64 }

// IntersectResult is the outcome of EllEllIntersect: up to four points, in
// no particular order, and the classification flags.
type IntersectResult struct {
	Points []Point
	Flags  Flags
}

// EllEllIntersect finds the intersection points of two ellipses by
// eliminating y between their implicit quadratic forms, leaving a quartic
// in x (the resultant of the two quadratics-in-y), whose real roots are
// found via the eigenvalues of its companion matrix (gonum's mat.Eigen) and
// polished with two Newton steps on the original 2x2 system.
func EllEllIntersect(e1, e2 Ellipse) IntersectResult {
	if identical(e1, e2) {
		return IntersectResult{Flags: FlagIdentical}
	}

	// Quick reject: bounding circles disjoint.
	dx, dy := e1.Xc-e2.Xc, e1.Yc-e2.Yc
	dist := math.Hypot(dx, dy)
	r1 := math.Max(e1.Ap, e1.Bp)
	r2 := math.Max(e2.Ap, e2.Bp)
	if dist > r1+r2 {
		return IntersectResult{Flags: FlagNoOverlap}
	}

	a1, b1, c1 := []float64{e1.C}, []float64{e1.E, e1.B}, []float64{e1.F, e1.D, e1.A}
	a2, b2, c2 := []float64{e2.C}, []float64{e2.E, e2.B}, []float64{e2.F, e2.D, e2.A}

	term1 := polySub(polyMul(a1, c2), polyMul(a2, c1)) // a1*c2 - a2*c1, deg<=2
	term2 := polySub(polyMul(a1, b2), polyMul(a2, b1)) // a1*b2 - a2*b1, deg<=1
	term3 := polySub(polyMul(b1, c2), polyMul(b2, c1)) // b1*c2 - b2*c1, deg<=3

	resultant := polySub(polyMul(term1, term1), polyMul(term2, term3))
	resultant = polyPad(resultant, 5)

	roots := quarticRealRoots(resultant[4], resultant[3], resultant[2], resultant[1], resultant[0])

	var pts []Point
	for _, x := range roots {
		t1x := polyEval(term1, x)
		t2x := polyEval(term2, x)
		var ys []float64
		if math.Abs(t2x) > 1e-9 {
			ys = []float64{-t1x / t2x}
		} else {
			// term2 degenerate at this x: fall back to the direct quadratic
			// solve in y using conic 1. Both roots are tried, since two
			// intersection points can share this x; a root that is not on
			// conic 2 fails the polish below.
			aY, bY, cY := polyEval(a1, x), polyEval(b1, x), polyEval(c1, x)
			if aY == 0 {
				if bY == 0 {
					continue
				}
				ys = []float64{-cY / bY}
			} else {
				disc := bY*bY - 4*aY*cY
				if disc < 0 {
					continue
				}
				sq := math.Sqrt(disc)
				ys = []float64{(-bY + sq) / (2 * aY), (-bY - sq) / (2 * aY)}
			}
		}

		for _, y := range ys {
			px, py, ok := polishRoot(e1, e2, x, y)
			if !ok {
				continue
			}
			pts = append(pts, Point{U: px, V: py})
		}
	}

	pts = dedupePoints(pts)

	switch len(pts) {
	case 0:
		if e1.Area <= e2.Area && PointIsInside(e1.Xc, e1.Yc, e2) {
			return IntersectResult{Flags: FlagOneInsideTwo}
		}
		if PointIsInside(e2.Xc, e2.Yc, e1) {
			return IntersectResult{Flags: FlagTwoInsideOne}
		}
		return IntersectResult{Flags: FlagNoOverlap}
	case 2:
		return IntersectResult{Points: pts, Flags: FlagTwoIntersects}
	case 4:
		return IntersectResult{Points: pts, Flags: FlagFourIntersects}
	default:
		// An odd count or >4 indicates a tangency or near-degenerate
		// configuration the polynomial elimination resolved imprecisely.
		return IntersectResult{Points: pts, Flags: FlagWarnInaccurate}
	}
}

func identical(e1, e2 Ellipse) bool {
	const tol = 1e-9
	return math.Abs(e1.Xc-e2.Xc) < tol && math.Abs(e1.Yc-e2.Yc) < tol &&
		math.Abs(e1.Ap-e2.Ap) < tol && math.Abs(e1.Bp-e2.Bp) < tol &&
		math.Abs(math.Mod(e1.Phi-e2.Phi, math.Pi)) < tol
}

func dedupePoints(pts []Point) []Point {
	const tol = 1e-7
	out := pts[:0:0]
	for _, p := range pts {
		dup := false
		for _, q := range out {
			if math.Hypot(p.U-q.U, p.V-q.V) < tol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

// polishRoot refines (x,y) to solve both implicit quadratic forms exactly
// via two Newton iterations on the 2x2 system, the way the teacher's
// search package refines a bisection bracket with a final Newton step.
func polishRoot(e1, e2 Ellipse, x, y float64) (float64, float64, bool) {
	f := func(x, y float64) (float64, float64) {
		return e1.A*x*x + e1.B*x*y + e1.C*y*y + e1.D*x + e1.E*y + e1.F,
			e2.A*x*x + e2.B*x*y + e2.C*y*y + e2.D*x + e2.E*y + e2.F
	}
	for iter := 0; iter < 2; iter++ {
		f1, f2 := f(x, y)
		// Jacobian.
		j11 := 2*e1.A*x + e1.B*y + e1.D
		j12 := e1.B*x + 2*e1.C*y + e1.E
		j21 := 2*e2.A*x + e2.B*y + e2.D
		j22 := e2.B*x + 2*e2.C*y + e2.E

		det := j11*j22 - j12*j21
		if math.Abs(det) < 1e-14 {
			break
		}
		dx := (-f1*j22 + f2*j12) / det
		dy := (-j11*f2 + j21*f1) / det
		x += dx
		y += dy
	}
	f1, f2 := f(x, y)
	if math.Abs(f1) > 1e-4 || math.Abs(f2) > 1e-4 {
		return 0, 0, false
	}
	return x, y, true
}

// quarticRealRoots finds the real roots of c4*x^4+c3*x^3+c2*x^2+c1*x+c0 via
// the eigenvalues of the companion matrix (gonum's mat.Eigen), discarding
// roots whose imaginary part is not negligible relative to the real part.
func quarticRealRoots(c4, c3, c2, c1, c0 float64) []float64 {
	if math.Abs(c4) < 1e-13 {
		return cubicOrLowerRealRoots(c3, c2, c1, c0)
	}
	c3, c2, c1, c0 = c3/c4, c2/c4, c1/c4, c0/c4

	companion := mat.NewDense(4, 4, []float64{
		-c3, -c2, -c1, -c0,
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	})

	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return nil
	}
	values := eig.Values(nil)

	var roots []float64
	for _, v := range values {
		re, im := real(v), imag(v)
		if math.Abs(im) < 1e-6*(1+math.Abs(re)) {
			roots = append(roots, re)
		}
	}
	return roots
}

// cubicOrLowerRealRoots handles the degenerate case where the leading
// quartic coefficient vanishes (two confocal-conic inputs whose resultant
// collapses a degree), by solving the resulting cubic via the same
// companion-matrix approach.
func cubicOrLowerRealRoots(c3, c2, c1, c0 float64) []float64 {
	if math.Abs(c3) < 1e-13 {
		if math.Abs(c2) < 1e-13 {
			if math.Abs(c1) < 1e-13 {
				return nil
			}
			return []float64{-c0 / c1}
		}
		disc := c1*c1 - 4*c2*c0
		if disc < 0 {
			// Negative only by rounding (relative to c1^2): a double root,
			// as for two circles whose centres share a y coordinate.
			if disc < -1e-12*c1*c1 {
				return nil
			}
			disc = 0
		}
		sq := math.Sqrt(disc)
		return []float64{(-c1 + sq) / (2 * c2), (-c1 - sq) / (2 * c2)}
	}
	c2, c1, c0 = c2/c3, c1/c3, c0/c3
	companion := mat.NewDense(3, 3, []float64{
		-c2, -c1, -c0,
		1, 0, 0,
		0, 1, 0,
	})
	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return nil
	}
	values := eig.Values(nil)
	var roots []float64
	for _, v := range values {
		re, im := real(v), imag(v)
		if math.Abs(im) < 1e-6*(1+math.Abs(re)) {
			roots = append(roots, re)
		}
	}
	return roots
}

// Polynomials are represented as coefficient slices, index i holding the
// coefficient of x^i, to let EllEllIntersect build the resultant out of
// small reusable arithmetic rather than hand-expanded algebra.

func polyMul(p, q []float64) []float64 {
	out := make([]float64, len(p)+len(q)-1)
	for i, pv := range p {
		for j, qv := range q {
			out[i+j] += pv * qv
		}
	}
	return out
}

func polySub(p, q []float64) []float64 {
	n := len(p)
	if len(q) > n {
		n = len(q)
	}
	out := make([]float64, n)
	for i := range out {
		var pv, qv float64
		if i < len(p) {
			pv = p[i]
		}
		if i < len(q) {
			qv = q[i]
		}
		out[i] = pv - qv
	}
	return out
}

func polyPad(p []float64, n int) []float64 {
	if len(p) >= n {
		return p
	}
	out := make([]float64, n)
	copy(out, p)
	return out
}

func polyEval(p []float64, x float64) float64 {
	var v float64
	for i := len(p) - 1; i >= 0; i-- {
		v = v*x + p[i]
	}
	return v
}
