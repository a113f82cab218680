// Package integrate builds the curvilinear two-intersection (Partial) and
// four-intersection (DoublePartial) region integrals the eclipse
// orchestrator needs: the brightness-weighted flux and bare area of the
// lens-shaped region common to two projected stellar ellipses.
//
// Both integrators work in a local "chord frame" (f perpendicular to the
// chord joining the intersection points, g along it), built once per call
// with ellipse.Affine, so the curvilinear y-limit callbacks quadrature.Gauss2D
// needs reduce to a single quadratic solve per ellipse (chordGLimit),
// replacing the four near-duplicate teacher callbacks glimnega/glimposa/
// glimnegb/glimposb with one closure constructor (spec.md §9 Design Notes).
package integrate

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/stellarbin/lcmodel/ellipse"
	"github.com/stellarbin/lcmodel/quadrature"
)

// ErrNotTwoIntersections is returned by Partial when the two ellipses do
// not cross at exactly two points.
var ErrNotTwoIntersections = errors.New("integrate: ellipses do not have exactly two intersection points")

// ErrNotFourIntersections is returned by DoublePartial when the two
// ellipses do not cross at exactly four points.
var ErrNotFourIntersections = errors.New("integrate: ellipses do not have exactly four intersection points")

// Branch selects which root of the chord-frame quadratic chordGLimit
// returns: the lower or upper g bound at a given f.
type Branch int

const (
	BranchLower Branch = iota
	BranchUpper
)

// Result is the outcome of a region integration: the brightness-weighted
// integral and its companion bare-area integral, so that callers using the
// difference-from-whole identity (spec.md §4.6) see first-order quadrature
// errors in area and flux cancel.
type Result struct {
	Flux float64
	Area float64
}

// chordGLimit returns a closure solving e's implicit quadratic form for g
// at a given f (the ellipse is assumed already expressed in chord-frame
// coordinates via ellipse.Affine), picking the requested root branch. This
// is the single constructor that stands in for the teacher's four
// near-duplicate glimnega/glimposa/glimnegb/glimposb callbacks.
func chordGLimit(e ellipse.Ellipse, branch Branch) func(f float64) float64 {
	return func(f float64) float64 {
		a := e.C
		b := e.B*f + e.E
		c := e.A*f*f + e.D*f + e.F
		if a == 0 {
			if b == 0 {
				return 0
			}
			return -c / b
		}
		disc := b*b - 4*a*c
		if disc < 0 {
			return 0
		}
		sq := math.Sqrt(disc)
		if branch == BranchLower {
			return (-b - sq) / (2 * a)
		}
		return (-b + sq) / (2 * a)
	}
}

// chordFrame builds the affine transform from (f,g) chord coordinates to
// sky (u,v) coordinates, given the two intersection points: g runs along
// the chord p1->p2, f is perpendicular, and the origin is the chord
// midpoint.
func chordFrame(p1, p2 ellipse.Point) ellipse.Affine2 {
	theta := math.Atan2(p2.V-p1.V, p2.U-p1.U)
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	um, vm := (p1.U+p2.U)/2, (p1.V+p2.V)/2
	return ellipse.Affine2{
		M: [2][2]float64{{-sinT, cosT}, {cosT, sinT}},
		T: [2]float64{um, vm},
	}
}

// toChordFrame inverts chordFrame's (f,g)->(u,v) map, so that
// e.Affine(toChordFrame(t)) is e expressed in chord coordinates. The matrix
// is a reflection (symmetric and its own inverse).
func toChordFrame(t ellipse.Affine2) ellipse.Affine2 {
	m := t.M
	return ellipse.Affine2{M: m, T: [2]float64{
		-(m[0][0]*t.T[0] + m[0][1]*t.T[1]),
		-(m[1][0]*t.T[0] + m[1][1]*t.T[1]),
	}}
}

// Partial integrates f over the lens-shaped region common to two ellipses
// that cross at exactly two points (spec.md §4.6). nx is the Gauss-Legendre
// node count along f, scaled by nodeCount from the chord's length (spec.md
// §4.6 "Edge policy"); nYMin/nYMax bound the adaptive node count along g.
func Partial(ea, eb ellipse.Ellipse, f quadrature.Func2D, pars interface{}, nx, nYMin, nYMax int, v *quadrature.Verbose) (Result, error) {
	ir := ellipse.EllEllIntersect(ea, eb)
	if ir.Flags&ellipse.FlagTwoIntersects == 0 || len(ir.Points) != 2 {
		return Result{}, ErrNotTwoIntersections
	}

	t := chordFrame(ir.Points[0], ir.Points[1])
	eaChord := ea.Affine(toChordFrame(t))
	ebChord := eb.Affine(toChordFrame(t))

	nx = nodeCount(nx, chordLength(ir.Points[0], ir.Points[1]), math.Max(ea.Ap, eb.Ap))

	gLoA := chordGLimit(eaChord, BranchLower)
	gHiA := chordGLimit(eaChord, BranchUpper)
	gLoB := chordGLimit(ebChord, BranchLower)
	gHiB := chordGLimit(ebChord, BranchUpper)

	gLo := func(fv float64) float64 { return math.Max(gLoA(fv), gLoB(fv)) }
	gHi := func(fv float64) float64 { return math.Min(gHiA(fv), gHiB(fv)) }

	bound := 2 * math.Max(math.Max(ea.Ap, ea.Bp), math.Max(eb.Ap, eb.Bp))
	fHi := findFExtent(gLo, gHi, 1, bound)
	fLo := findFExtent(gLo, gHi, -1, bound)

	chordFunc := func(fv, gv float64, pr interface{}) float64 {
		u, vv := t.Apply(fv, gv)
		return f(u, vv, pr)
	}
	unitFunc := func(fv, gv float64, pr interface{}) float64 { return 1 }

	flux := quadrature.Gauss2D(nx, chordFunc, fLo, fHi, gLo, gHi, pars, nYMin, nYMax, v)
	area := quadrature.Gauss2D(nx, unitFunc, fLo, fHi, gLo, gHi, pars, nYMin, nYMax, v)

	return Result{Flux: flux, Area: area}, nil
}

// DoublePartial integrates over the (generally two-piece) region bounded
// by four real intersection points: the points are sorted by polar angle
// about their centroid into a cyclic order, then paired into the two
// chords that bound the two separate lens regions, and each chord is
// processed like Partial and accumulated (spec.md §4.6).
func DoublePartial(ea, eb ellipse.Ellipse, f quadrature.Func2D, pars interface{}, nx, nYMin, nYMax int, v *quadrature.Verbose) (Result, error) {
	ir := ellipse.EllEllIntersect(ea, eb)
	if ir.Flags&ellipse.FlagFourIntersects == 0 || len(ir.Points) != 4 {
		return Result{}, ErrNotFourIntersections
	}

	pts := append([]ellipse.Point(nil), ir.Points...)
	var cu, cv float64
	for _, p := range pts {
		cu += p.U
		cv += p.V
	}
	cu /= 4
	cv /= 4
	sort.Slice(pts, func(i, j int) bool {
		return math.Atan2(pts[i].V-cv, pts[i].U-cu) < math.Atan2(pts[j].V-cv, pts[j].U-cu)
	})

	// Pair consecutive points in cyclic order into two chords, (0,1) and
	// (2,3). No probe checks which ellipse's arc lies between adjacent
	// points; the other cyclic pairing, (1,2) and (3,0), is never tried.
	chordA := [2]ellipse.Point{pts[0], pts[1]}
	chordB := [2]ellipse.Point{pts[2], pts[3]}

	var total Result
	for _, chord := range [][2]ellipse.Point{chordA, chordB} {
		t := chordFrame(chord[0], chord[1])
		eaChord := ea.Affine(toChordFrame(t))
		ebChord := eb.Affine(toChordFrame(t))

		gLoA := chordGLimit(eaChord, BranchLower)
		gHiA := chordGLimit(eaChord, BranchUpper)
		gLoB := chordGLimit(ebChord, BranchLower)
		gHiB := chordGLimit(ebChord, BranchUpper)
		gLo := func(fv float64) float64 { return math.Max(gLoA(fv), gLoB(fv)) }
		gHi := func(fv float64) float64 { return math.Min(gHiA(fv), gHiB(fv)) }

		bound := 2 * math.Max(math.Max(ea.Ap, ea.Bp), math.Max(eb.Ap, eb.Bp))
		fHi := findFExtent(gLo, gHi, 1, bound)
		fLo := findFExtent(gLo, gHi, -1, bound)

		chordFunc := func(fv, gv float64, pr interface{}) float64 {
			u, vv := t.Apply(fv, gv)
			return f(u, vv, pr)
		}
		unitFunc := func(fv, gv float64, pr interface{}) float64 { return 1 }

		n := nodeCount(nx, chordLength(chord[0], chord[1]), math.Max(ea.Ap, eb.Ap))
		total.Flux += quadrature.Gauss2D(n, chordFunc, fLo, fHi, gLo, gHi, pars, nYMin, nYMax, v)
		total.Area += quadrature.Gauss2D(n, unitFunc, fLo, fHi, gLo, gHi, pars, nYMin, nYMax, v)
	}
	return total, nil
}

func chordLength(p1, p2 ellipse.Point) float64 {
	return math.Hypot(p2.U-p1.U, p2.V-p1.V)
}

// nodeCount scales the requested node count down (never below a sane
// floor) when the chord is short relative to the ellipse's semi-major
// axis, keeping the number of quadrature nodes proportional to the linear
// size of the region (spec.md §4.6 Edge policy).
func nodeCount(nx int, chord, apRef float64) int {
	if apRef <= 0 {
		return nx
	}
	ratio := chord / (2 * apRef)
	if ratio > 1 {
		ratio = 1
	}
	scaled := int(math.Round(float64(nx) * ratio))
	const floor = 4
	if scaled < floor {
		scaled = floor
	}
	if scaled > nx {
		scaled = nx
	}
	return scaled
}

// findFExtent searches outward from f=0 (known to lie inside the region,
// since the chord frame's origin is the intersection chord's midpoint) in
// the given direction (+1 or -1) for the boundary where gHi(f) stops
// exceeding gLo(f), then bisects to refine it. Grounded on the teacher's
// search package bracket-then-bisect pattern (also used by shape's
// volume-conserving root search).
func findFExtent(gLo, gHi func(float64) float64, direction, guessBound float64) float64 {
	valid := 0.0
	invalid := direction * guessBound
	for iter := 0; iter < 30 && gHi(invalid) > gLo(invalid); iter++ {
		invalid *= 2
	}
	for iter := 0; iter < 60; iter++ {
		mid := (valid + invalid) / 2
		if gHi(mid) > gLo(mid) {
			valid = mid
		} else {
			invalid = mid
		}
	}
	return valid
}
