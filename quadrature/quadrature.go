// Package quadrature implements the two Gauss-Legendre integration
// primitives the partial integrators and orchestrator build on: a
// whole-ellipse integral (EllGauss) and a curvilinear x-y region integral
// with callback y-limits (Gauss2D). Both are pure: all state travels
// through the pars argument, so a caller can farm many evaluations out
// across goroutines without synchronization, the same way the teacher's
// search package keeps FindDiscrete/FindMaxima free of shared state.
package quadrature

import (
	"fmt"
	"io"
	"math"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"
)

// Level is the verbosity enumeration spec.md §6 describes ("silent, warn,
// user, debug") gating diagnostic print sites.
type Level int

const (
	Silent Level = iota
	Warn
	User
	Debug
)

// Verbose is the diagnostic passthrough handle both routines accept
// (spec.md §4.5: "both routines accept a verbose handle for diagnostic
// passthrough"). A nil Verbose disables all diagnostic output; a non-nil
// Verbose only prints a call whose level is at or below Level.
type Verbose struct {
	W     io.Writer
	Level Level
}

func (v *Verbose) logf(level Level, format string, args ...interface{}) {
	if v == nil || v.W == nil || level > v.Level {
		return
	}
	fmt.Fprintf(v.W, format, args...)
}

// nodeCache avoids recomputing the same Gauss-Legendre node/weight table on
// every call for a fixed n; node count is almost always one of a handful
// of control-block values across a light-curve run. nodeCacheMu guards it,
// since concurrent callers share it.
var (
	nodeCacheMu sync.Mutex
	nodeCache   = map[int][2][]float64{}
)

func nodesAndWeights(n int) ([]float64, []float64) {
	nodeCacheMu.Lock()
	defer nodeCacheMu.Unlock()
	if cached, ok := nodeCache[n]; ok {
		return cached[0], cached[1]
	}
	x := make([]float64, n)
	w := make([]float64, n)
	var legendre quad.Legendre
	legendre.FixedLocations(x, w, -1, 1)
	nodeCache[n] = [2][]float64{x, w}
	return x, w
}

// Func2D is the integrand signature both quadrature routines consume:
// a brightness-kernel-shaped callback of a sky-plane point plus an
// opaque parameter block.
type Func2D func(s, t float64, pars interface{}) float64

// EllGauss integrates f over a centred, axis-aligned ellipse of semi-axes
// (ap, bp) using n Gauss-Legendre nodes per dimension, via the standard
// x=ap*r*cos(theta), y=bp*r*sin(theta) parameterization with Jacobian
// ap*bp*r (spec.md §4.5). Used for whole-disc integrals; its ratio against
// the analytic area pi*ap*bp is the anorm correction factor threaded
// through the orchestrator.
func EllGauss(ap, bp float64, n int, f Func2D, pars interface{}, v *Verbose) float64 {
	rNodes, rWeights := nodesAndWeights(n)
	thetaNodes, thetaWeights := nodesAndWeights(n)

	var total float64
	for i, rn := range rNodes {
		r := (rn + 1) / 2 // map [-1,1] -> [0,1]
		rJac := 0.5
		for j, tn := range thetaNodes {
			theta := (tn + 1) * math.Pi // map [-1,1] -> [0, 2*pi]
			thetaJac := math.Pi

			s := ap * r * math.Cos(theta)
			t := bp * r * math.Sin(theta)
			jac := ap * bp * r

			total += rWeights[i] * thetaWeights[j] * f(s, t, pars) * jac * rJac * thetaJac
		}
	}
	v.logf(Debug, "quadrature: ellgauss ap=%g bp=%g n=%d result=%g\n", ap, bp, n, total)
	return total
}

// Gauss2D integrates f(x,y) over x in [xLo, xHi] with y bounded at each
// x-node by gLo(x) and gHi(x) (spec.md §4.5). The y-node count is chosen
// adaptively between nYMin and nYMax from how much gHi(x)-gLo(x) varies
// across five evenly spaced x probes (see adaptiveYNodes), matching the
// teacher's search package
// style of a coarse initial estimate driving a refined pass.
func Gauss2D(nx int, f Func2D, xLo, xHi float64, gLo, gHi func(x float64) float64, pars interface{}, nYMin, nYMax int, v *Verbose) float64 {
	if xHi == xLo {
		return 0
	}
	xNodes, xWeights := nodesAndWeights(nx)
	xJac := (xHi - xLo) / 2

	ny := adaptiveYNodes(xLo, xHi, gLo, gHi, nYMin, nYMax)
	yNodes, yWeights := nodesAndWeights(ny)

	var total float64
	for i, xn := range xNodes {
		x := xLo + (xn+1)*xJac
		lo, hi := gLo(x), gHi(x)
		if hi <= lo {
			continue
		}
		yJac := (hi - lo) / 2
		var rowSum float64
		for j, yn := range yNodes {
			y := lo + (yn+1)*yJac
			rowSum += yWeights[j] * f(x, y, pars)
		}
		total += xWeights[i] * rowSum * yJac
	}
	total *= xJac
	v.logf(Debug, "quadrature: gauss2d nx=%d ny=%d xlo=%g xhi=%g result=%g\n", nx, ny, xLo, xHi, total)
	return total
}

// adaptiveYNodes samples the y-span at a few x points and scales linearly
// between nYMin and nYMax by how much that span varies relative to its
// mean — a wide, rapidly changing curvilinear boundary needs more y-nodes
// to resolve than a nearly constant one.
func adaptiveYNodes(xLo, xHi float64, gLo, gHi func(float64) float64, nYMin, nYMax int) int {
	if nYMin >= nYMax {
		return nYMin
	}
	const probes = 5
	var minSpan, maxSpan float64
	first := true
	for k := 0; k < probes; k++ {
		x := xLo + (xHi-xLo)*float64(k)/float64(probes-1)
		span := gHi(x) - gLo(x)
		if span < 0 {
			span = 0
		}
		if first {
			minSpan, maxSpan = span, span
			first = false
			continue
		}
		if span < minSpan {
			minSpan = span
		}
		if span > maxSpan {
			maxSpan = span
		}
	}
	if maxSpan <= 0 {
		return nYMin
	}
	variability := 0.0
	if maxSpan > 0 {
		variability = (maxSpan - minSpan) / maxSpan
	}
	n := nYMin + int(variability*float64(nYMax-nYMin))
	if n < nYMin {
		n = nYMin
	}
	if n > nYMax {
		n = nYMax
	}
	return n
}
