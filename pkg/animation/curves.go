package animation

import (
	"maps"
	"math"
	"slices"
)

// Curve maps raw progress t in [0, 1] to eased progress. Set one with
// [Options].Easing or [Clock.SetEasing]; [CubicBezier] builds CSS-style
// curves and [CurveByName] looks up the built-in ones.
type Curve func(t float64) float64

// LinearCurve returns linear progress (no easing).
func LinearCurve(t float64) float64 {
	return t
}

// EaseOutQuart decelerates to rest: 1 - (1-t)^4. It is the default
// easing for a [Clock].
func EaseOutQuart(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u*u
}

// EaseInCubic starts slowly and accelerates: t^3.
func EaseInCubic(t float64) float64 {
	return t * t * t
}

// CSS named timing functions.
var (
	Ease      = CubicBezier(0.25, 0.1, 0.25, 1.0)
	EaseIn    = CubicBezier(0.42, 0.0, 1.0, 1.0)
	EaseOut   = CubicBezier(0.0, 0.0, 0.58, 1.0)
	EaseInOut = CubicBezier(0.42, 0.0, 0.58, 1.0)
)

// CubicBezier returns the CSS cubic-bezier(x1, y1, x2, y2) timing function.
// The curve runs from (0,0) to (1,1); t outside (0, 1) clamps to the ends.
func CubicBezier(x1, y1, x2, y2 float64) Curve {
	bx := newBezierAxis(x1, x2)
	by := newBezierAxis(y1, y2)
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}
		return by.at(bx.solve(t))
	}
}

const bezierEpsilon = 1e-7

// bezierAxis is one coordinate of a unit cubic bezier in polynomial form:
// ((a*u + b)*u + c)*u.
type bezierAxis struct{ a, b, c float64 }

func newBezierAxis(p1, p2 float64) bezierAxis {
	c := 3 * p1
	b := 3*(p2-p1) - c
	return bezierAxis{a: 1 - c - b, b: b, c: c}
}

func (ax bezierAxis) at(u float64) float64 {
	return ((ax.a*u+ax.b)*u + ax.c) * u
}

func (ax bezierAxis) slope(u float64) float64 {
	return (3*ax.a*u+2*ax.b)*u + ax.c
}

// solve finds u in [0, 1] with at(u) == x: Newton steps first, bisection
// when the slope flattens or Newton has not converged.
func (ax bezierAxis) solve(x float64) float64 {
	u := x
	for range 8 {
		d := ax.at(u) - x
		if math.Abs(d) < bezierEpsilon {
			return u
		}
		s := ax.slope(u)
		if math.Abs(s) < bezierEpsilon {
			break
		}
		u -= d / s
	}

	lo, hi := 0.0, 1.0
	u = min(max(u, lo), hi)
	for range 32 {
		d := ax.at(u) - x
		if math.Abs(d) < bezierEpsilon {
			break
		}
		if d > 0 {
			hi = u
		} else {
			lo = u
		}
		u = (lo + hi) / 2
	}
	return u
}

var namedCurves = map[string]Curve{
	"linear":         LinearCurve,
	"ease":           Ease,
	"ease-in":        EaseIn,
	"ease-out":       EaseOut,
	"ease-in-out":    EaseInOut,
	"ease-out-quart": EaseOutQuart,
	"ease-in-cubic":  EaseInCubic,
}

// CurveByName returns the built-in curve registered under name,
// e.g. "ease-out-quart" or "linear".
func CurveByName(name string) (Curve, bool) {
	c, ok := namedCurves[name]
	return c, ok
}

// CurveNames returns the names accepted by CurveByName in sorted order.
func CurveNames() []string {
	return slices.Sorted(maps.Keys(namedCurves))
}
