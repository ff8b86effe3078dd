package animation

import (
	"math"
	"testing"
)

func TestCubicBezier(t *testing.T) {
	tests := []struct {
		name  string
		curve Curve
		t     float64
		want  float64
	}{
		{"ease midpoint", Ease, 0.5, 0.8024},
		{"standard midpoint", CubicBezier(0.4, 0, 0.2, 1), 0.5, 0.7756},
		{"linear control points", CubicBezier(0, 0, 1, 1), 0.3, 0.3},
		{"clamps below", EaseInOut, -1, 0},
		{"clamps above", EaseInOut, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.curve(tt.t); math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("curve(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestCubicBezierMonotonic(t *testing.T) {
	for _, name := range CurveNames() {
		c, _ := CurveByName(name)
		prev := c(0)
		for i := 1; i <= 100; i++ {
			v := c(float64(i) / 100)
			if v < prev-1e-9 {
				t.Errorf("%s decreases at t=%v: %v < %v", name, float64(i)/100, v, prev)
				break
			}
			prev = v
		}
	}
}
