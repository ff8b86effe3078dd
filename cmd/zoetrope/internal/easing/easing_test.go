package easing

import (
	"math"
	"testing"

	"github.com/go-drift/zoetrope/pkg/errors"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		src  string
		in   float64
		want float64
	}{
		{"t", 0.3, 0.3},
		{"t * t * t", 0.5, 0.125},
		{"1.0 - pow(1.0 - t, 4.0)", 0.5, 0.9375},
		{"t * t * (3.0 - 2.0 * t)", 0.5, 0.5},
		{"t < 0.5 ? 2.0 * t * t : 1.0 - pow(-2.0 * t + 2.0, 2.0) / 2.0", 0.25, 0.125},
		{"sqrt(t)", 0.25, 0.5},
		{"1.0 - cos(t * pi / 2.0)", 1, 1 - math.Cos(math.Pi/2)},
		{"abs(t - 1.0)", 0.25, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			curve, err := Compile(tt.src)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			if got := curve(tt.in); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("curve(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "t *"},
		{"unknown variable", "x * 2.0"},
		{"int arithmetic", "1 - t"},
		{"non-double result", "t > 0.5"},
		{"nan at probe", "sqrt(t - 1.0)"},
		{"division by zero at probe", "1.0 / t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.src)
			var ze *errors.ZoetropeError
			if !errors.As(err, &ze) {
				t.Fatalf("Compile(%q) error = %v, want *ZoetropeError", tt.src, err)
			}
			if ze.Kind != errors.KindEasing {
				t.Errorf("Kind = %v, want %v", ze.Kind, errors.KindEasing)
			}
		})
	}
}

type recorder struct {
	errs []*errors.ZoetropeError
}

func (r *recorder) HandleError(err *errors.ZoetropeError) { r.errs = append(r.errs, err) }
func (r *recorder) HandlePanic(*errors.PanicError)        {}

func TestEvalFailureFallsBackToLinear(t *testing.T) {
	rec := &recorder{}
	errors.SetHandler(rec)
	t.Cleanup(func() { errors.SetHandler(nil) })

	curve, err := Compile("t > 0.9 && t < 0.95 ? sqrt(-1.0) : t * t")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if got := curve(0.5); got != 0.25 {
		t.Errorf("curve(0.5) = %v, want 0.25", got)
	}
	for range 3 {
		if got := curve(0.92); got != 0.92 {
			t.Errorf("curve(0.92) = %v, want linear fallback 0.92", got)
		}
	}
	if len(rec.errs) != 1 {
		t.Fatalf("reported %d errors, want 1", len(rec.errs))
	}
	if rec.errs[0].Op != "easing.Eval" {
		t.Errorf("Op = %q", rec.errs[0].Op)
	}
}
