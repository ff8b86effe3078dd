// Package easing compiles easing expressions into animation curves.
//
// An expression is a CEL program over the double variable t, the raw
// progress in [0, 1], that evaluates to a double:
//
//	t * t * (3.0 - 2.0 * t)
//	pow(t, 3.0)
//	t < 0.5 ? 4.0 * t * t * t : 1.0 - pow(-2.0 * t + 2.0, 3.0) / 2.0
//
// CEL does not convert between int and double, so numeric literals must be
// written as doubles (1.0, not 1).
package easing

import (
	"fmt"
	"math"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/go-drift/zoetrope/pkg/animation"
	"github.com/go-drift/zoetrope/pkg/errors"
)

// probes are evaluated at compile time so that expressions failing on
// ordinary input are rejected before they drive a clock.
var probes = []float64{0, 0.25, 0.5, 0.75, 1}

// Compile compiles src into a curve. The returned error is a
// *errors.ZoetropeError of kind KindEasing.
func Compile(src string) (animation.Curve, error) {
	prg, err := compile(src)
	if err != nil {
		return nil, &errors.ZoetropeError{Op: "easing.Compile", Kind: errors.KindEasing, Err: err}
	}
	for _, t := range probes {
		if _, err := eval(prg, t); err != nil {
			return nil, &errors.ZoetropeError{Op: "easing.Compile", Kind: errors.KindEasing, Err: fmt.Errorf("%q at t=%v: %w", src, t, err)}
		}
	}

	reported := false
	return func(t float64) float64 {
		v, err := eval(prg, t)
		if err != nil {
			// Fall back to linear progress; report the first failure only.
			if !reported {
				reported = true
				errors.Report(&errors.ZoetropeError{Op: "easing.Eval", Kind: errors.KindEasing, Err: fmt.Errorf("%q at t=%v: %w", src, t, err)})
			}
			return t
		}
		return v
	}, nil
}

func compile(src string) (cel.Program, error) {
	env, err := cel.NewEnv(
		cel.Variable("t", cel.DoubleType),
		cel.Lib(mathLib{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create env: %v", err)
	}

	ast, iss := env.Compile(src)
	if iss.Err() != nil {
		return nil, fmt.Errorf("failed compilation: %v", iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.DoubleType) {
		return nil, fmt.Errorf("expression yields %v, want double", ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed program instantiation: %v", err)
	}
	return prg, nil
}

func eval(prg cel.Program, t float64) (float64, error) {
	out, _, err := prg.Eval(map[string]any{"t": t})
	if err != nil {
		return 0, fmt.Errorf("failed eval: %v", err)
	}
	v, ok := out.Value().(float64)
	if !ok {
		return 0, fmt.Errorf("result %v is %T, want double", out, out.Value())
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("result is %v", v)
	}
	return v, nil
}

// mathLib adds numeric helpers on doubles.
type mathLib struct{}

func (mathLib) ProgramOptions() []cel.ProgramOption { return nil }

func (mathLib) CompileOptions() []cel.EnvOption {
	unary := func(name string, fn func(float64) float64) cel.EnvOption {
		return cel.Function(name,
			cel.Overload(name+"_double",
				[]*cel.Type{cel.DoubleType},
				cel.DoubleType,
				cel.UnaryBinding(func(arg ref.Val) ref.Val {
					x, ok := arg.(types.Double)
					if !ok {
						return types.NewErr("invalid type for %s: %T", name, arg)
					}
					return types.Double(fn(float64(x)))
				}),
			),
		)
	}
	return []cel.EnvOption{
		unary("sqrt", math.Sqrt),
		unary("sin", math.Sin),
		unary("cos", math.Cos),
		unary("exp", math.Exp),
		unary("abs", math.Abs),
		cel.Function("pow",
			cel.Overload("pow_double_double",
				[]*cel.Type{cel.DoubleType, cel.DoubleType},
				cel.DoubleType,
				cel.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
					x, ok := lhs.(types.Double)
					if !ok {
						return types.NewErr("invalid type for pow: %T", lhs)
					}
					y, ok := rhs.(types.Double)
					if !ok {
						return types.NewErr("invalid type for pow: %T", rhs)
					}
					return types.Double(math.Pow(float64(x), float64(y)))
				}),
			),
		),
		cel.Constant("pi", cel.DoubleType, types.Double(math.Pi)),
	}
}
