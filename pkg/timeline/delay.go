package timeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-drift/zoetrope/pkg/errors"
)

// Delay specifies when a timeline entry starts. The zero value is
// unspecified: the entry starts when its predecessor finishes, or at 0 for
// the first entry.
type Delay struct {
	set  bool
	rel  bool
	abs  time.Duration
	expr string
}

// At returns an absolute delay measured from the start of the timeline.
func At(d time.Duration) Delay {
	return Delay{set: true, abs: d}
}

// Expr returns a delay relative to the previous entry:
//
//	"~N"  start together with the previous entry (N is ignored)
//	"+N"  start N milliseconds after the previous entry ends
//	"-N"  start N milliseconds before the previous entry ends
//
// The expression is checked when the timeline is built.
func Expr(s string) Delay {
	return Delay{set: true, rel: true, expr: s}
}

// ParseDelay interprets s as found in a timeline document. An unsigned
// integer is an absolute delay in milliseconds, an empty string is
// unspecified and anything else is a relative expression.
func ParseDelay(s string) Delay {
	s = strings.TrimSpace(s)
	if s == "" {
		return Delay{}
	}
	// A leading sign is an operator, not part of a number.
	if s[0] >= '0' && s[0] <= '9' {
		if ms, err := strconv.Atoi(s); err == nil {
			return At(time.Duration(ms) * time.Millisecond)
		}
	}
	return Expr(s)
}

// IsSet reports whether the delay was specified.
func (d Delay) IsSet() bool { return d.set }

// IsRelative reports whether the delay is a relative expression.
func (d Delay) IsRelative() bool { return d.rel }

func (d Delay) String() string {
	switch {
	case !d.set:
		return "auto"
	case d.rel:
		return d.expr
	default:
		return strconv.FormatInt(d.abs.Milliseconds(), 10)
	}
}

// resolveDelay computes the absolute start of entry i given its resolved
// predecessor. prev is nil for the first entry.
func resolveDelay(i int, d Delay, prev *entry) (time.Duration, error) {
	if !d.set {
		if prev == nil {
			return 0, nil
		}
		return prev.end(), nil
	}
	if !d.rel {
		if d.abs < 0 {
			return 0, &errors.DelayError{Index: i, Expr: d.String(), Reason: "negative delay"}
		}
		return d.abs, nil
	}

	if d.expr == "" {
		return 0, &errors.DelayError{Index: i, Reason: "empty expression"}
	}
	if prev == nil {
		return 0, &errors.DelayError{Index: i, Expr: d.expr, Reason: "relative delay on the first entry"}
	}
	op, arg := d.expr[0], d.expr[1:]
	switch op {
	case '~':
		return prev.delay, nil
	case '+', '-':
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return 0, &errors.DelayError{Index: i, Expr: d.expr, Reason: fmt.Sprintf("invalid offset %q", arg)}
		}
		off := time.Duration(n) * time.Millisecond
		if op == '-' {
			off = -off
		}
		// Overlaps larger than the predecessor's end clamp to the
		// timeline start.
		return max(prev.end()+off, 0), nil
	default:
		return 0, &errors.DelayError{Index: i, Expr: d.expr, Reason: fmt.Sprintf("unknown operator %q (use +, - or ~)", op)}
	}
}
