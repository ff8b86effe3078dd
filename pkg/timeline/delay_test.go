package timeline

import (
	"testing"
	"time"
)

func TestParseDelay(t *testing.T) {
	tests := []struct {
		in       string
		set      bool
		relative bool
		str      string
	}{
		{"", false, false, "auto"},
		{"   ", false, false, "auto"},
		{"0", true, false, "0"},
		{"250", true, false, "250"},
		{"~", true, true, "~"},
		{"+100", true, true, "+100"},
		{"-50", true, true, "-50"},
		{"12ms", true, true, "12ms"},
		{"*5", true, true, "*5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d := ParseDelay(tt.in)
			if d.IsSet() != tt.set {
				t.Errorf("IsSet() = %v, want %v", d.IsSet(), tt.set)
			}
			if d.IsRelative() != tt.relative {
				t.Errorf("IsRelative() = %v, want %v", d.IsRelative(), tt.relative)
			}
			if d.String() != tt.str {
				t.Errorf("String() = %q, want %q", d.String(), tt.str)
			}
		})
	}
}

func TestAtString(t *testing.T) {
	if got := At(1500 * time.Millisecond).String(); got != "1500" {
		t.Errorf("String() = %q, want 1500", got)
	}
	if got := (Delay{}).String(); got != "auto" {
		t.Errorf("zero String() = %q, want auto", got)
	}
}

func TestEmptyExprIsRelative(t *testing.T) {
	d := Expr("")
	if !d.IsSet() || !d.IsRelative() {
		t.Errorf("Expr(\"\") IsSet() = %v, IsRelative() = %v, want true, true", d.IsSet(), d.IsRelative())
	}
	if _, err := resolveDelay(0, d, nil); err == nil {
		t.Error("resolveDelay() accepted an empty expression")
	}
}
