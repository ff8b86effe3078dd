package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/zoetrope/pkg/animation"
	"github.com/go-drift/zoetrope/pkg/errors"
	"github.com/go-drift/zoetrope/pkg/timeline"
)

const yamlDoc = `version: v1
defaults:
  duration: 400
  easing: linear
animations:
  - name: fade
    duration: 200
  - name: slide
    duration: 300
    delay: "~"
    easing: { bezier: [0.4, 0, 0.2, 1] }
  - name: pop
    duration: 100
    delay: "+100"
    easing: { expr: "t * t * t" }
  - name: settle
    delay: 50
`

const tomlDoc = `version = "v1"

[defaults]
duration = 400
easing = "linear"

[[animations]]
name = "fade"
duration = 200

[[animations]]
name = "slide"
duration = 300
delay = "~"
easing = { bezier = [0.4, 0, 0.2, 1] }

[[animations]]
name = "pop"
duration = 100
delay = "+100"
easing = { expr = "t * t * t" }

[[animations]]
name = "settle"
delay = 50
`

func wantDocument() *Document {
	return &Document{
		Version:  "v1",
		Defaults: Defaults{Duration: 400, Easing: Easing{Name: "linear"}},
		Animations: []Animation{
			{Name: "fade", Duration: 200},
			{Name: "slide", Duration: 300, Delay: "~", Easing: Easing{Bezier: []float64{0.4, 0, 0.2, 1}}},
			{Name: "pop", Duration: 100, Delay: "+100", Easing: Easing{Expr: "t * t * t"}},
			{Name: "settle", Delay: "50"},
		},
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		ext  string
		data string
	}{
		{".yaml", yamlDoc},
		{".YML", yamlDoc},
		{".toml", tomlDoc},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			doc, err := Parse([]byte(tt.data), tt.ext)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(wantDocument(), doc); diff != "" {
				t.Errorf("document mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
		want string
	}{
		{"unknown format", ".json", `{}`, "unsupported timeline format"},
		{"missing version", ".yaml", "animations: [{duration: 1}]", "version is required"},
		{"bad version", ".yaml", "version: one\nanimations: [{duration: 1}]", "invalid version"},
		{"future major", ".yaml", "version: v2\nanimations: [{duration: 1}]", "unsupported version"},
		{"future minor", ".yaml", "version: v1.3\nanimations: [{duration: 1}]", "unsupported version"},
		{"no animations", ".yaml", "version: v1\n", "no animations"},
		{"negative duration", ".yaml", "version: v1\nanimations: [{name: a, duration: -1}]", "a): duration must not be negative"},
		{"unknown yaml key", ".yaml", "version: v1\nspeed: 2\nanimations: [{duration: 1}]", "speed"},
		{"unknown toml key", ".toml", "version = \"v1\"\nspeed = 2\n[[animations]]\nduration = 1\n", "unknown key \"speed\""},
		{"bezier arity", ".yaml", "version: v1\nanimations: [{easing: {bezier: [1, 2]}}]", "4 control values"},
		{"bezier x1 above 1", ".yaml", "version: v1\nanimations: [{easing: {bezier: [1.5, 0, 0.2, 1]}}]", "x1 must be within [0, 1]"},
		{"bezier x2 below 0", ".yaml", "version: v1\nanimations: [{easing: {bezier: [0.4, 0, -0.2, 1]}}]", "x2 must be within [0, 1]"},
		{"bezier and expr", ".yaml", "version: v1\nanimations: [{easing: {bezier: [0, 0, 1, 1], expr: t}}]", "both bezier and expr"},
		{"delay list", ".yaml", "version: v1\nanimations: [{delay: [1]}]", "delay must be a number or string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.ext)
			if err == nil {
				t.Fatal("Parse() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestVersionWithoutPrefix(t *testing.T) {
	if _, err := Parse([]byte("version: \"1.0\"\nanimations: [{duration: 1}]"), ".yaml"); err != nil {
		t.Errorf("Parse() error = %v", err)
	}
}

func TestLoadSetsPathOnErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("version: v9\nanimations: [{duration: 1}]"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var ze *errors.ZoetropeError
	if !errors.As(err, &ze) {
		t.Fatalf("Load() error = %v, want *ZoetropeError", err)
	}
	if ze.Kind != errors.KindConfig || ze.Path != path {
		t.Errorf("error kind/path = %v/%q, want config/%q", ze.Kind, ze.Path, path)
	}

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want ErrNotExist", err)
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timeline.yaml")
	if err := os.WriteFile(path, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	frames := animation.NewFrameScheduler()
	tl, clocks, err := doc.Build(animation.Options{Frames: frames}, timeline.WithFrames(frames))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	ms := time.Millisecond
	want := []timeline.Slot{
		{Name: "fade", Delay: 0, Duration: 200 * ms, End: 200 * ms},
		{Name: "slide", Delay: 0, Duration: 300 * ms, End: 300 * ms},
		{Name: "pop", Delay: 400 * ms, Duration: 100 * ms, End: 500 * ms},
		{Name: "settle", Delay: 50 * ms, Duration: 400 * ms, End: 450 * ms},
	}
	if diff := cmp.Diff(want, tl.Schedule()); diff != "" {
		t.Errorf("schedule mismatch (-want +got):\n%s", diff)
	}
	if len(clocks) != 4 {
		t.Fatalf("clocks = %d, want 4", len(clocks))
	}
	if tl.Runtime() != 500*ms {
		t.Errorf("Runtime() = %v, want 500ms", tl.Runtime())
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind errors.ErrorKind
	}{
		{"unknown easing", "version: v1\nanimations: [{easing: bounce}]", errors.KindConfig},
		{"bad default easing", "version: v1\ndefaults: {easing: nope}\nanimations: [{duration: 1}]", errors.KindConfig},
		{"bad expression", "version: v1\nanimations: [{easing: {expr: \"t *\"}}]", errors.KindEasing},
		{"bad delay", "version: v1\nanimations: [{duration: 1}, {delay: \"*5\"}]", errors.KindDelay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.doc), ".yaml")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			doc.Path = "doc.yaml"
			_, _, err = doc.Build(animation.Options{Frames: animation.NewFrameScheduler()})
			var ze *errors.ZoetropeError
			if !errors.As(err, &ze) {
				t.Fatalf("Build() error = %v, want *ZoetropeError", err)
			}
			if ze.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", ze.Kind, tt.kind)
			}
			if ze.Path != "doc.yaml" {
				t.Errorf("Path = %q, want doc.yaml", ze.Path)
			}
		})
	}
}

func TestEasingString(t *testing.T) {
	tests := []struct {
		e    Easing
		want string
	}{
		{Easing{}, ""},
		{Easing{Name: "ease-in"}, "ease-in"},
		{Easing{Bezier: []float64{0.4, 0, 0.2, 1}}, "cubic-bezier(0.4, 0, 0.2, 1)"},
		{Easing{Expr: "t * t"}, "expr(t * t)"},
	}
	for _, tt := range tests {
		if got := tt.e.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestEasingCurveRejectsBezierOutsideUnitX(t *testing.T) {
	if _, err := (Easing{Bezier: []float64{0.4, 0, 1.2, 1}}).Curve(); err == nil || !strings.Contains(err.Error(), "x2") {
		t.Errorf("Curve() error = %v, want x2 range error", err)
	}
	c, err := (Easing{Bezier: []float64{0, 2, 1, -1}}).Curve()
	if err != nil || c == nil {
		t.Fatalf("Curve() nil = %t, error = %v; y outside [0, 1] is allowed", c == nil, err)
	}
}
