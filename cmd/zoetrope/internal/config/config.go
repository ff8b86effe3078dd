// Package config loads timeline documents.
//
// A document lists animations in order, each with a duration, an optional
// delay and an optional easing. YAML (.yaml, .yml) and TOML (.toml) are
// accepted:
//
//	version: v1
//	defaults: { duration: 1000, easing: ease-out-quart }
//	animations:
//	  - name: fade
//	    duration: 200
//	  - name: slide
//	    duration: 300
//	    delay: "~"
//	    easing: { bezier: [0.4, 0, 0.2, 1] }
//	  - name: pop
//	    duration: 100
//	    delay: "+100"
//	    easing: { expr: "t * t * t" }
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/zoetrope/cmd/zoetrope/internal/easing"
	"github.com/go-drift/zoetrope/pkg/animation"
	"github.com/go-drift/zoetrope/pkg/errors"
	"github.com/go-drift/zoetrope/pkg/timeline"
)

// SupportedVersion is the newest document format this build reads.
const SupportedVersion = "v1.0.0"

// Document is a parsed timeline document.
type Document struct {
	Version    string      `yaml:"version" toml:"version"`
	Defaults   Defaults    `yaml:"defaults" toml:"defaults"`
	Animations []Animation `yaml:"animations" toml:"animations"`

	// Path is the file the document was read from.
	Path string `yaml:"-" toml:"-"`
}

// Defaults apply to animations that leave a field empty.
type Defaults struct {
	Duration int    `yaml:"duration,omitempty" toml:"duration,omitempty"`
	Easing   Easing `yaml:"easing,omitempty" toml:"easing,omitempty"`
}

// Animation is one timeline entry.
type Animation struct {
	Name     string `yaml:"name,omitempty" toml:"name,omitempty"`
	Duration int    `yaml:"duration,omitempty" toml:"duration,omitempty"`
	Delay    Delay  `yaml:"delay,omitempty" toml:"delay,omitempty"`
	Easing   Easing `yaml:"easing,omitempty" toml:"easing,omitempty"`
}

// Delay is a delay as written in a document: an integer number of
// milliseconds or a relative expression such as "+100".
type Delay string

// UnmarshalYAML accepts any scalar.
func (d *Delay) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: delay must be a number or string", value.Line)
	}
	*d = Delay(value.Value)
	return nil
}

// UnmarshalTOML accepts an integer or a string.
func (d *Delay) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case int64:
		*d = Delay(strconv.FormatInt(v, 10))
	case string:
		*d = Delay(v)
	default:
		return fmt.Errorf("delay must be an integer or string, got %T", v)
	}
	return nil
}

// Easing selects a curve by name, by cubic-bezier control points or by
// expression. At most one field is set.
type Easing struct {
	Name   string
	Bezier []float64
	Expr   string
}

// IsZero reports whether no easing was given.
func (e Easing) IsZero() bool {
	return e.Name == "" && e.Bezier == nil && e.Expr == ""
}

func (e Easing) String() string {
	switch {
	case e.Expr != "":
		return "expr(" + e.Expr + ")"
	case e.Bezier != nil:
		parts := make([]string, len(e.Bezier))
		for i, v := range e.Bezier {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		return "cubic-bezier(" + strings.Join(parts, ", ") + ")"
	default:
		return e.Name
	}
}

type easingFields struct {
	Bezier []float64 `yaml:"bezier"`
	Expr   string    `yaml:"expr"`
}

// UnmarshalYAML accepts a curve name or a mapping with bezier or expr.
func (e *Easing) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*e = Easing{Name: value.Value}
		return nil
	case yaml.MappingNode:
		var f easingFields
		if err := value.Decode(&f); err != nil {
			return err
		}
		*e = Easing{Bezier: f.Bezier, Expr: f.Expr}
		return e.check()
	default:
		return fmt.Errorf("line %d: easing must be a name or a mapping", value.Line)
	}
}

// UnmarshalTOML accepts a curve name or a table with bezier or expr.
func (e *Easing) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*e = Easing{Name: v}
		return nil
	case map[string]any:
		*e = Easing{}
		for k, field := range v {
			switch k {
			case "expr":
				s, ok := field.(string)
				if !ok {
					return fmt.Errorf("easing.expr must be a string, got %T", field)
				}
				e.Expr = s
			case "bezier":
				list, ok := field.([]any)
				if !ok {
					return fmt.Errorf("easing.bezier must be an array, got %T", field)
				}
				e.Bezier = make([]float64, len(list))
				for i, n := range list {
					switch n := n.(type) {
					case float64:
						e.Bezier[i] = n
					case int64:
						e.Bezier[i] = float64(n)
					default:
						return fmt.Errorf("easing.bezier[%d] must be a number, got %T", i, n)
					}
				}
			default:
				return fmt.Errorf("unknown easing key %q", k)
			}
		}
		return e.check()
	default:
		return fmt.Errorf("easing must be a string or table, got %T", v)
	}
}

func (e *Easing) check() error {
	if e.Bezier != nil && e.Expr != "" {
		return fmt.Errorf("easing sets both bezier and expr")
	}
	if e.Bezier == nil && e.Expr == "" {
		return fmt.Errorf("easing mapping needs bezier or expr")
	}
	if e.Bezier != nil {
		return checkBezier(e.Bezier)
	}
	return nil
}

// checkBezier validates cubic-bezier control values. The x coordinates
// must stay within [0, 1] so that time is monotonic.
func checkBezier(v []float64) error {
	if len(v) != 4 {
		return fmt.Errorf("easing.bezier needs 4 control values, got %d", len(v))
	}
	for i, x := range []float64{v[0], v[2]} {
		if x < 0 || x > 1 {
			return fmt.Errorf("easing.bezier x%d must be within [0, 1], got %g", i+1, x)
		}
	}
	return nil
}

// Curve resolves the easing. A zero Easing yields a nil curve, which a
// Clock replaces with its default.
func (e Easing) Curve() (animation.Curve, error) {
	switch {
	case e.Expr != "":
		return easing.Compile(e.Expr)
	case e.Bezier != nil:
		if err := checkBezier(e.Bezier); err != nil {
			return nil, err
		}
		return animation.CubicBezier(e.Bezier[0], e.Bezier[1], e.Bezier[2], e.Bezier[3]), nil
	case e.Name != "":
		c, ok := animation.CurveByName(e.Name)
		if !ok {
			return nil, fmt.Errorf("unknown easing %q (known: %s)", e.Name, strings.Join(animation.CurveNames(), ", "))
		}
		return c, nil
	default:
		return nil, nil
	}
}

// Load reads and validates the document at path. The format is chosen by
// extension.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError("config.Load", path, fmt.Errorf("failed to read timeline: %w", err))
	}
	doc, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, configError("config.Load", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Parse decodes data in the format named by ext (".yaml", ".yml" or
// ".toml") and validates it.
func Parse(data []byte, ext string) (*Document, error) {
	var doc Document
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse timeline: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timeline: %w", err)
		}
		if key, ok := unknownKey(md); ok {
			return nil, fmt.Errorf("failed to parse timeline: unknown key %q", key)
		}
	default:
		return nil, fmt.Errorf("unsupported timeline format %q (use .yaml, .yml or .toml)", ext)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// unknownKey returns the first key the decoder did not use. Keys below an
// easing table are consumed by Easing.UnmarshalTOML and are skipped.
func unknownKey(md toml.MetaData) (string, bool) {
	for _, key := range md.Undecoded() {
		if slices.Contains(key, "easing") {
			continue
		}
		return key.String(), true
	}
	return "", false
}

// Validate checks the version gate and per-animation fields. It does not
// resolve delays; that happens when the timeline is built.
func (d *Document) Validate() error {
	v := strings.TrimSpace(d.Version)
	if v == "" {
		return fmt.Errorf("version is required (current: %s)", semver.Major(SupportedVersion))
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid version %q", d.Version)
	}
	if semver.Major(v) != semver.Major(SupportedVersion) || semver.Compare(v, SupportedVersion) > 0 {
		return fmt.Errorf("unsupported version %q (this build reads up to %s)", d.Version, SupportedVersion)
	}
	if d.Defaults.Duration < 0 {
		return fmt.Errorf("defaults.duration must not be negative")
	}
	if len(d.Animations) == 0 {
		return fmt.Errorf("no animations")
	}
	for i, a := range d.Animations {
		if a.Duration < 0 {
			return fmt.Errorf("animations[%d] (%s): duration must not be negative", i, a.label(i))
		}
	}
	return nil
}

func (a Animation) label(i int) string {
	if a.Name != "" {
		return a.Name
	}
	return "#" + strconv.Itoa(i)
}

// Build creates one clock per animation from base, which supplies the
// frame source, timers, time source and logger, and resolves the timeline.
// Clocks are returned in document order alongside the timeline.
func (d *Document) Build(base animation.Options, opts ...timeline.Option) (*timeline.Timeline, []*animation.Clock, error) {
	defaultEase, err := d.Defaults.Easing.Curve()
	if err != nil {
		return nil, nil, configError("config.Build", d.Path, fmt.Errorf("defaults.easing: %w", err))
	}

	entries := make([]timeline.Entry, len(d.Animations))
	clocks := make([]*animation.Clock, len(d.Animations))
	for i, a := range d.Animations {
		ease, err := a.Easing.Curve()
		if err != nil {
			return nil, nil, configError("config.Build", d.Path, fmt.Errorf("animations[%d] (%s): %w", i, a.label(i), err))
		}
		if ease == nil {
			ease = defaultEase
		}
		ms := a.Duration
		if ms == 0 {
			ms = d.Defaults.Duration
		}

		co := base
		co.Duration = time.Duration(ms) * time.Millisecond
		co.Easing = ease
		clocks[i] = animation.NewClock(co)
		entries[i] = timeline.Entry{
			Name:      a.label(i),
			Animation: clocks[i],
			Delay:     timeline.ParseDelay(string(a.Delay)),
		}
	}

	tl, err := timeline.New(entries, opts...)
	if err != nil {
		var ze *errors.ZoetropeError
		if errors.As(err, &ze) && ze.Path == "" {
			ze.Path = d.Path
		}
		return nil, nil, err
	}
	return tl, clocks, nil
}

func configError(op, path string, err error) error {
	// Errors from nested packages keep their own kind.
	var ze *errors.ZoetropeError
	if errors.As(err, &ze) {
		if ze.Path == "" {
			ze.Path = path
		}
		return err
	}
	return &errors.ZoetropeError{Op: op, Kind: errors.KindConfig, Err: err, Path: path}
}
