package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-drift/zoetrope/cmd/zoetrope/internal/chart"
	"github.com/go-drift/zoetrope/cmd/zoetrope/internal/config"
	"github.com/go-drift/zoetrope/pkg/animation"
)

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Draw a timeline as a PNG chart",
		Long: `Resolve a timeline document and draw it as a Gantt chart. Each
animation is a bar from its start to its end with its easing curve traced
inside it.

Flags:
  -o, --output FILE  Output file (default: <file>.png)
  --width N          Image width in pixels (default: 800)`,
		Usage: "zoetrope render <file> [-o FILE] [--width N]",
		Run:   runRender,
	})
}

type renderOptions struct {
	path   string
	output string
	width  int
}

func parseRenderArgs(args []string) (renderOptions, error) {
	var opts renderOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-o", "--output", "--width":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%s requires a value", arg)
			}
			i++
			if arg == "--width" {
				n, err := strconv.Atoi(args[i])
				if err != nil || n <= 0 {
					return opts, fmt.Errorf("invalid --width %q", args[i])
				}
				opts.width = n
			} else {
				opts.output = args[i]
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("unknown flag %q", arg)
			}
			if opts.path != "" {
				return opts, fmt.Errorf("unexpected argument %q", arg)
			}
			opts.path = arg
		}
	}
	if opts.path == "" {
		return opts, fmt.Errorf("timeline file is required\n\nUsage: zoetrope render <file> [-o FILE] [--width N]")
	}
	if opts.output == "" {
		opts.output = strings.TrimSuffix(opts.path, filepath.Ext(opts.path)) + ".png"
	}
	return opts, nil
}

func runRender(_ context.Context, args []string) error {
	opts, err := parseRenderArgs(args)
	if err != nil {
		return err
	}

	doc, err := config.Load(opts.path)
	if err != nil {
		return err
	}
	tl, _, err := doc.Build(animation.Options{Frames: animation.NewFrameScheduler()})
	if err != nil {
		return err
	}

	defaultEase, err := doc.Defaults.Easing.Curve()
	if err != nil {
		return err
	}
	slots := tl.Schedule()
	bars := make([]chart.Bar, len(slots))
	for i, slot := range slots {
		curve, err := doc.Animations[i].Easing.Curve()
		if err != nil {
			return err
		}
		bars[i] = chart.Bar{
			Name:     slot.Name,
			Delay:    slot.Delay,
			Duration: slot.Duration,
			Curve:    cmpCurve(curve, defaultEase, animation.EaseOutQuart),
		}
	}

	img := chart.Render(bars, tl.Runtime(), chart.Options{Width: opts.width})
	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.output, err)
	}
	if err := chart.WritePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s (%dx%d, runtime %v)\n", opts.output, img.Bounds().Dx(), img.Bounds().Dy(), tl.Runtime())
	return nil
}

// cmpCurve returns the first non-nil curve.
func cmpCurve(curves ...animation.Curve) animation.Curve {
	for _, c := range curves {
		if c != nil {
			return c
		}
	}
	return nil
}
