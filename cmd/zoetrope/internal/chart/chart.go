// Package chart draws a resolved timeline as a Gantt chart.
//
// Each entry is a row with its label on the left and a bar spanning its
// start offset to its end. The entry's easing curve is traced inside the
// bar. A time axis with millisecond ticks runs along the top.
package chart

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"strconv"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/go-drift/zoetrope/pkg/animation"
)

// DefaultWidth is the image width used when Options.Width is not positive.
const DefaultWidth = 800

const (
	rowHeight = 24
	barInset  = 4
	padding   = 8
	axisRows  = 2
)

var (
	Background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	Foreground = color.RGBA{0x20, 0x20, 0x20, 0xff}
	GridColor  = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}

	// Palette colors bars in row order, wrapping around.
	Palette = []color.RGBA{
		{0x4e, 0x79, 0xa7, 0xff},
		{0xf2, 0x8e, 0x2b, 0xff},
		{0x59, 0xa1, 0x4f, 0xff},
		{0xe1, 0x57, 0x59, 0xff},
		{0x76, 0xb7, 0xb2, 0xff},
		{0xed, 0xc9, 0x48, 0xff},
	}
)

// Bar is one timeline row.
type Bar struct {
	Name     string
	Delay    time.Duration
	Duration time.Duration
	// Curve is traced inside the bar when non-nil.
	Curve animation.Curve
}

// Options configures Render.
type Options struct {
	// Width is the image width in pixels (default DefaultWidth).
	Width int
}

// Layout is the geometry of a rendered chart.
type Layout struct {
	Bounds image.Rectangle
	// Plot is the region bars are drawn in; x maps linearly to time.
	Plot    image.Rectangle
	Runtime time.Duration
}

// X returns the pixel column for time d.
func (l Layout) X(d time.Duration) int {
	if l.Runtime <= 0 {
		return l.Plot.Min.X
	}
	return l.Plot.Min.X + int(float64(d)/float64(l.Runtime)*float64(l.Plot.Dx()-1)+0.5)
}

// Row returns the rectangle of the bar in row i.
func (l Layout) Row(i int, b Bar) image.Rectangle {
	y := l.Plot.Min.Y + i*rowHeight
	return image.Rect(l.X(b.Delay), y+barInset, l.X(b.Delay+b.Duration)+1, y+rowHeight-barInset)
}

// Measure computes the layout for bars without drawing.
func Measure(bars []Bar, runtime time.Duration, opts Options) Layout {
	face := basicfont.Face7x13
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}

	var label fixed.Int26_6
	for _, b := range bars {
		label = max(label, font.MeasureString(face, b.Name))
	}
	left := padding + label.Ceil() + padding
	top := padding + axisRows*face.Height
	height := top + len(bars)*rowHeight + padding

	// Keep a usable plot area even for very long labels.
	width = max(width, left+100+padding)

	return Layout{
		Bounds:  image.Rect(0, 0, width, height),
		Plot:    image.Rect(left, top, width-padding, top+len(bars)*rowHeight),
		Runtime: runtime,
	}
}

// Render draws bars scaled so that runtime spans the plot width.
func Render(bars []Bar, runtime time.Duration, opts Options) *image.RGBA {
	l := Measure(bars, runtime, opts)
	dst := image.NewRGBA(l.Bounds)
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	drawAxis(dst, l)
	for i, b := range bars {
		y := l.Plot.Min.Y + i*rowHeight
		drawString(dst, b.Name, Foreground, padding, y+rowHeight/2+basicfont.Face7x13.Ascent/2-1)

		r := l.Row(i, b)
		col := Palette[i%len(Palette)]
		draw.Draw(dst, r, image.NewUniform(col), image.Point{}, draw.Src)
		if b.Curve != nil {
			traceCurve(dst, r, b.Curve, darken(col))
		}
	}
	return dst
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

func drawAxis(dst *image.RGBA, l Layout) {
	face := basicfont.Face7x13
	step := tickStep(l.Runtime, l.Plot.Dx())
	baseline := padding + face.Ascent
	for d := time.Duration(0); d <= l.Runtime && step > 0; d += step {
		x := l.X(d)
		for y := l.Plot.Min.Y - face.Height/2; y < l.Plot.Max.Y; y++ {
			dst.SetRGBA(x, y, GridColor)
		}
		label := strconv.FormatInt(d.Milliseconds(), 10)
		w := font.MeasureString(face, label).Ceil()
		drawString(dst, label, Foreground, min(max(x-w/2, l.Plot.Min.X), l.Plot.Max.X-w), baseline)
	}
}

// tickStep picks a round millisecond step giving ticks at least 60px apart.
func tickStep(runtime time.Duration, px int) time.Duration {
	if runtime <= 0 || px <= 0 {
		return 0
	}
	maxTicks := max(px/60, 1)
	for _, ms := range []int64{1, 2, 5, 10, 20, 25, 50, 100, 200, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000} {
		step := time.Duration(ms) * time.Millisecond
		if int(runtime/step) <= maxTicks {
			return step
		}
	}
	return runtime / time.Duration(maxTicks)
}

// traceCurve plots eased progress against raw progress across r.
func traceCurve(dst *image.RGBA, r image.Rectangle, curve animation.Curve, col color.RGBA) {
	w, h := r.Dx()-1, r.Dy()-1
	if w <= 0 || h <= 0 {
		return
	}
	prev := -1
	for i := 0; i <= w; i++ {
		v := min(max(curve(float64(i)/float64(w)), 0), 1)
		y := r.Max.Y - 1 - int(v*float64(h)+0.5)
		if prev < 0 {
			prev = y
		}
		// Join to the previous column so steep curves stay connected.
		lo, hi := min(prev, y), max(prev, y)
		for yy := lo; yy <= hi; yy++ {
			dst.SetRGBA(r.Min.X+i, yy, col)
		}
		prev = y
	}
}

func drawString(dst draw.Image, s string, col color.Color, x, y int) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func darken(c color.RGBA) color.RGBA {
	return color.RGBA{c.R / 2, c.G / 2, c.B / 2, c.A}
}
