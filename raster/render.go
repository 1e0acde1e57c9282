// Package raster renders stroke segments into a fixed-size bitmap and
// stores it as PNG.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/freetype/raster"
	"github.com/juruen/inkrec/stroke"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

const (
	DefaultWidth  = 1080
	DefaultHeight = 1920
)

type Options struct {
	Width      int
	Height     int
	Background stroke.RGB
}

var DefaultOptions = Options{
	Width:      DefaultWidth,
	Height:     DefaultHeight,
	Background: stroke.White,
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// Render fills the background and paints each segment in order as a
// round-capped line. Later segments cover earlier ones. Segments with
// non-finite coordinates or a non-positive width are skipped; the rest are
// clipped to the canvas grown by their width, so off-canvas geometry costs
// no more than the canvas itself.
func Render(segs []stroke.Segment, opts Options) *image.RGBA {
	opts = opts.withDefaults()
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(rgba(opts.Background)), image.Point{}, draw.Src)

	r := raster.NewRasterizer(opts.Width, opts.Height)
	r.UseNonZeroWinding = true
	painter := raster.NewRGBAPainter(img)

	maxWidth := 2 * float64(opts.Width+opts.Height)
	for _, s := range segs {
		if s.Width <= 0 || math.IsNaN(s.Width) || !s.Start.Finite() || !s.End.Finite() {
			continue
		}
		s.Width = math.Min(s.Width, maxWidth)
		var ok bool
		if s.Start, s.End, ok = clip(s.Start, s.End, opts, s.Width); !ok {
			continue
		}
		r.Clear()
		addSegment(r, s)
		painter.SetColor(rgba(s.Color))
		r.Rasterize(painter)
	}
	return img
}

func addSegment(r *raster.Rasterizer, s stroke.Segment) {
	a, b := fix(s.Start), fix(s.End)
	width := fixed.Int26_6(math.Round(s.Width * 64))
	if a == b {
		addDot(r, s.Start, s.Width/2)
		return
	}
	var p raster.Path
	p.Start(a)
	p.Add1(b)
	raster.Stroke(r, p, width, raster.RoundCapper, raster.RoundJoiner)
}

// addDot adds a filled circle built from eight quadratic arcs. The stroker
// emits nothing for zero-length input, so taps need their own shape.
func addDot(r *raster.Rasterizer, c stroke.Point, radius float64) {
	const n = 8
	step := 2 * math.Pi / n
	ctrl := radius / math.Cos(step/2)
	r.Start(fix(stroke.Point{X: c.X + radius, Y: c.Y}))
	for i := 0; i < n; i++ {
		mid := (float64(i) + 0.5) * step
		end := float64(i+1) * step
		r.Add2(
			fix(stroke.Point{X: c.X + ctrl*math.Cos(mid), Y: c.Y + ctrl*math.Sin(mid)}),
			fix(stroke.Point{X: c.X + radius*math.Cos(end), Y: c.Y + radius*math.Sin(end)}),
		)
	}
}

// clip cuts the segment a-b to the canvas rect grown by margin on every
// side (Liang-Barsky). Endpoints inside the rect come back unchanged.
func clip(a, b stroke.Point, opts Options, margin float64) (stroke.Point, stroke.Point, bool) {
	minX, minY := -margin, -margin
	maxX, maxY := float64(opts.Width)+margin, float64(opts.Height)+margin

	d := b.Sub(a)
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{
		{-d.X, a.X - minX},
		{d.X, maxX - a.X},
		{-d.Y, a.Y - minY},
		{d.Y, maxY - a.Y},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return a, b, false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return a, b, false
			}
			if t < t1 {
				t1 = t
			}
		}
	}

	start, end := a, b
	if t0 > 0 {
		start = stroke.Point{X: a.X + t0*d.X, Y: a.Y + t0*d.Y}
	}
	if t1 < 1 {
		end = stroke.Point{X: a.X + t1*d.X, Y: a.Y + t1*d.Y}
	}
	return start, end, true
}

func fix(p stroke.Point) fixed.Point26_6 {
	return fixed.Point26_6{
		X: fixed.Int26_6(math.Round(p.X * 64)),
		Y: fixed.Int26_6(math.Round(p.Y * 64)),
	}
}

func rgba(c stroke.RGB) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}
