package rm

import (
	"io/ioutil"
	"math"

	"github.com/juruen/inkrec/stroke"
	"github.com/pkg/errors"
)

// ReadFile loads a .rm page from disk.
func ReadFile(path string) (*Rm, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read page")
	}
	page := &Rm{}
	if err := page.UnmarshalBinary(data); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return page, nil
}

// FitScale is the factor that fits the device surface into a canvas of
// the given size without distortion.
func FitScale(width, height int) float64 {
	return math.Min(float64(width)/DeviceWidth, float64(height)/DeviceHeight)
}

// Segments flattens the pen lines of page into drawing segments, scaling
// device coordinates by scale. Eraser lines are dropped, and so is every
// segment touching a point with NaN or infinite coordinates.
func Segments(page *Rm, scale float64) []stroke.Segment {
	var segs []stroke.Segment
	for _, layer := range page.Layers {
		for _, line := range layer.Lines {
			if line.BrushType == Eraser || line.BrushType == EraseArea {
				continue
			}
			if len(line.Points) == 0 {
				continue
			}

			color := colorOf(line.BrushColor)
			prev := line.Points[0]
			if len(line.Points) == 1 {
				p := scaled(prev, scale)
				if p.Finite() {
					segs = append(segs, stroke.Segment{Start: p, End: p, Color: color, Width: width(line, prev, scale)})
				}
				continue
			}
			for _, pt := range line.Points[1:] {
				start, end := scaled(prev, scale), scaled(pt, scale)
				prev = pt
				if !start.Finite() || !end.Finite() {
					continue
				}
				segs = append(segs, stroke.Segment{
					Start: start,
					End:   end,
					Color: color,
					Width: width(line, pt, scale),
				})
			}
		}
	}
	return segs
}

func scaled(p Point, scale float64) stroke.Point {
	return stroke.Point{X: float64(p.X) * scale, Y: float64(p.Y) * scale}
}

// width prefers the per-point width the tablet recorded and falls back to
// the brush size.
func width(line Line, p Point, scale float64) float64 {
	w := float64(p.Width)
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		w = float64(line.BrushSize)
	}
	w *= scale
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 1 {
		return 1
	}
	return w
}

func colorOf(c BrushColor) stroke.RGB {
	switch c {
	case Grey:
		return stroke.Grey
	case White:
		return stroke.White
	default:
		return stroke.Black
	}
}
