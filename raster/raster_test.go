package raster

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/juruen/inkrec/failure"
	"github.com/juruen/inkrec/stroke"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var white = color.RGBA{0xff, 0xff, 0xff, 0xff}
var black = color.RGBA{0, 0, 0, 0xff}

func TestRenderEmptyIsBackground(t *testing.T) {
	img := Render(nil, Options{Width: 40, Height: 30, Background: stroke.RGB{R: 10, G: 20, B: 30}})
	require.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	want := color.RGBA{10, 20, 30, 0xff}
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			if img.RGBAAt(x, y) != want {
				t.Fatalf("pixel %d,%d = %v, want %v", x, y, img.RGBAAt(x, y), want)
			}
		}
	}
}

func TestRenderDefaultsToCanvasSize(t *testing.T) {
	img := Render(nil, Options{})
	assert.Equal(t, image.Rect(0, 0, DefaultWidth, DefaultHeight), img.Bounds())
	assert.Equal(t, black, img.RGBAAt(0, 0), "zero background is black")
}

func TestRenderDiagonal(t *testing.T) {
	segs := []stroke.Segment{
		{Start: stroke.Point{X: 0, Y: 0}, End: stroke.Point{X: 100, Y: 100}, Color: stroke.Black, Width: 10},
	}
	img := Render(segs, DefaultOptions)

	assert.Equal(t, black, img.RGBAAt(50, 50))
	assert.Equal(t, black, img.RGBAAt(99, 99))
	assert.Equal(t, white, img.RGBAAt(80, 20))
	assert.Equal(t, white, img.RGBAAt(500, 500))
	assert.Equal(t, white, img.RGBAAt(1079, 1919))
}

func TestRenderRoundCap(t *testing.T) {
	segs := []stroke.Segment{
		{Start: stroke.Point{X: 50, Y: 50}, End: stroke.Point{X: 150, Y: 50}, Color: stroke.Black, Width: 20},
	}
	img := Render(segs, Options{Width: 200, Height: 100, Background: stroke.White})

	assert.Equal(t, black, img.RGBAAt(44, 50), "inside the cap past the start point")
	assert.Equal(t, black, img.RGBAAt(155, 50), "inside the cap past the end point")
	assert.Equal(t, white, img.RGBAAt(41, 41), "cap corner is rounded off")
	assert.Equal(t, white, img.RGBAAt(100, 65))
}

func TestRenderLaterSegmentsOnTop(t *testing.T) {
	red := stroke.RGB{R: 0xff, G: 0, B: 0}
	segs := []stroke.Segment{
		{Start: stroke.Point{X: 10, Y: 50}, End: stroke.Point{X: 90, Y: 50}, Color: stroke.Black, Width: 10},
		{Start: stroke.Point{X: 50, Y: 10}, End: stroke.Point{X: 50, Y: 90}, Color: red, Width: 10},
	}
	img := Render(segs, Options{Width: 100, Height: 100, Background: stroke.White})

	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, img.RGBAAt(50, 50))
	assert.Equal(t, black, img.RGBAAt(20, 50))
}

func TestRenderDot(t *testing.T) {
	segs := []stroke.Segment{
		{Start: stroke.Point{X: 20, Y: 20}, End: stroke.Point{X: 20, Y: 20}, Color: stroke.Black, Width: 10},
	}
	img := Render(segs, Options{Width: 40, Height: 40, Background: stroke.White})

	assert.Equal(t, black, img.RGBAAt(20, 20))
	assert.Equal(t, black, img.RGBAAt(17, 20))
	assert.Equal(t, white, img.RGBAAt(20, 28))
}

func TestRenderSkipsZeroWidth(t *testing.T) {
	segs := []stroke.Segment{
		{Start: stroke.Point{X: 0, Y: 0}, End: stroke.Point{X: 30, Y: 30}, Color: stroke.Black},
	}
	img := Render(segs, Options{Width: 30, Height: 30, Background: stroke.White})
	assert.Equal(t, white, img.RGBAAt(15, 15))
}

func TestRenderSkipsNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	segs := []stroke.Segment{
		{Start: stroke.Point{X: nan, Y: nan}, End: stroke.Point{X: 10, Y: 10}, Color: stroke.Black, Width: 10},
		{Start: stroke.Point{X: 5, Y: 5}, End: stroke.Point{X: inf, Y: 5}, Color: stroke.Black, Width: 10},
		{Start: stroke.Point{X: 20, Y: 20}, End: stroke.Point{X: 20, Y: -inf}, Color: stroke.Black, Width: 10},
		{Start: stroke.Point{X: 5, Y: 30}, End: stroke.Point{X: 35, Y: 30}, Color: stroke.Black, Width: nan},
	}
	img := Render(segs, Options{Width: 40, Height: 40, Background: stroke.White})
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if img.RGBAAt(x, y) != white {
				t.Fatalf("pixel %d,%d = %v, want background", x, y, img.RGBAAt(x, y))
			}
		}
	}
}

func TestRenderClipsFarGeometry(t *testing.T) {
	segs := []stroke.Segment{
		{Start: stroke.Point{X: 0, Y: 50}, End: stroke.Point{X: 1e12, Y: 50}, Color: stroke.Black, Width: 10},
		{Start: stroke.Point{X: 0, Y: 0}, End: stroke.Point{X: 3e7, Y: 3e7}, Color: stroke.Black, Width: 4},
		{Start: stroke.Point{X: -1e9, Y: 80}, End: stroke.Point{X: 1e9, Y: 80}, Color: stroke.Black, Width: 4},
		{Start: stroke.Point{X: -5000, Y: -5000}, End: stroke.Point{X: -4000, Y: -4500}, Color: stroke.Black, Width: 10},
	}
	img := Render(segs, Options{Width: 200, Height: 100, Background: stroke.White})

	assert.Equal(t, black, img.RGBAAt(0, 50))
	assert.Equal(t, black, img.RGBAAt(199, 50), "line runs off the right edge")
	assert.Equal(t, white, img.RGBAAt(100, 40))
	assert.Equal(t, black, img.RGBAAt(30, 30), "diagonal through the canvas")
	assert.Equal(t, black, img.RGBAAt(90, 90))
	assert.Equal(t, black, img.RGBAAt(0, 80), "line entering from the left")
	assert.Equal(t, black, img.RGBAAt(199, 80))
	assert.Equal(t, white, img.RGBAAt(5, 95))
}

func TestRenderClampsHugeWidth(t *testing.T) {
	for _, w := range []float64{1e12, math.Inf(1)} {
		segs := []stroke.Segment{
			{Start: stroke.Point{X: 10, Y: 10}, End: stroke.Point{X: 20, Y: 20}, Color: stroke.Black, Width: w},
		}
		img := Render(segs, Options{Width: 50, Height: 50, Background: stroke.White})
		assert.Equal(t, black, img.RGBAAt(0, 0), "width %v", w)
		assert.Equal(t, black, img.RGBAAt(49, 49), "width %v", w)
	}
}

func TestClipKeepsInsideEndpoints(t *testing.T) {
	opts := Options{Width: 100, Height: 100}
	a, b := stroke.Point{X: 3.3, Y: 7.1}, stroke.Point{X: 61.7, Y: 40.2}
	ca, cb, ok := clip(a, b, opts, 5)
	require.True(t, ok)
	assert.Equal(t, a, ca)
	assert.Equal(t, b, cb)

	ca, cb, ok = clip(stroke.Point{X: 50, Y: 50}, stroke.Point{X: 1e6, Y: 50}, opts, 5)
	require.True(t, ok)
	assert.Equal(t, stroke.Point{X: 50, Y: 50}, ca)
	assert.InDelta(t, 105, cb.X, 1e-6)
	assert.InDelta(t, 50, cb.Y, 1e-6)

	_, _, ok = clip(stroke.Point{X: -50, Y: -50}, stroke.Point{X: -10, Y: -20}, opts, 5)
	assert.False(t, ok)

	_, _, ok = clip(stroke.Point{X: 200, Y: 200}, stroke.Point{X: 200, Y: 200}, opts, 5)
	assert.False(t, ok, "dot outside")
}

func TestRenderDeterministic(t *testing.T) {
	segs := []stroke.Segment{
		{Start: stroke.Point{X: 3.3, Y: 7.1}, End: stroke.Point{X: 61.7, Y: 40.2}, Color: stroke.Black, Width: 4.5},
		{Start: stroke.Point{X: 61.7, Y: 40.2}, End: stroke.Point{X: 12, Y: 55}, Color: stroke.Grey, Width: 3},
	}
	opts := Options{Width: 64, Height: 64, Background: stroke.White}
	assert.Equal(t, Render(segs, opts).Pix, Render(segs, opts).Pix)
}

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 2, 0, time.UTC)
	assert.Equal(t, "Drawing_20240309_070502.png", FileName(ts))
}

func TestPersistRoundTrip(t *testing.T) {
	segs := []stroke.Segment{
		{Start: stroke.Point{X: 5, Y: 5}, End: stroke.Point{X: 60, Y: 40}, Color: stroke.RGB{R: 0x12, G: 0x34, B: 0x56}, Width: 6},
	}
	img := Render(segs, Options{Width: 64, Height: 48, Background: stroke.White})

	dir := filepath.Join(t.TempDir(), "Pictures")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	name, err := Persist(img, dir, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Drawing_20240102_030405.png"), name)

	decoded, err := Decode(name)
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), decoded.Bounds())
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			want := img.At(x, y)
			got := decoded.At(x, y)
			wr, wg, wb, wa := want.RGBA()
			gr, gg, gb, ga := got.RGBA()
			if wr != gr || wg != gg || wb != gb || wa != ga {
				t.Fatalf("pixel %d,%d = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestPersistSameSecondOverwrites(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	opts := Options{Width: 8, Height: 8}

	first, err := Persist(Render(nil, Options{Width: 8, Height: 8, Background: stroke.White}), dir, ts)
	require.NoError(t, err)
	second, err := Persist(Render(nil, opts), dir, ts.Add(300*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	decoded, err := Decode(second)
	require.NoError(t, err)
	r, _, _, _ := decoded.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPersistUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0600))

	_, err := Persist(Render(nil, Options{Width: 2, Height: 2}), filepath.Join(file, "sub"), time.Now())
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.IO))
}

func TestDecodeFailures(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Decode))

	bad := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not a png"), 0600))
	_, err = Decode(bad)
	require.Error(t, err)
	assert.True(t, failure.Is(err, failure.Decode))
}
