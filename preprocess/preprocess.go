// Package preprocess turns a stored drawing into the flat grayscale tensor
// the recognition model expects.
package preprocess

import (
	"image"
	"sort"
	"strings"

	"github.com/juruen/inkrec/raster"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

const DefaultSize = 28

// Tensor holds Size*Size intensities in [0,1], row-major.
type Tensor []float32

type Options struct {
	// Size is the side of the square model input.
	Size int
	// Filter is the resampling kernel. nfnt/resize widens every kernel by
	// the shrink factor, so downsampling averages over the source area a
	// target pixel covers.
	Filter resize.InterpolationFunction
}

var DefaultOptions = Options{Size: DefaultSize, Filter: resize.Bilinear}

var filters = map[string]resize.InterpolationFunction{
	"nearest":  resize.NearestNeighbor,
	"bilinear": resize.Bilinear,
	"bicubic":  resize.Bicubic,
	"mitchell": resize.MitchellNetravali,
	"lanczos2": resize.Lanczos2,
	"lanczos3": resize.Lanczos3,
}

// ParseFilter maps a config name to a resampling kernel.
func ParseFilter(name string) (resize.InterpolationFunction, error) {
	f, ok := filters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, errors.Errorf("unknown filter %q, want one of %s", name, strings.Join(FilterNames(), ", "))
	}
	return f, nil
}

func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for n := range filters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Transform decodes the PNG at path and converts it to a Tensor.
func Transform(path string, opts Options) (Tensor, error) {
	img, err := raster.Decode(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img, opts), nil
}

// FromImage resizes img to Size x Size, takes the unweighted mean of R, G
// and B per pixel and divides it by 255.
func FromImage(img image.Image, opts Options) Tensor {
	size := opts.Size
	if size <= 0 {
		size = DefaultSize
	}

	small := resize.Resize(uint(size), uint(size), img, opts.Filter)
	b := small.Bounds()

	t := make(Tensor, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, bl, _ := small.At(b.Min.X+x, b.Min.Y+y).RGBA()
			gray := float32(r>>8+g>>8+bl>>8) / 3
			t[y*size+x] = gray / 255
		}
	}
	return t
}
