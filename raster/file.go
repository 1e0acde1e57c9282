package raster

import (
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/juruen/inkrec/failure"
	"github.com/juruen/inkrec/log"
	"github.com/pkg/errors"
)

const timestampLayout = "20060102_150405"

// FileName is Drawing_<yyyyMMdd_HHmmss>.png. Two saves within the same
// second share a name and the later one overwrites the earlier.
func FileName(t time.Time) string {
	return "Drawing_" + t.Format(timestampLayout) + ".png"
}

// Persist writes img as PNG into dir and returns the file path.
func Persist(img image.Image, dir string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", failure.Newf(failure.IO, err, "can't create directory %s", dir)
	}

	name := filepath.Join(dir, FileName(now))
	f, err := os.Create(name)
	if err != nil {
		return "", failure.Newf(failure.IO, err, "can't create %s", name)
	}

	if err := Encode(f, img); err != nil {
		f.Close()
		return "", failure.Newf(failure.IO, err, "can't write %s", name)
	}
	if err := f.Close(); err != nil {
		return "", failure.Newf(failure.IO, err, "can't close %s", name)
	}

	log.Trace.Printf("saved drawing %s (%dx%d)", name, img.Bounds().Dx(), img.Bounds().Dy())
	return name, nil
}

func Encode(w io.Writer, img image.Image) error {
	return errors.Wrap(png.Encode(w, img), "png encode")
}

// Decode reads a stored drawing. A missing file is reported as a decode
// failure, like a malformed one.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, failure.Newf(failure.Decode, err, "can't open %s", path)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, failure.Newf(failure.Decode, err, "can't decode %s", path)
	}
	return img, nil
}
