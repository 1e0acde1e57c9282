package rm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsupportedVersion is returned for tagged-block (v6) pages.
var ErrUnsupportedVersion = errors.New("unsupported .lines version")

// UnmarshalBinary implements encoding.BinaryUnmarshaler for
// transforming bytes into a Rm page
func (rm *Rm) UnmarshalBinary(data []byte) error {
	r := newReader(data)
	if err := r.checkHeader(); err != nil {
		return err
	}
	rm.Version = r.version

	if r.version == V6 {
		return errors.Wrap(ErrUnsupportedVersion, "version 6")
	}

	nbLayers, err := r.readNumber()
	if err != nil {
		return err
	}

	// every layer carries at least its line count
	if int64(nbLayers)*4 > int64(r.Len()) {
		return fmt.Errorf("layer count %d exceeds data", nbLayers)
	}

	rm.Layers = make([]Layer, nbLayers)
	for i := uint32(0); i < nbLayers; i++ {
		nbLines, err := r.readNumber()
		if err != nil {
			return err
		}
		if int64(nbLines)*int64(r.minLineLen()) > int64(r.Len()) {
			return fmt.Errorf("layer %d: line count %d exceeds data", i, nbLines)
		}

		rm.Layers[i].Lines = make([]Line, nbLines)
		for j := uint32(0); j < nbLines; j++ {
			line, err := r.readLine()
			if err != nil {
				return errors.Wrapf(err, "layer %d line %d", i, j)
			}
			rm.Layers[i].Lines[j] = line
		}
	}

	return nil
}

type reader struct {
	bytes.Reader
	version Version
}

func newReader(data []byte) reader {
	br := bytes.NewReader(data)

	// we set V5 as default but the real value is
	// analysed when checking the header
	return reader{*br, V5}
}

func (r *reader) checkHeader() error {
	buf := make([]byte, HeaderLen)

	n, err := r.Read(buf)
	if err != nil {
		return errors.Wrap(err, "read header")
	}

	if n != HeaderLen {
		return fmt.Errorf("wrong header size")
	}

	switch string(buf) {
	case HeaderV5:
		r.version = V5
	case HeaderV3:
		r.version = V3
	case HeaderV6:
		r.version = V6
	default:
		if strings.Contains(string(buf), "version=6") {
			r.version = V6
		} else {
			return fmt.Errorf("unknown header")
		}
	}

	return nil
}

func (r *reader) readNumber() (uint32, error) {
	var nb uint32
	if err := binary.Read(r, binary.LittleEndian, &nb); err != nil {
		return 0, fmt.Errorf("wrong number read")
	}
	return nb, nil
}

// minLineLen is the size of a line without points: brush fields plus the
// point count.
func (r *reader) minLineLen() int {
	if r.version == V5 {
		return 24
	}
	return 20
}

func (r *reader) readLine() (Line, error) {
	var line Line

	fields := []interface{}{&line.BrushType, &line.BrushColor, &line.Padding, &line.BrushSize}
	// this attribute has been added in v5
	if r.version == V5 {
		fields = append(fields, &line.Unknown)
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return line, fmt.Errorf("failed to read line")
		}
	}

	nbPoints, err := r.readNumber()
	if err != nil {
		return line, err
	}

	if nbPoints == 0 {
		return line, nil
	}
	// each point takes 24 bytes; refuse counts the data can't hold
	if int64(nbPoints)*24 > int64(r.Len()) {
		return line, fmt.Errorf("point count %d exceeds data", nbPoints)
	}

	line.Points = make([]Point, nbPoints)
	for i := uint32(0); i < nbPoints; i++ {
		if err := binary.Read(r, binary.LittleEndian, &line.Points[i]); err != nil {
			return line, fmt.Errorf("failed to read point")
		}
	}

	return line, nil
}
