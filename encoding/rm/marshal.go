package rm

import (
	"bytes"
	"encoding/binary"
)

// MarshalBinary implements encoding.BinaryMarshaler, writing the page in
// version 5 layout.
func (rm *Rm) MarshalBinary() (data []byte, err error) {
	w := new(writer)

	w.b.WriteString(HeaderV5)
	w.writeNumber(len(rm.Layers))

	for _, layer := range rm.Layers {
		w.writeNumber(len(layer.Lines))
		for _, line := range layer.Lines {
			w.writeLine(line)
		}
	}

	return w.b.Bytes(), w.err
}

type writer struct {
	b   bytes.Buffer
	err error
}

func (w *writer) write(v interface{}) {
	if w.err != nil {
		return
	}
	w.err = binary.Write(&w.b, binary.LittleEndian, v)
}

func (w *writer) writeNumber(n int) {
	w.write(uint32(n))
}

func (w *writer) writeLine(line Line) {
	w.write(line.BrushType)
	w.write(line.BrushColor)
	w.write(line.Padding)
	w.write(line.BrushSize)
	w.write(line.Unknown)

	w.writeNumber(len(line.Points))
	for _, point := range line.Points {
		w.write(point)
	}
}
