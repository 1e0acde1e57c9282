// Package rm reads reMarkable .lines pages (versions 3 and 5) so their
// pen strokes can be fed into a drawing.
package rm

const (
	HeaderV3  = "reMarkable .lines file, version=3          "
	HeaderV5  = "reMarkable .lines file, version=5          "
	HeaderV6  = "reMarkable .lines file, version=6          "
	HeaderLen = 43

	// device surface the coordinates are given in
	DeviceWidth  = 1404
	DeviceHeight = 1872
)

type Version int

const (
	V3 Version = iota
	V5
	V6
)

type BrushColor uint32

const (
	Black BrushColor = 0
	Grey  BrushColor = 1
	White BrushColor = 2
)

type BrushType uint32

const (
	BallPoint   BrushType = 2
	Marker      BrushType = 3
	Fineliner   BrushType = 4
	SharpPencil BrushType = 7
	TiltPencil  BrushType = 1
	Brush       BrushType = 0
	Highlighter BrushType = 5
	Eraser      BrushType = 6
	EraseArea   BrushType = 8

	BrushV5            BrushType = 12
	MechanicalPencilV5 BrushType = 13
	PencilV5           BrushType = 14
	BallPointV5        BrushType = 15
	MarkerV5           BrushType = 16
	FinelinerV5        BrushType = 17
	HighlighterV5      BrushType = 18
	CalligraphyV5      BrushType = 21
)

type BrushSize float32

const (
	Small  BrushSize = 1.875
	Medium BrushSize = 2.0
	Large  BrushSize = 2.125
)

// Rm is one page of a notebook.
type Rm struct {
	Version Version
	Layers  []Layer
}

type Layer struct {
	Lines []Line
}

type Line struct {
	BrushType  BrushType
	BrushColor BrushColor
	Padding    uint32
	BrushSize  BrushSize
	Unknown    float32
	Points     []Point
}

type Point struct {
	X         float32
	Y         float32
	Speed     float32
	Direction float32
	Width     float32
	Pressure  float32
}
