package stroke

import "sync"

// Sink receives pointer-drag events from a drawing surface.
type Sink interface {
	OnStrokeStart(p Point)
	OnStrokeExtend(delta Point)
}

// Pen is the color and width given to new segments.
type Pen struct {
	Color RGB
	Width float64
}

var DefaultPen = Pen{Color: Black, Width: 10}

// Recorder turns drag events into segments on a List.
type Recorder struct {
	list *List

	mu  sync.Mutex
	pen Pen
	pos Point
}

func NewRecorder(list *List, pen Pen) *Recorder {
	return &Recorder{list: list, pen: pen}
}

// OnStrokeStart moves the pen to p and records a dot there.
func (r *Recorder) OnStrokeStart(p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = p
	r.list.Append(Segment{Start: p, End: p, Color: r.pen.Color, Width: r.pen.Width})
}

// OnStrokeExtend draws from the current pen position by delta.
func (r *Recorder) OnStrokeExtend(delta Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.pos.Add(delta)
	r.list.Append(Segment{Start: r.pos, End: next, Color: r.pen.Color, Width: r.pen.Width})
	r.pos = next
}

// Polyline records one stroke through the given absolute points.
func (r *Recorder) Polyline(points ...Point) {
	if len(points) == 0 {
		return
	}
	r.OnStrokeStart(points[0])
	for i := 1; i < len(points); i++ {
		r.OnStrokeExtend(points[i].Sub(points[i-1]))
	}
}

func (r *Recorder) SetPen(p Pen) {
	r.mu.Lock()
	r.pen = p
	r.mu.Unlock()
}

func (r *Recorder) Pen() Pen {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pen
}
