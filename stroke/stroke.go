// Package stroke holds free-hand drawing input as an append-only list of
// line segments.
package stroke

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Finite reports whether both coordinates are neither NaN nor infinite.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

type RGB struct {
	R, G, B uint8
}

var (
	Black = RGB{0, 0, 0}
	White = RGB{0xff, 0xff, 0xff}
	Grey  = RGB{0x80, 0x80, 0x80}
)

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseRGB reads a #rrggbb (or rrggbb) color.
func ParseRGB(s string) (RGB, error) {
	var c RGB
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return c, errors.Errorf("invalid color %q", s)
	}
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, errors.Wrapf(err, "invalid color %q", s)
	}
	return c, nil
}

// MarshalText and UnmarshalText let RGB appear as "#rrggbb" in config
// files and JSON bodies.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *RGB) UnmarshalText(text []byte) error {
	parsed, err := ParseRGB(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Segment is one straight, round-capped piece of a stroke.
type Segment struct {
	Start Point
	End   Point
	Color RGB
	Width float64
}

// List is an append-ordered sequence of segments. Segments are never
// removed individually, only by Clear.
type List struct {
	mu       sync.Mutex
	segments []Segment
}

func NewList() *List {
	return &List{}
}

func (l *List) Append(s Segment) {
	l.mu.Lock()
	l.segments = append(l.segments, s)
	l.mu.Unlock()
}

func (l *List) Clear() {
	l.mu.Lock()
	l.segments = nil
	l.mu.Unlock()
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.segments)
}

// Snapshot returns a copy of the current sequence, safe to hand to a
// background render while drawing continues.
func (l *List) Snapshot() []Segment {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Segment, len(l.segments))
	copy(out, l.segments)
	return out
}
