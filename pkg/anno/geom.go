package anno

import (
	"math"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// Point is a position in image pixel space, origin top-left,
// relative to the original (unscaled) image.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Distance(b Point) float32 {
	return math32.Sqrt(float32((p.X-b.X)*(p.X-b.X) + (p.Y-b.Y)*(p.Y-b.Y)))
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) X2() float64 {
	return r.X + r.Width
}

func (r Rect) Y2() float64 {
	return r.Y + r.Height
}

func (r Rect) Area() float64 {
	return r.Width * r.Height
}

func (r Rect) Center() Point {
	return Point{
		X: r.X + r.Width/2,
		Y: r.Y + r.Height/2,
	}
}

func (r Rect) Intersection(b Rect) Rect {
	x1 := max(r.X, b.X)
	y1 := max(r.Y, b.Y)
	x2 := min(r.X2(), b.X2())
	y2 := min(r.Y2(), b.Y2())
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  max(0, x2-x1),
		Height: max(0, y2-y1),
	}
}

func (r Rect) Union(b Rect) Rect {
	x1 := min(r.X, b.X)
	y1 := min(r.Y, b.Y)
	x2 := max(r.X2(), b.X2())
	y2 := max(r.Y2(), b.Y2())
	return Rect{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

// Intersection over Union
func (r Rect) IOU(b Rect) float64 {
	intersection := r.Intersection(b)
	return intersection.Area() / (r.Area() + b.Area() - intersection.Area())
}

// BoundingRect returns the axis-aligned bounds of the points.
// A single point yields a zero-size rect at that point.
// An empty slice yields the inverted infinite rect, which no caller
// should treat as meaningful.
func BoundingRect(points []Point) Rect {
	xmin := math.Inf(1)
	ymin := math.Inf(1)
	xmax := math.Inf(-1)
	ymax := math.Inf(-1)
	for _, p := range points {
		xmin = min(xmin, p.X)
		ymin = min(ymin, p.Y)
		xmax = max(xmax, p.X)
		ymax = max(ymax, p.Y)
	}
	return Rect{
		X:      xmin,
		Y:      ymin,
		Width:  xmax - xmin,
		Height: ymax - ymin,
	}
}

// PathString builds an SVG path from the points, in order, with no
// reordering or deduplication. Example: "M 1 2 L 3 4 Z".
func PathString(points []Point, closed bool) string {
	if len(points) == 0 {
		return ""
	}
	b := strings.Builder{}
	for i, p := range points {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(formatCoord(p.X))
		b.WriteString(" ")
		b.WriteString(formatCoord(p.Y))
	}
	if closed {
		b.WriteString(" Z")
	}
	return b.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
