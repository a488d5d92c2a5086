// Package editor is the draw-state machine of the annotation canvas.
// It consumes pointer events, validates them against the active image's
// natural bounds, and turns them into session mutations. All interaction
// state lives on the Editor instance (or in the session's documented
// cursor fields), so multiple editors never interfere.
package editor

import (
	"math"

	"github.com/cyclopcam/logs"
	"github.com/hanscribe/hanscribe/pkg/anno"
	"github.com/hanscribe/hanscribe/server/session"
)

// Snap radius in pixels around a polygon's first vertex. Releasing the
// pointer inside this region closes the polygon.
const ClosePointRegion = 6.0

// Cursor is the affordance the canvas should show. It is purely a
// function of the tool and the pointer position.
type Cursor int

const (
	CursorDefault    Cursor = iota
	CursorMove              // move tool
	CursorCrosshair         // rotate, rectangle and polygon tools
	CursorClose             // polygon tool, within snap radius of the first vertex
	CursorForbidden         // pointer outside the image bounds
)

type Editor struct {
	log  logs.Log
	sess *session.Session

	// Rectangle anchor and move/rotate reference point. Instance fields,
	// never package state.
	anchor    anno.Point
	lastPoint anno.Point
	dragging  bool
}

func NewEditor(logger logs.Log, sess *session.Session) *Editor {
	return &Editor{
		log:  logger,
		sess: sess,
	}
}

// inBounds validates p against the active image's natural pixel bounds.
// Events outside the image are rejected without mutating anything.
func (e *Editor) inBounds(p anno.Point) bool {
	size, ok := e.sess.ActiveSize()
	if !ok {
		return false
	}
	return p.X >= 0 && p.X <= float64(size.Width) && p.Y >= 0 && p.Y <= float64(size.Height)
}

func (e *Editor) MouseDown(p anno.Point) {
	if !e.inBounds(p) {
		return
	}
	tool := e.sess.Tool()
	status := e.sess.Status()

	switch tool {
	case session.ToolRectangle, session.ToolPolygon:
		if status == session.StatusIdle {
			if _, err := e.sess.StartShape(p); err != nil {
				e.log.Warnf("Start shape: %v", err)
				return
			}
			e.anchor = p
		}
	case session.ToolPointer:
		e.clickSelect(p)
	case session.ToolMove, session.ToolRotate:
		if status == session.StatusSelect && e.hitSelected(p) {
			e.dragging = true
			e.lastPoint = p
			e.anchor = p
		}
	}
}

func (e *Editor) MouseMove(p anno.Point) {
	if !e.inBounds(p) {
		return
	}
	switch e.sess.Tool() {
	case session.ToolRectangle:
		if e.sess.Status() == session.StatusDrawing {
			anchor := e.anchor
			e.sess.MutateCurrent(func(s *anno.Shape) {
				// Rebuild the closed quadrilateral from the anchor and the pointer
				s.Points = []anno.Point{
					anchor,
					{X: p.X, Y: anchor.Y},
					p,
					{X: anchor.X, Y: p.Y},
					anchor,
				}
				s.RefreshPath()
			})
		}
	case session.ToolPolygon:
		if e.sess.Status() == session.StatusDrawing {
			e.sess.MutateCurrent(func(s *anno.Shape) {
				s.SetTrailing(p)
			})
		}
	case session.ToolMove:
		if e.dragging {
			e.moveSelected(p)
		}
	case session.ToolRotate:
		if e.dragging {
			e.rotateSelected(p)
		}
	}
}

func (e *Editor) MouseUp(p anno.Point) {
	if e.dragging {
		e.dragging = false
		return
	}
	if !e.inBounds(p) {
		return
	}
	if e.sess.Status() != session.StatusDrawing {
		return
	}
	switch e.sess.Tool() {
	case session.ToolRectangle:
		shape := e.sess.Current()
		if shape == nil || len(shape.Points) < 5 {
			// A click with no drag never built the quadrilateral
			e.sess.AbortShape()
			return
		}
		e.sess.MutateCurrent(func(s *anno.Shape) {
			s.Committed = len(s.Points)
			s.RefreshPath()
		})
		e.sess.CompleteShape()
	case session.ToolPolygon:
		shape := e.sess.Current()
		if shape == nil {
			return
		}
		if p.Distance(shape.Points[0]) <= ClosePointRegion {
			// Closing requires at least 2 committed vertices; an immediate
			// release near the start point is a no-op.
			if shape.Committed < 2 {
				return
			}
			e.sess.MutateCurrent(func(s *anno.Shape) {
				s.DropTrailing()
				s.CloseLoop()
			})
			e.sess.CompleteShape()
		} else {
			e.sess.MutateCurrent(func(s *anno.Shape) {
				s.SetTrailing(p)
				s.CommitTrailing()
			})
		}
	}
}

// CursorAt reports the affordance for the pointer at p.
func (e *Editor) CursorAt(p anno.Point) Cursor {
	if !e.inBounds(p) {
		return CursorForbidden
	}
	switch e.sess.Tool() {
	case session.ToolMove:
		return CursorMove
	case session.ToolRotate:
		return CursorCrosshair
	case session.ToolRectangle:
		return CursorCrosshair
	case session.ToolPolygon:
		if shape := e.sess.Current(); shape != nil && shape.Committed >= 2 && p.Distance(shape.Points[0]) <= ClosePointRegion {
			return CursorClose
		}
		return CursorCrosshair
	}
	return CursorDefault
}

// clickSelect selects the topmost visible shape under p, or clears the
// selection when the click lands on empty canvas.
func (e *Editor) clickSelect(p anno.Point) {
	active := e.sess.ActiveImage()
	if active == -1 {
		return
	}
	shapes := e.sess.ShapesAt(active)
	for i := len(shapes) - 1; i >= 0; i-- {
		if shapes[i].Visible && contains(shapes[i].Bounds(), p) {
			if err := e.sess.SelectShape(i); err != nil {
				e.log.Warnf("Select shape: %v", err)
			}
			return
		}
	}
	if e.sess.SelectedShape() != -1 {
		e.sess.SelectShape(-1)
	}
}

func (e *Editor) hitSelected(p anno.Point) bool {
	active := e.sess.ActiveImage()
	sel := e.sess.SelectedShape()
	if active == -1 || sel == -1 {
		return false
	}
	shapes := e.sess.ShapesAt(active)
	if sel >= len(shapes) {
		return false
	}
	return contains(shapes[sel].Bounds(), p)
}

// moveSelected translates the selected shape by the pointer delta,
// clamped so the shape stays inside the image.
func (e *Editor) moveSelected(p anno.Point) {
	active := e.sess.ActiveImage()
	sel := e.sess.SelectedShape()
	if active == -1 || sel == -1 {
		return
	}
	size, _ := e.sess.ActiveSize()
	shapes := e.sess.ShapesAt(active)
	shape := shapes[sel]
	dx := p.X - e.lastPoint.X
	dy := p.Y - e.lastPoint.Y
	bounds := shape.Bounds()
	dx = clamp(dx, -bounds.X, float64(size.Width)-bounds.X2())
	dy = clamp(dy, -bounds.Y, float64(size.Height)-bounds.Y2())
	for i := range shape.Points {
		shape.Points[i].X += dx
		shape.Points[i].Y += dy
	}
	shape.RefreshPath()
	e.lastPoint = p
	e.sess.Touch()
}

// rotateSelected rotates the selected shape around its bounds center by
// the angle swept since the last pointer position.
func (e *Editor) rotateSelected(p anno.Point) {
	active := e.sess.ActiveImage()
	sel := e.sess.SelectedShape()
	if active == -1 || sel == -1 {
		return
	}
	shapes := e.sess.ShapesAt(active)
	shape := shapes[sel]
	center := shape.Center()
	a1 := math.Atan2(e.lastPoint.Y-center.Y, e.lastPoint.X-center.X)
	a2 := math.Atan2(p.Y-center.Y, p.X-center.X)
	sin, cos := math.Sincos(a2 - a1)
	for i := range shape.Points {
		x := shape.Points[i].X - center.X
		y := shape.Points[i].Y - center.Y
		shape.Points[i].X = center.X + x*cos - y*sin
		shape.Points[i].Y = center.Y + x*sin + y*cos
	}
	shape.RefreshPath()
	e.lastPoint = p
	e.sess.Touch()
}

func contains(r anno.Rect, p anno.Point) bool {
	return p.X >= r.X && p.X <= r.X2() && p.Y >= r.Y && p.Y <= r.Y2()
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
