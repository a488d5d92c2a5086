package session

import (
	"fmt"

	"github.com/hanscribe/hanscribe/pkg/anno"
)

// Accessors and the editor-facing mutation surface. The draw state
// machine in server/editor drives the session exclusively through these,
// so there is no editor state outside the session's documented fields.

func (s *Session) ImageCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.imageFiles)
}

func (s *Session) ActiveImage() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.activeImage
}

func (s *Session) SelectedShape() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.selShape
}

// PendingLabel is the index of a freshly drawn shape awaiting its label,
// or -1.
func (s *Session) PendingLabel() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pendingLabel
}

func (s *Session) Status() Status {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.status
}

func (s *Session) Tool() Tool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.tool
}

// SetTool switches tools. Switching while a shape is in progress discards
// that shape; drawing does not survive a tool change.
func (s *Session) SetTool(t Tool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.status == StatusDrawing {
		s.abortShapeLocked()
	}
	s.tool = t
	s.touch()
}

func (s *Session) ImageAt(i int) (ImageRecord, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if i < 0 || i >= len(s.imageFiles) {
		return ImageRecord{}, false
	}
	return s.imageFiles[i], true
}

func (s *Session) SizeAt(i int) (anno.ImageSize, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if i < 0 || i >= len(s.imageSizes) {
		return anno.ImageSize{}, false
	}
	return s.imageSizes[i], true
}

// ShapesAt returns a copy of image i's shape list. The shapes themselves
// are shared, not cloned.
func (s *Session) ShapesAt(i int) []*anno.Shape {
	s.lock.Lock()
	defer s.lock.Unlock()
	if i < 0 || i >= len(s.shapes) {
		return nil
	}
	out := make([]*anno.Shape, len(s.shapes[i]))
	copy(out, s.shapes[i])
	return out
}

// ActiveSize returns the natural size of the active image.
func (s *Session) ActiveSize() (anno.ImageSize, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.activeImage == -1 {
		return anno.ImageSize{}, false
	}
	return s.imageSizes[s.activeImage], true
}

// StartShape begins a new shape at p on the active image and moves the
// editor into StatusDrawing. Fails when no image is active or a draw is
// already in progress.
func (s *Session) StartShape(p anno.Point) (*anno.Shape, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.activeImage == -1 {
		return nil, fmt.Errorf("No active image")
	}
	if s.status == StatusDrawing {
		return nil, fmt.Errorf("A shape is already in progress")
	}
	shape := anno.NewShape(s.tokens.Next(), p)
	s.shapes[s.activeImage] = append(s.shapes[s.activeImage], shape)
	s.current = shape
	s.status = StatusDrawing
	s.touch()
	return shape, nil
}

// Current returns the in-progress shape, or nil.
func (s *Session) Current() *anno.Shape {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.current
}

// MutateCurrent applies f to the in-progress shape under the session lock.
// Returns false if nothing is being drawn.
func (s *Session) MutateCurrent(f func(shape *anno.Shape)) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.current == nil {
		return false
	}
	f(s.current)
	s.touch()
	return true
}

// CompleteShape finalizes the in-progress shape: the editor returns to
// StatusIdle and the shape's index is recorded as awaiting a label.
// Returns the shape's index within the active image, or -1.
func (s *Session) CompleteShape() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.current == nil || s.activeImage == -1 {
		return -1
	}
	index := -1
	for i, shape := range s.shapes[s.activeImage] {
		if shape == s.current {
			index = i
			break
		}
	}
	s.current = nil
	s.status = StatusIdle
	s.pendingLabel = index
	s.touch()
	return index
}

// AbortShape discards the in-progress shape entirely.
func (s *Session) AbortShape() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.abortShapeLocked()
	s.touch()
}

func (s *Session) abortShapeLocked() {
	if s.current == nil {
		return
	}
	if s.activeImage != -1 {
		list := s.shapes[s.activeImage]
		for i, shape := range list {
			if shape == s.current {
				s.shapes[s.activeImage] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	s.current = nil
	s.status = StatusIdle
}

// Touch marks the session dirty. Callers that mutate shapes they obtained
// from ShapesAt must call this so the save watcher notices.
func (s *Session) Touch() {
	s.touch()
}

// Snapshot is a self-contained copy of the session's images and shapes,
// taken under the lock. The save pipeline works from snapshots so a
// mutation during an upload can't tear the payload.
type Snapshot struct {
	Images []ImageRecord
	Sizes  []anno.ImageSize
	Shapes [][]*anno.Shape
}

func (s *Session) Snapshot() Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	snap := Snapshot{
		Images: make([]ImageRecord, len(s.imageFiles)),
		Sizes:  make([]anno.ImageSize, len(s.imageSizes)),
		Shapes: make([][]*anno.Shape, len(s.shapes)),
	}
	copy(snap.Images, s.imageFiles)
	copy(snap.Sizes, s.imageSizes)
	for i, list := range s.shapes {
		cloned := make([]*anno.Shape, len(list))
		for j, shape := range list {
			cloned[j] = shape.Clone()
		}
		snap.Shapes[i] = cloned
	}
	return snap
}
