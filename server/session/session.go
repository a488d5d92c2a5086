// Package session holds the in-memory state of one annotation session:
// the loaded images, their natural sizes, the per-image shape lists, and
// the cursor state of the editor (active image, selected shape, tool,
// draw status).
//
// The three parallel arrays are index-aligned at all times: every
// mutation that changes the image count updates files, sizes and shapes
// in lockstep. Shape identity is positional within an image, but every
// shape also carries a stable token assigned on adoption.
package session

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hanscribe/hanscribe/pkg/anno"
	"github.com/hanscribe/hanscribe/pkg/idgen"
)

// Status is the editor's interaction state.
type Status int

const (
	StatusIdle Status = iota
	StatusDrawing
	StatusSelect
)

// Tool is the active tool mode, orthogonal to Status.
type Tool int

const (
	ToolPointer Tool = iota
	ToolMove
	ToolRotate
	ToolRectangle
	ToolPolygon
)

// ImageRecord references one loaded image. Blob is the key of the image's
// bytes in whatever blob store the session was loaded from; it plays the
// role of a browser object URL, and must be released when the record is
// dropped. Label is used only by the classification workflow.
type ImageRecord struct {
	Name  string `json:"name"`
	Blob  string `json:"blob"`
	Size  int64  `json:"size"`
	Label string `json:"label,omitempty"`
}

// DatasetType selects how the save pipeline derives an image's payload.
type DatasetType string

const (
	DatasetDetection      DatasetType = "detection"
	DatasetClassification DatasetType = "classification"
)

type Session struct {
	lock        sync.Mutex
	releaseBlob func(blob string) // invoked whenever an image record is dropped

	imageFiles []ImageRecord
	imageSizes []anno.ImageSize
	shapes     [][]*anno.Shape

	activeImage  int // -1 if no image is active
	selShape     int // -1 if no shape is selected
	pendingLabel int // index of a freshly finalized shape awaiting its label, -1 otherwise
	tool         Tool
	status       Status
	current      *anno.Shape // shape in progress while status == StatusDrawing

	tokens     idgen.Uint32
	generation atomic.Int64 // bumped by every mutation; the save watcher polls it
}

// NewSession creates an empty session. releaseBlob may be nil; when set,
// it is called once for every image record the session drops, so blob
// resources don't leak over a long editing run.
func NewSession(releaseBlob func(blob string)) *Session {
	return &Session{
		releaseBlob:  releaseBlob,
		activeImage:  -1,
		selShape:     -1,
		pendingLabel: -1,
	}
}

// Generation returns the mutation counter. Any state change increments it.
func (s *Session) Generation() int64 {
	return s.generation.Load()
}

func (s *Session) touch() {
	s.generation.Add(1)
}

// SetImages replaces all three parallel arrays at once. The arrays must
// have equal length. Any in-progress shape is discarded, and shapes
// without tokens are assigned one.
func (s *Session) SetImages(files []ImageRecord, sizes []anno.ImageSize, shapes [][]*anno.Shape, activeIndex int) error {
	if len(files) != len(sizes) || len(files) != len(shapes) {
		return fmt.Errorf("Parallel array mismatch: %v files, %v sizes, %v shape lists", len(files), len(sizes), len(shapes))
	}
	if activeIndex < -1 || activeIndex >= len(files) {
		return fmt.Errorf("Active image index %v out of range", activeIndex)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.imageFiles = files
	s.imageSizes = sizes
	s.shapes = shapes
	for _, list := range shapes {
		s.adoptShapes(list)
	}
	s.activeImage = activeIndex
	s.resetCursorLocked()
	s.touch()
	return nil
}

// AddImages appends a decoded batch as one atomic extension of the
// parallel arrays.
func (s *Session) AddImages(files []ImageRecord, sizes []anno.ImageSize, shapes [][]*anno.Shape) error {
	if len(files) != len(sizes) || len(files) != len(shapes) {
		return fmt.Errorf("Parallel array mismatch: %v files, %v sizes, %v shape lists", len(files), len(sizes), len(shapes))
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.imageFiles = append(s.imageFiles, files...)
	s.imageSizes = append(s.imageSizes, sizes...)
	for _, list := range shapes {
		s.adoptShapes(list)
		s.shapes = append(s.shapes, list)
	}
	if s.activeImage == -1 && len(s.imageFiles) > 0 {
		s.activeImage = 0
	}
	s.touch()
	return nil
}

// SelectImage switches the active image. Selection and any in-progress
// shape never survive an image switch.
func (s *Session) SelectImage(i int) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if i < -1 || i >= len(s.imageFiles) {
		return fmt.Errorf("Image index %v out of range", i)
	}
	s.activeImage = i
	s.resetCursorLocked()
	s.touch()
	return nil
}

// RemoveImage deletes the image at index k from all three arrays, shifting
// the active index: an earlier removal decrements it, removing the active
// image itself falls back to index 0 (or -1 if the session is now empty).
func (s *Session) RemoveImage(k int) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if k < 0 || k >= len(s.imageFiles) {
		return fmt.Errorf("Image index %v out of range", k)
	}
	dropped := s.imageFiles[k]
	s.imageFiles = append(s.imageFiles[:k], s.imageFiles[k+1:]...)
	s.imageSizes = append(s.imageSizes[:k], s.imageSizes[k+1:]...)
	s.shapes = append(s.shapes[:k], s.shapes[k+1:]...)
	if k < s.activeImage {
		s.activeImage--
	} else if k == s.activeImage {
		if len(s.imageFiles) == 0 {
			s.activeImage = -1
		} else {
			s.activeImage = 0
		}
	}
	s.resetCursorLocked()
	s.touch()
	if s.releaseBlob != nil && dropped.Blob != "" {
		s.releaseBlob(dropped.Blob)
	}
	return nil
}

// SetShapes replaces the whole shape matrix. Drawing and wholesale
// replacement are mutually exclusive, so any in-progress shape is dropped.
func (s *Session) SetShapes(shapes [][]*anno.Shape) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(shapes) != len(s.imageFiles) {
		return fmt.Errorf("Shape matrix has %v lists for %v images", len(shapes), len(s.imageFiles))
	}
	s.shapes = shapes
	for _, list := range shapes {
		s.adoptShapes(list)
	}
	s.resetCursorLocked()
	s.touch()
	return nil
}

// SetImageShapes replaces the shape list of one image (used by annotation
// import, which touches a single image at a time).
func (s *Session) SetImageShapes(i int, list []*anno.Shape) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if i < 0 || i >= len(s.shapes) {
		return fmt.Errorf("Image index %v out of range", i)
	}
	s.adoptShapes(list)
	s.shapes[i] = list
	s.resetCursorLocked()
	s.touch()
	return nil
}

// SelectShape sets the selection cursor. With i != -1, exactly the shape
// at index i in the active image is marked selected (the whole list is
// rewritten, not toggled) and the status becomes StatusSelect. With
// i == -1 all selection flags are cleared and the status returns to
// StatusIdle. Selection and draw status always move together.
func (s *Session) SelectShape(i int) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.activeImage == -1 {
		return fmt.Errorf("No active image")
	}
	list := s.shapes[s.activeImage]
	if i < -1 || i >= len(list) {
		return fmt.Errorf("Shape index %v out of range", i)
	}
	for j, shape := range list {
		shape.Selected = j == i && i != -1
	}
	s.selShape = i
	s.current = nil
	if i == -1 {
		s.status = StatusIdle
	} else {
		s.status = StatusSelect
	}
	s.touch()
	return nil
}

// DeleteSelectedShape removes the selected shape from the active image.
// No-op when nothing is selected or no image is active.
func (s *Session) DeleteSelectedShape() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.activeImage == -1 || s.selShape == -1 {
		return
	}
	list := s.shapes[s.activeImage]
	if s.selShape >= len(list) {
		return
	}
	s.shapes[s.activeImage] = append(list[:s.selShape], list[s.selShape+1:]...)
	s.resetCursorLocked()
	s.touch()
}

// ClearShapes empties the active image's shape list. No-op without an
// active image.
func (s *Session) ClearShapes() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.activeImage == -1 {
		return
	}
	s.shapes[s.activeImage] = []*anno.Shape{}
	s.resetCursorLocked()
	s.touch()
}

// SetLabel assigns a label to the shape at index i of the active image,
// and clears the pending-label cursor if it pointed there.
func (s *Session) SetLabel(i int, label string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.activeImage == -1 {
		return fmt.Errorf("No active image")
	}
	list := s.shapes[s.activeImage]
	if i < 0 || i >= len(list) {
		return fmt.Errorf("Shape index %v out of range", i)
	}
	list[i].Label = label
	if s.pendingLabel == i {
		s.pendingLabel = -1
	}
	s.touch()
	return nil
}

// SetImageLabel sets the classification label of image i.
func (s *Session) SetImageLabel(i int, label string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if i < 0 || i >= len(s.imageFiles) {
		return fmt.Errorf("Image index %v out of range", i)
	}
	s.imageFiles[i].Label = label
	s.touch()
	return nil
}

func (s *Session) resetCursorLocked() {
	for _, list := range s.shapes {
		for _, shape := range list {
			shape.Selected = false
		}
	}
	s.selShape = -1
	s.pendingLabel = -1
	s.current = nil
	s.status = StatusIdle
}

func (s *Session) adoptShapes(list []*anno.Shape) {
	for _, shape := range list {
		if shape.Token == 0 {
			shape.Token = s.tokens.Next()
		}
	}
}
