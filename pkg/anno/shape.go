package anno

// ImageSize is the natural pixel dimensions of an image.
// Depth is the channel count, fixed at 3 (RGB) for interchange formats.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Depth  int `json:"depth"`
}

func NewImageSize(width, height int) ImageSize {
	return ImageSize{Width: width, Height: height, Depth: 3}
}

// Shape is one rectangle or polygon annotation on an image.
// Points is the ordered vertex list. A finalized rectangle has exactly
// 5 points (4 corners + repeat of the first); a finalized polygon has
// N+1 points with the same closing convention.
// Identity within a session is positional (index in the per-image list),
// but Token is a stable synthetic ID that survives reindexing.
type Shape struct {
	Token     uint32  `json:"token"`
	Label     string  `json:"label"`
	Visible   bool    `json:"visible"`
	Selected  bool    `json:"isSelect"`
	Points    []Point `json:"paths"`
	Committed int     `json:"exactPathCount"` // vertices committed so far; a trailing point beyond this is the live preview
	D         string  `json:"d"`              // cached path string; always equals PathString(Points, Closed())
}

// NewShape starts a shape from its first vertex.
func NewShape(token uint32, p Point) *Shape {
	s := &Shape{
		Token:     token,
		Label:     "",
		Visible:   true,
		Selected:  false,
		Points:    []Point{p},
		Committed: 1,
	}
	s.RefreshPath()
	return s
}

// Closed reports whether the vertex list forms a closed loop.
func (s *Shape) Closed() bool {
	return len(s.Points) >= 3 && s.Points[0] == s.Points[len(s.Points)-1]
}

func (s *Shape) Bounds() Rect {
	return BoundingRect(s.Points)
}

// Center is the midpoint of the shape's bounds.
// For the 5-point rectangle convention this is identical to the midpoint
// of corners 0 and 2, but it also holds for arbitrary polygons.
func (s *Shape) Center() Point {
	return s.Bounds().Center()
}

// RefreshPath recomputes D from Points. Every mutation of Points must be
// followed by a call to this; D is never edited independently.
func (s *Shape) RefreshPath() {
	s.D = PathString(s.Points, s.Closed())
}

// SetTrailing replaces the in-progress preview vertex (the one beyond
// Committed) with p, appending it if not present yet.
func (s *Shape) SetTrailing(p Point) {
	if len(s.Points) > s.Committed {
		s.Points[len(s.Points)-1] = p
	} else {
		s.Points = append(s.Points, p)
	}
	s.RefreshPath()
}

// CommitTrailing promotes the preview vertex to a committed one.
func (s *Shape) CommitTrailing() {
	if len(s.Points) > s.Committed {
		s.Committed = len(s.Points)
	}
}

// DropTrailing removes the preview vertex, if any.
func (s *Shape) DropTrailing() {
	if len(s.Points) > s.Committed {
		s.Points = s.Points[:s.Committed]
		s.RefreshPath()
	}
}

// CloseLoop appends a copy of the first vertex, sealing the outline.
// No-op if the shape is already closed.
func (s *Shape) CloseLoop() {
	if s.Closed() {
		return
	}
	s.Points = append(s.Points, s.Points[0])
	s.Committed = len(s.Points)
	s.RefreshPath()
}

// NewRectShape builds a finalized 5-point rectangle from opposite corners,
// in the fixed order top-left, top-right, bottom-right, bottom-left, top-left.
func NewRectShape(token uint32, label string, bounds Rect) *Shape {
	s := &Shape{
		Token:   token,
		Label:   label,
		Visible: true,
		Points: []Point{
			{X: bounds.X, Y: bounds.Y},
			{X: bounds.X2(), Y: bounds.Y},
			{X: bounds.X2(), Y: bounds.Y2()},
			{X: bounds.X, Y: bounds.Y2()},
			{X: bounds.X, Y: bounds.Y},
		},
	}
	s.Committed = len(s.Points)
	s.RefreshPath()
	return s
}

// IsRect reports whether the shape follows the 5-point rectangle convention.
func (s *Shape) IsRect() bool {
	if len(s.Points) != 5 || !s.Closed() {
		return false
	}
	p := s.Points
	return p[0].Y == p[1].Y && p[1].X == p[2].X && p[2].Y == p[3].Y && p[3].X == p[0].X
}

// Clone returns a deep copy.
func (s *Shape) Clone() *Shape {
	c := *s
	c.Points = make([]Point, len(s.Points))
	copy(c.Points, s.Points)
	return &c
}
