package anno

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundingRect(t *testing.T) {
	pts := []Point{{X: 50, Y: 10}, {X: 10, Y: 40}, {X: 30, Y: 20}}
	r := BoundingRect(pts)
	require.Equal(t, Rect{X: 10, Y: 10, Width: 40, Height: 30}, r)

	// Degenerate single-point shape: min == max
	r = BoundingRect([]Point{{X: 7, Y: 9}})
	require.Equal(t, Rect{X: 7, Y: 9, Width: 0, Height: 0}, r)
}

func TestPathString(t *testing.T) {
	pts := []Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}
	require.Equal(t, "M 1 2 L 3 4 L 5 6", PathString(pts, false))
	require.Equal(t, "M 1 2 L 3 4 L 5 6 Z", PathString(pts, true))
	require.Equal(t, "", PathString(nil, true))

	// Point order must be reproduced exactly, duplicates included
	dup := []Point{{X: 1, Y: 1}, {X: 1, Y: 1}}
	require.Equal(t, "M 1 1 L 1 1", PathString(dup, false))
}

func TestIOU(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: 5, Width: 10, Height: 10}
	require.Equal(t, 25.0/175.0, a.IOU(b))
	require.Equal(t, Rect{X: 0, Y: 0, Width: 15, Height: 15}, a.Union(b))
}

func TestRectCenter(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 40, Height: 30}
	require.Equal(t, Point{X: 30, Y: 25}, r.Center())
}
