package readorder

import (
	"testing"

	"github.com/hanscribe/hanscribe/pkg/anno"
	"github.com/stretchr/testify/require"
)

// A 2x2 page laid out like a traditional woodblock print:
//
//	right column: 天 (top), 地 (bottom)
//	left column:  玄 (top), 黃 (bottom)
func printPage() []*anno.Shape {
	rect := func(label string, x, y float64) *anno.Shape {
		return anno.NewRectShape(0, label, anno.Rect{X: x, Y: y, Width: 30, Height: 30})
	}
	// Deliberately shuffled input order, with small jitter inside tolerance
	return []*anno.Shape{
		rect("黃", 12, 105),
		rect("天", 100, 10),
		rect("玄", 10, 8),
		rect("地", 103, 100),
	}
}

func TestColumns(t *testing.T) {
	groups := Columns(printPage(), DefaultTolerance)
	require.Len(t, groups, 2)
	require.Equal(t, "天地\n玄黃", Transcribe(groups))
}

func TestRows(t *testing.T) {
	groups := Rows(printPage(), DefaultTolerance)
	require.Len(t, groups, 2)
	require.Equal(t, "玄天\n黃地", Transcribe(groups))
}

func TestSortIdempotent(t *testing.T) {
	shapes := printPage()
	first := Transcribe(Columns(shapes, DefaultTolerance))
	second := Transcribe(Columns(shapes, DefaultTolerance))
	require.Equal(t, first, second)

	first = Transcribe(Rows(shapes, DefaultTolerance))
	second = Transcribe(Rows(shapes, DefaultTolerance))
	require.Equal(t, first, second)
}

func TestChunks(t *testing.T) {
	shapes := []*anno.Shape{}
	for i := 0; i < 60; i++ {
		shapes = append(shapes, anno.NewRectShape(0, "x", anno.Rect{X: float64(i), Y: 0, Width: 1, Height: 1}))
	}
	groups := Chunks(shapes, 25)
	require.Len(t, groups, 3)
	require.Len(t, groups[0], 25)
	require.Len(t, groups[1], 25)
	require.Len(t, groups[2], 10)
}

func TestTranscribeModeSkipsInvisible(t *testing.T) {
	shapes := printPage()
	shapes[0].Visible = false // hide 黃
	require.Equal(t, "天地\n玄", TranscribeMode(shapes, ModeColumn))
}
