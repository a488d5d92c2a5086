// Package readorder linearizes the shapes of one image into transcription
// text. Traditional Han-Nom runs in columns, right to left, top to bottom
// within a column; modern row order is also supported, as is the raw
// array order chunked into fixed-size lines.
package readorder

import (
	"math"
	"sort"
	"strings"

	"github.com/hanscribe/hanscribe/pkg/anno"
)

// Center tolerance in pixels when clustering shapes into the same
// column or row.
const DefaultTolerance = 20.0

// Line length when presenting shapes in original array order.
const DefaultChunkSize = 25

type Mode string

const (
	ModeColumn   Mode = "column"
	ModeRow      Mode = "row"
	ModeOriginal Mode = "original"
)

// Columns clusters shapes whose bounds-center x coordinates lie within
// tolerance of a column's reference x (the first shape assigned to it).
// Within a column shapes run top to bottom; columns run right to left.
func Columns(shapes []*anno.Shape, tolerance float64) [][]*anno.Shape {
	groups := cluster(shapes, tolerance, func(p anno.Point) float64 { return p.X })
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].Center().Y < g[j].Center().Y
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i][0].Center().X > groups[j][0].Center().X
	})
	return groups
}

// Rows is the symmetric construction: cluster by center y, left to right
// within a row, rows top to bottom.
func Rows(shapes []*anno.Shape, tolerance float64) [][]*anno.Shape {
	groups := cluster(shapes, tolerance, func(p anno.Point) float64 { return p.Y })
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].Center().X < g[j].Center().X
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i][0].Center().Y < groups[j][0].Center().Y
	})
	return groups
}

// Chunks keeps shapes in array order and splits them into groups of size.
func Chunks(shapes []*anno.Shape, size int) [][]*anno.Shape {
	if size <= 0 {
		size = DefaultChunkSize
	}
	groups := [][]*anno.Shape{}
	for start := 0; start < len(shapes); start += size {
		end := min(start+size, len(shapes))
		groups = append(groups, shapes[start:end])
	}
	return groups
}

// Transcribe concatenates each group's labels (no separator within a
// group) and joins groups with newlines.
func Transcribe(groups [][]*anno.Shape) string {
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		line := strings.Builder{}
		for _, s := range g {
			line.WriteString(s.Label)
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// TranscribeMode groups the visible shapes by mode and transcribes them.
func TranscribeMode(shapes []*anno.Shape, mode Mode) string {
	visible := VisibleOnly(shapes)
	switch mode {
	case ModeColumn:
		return Transcribe(Columns(visible, DefaultTolerance))
	case ModeRow:
		return Transcribe(Rows(visible, DefaultTolerance))
	default:
		return Transcribe(Chunks(visible, DefaultChunkSize))
	}
}

func VisibleOnly(shapes []*anno.Shape) []*anno.Shape {
	out := []*anno.Shape{}
	for _, s := range shapes {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}

// cluster assigns each shape, in input order, to the first group whose
// reference axis value lies within tolerance. Assignment is deterministic,
// so grouping the same list twice yields identical output.
func cluster(shapes []*anno.Shape, tolerance float64, axis func(anno.Point) float64) [][]*anno.Shape {
	groups := [][]*anno.Shape{}
	refs := []float64{}
	for _, s := range shapes {
		v := axis(s.Center())
		found := false
		for i, ref := range refs {
			if math.Abs(v-ref) <= tolerance {
				groups[i] = append(groups[i], s)
				found = true
				break
			}
		}
		if !found {
			groups = append(groups, []*anno.Shape{s})
			refs = append(refs, v)
		}
	}
	return groups
}
