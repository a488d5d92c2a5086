package codec

import (
	"math"
	"strconv"
	"strings"

	"github.com/hanscribe/hanscribe/pkg/anno"
)

// EncodeYOLO emits one line per shape:
//
//	<label> <x_center/W> <y_center/H> <w/W> <h/H>
//
// with the four numeric fields normalized by the image dimensions and
// formatted to 8 decimal places. Every line is newline-terminated.
func EncodeYOLO(size anno.ImageSize, shapes []*anno.Shape) string {
	b := strings.Builder{}
	w := float64(size.Width)
	h := float64(size.Height)
	for _, s := range shapes {
		bounds := s.Bounds()
		center := bounds.Center()
		b.WriteString(s.Label)
		b.WriteString(" ")
		b.WriteString(formatYOLOField(center.X / w))
		b.WriteString(" ")
		b.WriteString(formatYOLOField(center.Y / h))
		b.WriteString(" ")
		b.WriteString(formatYOLOField(bounds.Width / w))
		b.WriteString(" ")
		b.WriteString(formatYOLOField(bounds.Height / h))
		b.WriteString("\n")
	}
	return b.String()
}

// DecodeYOLO reconstructs rectangle shapes from YOLO text. The image size
// is required to denormalize the coordinates. Lines that don't have
// exactly 5 whitespace-separated fields, or whose numeric fields don't
// parse, are dropped.
func DecodeYOLO(text string, size anno.ImageSize) []*anno.Shape {
	shapes := []*anno.Shape{}
	width := float64(size.Width)
	height := float64(size.Height)
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			continue
		}
		xc, err1 := strconv.ParseFloat(fields[1], 64)
		yc, err2 := strconv.ParseFloat(fields[2], 64)
		w, err3 := strconv.ParseFloat(fields[3], 64)
		h, err4 := strconv.ParseFloat(fields[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		xmin := math.Round((xc - w/2) * width)
		ymin := math.Round((yc - h/2) * height)
		xmax := math.Round((xc + w/2) * width)
		ymax := math.Round((yc + h/2) * height)
		shapes = append(shapes, anno.NewRectShape(0, fields[0], anno.Rect{
			X:      xmin,
			Y:      ymin,
			Width:  xmax - xmin,
			Height: ymax - ymin,
		}))
	}
	return shapes
}

func formatYOLOField(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}
