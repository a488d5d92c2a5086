// Package codec converts between the internal shape model and the three
// interchange annotation formats: COCO JSON, YOLO text, Pascal VOC XML.
//
// All three formats carry rectangles only, so arbitrary polygons survive a
// round trip as their bounding box. That is a limitation of the formats,
// not of this package.
//
// Decoded shapes have Token 0; the session store assigns tokens when it
// adopts them.
package codec

import "fmt"

type Format int

const (
	FormatUnknown Format = iota
	FormatCOCO
	FormatYOLO
	FormatVOC
)

func (f Format) String() string {
	switch f {
	case FormatCOCO:
		return "coco"
	case FormatYOLO:
		return "yolo"
	case FormatVOC:
		return "pascalvoc"
	}
	return "unknown"
}

// ParseFormat is the inverse of Format.String.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "coco":
		return FormatCOCO, nil
	case "yolo":
		return FormatYOLO, nil
	case "pascalvoc", "voc":
		return FormatVOC, nil
	}
	return FormatUnknown, fmt.Errorf("Unknown annotation format '%v'", s)
}
