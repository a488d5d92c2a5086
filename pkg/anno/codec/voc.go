package codec

import (
	"encoding/xml"
	"math"
	"path"
	"strconv"

	"github.com/hanscribe/hanscribe/pkg/anno"
)

// Pascal VOC annotation file. The bndbox fields are strings so that a
// missing or malformed value decodes as 0 instead of failing the file.
type vocAnnotation struct {
	XMLName   xml.Name    `xml:"annotation"`
	Folder    string      `xml:"folder"`
	Filename  string      `xml:"filename"`
	Path      string      `xml:"path"`
	Source    vocSource   `xml:"source"`
	Size      vocSize     `xml:"size"`
	Segmented int         `xml:"segmented"`
	Objects   []vocObject `xml:"object"`
}

type vocSource struct {
	Database string `xml:"database"`
}

type vocSize struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
	Depth  int `xml:"depth"`
}

type vocObject struct {
	Name      string    `xml:"name"`
	Pose      string    `xml:"pose"`
	Truncated int       `xml:"truncated"`
	Difficult int       `xml:"difficult"`
	BndBox    vocBndBox `xml:"bndbox"`
}

type vocBndBox struct {
	Xmin string `xml:"xmin"`
	Ymin string `xml:"ymin"`
	Xmax string `xml:"xmax"`
	Ymax string `xml:"ymax"`
}

const vocImageFolder = "JPEGImages"

// EncodeVOC serializes the shapes of one image as an indented Pascal VOC
// XML document. Only each shape's bounding box and label are written.
func EncodeVOC(filename string, size anno.ImageSize, shapes []*anno.Shape) (string, error) {
	doc := vocAnnotation{
		Folder:   vocImageFolder,
		Filename: filename,
		Path:     path.Join(vocImageFolder, filename),
		Source:   vocSource{Database: "Unknown"},
		Size: vocSize{
			Width:  size.Width,
			Height: size.Height,
			Depth:  size.Depth,
		},
		Segmented: 0,
	}
	for _, s := range shapes {
		b := s.Bounds()
		doc.Objects = append(doc.Objects, vocObject{
			Name:      s.Label,
			Pose:      "Unspecified",
			Truncated: 0,
			Difficult: 0,
			BndBox: vocBndBox{
				Xmin: formatVOCCoord(b.X),
				Ymin: formatVOCCoord(b.Y),
				Xmax: formatVOCCoord(b.X2()),
				Ymax: formatVOCCoord(b.Y2()),
			},
		})
	}
	raw, err := xml.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(raw) + "\n", nil
}

// DecodeVOC reconstructs rectangle shapes from a Pascal VOC XML document.
// A file with a single <object> element decodes the same as an array.
func DecodeVOC(text string) ([]*anno.Shape, error) {
	doc := vocAnnotation{}
	if err := xml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, err
	}
	shapes := []*anno.Shape{}
	for _, obj := range doc.Objects {
		xmin := parseVOCCoord(obj.BndBox.Xmin)
		ymin := parseVOCCoord(obj.BndBox.Ymin)
		xmax := parseVOCCoord(obj.BndBox.Xmax)
		ymax := parseVOCCoord(obj.BndBox.Ymax)
		shapes = append(shapes, anno.NewRectShape(0, obj.Name, anno.Rect{
			X:      xmin,
			Y:      ymin,
			Width:  xmax - xmin,
			Height: ymax - ymin,
		}))
	}
	return shapes, nil
}

func formatVOCCoord(v float64) string {
	return strconv.Itoa(int(math.Round(v)))
}

// Missing or unparseable values become 0.
func parseVOCCoord(s string) float64 {
	v, _ := strconv.Atoi(s)
	return float64(v)
}
