package codec

import (
	"encoding/json"
	"time"

	"github.com/hanscribe/hanscribe/pkg/anno"
)

// COCO envelope. This codec processes one image at a time, so Images
// always has a single entry with id 1, but Decode accepts any file that
// follows the schema.
type cocoFile struct {
	Info        cocoInfo         `json:"info"`
	Licenses    []cocoLicense    `json:"licenses"`
	Images      []cocoImage      `json:"images"`
	Annotations []cocoAnnotation `json:"annotations"`
	Categories  []cocoCategory   `json:"categories"`
}

type cocoInfo struct {
	Year        int    `json:"year"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Contributor string `json:"contributor"`
	URL         string `json:"url"`
	DateCreated string `json:"date_created"`
}

type cocoLicense struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type cocoImage struct {
	ID       int    `json:"id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileName string `json:"file_name"`
}

type cocoAnnotation struct {
	ID           int         `json:"id"`
	ImageID      int         `json:"image_id"`
	CategoryID   int         `json:"category_id"`
	Bbox         []float64   `json:"bbox"` // [xmin, ymin, width, height]
	Area         float64     `json:"area"`
	Segmentation [][]float64 `json:"segmentation"`
	Iscrowd      int         `json:"iscrowd"`
}

type cocoCategory struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

// EncodeCOCO serializes the shapes of one image as pretty-printed COCO
// JSON. Category IDs are assigned 1-based, in order of first occurrence
// of each distinct label. IDs are therefore stable within one file only;
// callers that need stable IDs across files must keep their own label
// registry.
func EncodeCOCO(filename string, size anno.ImageSize, shapes []*anno.Shape) (string, error) {
	return EncodeCOCODataset([]string{filename}, []anno.ImageSize{size}, [][]*anno.Shape{shapes})
}

// EncodeCOCODataset serializes a whole dataset as one COCO file. Image
// IDs are 1-based positional; category and annotation IDs run 1-based
// across the entire dataset, categories still in first-occurrence order.
func EncodeCOCODataset(filenames []string, sizes []anno.ImageSize, shapes [][]*anno.Shape) (string, error) {
	categories := []cocoCategory{}
	labelToCategory := map[string]int{}
	for _, list := range shapes {
		for _, s := range list {
			if _, ok := labelToCategory[s.Label]; !ok {
				id := len(categories) + 1
				labelToCategory[s.Label] = id
				categories = append(categories, cocoCategory{
					ID:            id,
					Name:          s.Label,
					Supercategory: "none",
				})
			}
		}
	}

	images := []cocoImage{}
	annotations := []cocoAnnotation{}
	for i, filename := range filenames {
		size := anno.ImageSize{}
		if i < len(sizes) {
			size = sizes[i]
		}
		images = append(images, cocoImage{
			ID:       i + 1,
			Width:    size.Width,
			Height:   size.Height,
			FileName: filename,
		})
		if i >= len(shapes) {
			continue
		}
		for _, s := range shapes[i] {
			bounds := s.Bounds()
			segment := make([]float64, 0, len(s.Points)*2)
			for _, p := range s.Points {
				segment = append(segment, p.X, p.Y)
			}
			annotations = append(annotations, cocoAnnotation{
				ID:           len(annotations) + 1,
				ImageID:      i + 1,
				CategoryID:   labelToCategory[s.Label],
				Bbox:         []float64{bounds.X, bounds.Y, bounds.Width, bounds.Height},
				Area:         bounds.Area(),
				Segmentation: [][]float64{segment},
				Iscrowd:      0,
			})
		}
	}

	now := time.Now()
	file := cocoFile{
		Info: cocoInfo{
			Year:        now.Year(),
			Version:     "1.0",
			Description: "Exported from hanscribe",
			Contributor: "",
			URL:         "",
			DateCreated: now.Format(time.RFC3339),
		},
		Licenses:    []cocoLicense{},
		Images:      images,
		Annotations: annotations,
		Categories:  categories,
	}
	raw, err := json.MarshalIndent(&file, "", "\t")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeCOCO reconstructs rectangle shapes from COCO JSON. Annotations
// whose category_id doesn't resolve are dropped.
func DecodeCOCO(text string) ([]*anno.Shape, error) {
	file := cocoFile{}
	if err := json.Unmarshal([]byte(text), &file); err != nil {
		return nil, err
	}
	categoryName := map[int]string{}
	for _, c := range file.Categories {
		categoryName[c.ID] = c.Name
	}
	shapes := []*anno.Shape{}
	for _, a := range file.Annotations {
		label, ok := categoryName[a.CategoryID]
		if !ok {
			continue
		}
		if len(a.Bbox) != 4 {
			continue
		}
		shapes = append(shapes, anno.NewRectShape(0, label, anno.Rect{
			X:      a.Bbox[0],
			Y:      a.Bbox[1],
			Width:  a.Bbox[2],
			Height: a.Bbox[3],
		}))
	}
	return shapes, nil
}
