// Package bundle reads and writes dataset bundles: ZIP archives holding
// images plus annotation files in one of the interchange formats. Export
// produces the folder layout each format's tooling expects; import
// matches annotation files to images by filename stem and sniffs the
// format from content, since a .txt extension says nothing.
package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"

	"github.com/cyclopcam/logs"
	"github.com/hanscribe/hanscribe/pkg/anno"
	"github.com/hanscribe/hanscribe/pkg/anno/codec"
	"github.com/hanscribe/hanscribe/pkg/rando"
	"github.com/hanscribe/hanscribe/server/session"
)

// DefaultMaxImportFileSize is the per-file ceiling on import. An
// oversized file aborts the whole batch: it's a usage error, not a
// malformed file to skip past.
const DefaultMaxImportFileSize = 50 * 1024 * 1024

// FetchBlob materializes an image's bytes from its blob reference.
type FetchBlob func(blob string) ([]byte, error)

// Export writes the session's images and annotations to w as a ZIP in
// the given format's conventional layout:
//
//	COCO: images/ + annotations/ (per-image JSON plus a merged labels.json)
//	YOLO: images/ + labels/ (one .txt per image, same stem)
//	VOC:  JPEGImages/ + Annotations/ (one .xml per image, same stem)
func Export(w io.Writer, format codec.Format, snap session.Snapshot, fetch FetchBlob) error {
	imageDir := "images"
	annoDir := "annotations"
	if format == codec.FormatVOC {
		imageDir = "JPEGImages"
		annoDir = "Annotations"
	} else if format == codec.FormatYOLO {
		annoDir = "labels"
	}

	zw := zip.NewWriter(w)
	for i, img := range snap.Images {
		size := snap.Sizes[i]
		shapes := snap.Shapes[i]

		if fetch != nil && img.Blob != "" {
			data, err := fetch(img.Blob)
			if err != nil {
				return fmt.Errorf("Failed to fetch image %v: %w", img.Name, err)
			}
			entry, err := zw.Create(imageDir + "/" + img.Name)
			if err != nil {
				return err
			}
			if _, err := entry.Write(data); err != nil {
				return err
			}
		}

		text := ""
		ext := ""
		var err error
		switch format {
		case codec.FormatCOCO:
			text, err = codec.EncodeCOCO(img.Name, size, shapes)
			ext = ".json"
		case codec.FormatYOLO:
			text = codec.EncodeYOLO(size, shapes)
			ext = ".txt"
		case codec.FormatVOC:
			text, err = codec.EncodeVOC(img.Name, size, shapes)
			ext = ".xml"
		default:
			return fmt.Errorf("Unsupported export format %v", format)
		}
		if err != nil {
			return err
		}
		entry, err := zw.Create(annoDir + "/" + stem(img.Name) + ext)
		if err != nil {
			return err
		}
		if _, err := entry.Write([]byte(text)); err != nil {
			return err
		}
	}

	if format == codec.FormatCOCO {
		names := make([]string, len(snap.Images))
		for i, img := range snap.Images {
			names[i] = img.Name
		}
		merged, err := codec.EncodeCOCODataset(names, snap.Sizes, snap.Shapes)
		if err != nil {
			return err
		}
		entry, err := zw.Create(annoDir + "/labels.json")
		if err != nil {
			return err
		}
		if _, err := entry.Write([]byte(merged)); err != nil {
			return err
		}
	}

	return zw.Close()
}

// ImageEntry is one image extracted from a bundle. Name carries a
// timestamp uniqueness prefix so repeated imports of the same file don't
// collide; Stem is the original filename stem, used for annotation
// matching.
type ImageEntry struct {
	Name string
	Stem string
	Data []byte
	Size anno.ImageSize
}

// Batch is the decoded content of an import: images with their matched
// shapes, index-aligned, ready to be applied to a session as one atomic
// extension. Skipped lists files that were dropped with a warning.
type Batch struct {
	Images  []ImageEntry
	Shapes  [][]*anno.Shape
	Skipped []string
}

type annotationFile struct {
	name string
	text string
}

// ReadBundle extracts a ZIP of images and annotation files. Images are
// filtered by extension allow-list (jpg/jpeg/png); .txt/.xml/.json files
// are treated as annotations and matched to images by stem. A file over
// maxFileSize aborts the whole batch. A file of any other type, or an
// annotation whose format can't be detected, is skipped with a warning.
func ReadBundle(logger logs.Log, zipData []byte, maxFileSize int64) (*Batch, error) {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxImportFileSize
	}
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, fmt.Errorf("Invalid zip file: %w", err)
	}

	batch := &Batch{}
	annotations := []annotationFile{}
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		name := path.Base(zf.Name)
		if int64(zf.UncompressedSize64) > maxFileSize {
			return nil, fmt.Errorf("File %v is too large: %v bytes (maximum %v)", name, zf.UncompressedSize64, maxFileSize)
		}
		data, err := readZipFile(zf, maxFileSize)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(path.Ext(name)) {
		case ".jpg", ".jpeg", ".png":
			entry, err := makeImageEntry(name, data)
			if err != nil {
				logger.Warnf("Skipping image %v: %v", name, err)
				batch.Skipped = append(batch.Skipped, name)
				continue
			}
			batch.Images = append(batch.Images, entry)
		case ".txt", ".xml", ".json":
			annotations = append(annotations, annotationFile{name: name, text: string(data)})
		default:
			logger.Warnf("Skipping unsupported file %v", name)
			batch.Skipped = append(batch.Skipped, name)
		}
	}

	batch.Shapes = make([][]*anno.Shape, len(batch.Images))
	for i := range batch.Shapes {
		batch.Shapes[i] = []*anno.Shape{}
	}
	for _, af := range annotations {
		target := -1
		for i, img := range batch.Images {
			if img.Stem == stem(af.name) {
				target = i
				break
			}
		}
		if target == -1 {
			logger.Warnf("Skipping annotation %v: no matching image", af.name)
			batch.Skipped = append(batch.Skipped, af.name)
			continue
		}
		shapes, _, err := DecodeAnnotation(af.text, batch.Images[target].Size)
		if err != nil {
			logger.Warnf("Skipping annotation %v: %v", af.name, err)
			batch.Skipped = append(batch.Skipped, af.name)
			continue
		}
		batch.Shapes[target] = shapes
	}

	return batch, nil
}

// DecodeAnnotation sniffs the format of text and decodes it. The image
// size is needed to denormalize YOLO coordinates.
func DecodeAnnotation(text string, size anno.ImageSize) ([]*anno.Shape, codec.Format, error) {
	format := codec.DetectFormat(text)
	switch format {
	case codec.FormatCOCO:
		shapes, err := codec.DecodeCOCO(text)
		return shapes, format, err
	case codec.FormatVOC:
		shapes, err := codec.DecodeVOC(text)
		return shapes, format, err
	case codec.FormatYOLO:
		return codec.DecodeYOLO(text, size), format, nil
	}
	return nil, codec.FormatUnknown, fmt.Errorf("Unrecognized annotation format")
}

func makeImageEntry(name string, data []byte) (ImageEntry, error) {
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageEntry{}, fmt.Errorf("failed to decode image header: %w", err)
	}
	return ImageEntry{
		Name: rando.UniqueName(name),
		Stem: stem(name),
		Data: data,
		Size: anno.NewImageSize(config.Width, config.Height),
	}, nil
}

func readZipFile(zf *zip.File, maxBytes int64) ([]byte, error) {
	content, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer content.Close()
	// The header's uncompressed size is untrusted, so the read is capped too
	data, err := io.ReadAll(io.LimitReader(content, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("File %v is too large (maximum %v bytes)", path.Base(zf.Name), maxBytes)
	}
	return data, nil
}

func stem(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
