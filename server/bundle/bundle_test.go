package bundle

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/hanscribe/hanscribe/pkg/anno"
	"github.com/hanscribe/hanscribe/pkg/anno/codec"
	"github.com/hanscribe/hanscribe/server/session"
	"github.com/stretchr/testify/require"
)

func makePNG(t *testing.T, width, height int) []byte {
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func makeZip(t *testing.T, files map[string][]byte) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for name, data := range files {
		entry, err := zw.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readZip(t *testing.T, data []byte) map[string]string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, zf := range zr.File {
		content, err := zf.Open()
		require.NoError(t, err)
		raw, err := io.ReadAll(content)
		require.NoError(t, err)
		content.Close()
		out[zf.Name] = string(raw)
	}
	return out
}

func exportSnapshot() session.Snapshot {
	return session.Snapshot{
		Images: []session.ImageRecord{
			{Name: "page1.jpg", Blob: "blob-1"},
			{Name: "page2.jpg", Blob: "blob-2"},
		},
		Sizes: []anno.ImageSize{anno.NewImageSize(100, 80), anno.NewImageSize(200, 160)},
		Shapes: [][]*anno.Shape{
			{anno.NewRectShape(0, "人", anno.Rect{X: 10, Y: 10, Width: 40, Height: 30})},
			{anno.NewRectShape(0, "天", anno.Rect{X: 20, Y: 20, Width: 40, Height: 30})},
		},
	}
}

func fetchFake(blob string) ([]byte, error) {
	return []byte("image-bytes-" + blob), nil
}

func TestExportYOLOLayout(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Export(buf, codec.FormatYOLO, exportSnapshot(), fetchFake))

	files := readZip(t, buf.Bytes())
	require.Contains(t, files, "images/page1.jpg")
	require.Contains(t, files, "images/page2.jpg")
	require.Equal(t, "image-bytes-blob-1", files["images/page1.jpg"])
	require.Equal(t, "人 0.30000000 0.31250000 0.40000000 0.37500000\n", files["labels/page1.txt"])
	require.Contains(t, files, "labels/page2.txt")
}

func TestExportVOCLayout(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Export(buf, codec.FormatVOC, exportSnapshot(), fetchFake))

	files := readZip(t, buf.Bytes())
	require.Contains(t, files, "JPEGImages/page1.jpg")
	require.Contains(t, files, "Annotations/page1.xml")
	shapes, err := codec.DecodeVOC(files["Annotations/page1.xml"])
	require.NoError(t, err)
	require.Len(t, shapes, 1)
	require.Equal(t, "人", shapes[0].Label)
}

func TestExportCOCOMergedLabels(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Export(buf, codec.FormatCOCO, exportSnapshot(), fetchFake))

	files := readZip(t, buf.Bytes())
	require.Contains(t, files, "annotations/page1.json")
	require.Contains(t, files, "annotations/page2.json")

	merged := struct {
		Images      []json.RawMessage       `json:"images"`
		Annotations []json.RawMessage       `json:"annotations"`
		Categories  []struct{ Name string } `json:"categories"`
	}{}
	require.NoError(t, json.Unmarshal([]byte(files["annotations/labels.json"]), &merged))
	require.Len(t, merged.Images, 2)
	require.Len(t, merged.Annotations, 2)
	require.Len(t, merged.Categories, 2)
}

func TestReadBundle(t *testing.T) {
	zipData := makeZip(t, map[string][]byte{
		"bundle/page1.png":  makePNG(t, 100, 80),
		"bundle/page1.txt":  []byte("人 0.30000000 0.31250000 0.40000000 0.37500000\n"),
		"bundle/page2.png":  makePNG(t, 50, 50),
		"bundle/readme.pdf": []byte("not an annotation"),
	})

	batch, err := ReadBundle(logs.NewTestingLog(t), zipData, 0)
	require.NoError(t, err)
	require.Len(t, batch.Images, 2)
	require.Len(t, batch.Shapes, 2)

	var page1 int
	for i, img := range batch.Images {
		// Imported names carry a uniqueness prefix over the original name
		require.True(t, strings.HasSuffix(img.Name, ".png"))
		require.NotEqual(t, img.Name, img.Stem+".png")
		if img.Stem == "page1" {
			page1 = i
		}
	}
	require.Equal(t, anno.NewImageSize(100, 80), batch.Images[page1].Size)
	require.Len(t, batch.Shapes[page1], 1)
	require.Equal(t, anno.Rect{X: 10, Y: 10, Width: 40, Height: 30}, batch.Shapes[page1][0].Bounds())
	require.Contains(t, batch.Skipped, "readme.pdf")
}

func TestReadBundleUnknownFormatIsSkipped(t *testing.T) {
	zipData := makeZip(t, map[string][]byte{
		"page1.png": makePNG(t, 10, 10),
		"page1.txt": []byte("this is not any annotation format"),
	})

	batch, err := ReadBundle(logs.NewTestingLog(t), zipData, 0)
	require.NoError(t, err)
	require.Len(t, batch.Images, 1)
	require.Len(t, batch.Shapes[0], 0)
	require.Contains(t, batch.Skipped, "page1.txt")
}

func TestReadBundleOversizedFileAborts(t *testing.T) {
	zipData := makeZip(t, map[string][]byte{
		"page1.png": makePNG(t, 100, 100),
	})
	_, err := ReadBundle(logs.NewTestingLog(t), zipData, 16)
	require.Error(t, err)
}

func TestDecodeAnnotationSniffs(t *testing.T) {
	size := anno.NewImageSize(100, 80)

	_, format, err := DecodeAnnotation("人 0.5 0.5 0.1 0.1\n", size)
	require.NoError(t, err)
	require.Equal(t, codec.FormatYOLO, format)

	text, err := codec.EncodeVOC("page.jpg", size, []*anno.Shape{
		anno.NewRectShape(0, "地", anno.Rect{X: 1, Y: 2, Width: 3, Height: 4}),
	})
	require.NoError(t, err)
	shapes, format, err := DecodeAnnotation(text, size)
	require.NoError(t, err)
	require.Equal(t, codec.FormatVOC, format)
	require.Len(t, shapes, 1)
}
