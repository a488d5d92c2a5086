package server

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"

	"github.com/hanscribe/hanscribe/pkg/anno"
	"github.com/hanscribe/hanscribe/server/datasetdb"
	"github.com/hanscribe/hanscribe/server/saver"
	"github.com/hanscribe/hanscribe/server/session"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	cfg := Config{
		DB:           dbh.MakeSqliteConfig(filepath.Join(t.TempDir(), "datasets.sqlite")),
		ImageStorage: StorageConfig{Filesystem: &StorageConfigFS{Root: t.TempDir()}},
		MaxChunkSize: "5mb",
	}
	s, err := NewServerFromConfig(logs.NewTestingLog(t), cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func testPNG(t *testing.T, width, height int) []byte {
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func httpGet(t *testing.T, url string) (int, []byte) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestPing(t *testing.T) {
	_, ts := newTestServer(t)
	status, body := httpGet(t, ts.URL+"/api/ping")
	require.Equal(t, 200, status)
	require.Contains(t, string(body), "time")
}

func TestSaveExportTranscribe(t *testing.T) {
	s, ts := newTestServer(t)
	ds, err := s.DB.CreateDataset("pages", datasetdb.DatasetTypeDetection)
	require.NoError(t, err)

	pngData := testPNG(t, 100, 80)
	snap := session.Snapshot{
		Images: []session.ImageRecord{{Name: "page1.png", Blob: "b1"}},
		Sizes:  []anno.ImageSize{anno.NewImageSize(100, 80)},
		Shapes: [][]*anno.Shape{{
			anno.NewRectShape(0, "人", anno.Rect{X: 10, Y: 10, Width: 20, Height: 20}),
			anno.NewRectShape(0, "天", anno.Rect{X: 10, Y: 40, Width: 20, Height: 20}),
		}},
	}
	fetch := func(blob string) ([]byte, error) { return pngData, nil }

	sv := saver.NewSaver(logs.NewTestingLog(t), saver.Options{BaseURL: ts.URL})
	result, err := sv.Save(context.Background(), ds.ID, session.DatasetDetection, snap, fetch)
	require.NoError(t, err)
	require.True(t, result.AllOK())

	// Rows, blobs, vocabulary
	img, err := s.DB.GetImage(ds.ID, "page1.png")
	require.NoError(t, err)
	require.True(t, img.IsLabeled)
	require.Equal(t, int64(len(pngData)), img.Size)

	labels, err := s.DB.Labels(ds.ID)
	require.NoError(t, err)
	require.Len(t, labels, 2)

	status, body := httpGet(t, ts.URL+"/api/dataset/1/image/page1.png")
	require.Equal(t, 200, status)
	require.Equal(t, pngData, body)

	status, body = httpGet(t, ts.URL+"/api/dataset/1/image/page1.png/thumbnail")
	require.Equal(t, 200, status)
	require.NotEmpty(t, body)

	// One column, two characters top to bottom
	status, body = httpGet(t, ts.URL+"/api/dataset/1/image/page1.png/transcription?mode=column")
	require.Equal(t, 200, status)
	require.Equal(t, "人天", string(body))

	// YOLO export layout
	status, body = httpGet(t, ts.URL+"/api/dataset/1/export?format=yolo")
	require.Equal(t, 200, status)
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	require.NoError(t, err)
	names := []string{}
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	require.Contains(t, names, "images/page1.png")
	require.Contains(t, names, "labels/page1.txt")
}

func TestSaveReconcilesRemovedImages(t *testing.T) {
	s, ts := newTestServer(t)
	ds, err := s.DB.CreateDataset("pages", datasetdb.DatasetTypeClassification)
	require.NoError(t, err)

	pngData := testPNG(t, 20, 20)
	fetch := func(blob string) ([]byte, error) { return pngData, nil }
	sv := saver.NewSaver(logs.NewTestingLog(t), saver.Options{BaseURL: ts.URL})

	snap := session.Snapshot{
		Images: []session.ImageRecord{
			{Name: "a.png", Blob: "b", Label: "seal-script"},
			{Name: "b.png", Blob: "b"},
		},
		Sizes:  []anno.ImageSize{anno.NewImageSize(20, 20), anno.NewImageSize(20, 20)},
		Shapes: [][]*anno.Shape{{}, {}},
	}
	result, err := sv.Save(context.Background(), ds.ID, session.DatasetClassification, snap, fetch)
	require.NoError(t, err)
	require.True(t, result.AllOK())

	images, err := s.DB.ListImages(ds.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)

	// Second save without b.png deletes its row and blob
	snap.Images = snap.Images[:1]
	snap.Sizes = snap.Sizes[:1]
	snap.Shapes = snap.Shapes[:1]
	result, err = sv.Save(context.Background(), ds.ID, session.DatasetClassification, snap, fetch)
	require.NoError(t, err)
	require.True(t, result.AllOK())

	images, err = s.DB.ListImages(ds.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	require.Equal(t, "a.png", images[0].Name)

	status, _ := httpGet(t, ts.URL+"/api/dataset/1/image/b.png")
	require.NotEqual(t, 200, status)
}

func TestImportBundle(t *testing.T) {
	s, ts := newTestServer(t)
	ds, err := s.DB.CreateDataset("pages", datasetdb.DatasetTypeDetection)
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	entry, err := zw.Create("page1.png")
	require.NoError(t, err)
	_, err = entry.Write(testPNG(t, 100, 80))
	require.NoError(t, err)
	entry, err = zw.Create("page1.txt")
	require.NoError(t, err)
	_, err = entry.Write([]byte("人 0.30000000 0.31250000 0.40000000 0.37500000\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	resp, err := http.Post(ts.URL+"/api/dataset/1/import", "application/zip", buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	images, err := s.DB.ListImages(ds.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	require.True(t, images[0].IsLabeled)

	labels, err := s.DB.Labels(ds.ID)
	require.NoError(t, err)
	require.Len(t, labels, 1)
	require.Equal(t, "人", labels[0].Name)
}
