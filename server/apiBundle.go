package server

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/cyclopcam/www"
	"github.com/hanscribe/hanscribe/pkg/anno"
	"github.com/hanscribe/hanscribe/pkg/anno/codec"
	"github.com/hanscribe/hanscribe/server/bundle"
	"github.com/hanscribe/hanscribe/server/datasetdb"
	"github.com/hanscribe/hanscribe/server/session"
	"github.com/hanscribe/hanscribe/server/storage"
	"github.com/julienschmidt/httprouter"
)

// httpDatasetExport streams the dataset as a ZIP bundle in the requested
// format (?format=coco|yolo|pascalvoc).
func (s *Server) httpDatasetExport(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds := s.getDatasetOrPanic(params.ByName("id"))
	format, err := codec.ParseFormat(www.RequiredQueryValue(r, "format"))
	if err != nil {
		www.PanicBadRequestf("%v", err)
	}

	images, err := s.DB.ListImages(ds.ID)
	www.Check(err)

	// Blobs are materialized up front so the snapshot's sizes are known
	// before the zip starts streaming.
	snap := session.Snapshot{}
	blobs := map[string][]byte{}
	for _, img := range images {
		blobName := storage.ImageBlobName(ds.ID, img.Name)
		data, err := storage.ReadFile(s.storage, blobName)
		www.Check(err)
		blobs[blobName] = data

		size := anno.ImageSize{}
		if config, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			size = anno.NewImageSize(config.Width, config.Height)
		}

		shapes := []*anno.Shape{}
		if ds.Type == datasetdb.DatasetTypeDetection && img.IsLabeled {
			if decoded, err := codec.DecodeCOCO(img.Label); err == nil {
				shapes = decoded
			} else {
				s.Log.Warnf("Skipping annotations of %v in export: %v", img.Name, err)
			}
		}

		snap.Images = append(snap.Images, session.ImageRecord{Name: img.Name, Blob: blobName, Size: img.Size})
		snap.Sizes = append(snap.Sizes, size)
		snap.Shapes = append(snap.Shapes, shapes)
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="dataset-%v-%v.zip"`, ds.ID, format))
	fetch := func(blob string) ([]byte, error) {
		return blobs[blob], nil
	}
	if err := bundle.Export(w, format, snap, fetch); err != nil {
		// Headers are out the door already, so all we can do is log
		s.Log.Errorf("Export of dataset %v failed mid-stream: %v", ds.ID, err)
	}
}

// httpDatasetImport accepts a ZIP bundle of images plus annotation files
// as the raw request body, and adds its content to the dataset.
func (s *Server) httpDatasetImport(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds := s.getDatasetOrPanic(params.ByName("id"))

	maxSize := int64(256 * 1024 * 1024)
	if r.ContentLength > maxSize {
		www.PanicBadRequestf("Request body is too large: %v. Maximum size: %v MB", r.ContentLength, maxSize/(1024*1024))
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSize))
	www.Check(err)

	batch, err := bundle.ReadBundle(s.Log, body, bundle.DefaultMaxImportFileSize)
	www.Check(err)

	existing, err := s.DB.ListImages(ds.ID)
	www.Check(err)
	allImages := make([]string, 0, len(existing)+len(batch.Images))
	for _, img := range existing {
		allImages = append(allImages, img.Name)
	}

	chunk := []datasetdb.ImageUpsert{}
	vocab := []string{}
	for i, img := range batch.Images {
		label := ""
		isLabeled := false
		if ds.Type == datasetdb.DatasetTypeDetection && len(batch.Shapes[i]) > 0 {
			label, err = codec.EncodeCOCO(img.Name, img.Size, batch.Shapes[i])
			www.Check(err)
			isLabeled = true
			for _, shape := range batch.Shapes[i] {
				vocab = append(vocab, shape.Label)
			}
		}
		www.Check(storage.WriteFile(s.storage, storage.ImageBlobName(ds.ID, img.Name), bytes.NewReader(img.Data)))
		if thumb, err := storage.Thumbnail(img.Data); err == nil {
			storage.WriteFile(s.storage, storage.ThumbBlobName(ds.ID, img.Name), bytes.NewReader(thumb))
		}
		allImages = append(allImages, img.Name)
		chunk = append(chunk, datasetdb.ImageUpsert{
			Name:      img.Name,
			Label:     label,
			IsLabeled: isLabeled,
			Size:      int64(len(img.Data)),
		})
	}

	// The inventory includes everything already registered, so the
	// reconcile adds without deleting.
	_, err = s.DB.ReconcileChunk(ds.ID, allImages, chunk)
	www.Check(err)
	if len(vocab) != 0 {
		www.Check(s.DB.AddLabels(ds.ID, vocab))
	}

	s.Log.Infof("Imported %v images into dataset %v (%v skipped)", len(batch.Images), ds.ID, len(batch.Skipped))
	type importResultJSON struct {
		Added   int      `json:"added"`
		Skipped []string `json:"skipped"`
	}
	www.SendJSON(w, &importResultJSON{Added: len(batch.Images), Skipped: batch.Skipped})
}
