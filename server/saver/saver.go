// Package saver persists a session to the dataset service in
// size-bounded chunks. Chunks upload sequentially, and a failed chunk is
// logged and skipped rather than aborting the rest: the caller gets a
// per-chunk result list, not an all-or-nothing transaction.
package saver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/cyclopcam/logs"
	"github.com/hanscribe/hanscribe/pkg/anno"
	"github.com/hanscribe/hanscribe/pkg/anno/codec"
	"github.com/hanscribe/hanscribe/server/session"
)

// Multipart form fields of the save-chunk request.
// SYNC-SAVE-CHUNK-FORM (server/apiSave.go reads these)
const (
	FormDatasetID = "datasetId"
	FormAllImages = "allImages"
	FormImages    = "images"
	FormLabels    = "labels"
	FormIsLabels  = "isLabels"
	FormFiles     = "files"
)

type Options struct {
	BaseURL      string // eg "http://localhost:8081"
	MaxChunkSize int64  // zero means DefaultMaxChunkSize
}

type Saver struct {
	log          logs.Log
	client       *http.Client
	baseURL      string
	maxChunkSize int64
}

func NewSaver(logger logs.Log, opts Options) *Saver {
	maxChunkSize := opts.MaxChunkSize
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Saver{
		log:          logger,
		client:       http.DefaultClient,
		baseURL:      opts.BaseURL,
		maxChunkSize: maxChunkSize,
	}
}

// ChunkResult records the outcome of one chunk upload.
type ChunkResult struct {
	Images int   // number of images in the chunk
	Err    error // nil on success
}

type Result struct {
	Chunks []ChunkResult
}

// AllOK distinguishes "everything uploaded" from best-effort partial
// success.
func (r *Result) AllOK() bool {
	for _, c := range r.Chunks {
		if c.Err != nil {
			return false
		}
	}
	return true
}

// FetchBlob materializes an image's bytes from its blob reference.
type FetchBlob func(blob string) ([]byte, error)

// Save uploads the snapshot to the dataset service. datasetID == 0 is a
// hard precondition failure: it means upstream state is broken, so we
// fail fast instead of silently doing nothing. An empty snapshot still
// issues one request with empty arrays, which tells the backend the
// dataset was cleared.
func (s *Saver) Save(ctx context.Context, datasetID int64, dtype session.DatasetType, snap session.Snapshot, fetch FetchBlob) (*Result, error) {
	if datasetID == 0 {
		return nil, fmt.Errorf("No dataset selected")
	}

	payloads, err := Materialize(snap, dtype, fetch)
	if err != nil {
		return nil, err
	}

	allNames := make([]string, len(snap.Images))
	for i, img := range snap.Images {
		allNames[i] = img.Name
	}

	chunks := SplitChunks(payloads, s.maxChunkSize)
	if len(chunks) == 0 {
		chunks = [][]ImagePayload{{}}
	}

	result := &Result{}
	for i, chunk := range chunks {
		err := s.uploadChunk(ctx, datasetID, allNames, chunk)
		if err != nil {
			s.log.Errorf("Save chunk %v/%v (%v images) failed: %v", i+1, len(chunks), len(chunk), err)
		}
		result.Chunks = append(result.Chunks, ChunkResult{Images: len(chunk), Err: err})
	}
	return result, nil
}

// Materialize computes each image's upload payload. Detection datasets
// carry the COCO encoding of the image's shapes; classification datasets
// carry the image's single string label.
func Materialize(snap session.Snapshot, dtype session.DatasetType, fetch FetchBlob) ([]ImagePayload, error) {
	payloads := make([]ImagePayload, 0, len(snap.Images))
	for i, img := range snap.Images {
		file := []byte{}
		if fetch != nil && img.Blob != "" {
			b, err := fetch(img.Blob)
			if err != nil {
				return nil, fmt.Errorf("Failed to materialize image %v: %w", img.Name, err)
			}
			file = b
		}
		p := ImagePayload{
			Name: img.Name,
			File: file,
		}
		switch dtype {
		case session.DatasetClassification:
			p.Label = []byte(img.Label)
			p.IsLabeled = img.Label != ""
		default:
			size := anno.ImageSize{}
			if i < len(snap.Sizes) {
				size = snap.Sizes[i]
			}
			shapes := []*anno.Shape{}
			if i < len(snap.Shapes) {
				shapes = snap.Shapes[i]
			}
			encoded, err := codec.EncodeCOCO(img.Name, size, shapes)
			if err != nil {
				return nil, err
			}
			p.Label = []byte(encoded)
			p.IsLabeled = len(shapes) > 0
		}
		payloads = append(payloads, p)
	}
	return payloads, nil
}

func (s *Saver) uploadChunk(ctx context.Context, datasetID int64, allNames []string, chunk []ImagePayload) error {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	names := make([]string, len(chunk))
	labels := make([]string, len(chunk))
	isLabels := make([]bool, len(chunk))
	for i, img := range chunk {
		names[i] = img.Name
		labels[i] = string(img.Label)
		isLabels[i] = img.IsLabeled
	}

	if err := form.WriteField(FormDatasetID, fmt.Sprintf("%v", datasetID)); err != nil {
		return err
	}
	writeJSONField := func(field string, value any) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return form.WriteField(field, string(encoded))
	}
	if err := writeJSONField(FormAllImages, allNames); err != nil {
		return err
	}
	if err := writeJSONField(FormImages, names); err != nil {
		return err
	}
	if err := writeJSONField(FormLabels, labels); err != nil {
		return err
	}
	if err := writeJSONField(FormIsLabels, isLabels); err != nil {
		return err
	}
	for _, img := range chunk {
		w, err := form.CreateFormFile(FormFiles, img.Name)
		if err != nil {
			return err
		}
		if _, err := w.Write(img.File); err != nil {
			return err
		}
	}
	if err := form.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%v/api/dataset/%v/save", s.baseURL, datasetID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%v. %v", resp.Status, string(msg))
	}
	return nil
}
