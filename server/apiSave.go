package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/cyclopcam/www"
	"github.com/hanscribe/hanscribe/pkg/anno/codec"
	"github.com/hanscribe/hanscribe/server/datasetdb"
	"github.com/hanscribe/hanscribe/server/saver"
	"github.com/hanscribe/hanscribe/server/storage"
	"github.com/julienschmidt/httprouter"
)

// httpDatasetSave applies one chunk of a session save.
// SYNC-SAVE-CHUNK-FORM (server/saver/saver.go writes these fields)
//
// allImages is the session's full image inventory; registered images
// absent from it are deleted, blobs included. The chunk's own images are
// upserted: row, blob, thumbnail, and any new labels into the dataset's
// vocabulary. Chunks of one save arrive as separate requests, so a
// partial save leaves the dataset in a mixed but internally consistent
// state, which the next full save repairs.
func (s *Server) httpDatasetSave(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds := s.getDatasetOrPanic(params.ByName("id"))

	// The grace over maxChunkSize covers multipart boundaries, since the
	// chunker's estimate is not exact.
	www.Check(r.ParseMultipartForm(s.maxChunkSize + 1024*1024))

	allImages := []string{}
	names := []string{}
	labels := []string{}
	isLabels := []bool{}
	readField := func(field string, into any) {
		if err := json.Unmarshal([]byte(r.FormValue(field)), into); err != nil {
			www.PanicBadRequestf("Invalid %v field: %v", field, err)
		}
	}
	readField(saver.FormAllImages, &allImages)
	readField(saver.FormImages, &names)
	readField(saver.FormLabels, &labels)
	readField(saver.FormIsLabels, &isLabels)
	if len(labels) != len(names) || len(isLabels) != len(names) {
		www.PanicBadRequestf("images, labels and isLabels must be the same length")
	}

	files := map[string]*multipartFile{}
	for _, fh := range r.MultipartForm.File[saver.FormFiles] {
		files[fh.Filename] = &multipartFile{header: fh}
	}

	chunk := make([]datasetdb.ImageUpsert, len(names))
	for i, name := range names {
		size := int64(0)
		if f, ok := files[name]; ok {
			size = f.header.Size
		}
		chunk[i] = datasetdb.ImageUpsert{
			Name:      name,
			Label:     labels[i],
			IsLabeled: isLabels[i],
			Size:      size,
		}
	}

	removed, err := s.DB.ReconcileChunk(ds.ID, allImages, chunk)
	www.Check(err)
	for _, name := range removed {
		s.deleteImageBlobs(ds.ID, name)
	}

	for _, name := range names {
		f, ok := files[name]
		if !ok {
			continue
		}
		data, err := f.read()
		www.Check(err)
		www.Check(storage.WriteFile(s.storage, storage.ImageBlobName(ds.ID, name), bytes.NewReader(data)))
		if thumb, err := storage.Thumbnail(data); err != nil {
			s.Log.Warnf("Failed to generate thumbnail for %v: %v", name, err)
		} else {
			www.Check(storage.WriteFile(s.storage, storage.ThumbBlobName(ds.ID, name), bytes.NewReader(thumb)))
		}
	}

	s.growVocabulary(ds, labels, isLabels)

	saved, err := s.DB.ListImages(ds.ID)
	www.Check(err)
	s.notify.publish(saveProgressEvent{
		Type:        "saveProgress",
		DatasetID:   ds.ID,
		ChunkImages: len(names),
		Registered:  len(saved),
		Total:       len(allImages),
	})

	www.SendOK(w)
}

// growVocabulary extends the dataset's label vocabulary with the labels
// of this chunk. Vocabulary growth is best effort and append-only.
func (s *Server) growVocabulary(ds *datasetdb.Dataset, payloads []string, isLabels []bool) {
	vocab := []string{}
	for i, payload := range payloads {
		if !isLabels[i] {
			continue
		}
		if ds.Type == datasetdb.DatasetTypeClassification {
			vocab = append(vocab, payload)
			continue
		}
		shapes, err := codec.DecodeCOCO(payload)
		if err != nil {
			continue
		}
		for _, shape := range shapes {
			vocab = append(vocab, shape.Label)
		}
	}
	if len(vocab) == 0 {
		return
	}
	if err := s.DB.AddLabels(ds.ID, vocab); err != nil {
		s.Log.Warnf("Failed to grow label vocabulary of dataset %v: %v", ds.ID, err)
	}
}

type multipartFile struct {
	header *multipart.FileHeader
}

func (f *multipartFile) read() ([]byte, error) {
	file, err := f.header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
