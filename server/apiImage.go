package server

import (
	"bytes"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/cyclopcam/www"
	"github.com/hanscribe/hanscribe/pkg/anno/codec"
	"github.com/hanscribe/hanscribe/pkg/readorder"
	"github.com/hanscribe/hanscribe/server/datasetdb"
	"github.com/hanscribe/hanscribe/server/storage"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) getImageOrPanic(params httprouter.Params) (*datasetdb.Dataset, *datasetdb.DatasetImage) {
	ds := s.getDatasetOrPanic(params.ByName("id"))
	img, err := s.DB.GetImage(ds.ID, params.ByName("name"))
	www.Check(err)
	return ds, img
}

func imageContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

func (s *Server) httpImageList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds := s.getDatasetOrPanic(params.ByName("id"))
	images, err := s.DB.ListImages(ds.ID)
	www.Check(err)
	www.SendJSON(w, images)
}

func (s *Server) httpImageGet(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds, img := s.getImageOrPanic(params)
	file, err := s.storage.ReadFile(storage.ImageBlobName(ds.ID, img.Name))
	www.Check(err)
	defer file.Reader.Close()
	w.Header().Set("Content-Type", imageContentType(img.Name))
	io.Copy(w, file.Reader)
}

// httpImageThumbnail serves the image's thumbnail, generating and storing
// it on first request if the save-time generation failed.
func (s *Server) httpImageThumbnail(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds, img := s.getImageOrPanic(params)
	thumbName := storage.ThumbBlobName(ds.ID, img.Name)
	data, err := storage.ReadFile(s.storage, thumbName)
	if err != nil {
		full, err := storage.ReadFile(s.storage, storage.ImageBlobName(ds.ID, img.Name))
		www.Check(err)
		data, err = storage.Thumbnail(full)
		www.Check(err)
		if err := storage.WriteFile(s.storage, thumbName, bytes.NewReader(data)); err != nil {
			s.Log.Warnf("Failed to store thumbnail %v: %v", thumbName, err)
		}
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(data)
}

// httpImageAnnotation serves the image's stored annotation payload: COCO
// JSON for detection datasets, the class name for classification.
func (s *Server) httpImageAnnotation(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds, img := s.getImageOrPanic(params)
	if ds.Type == datasetdb.DatasetTypeDetection {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write([]byte(img.Label))
}

// httpImageTranscription returns the reading-order text of the image's
// labeled shapes (?mode=column|row|original, default column: Han-Nom
// pages read in columns, right to left).
func (s *Server) httpImageTranscription(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds, img := s.getImageOrPanic(params)
	if ds.Type != datasetdb.DatasetTypeDetection {
		www.PanicBadRequestf("Transcription requires a detection dataset")
	}
	mode := readorder.Mode(www.QueryValue(r, "mode"))
	if mode == "" {
		mode = readorder.ModeColumn
	}
	if mode != readorder.ModeColumn && mode != readorder.ModeRow && mode != readorder.ModeOriginal {
		www.PanicBadRequestf("Invalid mode '%v'. Valid modes are 'column', 'row' and 'original'", mode)
	}

	if !img.IsLabeled {
		www.SendText(w, "")
		return
	}
	decoded, err := codec.DecodeCOCO(img.Label)
	www.Check(err)
	www.SendText(w, readorder.TranscribeMode(readorder.VisibleOnly(decoded), mode))
}
