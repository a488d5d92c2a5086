package server

import (
	"net/http"

	"github.com/cyclopcam/www"
	"github.com/hanscribe/hanscribe/server/datasetdb"
	"github.com/hanscribe/hanscribe/server/storage"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) getDatasetOrPanic(id string) *datasetdb.Dataset {
	ds, err := s.DB.GetDataset(www.ParseID(id))
	www.Check(err)
	return ds
}

func (s *Server) httpDatasetList(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	list, err := s.DB.ListDatasets()
	www.Check(err)
	www.SendJSON(w, list)
}

func (s *Server) httpDatasetCreate(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	name := www.RequiredQueryValue(r, "name")
	dtype := www.RequiredQueryValue(r, "type")
	ds, err := s.DB.CreateDataset(name, dtype)
	www.Check(err)
	s.Log.Infof("Created dataset %v (%v, %v)", ds.ID, name, dtype)
	www.SendID(w, ds.ID)
}

func (s *Server) httpDatasetGet(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.getDatasetOrPanic(params.ByName("id")))
}

func (s *Server) httpDatasetRename(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds := s.getDatasetOrPanic(params.ByName("id"))
	name := www.RequiredQueryValue(r, "name")
	www.Check(s.DB.RenameDataset(ds.ID, name))
	www.SendOK(w)
}

func (s *Server) httpDatasetDelete(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds := s.getDatasetOrPanic(params.ByName("id"))
	names, err := s.DB.DeleteDataset(ds.ID)
	www.Check(err)
	for _, name := range names {
		s.deleteImageBlobs(ds.ID, name)
	}
	s.Log.Infof("Deleted dataset %v (%v images)", ds.ID, len(names))
	www.SendOK(w)
}

// deleteImageBlobs removes an image's bytes and thumbnail. Best effort:
// the DB row is already gone, so an orphaned blob only wastes space.
func (s *Server) deleteImageBlobs(datasetID int64, name string) {
	if err := s.storage.DeleteFile(storage.ImageBlobName(datasetID, name)); err != nil {
		s.Log.Warnf("Failed to delete blob for image %v: %v", name, err)
	}
	if err := s.storage.DeleteFile(storage.ThumbBlobName(datasetID, name)); err != nil {
		s.Log.Debugf("Failed to delete thumbnail for image %v: %v", name, err)
	}
}

func (s *Server) httpDatasetLabels(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds := s.getDatasetOrPanic(params.ByName("id"))
	labels, err := s.DB.Labels(ds.ID)
	www.Check(err)
	www.SendJSON(w, labels)
}

func (s *Server) httpDatasetAddLabels(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ds := s.getDatasetOrPanic(params.ByName("id"))
	labels := []string{}
	www.ReadJSON(w, r, &labels, 1024*1024)
	www.Check(s.DB.AddLabels(ds.ID, labels))
	www.SendOK(w)
}
