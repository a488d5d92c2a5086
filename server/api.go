package server

import (
	"net/http"
	"time"

	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) setupHttpRoutes() {
	router := httprouter.New()

	handle := func(method, route string, handler httprouter.Handle) {
		www.Handle(s.Log, router, method, route, handler)
	}

	// Save and import move whole datasets per request, so a burst of them
	// is either a runaway client or abuse. One limiter per endpoint.
	rateLimited := func(method, route string, requestLimit int, windowLength time.Duration, handler httprouter.Handle) {
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handler(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	handle("GET", "/api/ping", s.httpPing)
	handle("GET", "/api/ws", s.httpWebSocket)

	// Plural for the collection routes, to keep httprouter's tree free of
	// static/param conflicts under /api/dataset/:id
	handle("GET", "/api/datasets/list", s.httpDatasetList)
	handle("POST", "/api/datasets/create", s.httpDatasetCreate)
	handle("GET", "/api/dataset/:id", s.httpDatasetGet)
	handle("POST", "/api/dataset/:id/rename", s.httpDatasetRename)
	handle("DELETE", "/api/dataset/:id", s.httpDatasetDelete)

	handle("GET", "/api/dataset/:id/labels", s.httpDatasetLabels)
	handle("POST", "/api/dataset/:id/labels", s.httpDatasetAddLabels)

	handle("GET", "/api/dataset/:id/images", s.httpImageList)
	handle("GET", "/api/dataset/:id/image/:name", s.httpImageGet)
	handle("GET", "/api/dataset/:id/image/:name/thumbnail", s.httpImageThumbnail)
	handle("GET", "/api/dataset/:id/image/:name/annotation", s.httpImageAnnotation)
	handle("GET", "/api/dataset/:id/image/:name/transcription", s.httpImageTranscription)

	// SYNC-SAVE-CHUNK-FORM (server/saver posts here)
	rateLimited("POST", "/api/dataset/:id/save", 30, time.Minute, s.httpDatasetSave)
	rateLimited("POST", "/api/dataset/:id/import", 10, time.Minute, s.httpDatasetImport)
	handle("GET", "/api/dataset/:id/export", s.httpDatasetExport)

	s.httpRouter = router
}
