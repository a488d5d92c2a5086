// Package server is the dataset service: the HTTP API that the
// annotation engine saves to, exports from, and imports through.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/hanscribe/hanscribe/pkg/kibi"
	"github.com/hanscribe/hanscribe/server/datasetdb"
	"github.com/hanscribe/hanscribe/server/saver"
	"github.com/hanscribe/hanscribe/server/storage"
)

type Server struct {
	Log logs.Log
	DB  *datasetdb.DatasetDB

	signalIn     chan os.Signal
	httpServer   *http.Server
	httpRouter   *httprouter.Router
	storage      storage.Storage
	notify       *notifyHub
	wsUpgrader   websocket.Upgrader
	maxChunkSize int64
}

func NewServer(configFile string) (*Server, error) {
	cfg := Config{}
	cfgB, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cfgB, &cfg); err != nil {
		return nil, fmt.Errorf("Error parsing config file %v: %w", configFile, err)
	}
	logger, err := logs.NewLog()
	if err != nil {
		return nil, err
	}
	return NewServerFromConfig(logger, cfg)
}

func NewServerFromConfig(logger logs.Log, cfg Config) (*Server, error) {
	db, err := datasetdb.NewDatasetDB(logger, cfg.DB)
	if err != nil {
		return nil, err
	}

	var store storage.Storage
	if cfg.ImageStorage.GCS != nil {
		store, err = storage.NewStorageGCS(logger, cfg.ImageStorage.GCS.Bucket, cfg.ImageStorage.GCS.Public)
	} else if cfg.ImageStorage.Filesystem != nil {
		store, err = storage.NewStorageFS(logger, cfg.ImageStorage.Filesystem.Root)
	} else {
		return nil, fmt.Errorf("One of the storage options must be configured (i.e. either 'filesystem' or 'gcs')")
	}
	if err != nil {
		return nil, err
	}

	maxChunkSize := int64(saver.DefaultMaxChunkSize)
	if cfg.MaxChunkSize != "" {
		maxChunkSize, err = kibi.ParseBytes(cfg.MaxChunkSize)
		if err != nil {
			return nil, fmt.Errorf("Invalid maxChunkSize '%v': %w", cfg.MaxChunkSize, err)
		}
	}

	s := &Server{
		Log:          logger,
		DB:           db,
		storage:      store,
		notify:       newNotifyHub(logger),
		maxChunkSize: maxChunkSize,
	}
	s.setupHttpRoutes()
	return s, nil
}

// port example: ":8081"
func (s *Server) ListenHTTP(port string) error {
	s.Log.Infof("Listening on %v", port)
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	return s.httpServer.ListenAndServe()
}

// Router exposes the handler for tests that drive the API with httptest.
func (s *Server) Router() http.Handler {
	return s.httpRouter
}

func (s *Server) ListenForKillSignals() {
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.signalIn
		if ok {
			s.Log.Infof("Received OS signal '%v', shutting down", sig.String())
			s.Shutdown()
		}
	}()
}

func (s *Server) Shutdown() {
	s.Log.Infof("Shutdown")
	if s.signalIn != nil {
		signal.Stop(s.signalIn)
		close(s.signalIn)
	}
	s.notify.closeAll()
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.Log.Warnf("Shutdown complete, with error: %v", err)
			return
		}
	}
	s.Log.Infof("Shutdown complete")
}
