package server

import (
	"net/http"
	"sync"

	"github.com/cyclopcam/logs"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// saveProgressEvent is pushed to websocket clients after every save
// chunk, so an editing UI can show save progress without polling.
type saveProgressEvent struct {
	Type        string `json:"type"`
	DatasetID   int64  `json:"datasetId"`
	ChunkImages int    `json:"chunkImages"` // images in the chunk just applied
	Registered  int    `json:"registered"`  // images currently registered in the dataset
	Total       int    `json:"total"`       // images in the session inventory
}

// notifyHub fans events out to connected websocket clients. Clients only
// listen; anything they send is discarded.
type notifyHub struct {
	log     logs.Log
	lock    sync.Mutex
	clients map[*websocket.Conn]bool
}

func newNotifyHub(logger logs.Log) *notifyHub {
	return &notifyHub{
		log:     logger,
		clients: map[*websocket.Conn]bool{},
	}
}

func (h *notifyHub) add(conn *websocket.Conn) {
	h.lock.Lock()
	h.clients[conn] = true
	n := len(h.clients)
	h.lock.Unlock()
	h.log.Infof("Websocket client connected (%v active)", n)

	// Reader goroutine exists to notice the close
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.remove(conn)
	}()
}

func (h *notifyHub) remove(conn *websocket.Conn) {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
}

// publish writes under the hub lock: gorilla connections allow only one
// concurrent writer.
func (h *notifyHub) publish(event any) {
	h.lock.Lock()
	defer h.lock.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			h.log.Infof("Dropping websocket client: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *notifyHub) closeAll() {
	h.lock.Lock()
	defer h.lock.Unlock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = map[*websocket.Conn]bool{}
}

func (s *Server) httpWebSocket(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("Websocket upgrade failed: %v", err)
		return
	}
	s.notify.add(conn)
}
