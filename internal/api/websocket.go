package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // solver event stream has no same-origin requirement
	},
}

// Hub fans out the driver's listing/new_puzzle/step event envelopes to every
// subscribed websocket client, decoupling the solve rate from however many
// viewers are currently watching.
type Hub struct {
	viewers   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		viewers:   make(map[*websocket.Conn]bool),
	}
}

// Run drains the broadcast channel and fans each envelope out to every
// connected viewer. Intended to be launched in its own goroutine.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for viewer := range h.viewers {
			// Set write deadline to prevent a stalled viewer from hanging the hub.
			_ = viewer.SetWriteDeadline(time.Now().Add(5 * time.Second))
			err := viewer.WriteMessage(websocket.TextMessage, message)
			if err != nil {
				log.Printf("[stream] write error: %v", err)
				viewer.Close()
				delete(h.viewers, viewer)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe upgrades the request to a websocket and registers it to receive
// every future solver event envelope.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[stream] failed to upgrade: %v", err)
		return
	}

	h.mutex.Lock()
	h.viewers[conn] = true
	h.mutex.Unlock()

	log.Printf("[stream] viewer connected, total %d", len(h.viewers))

	// We only push events down, but we must keep reading to notice disconnects.
	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.viewers, conn)
			h.mutex.Unlock()
			conn.Close()
			log.Printf("[stream] viewer disconnected, total %d", len(h.viewers))
		}()
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[stream] read error: %v", err)
				}
				break
			}
		}
	}()
}

// Broadcast enqueues a JSON event envelope for delivery to every connected
// viewer.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}
