package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/k597/AlertsWebApi/internal/services"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamSendBuffer = 32
)

// StreamHandler pushes alert change events to websocket subscribers.
// It implements services.EventPublisher.
type StreamHandler struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn *websocket.Conn
	addr string
	send chan []byte
	once sync.Once
}

func (c *streamClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler() *StreamHandler {
	return &StreamHandler{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS middleware decides which origins reach us
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// SetupRoutes configures the stream route
func (h *StreamHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/alerts/stream", h.HandleWebSocket)
}

// Subscribers returns the number of connected clients
func (h *StreamHandler) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends event to every subscriber. A subscriber whose buffer is full
// is dropped rather than allowed to stall the publisher.
func (h *StreamHandler) Publish(event services.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("StreamHandler: Failed to encode %s event: %v", event.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Printf("StreamHandler: Dropping slow subscriber %s", c.addr)
			delete(h.clients, c)
			c.close()
		}
	}
}

// HandleWebSocket upgrades the connection and streams events until the client leaves
func (h *StreamHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("StreamHandler: Failed to upgrade WebSocket: %v", err)
		return
	}

	c := &streamClient{conn: conn, addr: r.RemoteAddr, send: make(chan []byte, streamSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("StreamHandler: Subscriber connected from %s", r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

func (h *StreamHandler) unregister(c *streamClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// readPump discards client messages and detects disconnects
func (h *StreamHandler) readPump(c *streamClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		log.Printf("StreamHandler: Subscriber %s disconnected", c.addr)
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("StreamHandler: WebSocket read error: %v", err)
			}
			return
		}
	}
}

func (h *StreamHandler) writePump(c *streamClient) {
	ticker := time.NewTicker(streamPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("StreamHandler: Write to %s failed: %v", c.addr, err)
				h.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}
