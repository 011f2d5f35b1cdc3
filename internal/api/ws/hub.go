package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/showdown-optimizer/internal/progress"
	"github.com/jstittsworth/showdown-optimizer/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // TODO: restrict origins once the frontend host is fixed
	},
}

// Client is one connected progress listener.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans progress events out to every connected websocket client so a UI
// can follow long-running discovery and backtest cycles.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	log        *logrus.Logger
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        logger.Get(),
	}
}

// Run owns the client set; call it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.WithField("total_clients", len(h.clients)).Info("WebSocket client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop rather than stall the hub.
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// Relay drains a progress reporter into the hub until the reporter closes.
func (h *Hub) Relay(topic string, rep *progress.Reporter) {
	for event := range rep.Events() {
		payload, err := json.Marshal(gin.H{
			"type":    "progress",
			"topic":   topic,
			"step":    event.Step,
			"percent": event.Percent,
		})
		if err != nil {
			continue
		}
		select {
		case h.broadcast <- payload:
		default:
		}
	}
}

// HandleConnection upgrades an HTTP request and pumps events to the client.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{conn: conn, send: make(chan []byte, 64)}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// readPump discards inbound frames; its job is detecting disconnects.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
