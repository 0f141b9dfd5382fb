// Package realtime pushes AI instruction updates to subscribed browsers over WebSocket
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alchemorsel/recipebook/internal/ports/inbound"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 16
)

// ErrHubClosed is returned by Notify after the hub has stopped
var ErrHubClosed = errors.New("realtime hub is closed")

// Renderer produces the HTML fragment that replaces the notification target.
// card selects the compact variant shown on search result cards.
type Renderer func(state inbound.AIStateDTO, card bool) (string, error)

// Message is the payload written to subscribers
type Message struct {
	Topic    string             `json:"topic"`
	Target   string             `json:"target"`
	HTML     string             `json:"html"`
	CardHTML string             `json:"card_html"`
	State    inbound.AIStateDTO `json:"state"`
}

type client struct {
	conn  *websocket.Conn
	topic string
	send  chan []byte
}

type envelope struct {
	topic string
	data  []byte
}

// Hub fans notifications out to the clients subscribed to each topic
type Hub struct {
	upgrader websocket.Upgrader
	render   Renderer
	logger   *zap.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan envelope

	// topics is owned by the Run goroutine
	topics      map[string]map[*client]struct{}
	subscribers atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a hub. A nil renderer sends notifications without HTML.
func NewHub(render Renderer, logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		render:     render,
		logger:     logger.Named("realtime"),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan envelope),
		topics:     make(map[string]map[*client]struct{}),
		done:       make(chan struct{}),
	}
}

// Run manages subscriptions until ctx ends or Close is called
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.Close()
		for _, clients := range h.topics {
			for c := range clients {
				close(c.send)
			}
		}
		h.topics = make(map[string]map[*client]struct{})
		h.subscribers.Store(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return

		case c := <-h.register:
			clients, ok := h.topics[c.topic]
			if !ok {
				clients = make(map[*client]struct{})
				h.topics[c.topic] = clients
			}
			clients[c] = struct{}{}
			h.subscribers.Add(1)
			h.logger.Debug("Client subscribed", zap.String("topic", c.topic))

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			for c := range h.topics[msg.topic] {
				select {
				case c.send <- msg.data:
				default:
					h.logger.Warn("Dropping slow client", zap.String("topic", c.topic))
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	clients, ok := h.topics[c.topic]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.topics, c.topic)
	}
	close(c.send)
	h.subscribers.Add(-1)
}

// Close stops the hub; Run returns and every connection is closed
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// Subscribers reports the number of connected clients
func (h *Hub) Subscribers() int {
	return int(h.subscribers.Load())
}

// Notify renders the state and broadcasts it to the topic's subscribers
func (h *Hub) Notify(ctx context.Context, n outbound.Notification) error {
	msg := Message{
		Topic:  n.Topic,
		Target: n.Target,
		State:  n.State,
	}
	if h.render != nil {
		html, err := h.render(n.State, false)
		if err != nil {
			return fmt.Errorf("failed to render notification: %w", err)
		}
		card, err := h.render(n.State, true)
		if err != nil {
			return fmt.Errorf("failed to render notification card: %w", err)
		}
		msg.HTML = html
		msg.CardHTML = card
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	select {
	case h.broadcast <- envelope{topic: n.Topic, data: data}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ServeWS upgrades the request and subscribes the connection to topic
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("WebSocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		conn:  conn,
		topic: topic,
		send:  make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	go h.readPump(c)
}

// readPump discards client input and unsubscribes when the connection ends
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("WebSocket error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ outbound.Notifier = (*Hub)(nil)
