package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cryptotracker/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	broadcastBuffer = 256
	clientBuffer    = 64
)

// Message is one frame pushed to UI clients.
type Message struct {
	Type   string                  `json:"type"` // snapshot | prices | status
	Status domain.ConnStatus       `json:"status,omitempty"`
	Prices map[string]domain.Price `json:"prices,omitempty"`
	Time   int64                   `json:"ts"`
}

// Hub fans price table events out to websocket clients. Clients that
// cannot keep up are dropped so the table's writer never blocks.
type Hub struct {
	table *domain.PriceTable

	mu      sync.RWMutex
	clients map[*client]struct{}

	broadcast  chan Message
	register   chan *client
	unregister chan *client
}

func NewHub(table *domain.PriceTable) *Hub {
	return &Hub{
		table:      table,
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan Message, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues msg for every client. It never blocks; when the queue is
// full the message is dropped.
func (h *Hub) Publish(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		log.Debug().Str("type", msg.Type).Msg("ui broadcast queue full, dropping")
	}
}

// Run subscribes to the table and serves the hub until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	var unsubscribe func()
	if h.table != nil {
		unsubscribe = h.table.Subscribe(func(ev domain.TableEvent) {
			switch ev.Kind {
			case domain.EventPrices:
				h.Publish(Message{Type: "prices", Prices: ev.Prices, Time: time.Now().UnixMilli()})
			case domain.EventStatus:
				h.Publish(Message{Type: "status", Status: ev.Status, Time: time.Now().UnixMilli()})
			}
		})
	}

	defer func() {
		if unsubscribe != nil {
			unsubscribe()
		}
		h.mu.Lock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			// 新连接先收到完整快照
			c.send <- h.snapshot()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// 客户端过慢，断开
					delete(h.clients, c)
					close(c.send)
					log.Warn().Str("remote", c.remote).Msg("ui client too slow, dropped")
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) snapshot() Message {
	msg := Message{Type: "snapshot", Time: time.Now().UnixMilli()}
	if h.table != nil {
		msg.Status = h.table.Status()
		msg.Prices = h.table.GetAll()
	}
	return msg
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers the client.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	cl := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan Message, clientBuffer),
		remote: c.ClientIP(),
	}

	select {
	case h.register <- cl:
	case <-c.Request.Context().Done():
		_ = conn.Close()
		return
	}

	go cl.writePump()
	go cl.readPump()
}
