// Package feed provides a WebSocket feed of vault events and NAV ticks.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/log"

	"github.com/arbfi/vault/pkg/vault"
)

// Message is the envelope sent to subscribers.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Sequence  uint64      `json:"sequence,omitempty"`
}

// NAVTick is the periodic valuation snapshot pushed on the feed.
type NAVTick struct {
	NAV             string `json:"nav"`
	SharePrice      string `json:"sharePrice"`
	IdleCash        string `json:"idleCash"`
	ActivePositions int    `json:"activePositions"`
	PendingRequests int    `json:"pendingRequests"`
}

// Server fans vault events out to WebSocket clients.
type Server struct {
	logger log.Logger

	clients    map[*client]bool
	clientsMu  sync.RWMutex
	register   chan *client
	unregister chan *client
	broadcast  chan Message

	sequence    uint64
	messagesOut uint64
	clientCount int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type client struct {
	conn   *websocket.Conn
	server *Server
	send   chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// NewServer creates a feed server.
func NewServer(logger log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		logger:     logger,
		clients:    make(map[*client]bool),
		register:   make(chan *client, 64),
		unregister: make(chan *client, 64),
		broadcast:  make(chan Message, 1024),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// HandleEvent is a vault.EventHandler pushing events onto the feed. It never
// blocks the vault's critical section: a full broadcast buffer drops the
// message.
func (s *Server) HandleEvent(e vault.Event) {
	s.Publish(Message{Type: string(e.Kind), Data: e})
}

// PublishNAV pushes a valuation tick.
func (s *Server) PublishNAV(tick NAVTick) {
	s.Publish(Message{Type: "nav", Data: tick})
}

// Publish enqueues a message for broadcast, dropping it if the hub is behind.
func (s *Server) Publish(msg Message) {
	msg.Timestamp = time.Now().Unix()
	msg.Sequence = atomic.AddUint64(&s.sequence, 1)
	select {
	case s.broadcast <- msg:
	default:
		s.logger.Warn("feed broadcast buffer full, dropping message", "type", msg.Type)
	}
}

// Start serves the feed on addr until Stop is called.
func (s *Server) Start(addr string) error {
	s.wg.Add(1)
	go s.runHub()

	server := &http.Server{
		Addr:         addr,
		Handler:      serverMux(s),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-s.ctx.Done()
		server.Shutdown(context.Background())
	}()

	s.logger.Info("feed server starting", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("feed server: %w", err)
	}
	return nil
}

// Stop shuts down the hub and closes all client connections.
func (s *Server) Stop() {
	s.cancel()
	s.wg.Wait()
}

func serverMux(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) runHub() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			s.clientsMu.Lock()
			for c := range s.clients {
				close(c.send)
			}
			s.clients = make(map[*client]bool)
			s.clientsMu.Unlock()
			return

		case c := <-s.register:
			s.clientsMu.Lock()
			s.clients[c] = true
			s.clientsMu.Unlock()
			atomic.AddInt32(&s.clientCount, 1)
			s.logger.Debug("feed client connected", "total", atomic.LoadInt32(&s.clientCount))

		case c := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				close(c.send)
				atomic.AddInt32(&s.clientCount, -1)
			}
			s.clientsMu.Unlock()

		case msg := <-s.broadcast:
			s.broadcastMessage(msg)
		}
	}
}

func (s *Server) broadcastMessage(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("feed marshal failed", "error", err)
		return
	}

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- payload:
			atomic.AddUint64(&s.messagesOut, 1)
		default:
			// Slow client; it will be dropped by its write pump.
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("feed upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, server: s, send: make(chan []byte, 256)}
	s.register <- c

	go c.writePump()
	go c.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "healthy",
		"clients":  atomic.LoadInt32(&s.clientCount),
		"messages": atomic.LoadUint64(&s.messagesOut),
	})
}

func (c *client) readPump() {
	defer func() {
		c.server.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
		// The feed is broadcast-only; client messages just reset the
		// read deadline.
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
