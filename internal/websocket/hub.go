// Package websocket pushes analysis progress to browser clients.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/infrastructure"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/events"
)

const (
	// DefaultSendBuffer is the per-client outbound queue length.
	DefaultSendBuffer = 256

	broadcastQueue = 256
)

type envelope struct {
	msgType string
	payload []byte
}

// Hub maintains the set of active clients and fans out messages to them.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics

	quit    chan struct{}
	done    chan struct{}
	running bool
	stopped bool
}

// HubOption customizes a Hub.
type HubOption func(*Hub)

// WithMetrics records connection and broadcast counts.
func WithMetrics(m *infrastructure.PipelineMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// NewHub creates a hub. Call Start before registering clients.
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan envelope, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start runs the hub loop in the background. It is a no-op when already
// running.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running || h.stopped {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// Stop closes every client and ends the hub loop.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	running := h.running
	h.mu.Unlock()

	close(h.quit)
	if running {
		<-h.done
	}
}

func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			h.metrics.WSConnected(ctx, 1)
			h.logger.InfoContext(ctx, "client registered",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("total_clients", count))

			h.greet(client)

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if ok {
				ctx := client.context()
				h.metrics.WSConnected(ctx, -1)
				h.logger.InfoContext(ctx, "client unregistered",
					slog.String("client_id", client.id),
					slog.Int("total_clients", count),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			}

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) greet(client *Client) {
	payload, err := json.Marshal(events.Message{
		ID:        uuid.NewString(),
		Type:      events.MessageTypeConnect,
		Timestamp: time.Now().UTC(),
		TraceID:   client.traceID,
		Data: map[string]string{
			"status":    "connected",
			"client_id": client.id,
		},
	})
	if err != nil {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("client buffer full, connect message dropped",
			slog.String("client_id", client.id))
	}
}

// fanOut delivers one message. Clients that cannot keep up are disconnected.
func (h *Hub) fanOut(msg envelope) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered, dropped := 0, 0
	for client := range h.clients {
		select {
		case client.send <- msg.payload:
			delivered++
		default:
			dropped++
			close(client.send)
			delete(h.clients, client)
			h.metrics.WSConnected(client.context(), -1)
			h.logger.Warn("client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}
	h.metrics.RecordBroadcast(context.Background(), msg.msgType, delivered, dropped)
	h.logger.Debug("broadcast",
		slog.String("type", msg.msgType),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped),
		slog.Int("payload_size", len(msg.payload)))
}

// Broadcast queues msg for every connected client. It never blocks; when the
// queue is full or the hub is stopped the message is dropped.
func (h *Hub) Broadcast(msg events.Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return
	}

	select {
	case <-h.quit:
		return
	default:
	}
	select {
	case h.broadcast <- envelope{msgType: string(msg.Type), payload: payload}:
	default:
		h.logger.Warn("broadcast queue full, message dropped",
			slog.String("type", string(msg.Type)))
	}
}

// OnStageEvent publishes pipeline progress. Besides the per-stage update it
// emits run:started for the first stage and run:completed or run:failed when
// the run ends.
func (h *Hub) OnStageEvent(ctx context.Context, e events.StageEvent) {
	traceID := infrastructure.GetTraceID(ctx)
	send := func(t events.MessageType) {
		h.Broadcast(events.Message{Type: t, TraceID: traceID, Data: e})
	}

	if e.Index == 0 && e.Status == events.StageStatusActive {
		send(events.MessageTypeRunStarted)
	}
	send(events.MessageTypeStageUpdate)

	switch {
	case e.Status == events.StageStatusFailed:
		send(events.MessageTypeRunFailed)
	case e.Status != events.StageStatusActive && e.Index == e.Total-1:
		send(events.MessageTypeRunCompleted)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client. It reports false when the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister removes a client and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}
