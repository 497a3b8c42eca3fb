package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"plforecast/internal/infrastructure"
)

// Hub maintains the set of active chat clients.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound frames for every client
	broadcast chan []byte

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	totalConnections int64

	quit     chan struct{}
	done     chan struct{}
	running  bool
	started  bool
	stopped  bool
	stopOnce sync.Once

	// Read and write pumps of served clients
	pumps sync.WaitGroup
}

// NewHub creates a new Hub. metrics may be nil.
func NewHub(metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in the background. Calling it twice, or after Stop, is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.started || h.stopped {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.running = true
	h.mu.Unlock()

	go func() {
		defer close(h.done)
		h.Run()
	}()
}

// serve registers client and runs its pumps. Stop waits for the pumps to exit.
func (h *Hub) serve(client *Client) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		client.close()
		_ = client.conn.Close()
		return
	}
	h.pumps.Add(2)
	h.mu.Unlock()

	h.Register(client)

	go func() {
		defer h.pumps.Done()
		client.WritePump()
	}()
	go func() {
		defer h.pumps.Done()
		client.ReadPump()
	}()
}

// Run is the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.stopped {
				h.mu.Unlock()
				client.close()
				continue
			}
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.mu.Unlock()

			ctx := client.context()
			infrastructure.RecordWebSocketConnection(ctx, h.metrics, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			welcome := newFrame(TypeConnection)
			welcome.Message = "connected"
			welcome.ClientID = client.id
			welcome.TraceID = client.traceID
			client.sendFrame(welcome)

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
			}
			count := len(h.clients)
			h.mu.Unlock()

			if !ok {
				continue
			}
			client.close()

			ctx := client.context()
			infrastructure.RecordWebSocketConnection(ctx, h.metrics, -1)
			h.logger.InfoContext(ctx, "Client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			failed := 0
			for _, client := range clients {
				if !client.enqueue(message) {
					failed++
				}
			}
			if failed > 0 {
				h.logger.Warn("Some clients failed to receive broadcast",
					slog.Int("success_count", len(clients)-failed),
					slog.Int("fail_count", failed))
			}
		}
	}
}

// Register adds a client to the hub. Once the hub stopped the client is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.close()
	}
}

// Unregister removes a client and closes its send queue.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast sends frame to every connected client.
func (h *Hub) Broadcast(frame OutboundFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Error marshaling broadcast frame", slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.quit:
	}
}

// Notify broadcasts a status frame carrying message.
func (h *Hub) Notify(message string) {
	status := newFrame(TypeStatus)
	status.Message = message
	h.Broadcast(status)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop stops the hub loop and closes every client's send queue. It returns once the
// loop has exited and the client pumps have drained, or after pumpDrainWait.
func (h *Hub) Stop() {
	h.stop(nil)
}

// Shutdown is Stop preceded by a status frame carrying message to every client.
// The frame is queued ahead of the close frame.
func (h *Hub) Shutdown(message string) {
	status := newFrame(TypeStatus)
	status.Message = message
	data, err := json.Marshal(status)
	if err != nil {
		h.logger.Error("Error marshaling shutdown frame", slog.String("error", err.Error()))
	}
	h.stop(data)
}

func (h *Hub) stop(notice []byte) {
	h.stopOnce.Do(func() {
		close(h.quit)

		h.mu.Lock()
		h.running = false
		h.stopped = true
		started := h.started
		clients := make([]*Client, 0, len(h.clients))
		for client := range h.clients {
			clients = append(clients, client)
			delete(h.clients, client)
		}
		h.mu.Unlock()

		for _, client := range clients {
			if notice != nil {
				client.enqueue(notice)
			}
			client.close()
			infrastructure.RecordWebSocketConnection(context.Background(), h.metrics, -1)
		}

		if started {
			<-h.done
		}

		drained := make(chan struct{})
		go func() {
			h.pumps.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(pumpDrainWait):
			h.logger.Warn("Client pumps still running after stop", slog.Duration("waited", pumpDrainWait))
		}

		h.logger.Info("Hub stopped", slog.Int("closed_clients", len(clients)))
	})
}
