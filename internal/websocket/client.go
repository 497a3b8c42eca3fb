package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"plforecast/internal/infrastructure"
	"plforecast/internal/services"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time Stop waits for client pumps to exit
	pumpDrainWait = 5 * time.Second

	sendBuffer = 32
)

// Client is a middleman between one websocket connection, the hub and the asker.
type Client struct {
	hub     *Hub
	conn    Connection
	asker   Asker
	opts    Options
	metrics *infrastructure.BusinessMetrics

	// Buffered channel of outbound frames
	sendMu sync.Mutex
	send   chan []byte
	closed bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	messagesSent     int64
	messagesReceived int64
}

// NewClient wraps conn. traceID ties the connection to the upgrade request.
func NewClient(hub *Hub, conn Connection, asker Asker, opts Options, traceID string, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	remoteAddr := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remoteAddr = addr.String()
	}

	return &Client{
		hub:         hub,
		conn:        conn,
		asker:       asker,
		opts:        opts.withDefaults(),
		metrics:     metrics,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  remoteAddr,
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
		),
	}
}

// ID returns the client id sent in the connection frame.
func (c *Client) ID() string {
	return c.id
}

func (c *Client) context() context.Context {
	ctx := context.Background()
	if c.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, c.traceID)
	}
	return ctx
}

// enqueue queues data for the write pump. It reports false when the client is closed
// or its queue is full.
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		c.logger.WarnContext(c.context(), "Client send buffer full, dropping frame")
		return false
	}
}

func (c *Client) sendFrame(frame OutboundFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		c.logger.ErrorContext(c.context(), "Error marshaling frame", slog.String("error", err.Error()))
		return
	}
	if c.enqueue(data) {
		infrastructure.RecordWebSocketMessage(c.context(), c.metrics, "out", frame.Type)
	}
}

// close closes the send queue once; the write pump then sends a close frame.
func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads question frames until the connection fails. Questions are answered
// in order, one at a time.
func (c *Client) ReadPump() {
	ctx := c.context()
	defer func() {
		c.logger.InfoContext(ctx, "WebSocket client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	pongWait := c.opts.PongWait
	c.conn.SetReadLimit(c.opts.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WarnContext(ctx, "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived++
		c.handleFrame(ctx, message)
	}
}

func (c *Client) handleFrame(ctx context.Context, message []byte) {
	var frame InboundFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		infrastructure.RecordWebSocketMessage(ctx, c.metrics, "in", "invalid")
		c.sendFrame(errorFrame(CodeInvalidFrame, "frame is not valid JSON"))
		return
	}

	frameType := frame.Type
	if frameType == "" {
		frameType = TypeQuestion
	}
	infrastructure.RecordWebSocketMessage(ctx, c.metrics, "in", frameType)

	switch frameType {
	case TypeHeartbeat:
		_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
		return
	case TypeQuestion:
	default:
		c.sendFrame(errorFrame(CodeInvalidFrame, "unknown frame type "+frame.Type))
		return
	}

	resp, err := c.asker.Ask(ctx, services.ChatRequest{
		Question:  frame.Question,
		Table:     frame.Table,
		StartYear: frame.StartYear,
		EndYear:   frame.EndYear,
	})
	if err != nil {
		c.logger.WarnContext(ctx, "question refused", slog.String("error", err.Error()))
		c.sendFrame(askErrorFrame(err))
		return
	}
	c.sendFrame(replyFrame(resp))
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(c.context(), "WebSocket write pump stopped",
			slog.Int64("messages_sent", c.messagesSent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent++

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
