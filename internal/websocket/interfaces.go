package websocket

import (
	"context"
	"net"
	"time"

	"plforecast/internal/services"
)

// Connection is the part of *websocket.Conn a client uses.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() net.Addr
}

// Asker answers chat questions. *services.ChatService implements it.
type Asker interface {
	Ask(ctx context.Context, req services.ChatRequest) (*services.ChatResponse, error)
}
