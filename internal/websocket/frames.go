package websocket

import (
	"errors"
	"time"

	"plforecast/internal/services"
	"plforecast/pkg/contracts/domain"
)

// Frame types
const (
	TypeConnection = "connection"
	TypeQuestion   = "question"
	TypeReply      = "reply"
	TypeError      = "error"
	TypeHeartbeat  = "heartbeat"
	TypeStatus     = "status"
)

// Error frame codes
const (
	CodeInvalidFrame  = "INVALID_FRAME"
	CodeEmptyQuestion = "EMPTY_QUESTION"
	CodeNoDataset     = "NO_DATASET"
	CodeInternal      = "INTERNAL_ERROR"
)

// InboundFrame is a frame sent by the browser. An empty type is a question.
type InboundFrame struct {
	Type      string        `json:"type,omitempty"`
	Question  string        `json:"question"`
	Table     *domain.Table `json:"table,omitempty"`
	StartYear int           `json:"start_year,omitempty"`
	EndYear   int           `json:"end_year,omitempty"`
}

// OutboundFrame is a frame sent to the browser.
type OutboundFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	HTML      string `json:"html,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Code      string `json:"code,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

func newFrame(frameType string) OutboundFrame {
	return OutboundFrame{Type: frameType, Timestamp: time.Now().Format(time.RFC3339)}
}

func replyFrame(resp *services.ChatResponse) OutboundFrame {
	f := newFrame(TypeReply)
	f.Message = resp.Message
	f.HTML = resp.HTML
	f.Outcome = resp.Outcome
	f.Provider = resp.Provider
	return f
}

func errorFrame(code, message string) OutboundFrame {
	f := newFrame(TypeError)
	f.Code = code
	f.Message = message
	return f
}

// askErrorFrame maps a refused question onto an error frame.
func askErrorFrame(err error) OutboundFrame {
	switch {
	case errors.Is(err, services.ErrEmptyQuestion):
		return errorFrame(CodeEmptyQuestion, "question is required")
	case errors.Is(err, services.ErrNoDataset):
		return errorFrame(CodeNoDataset, "no dataset loaded; upload a workbook or send a table")
	}
	return errorFrame(CodeInternal, "the question could not be answered")
}
